package service

import (
	"go.uber.org/zap"

	"github.com/tiketku/tiketku-api/internal/domain"
)

type NotificationKind string

const (
	NotifyTransactionConfirmed NotificationKind = "TransactionConfirmed"
	NotifyTransactionRejected  NotificationKind = "TransactionRejected"
	NotifyTransactionExpired   NotificationKind = "TransactionExpired"
)

// Notifier receives transaction lifecycle events. Delivery is
// fire-and-forget; the state machine never waits on it.
type Notifier interface {
	Notify(kind NotificationKind, transaction domain.Transaction)
}

// LogNotifier writes notifications to the application log. It stands in
// for an email/push channel.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Notify(kind NotificationKind, transaction domain.Transaction) {
	zap.L().Info("transaction notification",
		zap.String("kind", string(kind)),
		zap.Uint("transaction_id", transaction.ID),
		zap.Uint("user_id", transaction.UserID),
		zap.String("status", string(transaction.Status)),
	)
}

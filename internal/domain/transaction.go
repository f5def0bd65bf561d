package domain

import "time"

type TransactionStatus string

const (
	StatusPendingPayment      TransactionStatus = "PENDING_PAYMENT"
	StatusPendingConfirmation TransactionStatus = "PENDING_CONFIRMATION"
	StatusConfirmed           TransactionStatus = "CONFIRMED"
	StatusRejected            TransactionStatus = "REJECTED"
	StatusExpired             TransactionStatus = "EXPIRED"
	StatusCancelled           TransactionStatus = "CANCELLED"
)

// transitions is the closed set of legal status changes. Anything not
// listed here is rejected with ErrInvalidTransactionState by the service.
var transitions = map[TransactionStatus][]TransactionStatus{
	StatusPendingPayment:      {StatusPendingConfirmation, StatusExpired, StatusCancelled},
	StatusPendingConfirmation: {StatusConfirmed, StatusRejected, StatusCancelled},
	StatusConfirmed:           {},
	StatusRejected:            {},
	StatusExpired:             {},
	StatusCancelled:           {},
}

func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s TransactionStatus) Terminal() bool {
	return len(transitions[s]) == 0
}

// CompensationRequired reports whether reaching this terminal status must
// put back seats, points and voucher uses reserved at creation.
func (s TransactionStatus) CompensationRequired() bool {
	switch s {
	case StatusRejected, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

type Transaction struct {
	ID              uint              `json:"id"`
	UserID          uint              `json:"user_id"`
	EventID         uint              `json:"event_id"`
	Items           []TransactionItem `json:"items"`
	OriginalAmount  int64             `json:"original_amount"`
	PointsUsed      int64             `json:"points_used"`
	DiscountAmount  int64             `json:"discount_amount"`
	TotalAmount     int64             `json:"total_amount"`
	CouponID        *uint             `json:"coupon_id,omitempty"`
	Status          TransactionStatus `json:"status"`
	PaymentDeadline time.Time         `json:"payment_deadline"`
	PaymentProofRef string            `json:"payment_proof_ref,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// TransactionItem freezes the unit price at the time of purchase; totals
// are never re-derived from the live TicketType later.
type TransactionItem struct {
	ID            uint  `json:"id"`
	TransactionID uint  `json:"transaction_id"`
	TicketTypeID  uint  `json:"ticket_type_id"`
	Quantity      int   `json:"quantity"`
	UnitPrice     int64 `json:"unit_price"`
}

package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// TransactionSweeper is the part of the transaction service the sweeper
// drives: expire everything past its payment deadline.
type TransactionSweeper interface {
	SweepExpired(ctx context.Context, now time.Time) (int, error)
}

// ExpirySweeper periodically forces overdue PENDING_PAYMENT
// transactions into EXPIRED. Each row is guarded by a
// compare-and-transition in the repository, so running concurrently
// with user-driven transitions (or another sweep) is safe.
type ExpirySweeper struct {
	transactions TransactionSweeper
	interval     time.Duration
}

func NewExpirySweeper(transactions TransactionSweeper, interval time.Duration) *ExpirySweeper {
	return &ExpirySweeper{
		transactions: transactions,
		interval:     interval,
	}
}

func (w *ExpirySweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	zap.L().Info("expiry sweeper started", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("expiry sweeper stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExpirySweeper) sweep(ctx context.Context) {
	swept, err := w.transactions.SweepExpired(ctx, time.Now())
	if err != nil {
		zap.L().Error("expiry sweep failed", zap.Error(err))
		return
	}

	if swept > 0 {
		zap.L().Info("expired overdue transactions", zap.Int("count", swept))
	}
}

package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CheckoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tiketku_checkouts_total",
		Help: "Checkout attempts by result.",
	}, []string{"result"})

	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tiketku_transaction_transitions_total",
		Help: "Transaction status transitions.",
	}, []string{"to"})

	SweptExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tiketku_swept_expired_total",
		Help: "Transactions expired by the sweeper.",
	})

	CompensationRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tiketku_compensation_retries_total",
		Help: "Retries of failed compensation attempts.",
	})
)

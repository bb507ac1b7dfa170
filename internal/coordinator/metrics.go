package coordinator

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	Mutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_mutations_total",
			Help: "Ledger mutations by operation and outcome",
		},
		[]string{"op", "outcome"},
	)
	MutationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_mutation_duration_seconds",
			Help:    "Time from request to persisted ledger mutation",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)
	LockWait = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ledger_lock_wait_seconds",
			Help:    "Time spent waiting for a per-user lock",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		},
	)
	InvariantViolations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_invariant_violations_total",
			Help: "Mutations aborted because the resulting record broke an invariant",
		},
	)
	CardsDrawn = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_cards_drawn_total",
			Help: "Cards granted by pack type",
		},
		[]string{"pack"},
	)
)

func init() {
	prometheus.MustRegister(Mutations)
	prometheus.MustRegister(MutationDuration)
	prometheus.MustRegister(LockWait)
	prometheus.MustRegister(InvariantViolations)
	prometheus.MustRegister(CardsDrawn)
}

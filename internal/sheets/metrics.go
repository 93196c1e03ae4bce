package sheets

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storeCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "circlepay",
		Subsystem: "store",
		Name:      "calls_total",
		Help:      "Tabular store calls broken down by operation and final result.",
	}, []string{"op", "result"})

	storeRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "circlepay",
		Subsystem: "store",
		Name:      "retries_total",
		Help:      "Failed tabular store attempts that were retried.",
	}, []string{"op"})
)

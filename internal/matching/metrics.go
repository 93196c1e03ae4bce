package matching

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	matchRoutes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "circlepay",
		Subsystem: "matching",
		Name:      "results_total",
		Help:      "Buy-in match results by route and method.",
	}, []string{"route", "method"})

	claimMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "circlepay",
		Subsystem: "matching",
		Name:      "claim_misses_total",
		Help:      "Candidates that could not be claimed and were skipped.",
	})
)

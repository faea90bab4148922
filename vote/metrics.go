package vote

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pollsCreatedMetric = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tcr",
		Subsystem: "vote",
		Name:      "polls_created_total",
		Help:      "Number of polls opened",
	})

	votesCommittedMetric = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tcr",
		Subsystem: "vote",
		Name:      "votes_committed_total",
		Help:      "Number of ballot commitments accepted",
	})

	votesRevealedMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tcr",
		Subsystem: "vote",
		Name:      "votes_revealed_total",
		Help:      "Number of ballots revealed",
	}, []string{"choice"})
)

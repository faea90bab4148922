package registry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	applicationsMetric = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tcr",
		Subsystem: "registry",
		Name:      "applications_total",
		Help:      "Number of listing applications accepted",
	})

	challengesOpenedMetric = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tcr",
		Subsystem: "registry",
		Name:      "challenges_opened_total",
		Help:      "Number of challenges filed",
	})

	challengesResolvedMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tcr",
		Subsystem: "registry",
		Name:      "challenges_resolved_total",
		Help:      "Number of challenges resolved",
	}, []string{"winner"})

	rewardsClaimedMetric = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tcr",
		Subsystem: "registry",
		Name:      "rewards_claimed_total",
		Help:      "Number of successful voter reward claims",
	})

	rewardsPaidMetric = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tcr",
		Subsystem: "registry",
		Name:      "reward_tokens_paid_total",
		Help:      "Token amount paid out to winning voters",
	})
)

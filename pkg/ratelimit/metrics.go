package ratelimit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	decisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_ratelimit_decisions_total",
			Help: "Rate limit decisions by outcome",
		},
		[]string{"outcome"}, // allowed, denied
	)

	activeKeys = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_ratelimit_active_keys",
			Help: "Number of client keys currently tracked by the limiter",
		},
	)
)

func recordDecision(allowed bool) {
	outcome := "allowed"
	if !allowed {
		outcome = "denied"
	}
	decisionsTotal.WithLabelValues(outcome).Inc()
}

func updateKeyGauge(n int) {
	activeKeys.Set(float64(n))
}

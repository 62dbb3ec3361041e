package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modelrelay_submits_total",
		Help: "Form submits by input type and outcome.",
	}, []string{"input_type", "outcome"})

	webhookDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "modelrelay_webhook_duration_seconds",
		Help:    "Round-trip duration of webhook calls.",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 180},
	}, []string{"input_type"})
)

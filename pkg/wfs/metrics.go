package wfs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "berlin",
		Subsystem: "wfs",
		Name:      "requests_total",
		Help:      "Total WFS GetFeature queries by source and outcome code",
	}, []string{"source", "outcome"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "berlin",
		Subsystem: "wfs",
		Name:      "request_duration_seconds",
		Help:      "WFS query latency in seconds, including retries",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"source"})

	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "berlin",
		Subsystem: "wfs",
		Name:      "retries_total",
		Help:      "Total WFS query retries",
	}, []string{"source"})
)

package catalog

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "apibench"

type serverMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func newServerMetrics(reg prometheus.Registerer) *serverMetrics {
	m := &serverMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "catalog",
				Name:      "requests_total",
				Help:      "Catalog operations served, by transport, operation and outcome",
			},
			[]string{"transport", "operation", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "catalog",
				Name:      "request_duration_seconds",
				Help:      "Time spent serving catalog operations",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
			},
			[]string{"transport", "operation"},
		),
	}
	reg.MustRegister(m.requestsTotal, m.requestDuration)
	return m
}

func (m *serverMetrics) observe(transport, operation string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.requestsTotal.WithLabelValues(transport, operation, status).Inc()
	m.requestDuration.WithLabelValues(transport, operation).Observe(time.Since(start).Seconds())
}

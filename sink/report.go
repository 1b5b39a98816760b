package sink

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/perfgo/apibench/model"
	"github.com/perfgo/apibench/stats"
	"github.com/prometheus/client_golang/prometheus"
)

// Report is the JSON summary stored alongside a recorded run.
type Report struct {
	SessionID  string                   `json:"session_id"`
	Started    time.Time                `json:"started"`
	Finished   time.Time                `json:"finished"`
	Transports []stats.TransportSummary `json:"transports"`
	Statistics []model.TrialStatistics  `json:"statistics"`
}

// WriteSummaryJSON writes v as indented JSON.
func WriteSummaryJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

// WriteMetrics writes the trial latencies and outcome counters of results
// in the Prometheus text format, suitable for the node_exporter textfile
// collector.
func WriteMetrics(path string, results []model.TrialResult) error {
	reg := prometheus.NewRegistry()
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "apibench",
			Name:      "trial_duration_seconds",
			Help:      "Total response time of completed trials",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 16),
		},
		[]string{"transport", "operation"},
	)
	total := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "apibench",
			Name:      "trials_total",
			Help:      "Trials recorded, by transport, operation and outcome",
		},
		[]string{"transport", "operation", "status"},
	)
	reg.MustRegister(duration, total)

	for _, r := range results {
		transport, operation := string(r.Transport), string(r.Operation)
		status := "ok"
		if !r.Succeeded {
			status = "error"
		}
		total.WithLabelValues(transport, operation, status).Inc()
		if r.Completed() {
			duration.WithLabelValues(transport, operation).Observe(float64(r.TotalTimeMs) / 1000)
		}
	}

	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

package protocol

import (
	"github.com/perfgo/apibench/model"
	"github.com/perfgo/apibench/stats"
	"github.com/rs/zerolog"
)

// LogSummary logs the whole-run means of each transport.
func LogSummary(logger zerolog.Logger, results []model.TrialResult) {
	for _, s := range stats.Summarize(results) {
		logger.Info().
			Str("transport", string(s.Transport)).
			Int("trials", s.Trials).
			Float64("mean_time_ms", s.MeanTimeMs).
			Float64("mean_memory_bytes", s.MeanMemoryBytes).
			Float64("mean_cpu_percent", s.MeanCPUPercent).
			Float64("success_rate_percent", s.SuccessRatePercent).
			Msg("Research summary")
	}
}

// Package stats folds trial results into per-cell summary statistics.
package stats

import (
	"math"

	"github.com/codahale/hdrhistogram"
	"github.com/perfgo/apibench/model"
)

// Latencies above an hour are clamped into the top histogram bucket.
const (
	histogramMinMs   = 1
	histogramMaxMs   = 3_600_000
	histogramSigFigs = 3
)

// Aggregate reduces the results of a single cell. Only completed trials
// (succeeded with a positive time) feed the figures; the success rate is
// completed trials over all attempts. With no completed trials every figure,
// the success rate included, is 0.
func Aggregate(results []model.TrialResult) model.TrialStatistics {
	var st model.TrialStatistics
	if len(results) == 0 {
		return st
	}

	first := results[0]
	st.Transport = first.Transport
	st.Operation = first.Operation
	st.DataSize = first.DataSize
	st.LoadLevel = first.LoadLevel
	st.Trials = len(results)

	completed := make([]model.TrialResult, 0, len(results))
	for _, r := range results {
		if r.Completed() {
			completed = append(completed, r)
		}
	}
	if len(completed) == 0 {
		return st
	}
	st.Succeeded = len(completed)
	st.SuccessRatePercent = 100 * float64(st.Succeeded) / float64(st.Trials)

	hist := hdrhistogram.New(histogramMinMs, histogramMaxMs, histogramSigFigs)
	var sumTime, sumMem, sumCPU float64
	minTime, maxTime := completed[0].TotalTimeMs, completed[0].TotalTimeMs
	for _, r := range completed {
		sumTime += float64(r.TotalTimeMs)
		sumMem += float64(r.MemoryBytes)
		sumCPU += r.CPUPercent
		minTime = min(minTime, r.TotalTimeMs)
		maxTime = max(maxTime, r.TotalTimeMs)
		_ = hist.RecordValue(min(r.TotalTimeMs, histogramMaxMs))
	}

	n := float64(len(completed))
	st.MeanTimeMs = sumTime / n
	st.MinTimeMs = float64(minTime)
	st.MaxTimeMs = float64(maxTime)
	st.MeanMemoryBytes = sumMem / n
	st.MeanCPUPercent = sumCPU / n

	var variance float64
	for _, r := range completed {
		d := float64(r.TotalTimeMs) - st.MeanTimeMs
		variance += d * d
	}
	st.StdDevTimeMs = math.Sqrt(variance / n)

	st.P50TimeMs = float64(hist.ValueAtQuantile(50))
	st.P95TimeMs = float64(hist.ValueAtQuantile(95))
	st.P99TimeMs = float64(hist.ValueAtQuantile(99))
	return st
}

// GroupByCell splits results into cells, preserving the order in which
// cells first appear.
func GroupByCell(results []model.TrialResult) ([]model.Cell, map[model.Cell][]model.TrialResult) {
	var order []model.Cell
	groups := make(map[model.Cell][]model.TrialResult)
	for _, r := range results {
		c := r.Cell()
		if _, ok := groups[c]; !ok {
			order = append(order, c)
		}
		groups[c] = append(groups[c], r)
	}
	return order, groups
}

// AggregateAll returns one TrialStatistics per cell in first-seen order.
func AggregateAll(results []model.TrialResult) []model.TrialStatistics {
	order, groups := GroupByCell(results)
	out := make([]model.TrialStatistics, 0, len(order))
	for _, c := range order {
		out = append(out, Aggregate(groups[c]))
	}
	return out
}

// TransportSummary is the whole-run view of one transport.
type TransportSummary struct {
	Transport          model.Transport `json:"transport"`
	Trials             int             `json:"trials"`
	MeanTimeMs         float64         `json:"mean_time_ms"`
	MeanMemoryBytes    float64         `json:"mean_memory_bytes"`
	MeanCPUPercent     float64         `json:"mean_cpu_percent"`
	SuccessRatePercent float64         `json:"success_rate_percent"`
}

// Summarize computes per-transport means across all cells, in the order
// of model.Transports. Transports without results are omitted.
func Summarize(results []model.TrialResult) []TransportSummary {
	var out []TransportSummary
	for _, t := range model.Transports() {
		s := TransportSummary{Transport: t}
		var completed int
		var sumTime, sumMem, sumCPU float64
		for _, r := range results {
			if r.Transport != t {
				continue
			}
			s.Trials++
			if r.Completed() {
				completed++
				sumTime += float64(r.TotalTimeMs)
				sumMem += float64(r.MemoryBytes)
				sumCPU += r.CPUPercent
			}
		}
		if s.Trials == 0 {
			continue
		}
		if completed > 0 {
			n := float64(completed)
			s.MeanTimeMs = sumTime / n
			s.MeanMemoryBytes = sumMem / n
			s.MeanCPUPercent = sumCPU / n
			s.SuccessRatePercent = 100 * n / float64(s.Trials)
		}
		out = append(out, s)
	}
	return out
}

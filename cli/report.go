package cli

// This file contains the human readable reports printed after a run and
// stored next to its history entry.

import (
	"fmt"
	"io"
	"slices"

	"github.com/perfgo/apibench/complexity"
	"github.com/perfgo/apibench/model"
	"github.com/perfgo/apibench/stats"
)

const mib = 1024 * 1024

func signed(v float64, format string) string {
	s := fmt.Sprintf(format, v)
	if v > 0 {
		return "+" + s
	}
	return s
}

func writeRunReport(w io.Writer, statistics []model.TrialStatistics, results []model.TrialResult) {
	fmt.Fprintf(w, "=== Full comparison ===\n\n")

	for _, t := range model.Transports() {
		fmt.Fprintf(w, "%s results:\n", t)
		for _, s := range statistics {
			if s.Transport != t {
				continue
			}
			fmt.Fprintf(w, "%s (%d items, %d req/min):\n", s.Operation, s.DataSize, s.LoadLevel)
			fmt.Fprintf(w, "  Avg: %.1fms | Min: %.0fms | Max: %.0fms | p95: %.0fms\n", s.MeanTimeMs, s.MinTimeMs, s.MaxTimeMs, s.P95TimeMs)
			fmt.Fprintf(w, "  Memory: %.2fMB | CPU: %.1f%%\n", s.MeanMemoryBytes/mib, s.MeanCPUPercent)
			fmt.Fprintf(w, "  Success: %.1f%% | StdDev: %.1fms\n\n", s.SuccessRatePercent, s.StdDevTimeMs)
		}
	}

	summaries := stats.Summarize(results)
	if len(summaries) != 2 {
		return
	}
	rest, gql := summaries[0], summaries[1]

	fmt.Fprintf(w, "Comparison:\n")
	fmt.Fprintf(w, "  Response time: REST %.1fms vs GRAPHQL %.1fms\n", rest.MeanTimeMs, gql.MeanTimeMs)
	fmt.Fprintf(w, "  Memory usage: REST %.2fMB vs GRAPHQL %.2fMB\n", rest.MeanMemoryBytes/mib, gql.MeanMemoryBytes/mib)
	fmt.Fprintf(w, "  CPU usage: REST %.1f%% vs GRAPHQL %.1f%%\n", rest.MeanCPUPercent, gql.MeanCPUPercent)
	fmt.Fprintf(w, "  Success rate: REST %.1f%% vs GRAPHQL %.1f%%\n\n", rest.SuccessRatePercent, gql.SuccessRatePercent)

	timeDiff := gql.MeanTimeMs - rest.MeanTimeMs
	memDiff := gql.MeanMemoryBytes - rest.MeanMemoryBytes
	cpuDiff := gql.MeanCPUPercent - rest.MeanCPUPercent
	fmt.Fprintf(w, "GRAPHQL relative to REST:\n")
	fmt.Fprintf(w, "  Response time: %sms (%s)\n", signed(timeDiff, "%.1f"), pick(timeDiff > 0, "slower", "faster"))
	fmt.Fprintf(w, "  Memory usage: %sMB (%s)\n", signed(memDiff/mib, "%.2f"), pick(memDiff > 0, "uses more", "uses less"))
	fmt.Fprintf(w, "  CPU usage: %s%% (%s)\n\n", signed(cpuDiff, "%.1f"), pick(cpuDiff > 0, "uses more", "uses less"))

	var sizes, levels []int
	var operations []model.OperationKind
	for _, s := range statistics {
		if !slices.Contains(sizes, s.DataSize) {
			sizes = append(sizes, s.DataSize)
		}
		if !slices.Contains(levels, s.LoadLevel) {
			levels = append(levels, s.LoadLevel)
		}
		if !slices.Contains(operations, s.Operation) {
			operations = append(operations, s.Operation)
		}
	}
	slices.Sort(sizes)
	slices.Sort(levels)
	fmt.Fprintf(w, "Coverage:\n")
	fmt.Fprintf(w, "  Cells: %d | Trials: REST %d, GRAPHQL %d\n", len(statistics), rest.Trials, gql.Trials)
	fmt.Fprintf(w, "  Data sizes: %v\n", sizes)
	fmt.Fprintf(w, "  Load levels: %v\n", levels)
	fmt.Fprintf(w, "  Operations: %v\n", operations)
}

func writeQuickReport(w io.Writer, averages []model.TrialResult) {
	fmt.Fprintf(w, "=== Quick comparison ===\n\n")

	byTransport := make(map[model.Transport]model.TrialResult, len(averages))
	for _, r := range averages {
		byTransport[r.Transport] = r
		fmt.Fprintf(w, "%s:\n", r.Transport)
		fmt.Fprintf(w, "  Response time: %d ms\n", r.TotalTimeMs)
		fmt.Fprintf(w, "  Memory usage: %.2f MB\n", float64(r.MemoryBytes)/mib)
		fmt.Fprintf(w, "  CPU usage: %.2f%%\n", r.CPUPercent)
		fmt.Fprintf(w, "  Transferred: %d bytes\n", r.TransferredBytes)
		if r.Succeeded {
			fmt.Fprintf(w, "  Success: yes\n\n")
		} else {
			fmt.Fprintf(w, "  Success: no (%s)\n\n", r.Error)
		}
	}

	rest, ok1 := byTransport[model.TransportREST]
	gql, ok2 := byTransport[model.TransportGraphQL]
	if !ok1 || !ok2 {
		fmt.Fprintf(w, "Comparison unavailable: a transport produced no average\n")
		return
	}

	fmt.Fprintf(w, "GRAPHQL relative to REST:\n")
	fmt.Fprintf(w, "  Response time diff: %sms\n", signed(float64(gql.TotalTimeMs-rest.TotalTimeMs), "%.0f"))
	fmt.Fprintf(w, "  Memory diff: %sMB\n", signed(float64(gql.MemoryBytes-rest.MemoryBytes)/mib, "%.2f"))
	fmt.Fprintf(w, "  CPU diff: %s%%\n", signed(gql.CPUPercent-rest.CPUPercent, "%.2f"))
}

func writeComplexityReport(w io.Writer, records []model.ComplexityRecord, summary complexity.Summary) {
	fmt.Fprintf(w, "=== Complexity analysis ===\n\n")
	for _, r := range records {
		fmt.Fprintf(w, "%s - %s:\n", r.Transport, r.Component)
		fmt.Fprintf(w, "  Lines of code: %d\n", r.LinesOfCode)
		fmt.Fprintf(w, "  Cyclomatic complexity: %d\n", r.CyclomaticComplexity)
		fmt.Fprintf(w, "  Cognitive complexity: %d\n", r.CognitiveComplexity)
		fmt.Fprintf(w, "  Error handling lines: %d\n", r.ErrorHandlingLines)
		fmt.Fprintf(w, "  Documentation lines: %d\n", r.DocLines)
		fmt.Fprintf(w, "  Implementation difficulty: %s\n", r.Difficulty)
		fmt.Fprintf(w, "  Maintainability score: %.2f\n", r.MaintainabilityScore)
		fmt.Fprintf(w, "  Readability score: %.2f\n", r.ReadabilityScore)
		fmt.Fprintf(w, "  Total score: %.2f\n\n", r.TotalScore)
	}

	fmt.Fprintf(w, "Summary:\n")
	for _, s := range []complexity.TransportSummary{summary.REST, summary.GraphQL} {
		fmt.Fprintf(w, "  %s: %d lines in %d components, avg cyclomatic %.2f, maintainability %.2f, readability %.2f, total %.2f\n",
			s.Transport, s.TotalLines, s.Components, s.AvgCyclomatic, s.AvgMaintainability, s.AvgReadability, s.AvgTotalScore)
	}
}

func pick(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}

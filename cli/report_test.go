package cli

import (
	"bytes"
	"testing"

	"github.com/perfgo/apibench/complexity"
	"github.com/perfgo/apibench/model"
	"github.com/perfgo/apibench/stats"
	"github.com/stretchr/testify/assert"
)

func TestWriteRunReport(t *testing.T) {
	results := []model.TrialResult{
		{Transport: model.TransportREST, Operation: model.OperationProducts, DataSize: 50, LoadLevel: 100, TotalTimeMs: 100, MemoryBytes: 2 * mib, CPUPercent: 10, Succeeded: true},
		{Transport: model.TransportREST, Operation: model.OperationProducts, DataSize: 50, LoadLevel: 100, TotalTimeMs: 200, MemoryBytes: 2 * mib, CPUPercent: 10, Succeeded: true},
		{Transport: model.TransportGraphQL, Operation: model.OperationProducts, DataSize: 50, LoadLevel: 100, TotalTimeMs: 180, MemoryBytes: 3 * mib, CPUPercent: 5, Succeeded: true},
		{Transport: model.TransportGraphQL, Operation: model.OperationProducts, DataSize: 50, LoadLevel: 100, TotalTimeMs: -1, Succeeded: false, Error: "boom"},
	}

	var buf bytes.Buffer
	writeRunReport(&buf, stats.AggregateAll(results), results)
	out := buf.String()

	assert.Contains(t, out, "REST results:\nPRODUCTS (50 items, 100 req/min):\n  Avg: 150.0ms | Min: 100ms | Max: 200ms")
	assert.Contains(t, out, "Success: 50.0% | StdDev: 0.0ms")
	assert.Contains(t, out, "Response time: REST 150.0ms vs GRAPHQL 180.0ms")
	assert.Contains(t, out, "Response time: +30.0ms (slower)")
	assert.Contains(t, out, "Memory usage: +1.00MB (uses more)")
	assert.Contains(t, out, "CPU usage: -5.0% (uses less)")
	assert.Contains(t, out, "Cells: 2 | Trials: REST 2, GRAPHQL 2")
	assert.Contains(t, out, "Data sizes: [50]")
}

func TestWriteRunReportSingleTransport(t *testing.T) {
	results := []model.TrialResult{
		{Transport: model.TransportREST, Operation: model.OperationPackages, DataSize: 100, LoadLevel: 500, TotalTimeMs: 40, Succeeded: true},
	}

	var buf bytes.Buffer
	writeRunReport(&buf, stats.AggregateAll(results), results)

	assert.Contains(t, buf.String(), "PACKAGES (100 items, 500 req/min)")
	assert.NotContains(t, buf.String(), "Comparison:")
}

func TestWriteQuickReport(t *testing.T) {
	averages := []model.TrialResult{
		{Transport: model.TransportREST, Operation: model.OperationQuickAverage, TotalTimeMs: 40, MemoryBytes: mib, CPUPercent: 2, TransferredBytes: 900, Succeeded: true},
		{Transport: model.TransportGraphQL, Operation: model.OperationQuickAverage, TotalTimeMs: 35, MemoryBytes: mib / 2, CPUPercent: 3, Error: "One or both rounds failed"},
	}

	var buf bytes.Buffer
	writeQuickReport(&buf, averages)
	out := buf.String()

	assert.Contains(t, out, "REST:\n  Response time: 40 ms\n  Memory usage: 1.00 MB")
	assert.Contains(t, out, "Transferred: 900 bytes")
	assert.Contains(t, out, "Success: no (One or both rounds failed)")
	assert.Contains(t, out, "Response time diff: -5ms")
	assert.Contains(t, out, "Memory diff: -0.50MB")
	assert.Contains(t, out, "CPU diff: +1.00%")

	buf.Reset()
	writeQuickReport(&buf, averages[:1])
	assert.Contains(t, buf.String(), "Comparison unavailable")
}

func TestWriteComplexityReport(t *testing.T) {
	records := complexity.Score()

	var buf bytes.Buffer
	writeComplexityReport(&buf, records, complexity.Summarize(records))
	out := buf.String()

	assert.Contains(t, out, "REST - Service Interface:\n  Lines of code: 85")
	assert.Contains(t, out, "Implementation difficulty: HARD")
	assert.Contains(t, out, "REST: 245 lines in 4 components, avg cyclomatic 7.00")
	assert.Contains(t, out, "GRAPHQL: 425 lines in 4 components")
}

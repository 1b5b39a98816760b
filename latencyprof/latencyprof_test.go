package latencyprof

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/pprof/profile"
	"github.com/perfgo/apibench/model"
	"github.com/stretchr/testify/require"
)

func result(t model.Transport, op model.OperationKind, ds int, total int64, ok bool, ts time.Time) model.TrialResult {
	return model.TrialResult{
		Transport:   t,
		Operation:   op,
		DataSize:    ds,
		LoadLevel:   100,
		TotalTimeMs: total,
		Succeeded:   ok,
		Timestamp:   ts,
	}
}

func TestBuild(t *testing.T) {
	start := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	results := []model.TrialResult{
		result(model.TransportREST, model.OperationProducts, 50, 40, true, start),
		result(model.TransportREST, model.OperationProducts, 50, 60, true, start.Add(time.Second)),
		result(model.TransportREST, model.OperationProducts, 50, -1, false, start.Add(2*time.Second)),
		result(model.TransportGraphQL, model.OperationProducts, 50, 70, true, start.Add(3*time.Second)),
		result(model.TransportGraphQL, model.OperationProducts, 100, 90, true, start.Add(4*time.Second)),
	}

	prof := Build(results)
	require.NoError(t, prof.CheckValid())

	require.Len(t, prof.SampleType, 2)
	require.Equal(t, "trials", prof.SampleType[0].Type)
	require.Equal(t, "milliseconds", prof.SampleType[1].Unit)
	require.Equal(t, start.UnixNano(), prof.TimeNanos)
	require.Equal(t, (4 * time.Second).Nanoseconds(), prof.DurationNanos)

	// identical stacks with identical labels merge; failures add no latency
	require.Len(t, prof.Sample, 3)
	require.Equal(t, []int64{3, 100}, prof.Sample[0].Value)
	require.Equal(t, []int64{1, 70}, prof.Sample[1].Value)
	require.Equal(t, []int64{1, 90}, prof.Sample[2].Value)
	require.Equal(t, []int64{100}, prof.Sample[2].NumLabel["data_size"])

	leaf := prof.Sample[0].Location[0].Line[0].Function.Name
	root := prof.Sample[0].Location[1].Line[0].Function.Name
	require.Equal(t, "PRODUCTS", leaf)
	require.Equal(t, "REST", root)

	// PRODUCTS, REST and GRAPHQL
	require.Len(t, prof.Function, 3)
	require.Len(t, prof.Location, 3)

	var buf bytes.Buffer
	require.NoError(t, prof.Write(&buf))
	parsed, err := profile.Parse(&buf)
	require.NoError(t, err)
	require.Len(t, parsed.Sample, 3)
}

func TestBuildEmpty(t *testing.T) {
	prof := Build(nil)
	require.NoError(t, prof.CheckValid())
	require.Empty(t, prof.Sample)
	require.Empty(t, prof.Function)
	require.Zero(t, prof.TimeNanos)
}

// Package latencyprof converts trial results into a pprof profile so that
// `go tool pprof` can break the measured time down by transport and
// operation.
package latencyprof

import (
	"time"

	"github.com/google/pprof/profile"
	"github.com/perfgo/apibench/model"
)

const (
	labelDataSize  = "data_size"
	labelLoadLevel = "load_level"
)

type sampleKey struct {
	transport model.Transport
	operation model.OperationKind
	dataSize  int
	loadLevel int
}

type builder struct {
	profile   *profile.Profile
	functions map[string]*profile.Function
	locations map[string]*profile.Location
	samples   map[sampleKey]*profile.Sample
}

// Build returns a profile with one sample per distinct transport, operation,
// data size and load level. The stack is [operation, transport] with the
// operation as leaf. Every trial adds to trials/count; only completed trials
// add their total time to latency/milliseconds.
func Build(results []model.TrialResult) *profile.Profile {
	b := &builder{
		profile: &profile.Profile{
			SampleType: []*profile.ValueType{
				{Type: "trials", Unit: "count"},
				{Type: "latency", Unit: "milliseconds"},
			},
			PeriodType: &profile.ValueType{Type: "trials", Unit: "count"},
			Period:     1,
		},
		functions: make(map[string]*profile.Function),
		locations: make(map[string]*profile.Location),
		samples:   make(map[sampleKey]*profile.Sample),
	}

	var first, last time.Time
	for _, r := range results {
		if first.IsZero() || r.Timestamp.Before(first) {
			first = r.Timestamp
		}
		if r.Timestamp.After(last) {
			last = r.Timestamp
		}
		b.add(r)
	}
	if !first.IsZero() {
		b.profile.TimeNanos = first.UnixNano()
		b.profile.DurationNanos = last.Sub(first).Nanoseconds()
	}

	return b.profile
}

func (b *builder) add(r model.TrialResult) {
	var latency int64
	if r.Completed() {
		latency = r.TotalTimeMs
	}

	key := sampleKey{
		transport: r.Transport,
		operation: r.Operation,
		dataSize:  r.DataSize,
		loadLevel: r.LoadLevel,
	}
	if s, ok := b.samples[key]; ok {
		s.Value[0]++
		s.Value[1] += latency
		return
	}

	s := &profile.Sample{
		Location: []*profile.Location{
			b.location(string(r.Operation)),
			b.location(string(r.Transport)),
		},
		Value: []int64{1, latency},
		NumLabel: map[string][]int64{
			labelDataSize:  {int64(r.DataSize)},
			labelLoadLevel: {int64(r.LoadLevel)},
		},
	}
	b.samples[key] = s
	b.profile.Sample = append(b.profile.Sample, s)
}

// location returns the location of a single-line frame named name.
func (b *builder) location(name string) *profile.Location {
	if loc, ok := b.locations[name]; ok {
		return loc
	}

	fn, ok := b.functions[name]
	if !ok {
		fn = &profile.Function{
			ID:         uint64(len(b.profile.Function) + 1),
			Name:       name,
			SystemName: name,
		}
		b.functions[name] = fn
		b.profile.Function = append(b.profile.Function, fn)
	}

	loc := &profile.Location{
		ID:   uint64(len(b.profile.Location) + 1),
		Line: []profile.Line{{Function: fn}},
	}
	b.locations[name] = loc
	b.profile.Location = append(b.profile.Location, loc)
	return loc
}

// Package trial runs one operation against one transport a fixed number of
// times, bracketing every call with the resource samplers.
package trial

import (
	"context"
	"fmt"
	"time"

	"github.com/perfgo/apibench/model"
	"github.com/perfgo/apibench/sampler"
	"github.com/perfgo/apibench/transport"
	"github.com/rs/zerolog"
)

const (
	// SearchDataSize and SearchLoadLevel label search trials.
	SearchDataSize  = 50
	SearchLoadLevel = 100
	// SearchDelay separates search iterations regardless of load level.
	SearchDelay = 100 * time.Millisecond

	ScenarioDataSize  = 184
	ScenarioLoadLevel = 100
	// ScenarioStepPause simulates the user between scenario steps.
	ScenarioStepPause = 100 * time.Millisecond
	// ScenarioDelay separates scenario iterations.
	ScenarioDelay = 200 * time.Millisecond

	QuickDataSize  = 50
	QuickLoadLevel = 100

	// failedTiming marks timing fields of an attempt that never completed.
	failedTiming = -1
)

// SearchQueries are rotated through by iteration index.
var SearchQueries = []string{"Ayu", "Malang", "Jakarta", "Surabaya", "Bandung"}

// Probe is the sampler surface the runner needs.
type Probe interface {
	Reset()
	Start()
	Stop()
	Read() sampler.Snapshot
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the real Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RequestDelay is the pause between iterations that paces calls at
// loadLevel requests per minute.
func RequestDelay(loadLevel int) time.Duration {
	if loadLevel <= 0 {
		return 0
	}
	return time.Duration(60000/loadLevel) * time.Millisecond
}

// Spec describes a single-request trial.
type Spec struct {
	Operation       model.OperationKind
	Scenario        model.Scenario
	Request         transport.Request
	DataSize        int
	LoadLevel       int
	Iterations      int
	QueryComplexity int
	// Delay between iterations; RequestDelay(LoadLevel) when zero.
	Delay time.Duration
}

func ProductsSpec(dataSize, loadLevel, iterations int) Spec {
	return Spec{
		Operation:       model.OperationProducts,
		Scenario:        model.ScenarioIndividualProducts,
		Request:         transport.ProductsRequest(dataSize),
		DataSize:        dataSize,
		LoadLevel:       loadLevel,
		Iterations:      iterations,
		QueryComplexity: 1,
	}
}

func PackagesSpec(dataSize, loadLevel, iterations int) Spec {
	return Spec{
		Operation:       model.OperationPackages,
		Scenario:        model.ScenarioPackageProducts,
		Request:         transport.PackagesRequest(dataSize),
		DataSize:        dataSize,
		LoadLevel:       loadLevel,
		Iterations:      iterations,
		QueryComplexity: 1,
	}
}

// QuickSpec is the single products(50) call of a quick comparison round.
func QuickSpec() Spec {
	return Spec{
		Operation:  model.OperationQuickTest,
		Scenario:   model.ScenarioIndividualProducts,
		Request:    transport.ProductsRequest(QuickDataSize),
		DataSize:   QuickDataSize,
		LoadLevel:  QuickLoadLevel,
		Iterations: 1,
	}
}

func (s Spec) delay() time.Duration {
	if s.Delay > 0 {
		return s.Delay
	}
	return RequestDelay(s.LoadLevel)
}

func (s Spec) base(t model.Transport, ts time.Time) model.TrialResult {
	return model.TrialResult{
		Transport: t,
		Operation: s.Operation,
		Scenario:  s.Scenario,
		DataSize:  s.DataSize,
		LoadLevel: s.LoadLevel,
		Timestamp: ts,
	}
}

// Runner executes trials sequentially. It owns its probe; a Runner must not
// be shared between concurrent trials.
type Runner struct {
	logger zerolog.Logger
	probe  Probe
	sleep  Sleeper
	now    func() time.Time
}

type Option func(*Runner)

// WithSleeper replaces the pause implementation.
func WithSleeper(s Sleeper) Option {
	return func(r *Runner) { r.sleep = s }
}

// WithClock replaces the time source used for timing and timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

func NewRunner(logger zerolog.Logger, probe Probe, opts ...Option) *Runner {
	r := &Runner{
		logger: logger.With().Str("component", "trial").Logger(),
		probe:  probe,
		sleep:  Sleep,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Probe returns the runner's samplers.
func (r *Runner) Probe() Probe {
	return r.probe
}

// Run performs spec.Iterations attempts of spec.Request against c. It never
// fails: every attempt yields a TrialResult. Cancelling ctx stops the run
// between attempts; the attempt in flight finishes.
func (r *Runner) Run(ctx context.Context, c transport.Client, spec Spec) []model.TrialResult {
	return r.loop(ctx, spec.Iterations, spec.delay(), func(i int) model.TrialResult {
		res := r.attempt(ctx, c, spec, spec.Request)
		r.logger.Debug().
			Str("transport", string(c.Transport())).
			Str("operation", string(spec.Operation)).
			Int("iteration", i+1).
			Int("iterations", spec.Iterations).
			Int("data_size", spec.DataSize).
			Int64("time_ms", res.TotalTimeMs).
			Int64("memory_bytes", res.MemoryBytes).
			Float64("cpu_percent", res.CPUPercent).
			Bool("success", res.Succeeded).
			Msg("Trial")
		return res
	})
}

// RunSearch performs iterations name searches, rotating through
// SearchQueries.
func (r *Runner) RunSearch(ctx context.Context, c transport.Client, iterations int) []model.TrialResult {
	spec := Spec{
		Operation:       model.OperationResellerSearch,
		Scenario:        model.ScenarioSearch,
		DataSize:        SearchDataSize,
		LoadLevel:       SearchLoadLevel,
		Iterations:      iterations,
		QueryComplexity: 1,
	}
	return r.loop(ctx, iterations, SearchDelay, func(i int) model.TrialResult {
		query := SearchQueries[i%len(SearchQueries)]
		res := r.attempt(ctx, c, spec, transport.SearchByNameRequest(query))
		r.logger.Debug().
			Str("transport", string(c.Transport())).
			Str("query", query).
			Int("iteration", i+1).
			Int64("time_ms", res.TotalTimeMs).
			Bool("success", res.Succeeded).
			Msg("Search trial")
		return res
	})
}

func (r *Runner) loop(ctx context.Context, iterations int, delay time.Duration, one func(i int) model.TrialResult) []model.TrialResult {
	results := make([]model.TrialResult, 0, iterations)
	for i := 0; i < iterations; i++ {
		if ctx.Err() != nil {
			break
		}
		results = append(results, one(i))
		if i < iterations-1 {
			if err := r.sleep(ctx, delay); err != nil {
				break
			}
		}
	}
	return results
}

func (r *Runner) attempt(ctx context.Context, c transport.Client, spec Spec, req transport.Request) (res model.TrialResult) {
	defer func() {
		if p := recover(); p != nil {
			r.probe.Stop()
			r.logger.Error().Interface("panic", p).Str("operation", string(spec.Operation)).Msg("Trial aborted")
			res = spec.base(c.Transport(), r.now())
			res.TotalTimeMs = failedTiming
			res.Error = fmt.Sprint(p)
		}
	}()

	r.probe.Reset()
	r.probe.Start()

	start := r.now()
	out := transport.Call(context.WithoutCancel(ctx), c, req)
	elapsed := r.now().Sub(start)

	snap := r.probe.Read()
	r.probe.Stop()

	res = spec.base(c.Transport(), r.now())
	res.TotalTimeMs = elapsedMillis(elapsed)
	fillSnapshot(&res, snap)
	res.QueryComplexity = spec.QueryComplexity
	if out.State == transport.StateSuccess {
		res.Succeeded = true
		res.TransferredBytes = out.Data.Bytes
	} else {
		res.Error = out.Message
	}
	return res
}

// elapsedMillis rounds d up to whole milliseconds. A finished call always
// counts as at least 1 ms so loopback calls are not lost as zero timings.
func elapsedMillis(d time.Duration) int64 {
	ms := int64((d + time.Millisecond - 1) / time.Millisecond)
	return max(ms, 1)
}

func fillSnapshot(res *model.TrialResult, snap sampler.Snapshot) {
	res.MemoryBytes = int64(snap.MemoryBytes)
	res.PeakMemoryBytes = int64(snap.PeakMemoryBytes)
	res.CPUPercent = snap.CPUPercent
	res.PeakCPUPercent = snap.PeakCPUPercent
}

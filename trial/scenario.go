package trial

import (
	"context"
	"fmt"

	"github.com/perfgo/apibench/model"
	"github.com/perfgo/apibench/transport"
)

type scenarioStep struct {
	label string
	req   transport.Request
}

// scenarioSteps is a user opening the app: products, packages, the reseller
// map, then a reseller search.
var scenarioSteps = []scenarioStep{
	{label: "Product", req: transport.ProductsRequest(121)},
	{label: "Package", req: transport.PackagesRequest(63)},
	{label: "Reseller load", req: transport.ResellersRequest()},
	{label: "Search", req: transport.SearchByNameRequest("Jakarta")},
}

// RunScenario performs iterations of the four-step browsing scenario. Each
// result's NetworkTimeMs is the sum of the step timings, TotalTimeMs
// includes the pauses between steps and TimeToFirstRenderMs is the product
// step. The attempt succeeds only if every step does.
func (r *Runner) RunScenario(ctx context.Context, c transport.Client, iterations int) []model.TrialResult {
	spec := Spec{
		Operation:       model.OperationRealWorld,
		Scenario:        model.ScenarioRealWorld,
		DataSize:        ScenarioDataSize,
		LoadLevel:       ScenarioLoadLevel,
		Iterations:      iterations,
		QueryComplexity: len(scenarioSteps),
	}
	return r.loop(ctx, iterations, ScenarioDelay, func(i int) model.TrialResult {
		res := r.scenario(ctx, c, spec)
		r.logger.Debug().
			Str("transport", string(c.Transport())).
			Int("iteration", i+1).
			Int("iterations", iterations).
			Int64("time_ms", res.TotalTimeMs).
			Int64("network_ms", res.NetworkTimeMs).
			Int64("bytes", res.TransferredBytes).
			Bool("success", res.Succeeded).
			Msg("Scenario trial")
		return res
	})
}

func (r *Runner) scenario(ctx context.Context, c transport.Client, spec Spec) (res model.TrialResult) {
	defer func() {
		if p := recover(); p != nil {
			r.probe.Stop()
			r.logger.Error().Interface("panic", p).Msg("Scenario aborted")
			res = spec.base(c.Transport(), r.now())
			res.NetworkTimeMs = failedTiming
			res.ParsingTimeMs = failedTiming
			res.TotalTimeMs = failedTiming
			res.TimeToFirstRenderMs = failedTiming
			res.Error = fmt.Sprint(p)
		}
	}()

	// steps run to completion even when ctx is cancelled mid-scenario
	callCtx := context.WithoutCancel(ctx)

	r.probe.Reset()
	r.probe.Start()

	var (
		network     int64
		first       int64
		transferred int64
		firstErr    string
	)
	start := r.now()
	for i, step := range scenarioSteps {
		if i > 0 {
			_ = r.sleep(callCtx, ScenarioStepPause)
		}
		stepStart := r.now()
		out := transport.Call(callCtx, c, step.req)
		took := elapsedMillis(r.now().Sub(stepStart))

		network += took
		if i == 0 {
			first = took
		}
		if out.State == transport.StateSuccess {
			transferred += out.Data.Bytes
		} else if firstErr == "" {
			firstErr = fmt.Sprintf("%s error: %s", step.label, out.Message)
		}
	}
	total := elapsedMillis(r.now().Sub(start))

	snap := r.probe.Read()
	r.probe.Stop()

	res = spec.base(c.Transport(), r.now())
	res.NetworkTimeMs = network
	res.TotalTimeMs = total
	res.TimeToFirstRenderMs = first
	fillSnapshot(&res, snap)
	res.Succeeded = firstErr == ""
	res.Error = firstErr
	res.TransferredBytes = transferred
	res.QueryComplexity = spec.QueryComplexity
	return res
}

// Package protocol sequences measured trials so that neither transport
// gains from going first or from a warm connection: warm-up, cooldown, then
// two rounds with the transport order reversed in the second.
package protocol

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/perfgo/apibench/config"
	"github.com/perfgo/apibench/model"
	"github.com/perfgo/apibench/stats"
	"github.com/perfgo/apibench/transport"
	"github.com/perfgo/apibench/trial"
	"github.com/rs/zerolog"
)

// Rounds is fixed: two rounds in opposite order cancel first-mover bias.
const Rounds = 2

// warmupLimit is the products limit used by discarded warm-up calls.
const warmupLimit = 10

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseWarmup
	PhaseCooldown
	PhaseRound
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "IDLE"
	case PhaseWarmup:
		return "WARMUP"
	case PhaseCooldown:
		return "COOLDOWN"
	case PhaseRound:
		return "ROUND"
	case PhaseDone:
		return "DONE"
	default:
		return fmt.Sprintf("PHASE(%d)", int(p))
	}
}

// Experiment drives full and quick comparisons over a fixed set of clients.
type Experiment struct {
	logger  zerolog.Logger
	cfg     config.Config
	runner  *trial.Runner
	clients []transport.Client
	sleep   trial.Sleeper
	now     func() time.Time
	onPhase func(Phase, int)
	phase   Phase
}

type Option func(*Experiment)

// WithSleeper replaces the pause implementation for protocol delays.
func WithSleeper(s trial.Sleeper) Option {
	return func(e *Experiment) { e.sleep = s }
}

// WithClock replaces the time source for session timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Experiment) { e.now = now }
}

// WithPhaseHook is called on every phase transition with the round index
// (0 outside rounds).
func WithPhaseHook(fn func(Phase, int)) Option {
	return func(e *Experiment) { e.onPhase = fn }
}

// New returns an Experiment. clients are measured in the given order in the
// first round and in reverse in the second.
func New(logger zerolog.Logger, cfg config.Config, runner *trial.Runner, clients []transport.Client, opts ...Option) *Experiment {
	e := &Experiment{
		logger:  logger.With().Str("component", "protocol").Logger(),
		cfg:     cfg,
		runner:  runner,
		clients: clients,
		sleep:   trial.Sleep,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Phase returns the current phase.
func (e *Experiment) Phase() Phase {
	return e.phase
}

func (e *Experiment) enter(p Phase, round int) {
	e.phase = p
	e.logger.Info().Str("phase", p.String()).Int("round", round+1).Msg("Protocol phase")
	if e.onPhase != nil {
		e.onPhase(p, round)
	}
}

// pause sleeps d and reports whether the run may continue.
func (e *Experiment) pause(ctx context.Context, d time.Duration) bool {
	return e.sleep(ctx, d) == nil
}

// order returns the transport order for round k.
func order(clients []transport.Client, round int) []transport.Client {
	out := slices.Clone(clients)
	if round%2 == 1 {
		slices.Reverse(out)
	}
	return out
}

func (e *Experiment) warmup(ctx context.Context, clients []transport.Client, calls int, delay time.Duration) bool {
	for _, c := range clients {
		e.logger.Debug().Str("transport", string(c.Transport())).Int("calls", calls).Msg("Warming up")
		for i := 0; i < calls; i++ {
			r := transport.Call(context.WithoutCancel(ctx), c, transport.ProductsRequest(warmupLimit))
			if r.State == transport.StateError {
				e.logger.Warn().Str("transport", string(c.Transport())).Str("error", r.Message).Msg("Warm-up call failed")
			}
			if !e.pause(ctx, delay) {
				return false
			}
		}
	}
	return true
}

// Run executes the full sweep. Transports failing the connectivity
// preflight are skipped. The returned session is finished; when ctx is
// cancelled it holds the results gathered so far.
func (e *Experiment) Run(ctx context.Context, session *Session) *Session {
	defer func() {
		session.Finish()
		e.enter(PhaseDone, 0)
		LogSummary(e.logger, session.Results())
	}()

	var clients []transport.Client
	for _, c := range e.clients {
		if err := CheckConnectivity(ctx, c, e.cfg.Endpoints.ConnectTimeout); err != nil {
			e.logger.Error().Err(err).Str("transport", string(c.Transport())).Msg("Skipping transport that failed connectivity check")
			continue
		}
		clients = append(clients, c)
	}
	if len(clients) == 0 {
		e.logger.Error().Msg("No transport passed the connectivity check")
		return session
	}

	p := e.cfg.Protocol
	e.enter(PhaseWarmup, 0)
	if !e.warmup(ctx, clients, p.WarmupCalls, p.WarmupDelay) {
		return session
	}

	e.enter(PhaseCooldown, 0)
	if !e.pause(ctx, p.Cooldown) {
		return session
	}

	for round := 0; round < Rounds; round++ {
		e.enter(PhaseRound, round)
		for _, c := range order(clients, round) {
			if !e.runTransport(ctx, session, c, round) {
				return session
			}
			if !e.pause(ctx, p.BetweenTransports) {
				return session
			}
		}
		if round < Rounds-1 && !e.pause(ctx, p.BetweenRounds) {
			return session
		}
	}
	return session
}

func (e *Experiment) runTransport(ctx context.Context, session *Session, c transport.Client, round int) bool {
	sw, p := e.cfg.Sweep, e.cfg.Protocol
	logger := e.logger.With().Str("transport", string(c.Transport())).Int("round", round+1).Logger()

	e.runner.Probe().Reset()
	if !e.pause(ctx, p.PreTransportPause) {
		return false
	}

	record := func(results []model.TrialResult) bool {
		session.Add(results...)
		st := stats.Aggregate(results)
		logger.Info().
			Str("operation", string(st.Operation)).
			Int("data_size", st.DataSize).
			Int("load_level", st.LoadLevel).
			Float64("mean_ms", st.MeanTimeMs).
			Float64("success_rate", st.SuccessRatePercent).
			Msg("Configuration done")
		return ctx.Err() == nil
	}

	for _, specFor := range []func(dataSize, loadLevel, iterations int) trial.Spec{trial.ProductsSpec, trial.PackagesSpec} {
		for _, ds := range sw.DataSizes {
			for _, ll := range sw.LoadLevels {
				if !record(e.runner.Run(ctx, c, specFor(ds, ll, sw.Iterations))) {
					return false
				}
				if !e.pause(ctx, p.BetweenConfigs) {
					return false
				}
			}
		}
	}

	if !record(e.runner.RunSearch(ctx, c, sw.Iterations)) {
		return false
	}
	return record(e.runner.RunScenario(ctx, c, sw.Iterations))
}

package protocol

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/perfgo/apibench/catalog"
	"github.com/perfgo/apibench/config"
	"github.com/perfgo/apibench/model"
	"github.com/perfgo/apibench/sampler"
	"github.com/perfgo/apibench/transport"
	"github.com/perfgo/apibench/trial"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	transport model.Transport
	fail      error
	block     bool

	mu       sync.Mutex
	requests []transport.Request
}

func (f *fakeClient) Transport() model.Transport { return f.transport }

func (f *fakeClient) Do(ctx context.Context, req transport.Request) (transport.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return transport.Response{}, ctx.Err()
	}
	if f.fail != nil {
		return transport.Response{}, f.fail
	}
	return transport.Response{
		Products:  make([]catalog.Product, max(req.Limit, 1)),
		Resellers: nil,
		Bytes:     64,
	}, nil
}

func (f *fakeClient) countLimit(kind transport.RequestKind, limit int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if r.Kind == kind && r.Limit == limit {
			n++
		}
	}
	return n
}

type nopProbe struct{ resets int }

func (p *nopProbe) Reset()                 { p.resets++ }
func (p *nopProbe) Start()                 {}
func (p *nopProbe) Stop()                  {}
func (p *nopProbe) Read() sampler.Snapshot { return sampler.Snapshot{MemoryBytes: 1024, CPUPercent: 1} }

type sleepLog struct {
	mu       sync.Mutex
	slept    []time.Duration
	cancelAt time.Duration
	cancel   context.CancelFunc
}

func (s *sleepLog) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.slept = append(s.slept, d)
	s.mu.Unlock()
	if s.cancel != nil && d == s.cancelAt {
		s.cancel()
		return context.Canceled
	}
	return ctx.Err()
}

func (s *sleepLog) count(d time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.slept {
		if v == d {
			n++
		}
	}
	return n
}

func smallConfig() config.Config {
	cfg := config.Default()
	cfg.Sweep.DataSizes = []int{50, 100}
	cfg.Sweep.LoadLevels = []int{100}
	cfg.Sweep.Iterations = 3
	cfg.Endpoints.ConnectTimeout = time.Second
	return cfg
}

type harness struct {
	rest, gql *fakeClient
	probe     *nopProbe
	sleeper   *sleepLog
	phases    []string
	exp       *Experiment
}

func newHarness(cfg config.Config) *harness {
	h := &harness{
		rest:    &fakeClient{transport: model.TransportREST},
		gql:     &fakeClient{transport: model.TransportGraphQL},
		probe:   &nopProbe{},
		sleeper: &sleepLog{},
	}
	runner := trial.NewRunner(zerolog.Nop(), h.probe, trial.WithSleeper(h.sleeper.Sleep))
	h.exp = New(zerolog.Nop(), cfg, runner, []transport.Client{h.rest, h.gql},
		WithSleeper(h.sleeper.Sleep),
		WithPhaseHook(func(p Phase, round int) {
			if p == PhaseRound {
				h.phases = append(h.phases, p.String()+string(rune('1'+round)))
				return
			}
			h.phases = append(h.phases, p.String())
		}),
	)
	return h
}

func TestRun_RecordsEveryTrialExceptWarmup(t *testing.T) {
	cfg := smallConfig()
	h := newHarness(cfg)

	session := h.exp.Run(context.Background(), NewSession("run", time.Now()))
	results := session.Results()

	perTransportRound := cfg.Sweep.Iterations * cfg.Configurations()
	require.Len(t, results, perTransportRound*2*Rounds)
	assert.Equal(t, []string{"WARMUP", "COOLDOWN", "ROUND1", "ROUND2", "DONE"}, h.phases)
	assert.Equal(t, PhaseDone, h.exp.Phase())

	// warm-up calls hit the backend but never reach the session
	assert.Equal(t, cfg.Protocol.WarmupCalls, h.rest.countLimit(transport.KindProducts, 10))
	assert.Equal(t, cfg.Protocol.WarmupCalls, h.gql.countLimit(transport.KindProducts, 10))
	for _, r := range results {
		assert.NotEqual(t, 10, r.DataSize)
	}

	// round 1 starts with REST, round 2 with GraphQL
	assert.Equal(t, model.TransportREST, results[0].Transport)
	assert.Equal(t, model.TransportGraphQL, results[perTransportRound].Transport)
	assert.Equal(t, model.TransportGraphQL, results[2*perTransportRound].Transport)
	assert.Equal(t, model.TransportREST, results[3*perTransportRound].Transport)

	// each transport has exactly twice the single-round count per cell
	_, groups := groupCounts(results)
	for cell, n := range groups {
		assert.Equal(t, 2*cfg.Sweep.Iterations, n, "cell %+v", cell)
	}

	statistics := session.Statistics()
	assert.Len(t, statistics, cfg.Configurations()*2)
	for _, st := range statistics {
		assert.Equal(t, 100.0, st.SuccessRatePercent)
	}

	assert.Equal(t, 1, h.sleeper.count(cfg.Protocol.Cooldown))
	assert.Equal(t, 1, h.sleeper.count(cfg.Protocol.BetweenRounds))
	assert.Equal(t, 2*Rounds, h.probe.resets-2*Rounds*perTransportRound)
}

func groupCounts(results []model.TrialResult) ([]model.Cell, map[model.Cell]int) {
	var order []model.Cell
	counts := map[model.Cell]int{}
	for _, r := range results {
		if _, ok := counts[r.Cell()]; !ok {
			order = append(order, r.Cell())
		}
		counts[r.Cell()]++
	}
	return order, counts
}

func TestRun_SkipsUnreachableTransport(t *testing.T) {
	cfg := smallConfig()
	h := newHarness(cfg)
	h.gql.fail = errors.New("Error: 503")

	results := h.exp.Run(context.Background(), NewSession("run", time.Now())).Results()
	require.Len(t, results, cfg.Sweep.Iterations*cfg.Configurations()*Rounds)
	for _, r := range results {
		assert.Equal(t, model.TransportREST, r.Transport)
	}
	assert.Equal(t, 0, h.gql.countLimit(transport.KindProducts, 10))
}

func TestRun_NoReachableTransport(t *testing.T) {
	h := newHarness(smallConfig())
	h.rest.fail = errors.New("Error: 503")
	h.gql.fail = errors.New("Error: 503")

	session := h.exp.Run(context.Background(), NewSession("run", time.Now()))
	assert.Zero(t, session.Len())
	assert.Equal(t, []string{"DONE"}, h.phases)
}

func TestRun_CancelDuringCooldown(t *testing.T) {
	cfg := smallConfig()
	h := newHarness(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.sleeper.cancel = cancel
	h.sleeper.cancelAt = cfg.Protocol.Cooldown

	session := h.exp.Run(ctx, NewSession("run", time.Now()))
	assert.Zero(t, session.Len())
	assert.Equal(t, []string{"WARMUP", "COOLDOWN", "DONE"}, h.phases)
	assert.Empty(t, session.Statistics())
}

func TestQuick(t *testing.T) {
	h := newHarness(smallConfig())
	session := NewSession("quick", time.Now())

	qc := h.exp.Quick(context.Background(), session)
	require.Len(t, qc.Rounds[0], 2)
	require.Len(t, qc.Rounds[1], 2)
	assert.Equal(t, model.TransportREST, qc.Rounds[0][0].Transport)
	assert.Equal(t, model.TransportGraphQL, qc.Rounds[0][1].Transport)
	assert.Equal(t, model.TransportGraphQL, qc.Rounds[1][0].Transport)
	assert.Equal(t, model.TransportREST, qc.Rounds[1][1].Transport)

	require.Len(t, qc.Averages, 2)
	for _, avg := range qc.Averages {
		assert.Equal(t, model.OperationQuickAverage, avg.Operation)
		assert.True(t, avg.Succeeded)
		assert.Equal(t, trial.QuickDataSize, avg.DataSize)
	}
	assert.Equal(t, qc.Averages, session.Results())
	assert.Equal(t, 3, h.rest.countLimit(transport.KindProducts, 10))
	assert.Equal(t, 2, h.rest.countLimit(transport.KindProducts, trial.QuickDataSize))
	assert.Equal(t, []string{"WARMUP", "COOLDOWN", "ROUND1", "ROUND2", "DONE"}, h.phases)
}

func TestQuick_FailedRound(t *testing.T) {
	h := newHarness(smallConfig())
	h.gql.fail = errors.New("Error: 500")

	qc := h.exp.Quick(context.Background(), NewSession("quick", time.Now()))
	require.Len(t, qc.Averages, 2)
	assert.True(t, qc.Averages[0].Succeeded)
	assert.False(t, qc.Averages[1].Succeeded)
	assert.Equal(t, RoundFailedMessage, qc.Averages[1].Error)
}

func TestAverage(t *testing.T) {
	a := model.TrialResult{
		Transport: model.TransportREST, Operation: model.OperationQuickTest,
		TotalTimeMs: 100, MemoryBytes: 2000, PeakMemoryBytes: 4000,
		CPUPercent: 10, PeakCPUPercent: 20, Succeeded: true,
	}
	b := a
	b.TotalTimeMs = 151
	b.CPUPercent = 15
	b.Succeeded = false

	avg := Average(a, b)
	assert.Equal(t, model.OperationQuickAverage, avg.Operation)
	assert.Equal(t, int64(125), avg.TotalTimeMs)
	assert.Equal(t, int64(2000), avg.MemoryBytes)
	assert.Equal(t, 12.5, avg.CPUPercent)
	assert.False(t, avg.Succeeded)
	assert.Equal(t, "One or both rounds failed", avg.Error)

	b.Succeeded = true
	assert.Empty(t, Average(a, b).Error)
}

func TestCheckConnectivity(t *testing.T) {
	ok := &fakeClient{transport: model.TransportREST}
	require.NoError(t, CheckConnectivity(context.Background(), ok, time.Second))

	down := &fakeClient{transport: model.TransportREST, fail: errors.New("Error: 502")}
	err := CheckConnectivity(context.Background(), down, time.Second)
	require.ErrorIs(t, err, ErrUnreachable)
	require.NotErrorIs(t, err, ErrTimeout)
	require.ErrorContains(t, err, "Error: 502")

	hung := &fakeClient{transport: model.TransportGraphQL, block: true}
	err = CheckConnectivity(context.Background(), hung, 20*time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)
	require.NotErrorIs(t, err, ErrUnreachable)
}

func TestDatabaseReport(t *testing.T) {
	rest := &fakeClient{transport: model.TransportREST}
	gql := &fakeClient{transport: model.TransportGraphQL, fail: errors.New("Failed to fetch products")}

	report := DatabaseReport(context.Background(), []transport.Client{rest, gql})
	require.Len(t, report.Lines, 6)

	ok, failed := report.Counts()
	assert.Equal(t, 3, ok)
	assert.Equal(t, 3, failed)
	assert.Equal(t, 50, report.SuccessRate())

	assert.Equal(t, 121, report.Lines[0].Loaded)
	text := report.String()
	assert.Contains(t, text, "=== REST ===")
	assert.Contains(t, text, "OK   Products: 121/121 loaded")
	assert.Contains(t, text, "FAIL Products: Failed to fetch products")
	assert.Contains(t, text, "Success rate: 50%")

	assert.Equal(t, 0, ConnectivityReport{}.SuccessRate())
}

func TestSession(t *testing.T) {
	s := NewSession("id", time.Now())
	s.Add(model.TrialResult{Transport: model.TransportREST, TotalTimeMs: 5, Succeeded: true})
	s.Finish()
	s.Add(model.TrialResult{Transport: model.TransportREST})

	assert.Equal(t, 1, s.Len())
	require.Len(t, s.Statistics(), 1)
	assert.Equal(t, 5.0, s.Statistics()[0].MeanTimeMs)

	// callers get copies
	res := s.Results()
	res[0].TotalTimeMs = 99
	assert.Equal(t, int64(5), s.Results()[0].TotalTimeMs)
}

package protocol

import (
	"context"

	"github.com/perfgo/apibench/model"
	"github.com/perfgo/apibench/trial"
)

// RoundFailedMessage is the error text of an average whose rounds did not both
// succeed.
const RoundFailedMessage = "One or both rounds failed"

// QuickComparison is the outcome of a quick run: the raw result of every
// round and one averaged result per transport.
type QuickComparison struct {
	Rounds   [Rounds][]model.TrialResult
	Averages []model.TrialResult
}

// Quick runs a single products call per transport in each of two rounds of
// opposite order and averages the rounds. Only the averages are added to
// session. A transport with fewer than two round results gets no average.
func (e *Experiment) Quick(ctx context.Context, session *Session) QuickComparison {
	var out QuickComparison
	q := e.cfg.Quick

	defer func() {
		session.Add(out.Averages...)
		session.Finish()
		e.enter(PhaseDone, 0)
	}()

	e.enter(PhaseWarmup, 0)
	if !e.warmup(ctx, e.clients, q.WarmupCalls, q.WarmupDelay) {
		return out
	}
	e.enter(PhaseCooldown, 0)
	if !e.pause(ctx, q.Cooldown) {
		return out
	}

	for round := 0; round < Rounds; round++ {
		if round > 0 && !e.pause(ctx, q.BetweenRounds) {
			return out
		}
		e.enter(PhaseRound, round)
		for i, c := range order(e.clients, round) {
			if i > 0 && !e.pause(ctx, q.BetweenTransports) {
				return out
			}
			out.Rounds[round] = append(out.Rounds[round], e.runner.Run(ctx, c, trial.QuickSpec())...)
		}
	}

	for _, c := range e.clients {
		first, ok1 := find(out.Rounds[0], c.Transport())
		second, ok2 := find(out.Rounds[1], c.Transport())
		if ok1 && ok2 {
			avg := Average(first, second)
			avg.Timestamp = e.now()
			out.Averages = append(out.Averages, avg)
		}
	}
	return out
}

func find(results []model.TrialResult, t model.Transport) (model.TrialResult, bool) {
	for _, r := range results {
		if r.Transport == t {
			return r, true
		}
	}
	return model.TrialResult{}, false
}

// Average folds the two round results of one transport into a single
// QUICK_TEST_AVERAGE record. It succeeds only if both rounds did.
func Average(a, b model.TrialResult) model.TrialResult {
	avg := model.TrialResult{
		Transport:        a.Transport,
		Operation:        model.OperationQuickAverage,
		Scenario:         a.Scenario,
		DataSize:         a.DataSize,
		LoadLevel:        a.LoadLevel,
		TotalTimeMs:      (a.TotalTimeMs + b.TotalTimeMs) / 2,
		MemoryBytes:      (a.MemoryBytes + b.MemoryBytes) / 2,
		PeakMemoryBytes:  (a.PeakMemoryBytes + b.PeakMemoryBytes) / 2,
		CPUPercent:       (a.CPUPercent + b.CPUPercent) / 2,
		PeakCPUPercent:   (a.PeakCPUPercent + b.PeakCPUPercent) / 2,
		TransferredBytes: (a.TransferredBytes + b.TransferredBytes) / 2,
		Timestamp:        b.Timestamp,
		Succeeded:        a.Succeeded && b.Succeeded,
	}
	if !avg.Succeeded {
		avg.Error = RoundFailedMessage
	}
	return avg
}

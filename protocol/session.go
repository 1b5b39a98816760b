package protocol

import (
	"sync"
	"time"

	"github.com/perfgo/apibench/model"
	"github.com/perfgo/apibench/stats"
)

// Session accumulates the results of one run. A Session is created per run
// and discarded once its results are exported.
type Session struct {
	ID      string
	Started time.Time

	mu         sync.Mutex
	results    []model.TrialResult
	statistics []model.TrialStatistics
	finished   bool
}

func NewSession(id string, started time.Time) *Session {
	return &Session{ID: id, Started: started}
}

// Add appends results. Results added after Finish are dropped.
func (s *Session) Add(results ...model.TrialResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return
	}
	s.results = append(s.results, results...)
}

// Finish computes per-cell statistics over everything added so far and
// freezes the session.
func (s *Session) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return
	}
	s.statistics = stats.AggregateAll(s.results)
	s.finished = true
}

// Results returns a copy of the recorded results.
func (s *Session) Results() []model.TrialResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.TrialResult(nil), s.results...)
}

// Statistics returns a copy of the statistics computed by Finish.
func (s *Session) Statistics() []model.TrialStatistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.TrialStatistics(nil), s.statistics...)
}

func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}

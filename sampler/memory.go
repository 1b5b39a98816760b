package sampler

import (
	"fmt"
	"runtime"

	"github.com/prometheus/procfs"
	"github.com/rs/zerolog"
)

// Memory samples bytes in use by the process.
type Memory struct {
	logger zerolog.Logger

	read func() (uint64, error)

	tracking bool
	initial  uint64
	peak     uint64
	total    float64
	samples  int
}

// NewMemory returns a Memory sampler using ProcessMemory.
func NewMemory(logger zerolog.Logger) *Memory {
	return &Memory{
		logger: logger.With().Str("sampler", "memory").Logger(),
		read:   ProcessMemory,
	}
}

// Start begins a tracking window. A second Start without Stop is ignored.
func (m *Memory) Start() {
	if m.tracking {
		m.logger.Warn().Msg("Memory tracking already started")
		return
	}

	m.tracking = true
	m.total = 0
	m.samples = 0
	m.initial = m.sample()
	m.peak = m.initial
}

// Stop ends the tracking window, folding a final sample into the peak.
func (m *Memory) Stop() {
	if !m.tracking {
		m.logger.Warn().Msg("Memory tracking not started")
		return
	}

	final := m.sample()
	if final > m.peak {
		m.peak = final
	}
	m.tracking = false
	m.logger.Debug().
		Uint64("final", final).
		Uint64("peak", m.peak).
		Msg("Stopped memory tracking")
}

// Current returns the bytes in use now. Read failures yield 0.
func (m *Memory) Current() uint64 {
	v := m.sample()
	if m.tracking {
		if v > m.peak {
			m.peak = v
		}
		m.total += float64(v)
		m.samples++
	}
	return v
}

func (m *Memory) sample() uint64 {
	v, err := m.read()
	if err != nil {
		m.logger.Debug().Err(err).Msg("Failed to read memory usage")
		return 0
	}
	return v
}

// Peak returns the highest value observed in the current window.
func (m *Memory) Peak() uint64 {
	return m.peak
}

// Mean returns the running mean of Current samples in the window.
func (m *Memory) Mean() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.total / float64(m.samples)
}

// Delta returns peak minus the value at Start.
func (m *Memory) Delta() uint64 {
	if m.peak < m.initial {
		return 0
	}
	return m.peak - m.initial
}

// Tracking reports whether a window is open.
func (m *Memory) Tracking() bool {
	return m.tracking
}

// Reset clears all state including an open window.
func (m *Memory) Reset() {
	m.tracking = false
	m.initial = 0
	m.peak = 0
	m.total = 0
	m.samples = 0
}

// ProcessMemory returns the larger of the Go heap in use and the resident set
// size of the process.
func ProcessMemory() (uint64, error) {
	return processMemory(func() (uint64, error) {
		fs, err := defaultFS()
		if err != nil {
			return 0, err
		}
		return residentMemory(fs)
	})
}

func processMemory(rss func() (uint64, error)) (uint64, error) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	used := ms.HeapInuse

	resident, err := rss()
	if err != nil {
		if used == 0 {
			return 0, err
		}
		return used, nil
	}
	return max(used, resident), nil
}

// residentMemory returns VmRSS of the current process in bytes.
func residentMemory(fs procfs.FS) (uint64, error) {
	self, err := fs.Self()
	if err != nil {
		return 0, fmt.Errorf("failed to open own process: %w", err)
	}
	status, err := self.NewStatus()
	if err != nil {
		return 0, fmt.Errorf("failed to read process status: %w", err)
	}
	return status.VmRSS, nil
}

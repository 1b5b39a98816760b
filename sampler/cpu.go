package sampler

import (
	"fmt"
	"time"

	"github.com/prometheus/procfs"
	"github.com/rs/zerolog"
)

// clockTick is the duration of one USER_HZ tick as reported in /proc.
const clockTick = 10 * time.Millisecond

// CPU computes process CPU utilisation from the delta between consecutive
// samples: 100 * cpuTimeDelta / wallTimeDelta. Values above 100 mean more
// than one core was busy.
type CPU struct {
	logger zerolog.Logger

	readProcess func() (time.Duration, error)
	now         func() time.Time

	tracking     bool
	previousCPU  time.Duration
	previousWall time.Time
	peak         float64
	total        float64
	samples      int
}

// NewCPU returns a CPU sampler reading the process stat from procfs.
func NewCPU(logger zerolog.Logger) *CPU {
	return &CPU{
		logger:      logger.With().Str("sampler", "cpu").Logger(),
		readProcess: ProcessCPUTime,
		now:         time.Now,
	}
}

// Start begins a tracking window. A second Start without Stop is ignored.
func (c *CPU) Start() {
	if c.tracking {
		c.logger.Warn().Msg("CPU tracking already started")
		return
	}

	c.tracking = true
	c.previousCPU, _ = c.readProcess()
	c.previousWall = c.now()
	c.peak = 0
	c.total = 0
	c.samples = 0
}

// Stop ends the tracking window.
func (c *CPU) Stop() {
	if !c.tracking {
		c.logger.Warn().Msg("CPU tracking not started")
		return
	}

	c.tracking = false
	c.logger.Debug().
		Float64("peak", c.peak).
		Float64("mean", c.Mean()).
		Msg("Stopped CPU tracking")
}

// Current returns the utilisation since the previous sample and moves the
// baseline forward. Read failures yield 0.
func (c *CPU) Current() float64 {
	cpuTime, err := c.readProcess()
	if err != nil {
		c.logger.Debug().Err(err).Msg("Failed to read process CPU time")
		return 0
	}
	now := c.now()

	var usage float64
	if !c.previousWall.IsZero() {
		if wall := now.Sub(c.previousWall); wall > 0 {
			usage = 100 * float64(cpuTime-c.previousCPU) / float64(wall)
		}
	}
	if usage < 0 {
		usage = 0
	}

	if usage > c.peak {
		c.peak = usage
	}
	c.total += usage
	c.samples++

	c.previousCPU = cpuTime
	c.previousWall = now

	return usage
}

// Peak returns the highest sample in the current window.
func (c *CPU) Peak() float64 {
	return c.peak
}

// Mean returns the running mean of samples in the current window.
func (c *CPU) Mean() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.total / float64(c.samples)
}

// Tracking reports whether a window is open.
func (c *CPU) Tracking() bool {
	return c.tracking
}

// Reset clears all state including an open window.
func (c *CPU) Reset() {
	c.tracking = false
	c.previousCPU = 0
	c.previousWall = time.Time{}
	c.peak = 0
	c.total = 0
	c.samples = 0
}

// ProcessCPUTime returns user plus system CPU time of the current process.
func ProcessCPUTime() (time.Duration, error) {
	fs, err := defaultFS()
	if err != nil {
		return 0, err
	}
	return processCPUTime(fs)
}

func processCPUTime(fs procfs.FS) (time.Duration, error) {
	self, err := fs.Self()
	if err != nil {
		return 0, fmt.Errorf("failed to open own process: %w", err)
	}
	stat, err := self.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to read process stat: %w", err)
	}
	return time.Duration(stat.UTime+stat.STime) * clockTick, nil
}

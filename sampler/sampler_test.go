package sampler

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/procfs"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock returns scripted CPU times and advances wall time by step per call.
type fakeClock struct {
	cpu  []time.Duration
	wall time.Time
	step time.Duration
	err  error
}

func (f *fakeClock) readCPU() (time.Duration, error) {
	if f.err != nil {
		return 0, f.err
	}
	v := f.cpu[0]
	if len(f.cpu) > 1 {
		f.cpu = f.cpu[1:]
	}
	return v, nil
}

func (f *fakeClock) now() time.Time {
	f.wall = f.wall.Add(f.step)
	return f.wall
}

func newFakeCPU(f *fakeClock) *CPU {
	c := NewCPU(zerolog.Nop())
	c.readProcess = f.readCPU
	c.now = f.now
	return c
}

func TestCPU_DeltaUsage(t *testing.T) {
	f := &fakeClock{
		cpu:  []time.Duration{0, 50 * time.Millisecond, 250 * time.Millisecond},
		wall: time.Unix(0, 0),
		step: 100 * time.Millisecond,
	}
	c := newFakeCPU(f)

	c.Start()
	// 50ms of CPU over 100ms of wall time
	assert.InDelta(t, 50.0, c.Current(), 1e-9)
	// 200ms of CPU over 100ms of wall time: two busy cores
	assert.InDelta(t, 200.0, c.Current(), 1e-9)

	assert.InDelta(t, 200.0, c.Peak(), 1e-9)
	assert.InDelta(t, 125.0, c.Mean(), 1e-9)
	c.Stop()
	require.False(t, c.Tracking())
}

func TestCPU_ReadFailureYieldsZero(t *testing.T) {
	f := &fakeClock{err: errors.New("permission denied"), wall: time.Unix(0, 0), step: time.Second}
	c := newFakeCPU(f)

	c.Start()
	require.Equal(t, 0.0, c.Current())
	require.Equal(t, 0.0, c.Peak())
}

func TestCPU_StartTwiceIsNoop(t *testing.T) {
	f := &fakeClock{
		cpu:  []time.Duration{10 * time.Millisecond, 70 * time.Millisecond},
		wall: time.Unix(0, 0),
		step: time.Second,
	}
	c := newFakeCPU(f)

	c.Start()
	baselineCPU, baselineWall := c.previousCPU, c.previousWall

	c.Start()
	require.Equal(t, baselineCPU, c.previousCPU)
	require.Equal(t, baselineWall, c.previousWall)
	require.True(t, c.Tracking())
}

func TestCPU_ResetClearsWindow(t *testing.T) {
	f := &fakeClock{cpu: []time.Duration{0, time.Second}, wall: time.Unix(0, 0), step: time.Second}
	c := newFakeCPU(f)
	c.Start()
	c.Current()
	c.Reset()

	require.False(t, c.Tracking())
	require.Equal(t, 0.0, c.Peak())
	require.Equal(t, 0.0, c.Mean())
	require.True(t, c.previousWall.IsZero())
}

func TestMemory_PeakAndMean(t *testing.T) {
	values := []uint64{100, 300, 200, 150}
	m := NewMemory(zerolog.Nop())
	m.read = func() (uint64, error) {
		v := values[0]
		values = values[1:]
		return v, nil
	}

	m.Start()
	require.Equal(t, uint64(300), m.Current())
	require.Equal(t, uint64(200), m.Current())
	require.Equal(t, uint64(300), m.Peak())
	require.InDelta(t, 250.0, m.Mean(), 1e-9)
	m.Stop()
	require.Equal(t, uint64(300), m.Peak())
	require.Equal(t, uint64(200), m.Delta())
}

func TestMemory_StartTwiceIsNoop(t *testing.T) {
	calls := 0
	m := NewMemory(zerolog.Nop())
	m.read = func() (uint64, error) {
		calls++
		return uint64(calls * 1000), nil
	}

	m.Start()
	m.Start()
	require.Equal(t, 1, calls)
	require.Equal(t, uint64(1000), m.initial)
	require.Equal(t, uint64(1000), m.Peak())
}

func TestMemory_ReadFailureYieldsZero(t *testing.T) {
	m := NewMemory(zerolog.Nop())
	m.read = func() (uint64, error) { return 0, errors.New("boom") }
	m.Start()
	require.Equal(t, uint64(0), m.Current())
}

// fakeProcFS lays out a procfs tree whose self link points at pid 4242.
func fakeProcFS(t *testing.T, files map[string]string) procfs.FS {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "4242"), 0755))
	require.NoError(t, os.Symlink("4242", filepath.Join(root, "self")))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0644))
	}
	fs, err := procfs.NewFS(root)
	require.NoError(t, err)
	return fs
}

func TestProcessCPUTime(t *testing.T) {
	// utime 37 and stime 12 ticks
	fs := fakeProcFS(t, map[string]string{
		"4242/stat": "4242 (my (odd) proc) R 1 4242 4242 0 -1 4194304 81 0 0 0 37 12 0 0 20 0 1 0 235331 2703360 287 18446744073709551615 1 1 0 0 0 0 0 0 0 0 0 0 17 0 0 0 0 0 0 1 1 1 1 1 1 1 0\n",
	})
	got, err := processCPUTime(fs)
	require.NoError(t, err)
	require.Equal(t, 490*time.Millisecond, got)

	_, err = processCPUTime(fakeProcFS(t, nil))
	require.Error(t, err)
}

func TestResidentMemory(t *testing.T) {
	fs := fakeProcFS(t, map[string]string{
		"4242/status": "Name:\tapibench\nVmRSS:\t    2048 kB\nThreads:\t8\n",
	})
	got, err := residentMemory(fs)
	require.NoError(t, err)
	require.Equal(t, uint64(2048*1024), got)
}

func TestProcessMemory_PrefersLargerReading(t *testing.T) {
	huge := uint64(1 << 50)
	got, err := processMemory(func() (uint64, error) { return huge, nil })
	require.NoError(t, err)
	require.Equal(t, huge, got)

	// the Go heap is never empty, so a failed RSS read still reports it
	got, err = processMemory(func() (uint64, error) { return 0, errors.New("no procfs") })
	require.NoError(t, err)
	require.Positive(t, got)
}

func TestSystemMemory(t *testing.T) {
	fs := fakeProcFS(t, map[string]string{
		"meminfo": "MemTotal:       16000000 kB\nMemFree:         2000000 kB\nMemAvailable:    6000000 kB\n",
	})
	info, err := systemMemory(fs)
	require.NoError(t, err)
	require.Equal(t, uint64(16000000*1024), info.TotalBytes)
	require.Equal(t, uint64(2000000*1024), info.FreeBytes)
	require.Equal(t, uint64(10000000*1024), info.UsedBytes)
	require.InDelta(t, 62.5, info.UsagePercent(), 1e-9)

	partial := fakeProcFS(t, map[string]string{"meminfo": "MemTotal:       16000000 kB\n"})
	_, err = systemMemory(partial)
	require.ErrorIs(t, err, errMeminfoIncomplete)
}

func TestSystemCPU(t *testing.T) {
	fs := fakeProcFS(t, map[string]string{
		"stat": "cpu  100 0 50 800 50 0 0 0 0 0\ncpu0 50 0 25 400 25 0 0 0 0 0\nbtime 1700000000\n",
	})
	info, err := systemCPU(fs)
	require.NoError(t, err)
	require.InDelta(t, 10.0, info.TotalSeconds, 1e-9)
	require.InDelta(t, 1.5, info.NonIdleSeconds, 1e-9)
	require.InDelta(t, 8.0, info.IdleSeconds, 1e-9)
	require.InDelta(t, 15.0, info.UsagePercent, 1e-9)
}

func TestPair_ReadOrder(t *testing.T) {
	p := NewPair(zerolog.Nop())
	p.Memory.read = func() (uint64, error) { return 10_000_000, nil }
	f := &fakeClock{cpu: []time.Duration{0, 10 * time.Millisecond}, wall: time.Unix(0, 0), step: 100 * time.Millisecond}
	p.CPU.readProcess = f.readCPU
	p.CPU.now = f.now

	p.Reset()
	p.Start()
	s := p.Read()
	p.Stop()

	require.Equal(t, uint64(10_000_000), s.MemoryBytes)
	require.Equal(t, uint64(10_000_000), s.PeakMemoryBytes)
	require.InDelta(t, 10.0, s.CPUPercent, 1e-9)
	require.InDelta(t, 10.0, s.PeakCPUPercent, 1e-9)
}

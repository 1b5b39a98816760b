package sampler

import (
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/procfs"
)

// defaultFS opens the /proc mount once. Off Linux it fails and every reader
// reports the error.
var defaultFS = sync.OnceValues(procfs.NewDefaultFS)

// SystemCPUInfo is cumulative machine CPU time since boot, in seconds.
type SystemCPUInfo struct {
	TotalSeconds   float64
	IdleSeconds    float64
	NonIdleSeconds float64
	UsagePercent   float64
}

// SystemMemoryInfo is derived from meminfo.
type SystemMemoryInfo struct {
	TotalBytes     uint64
	AvailableBytes uint64
	FreeBytes      uint64
	UsedBytes      uint64
}

// UsagePercent returns used over total memory.
func (m SystemMemoryInfo) UsagePercent() float64 {
	if m.TotalBytes == 0 {
		return 0
	}
	return 100 * float64(m.UsedBytes) / float64(m.TotalBytes)
}

// SystemCPU reads cumulative CPU usage of the whole machine since boot.
func SystemCPU() (SystemCPUInfo, error) {
	fs, err := defaultFS()
	if err != nil {
		return SystemCPUInfo{}, err
	}
	return systemCPU(fs)
}

func systemCPU(fs procfs.FS) (SystemCPUInfo, error) {
	stat, err := fs.Stat()
	if err != nil {
		return SystemCPUInfo{}, fmt.Errorf("failed to read system stat: %w", err)
	}
	c := stat.CPUTotal
	nonIdle := c.User + c.Nice + c.System + c.IRQ + c.SoftIRQ + c.Steal
	total := nonIdle + c.Idle + c.Iowait

	info := SystemCPUInfo{TotalSeconds: total, IdleSeconds: c.Idle, NonIdleSeconds: nonIdle}
	if total > 0 {
		info.UsagePercent = 100 * nonIdle / total
	}
	return info, nil
}

// SystemMemory reads machine memory totals.
func SystemMemory() (SystemMemoryInfo, error) {
	fs, err := defaultFS()
	if err != nil {
		return SystemMemoryInfo{}, err
	}
	return systemMemory(fs)
}

var errMeminfoIncomplete = errors.New("meminfo lacks MemTotal or MemAvailable")

func systemMemory(fs procfs.FS) (SystemMemoryInfo, error) {
	mi, err := fs.Meminfo()
	if err != nil {
		return SystemMemoryInfo{}, fmt.Errorf("failed to read meminfo: %w", err)
	}
	if mi.MemTotalBytes == nil || mi.MemAvailableBytes == nil {
		return SystemMemoryInfo{}, errMeminfoIncomplete
	}

	info := SystemMemoryInfo{
		TotalBytes:     *mi.MemTotalBytes,
		AvailableBytes: *mi.MemAvailableBytes,
	}
	if mi.MemFreeBytes != nil {
		info.FreeBytes = *mi.MemFreeBytes
	}
	if info.TotalBytes > info.AvailableBytes {
		info.UsedBytes = info.TotalBytes - info.AvailableBytes
	}
	return info, nil
}

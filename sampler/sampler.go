// Package sampler provides the CPU and memory probes the trial runner brackets
// every call with. Probes never fail: unreadable sources report 0.
package sampler

import "github.com/rs/zerolog"

// Pair is the CPU and memory sampler owned by a trial runner.
type Pair struct {
	CPU    *CPU
	Memory *Memory
}

// Snapshot is the set of readings taken at the end of a call.
type Snapshot struct {
	MemoryBytes     uint64
	PeakMemoryBytes uint64
	CPUPercent      float64
	PeakCPUPercent  float64
}

// NewPair returns process samplers.
func NewPair(logger zerolog.Logger) *Pair {
	return &Pair{
		CPU:    NewCPU(logger),
		Memory: NewMemory(logger),
	}
}

func (p *Pair) Reset() {
	p.Memory.Reset()
	p.CPU.Reset()
}

func (p *Pair) Start() {
	p.Memory.Start()
	p.CPU.Start()
}

func (p *Pair) Stop() {
	p.Memory.Stop()
	p.CPU.Stop()
}

// Read samples both probes while the window is still open.
func (p *Pair) Read() Snapshot {
	var s Snapshot
	s.MemoryBytes = p.Memory.Current()
	s.PeakMemoryBytes = p.Memory.Peak()
	s.CPUPercent = p.CPU.Current()
	s.PeakCPUPercent = p.CPU.Peak()
	return s
}

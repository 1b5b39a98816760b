package model

import "time"

// HistoryType represents the type of history entry
type HistoryType string

const (
	HistoryTypeRun        HistoryType = "run"
	HistoryTypeQuick      HistoryType = "quick"
	HistoryTypeComplexity HistoryType = "complexity"
	HistoryTypeCheck      HistoryType = "check"
)

// History represents a single apibench execution.
// It contains common fields shared by all execution types.
type History struct {
	// Unique ID for this execution (UUID)
	ID string `json:"id"`
	// Type of execution
	Type HistoryType `json:"type"`
	// Timestamp when the execution started
	Timestamp time.Time `json:"timestamp"`
	// Command-line arguments (including command name)
	Args []string `json:"args"`
	// Working directory where command was run (relative to repo root)
	WorkDir string `json:"workdir"`
	// Exit code of the execution
	ExitCode int `json:"exit_code"`
	// Duration of execution
	Duration time.Duration `json:"duration"`
	// Git information
	Git *Git `json:"git,omitempty"`
	// Backend endpoints that were measured
	Target *Target `json:"target,omitempty"`
	// Machine state when the run started
	Host *Host `json:"host,omitempty"`
	// Sweep parameters used (run and quick only)
	Sweep *Sweep `json:"sweep,omitempty"`
	// Outcome counters
	Summary *Summary `json:"summary,omitempty"`
	// Artifacts generated during this run
	Artifacts []Artifact `json:"artifacts,omitempty"`
}

// Git contains git repository information
type Git struct {
	// Git commit hash at time of execution
	Commit string `json:"commit,omitempty"`
	// Git branch at time of execution
	Branch string `json:"branch,omitempty"`
}

// Target contains the endpoints of the measured backend
type Target struct {
	RESTBaseURL string `json:"rest_base_url,omitempty"`
	GraphQLURL  string `json:"graphql_url,omitempty"`
	// Operating system of the measuring machine
	OS string `json:"os,omitempty"`
	// CPU architecture of the measuring machine
	Arch string `json:"arch,omitempty"`
}

// Host is a snapshot of system resources taken before the run.
type Host struct {
	CPUCount           int     `json:"cpu_count"`
	CPUUsagePercent    float64 `json:"cpu_usage_percent"`
	MemoryTotalBytes   uint64  `json:"memory_total_bytes"`
	MemoryUsedBytes    uint64  `json:"memory_used_bytes"`
	MemoryUsagePercent float64 `json:"memory_usage_percent"`
}

// Sweep records the experiment parameters.
type Sweep struct {
	DataSizes  []int `json:"data_sizes,omitempty"`
	LoadLevels []int `json:"load_levels,omitempty"`
	Iterations int   `json:"iterations,omitempty"`
	Rounds     int   `json:"rounds,omitempty"`
}

// Summary counts the recorded trials.
type Summary struct {
	Trials    int `json:"trials"`
	Succeeded int `json:"succeeded"`
	Cells     int `json:"cells"`
	// Directory the CSV results were exported to, empty if export failed
	ResultsDir string `json:"results_dir,omitempty"`
}

// ArtifactType identifies the type of artifact
type ArtifactType uint8

const (
	ArtifactTypeLatencyProfile ArtifactType = iota
	ArtifactTypeRawResults
	ArtifactTypeStatistics
	ArtifactTypeComplexity
	ArtifactTypeSummary
	ArtifactTypeMetrics
	ArtifactTypeReport
)

// String returns the short name used when listing artifacts.
func (t ArtifactType) String() string {
	switch t {
	case ArtifactTypeLatencyProfile:
		return "profile"
	case ArtifactTypeRawResults:
		return "raw"
	case ArtifactTypeStatistics:
		return "stats"
	case ArtifactTypeComplexity:
		return "complexity"
	case ArtifactTypeSummary:
		return "summary"
	case ArtifactTypeMetrics:
		return "metrics"
	case ArtifactTypeReport:
		return "report"
	}
	return "unknown"
}

// Artifact represents a file generated during execution
type Artifact struct {
	Type ArtifactType `json:"type"`
	Size uint64       `json:"size"`
	File string       `json:"file"` // relative to run dir
}

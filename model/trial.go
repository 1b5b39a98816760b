package model

import (
	"strings"
	"time"
)

// Transport identifies one of the two backend access styles being compared.
type Transport string

const (
	TransportREST    Transport = "REST"
	TransportGraphQL Transport = "GRAPHQL"
)

// Transports returns the transports in their default round order.
func Transports() []Transport {
	return []Transport{TransportREST, TransportGraphQL}
}

// ParseTransport accepts the canonical names case-insensitively, plus "gql".
func ParseTransport(s string) (Transport, bool) {
	switch strings.ToUpper(s) {
	case "REST":
		return TransportREST, true
	case "GRAPHQL", "GQL":
		return TransportGraphQL, true
	}
	return "", false
}

// OperationKind is the TEST_TYPE column of the exported results.
type OperationKind string

const (
	OperationProducts       OperationKind = "PRODUCTS"
	OperationPackages       OperationKind = "PACKAGES"
	OperationResellerSearch OperationKind = "RESELLER_SEARCH"
	OperationRealWorld      OperationKind = "REAL_WORLD_SCENARIO"
	OperationQuickTest      OperationKind = "QUICK_TEST"
	OperationQuickAverage   OperationKind = "QUICK_TEST_AVERAGE"
)

// Scenario is the TEST_SCENARIO column of the exported results.
type Scenario string

const (
	ScenarioIndividualProducts Scenario = "INDIVIDUAL_PRODUCTS_ONLY"
	ScenarioPackageProducts    Scenario = "PACKAGE_PRODUCTS_ONLY"
	ScenarioMixedProducts      Scenario = "MIXED_PRODUCTS"
	ScenarioSearch             Scenario = "SEARCH_OPERATIONS"
	ScenarioRealWorld          Scenario = "REAL_WORLD_SCENARIO"
)

// Cell is the grouping key for statistics.
type Cell struct {
	Transport Transport     `json:"transport"`
	Operation OperationKind `json:"operation"`
	DataSize  int           `json:"data_size"`
	LoadLevel int           `json:"load_level"`
}

// TrialResult is the outcome of one timed call attempt. Timing fields are
// milliseconds; TotalTimeMs is -1 when the attempt did not complete.
type TrialResult struct {
	Transport Transport     `json:"transport"`
	Operation OperationKind `json:"operation"`
	Scenario  Scenario      `json:"scenario"`
	DataSize  int           `json:"data_size"`
	LoadLevel int           `json:"load_level"`

	NetworkTimeMs       int64 `json:"network_time_ms"`
	ParsingTimeMs       int64 `json:"parsing_time_ms"`
	TotalTimeMs         int64 `json:"total_time_ms"`
	TimeToFirstRenderMs int64 `json:"time_to_first_render_ms"`

	MemoryBytes     int64   `json:"memory_bytes"`
	PeakMemoryBytes int64   `json:"peak_memory_bytes"`
	CPUPercent      float64 `json:"cpu_percent"`
	PeakCPUPercent  float64 `json:"peak_cpu_percent"`

	Timestamp time.Time `json:"timestamp"`
	Succeeded bool      `json:"succeeded"`
	Error     string    `json:"error,omitempty"`

	// Bytes read off the wire for this attempt
	TransferredBytes int64 `json:"transferred_bytes"`
	// Number of backend round trips the operation needed
	QueryComplexity int `json:"query_complexity"`
}

// Cell returns the statistics cell the result belongs to.
func (r TrialResult) Cell() Cell {
	return Cell{
		Transport: r.Transport,
		Operation: r.Operation,
		DataSize:  r.DataSize,
		LoadLevel: r.LoadLevel,
	}
}

// Completed reports whether the result counts towards timing statistics.
func (r TrialResult) Completed() bool {
	return r.Succeeded && r.TotalTimeMs > 0
}

// TrialStatistics summarises all results of one cell.
type TrialStatistics struct {
	Transport Transport     `json:"transport"`
	Operation OperationKind `json:"operation"`
	DataSize  int           `json:"data_size"`
	LoadLevel int           `json:"load_level"`

	MeanTimeMs         float64 `json:"mean_time_ms"`
	MinTimeMs          float64 `json:"min_time_ms"`
	MaxTimeMs          float64 `json:"max_time_ms"`
	MeanMemoryBytes    float64 `json:"mean_memory_bytes"`
	MeanCPUPercent     float64 `json:"mean_cpu_percent"`
	SuccessRatePercent float64 `json:"success_rate_percent"`
	StdDevTimeMs       float64 `json:"stddev_time_ms"`

	Trials    int     `json:"trials"`
	Succeeded int     `json:"succeeded"`
	P50TimeMs float64 `json:"p50_time_ms"`
	P95TimeMs float64 `json:"p95_time_ms"`
	P99TimeMs float64 `json:"p99_time_ms"`
}

// Cell returns the statistics cell.
func (s TrialStatistics) Cell() Cell {
	return Cell{
		Transport: s.Transport,
		Operation: s.Operation,
		DataSize:  s.DataSize,
		LoadLevel: s.LoadLevel,
	}
}

// DifficultyTier grades how hard a component is to implement.
type DifficultyTier string

const (
	DifficultyEasy     DifficultyTier = "EASY"
	DifficultyMedium   DifficultyTier = "MEDIUM"
	DifficultyHard     DifficultyTier = "HARD"
	DifficultyVeryHard DifficultyTier = "VERY_HARD"
)

// ComplexityRecord is one row of the curated structural complexity table.
type ComplexityRecord struct {
	Transport            Transport      `json:"transport"`
	Component            string         `json:"component"`
	LinesOfCode          int            `json:"lines_of_code"`
	CyclomaticComplexity int            `json:"cyclomatic_complexity"`
	CognitiveComplexity  int            `json:"cognitive_complexity"`
	ErrorHandlingLines   int            `json:"error_handling_lines"`
	DocLines             int            `json:"doc_lines"`
	Difficulty           DifficultyTier `json:"difficulty"`
	MaintainabilityScore float64        `json:"maintainability_score"`
	ReadabilityScore     float64        `json:"readability_score"`
	TotalScore           float64        `json:"total_score"`
}

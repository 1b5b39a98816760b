// Package sink exports trial results, statistics and the complexity table as
// timestamped CSV files. Export problems are logged and reported to the
// caller as a boolean; they never abort a run.
package sink

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/perfgo/apibench/complexity"
	"github.com/perfgo/apibench/model"
	"github.com/rs/zerolog"
)

// SubDir is created below the preferred or fallback directory.
const SubDir = "apibench_results"

const timestampLayout = "2006-01-02_15-04-05"

var ErrNoWritableDir = errors.New("no writable results directory")

var (
	rawHeader = []string{
		"API_TYPE", "TEST_TYPE", "TEST_SCENARIO", "DATA_SIZE", "LOAD_LEVEL",
		"NETWORK_TIME", "PARSING_TIME", "TOTAL_RESPONSE_TIME", "TIME_TO_FIRST_RENDER",
		"MEMORY_USAGE", "PEAK_MEMORY_USAGE", "CPU_USAGE", "PEAK_CPU_USAGE",
		"TIMESTAMP", "SUCCESS", "ERROR_MESSAGE", "DATA_TRANSFER_SIZE", "QUERY_COMPLEXITY",
	}
	statsHeader = []string{
		"API_TYPE", "TEST_TYPE", "DATA_SIZE", "LOAD_LEVEL",
		"AVG_RESPONSE_TIME", "MIN_RESPONSE_TIME", "MAX_RESPONSE_TIME",
		"AVG_MEMORY_USAGE", "AVG_CPU_USAGE", "SUCCESS_RATE", "STANDARD_DEVIATION",
	}
	complexityHeader = []string{
		"API_TYPE", "COMPONENT", "LINES_OF_CODE", "CYCLOMATIC_COMPLEXITY", "COGNITIVE_COMPLEXITY",
		"ERROR_HANDLING_LINES", "DOCUMENTATION_LINES", "IMPLEMENTATION_DIFFICULTY",
		"MAINTAINABILITY_SCORE", "READABILITY_SCORE",
	}
	complexitySummaryHeader = []string{
		"REST_TOTAL_LINES", "GRAPHQL_TOTAL_LINES", "REST_AVG_COMPLEXITY", "GRAPHQL_AVG_COMPLEXITY",
		"REST_MAINTAINABILITY", "GRAPHQL_MAINTAINABILITY", "REST_READABILITY", "GRAPHQL_READABILITY",
	}
)

// Location describes where an export landed.
type Location struct {
	Dir       string
	RawFile   string
	StatsFile string
	// Fallback is set when the preferred directory was not writable
	Fallback bool
}

type Sink struct {
	logger    zerolog.Logger
	preferred string
	fallback  string
	now       func() time.Time
}

type Option func(*Sink)

// WithClock overrides the clock used for file name timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Sink) { s.now = now }
}

// New returns a sink writing below preferred, or below fallback when
// preferred cannot be written to.
func New(logger zerolog.Logger, preferred, fallback string, opts ...Option) *Sink {
	s := &Sink{
		logger:    logger.With().Str("component", "sink").Logger(),
		preferred: preferred,
		fallback:  fallback,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Write exports results and statistics. ok is false if either file could not
// be written.
func (s *Sink) Write(results []model.TrialResult, statistics []model.TrialStatistics) (Location, bool) {
	dir, fallback, err := s.dir()
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to export results")
		return Location{}, false
	}

	ts := s.now().Format(timestampLayout)
	loc := Location{
		Dir:       dir,
		RawFile:   filepath.Join(dir, "performance_test_raw_"+ts+".csv"),
		StatsFile: filepath.Join(dir, "performance_test_stats_"+ts+".csv"),
		Fallback:  fallback,
	}

	if err := writeCSV(loc.RawFile, rawRecords(results)); err != nil {
		s.logger.Error().Err(err).Str("file", loc.RawFile).Msg("Failed to write raw results")
		return loc, false
	}
	if err := writeCSV(loc.StatsFile, statsRecords(statistics)); err != nil {
		s.logger.Error().Err(err).Str("file", loc.StatsFile).Msg("Failed to write statistics")
		return loc, false
	}

	s.logger.Info().
		Str("dir", dir).
		Bool("fallback", fallback).
		Int("results", len(results)).
		Int("cells", len(statistics)).
		Msg("Exported results")
	return loc, true
}

// WriteComplexity exports the complexity table followed by its summary
// section and returns the file path.
func (s *Sink) WriteComplexity(records []model.ComplexityRecord, summary complexity.Summary) (string, bool) {
	dir, _, err := s.dir()
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to export complexity analysis")
		return "", false
	}

	path := filepath.Join(dir, "complexity_analysis_"+s.now().Format(timestampLayout)+".csv")
	if err := writeCSV(path, complexityRecords(records, summary)); err != nil {
		s.logger.Error().Err(err).Str("file", path).Msg("Failed to write complexity analysis")
		return "", false
	}

	s.logger.Info().Str("file", path).Msg("Exported complexity analysis")
	return path, true
}

func (s *Sink) dir() (string, bool, error) {
	for i, base := range []string{s.preferred, s.fallback} {
		if base == "" {
			continue
		}
		dir := filepath.Join(base, SubDir)
		if err := probeWritable(dir); err != nil {
			s.logger.Warn().Err(err).Str("dir", dir).Msg("Results directory not writable")
			continue
		}
		return dir, i == 1, nil
	}
	return "", false, ErrNoWritableDir
}

func probeWritable(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

func writeCSV(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Base(path), err)
	}

	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

func rawRecords(results []model.TrialResult) [][]string {
	records := make([][]string, 0, len(results)+1)
	records = append(records, rawHeader)
	for _, r := range results {
		records = append(records, []string{
			string(r.Transport),
			string(r.Operation),
			string(r.Scenario),
			strconv.Itoa(r.DataSize),
			strconv.Itoa(r.LoadLevel),
			formatInt(r.NetworkTimeMs),
			formatInt(r.ParsingTimeMs),
			formatInt(r.TotalTimeMs),
			formatInt(r.TimeToFirstRenderMs),
			formatInt(r.MemoryBytes),
			formatInt(r.PeakMemoryBytes),
			formatFloat(r.CPUPercent),
			formatFloat(r.PeakCPUPercent),
			formatInt(r.Timestamp.UnixMilli()),
			strconv.FormatBool(r.Succeeded),
			r.Error,
			formatInt(r.TransferredBytes),
			strconv.Itoa(r.QueryComplexity),
		})
	}
	return records
}

func statsRecords(statistics []model.TrialStatistics) [][]string {
	records := make([][]string, 0, len(statistics)+1)
	records = append(records, statsHeader)
	for _, s := range statistics {
		records = append(records, []string{
			string(s.Transport),
			string(s.Operation),
			strconv.Itoa(s.DataSize),
			strconv.Itoa(s.LoadLevel),
			formatFloat(s.MeanTimeMs),
			formatFloat(s.MinTimeMs),
			formatFloat(s.MaxTimeMs),
			formatFloat(s.MeanMemoryBytes),
			formatFloat(s.MeanCPUPercent),
			formatFloat(s.SuccessRatePercent),
			formatFloat(s.StdDevTimeMs),
		})
	}
	return records
}

func complexityRecords(rows []model.ComplexityRecord, summary complexity.Summary) [][]string {
	records := make([][]string, 0, len(rows)+5)
	records = append(records, complexityHeader)
	for _, r := range rows {
		records = append(records, []string{
			string(r.Transport),
			r.Component,
			strconv.Itoa(r.LinesOfCode),
			strconv.Itoa(r.CyclomaticComplexity),
			strconv.Itoa(r.CognitiveComplexity),
			strconv.Itoa(r.ErrorHandlingLines),
			strconv.Itoa(r.DocLines),
			string(r.Difficulty),
			formatFloat(r.MaintainabilityScore),
			formatFloat(r.ReadabilityScore),
		})
	}

	rest, gql := summary.REST, summary.GraphQL
	records = append(records,
		[]string{},
		[]string{"SUMMARY"},
		complexitySummaryHeader,
		[]string{
			strconv.Itoa(rest.TotalLines),
			strconv.Itoa(gql.TotalLines),
			formatFloat(rest.AvgCyclomatic),
			formatFloat(gql.AvgCyclomatic),
			formatFloat(rest.AvgMaintainability),
			formatFloat(gql.AvgMaintainability),
			formatFloat(rest.AvgReadability),
			formatFloat(gql.AvgReadability),
		},
	)
	return records
}

func formatInt(v int64) string     { return strconv.FormatInt(v, 10) }
func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

package cli

// This file contains artifact management functionality for saving result
// exports, latency profiles and reports to the history directory.

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/perfgo/apibench/latencyprof"
	"github.com/perfgo/apibench/model"
	"github.com/perfgo/apibench/protocol"
	"github.com/perfgo/apibench/sink"
	"github.com/perfgo/apibench/stats"
)

const (
	latencyProfileFile = "latency.pb.gz"
	summaryFile        = "summary.json"
	metricsFile        = "metrics.prom"
	reportFile         = "report.txt"
)

// closeAfter runs write against w and closes it. A failed Close is reported
// since it may be the first sign of an unflushed write.
func closeAfter(w io.WriteCloser, write func(io.Writer) error) error {
	if err := write(w); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func (a *App) copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	return closeAfter(destFile, func(w io.Writer) error {
		_, err := io.Copy(w, sourceFile)
		return err
	})
}

// addArtifact registers file (relative to runDir) if it exists.
func (a *App) addArtifact(h *model.History, runDir, file string, typ model.ArtifactType) {
	info, err := os.Stat(filepath.Join(runDir, file))
	if err != nil {
		a.logger.Debug().Err(err).Str("file", file).Msg("Artifact missing")
		return
	}
	h.Artifacts = append(h.Artifacts, model.Artifact{
		Type: typ,
		Size: uint64(info.Size()),
		File: file,
	})
	a.logger.Debug().Str("file", file).Stringer("type", typ).Msg("Registered artifact")
}

func (a *App) writeLatencyProfile(path string, results []model.TrialResult) error {
	prof := latencyprof.Build(results)

	outFile, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create latency profile: %w", err)
	}
	if err := closeAfter(outFile, prof.Write); err != nil {
		return fmt.Errorf("failed to write latency profile: %w", err)
	}
	return nil
}

// saveReport writes report into runDir and prints it.
func (a *App) saveReport(h *model.History, runDir string, report *bytes.Buffer) {
	fmt.Print(report.String())
	if err := os.WriteFile(filepath.Join(runDir, reportFile), report.Bytes(), 0644); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to save report")
		return
	}
	a.addArtifact(h, runDir, reportFile, model.ArtifactTypeReport)
}

// saveSessionArtifacts exports a finished session through s and archives
// every derived file in runDir. Failures are logged; the run continues.
func (a *App) saveSessionArtifacts(h *model.History, runDir string, s *sink.Sink, session *protocol.Session, finished time.Time) {
	results := session.Results()
	statistics := session.Statistics()

	summary := &model.Summary{
		Trials: len(results),
		Cells:  len(statistics),
	}
	for _, r := range results {
		if r.Succeeded {
			summary.Succeeded++
		}
	}
	h.Summary = summary

	loc, ok := s.Write(results, statistics)
	if ok {
		summary.ResultsDir = loc.Dir
		for _, f := range []struct {
			src string
			typ model.ArtifactType
		}{
			{loc.RawFile, model.ArtifactTypeRawResults},
			{loc.StatsFile, model.ArtifactTypeStatistics},
		} {
			name := filepath.Base(f.src)
			if err := a.copyFile(f.src, filepath.Join(runDir, name)); err != nil {
				a.logger.Warn().Err(err).Str("file", f.src).Msg("Failed to archive export")
				continue
			}
			a.addArtifact(h, runDir, name, f.typ)
		}
		fmt.Printf("Results exported to %s\n", loc.Dir)
		if loc.Fallback {
			fmt.Println("Preferred results directory was not writable, used the fallback directory")
		}
	} else {
		fmt.Println("Export did not complete: results are only available in the run history")
	}

	if err := a.writeLatencyProfile(filepath.Join(runDir, latencyProfileFile), results); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to save latency profile")
	} else {
		a.addArtifact(h, runDir, latencyProfileFile, model.ArtifactTypeLatencyProfile)
	}

	report := sink.Report{
		SessionID:  session.ID,
		Started:    session.Started,
		Finished:   finished,
		Transports: stats.Summarize(results),
		Statistics: statistics,
	}
	if err := sink.WriteSummaryJSON(filepath.Join(runDir, summaryFile), report); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to save summary")
	} else {
		a.addArtifact(h, runDir, summaryFile, model.ArtifactTypeSummary)
	}

	if err := sink.WriteMetrics(filepath.Join(runDir, metricsFile), results); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to save metrics")
	} else {
		a.addArtifact(h, runDir, metricsFile, model.ArtifactTypeMetrics)
	}
}

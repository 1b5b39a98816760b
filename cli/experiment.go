package cli

// This file contains the measurement commands: run, quick, complexity and
// check.

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/perfgo/apibench/complexity"
	"github.com/perfgo/apibench/config"
	"github.com/perfgo/apibench/model"
	"github.com/perfgo/apibench/protocol"
	"github.com/perfgo/apibench/sampler"
	"github.com/perfgo/apibench/sink"
	"github.com/perfgo/apibench/transport"
	"github.com/perfgo/apibench/trial"
	"github.com/urfave/cli/v2"
)

// loadConfig reads --config over the defaults and applies command flag
// overrides.
func (a *App) loadConfig(ctx *cli.Context) (config.Config, error) {
	cfg, err := config.Load(ctx.String("config"))
	if err != nil {
		return cfg, err
	}

	if it := ctx.Int("iterations"); it > 0 {
		cfg.Sweep.Iterations = it
	}
	if dir := ctx.String("results-dir"); dir != "" {
		cfg.Output.ResultsDir = dir
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	a.logger.Debug().
		Ints("data_sizes", cfg.Sweep.DataSizes).
		Ints("load_levels", cfg.Sweep.LoadLevels).
		Int("iterations", cfg.Sweep.Iterations).
		Int("configurations", cfg.Configurations()).
		Msg("Loaded configuration")
	return cfg, nil
}

func (a *App) clients(cfg config.Config) []transport.Client {
	httpClient := &http.Client{
		Timeout: cfg.Endpoints.Timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			DialContext:         (&net.Dialer{Timeout: cfg.Endpoints.ConnectTimeout}).DialContext,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	return []transport.Client{
		transport.NewREST(a.logger, cfg.Endpoints.RESTBaseURL, httpClient),
		transport.NewGraphQL(a.logger, cfg.Endpoints.GraphQLURL, httpClient),
	}
}

func (a *App) newSink(cfg config.Config) *sink.Sink {
	return sink.New(a.logger, cfg.Output.ResultsDir, cfg.Output.FallbackDir)
}

func target(cfg config.Config) *model.Target {
	return &model.Target{
		RESTBaseURL: cfg.Endpoints.RESTBaseURL,
		GraphQLURL:  cfg.Endpoints.GraphQLURL,
		OS:          runtime.GOOS,
		Arch:        runtime.GOARCH,
	}
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func (a *App) experiment(cfg config.Config) *protocol.Experiment {
	runner := trial.NewRunner(a.logger, sampler.NewPair(a.logger))
	return protocol.New(a.logger, cfg, runner, a.clients(cfg))
}

func (a *App) run(ctx *cli.Context) error {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return err
	}

	return a.record(ctx, model.HistoryTypeRun, func(h *model.History, runDir string) error {
		h.Target = target(cfg)
		h.Sweep = &model.Sweep{
			DataSizes:  cfg.Sweep.DataSizes,
			LoadLevels: cfg.Sweep.LoadLevels,
			Iterations: cfg.Sweep.Iterations,
			Rounds:     protocol.Rounds,
		}

		runCtx, cancel := signalContext(ctx.Context)
		defer cancel()

		a.logger.Info().
			Int("configurations", cfg.Configurations()).
			Int("iterations", cfg.Sweep.Iterations).
			Msg("Starting full comparison")

		session := a.experiment(cfg).Run(runCtx, protocol.NewSession(h.ID, h.Timestamp))
		a.saveSessionArtifacts(h, runDir, a.newSink(cfg), session, time.Now())

		var report bytes.Buffer
		writeRunReport(&report, session.Statistics(), session.Results())
		a.saveReport(h, runDir, &report)

		if err := runCtx.Err(); err != nil {
			return fmt.Errorf("run interrupted after %d trials: %w", session.Len(), err)
		}
		if session.Len() == 0 {
			return fmt.Errorf("no trials recorded: no transport passed the connectivity check")
		}
		return nil
	})
}

func (a *App) quick(ctx *cli.Context) error {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return err
	}

	return a.record(ctx, model.HistoryTypeQuick, func(h *model.History, runDir string) error {
		h.Target = target(cfg)
		h.Sweep = &model.Sweep{
			DataSizes:  []int{trial.QuickDataSize},
			LoadLevels: []int{trial.QuickLoadLevel},
			Iterations: 1,
			Rounds:     protocol.Rounds,
		}

		runCtx, cancel := signalContext(ctx.Context)
		defer cancel()

		session := protocol.NewSession(h.ID, h.Timestamp)
		cmp := a.experiment(cfg).Quick(runCtx, session)
		a.saveSessionArtifacts(h, runDir, a.newSink(cfg), session, time.Now())

		var report bytes.Buffer
		writeQuickReport(&report, cmp.Averages)
		a.saveReport(h, runDir, &report)

		if err := runCtx.Err(); err != nil {
			return fmt.Errorf("quick comparison interrupted: %w", err)
		}
		return nil
	})
}

func (a *App) complexityAnalysis(ctx *cli.Context) error {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return err
	}

	return a.record(ctx, model.HistoryTypeComplexity, func(h *model.History, runDir string) error {
		records := complexity.Score()
		summary := complexity.Summarize(records)

		if path, ok := a.newSink(cfg).WriteComplexity(records, summary); ok {
			name := filepath.Base(path)
			if err := a.copyFile(path, filepath.Join(runDir, name)); err != nil {
				a.logger.Warn().Err(err).Msg("Failed to archive complexity analysis")
			} else {
				a.addArtifact(h, runDir, name, model.ArtifactTypeComplexity)
			}
			h.Summary = &model.Summary{ResultsDir: filepath.Dir(path)}
			fmt.Printf("Complexity analysis exported to %s\n", path)
		} else {
			fmt.Println("Export did not complete: complexity analysis is only available in the run history")
		}

		if err := sink.WriteSummaryJSON(filepath.Join(runDir, summaryFile), summary); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to save summary")
		} else {
			a.addArtifact(h, runDir, summaryFile, model.ArtifactTypeSummary)
		}

		var report bytes.Buffer
		writeComplexityReport(&report, records, summary)
		a.saveReport(h, runDir, &report)
		return nil
	})
}

func (a *App) check(ctx *cli.Context) error {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return err
	}

	return a.record(ctx, model.HistoryTypeCheck, func(h *model.History, runDir string) error {
		h.Target = target(cfg)

		checkCtx, cancel := signalContext(ctx.Context)
		defer cancel()

		report := protocol.DatabaseReport(checkCtx, a.clients(cfg))
		succeeded, failed := report.Counts()
		h.Summary = &model.Summary{
			Trials:    succeeded + failed,
			Succeeded: succeeded,
		}

		var buf bytes.Buffer
		buf.WriteString(report.String())
		a.saveReport(h, runDir, &buf)

		if failed > 0 {
			return fmt.Errorf("%d of %d checks failed", failed, succeeded+failed)
		}
		return nil
	})
}

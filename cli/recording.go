package cli

// This file contains run recording functionality for saving run metadata
// and artifacts to the history directory.

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/perfgo/apibench/history"
	"github.com/perfgo/apibench/model"
	"github.com/perfgo/apibench/sampler"
	"github.com/urfave/cli/v2"
)

// record runs fn with a fresh history entry and its prepared directory and
// records the entry afterwards, whatever fn returns.
func (a *App) record(ctx *cli.Context, typ model.HistoryType, fn func(h *model.History, runDir string) error) error {
	startTime := time.Now()

	h := &model.History{
		ID:        uuid.NewString(),
		Type:      typ,
		Timestamp: startTime,
		Args:      os.Args,
		Host:      a.hostSnapshot(),
	}

	// Capture working directory
	if cwd, err := os.Getwd(); err == nil {
		h.WorkDir = cwd
	}

	// Capture git info (non-fatal if it fails)
	if commit, branch, err := a.getGitInfo(); err == nil {
		h.Git = &model.Git{
			Commit: commit,
			Branch: branch,
		}
	}

	// Create history directory early so artifacts can be written directly to it
	runDir, err := a.prepareHistoryDir(h)
	if err != nil {
		return fmt.Errorf("failed to prepare history directory: %w", err)
	}

	var finalErr error
	defer func() {
		h.Duration = time.Since(startTime)
		h.ExitCode = 0
		if finalErr != nil {
			h.ExitCode = 1
		}

		// Record the history (non-fatal if it fails)
		if err := a.recordHistory(h, runDir); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to record history")
		}
	}()

	a.logger.Debug().Str("id", h.ID).Str("type", string(typ)).Strs("args", ctx.Args().Slice()).Msg("Starting")
	finalErr = fn(h, runDir)
	return finalErr
}

// prepareHistoryDir creates .apibench/history/<timestamp>-<id> and makes
// h.WorkDir relative to the directory .apibench lives in.
func (a *App) prepareHistoryDir(h *model.History) (string, error) {
	base, err := history.BaseDir()
	if err != nil {
		return "", err
	}

	if h.WorkDir != "" {
		if rel, err := filepath.Rel(base, h.WorkDir); err == nil {
			h.WorkDir = rel
		}
	}

	shortID := h.ID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}
	runName := fmt.Sprintf("%s-%s", h.Timestamp.Format("20060102-150405"), shortID)
	runDir := filepath.Join(base, history.DirName, "history", runName)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create run directory: %w", err)
	}
	return runDir, nil
}

func (a *App) recordHistory(h *model.History, runDir string) error {
	metadataPath := filepath.Join(runDir, "history.json")
	metadataJSON, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	if err := os.WriteFile(metadataPath, metadataJSON, 0644); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}

	a.logger.Debug().Str("dir", runDir).Str("id", h.ID).Msg("Recorded run")
	return nil
}

// hostSnapshot reads machine wide CPU and memory usage. Unreadable sources
// leave their fields zero.
func (a *App) hostSnapshot() *model.Host {
	host := &model.Host{CPUCount: runtime.NumCPU()}

	if cpu, err := sampler.SystemCPU(); err == nil {
		host.CPUUsagePercent = cpu.UsagePercent
	} else {
		a.logger.Debug().Err(err).Msg("Failed to read system CPU usage")
	}

	if mem, err := sampler.SystemMemory(); err == nil {
		host.MemoryTotalBytes = mem.TotalBytes
		host.MemoryUsedBytes = mem.UsedBytes
		host.MemoryUsagePercent = mem.UsagePercent()
	} else {
		a.logger.Debug().Err(err).Msg("Failed to read system memory usage")
	}

	return host
}

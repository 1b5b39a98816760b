package cli

// This file contains the view command for displaying runs from history.

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/perfgo/apibench/history"
	"github.com/perfgo/apibench/model"
	"github.com/urfave/cli/v2"
)

func removeFirstDashDash(in []string) []string {
	if len(in) > 0 && in[0] == "--" {
		return in[1:]
	}
	return in
}

func parseViewArgs(in []string) (idArg string, pprofArgs []string) {
	if len(in) == 0 {
		return "0", nil
	}

	// If first arg is "--", use default "0" and rest are pprof args
	if in[0] == "--" {
		return "0", in[1:]
	}

	// A negative index is "-" followed by only digits (e.g. "-1"); anything
	// else starting with "-" is a pprof flag (e.g. "-http=:8080", "-top")
	if len(in[0]) > 1 && in[0][0] == '-' {
		if _, err := strconv.ParseInt(in[0], 10, 64); err != nil {
			return "0", in
		}
	}

	return in[0], removeFirstDashDash(in[1:])
}

func (a *App) view(ctx *cli.Context) error {
	root, err := history.GetRoot()
	if err != nil {
		return err
	}

	entries, err := history.LoadEntries(a.logger, root)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	entry, pprofArgs, err := selectEntry(entries, ctx.Args().Slice())
	if err != nil {
		return err
	}
	return a.displayHistoryEntry(entry, pprofArgs)
}

// selectEntry resolves the view arguments against entries: an index counted
// from the newest run or a run ID prefix, followed by pprof arguments.
func selectEntry(entries []history.Entry, args []string) (*history.Entry, []string, error) {
	arg, pprofArgs := parseViewArgs(args)
	history.SortNewestFirst(entries)
	entry, err := history.Find(entries, arg)
	if err != nil {
		return nil, nil, err
	}
	return entry, pprofArgs, nil
}

func findArtifact(h model.History, typ model.ArtifactType) *model.Artifact {
	for i := range h.Artifacts {
		if h.Artifacts[i].Type == typ {
			return &h.Artifacts[i]
		}
	}
	return nil
}

func (a *App) displayHistoryEntry(entry *history.Entry, pprofArgs []string) error {
	h := entry.History

	shortID := h.ID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}
	fmt.Printf("=== Run: %s (%s) ===\n", shortID, h.Type)
	fmt.Printf("Time: %s\n", h.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Printf("Duration: %s\n", h.Duration)
	fmt.Printf("Exit Code: %d\n", h.ExitCode)
	if h.WorkDir != "" {
		fmt.Printf("Working Dir: %s\n", h.WorkDir)
	}
	if h.Git != nil && h.Git.Commit != "" {
		commit := h.Git.Commit
		if len(commit) > 8 {
			commit = commit[:8]
		}
		fmt.Printf("Git Commit: %s", commit)
		if h.Git.Branch != "" {
			fmt.Printf(" (%s)", h.Git.Branch)
		}
		fmt.Println()
	}
	if h.Target != nil && h.Target.RESTBaseURL != "" {
		fmt.Printf("REST: %s\n", h.Target.RESTBaseURL)
		fmt.Printf("GraphQL: %s\n", h.Target.GraphQLURL)
	}
	if h.Host != nil {
		fmt.Printf("Host: %d CPUs, %.1f%% CPU, %.1f%% memory in use\n", h.Host.CPUCount, h.Host.CPUUsagePercent, h.Host.MemoryUsagePercent)
	}
	if h.Sweep != nil {
		fmt.Printf("Sweep: data sizes %v, load levels %v, %d iterations, %d rounds\n",
			h.Sweep.DataSizes, h.Sweep.LoadLevels, h.Sweep.Iterations, h.Sweep.Rounds)
	}
	if h.Summary != nil {
		if h.Summary.Trials > 0 {
			fmt.Printf("Trials: %d (%d succeeded, %d cells)\n", h.Summary.Trials, h.Summary.Succeeded, h.Summary.Cells)
		}
		if h.Summary.ResultsDir != "" {
			fmt.Printf("Results: %s\n", h.Summary.ResultsDir)
		}
	}
	fmt.Println()

	// Display the highest priority artifact
	if artifact := findArtifact(h, model.ArtifactTypeLatencyProfile); artifact != nil {
		return a.displayProfile(entry.FullPath, artifact, pprofArgs)
	}
	for _, typ := range []model.ArtifactType{
		model.ArtifactTypeStatistics,
		model.ArtifactTypeComplexity,
		model.ArtifactTypeReport,
	} {
		if artifact := findArtifact(h, typ); artifact != nil {
			return a.displayFile(entry.FullPath, artifact)
		}
	}

	fmt.Println("No displayable artifacts found")
	fmt.Printf("History directory: %s\n", entry.FullPath)
	return nil
}

func (a *App) displayProfile(runDir string, artifact *model.Artifact, pprofArgs []string) error {
	profilePath := filepath.Join(runDir, artifact.File)
	fmt.Printf("Profile: %s (%.1f KB)\n", profilePath, float64(artifact.Size)/1024)

	args := []string{"tool", "pprof"}
	args = append(args, pprofArgs...)
	args = append(args, profilePath)

	cmd := exec.Command("go", args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Dir = runDir

	return cmd.Run()
}

func (a *App) displayFile(runDir string, artifact *model.Artifact) error {
	path := filepath.Join(runDir, artifact.File)
	fmt.Printf("%s: %s\n", artifact.Type, path)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", artifact.Type, err)
	}
	fmt.Println(string(data))
	return nil
}

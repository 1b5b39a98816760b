package cli

// This file contains the list command for displaying previous runs.

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"al.essio.dev/pkg/shellescape"
	"github.com/perfgo/apibench/history"
	"github.com/urfave/cli/v2"
)

func (a *App) list(ctx *cli.Context) error {
	filterType := strings.ToLower(ctx.String("type"))
	limit := ctx.Int("limit")

	root, err := history.GetRoot()
	if err != nil {
		return err
	}

	entries, err := history.LoadEntries(a.logger, root)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	var filtered []history.Entry
	for _, entry := range entries {
		if filterType == "" || string(entry.History.Type) == filterType {
			filtered = append(filtered, entry)
		}
	}

	if len(filtered) == 0 {
		if filterType != "" {
			fmt.Printf("No history entries found of type: %s\n", filterType)
		} else {
			fmt.Println("No history entries found")
		}
		return nil
	}

	history.SortNewestFirst(filtered)
	printEntries(os.Stdout, filtered, limit)

	fmt.Println("\nView a run: apibench view <ID>")
	return nil
}

// rerunCommand returns args as a shell command line, with the program
// reduced to its base name.
func rerunCommand(args []string) string {
	if len(args) == 0 {
		return ""
	}
	cmd := append([]string{filepath.Base(args[0])}, args[1:]...)
	return shellescape.QuoteCommand(cmd)
}

func printEntries(w io.Writer, entries []history.Entry, limit int) {
	display := entries
	if limit > 0 && limit < len(display) {
		display = display[:limit]
	}

	fmt.Fprintf(w, "\n=== History (%d total) ===\n\n", len(entries))

	for _, entry := range display {
		h := entry.History
		timestamp := h.Timestamp.Format("2006-01-02 15:04:05")
		duration := h.Duration.Round(time.Millisecond)

		status := "✓"
		if h.ExitCode != 0 {
			status = "✗"
		}

		shortID := h.ID
		if len(shortID) > 8 {
			shortID = shortID[:8]
		}

		fmt.Fprintf(w, "%s  %s  %-10s [%s]  exit=%d  id=%s\n", status, timestamp, h.Type, duration, h.ExitCode, shortID)
		if cmd := rerunCommand(h.Args); cmd != "" {
			fmt.Fprintf(w, "   Rerun: %s\n", cmd)
		}
		if h.WorkDir != "" {
			fmt.Fprintf(w, "   Path: %s\n", h.WorkDir)
		}
		if h.Target != nil && h.Target.RESTBaseURL != "" {
			fmt.Fprintf(w, "   Target: %s | %s", h.Target.RESTBaseURL, h.Target.GraphQLURL)
			if h.Target.OS != "" && h.Target.Arch != "" {
				fmt.Fprintf(w, " (%s/%s)", h.Target.OS, h.Target.Arch)
			}
			fmt.Fprintln(w)
		}
		if h.Git != nil && h.Git.Commit != "" {
			shortCommit := h.Git.Commit
			if len(shortCommit) > 8 {
				shortCommit = shortCommit[:8]
			}
			fmt.Fprintf(w, "   Commit: %s", shortCommit)
			if h.Git.Branch != "" {
				fmt.Fprintf(w, " (%s)", h.Git.Branch)
			}
			fmt.Fprintln(w)
		}
		if h.Summary != nil && h.Summary.Trials > 0 {
			fmt.Fprintf(w, "   Trials: %d (%d succeeded, %d cells)\n", h.Summary.Trials, h.Summary.Succeeded, h.Summary.Cells)
		}
		for _, artifact := range h.Artifacts {
			fmt.Fprintf(w, "   %s: %s (%.1f KB)\n", artifact.Type, artifact.File, float64(artifact.Size)/1024)
		}
		fmt.Fprintf(w, "   %s\n", entry.FullPath)
		fmt.Fprintln(w)
	}
}

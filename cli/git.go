package cli

// This file contains Git integration utilities for tagging recorded runs
// with the revision of the benchmarked checkout.

import (
	"fmt"
	"os/exec"
	"strings"
)

func gitOutput(args ...string) (string, error) {
	output, err := exec.Command("git", args...).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

func (a *App) getGitInfo() (commit, branch string, err error) {
	commit, err = gitOutput("rev-parse", "HEAD")
	if err != nil {
		return "", "", fmt.Errorf("failed to get git commit: %w", err)
	}

	branch, err = gitOutput("rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", "", fmt.Errorf("failed to get git branch: %w", err)
	}

	if dirty, err := gitOutput("status", "--porcelain", "--untracked-files=no"); err == nil && dirty != "" {
		commit += "-dirty"
	}
	a.logger.Debug().Str("commit", commit).Str("branch", branch).Msg("Detected git revision")
	return commit, branch, nil
}

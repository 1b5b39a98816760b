package history

// This file contains shared history utilities for loading, ordering and
// resolving recorded runs.

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/perfgo/apibench/model"
	"github.com/rs/zerolog"
)

// DirName is the per-repository state directory.
const DirName = ".apibench"

var ErrNoEntries = errors.New("no history entries found")

type Entry struct {
	History  model.History
	FullPath string
}

// BaseDir returns the directory .apibench lives in: the git repository root
// when inside one, the working directory otherwise.
func BaseDir() (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	if output, err := cmd.Output(); err == nil {
		return strings.TrimSpace(string(output)), nil
	}
	return os.Getwd()
}

// GetRoot returns the existing .apibench directory.
func GetRoot() (string, error) {
	base, err := BaseDir()
	if err != nil {
		return "", err
	}
	root := filepath.Join(base, DirName)

	if _, err := os.Stat(root); os.IsNotExist(err) {
		return "", fmt.Errorf("no runs found in %s", root)
	}

	return root, nil
}

// LoadEntries loads all history entries below root.
func LoadEntries(logger zerolog.Logger, root string) ([]Entry, error) {
	var entries []Entry

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			historyPath := filepath.Join(path, "history.json")
			if _, err := os.Stat(historyPath); err == nil {
				history, err := parseHistoryJSON(historyPath)
				if err != nil {
					logger.Warn().Err(err).Str("path", historyPath).Msg("Failed to parse history.json")
					return nil
				}

				entries = append(entries, Entry{
					History:  history,
					FullPath: path,
				})
			}
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to walk %s directory: %w", DirName, err)
	}

	return entries, nil
}

// SortNewestFirst orders entries by start time, newest first.
func SortNewestFirst(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].History.Timestamp.After(entries[j].History.Timestamp)
	})
}

// Find resolves arg against entries sorted newest first. arg is either an
// index (0 last, -1 second to last, ...) or an ID prefix.
func Find(entries []Entry, arg string) (*Entry, error) {
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}

	parsed, err := strconv.ParseInt(arg, 10, 64)
	isIndex := err == nil
	if isIndex && parsed <= 0 {
		index := int(-parsed)
		if index >= len(entries) {
			return nil, fmt.Errorf("index %s out of range (only %d history entries)", arg, len(entries))
		}
		return &entries[index], nil
	}

	// run IDs are uuids, so a positive number may still be an ID prefix
	prefix := strings.ToLower(arg)
	for i := range entries {
		if strings.HasPrefix(strings.ToLower(entries[i].History.ID), prefix) {
			return &entries[i], nil
		}
	}
	if isIndex {
		return nil, fmt.Errorf("invalid index: %s (use 0 for last, -1 for second-to-last, -2 for third-to-last, etc.)", arg)
	}
	return nil, fmt.Errorf("no history entry found matching ID: %s", arg)
}

// parseHistoryJSON parses a history.json file.
func parseHistoryJSON(historyPath string) (model.History, error) {
	data, err := os.ReadFile(historyPath)
	if err != nil {
		return model.History{}, err
	}

	var history model.History
	if err := json.Unmarshal(data, &history); err != nil {
		return model.History{}, err
	}

	return history, nil
}

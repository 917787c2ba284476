// Package history persists the last-observed state per event between scans.
//
// The state lives in a single JSON file. Load reads it once at scan start;
// Commit replaces it atomically at scan end. A reader (or a crash mid-write)
// can never observe a partially written file: Commit writes to a temp file in
// the same directory, fsyncs, and renames it onto the target path.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/futureheadlines/radar/internal/store"
)

// ErrCorruptState indicates the history file exists but cannot be parsed.
// The caller decides whether to halt or to fall back to an empty state.
var ErrCorruptState = errors.New("history file is corrupt")

// Load reads the history state from path. A missing or empty file yields an
// empty state; an unparsable file yields an error wrapping ErrCorruptState.
func Load(path string) (store.HistoryState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return store.HistoryState{}, nil
		}
		return nil, fmt.Errorf("read history: %w", err)
	}

	if len(data) == 0 {
		return store.HistoryState{}, nil
	}

	// Unknown extra fields in records are tolerated for forward compatibility.
	var state store.HistoryState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}

	if state == nil {
		state = store.HistoryState{}
	}
	return state, nil
}

// Commit serializes the full state and atomically replaces the file at path.
// On failure the previous file content is left untouched and the temp file is
// cleaned up.
func Commit(path string, state store.HistoryState) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	// Temp file must live in the target directory so the rename stays on one
	// filesystem and remains atomic.
	tmp, err := os.CreateTemp(dir, ".history-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp history: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp history: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp history: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("commit history: %w", err)
	}

	return nil
}

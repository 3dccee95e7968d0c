package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

const stateVersion = "1"

// mirrorState is the persisted record of the last successful fetch.
type mirrorState struct {
	Version   string    `json:"version"`
	URL       string    `json:"url"`
	Ref       string    `json:"ref,omitempty"`
	LastFetch time.Time `json:"last_fetch"`
}

// loadState reads the state file. A missing file yields (nil, nil).
func loadState(fs billy.Filesystem, path string) (*mirrorState, error) {
	if _, err := fs.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	data, err := util.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var state mirrorState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}

	if state.Version != stateVersion {
		return nil, fmt.Errorf("unsupported state version: %s (expected %s)", state.Version, stateVersion)
	}

	return &state, nil
}

// matches reports whether the state describes a mirror of url at ref.
func (s *mirrorState) matches(url, ref string) bool {
	return s != nil && s.URL == url && s.Ref == ref && !s.LastFetch.IsZero()
}

// save writes the state atomically: temp file, then rename.
func (s *mirrorState) save(fs billy.Filesystem, path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tmpPath := path + ".tmp"
	tmpFile, err := fs.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary state file: %w", err)
	}

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		_ = fs.Remove(tmpPath)
		return fmt.Errorf("failed to write temporary state file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		_ = fs.Remove(tmpPath)
		return fmt.Errorf("failed to close temporary state file: %w", err)
	}

	if err := fs.Rename(tmpPath, path); err != nil {
		_ = fs.Remove(tmpPath)
		return fmt.Errorf("failed to rename state file: %w", err)
	}

	return nil
}

// Package file persists the recent definitions list as a YAML file.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/wizvis/pkg/ports"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when New receives an empty path.
var DefaultPath = filepath.Join(".wizvis", "recent.yaml")

// recentFile is the on-disk layout.
type recentFile struct {
	Recent []string `yaml:"recent"`
}

// RecentStore implements ports.RecentStore on the local filesystem.
type RecentStore struct {
	Path string
}

var _ ports.RecentStore = (*RecentStore)(nil)

// New creates a store writing to path.
func New(path string) *RecentStore {
	if path == "" {
		path = DefaultPath
	}
	return &RecentStore{Path: path}
}

// Load reads the list. A missing file is an empty list.
func (s *RecentStore) Load(ctx context.Context) ([]string, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read recent file: %w", err)
	}

	var f recentFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recent file: %w", err)
	}
	return f.Recent, nil
}

// Save writes the list atomically: a temp file in the same directory is
// synced and then renamed over the destination.
func (s *RecentStore) Save(ctx context.Context, paths []string) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to ensure recent directory: %w", err)
	}

	data, err := yaml.Marshal(recentFile{Recent: paths})
	if err != nil {
		return fmt.Errorf("failed to marshal recent list: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, "tmp-recent-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows can't rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// os.Rename fails on Windows when the destination exists.
	if _, err := os.Stat(s.Path); err == nil {
		if err := os.Remove(s.Path); err != nil {
			return fmt.Errorf("failed to remove existing recent file: %w", err)
		}
	}
	if err := os.Rename(tmpPath, s.Path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

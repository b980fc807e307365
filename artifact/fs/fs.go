// Package fs provides a local file system backed core.ArtifactStore. One
// directory per run, one file per artifact. Writes go to a temp file in the
// target directory and are renamed into place so readers never observe a
// partially written artifact.
package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tabml/tabkit/artifact"
)

const dirPerm = 0o755

// Temp files live in the run directory until renamed into place. The
// prefix/suffix pair marks them unambiguously; path() rejects artifact
// names in this namespace so List can never hide a stored artifact.
const (
	tmpPrefix = ".artifact-"
	tmpSuffix = ".tmp"
)

func isTempName(name string) bool {
	return strings.HasPrefix(name, tmpPrefix) && strings.HasSuffix(name, tmpSuffix)
}

// Store is a directory-rooted artifact store.
type Store struct {
	root string
}

// New creates a file system artifact store rooted at dir, creating it if
// needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("artifact root dir is empty")
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("create artifact root: %w", err)
	}
	return &Store{root: dir}, nil
}

// Save writes the artifact bytes for the given run and name, replacing any
// existing artifact atomically.
func (s *Store) Save(_ context.Context, runID, name string, data []byte) error {
	path, err := s.path(runID, name)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, tmpPrefix+"*"+tmpSuffix)
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

// Get returns the stored artifact bytes or artifact.ErrNotFound.
func (s *Store) Get(_ context.Context, runID, name string) ([]byte, error) {
	path, err := s.path(runID, name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, artifact.ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// List returns the artifact names stored for the run, sorted. A run with no
// artifacts yields an empty slice.
func (s *Store) List(_ context.Context, runID string) ([]string, error) {
	if err := validateKey(runID); err != nil {
		return nil, err
	}
	dir := filepath.Join(s.root, runID)
	names := make([]string, 0, 16)
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || isTempName(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes the artifact if present or returns artifact.ErrNotFound.
func (s *Store) Delete(_ context.Context, runID, name string) error {
	path, err := s.path(runID, name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return artifact.ErrNotFound
		}
		return err
	}
	return nil
}

// path maps (runID, name) onto a file below root, rejecting traversal
// outside the run directory.
func (s *Store) path(runID, name string) (string, error) {
	if err := validateKey(runID); err != nil {
		return "", err
	}
	if err := validateKey(name); err != nil {
		return "", err
	}
	if isTempName(filepath.Base(filepath.FromSlash(name))) {
		return "", fmt.Errorf("artifact name %q collides with temp file namespace", name)
	}
	path := filepath.Join(s.root, runID, filepath.FromSlash(name))
	runDir := filepath.Join(s.root, runID)
	if path != runDir && !strings.HasPrefix(path, runDir+string(filepath.Separator)) {
		return "", fmt.Errorf("artifact name %q escapes run directory", name)
	}
	return path, nil
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("empty artifact key")
	}
	if strings.Contains(key, "..") {
		return fmt.Errorf("artifact key %q must not contain '..'", key)
	}
	return nil
}

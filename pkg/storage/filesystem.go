package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStorage keeps generated report artifacts on local disk under a
// single base directory. Artifact names are relative paths issued by the
// export pipeline and embedded in signed download tokens.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage creates the base directory if needed.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./data/reports"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create report storage dir: %w", err)
	}
	return &LocalStorage{baseDir: baseDir}, nil
}

// path resolves an artifact name, rejecting anything that would escape the
// base directory. Names arrive from signed tokens, but the signer is not
// the only writer of tokens in a misconfigured deployment.
func (s *LocalStorage) path(name string) (string, error) {
	clean := filepath.Clean(name)
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}
	return filepath.Join(s.baseDir, clean), nil
}

// Save writes an artifact and returns the name it is retrievable under.
func (s *LocalStorage) Save(name string, data []byte) (string, error) {
	target, err := s.path(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("prepare artifact dir: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact %s: %w", name, err)
	}
	return name, nil
}

// Open returns a read handle on a stored artifact.
func (s *LocalStorage) Open(name string) (*os.File, error) {
	target, err := s.path(name)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(target)
	if err != nil {
		return nil, fmt.Errorf("open artifact %s: %w", name, err)
	}
	return file, nil
}

// Delete removes an artifact. A missing file is not an error; the cleanup
// loop and explicit job deletion can race.
func (s *LocalStorage) Delete(name string) error {
	target, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete artifact %s: %w", name, err)
	}
	return nil
}

// CleanupOlderThan removes artifacts whose mtime predates the TTL and
// returns their names. This catches orphans whose job rows are gone.
func (s *LocalStorage) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-ttl)

	var stale []string
	walk := func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().Before(cutoff) {
			stale = append(stale, path)
		}
		return nil
	}
	if err := filepath.WalkDir(s.baseDir, walk); err != nil {
		return nil, fmt.Errorf("scan report storage: %w", err)
	}

	removed := make([]string, 0, len(stale))
	for _, path := range stale {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("remove stale artifact: %w", err)
		}
		if rel, err := filepath.Rel(s.baseDir, path); err == nil {
			removed = append(removed, rel)
		} else {
			removed = append(removed, path)
		}
	}
	return removed, nil
}

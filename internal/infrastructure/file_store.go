package infrastructure

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yourusername/tubegrab-go/internal/domain"
)

// FileStore owns the download directory
type FileStore struct {
	dir string
}

// NewFileStore creates a store rooted at dir; the path is made absolute
func NewFileStore(dir string) (*FileStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve download directory: %w", err)
	}
	return &FileStore{dir: abs}, nil
}

// Dir returns the absolute download directory
func (s *FileStore) Dir() string {
	return s.dir
}

// Ensure creates the directory and checks that it is writable
func (s *FileStore) Ensure() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create download directory: %w", err)
	}

	probe, err := os.CreateTemp(s.dir, ".write-probe-*")
	if err != nil {
		return fmt.Errorf("download directory %s is not writable: %w", s.dir, err)
	}
	name := probe.Name()
	probe.Close()
	return os.Remove(name)
}

// LocateByStem finds the file the extractor produced for stem, newest first if several match
func (s *FileStore) LocateByStem(stem string) (string, error) {
	path, err := s.newest(func(name string) bool {
		return domain.MatchesStem(name, stem)
	})
	if err != nil {
		return "", err
	}
	if path == "" {
		return "", &domain.NotFoundError{Name: stem + ".*", Dir: s.dir}
	}
	return path, nil
}

// LocateProducedFile is the containment search for outputs the extractor renamed
func (s *FileStore) LocateProducedFile(safeBaseName, quality string) (string, error) {
	path, err := s.newest(func(name string) bool {
		return domain.MatchesFuzzy(name, safeBaseName, quality)
	})
	if err != nil {
		return "", err
	}
	if path == "" {
		return "", &domain.NotFoundError{Name: safeBaseName, Dir: s.dir}
	}
	return path, nil
}

func (s *FileStore) newest(match func(name string) bool) (string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return "", fmt.Errorf("failed to list download directory: %w", err)
	}

	var (
		best     string
		bestTime time.Time
	)
	for _, entry := range entries {
		if entry.IsDir() || !match(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if best == "" || info.ModTime().After(bestTime) {
			best = filepath.Join(s.dir, entry.Name())
			bestTime = info.ModTime()
		}
	}
	return best, nil
}

// Resolve maps a client supplied filename token to a path inside the directory.
// Tokens with separators, traversal segments or anything that is not a plain
// base name are rejected with domain.ErrInvalidPath.
func (s *FileStore) Resolve(token string) (string, error) {
	if token == "" || token == "." ||
		strings.ContainsAny(token, `/\`) ||
		strings.Contains(token, "..") ||
		strings.ContainsRune(token, 0) ||
		filepath.Base(token) != token {
		return "", domain.ErrInvalidPath
	}

	path := filepath.Join(s.dir, token)
	rel, err := filepath.Rel(s.dir, path)
	if err != nil || rel != token {
		return "", domain.ErrInvalidPath
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &domain.NotFoundError{Name: token, Dir: s.dir}
		}
		return "", err
	}
	if !info.Mode().IsRegular() || domain.IsPartialFile(token) {
		return "", &domain.NotFoundError{Name: token, Dir: s.dir}
	}
	return path, nil
}

// Contains reports whether path is a direct child of the directory
func (s *FileStore) Contains(path string) bool {
	return filepath.Dir(filepath.Clean(path)) == s.dir
}

// Size returns the size in bytes of the file at path
func (s *FileStore) Size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Remove deletes path; a missing file is not an error
func (s *FileStore) Remove(path string) error {
	if !s.Contains(path) {
		return domain.ErrInvalidPath
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ListOlderThan returns regular files whose modification time is before now-age
func (s *FileStore) ListOlderThan(age time.Duration) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	cutoff := time.Now().Add(-age)
	var paths []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".write-probe-") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			paths = append(paths, filepath.Join(s.dir, entry.Name()))
		}
	}
	return paths, nil
}

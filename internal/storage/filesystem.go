// Package storage keeps image variants on the local filesystem under a single
// flat directory.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultDir is the upload root used when none is configured.
const DefaultDir = "uploads/produtos"

var (
	// ErrNotFound is returned when a read target does not exist.
	ErrNotFound = errors.New("file not found")
	// ErrIO wraps disk and permission faults.
	ErrIO = errors.New("storage i/o failure")
	// ErrInvalidName is returned for names that could escape the root directory.
	ErrInvalidName = errors.New("invalid file name")
)

// FileInfo describes one stored file.
type FileInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// FileStore reads, writes and deletes files in a flat directory.
type FileStore struct {
	dir string
}

// NewFileStore returns a store rooted at dir. The directory is created lazily
// by EnsureDir.
func NewFileStore(dir string) *FileStore {
	if dir == "" {
		dir = DefaultDir
	}
	return &FileStore{dir: filepath.Clean(dir)}
}

// Dir returns the root directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// EnsureDir creates the root directory tree if it is absent.
func (s *FileStore) EnsureDir() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("%w: creating upload directory: %v", ErrIO, err)
	}
	return nil
}

// Write creates or replaces name. Data goes to a temporary file in the same
// directory first and is renamed into place, so readers never observe a
// partially written file.
func (s *FileStore) Write(name string, data []byte) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("%w: creating temp file for %s: %v", ErrIO, name, err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		if rmErr := os.Remove(tmpName); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			log.Warn().Err(rmErr).Str("component", "storage").Str("file", tmpName).Msg("failed to remove temp file")
		}
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("%w: writing %s: %v", ErrIO, name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("%w: syncing %s: %v", ErrIO, name, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("%w: closing %s: %v", ErrIO, name, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("%w: chmod %s: %v", ErrIO, name, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("%w: renaming %s: %v", ErrIO, name, err)
	}
	return nil
}

// Read returns the bytes stored under name.
func (s *FileStore) Read(name string) ([]byte, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("%w: reading %s: %v", ErrIO, name, err)
	}
	return data, nil
}

// Delete removes name. A missing file is not an error and other failures are
// logged and swallowed: cleanup is advisory.
func (s *FileStore) Delete(name string) {
	path, err := s.path(name)
	if err != nil {
		log.Warn().Err(err).Str("component", "storage").Str("file", name).Msg("refusing to delete")
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Str("component", "storage").Str("file", name).Msg("failed to delete file")
	}
}

// List returns the regular files in the root directory. A missing root
// yields an empty list.
func (s *FileStore) List() ([]FileInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: listing %s: %v", ErrIO, s.dir, err)
	}

	files := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		files = append(files, FileInfo{Name: entry.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	return files, nil
}

func (s *FileStore) path(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name), nil
}

// ValidateName rejects empty names, hidden names and anything containing a
// path separator.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.HasPrefix(name, ".") ||
		strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

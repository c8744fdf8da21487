package filesystem

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"diskspace-examiner/internal/logging"
)

// MaxPath is the longest path Join will build.
const MaxPath = 4096

// ErrPathTooLong is returned by Join when the result would exceed MaxPath.
var ErrPathTooLong = errors.New("path too long")

// FileEntry is one regular file found directly in a directory.
type FileEntry struct {
	Name      string
	ModTime   time.Time
	Allocated int64
}

// Source lists the immediate contents of a directory. Access failures are
// reported as an empty result.
type Source interface {
	Subdirectories(path string) []string
	Files(path string) []FileEntry
}

// Join joins a directory path and an entry name.
func Join(dir, name string) (string, error) {
	p := filepath.Join(dir, name)
	if len(p) > MaxPath {
		return "", ErrPathTooLong
	}
	return p, nil
}

// OS reads the local filesystem.
type OS struct {
	Retry RetryConfig
}

// NewOSSource returns an OS source with the default retry policy.
func NewOSSource() *OS {
	return &OS{Retry: DefaultRetryConfig()}
}

func (s *OS) readDir(path string) []os.DirEntry {
	entries, err := ReadDirWithRetry(path, s.Retry)
	if err != nil {
		logging.Debug("Cannot list %s: %v", path, err)
		return nil
	}
	return entries
}

// Subdirectories returns the names of real directories in path. Symbolic
// links are not followed.
func (s *OS) Subdirectories(path string) []string {
	var names []string
	for _, e := range s.readDir(path) {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names
}

// Files returns every non-directory entry in path with its allocated size.
// Entries that vanish or cannot be inspected are skipped.
func (s *OS) Files(path string) []FileEntry {
	entries := s.readDir(path)
	files := make([]FileEntry, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		full, err := Join(path, e.Name())
		if err != nil {
			continue
		}
		fe, err := inspect(full, e)
		if err != nil {
			logging.Debug("Skipping %s: %v", full, err)
			continue
		}
		files = append(files, fe)
	}
	return files
}

// Inspect returns the FileEntry for a non-directory entry found at path,
// measured the same way Files measures it.
func Inspect(path string, e os.DirEntry) (FileEntry, error) {
	return inspect(path, e)
}

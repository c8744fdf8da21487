package filesystem

import (
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

// MapSource is an in-memory Source. Paths are cleaned with filepath.Clean.
type MapSource struct {
	mu     sync.RWMutex
	dirs   map[string]*memDir
	denied map[string]bool
}

type memDir struct {
	subdirs []string
	files   []FileEntry
}

// NewMapSource returns an empty MapSource.
func NewMapSource() *MapSource {
	return &MapSource{
		dirs:   make(map[string]*memDir),
		denied: make(map[string]bool),
	}
}

// AddDir creates path and any missing ancestors.
func (m *MapSource) AddDir(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureDir(filepath.Clean(path))
}

func (m *MapSource) ensureDir(path string) *memDir {
	if d, ok := m.dirs[path]; ok {
		return d
	}
	d := &memDir{}
	m.dirs[path] = d
	parent := filepath.Dir(path)
	if parent != path {
		pd := m.ensureDir(parent)
		pd.subdirs = append(pd.subdirs, filepath.Base(path))
	}
	return d
}

// AddFile records a file, creating its directory if needed. An existing file
// with the same name is replaced.
func (m *MapSource) AddFile(path string, allocated int64, modTime time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	d := m.ensureDir(filepath.Dir(path))
	name := filepath.Base(path)
	d.files = slices.DeleteFunc(d.files, func(f FileEntry) bool { return f.Name == name })
	d.files = append(d.files, FileEntry{Name: name, ModTime: modTime, Allocated: allocated})
}

// Remove deletes a file or a directory with everything below it.
func (m *MapSource) Remove(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	parent, name := filepath.Dir(path), filepath.Base(path)

	if pd, ok := m.dirs[parent]; ok {
		pd.subdirs = slices.DeleteFunc(pd.subdirs, func(s string) bool { return s == name })
		pd.files = slices.DeleteFunc(pd.files, func(f FileEntry) bool { return f.Name == name })
	}
	prefix := path + string(filepath.Separator)
	for p := range m.dirs {
		if p == path || strings.HasPrefix(p, prefix) {
			delete(m.dirs, p)
		}
	}
}

// Deny makes path unreadable: both listings return empty.
func (m *MapSource) Deny(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.denied[filepath.Clean(path)] = true
}

func (m *MapSource) lookup(path string) *memDir {
	path = filepath.Clean(path)
	if m.denied[path] {
		return nil
	}
	return m.dirs[path]
}

// Subdirectories implements Source.
func (m *MapSource) Subdirectories(path string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d := m.lookup(path)
	if d == nil {
		return nil
	}
	return slices.Clone(d.subdirs)
}

// Files implements Source.
func (m *MapSource) Files(path string) []FileEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d := m.lookup(path)
	if d == nil {
		return nil
	}
	return slices.Clone(d.files)
}

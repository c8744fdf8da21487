package database

import (
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// pathKey is the roots table key: xxhash of the cleaned, case-folded path.
// SQLite integers are signed, so the hash is stored as int64.
func pathKey(path string) int64 {
	return int64(xxhash.Sum64String(strings.ToLower(filepath.Clean(path))))
}

// relativeTo returns child's path below parent and true, comparing
// case-insensitively. A path is not beneath itself.
func relativeTo(parent, child string) (string, bool) {
	parent, child = filepath.Clean(parent), filepath.Clean(child)
	prefix := parent
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	if len(child) <= len(prefix) || !strings.EqualFold(child[:len(prefix)], prefix) {
		return "", false
	}
	return child[len(prefix):], true
}

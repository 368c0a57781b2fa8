// Package scan resolves command-line inputs to regular files: it classifies
// paths, applies exclusion and symlink policy, and expands directories
// recursively under a depth limit, dispatching each resolved file to a
// per-file tag engine.
package scan

import (
	"os"
	"path/filepath"
	"strings"
)

// Kind classifies what a path refers to on disk.
type Kind int

const (
	// KindMissing means the path could not be resolved to anything.
	KindMissing Kind = iota
	// KindFile is a regular file.
	KindFile
	// KindDirectory is a directory.
	KindDirectory
	// KindSpecial is anything else that exists (device, socket, fifo).
	KindSpecial
)

// Entry is the classification of a single path. The Kind describes the
// link target when the path is a symbolic link.
type Entry struct {
	Path      string
	Kind      Kind
	Exists    bool
	IsSymlink bool
}

// Classify stats a path and classifies it. It never fails: a path that
// cannot be stat'ed yields KindMissing with Exists false, so callers can
// warn and move on instead of propagating an error for one bad input.
func Classify(path string) Entry {
	entry := Entry{Path: path}

	if fi, err := os.Lstat(path); err == nil {
		entry.IsSymlink = fi.Mode()&os.ModeSymlink != 0
	}

	fi, err := os.Stat(path)
	if err != nil {
		return entry
	}

	entry.Exists = true
	switch {
	case fi.IsDir():
		entry.Kind = KindDirectory
	case fi.Mode().IsRegular():
		entry.Kind = KindFile
	default:
		entry.Kind = KindSpecial
	}
	return entry
}

// isRecursiveLink reports whether dir is a symbolic link that resolves to
// its own parent or an ancestor of it. Descending into such a link would
// loop forever, independent of any depth limit.
func isRecursiveLink(dir string) bool {
	fi, err := os.Lstat(dir)
	if err != nil || fi.Mode()&os.ModeSymlink == 0 {
		return false
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	target, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return false
	}
	parent, err := filepath.EvalSymlinks(filepath.Dir(abs))
	if err != nil {
		return false
	}

	sep := string(filepath.Separator)
	return parent == target ||
		strings.HasPrefix(parent+sep, target+sep)
}

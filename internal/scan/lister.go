package scan

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/calder/tagscan/internal/config"
)

// DirLister enumerates the immediate children of a directory, returning
// basenames. The two implementations cover platforms with native directory
// iteration and platforms where only wildcard pattern expansion exists.
type DirLister interface {
	List(dir string) ([]string, error)
}

// NewLister returns the DirLister for the configured strategy.
func NewLister(strategy string) (DirLister, error) {
	switch strategy {
	case config.ListerReadDir:
		return readDirLister{}, nil
	case config.ListerGlob:
		return globLister{}, nil
	default:
		return nil, fmt.Errorf("unknown lister strategy %q", strategy)
	}
}

// readDirLister lists children via native directory iteration.
type readDirLister struct{}

func (readDirLister) List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names, nil
}

// globLister lists children by expanding a "*" wildcard appended to the
// directory. Dotfiles are invisible to the wildcard, matching the behavior
// of the pattern-based fallback it models.
type globLister struct{}

func (globLister) List(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(matches))
	for _, match := range matches {
		names = append(names, filepath.Base(match))
	}
	return names, nil
}

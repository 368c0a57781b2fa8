package scan

import (
	"fmt"
	"path/filepath"

	gitignore "github.com/monochromegane/go-gitignore"
)

// Policy decides whether a path is excluded from the scan. It is a pure
// function of its configuration: glob patterns matched against the basename
// and the full path, plus an optional gitignore-style rule file.
type Policy struct {
	patterns []string
	matcher  gitignore.IgnoreMatcher
}

// NewPolicy builds a Policy from glob patterns and an optional ignore file
// path (empty means none). Invalid glob patterns and an unreadable ignore
// file are reported as errors.
func NewPolicy(patterns []string, ignoreFile string) (*Policy, error) {
	for _, pattern := range patterns {
		if _, err := filepath.Match(pattern, "probe"); err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
	}

	policy := &Policy{patterns: patterns}

	if ignoreFile != "" {
		matcher, err := gitignore.NewGitIgnore(ignoreFile)
		if err != nil {
			return nil, fmt.Errorf("cannot read ignore file %q: %w", ignoreFile, err)
		}
		policy.matcher = matcher
	}

	return policy, nil
}

// IsExcluded reports whether path is excluded by the configured rules.
// isDir tells gitignore-style rules whether directory-only patterns apply.
func (p *Policy) IsExcluded(path string, isDir bool) bool {
	base := filepath.Base(path)
	for _, pattern := range p.patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, path); matched {
			return true
		}
	}

	if p.matcher != nil && p.matcher.Match(path, isDir) {
		return true
	}

	return false
}

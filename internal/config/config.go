// Package config defines the tagscan run configuration and its YAML loader.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Lister strategy names accepted by Config.Lister.
const (
	// ListerReadDir enumerates directory children with native directory
	// iteration.
	ListerReadDir = "readdir"
	// ListerGlob enumerates directory children by expanding a trailing "*"
	// wildcard pattern. Fallback for filesystems without native iteration.
	ListerGlob = "glob"
)

// Config represents tagscan configuration options.
// Values merge in the order defaults < config file < command-line flags.
type Config struct {
	// Recurse enables descending into directories.
	Recurse bool `yaml:"recurse"`

	// MaxRecursionDepth limits how many directory levels are descended
	// below an enumeration root.
	MaxRecursionDepth int `yaml:"max_recursion_depth"`

	// FollowLinks enables resolving symbolic links instead of skipping them.
	FollowLinks bool `yaml:"follow_links"`

	// Exclude lists glob patterns; a matching basename or full path is
	// skipped.
	Exclude []string `yaml:"exclude"`

	// IgnoreFile optionally names a gitignore-style file whose rules extend
	// the exclusion patterns.
	IgnoreFile string `yaml:"ignore_file"`

	// TagFileName is the output artifact path. "-" or "/dev/stdout" select
	// standard output.
	TagFileName string `yaml:"tag_file"`

	// Append adds tags to an existing artifact instead of replacing it.
	Append bool `yaml:"append"`

	// Sorted enables the sorted rewrite pass when the artifact is closed.
	Sorted bool `yaml:"sorted"`

	// PrintTotals reports scan statistics at the end of a batch.
	PrintTotals bool `yaml:"print_totals"`

	// Verbose enables progress notices on the error stream.
	Verbose bool `yaml:"verbose"`

	// Lister selects the directory enumeration strategy (readdir or glob).
	Lister string `yaml:"lister"`

	// FilesRequired makes a batch with no input sources a fatal error
	// instead of a silent no-op.
	FilesRequired bool `yaml:"files_required"`

	// FilterTerminator, when non-empty, is written to standard output after
	// each entry processed in filter mode.
	FilterTerminator string `yaml:"filter_terminator"`

	// The following are mode switches, settable per invocation only.

	// FileList names a file holding newline-delimited inputs ("-" = stdin).
	FileList string `yaml:"-"`

	// Filter treats standard input as the list of inputs.
	Filter bool `yaml:"-"`

	// PrintLanguage probes inputs for a recognized language instead of
	// generating tags.
	PrintLanguage bool `yaml:"-"`

	// Interactive runs the line-delimited JSON request loop.
	Interactive bool `yaml:"-"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Recurse:           false,
		MaxRecursionDepth: 0xffff,
		FollowLinks:       false,
		TagFileName:       "tags",
		Append:            false,
		Sorted:            true,
		PrintTotals:       false,
		Verbose:           false,
		Lister:            ListerReadDir,
		FilesRequired:     true,
	}
}

// LoadConfig loads configuration from the specified file path.
// If the file doesn't exist, returns default configuration without error.
// If the file exists but is malformed, returns an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks configuration values for consistency.
func (c *Config) Validate() error {
	if c.MaxRecursionDepth < 0 {
		return fmt.Errorf("max_recursion_depth must be non-negative, got %d", c.MaxRecursionDepth)
	}
	if c.Lister != ListerReadDir && c.Lister != ListerGlob {
		return fmt.Errorf("unknown lister strategy %q", c.Lister)
	}
	if c.TagFileName == "" {
		return fmt.Errorf("tag_file must not be empty")
	}
	return nil
}

// OutputToStdout reports whether the artifact is destined for standard
// output. Filter and interactive modes always write there, as does a tag
// file named "-" or "/dev/stdout".
func (c *Config) OutputToStdout() bool {
	return c.Filter || c.Interactive ||
		c.TagFileName == "-" || c.TagFileName == "/dev/stdout"
}

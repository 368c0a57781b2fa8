package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Recurse)
	assert.Equal(t, 0xffff, cfg.MaxRecursionDepth)
	assert.False(t, cfg.FollowLinks)
	assert.Equal(t, "tags", cfg.TagFileName)
	assert.True(t, cfg.Sorted)
	assert.Equal(t, ListerReadDir, cfg.Lister)
	assert.True(t, cfg.FilesRequired)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "no-such.yaml"))

	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
recurse: true
max_recursion_depth: 3
follow_links: true
exclude:
  - "*.min.js"
  - "vendor"
tag_file: TAGS
sorted: false
lister: glob
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.True(t, cfg.Recurse)
	assert.Equal(t, 3, cfg.MaxRecursionDepth)
	assert.True(t, cfg.FollowLinks)
	assert.Equal(t, []string{"*.min.js", "vendor"}, cfg.Exclude)
	assert.Equal(t, "TAGS", cfg.TagFileName)
	assert.False(t, cfg.Sorted)
	assert.Equal(t, ListerGlob, cfg.Lister)
}

func TestLoadConfigMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("recurse: [not a bool"), 0644))

	_, err := LoadConfig(path)

	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "negative recursion depth",
			mutate:  func(c *Config) { c.MaxRecursionDepth = -1 },
			wantErr: true,
		},
		{
			name:    "unknown lister",
			mutate:  func(c *Config) { c.Lister = "findfirst" },
			wantErr: true,
		},
		{
			name:    "empty tag file",
			mutate:  func(c *Config) { c.TagFileName = "" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOutputToStdout(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   bool
	}{
		{name: "default tag file", mutate: func(*Config) {}, want: false},
		{name: "filter mode", mutate: func(c *Config) { c.Filter = true }, want: true},
		{name: "interactive mode", mutate: func(c *Config) { c.Interactive = true }, want: true},
		{name: "dash tag file", mutate: func(c *Config) { c.TagFileName = "-" }, want: true},
		{name: "dev stdout", mutate: func(c *Config) { c.TagFileName = "/dev/stdout" }, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Equal(t, tt.want, cfg.OutputToStdout())
		})
	}
}

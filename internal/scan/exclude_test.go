package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyBasenamePatterns(t *testing.T) {
	policy, err := NewPolicy([]string{"*.min.js", "vendor"}, "")
	require.NoError(t, err)

	tests := []struct {
		path  string
		isDir bool
		want  bool
	}{
		{path: "app.min.js", want: true},
		{path: "src/app.min.js", want: true},
		{path: "app.js", want: false},
		{path: "vendor", isDir: true, want: true},
		{path: "third_party/vendor", isDir: true, want: true},
		{path: "vendored", isDir: true, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.IsExcluded(tt.path, tt.isDir))
		})
	}
}

func TestPolicyFullPathPatterns(t *testing.T) {
	policy, err := NewPolicy([]string{"build/*"}, "")
	require.NoError(t, err)

	assert.True(t, policy.IsExcluded("build/out.o", false))
	assert.False(t, policy.IsExcluded("src/out.o", false))
}

func TestPolicyInvalidPattern(t *testing.T) {
	_, err := NewPolicy([]string{"[unclosed"}, "")

	assert.Error(t, err)
}

func TestPolicyIgnoreFile(t *testing.T) {
	dir := t.TempDir()
	ignorePath := filepath.Join(dir, ".gitignore")
	require.NoError(t, os.WriteFile(ignorePath, []byte("*.log\nobj/\n"), 0644))

	policy, err := NewPolicy(nil, ignorePath)
	require.NoError(t, err)

	assert.True(t, policy.IsExcluded(filepath.Join(dir, "debug.log"), false))
	assert.True(t, policy.IsExcluded(filepath.Join(dir, "obj"), true))
	assert.False(t, policy.IsExcluded(filepath.Join(dir, "main.c"), false))
}

func TestPolicyMissingIgnoreFile(t *testing.T) {
	_, err := NewPolicy(nil, filepath.Join(t.TempDir(), "no-such-ignore"))

	assert.Error(t, err)
}

func TestPolicyNoRules(t *testing.T) {
	policy, err := NewPolicy(nil, "")
	require.NoError(t, err)

	assert.False(t, policy.IsExcluded("anything", false))
}

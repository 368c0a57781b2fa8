package scan

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calder/tagscan/internal/diag"
)

// fakeSink records dispatched files and answers with configured resize
// signals.
type fakeSink struct {
	tagged []string
	resize map[string]bool
	err    error
}

func (s *fakeSink) TagFile(path string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	s.tagged = append(s.tagged, path)
	if s.resize == nil {
		return false, nil
	}
	return s.resize[filepath.Base(path)], nil
}

func newTestWalker(t *testing.T, sink Sink, out *bytes.Buffer) *Walker {
	t.Helper()
	policy, err := NewPolicy(nil, "")
	require.NoError(t, err)
	return &Walker{
		Policy:      policy,
		Lister:      readDirLister{},
		Report:      diag.NewReporter(out, "tagscan", true),
		Sink:        sink,
		Recurse:     true,
		MaxDepth:    0xffff,
		FollowLinks: false,
	}
}

// writeTree creates the given relative files under root.
func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("x\n"), 0644))
	}
}

func TestExpandDispatchesRegularFiles(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, "a.c", "sub/b.c", "sub/deep/c.c")

	sink := &fakeSink{}
	w := newTestWalker(t, sink, &bytes.Buffer{})

	w.Expand(dir)

	var names []string
	for _, p := range sink.tagged {
		names = append(names, filepath.Base(p))
	}
	sort.Strings(names)
	assert.Equal(t, []string{"a.c", "b.c", "c.c"}, names)
}

func TestExpandRespectsMaxDepth(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, "top.c", "l1/one.c", "l1/l2/two.c", "l1/l2/l3/three.c")

	sink := &fakeSink{}
	var out bytes.Buffer
	w := newTestWalker(t, sink, &out)
	w.MaxDepth = 2

	w.Expand(dir)

	var names []string
	for _, p := range sink.tagged {
		names = append(names, filepath.Base(p))
	}
	sort.Strings(names)
	// dir itself is depth 1, l1 depth 2, l2 would be depth 3.
	assert.Equal(t, []string{"one.c", "top.c"}, names)
	assert.Contains(t, out.String(), "not descending")
}

func TestExpandExcludedNeverDispatched(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, "keep.c", "skip.log", "node_modules/dep.c")

	policy, err := NewPolicy([]string{"*.log", "node_modules"}, "")
	require.NoError(t, err)

	sink := &fakeSink{}
	w := newTestWalker(t, sink, &bytes.Buffer{})
	w.Policy = policy

	w.Expand(dir)

	require.Len(t, sink.tagged, 1)
	assert.Equal(t, "keep.c", filepath.Base(sink.tagged[0]))
}

func TestExpandSkipsSymlinksByDefault(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, "real.c")
	require.NoError(t, os.Symlink(
		filepath.Join(dir, "real.c"), filepath.Join(dir, "link.c")))

	sink := &fakeSink{}
	var out bytes.Buffer
	w := newTestWalker(t, sink, &out)

	w.Expand(dir)

	require.Len(t, sink.tagged, 1)
	assert.Equal(t, "real.c", filepath.Base(sink.tagged[0]))
	assert.Contains(t, out.String(), "symbolic link")
}

func TestExpandFollowsLinksWhenEnabled(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, "real.c")
	require.NoError(t, os.Symlink(
		filepath.Join(dir, "real.c"), filepath.Join(dir, "link.c")))

	sink := &fakeSink{}
	w := newTestWalker(t, sink, &bytes.Buffer{})
	w.FollowLinks = true

	w.Expand(dir)

	assert.Len(t, sink.tagged, 2)
}

func TestExpandSelfReferentialSymlinkTerminates(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, "a.c")
	require.NoError(t, os.Symlink(dir, filepath.Join(dir, "loop")))

	sink := &fakeSink{}
	var out bytes.Buffer
	w := newTestWalker(t, sink, &out)
	w.FollowLinks = true

	w.Expand(dir)

	require.Len(t, sink.tagged, 1)
	assert.Contains(t, out.String(), "recursive link")
}

func TestExpandMissingPathWarns(t *testing.T) {
	sink := &fakeSink{}
	var out bytes.Buffer
	w := newTestWalker(t, sink, &out)

	resize := w.Expand(filepath.Join(t.TempDir(), "nope.c"))

	assert.False(t, resize)
	assert.Empty(t, sink.tagged)
	assert.Contains(t, out.String(), "cannot open input file")
}

func TestExpandRecursionDisabled(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, "a.c")

	sink := &fakeSink{}
	var out bytes.Buffer
	w := newTestWalker(t, sink, &out)
	w.Recurse = false

	w.Expand(dir)

	assert.Empty(t, sink.tagged)
	assert.Contains(t, out.String(), "(directory)")
}

func TestExpandAggregatesResizeWithOr(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, "a.c", "b.c", "sub/c.c")

	sink := &fakeSink{resize: map[string]bool{"c.c": true}}
	w := newTestWalker(t, sink, &bytes.Buffer{})

	assert.True(t, w.Expand(dir), "one resizing child must propagate to the root")

	sink2 := &fakeSink{}
	w2 := newTestWalker(t, sink2, &bytes.Buffer{})
	assert.False(t, w2.Expand(dir))
}

func TestExpandDepthResetsBetweenRoots(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, "l1/l2/a.c")

	sink := &fakeSink{}
	w := newTestWalker(t, sink, &bytes.Buffer{})
	w.MaxDepth = 3

	w.Expand(dir)
	first := len(sink.tagged)
	w.Expand(dir)

	assert.Equal(t, first*2, len(sink.tagged),
		"second expansion must start from depth zero again")
}

func TestGlobListerSkipsDotfiles(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, "visible.c", ".hidden.c")

	names, err := globLister{}.List(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"visible.c"}, names)
}

func TestReadDirListerSeesDotfiles(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, "visible.c", ".hidden.c")

	names, err := readDirLister{}.List(dir)
	require.NoError(t, err)

	sort.Strings(names)
	assert.Equal(t, []string{".hidden.c", "visible.c"}, names)
}

func TestNewListerUnknownStrategy(t *testing.T) {
	_, err := NewLister("findfirst")
	assert.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "findfirst"))
}

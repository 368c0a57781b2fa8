// Package engine holds the per-file tag extraction primitive. The Engine
// interface is the boundary the enumeration core dispatches into; the
// built-in implementation tags markdown headings and treats every other
// input as plain content that contributes to scan totals only.
package engine

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/calder/tagscan/internal/tagfile"
)

// Engine generates tags for a single input, from disk or from an in-memory
// buffer. The returned bool signals that the output artifact may need a
// rewrite pass because new tag data was produced.
type Engine interface {
	TagFile(path string) (bool, error)
	TagBuffer(filename string, data []byte) (bool, error)
}

// TotalsSink accumulates per-file scan statistics.
type TotalsSink interface {
	Add(files, lines, bytes uint64)
}

// LanguageFor maps a filename to the language the built-in engine can tag.
// The second return value is false when the language is not recognized.
func LanguageFor(filename string) (string, bool) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".md", ".markdown", ".mkd", ".mdown":
		return "Markdown", true
	default:
		return "", false
	}
}

// Tagger is the built-in Engine. Tags are written through a tagfile.Writer
// and totals are reported to an optional TotalsSink.
type Tagger struct {
	writer *tagfile.Writer
	totals TotalsSink
}

// NewTagger creates a Tagger writing tags through writer. totals may be nil.
func NewTagger(writer *tagfile.Writer, totals TotalsSink) *Tagger {
	return &Tagger{writer: writer, totals: totals}
}

// TagFile reads path from disk and tags its content.
func (t *Tagger) TagFile(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	return t.tag(path, data)
}

// TagBuffer tags in-memory content attributed to filename. The disk is
// never touched; callers use this to tag content that only exists in a
// caller-side buffer.
func (t *Tagger) TagBuffer(filename string, data []byte) (bool, error) {
	return t.tag(filename, data)
}

func (t *Tagger) tag(filename string, data []byte) (bool, error) {
	if t.totals != nil {
		t.totals.Add(1, countLines(data), uint64(len(data)))
	}

	language, ok := LanguageFor(filename)
	if !ok {
		return false, nil
	}

	var entries []tagfile.Entry
	switch language {
	case "Markdown":
		entries = markdownTags(filename, data)
	}

	for _, entry := range entries {
		if err := t.writer.Add(entry); err != nil {
			return false, fmt.Errorf("cannot record tag for %s: %w", filename, err)
		}
	}
	return len(entries) > 0, nil
}

// countLines counts content lines, treating a trailing fragment without a
// newline as a line of its own.
func countLines(data []byte) uint64 {
	if len(data) == 0 {
		return 0
	}
	n := uint64(bytes.Count(data, []byte("\n")))
	if data[len(data)-1] != '\n' {
		n++
	}
	return n
}

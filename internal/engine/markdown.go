package engine

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/calder/tagscan/internal/tagfile"
)

// markdown is the shared goldmark instance. Parsing is read-only and the
// core is single-threaded, so one instance serves every file.
var markdown = goldmark.New()

// markdownTags extracts one tag per heading, with the heading depth encoded
// in the kind (chapter, section, subsection, and so on).
func markdownTags(filename string, source []byte) []tagfile.Entry {
	doc := markdown.Parser().Parse(text.NewReader(source))

	var entries []tagfile.Entry
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}

		name := headingText(heading, source)
		if name == "" {
			return ast.WalkContinue, nil
		}

		entries = append(entries, tagfile.Entry{
			Name: name,
			File: filename,
			Line: headingLine(heading, source),
			Kind: headingKind(heading.Level),
		})
		return ast.WalkContinue, nil
	})
	return entries
}

// headingText collects the literal text of a heading's children.
func headingText(heading *ast.Heading, source []byte) string {
	var b strings.Builder
	for c := heading.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			b.Write(t.Segment.Value(source))
		}
	}
	return strings.TrimSpace(b.String())
}

// headingLine computes the 1-based source line a heading starts on.
func headingLine(heading *ast.Heading, source []byte) int {
	lines := heading.Lines()
	if lines.Len() == 0 {
		return 1
	}
	offset := lines.At(0).Start
	return bytes.Count(source[:offset], []byte("\n")) + 1
}

func headingKind(level int) string {
	switch level {
	case 1:
		return "chapter"
	case 2:
		return "section"
	case 3:
		return "subsection"
	default:
		return "subsubsection"
	}
}

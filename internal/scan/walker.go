package scan

import (
	"path/filepath"

	"github.com/calder/tagscan/internal/diag"
)

// Sink receives every resolved regular file. The returned bool signals that
// the output artifact may need a rewrite pass; errors are recoverable and
// reported as warnings by the Walker.
type Sink interface {
	TagFile(path string) (bool, error)
}

// Walker expands inputs into regular files and dispatches them to a Sink.
// Directories are recursed subject to the exclusion policy, the symlink
// policy and a maximum-depth guard. Policy knobs are exported so they can be
// adjusted between entries of one batch; a Walker serves a single logical
// thread of control.
type Walker struct {
	Policy *Policy
	Lister DirLister
	Report *diag.Reporter
	Sink   Sink

	// Recurse enables descending into directories at all.
	Recurse bool
	// MaxDepth is the deepest directory level descended below a root.
	MaxDepth int
	// FollowLinks resolves symbolic links instead of skipping them.
	FollowLinks bool

	// depth is the current recursion depth of one top-level expansion.
	// Incremented before descending, decremented on exit.
	depth int
}

// Expand resolves one input path. Regular files go to the Sink; directories
// recurse; everything else is skipped with a notice or warning. The return
// value is the logical OR of the resize signals of every dispatched file.
func (w *Walker) Expand(path string) bool {
	entry := Classify(path)

	switch {
	case w.Policy != nil && w.Policy.IsExcluded(path, entry.Kind == KindDirectory):
		w.Report.Verbosef("excluding %q", path)
	case entry.IsSymlink && !w.FollowLinks:
		w.Report.Verbosef("ignoring %q (symbolic link)", path)
	case !entry.Exists:
		w.Report.Warningf("cannot open input file %q", path)
	case entry.Kind == KindDirectory:
		return w.descend(path)
	case entry.Kind != KindFile:
		w.Report.Verbosef("ignoring %q (special file)", path)
	default:
		resize, err := w.Sink.TagFile(path)
		if err != nil {
			w.Report.WarningErrf(err, "cannot open input file %q", path)
			return false
		}
		return resize
	}

	return false
}

// descend recurses into a directory. The depth counter is restored on exit
// no matter how the expansion of the subtree terminates.
func (w *Walker) descend(dir string) bool {
	w.depth++
	defer func() { w.depth-- }()

	switch {
	case isRecursiveLink(dir):
		w.Report.Verbosef("ignoring %q (recursive link)", dir)
	case !w.Recurse:
		w.Report.Verbosef("ignoring %q (directory)", dir)
	case w.depth > w.MaxDepth:
		w.Report.Verbosef("not descending in directory %q (depth %d > %d)",
			dir, w.depth, w.MaxDepth)
	default:
		w.Report.Verbosef("RECURSING into directory %q", dir)
		return w.expandChildren(dir)
	}

	return false
}

func (w *Walker) expandChildren(dir string) bool {
	names, err := w.Lister.List(dir)
	if err != nil {
		w.Report.WarningErrf(err, "cannot recurse into directory %q", dir)
		return false
	}

	resize := false
	for _, name := range names {
		if name == "." || name == ".." {
			continue
		}
		child := name
		if dir != "." {
			child = filepath.Join(dir, name)
		}
		resize = w.Expand(child) || resize
	}
	return resize
}

// Package run sequences one tag-generation batch across its input sources:
// positional arguments, a list file, the filter stream, and the implicit
// recursive scan of the working directory. The batch is bracketed by a
// single artifact open/close pair and collects timing and scan statistics.
package run

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/calder/tagscan/internal/config"
	"github.com/calder/tagscan/internal/diag"
	"github.com/calder/tagscan/internal/scan"
)

// ErrNoInput is returned when no input source is configured and the
// files-required policy is in effect.
var ErrNoInput = errors.New("no files specified")

// Artifact is the output tag file collaborator. It tolerates repeated
// open/close cycles but never two concurrent opens.
type Artifact interface {
	Open() error
	Close(resize bool) error
	Added() uint64
	Total() uint64
}

// Orchestrator drives one batch. All fields must be populated before
// RunBatch is called; the zero Totals value is reset per batch.
type Orchestrator struct {
	Config   *config.Config
	Report   *diag.Reporter
	Walker   *scan.Walker
	Artifact Artifact
	Options  OptionApplier // nil disables inline option re-parsing

	Stdin  io.Reader // filter and "-" list-file source
	Stdout io.Writer // filter terminator destination

	// Clock supplies timestamps for the totals report. nil means no clock
	// source is available and elapsed times are omitted.
	Clock func() time.Time

	// Totals is the per-batch statistics accumulator; engines report into
	// it via the engine.TotalsSink interface.
	Totals Totals

	stamps [3]time.Time
}

// RunBatch executes one full batch over every configured input source.
// Per-entry failures are recoverable warnings; a missing list file and a
// no-input-but-required condition abort the batch with an error.
func (o *Orchestrator) RunBatch(args []string) error {
	cfg := o.Config
	o.Totals = Totals{}

	files := len(args) > 0 || cfg.FileList != "" || cfg.Filter
	if !files {
		if cfg.FilesRequired {
			return ErrNoInput
		}
		if !cfg.Recurse {
			return nil
		}
	}

	// Filter mode streams tags to standard output but still brackets the
	// batch with the artifact protocol; only the language probe runs
	// without an artifact.
	withArtifact := !cfg.PrintLanguage
	if withArtifact {
		if err := o.Artifact.Open(); err != nil {
			return err
		}
	}

	o.stamp(0)

	resize := false
	if len(args) > 0 {
		o.Report.Verbosef("Reading command line arguments")
		resize = o.tagArgs(args) || resize
	}
	if cfg.FileList != "" {
		o.Report.Verbosef("Reading list file")
		listResize, err := o.tagListFile(cfg.FileList)
		if err != nil {
			if withArtifact {
				if cerr := o.Artifact.Close(false); cerr != nil {
					o.Report.WarningErrf(cerr, "releasing tag file after failed batch")
				}
			}
			return err
		}
		resize = listResize || resize
	}
	if cfg.Filter {
		o.Report.Verbosef("Reading filter input")
		resize = o.tagLineStream(o.Stdin, true) || resize
	}
	if !files && cfg.Recurse {
		resize = o.Walker.Expand(".") || resize
	}

	o.stamp(1)

	if withArtifact {
		if err := o.Artifact.Close(resize); err != nil {
			return err
		}
	}

	o.stamp(2)

	if cfg.PrintTotals {
		o.printTotals()
	}
	return nil
}

// stamp records timestamp n when totals reporting wants one and a clock
// source exists.
func (o *Orchestrator) stamp(n int) {
	if o.Config.PrintTotals && o.Clock != nil {
		o.stamps[n] = o.Clock()
	}
}

// tagArgs expands each positional argument, offering every entry to the
// option applier first so arguments can be interleaved with overrides.
func (o *Orchestrator) tagArgs(args []string) bool {
	resize := false
	for _, arg := range args {
		if o.applyOption(arg) {
			continue
		}
		resize = o.Walker.Expand(arg) || resize
	}
	return resize
}

// tagListFile reads newline-delimited entries from a named list file.
// The sentinel "-" selects standard input. A missing list file is fatal
// to the batch.
func (o *Orchestrator) tagListFile(name string) (bool, error) {
	if name == "-" {
		return o.tagLineStream(o.Stdin, false), nil
	}
	file, err := os.Open(name)
	if err != nil {
		return false, fmt.Errorf("cannot open list file %q: %w", name, err)
	}
	defer file.Close()
	return o.tagLineStream(file, false), nil
}

// tagLineStream expands one entry per line. In filter mode the configured
// terminator is written and flushed after every processed entry so a
// streaming caller can detect per-file completion boundaries.
func (o *Orchestrator) tagLineStream(r io.Reader, filter bool) bool {
	if r == nil {
		return false
	}

	resize := false
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		entry := strings.TrimRight(scanner.Text(), "\r")
		if entry == "" {
			continue
		}
		if o.applyOption(entry) {
			continue
		}
		resize = o.Walker.Expand(entry) || resize
		if filter {
			// The tags for this entry must reach the consumer before
			// its terminator does.
			flush(o.Artifact)
			if o.Config.FilterTerminator != "" && o.Stdout != nil {
				fmt.Fprint(o.Stdout, o.Config.FilterTerminator)
			}
			flush(o.Stdout)
		}
	}
	if err := scanner.Err(); err != nil {
		o.Report.WarningErrf(err, "error reading input list")
	}
	return resize
}

// applyOption offers an entry to the option applier. A recognized option
// with a bad value is consumed with a warning; the batch continues.
func (o *Orchestrator) applyOption(arg string) bool {
	if o.Options == nil {
		return false
	}
	consumed, err := o.Options.Apply(arg)
	if err != nil {
		o.Report.WarningErrf(err, "ignoring inline option %q", arg)
		return true
	}
	return consumed
}

// flush pushes buffered output through, when the value is buffered.
func flush(v interface{}) {
	type flusher interface{ Flush() error }
	if f, ok := v.(flusher); ok {
		_ = f.Flush()
	}
}

// printTotals reports batch statistics through the diagnostic channel:
// file, line and byte totals with throughput when a clock source exists,
// tags added (and the running total when appending), and the sort duration
// for a sorted, non-empty artifact.
func (o *Orchestrator) printTotals() {
	var line strings.Builder

	fmt.Fprintf(&line, "%d file%s, %d line%s (%d kB) scanned",
		o.Totals.Files, plural(o.Totals.Files),
		o.Totals.Lines, plural(o.Totals.Lines),
		o.Totals.Bytes/1024)
	if o.Clock != nil {
		interval := o.stamps[1].Sub(o.stamps[0]).Seconds()
		fmt.Fprintf(&line, " in %.01f seconds", interval)
		if interval > 0 {
			fmt.Fprintf(&line, " (%d kB/s)",
				uint64(float64(o.Totals.Bytes)/interval)/1024)
		}
	}
	o.Report.Infof("%s", line.String())

	var added, total uint64
	if o.Artifact != nil {
		added = o.Artifact.Added()
		total = o.Artifact.Total()
	}
	line.Reset()
	fmt.Fprintf(&line, "%d tag%s added to tag file", added, plural(added))
	if o.Config.Append {
		fmt.Fprintf(&line, " (now %d tag%s)", total, plural(total))
	}
	o.Report.Infof("%s", line.String())

	if total > 0 && o.Config.Sorted {
		line.Reset()
		fmt.Fprintf(&line, "%d tag%s sorted", total, plural(total))
		if o.Clock != nil {
			fmt.Fprintf(&line, " in %.02f seconds",
				o.stamps[2].Sub(o.stamps[1]).Seconds())
		}
		o.Report.Infof("%s", line.String())
	}
}

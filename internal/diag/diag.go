// Package diag provides the centralized diagnostic channel for tagscan.
//
// All user-facing notices flow through a Reporter, categorized by severity.
// Informational and verbose notices describe skipped or ignored inputs,
// warnings report recoverable per-entry failures, and fatal diagnostics
// terminate the process with a non-zero exit code. Reporters are thread-safe
// and color their output when writing to a terminal.
package diag

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Severity identifies the class of a diagnostic message.
type Severity int

const (
	// SeverityVerbose marks progress notices shown only in verbose mode.
	SeverityVerbose Severity = iota
	// SeverityInfo marks ordinary informational messages.
	SeverityInfo
	// SeverityWarning marks recoverable errors; the run continues.
	SeverityWarning
	// SeverityFatal marks unrecoverable errors; the process terminates.
	SeverityFatal
)

// Reporter writes severity-tagged diagnostics to a single output stream.
// A nil writer silently discards all messages.
type Reporter struct {
	writer      io.Writer
	program     string
	verbose     bool
	mutex       sync.Mutex
	colorOutput bool

	// exit is called after a fatal diagnostic has been written.
	// Replaceable in tests; defaults to os.Exit.
	exit func(code int)
}

// NewReporter creates a Reporter writing to the provided writer.
// program is the executable name used to prefix warnings and fatal errors.
// Color output is enabled automatically when the writer is a terminal.
func NewReporter(writer io.Writer, program string, verbose bool) *Reporter {
	return &Reporter{
		writer:      writer,
		program:     program,
		verbose:     verbose,
		colorOutput: isTerminal(writer),
		exit:        os.Exit,
	}
}

// isTerminal reports whether the writer is a TTY that supports colors.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// SetVerbose switches verbose notices on or off.
func (r *Reporter) SetVerbose(enabled bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.verbose = enabled
}

// SetExitFunc replaces the process-termination hook used by Fatalf.
// Intended for tests that need to observe fatal diagnostics.
func (r *Reporter) SetExitFunc(exit func(code int)) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.exit = exit
}

// Verbosef writes a progress notice. Suppressed unless verbose mode is on.
func (r *Reporter) Verbosef(format string, args ...interface{}) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.writer == nil || !r.verbose {
		return
	}
	fmt.Fprintf(r.writer, format+"\n", args...)
}

// Infof writes an informational message.
func (r *Reporter) Infof(format string, args ...interface{}) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.writer == nil {
		return
	}
	fmt.Fprintf(r.writer, format+"\n", args...)
}

// Warningf writes a recoverable-error diagnostic. The run continues.
func (r *Reporter) Warningf(format string, args ...interface{}) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.writer == nil {
		return
	}
	prefix := fmt.Sprintf("%s: Warning: ", r.program)
	if r.colorOutput {
		prefix = color.YellowString(prefix)
	}
	fmt.Fprintf(r.writer, prefix+format+"\n", args...)
}

// WarningErrf writes a recoverable-error diagnostic carrying an underlying
// cause, appended in the "message: cause" form.
func (r *Reporter) WarningErrf(err error, format string, args ...interface{}) {
	if err == nil {
		r.Warningf(format, args...)
		return
	}
	args = append(args, err)
	r.Warningf(format+": %v", args...)
}

// Fatalf writes an unrecoverable diagnostic and terminates the process with
// exit code 1. It does not return.
func (r *Reporter) Fatalf(format string, args ...interface{}) {
	r.mutex.Lock()
	exit := r.exit
	if r.writer != nil {
		prefix := fmt.Sprintf("%s: ", r.program)
		if r.colorOutput {
			prefix = color.RedString(prefix)
		}
		fmt.Fprintf(r.writer, prefix+format+"\n", args...)
	}
	r.mutex.Unlock()
	exit(1)
}

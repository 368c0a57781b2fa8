// Package tagfile manages the tag output artifact: a flat, line-oriented
// tag file with a strict open/operate/close protocol. The file is guarded
// by a sidecar lock so two operations never hold it open concurrently, and
// the sorted rewrite pass replaces it atomically via a temp file rename.
package tagfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// pseudoTagPrefix marks header lines that describe the file itself rather
// than carrying a tag.
const pseudoTagPrefix = "!_TAG_"

// Entry is one tag line: a symbol name, the file it was found in, the line
// it lives on, and a one-word kind.
type Entry struct {
	Name string
	File string
	Line int
	Kind string
}

// format renders the entry in the canonical tab-separated form.
func (e Entry) format() string {
	return fmt.Sprintf("%s\t%s\t%d;\"\t%s", e.Name, e.File, e.Line, e.Kind)
}

// Options configures a Writer.
type Options struct {
	// Append keeps existing tags and adds to them.
	Append bool
	// Sorted enables the sorted rewrite pass on Close.
	Sorted bool
	// Program and Version populate the pseudo-tag header.
	Program string
	Version string
}

// Writer owns the tag artifact. It may be opened and closed many times over
// a process lifetime (once per batch, or once per interactive request) but
// never concurrently: Open fails when the artifact is already open.
type Writer struct {
	path string
	opts Options

	stdout io.Writer // non-nil when the artifact is standard output

	lock  *flock.Flock
	file  *os.File
	buf   *bufio.Writer
	open  bool
	added uint64
	total uint64
}

// NewWriter creates a Writer for the artifact at path.
func NewWriter(path string, opts Options) *Writer {
	return &Writer{path: path, opts: opts}
}

// NewStreamWriter creates a Writer that emits tags to the given stream,
// bypassing locking and the rewrite pass. Used when the destination is
// standard output.
func NewStreamWriter(out io.Writer, opts Options) *Writer {
	return &Writer{stdout: out, opts: opts}
}

// Open prepares the artifact for a batch or request. It acquires the
// sidecar lock, opens the file (truncating unless appending), counts any
// surviving tags, and writes the pseudo-tag header on a fresh file.
func (w *Writer) Open() error {
	if w.open {
		return fmt.Errorf("tag file already open")
	}

	w.added = 0

	if w.stdout != nil {
		w.buf = bufio.NewWriter(w.stdout)
		w.open = true
		return nil
	}

	w.lock = flock.New(w.path + ".lock")
	if err := w.lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock tag file %s: %w", w.path, err)
	}

	w.total = 0
	if w.opts.Append {
		existing, err := countTags(w.path)
		if err != nil {
			w.unlock()
			return err
		}
		w.total = existing
	}

	mode := os.O_CREATE | os.O_WRONLY
	if w.opts.Append {
		mode |= os.O_APPEND
	} else {
		mode |= os.O_TRUNC
	}
	file, err := os.OpenFile(w.path, mode, 0644)
	if err != nil {
		w.unlock()
		return fmt.Errorf("cannot open tag file %s: %w", w.path, err)
	}

	w.file = file
	w.buf = bufio.NewWriter(file)
	w.open = true

	if !w.opts.Append {
		w.writeHeader()
	}
	return nil
}

func (w *Writer) writeHeader() {
	sorted := 0
	if w.opts.Sorted {
		sorted = 1
	}
	fmt.Fprintf(w.buf, "%sFILE_FORMAT\t2\t/extended format/\n", pseudoTagPrefix)
	fmt.Fprintf(w.buf, "%sFILE_SORTED\t%d\t/0=unsorted, 1=sorted/\n", pseudoTagPrefix, sorted)
	fmt.Fprintf(w.buf, "%sPROGRAM_NAME\t%s\t//\n", pseudoTagPrefix, w.opts.Program)
	fmt.Fprintf(w.buf, "%sPROGRAM_VERSION\t%s\t//\n", pseudoTagPrefix, w.opts.Version)
}

// Add writes one tag entry. The artifact must be open.
func (w *Writer) Add(entry Entry) error {
	if !w.open {
		return fmt.Errorf("tag file not open")
	}
	if _, err := fmt.Fprintln(w.buf, entry.format()); err != nil {
		return fmt.Errorf("cannot write tag: %w", err)
	}
	w.added++
	w.total++
	return nil
}

// Flush pushes buffered tags through to the destination without closing
// the artifact. The filter stream flushes after every entry so the tags
// for an entry reach the consumer before its terminator.
func (w *Writer) Flush() error {
	if !w.open {
		return nil
	}
	return w.buf.Flush()
}

// Added returns the number of tags written since the artifact was opened.
func (w *Writer) Added() uint64 { return w.added }

// Total returns the number of tags in the artifact, including any that
// survived from a previous run in append mode.
func (w *Writer) Total() uint64 { return w.total }

// Close flushes and releases the artifact. When resize is set and the
// writer is sorted, the on-disk file is rewritten in sorted order through
// an atomic temp-file rename.
func (w *Writer) Close(resize bool) error {
	if !w.open {
		return fmt.Errorf("tag file not open")
	}
	w.open = false

	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("cannot flush tag file: %w", err)
	}

	if w.stdout != nil {
		return nil
	}

	defer w.unlock()

	if err := w.file.Close(); err != nil {
		return fmt.Errorf("cannot close tag file: %w", err)
	}
	w.file = nil

	if resize && w.opts.Sorted && w.total > 0 {
		if err := w.sortRewrite(); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) unlock() {
	if w.lock != nil {
		_ = w.lock.Unlock()
		w.lock = nil
	}
}

// sortRewrite reads the artifact back, sorts the tag lines (header lines
// stay on top), and replaces the file atomically.
func (w *Writer) sortRewrite() error {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return fmt.Errorf("cannot reread tag file for sorting: %w", err)
	}

	var header, tags []string
	for _, line := range strings.Split(string(data), "\n") {
		switch {
		case line == "":
		case strings.HasPrefix(line, pseudoTagPrefix):
			header = append(header, line)
		default:
			tags = append(tags, line)
		}
	}
	sort.Strings(tags)

	tmp := filepath.Join(filepath.Dir(w.path),
		fmt.Sprintf("%s.%s.tmp", filepath.Base(w.path), uuid.New().String()))

	var out strings.Builder
	for _, line := range header {
		out.WriteString(line)
		out.WriteByte('\n')
	}
	for _, line := range tags {
		out.WriteString(line)
		out.WriteByte('\n')
	}

	if err := os.WriteFile(tmp, []byte(out.String()), 0644); err != nil {
		return fmt.Errorf("cannot write sorted tag file: %w", err)
	}
	if err := os.Rename(tmp, w.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("cannot replace tag file: %w", err)
	}
	return nil
}

// countTags counts non-pseudo tag lines in an existing artifact. A missing
// file counts as zero.
func countTags(path string) (uint64, error) {
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cannot read existing tag file %s: %w", path, err)
	}
	defer file.Close()

	var count uint64
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, pseudoTagPrefix) {
			continue
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("cannot scan existing tag file %s: %w", path, err)
	}
	return count, nil
}

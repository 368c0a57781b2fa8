package run

// Totals accumulates per-batch scan statistics. Engines report into it
// through the engine.TotalsSink interface; it lives for exactly one batch.
type Totals struct {
	Files uint64
	Lines uint64
	Bytes uint64
}

// Add accumulates the statistics of one scanned input.
func (t *Totals) Add(files, lines, bytes uint64) {
	t.Files += files
	t.Lines += lines
	t.Bytes += bytes
}

// plural returns "s" unless value is exactly one.
func plural(value uint64) string {
	if value == 1 {
		return ""
	}
	return "s"
}

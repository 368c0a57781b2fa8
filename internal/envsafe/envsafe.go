// Package envsafe scrubs the inherited environment of trojaned shell
// function exports before any component that might spawn a subprocess runs.
//
// A value beginning with the shell function definition marker "() {" can be
// executed by vulnerable shells the moment a subprocess starts. Sanitize
// truncates such values, keeping a small allow-list of known-benign exports
// used by legitimate shell integration hooks.
package envsafe

import (
	"os"
	"strings"
)

// functionMarker is the prefix a shell places on exported function bodies.
const functionMarker = "() {"

// safeNames lists environment entries allowed to keep a function body.
var safeNames = []string{
	"BASH_FUNC_module()",
	"BASH_FUNC_scl()",
}

// Warner receives a diagnostic for every neutralized entry.
type Warner interface {
	Warningf(format string, args ...interface{})
}

// Sanitize inspects every inherited environment entry and truncates any
// value that begins with a shell function definition marker, unless the
// entry name is on the allow-list. Each neutralization is reported as a
// non-fatal warning naming the affected entry.
func Sanitize(warn Warner) {
	for _, entry := range os.Environ() {
		name, value, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if !strings.HasPrefix(value, functionMarker) {
			continue
		}
		if isSafeName(name) {
			continue
		}
		if warn != nil {
			warn.Warningf("reset environment: %s", entry)
		}
		os.Setenv(name, "")
	}
}

func isSafeName(name string) bool {
	for _, safe := range safeNames {
		if name == safe {
			return true
		}
	}
	return false
}

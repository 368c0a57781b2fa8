package run

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/calder/tagscan/internal/config"
	"github.com/calder/tagscan/internal/diag"
	"github.com/calder/tagscan/internal/scan"
)

// OptionApplier lets inputs be interleaved with per-invocation option
// overrides: every entry from the command line, the list file, or the
// filter stream is offered to the applier first, and a consumed entry is
// not treated as a path.
type OptionApplier interface {
	// Apply inspects one entry. It returns true when the entry was an
	// option (whether or not it was valid); an error reports an option
	// that was recognized but carried a bad value.
	Apply(arg string) (consumed bool, err error)
}

// ConfigApplier mutates the live batch configuration and its Walker for
// the subset of options that make sense between entries.
type ConfigApplier struct {
	Config *config.Config
	Walker *scan.Walker
	Report *diag.Reporter
}

// Apply handles --recurse, --maxdepth, --exclude, --links, --sort,
// --append and --verbose in their --name=value form plus the short -R.
// A lone "-" is a path sentinel, never an option. Unknown options are
// consumed with a warning so a stray flag cannot be scanned as a file.
func (a *ConfigApplier) Apply(arg string) (bool, error) {
	if arg == "-" || !strings.HasPrefix(arg, "-") {
		return false, nil
	}

	name, value, hasValue := strings.Cut(arg, "=")

	var err error
	switch name {
	case "-R", "--recurse":
		a.Config.Recurse, err = boolValue(value, hasValue, true)
	case "--maxdepth":
		if !hasValue {
			return true, fmt.Errorf("missing depth value")
		}
		var depth int
		depth, err = strconv.Atoi(value)
		if err == nil && depth < 0 {
			err = fmt.Errorf("depth must be non-negative, got %d", depth)
		}
		if err == nil {
			a.Config.MaxRecursionDepth = depth
		}
	case "--exclude":
		if !hasValue || value == "" {
			a.Config.Exclude = nil
		} else {
			a.Config.Exclude = append(a.Config.Exclude, value)
		}
		var policy *scan.Policy
		policy, err = scan.NewPolicy(a.Config.Exclude, a.Config.IgnoreFile)
		if err == nil {
			a.Walker.Policy = policy
		}
	case "--links":
		a.Config.FollowLinks, err = boolValue(value, hasValue, true)
	case "--sort":
		a.Config.Sorted, err = boolValue(value, hasValue, true)
	case "--append":
		a.Config.Append, err = boolValue(value, hasValue, true)
	case "--verbose":
		a.Config.Verbose, err = boolValue(value, hasValue, true)
		if err == nil {
			a.Report.SetVerbose(a.Config.Verbose)
		}
	default:
		a.Report.Warningf("ignoring unknown inline option %q", arg)
		return true, nil
	}

	if err != nil {
		return true, err
	}

	a.sync()
	return true, nil
}

// sync pushes the mutated configuration into the Walker.
func (a *ConfigApplier) sync() {
	a.Walker.Recurse = a.Config.Recurse
	a.Walker.MaxDepth = a.Config.MaxRecursionDepth
	a.Walker.FollowLinks = a.Config.FollowLinks
}

// boolValue parses a yes/no option value; an option given without a value
// means fallback.
func boolValue(value string, hasValue bool, fallback bool) (bool, error) {
	if !hasValue {
		return fallback, nil
	}
	switch strings.ToLower(value) {
	case "yes", "on", "true", "1":
		return true, nil
	case "no", "off", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean value %q", value)
	}
}

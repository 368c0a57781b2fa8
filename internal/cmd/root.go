// Package cmd wires the tagscan command line: flag parsing, configuration
// merging, and construction of the enumeration core for the selected mode.
package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/calder/tagscan/internal/config"
	"github.com/calder/tagscan/internal/diag"
	"github.com/calder/tagscan/internal/engine"
	"github.com/calder/tagscan/internal/envsafe"
	"github.com/calder/tagscan/internal/interactive"
	"github.com/calder/tagscan/internal/run"
	"github.com/calder/tagscan/internal/scan"
	"github.com/calder/tagscan/internal/tagfile"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// defaultConfigPath is consulted when --config is not given.
const defaultConfigPath = ".tagscan.yaml"

// ErrLanguageNotRecognized is returned by the print-language probe when no
// input maps to a known language; the process then exits non-zero.
var ErrLanguageNotRecognized = errors.New("language not recognized")

// NewRootCommand creates and returns the root cobra command for tagscan
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tagscan [files...]",
		Short: "Generate an index of tags for source files",
		Long: `Tagscan resolves files, directories, list files and filter streams to
concrete inputs and generates a tag file from them.

Inputs come from positional arguments, a list file (-L, where "-" reads
standard input), the filter stream (--filter), or a recursive scan of the
working directory when recursion is enabled and no other source is given.
Entries from any source may be interleaved with per-invocation option
overrides such as --recurse=no or --exclude=PATTERN.

Configuration is loaded from .tagscan.yaml if present.
CLI flags override configuration file settings.

Examples:
  # Tag two files into ./tags
  tagscan main.c util.c

  # Recurse from the working directory, skipping build output
  tagscan -R --exclude=build --exclude='*.min.js'

  # Read inputs from a list file, or from standard input
  tagscan -L input.lst
  git ls-files | tagscan -L -

  # Filter mode for streaming pipelines
  tagscan --filter --filter-terminator=$'\n<<done>>\n'

  # Interactive request loop for editor integration
  tagscan --interactive`,
		Version:       Version,
		Args:          cobra.ArbitraryArgs,
		RunE:          rootCommand,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().String("config", "", "Path to config file (default: .tagscan.yaml)")
	cmd.Flags().BoolP("recurse", "R", false, "Recurse into directories")
	cmd.Flags().Int("maxdepth", 0xffff, "Maximum directory recursion depth")
	cmd.Flags().StringArray("exclude", nil, "Exclude files and directories matching pattern (repeatable)")
	cmd.Flags().String("ignore-file", "", "Gitignore-style file extending the exclusion rules")
	cmd.Flags().Bool("links", false, "Follow symbolic links")
	cmd.Flags().StringP("list", "L", "", "Read input names from file (\"-\" for standard input)")
	cmd.Flags().Bool("filter", false, "Read input names from standard input, emitting a terminator per entry")
	cmd.Flags().String("filter-terminator", "", "String written to standard output after each filter entry")
	cmd.Flags().StringP("tag-file", "f", "", "Name of the tag file (\"-\" for standard output)")
	cmd.Flags().Bool("append", false, "Append tags to an existing tag file")
	cmd.Flags().Bool("sort", true, "Sort the tag file on close")
	cmd.Flags().Bool("totals", false, "Print statistics about the scanned input")
	cmd.Flags().Bool("verbose", false, "Enable verbose progress messages")
	cmd.Flags().String("lister", "", "Directory enumeration strategy: readdir or glob")
	cmd.Flags().Bool("print-language", false, "Print the recognized language of each input and exit")
	cmd.Flags().Bool("interactive", false, "Serve line-delimited JSON requests on standard input")

	return cmd
}

// rootCommand implements the root command logic
func rootCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfiguration(cmd)
	if err != nil {
		return err
	}

	report := diag.NewReporter(os.Stderr, "tagscan", cfg.Verbose)

	// Scrub the environment before anything that might fork a subprocess.
	envsafe.Sanitize(report)

	if cfg.PrintLanguage {
		return printLanguages(cmd, args)
	}

	policy, err := scan.NewPolicy(cfg.Exclude, cfg.IgnoreFile)
	if err != nil {
		return err
	}
	lister, err := scan.NewLister(cfg.Lister)
	if err != nil {
		return err
	}

	artifact := newArtifact(cfg)
	walker := &scan.Walker{
		Policy:      policy,
		Lister:      lister,
		Report:      report,
		Recurse:     cfg.Recurse,
		MaxDepth:    cfg.MaxRecursionDepth,
		FollowLinks: cfg.FollowLinks,
	}

	if cfg.Interactive {
		tagger := engine.NewTagger(artifact, nil)
		walker.Sink = tagger
		server := &interactive.Server{
			In:       bufio.NewReader(os.Stdin),
			Out:      os.Stdout,
			Artifact: artifact,
			Walker:   walker,
			Engine:   tagger,
			Report:   report,
			Name:     "tagscan",
			Version:  Version,
		}
		return server.Run()
	}

	orch := &run.Orchestrator{
		Config:   cfg,
		Report:   report,
		Walker:   walker,
		Artifact: artifact,
		Stdin:    os.Stdin,
		Stdout:   os.Stdout,
		Clock:    time.Now,
	}
	walker.Sink = engine.NewTagger(artifact, &orch.Totals)
	orch.Options = &run.ConfigApplier{Config: cfg, Walker: walker, Report: report}

	return orch.RunBatch(args)
}

// loadConfiguration merges defaults, the config file and command-line
// flags, in that order.
func loadConfiguration(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	explicit := configPath != ""
	if !explicit {
		configPath = defaultConfigPath
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		if explicit {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("recurse") {
		cfg.Recurse, _ = flags.GetBool("recurse")
	}
	if flags.Changed("maxdepth") {
		cfg.MaxRecursionDepth, _ = flags.GetInt("maxdepth")
	}
	if flags.Changed("exclude") {
		cfg.Exclude, _ = flags.GetStringArray("exclude")
	}
	if flags.Changed("ignore-file") {
		cfg.IgnoreFile, _ = flags.GetString("ignore-file")
	}
	if flags.Changed("links") {
		cfg.FollowLinks, _ = flags.GetBool("links")
	}
	if flags.Changed("tag-file") {
		cfg.TagFileName, _ = flags.GetString("tag-file")
	}
	if flags.Changed("append") {
		cfg.Append, _ = flags.GetBool("append")
	}
	if flags.Changed("sort") {
		cfg.Sorted, _ = flags.GetBool("sort")
	}
	if flags.Changed("totals") {
		cfg.PrintTotals, _ = flags.GetBool("totals")
	}
	if flags.Changed("verbose") {
		cfg.Verbose, _ = flags.GetBool("verbose")
	}
	if flags.Changed("lister") {
		cfg.Lister, _ = flags.GetString("lister")
	}
	if flags.Changed("filter-terminator") {
		cfg.FilterTerminator, _ = flags.GetString("filter-terminator")
	}

	cfg.FileList, _ = flags.GetString("list")
	cfg.Filter, _ = flags.GetBool("filter")
	cfg.PrintLanguage, _ = flags.GetBool("print-language")
	cfg.Interactive, _ = flags.GetBool("interactive")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newArtifact builds the tag writer for the configured destination.
func newArtifact(cfg *config.Config) *tagfile.Writer {
	opts := tagfile.Options{
		Append:  cfg.Append,
		Sorted:  cfg.Sorted,
		Program: "tagscan",
		Version: Version,
	}
	if cfg.OutputToStdout() {
		return tagfile.NewStreamWriter(os.Stdout, opts)
	}
	return tagfile.NewWriter(cfg.TagFileName, opts)
}

// printLanguages implements the print-language probe: the recognized
// language of every input is printed, and the exit code reports whether
// any input was recognized at all.
func printLanguages(cmd *cobra.Command, args []string) error {
	recognized := false
	for _, arg := range args {
		name := "NONE"
		if language, ok := engine.LanguageFor(arg); ok {
			name = language
			recognized = true
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", arg, name)
	}
	if !recognized {
		return ErrLanguageNotRecognized
	}
	return nil
}

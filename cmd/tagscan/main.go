package main

import (
	"os"

	"github.com/calder/tagscan/internal/cmd"
	"github.com/calder/tagscan/internal/diag"
)

func main() {
	rootCmd := cmd.NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		diag.NewReporter(os.Stderr, "tagscan", false).Fatalf("%v", err)
	}
}

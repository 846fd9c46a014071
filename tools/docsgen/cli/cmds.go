//go:build docsgen_cli
// +build docsgen_cli

package main

import (
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/opencode-portal/portal/cmd"
	internalcmd "github.com/opencode-portal/portal/internal/cmd"
)

// docsPaths maps each output directory, relative to the repository root, to its generator.
var docsPaths = map[string]func(*cobra.Command, string) error{
	"./docs/commands/": doc.GenMarkdownTree,
	"./docs/man/": func(c *cobra.Command, dir string) error {
		return doc.GenManTree(c, &doc.GenManHeader{Title: "PORTAL", Section: "1"}, dir)
	},
}

// main assumes it is run from the repository root.
func main() {
	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "portal.docsgen.cli",
		Level:  hclog.Info,
		Output: os.Stderr,
	})

	rootCmd, err := cmd.NewRootCmd(&cmd.RootCmd{BaseCmd: &internalcmd.BaseCmd{}})
	if err != nil {
		logger.Error("failed to create root command for docs generation", "error", err)
		os.Exit(1)
	}
	rootCmd.DisableAutoGenTag = true

	for path, gen := range docsPaths {
		if err := os.RemoveAll(path); err != nil {
			logger.Error("failed to clear docs directory", "path", path, "error", err)
			os.Exit(1)
		}

		if err := os.MkdirAll(path, 0o755); err != nil {
			logger.Error("failed to create docs directory", "path", path, "error", err)
			os.Exit(1)
		}

		if err := gen(rootCmd, path); err != nil {
			logger.Error("failed to generate CLI docs", "path", path, "error", err)
			os.Exit(1)
		}

		logger.Info("CLI docs generated", "path", path)
	}
}

// Package commands provides the CLI commands for the karm tool.
package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"karmlang/karm/internal/config"
	"karmlang/karm/internal/diag"
)

// errReported signals that the failure was already written to stderr.
var errReported = errors.New("errors reported")

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "karm",
		Short: "Karm language front end",
		Long: `Karm is a small expression language with lambda definitions.

This tool provides:
  - Parsing and type checking of Karm source files
  - Printing of syntax trees and inferred signatures
  - Canonical formatting

Usage:
  karm build file.kr            Parse and type check a file
  karm build --types file.kr    Print the inferred signatures
  karm fmt file.kr              Print the file in canonical form
  karm version                  Print version`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.AddCommand(newBuildCmd())
	rootCmd.AddCommand(newFmtCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// Execute runs the root command.
func Execute() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI with args and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(stderr, "Error:", err)
		}
		return 1
	}
	return 0
}

// report renders err for file to the command's stderr and returns
// errReported.
func report(cmd *cobra.Command, cfg *config.Config, file, src string, err error) error {
	w := cmd.ErrOrStderr()
	color := false
	if f, ok := w.(*os.File); ok {
		color = diag.UseColor(cfg.Color, f)
	}
	diag.NewRenderer(w, color).Render(file, src, err)
	return errReported
}

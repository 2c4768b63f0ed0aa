package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"karmlang/karm/internal/ast"
	"karmlang/karm/internal/config"
	"karmlang/karm/internal/parser"
)

func newFmtCmd() *cobra.Command {
	var (
		write      bool
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "fmt <file>",
		Short: "Print a Karm source file in canonical form",
		Long: `Fmt parses a Karm source file and prints it in canonical form:
one definition per line, spaced operators, and parentheses only where
they are needed.

Examples:
  karm fmt main.kr       # Print to stdout
  karm fmt -w main.kr    # Rewrite the file in place`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := args[0]
			cfg, err := config.Resolve(configPath, filepath.Dir(file))
			if err != nil {
				return err
			}
			if !cfg.HasExtension(file) {
				return fmt.Errorf("%s: expected a %s file", file, cfg.Extension)
			}

			src, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("reading %s: %w", file, err)
			}
			prog, err := parser.Parse(string(src))
			if err != nil {
				return report(cmd, cfg, file, string(src), err)
			}

			formatted := ast.Format(prog)
			if !write {
				_, err := fmt.Fprint(cmd.OutOrStdout(), formatted)
				return err
			}
			if formatted == string(src) {
				return nil
			}
			info, err := os.Stat(file)
			if err != nil {
				return err
			}
			return os.WriteFile(file, []byte(formatted), info.Mode().Perm())
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write the result to the file instead of stdout")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to karm.yaml")
	return cmd
}

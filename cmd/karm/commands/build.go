package commands

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"karmlang/karm/internal/ast"
	"karmlang/karm/internal/build"
	"karmlang/karm/internal/config"
)

type buildOptions struct {
	ast        bool
	types      bool
	noCheck    bool
	strict     bool
	allErrors  bool
	workers    int
	followUses bool
	configPath string
	verbose    bool
}

func newBuildCmd() *cobra.Command {
	o := &buildOptions{}
	cmd := &cobra.Command{
		Use:   "build <file>",
		Short: "Parse and type check a Karm source file",
		Long: `Build parses a Karm source file and type checks every definition.

The first error stops the build and is printed with the offending source
line; with --all-errors every failing definition is reported. Settings are read from the nearest karm.yaml above the file; flags
override them.

Examples:
  karm build main.kr                 # Parse and check
  karm build --ast main.kr           # Print the syntax tree
  karm build --types main.kr         # Print inferred signatures
  karm build --strict main.kr        # Check calls against signatures
  karm build --all-errors main.kr    # Report every failing definition
  karm build --follow-uses main.kr   # Also build the files it uses
  karm build -v main.kr              # Verbose output`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, args[0])
		},
	}

	f := cmd.Flags()
	f.BoolVar(&o.ast, "ast", false, "Print the syntax tree")
	f.BoolVar(&o.types, "types", false, "Print the inferred signatures")
	f.BoolVar(&o.noCheck, "no-check", false, "Skip type checking")
	f.BoolVar(&o.strict, "strict", false, "Check calls against the signatures of the file's definitions")
	f.BoolVar(&o.allErrors, "all-errors", false, "Report every failing definition instead of the first")
	f.IntVar(&o.workers, "workers", 1, "Number of definitions checked concurrently")
	f.BoolVar(&o.followUses, "follow-uses", false, "Load and check the files named by use definitions")
	f.StringVar(&o.configPath, "config", "", "Path to karm.yaml")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "Verbose output")
	return cmd
}

// loadConfig resolves the configuration for file and applies the flags
// that were set explicitly.
func (o *buildOptions) loadConfig(cmd *cobra.Command, file string) (*config.Config, error) {
	cfg, err := config.Resolve(o.configPath, filepath.Dir(file))
	if err != nil {
		return nil, err
	}

	f := cmd.Flags()
	if f.Changed("no-check") {
		cfg.Check = !o.noCheck
	}
	if f.Changed("strict") {
		cfg.Strict = o.strict
	}
	if f.Changed("all-errors") {
		cfg.AllErrors = o.allErrors
	}
	if f.Changed("workers") {
		cfg.Workers = o.workers
	}
	if f.Changed("follow-uses") {
		cfg.FollowUses = o.followUses
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if o.types && !cfg.Check {
		return nil, errors.New("--types needs type checking, which is turned off")
	}
	return cfg, nil
}

func (o *buildOptions) run(cmd *cobra.Command, file string) error {
	cfg, err := o.loadConfig(cmd, file)
	if err != nil {
		return err
	}

	units, err := build.NewBuilder(cfg, o.verbose, cmd.ErrOrStderr()).Build(file)
	if err != nil {
		var fileErr *build.FileError
		if errors.As(err, &fileErr) {
			return report(cmd, cfg, fileErr.Name, fileErr.Source, fileErr.Err)
		}
		return err
	}

	out := cmd.OutOrStdout()
	for _, u := range units {
		if !o.ast && !o.types {
			fmt.Fprintf(out, "%s: ok (%d definitions)\n", u.Name, len(u.Result.Program.Defs))
			continue
		}
		if len(units) > 1 {
			fmt.Fprintf(out, "== %s ==\n", u.Name)
		}
		if o.ast {
			if err := ast.Dump(out, u.Result.Program); err != nil {
				return err
			}
		}
		if o.types {
			for _, sig := range u.Result.Signatures {
				fmt.Fprintln(out, sig.String())
			}
		}
	}
	return nil
}

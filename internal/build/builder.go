// Package build drives the front end over a source file and, optionally,
// every file it uses.
package build

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"karmlang/karm/internal/compiler"
	"karmlang/karm/internal/config"
	"karmlang/karm/internal/loader"
)

// Unit is one compiled source file.
type Unit struct {
	Name   string
	Path   string
	Source string
	Result *compiler.Result
}

// FileError attaches the failing file and its source to a front-end error
// so it can be rendered with an excerpt.
type FileError struct {
	Name   string
	Source string
	Err    error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Builder orchestrates a build for one configuration.
type Builder struct {
	config   *config.Config
	compiler *compiler.Compiler
	verbose  bool
	log      io.Writer
}

// NewBuilder creates a builder. Progress is written to log when verbose
// is set.
func NewBuilder(cfg *config.Config, verbose bool, log io.Writer) *Builder {
	return &Builder{
		config:   cfg,
		compiler: compiler.FromConfig(cfg),
		verbose:  verbose,
		log:      log,
	}
}

func (b *Builder) logf(format string, args ...any) {
	if b.verbose {
		fmt.Fprintf(b.log, format, args...)
	}
}

// Build compiles path. With follow_uses set the files it uses are compiled
// too and the units are returned in dependency order, path last. The first
// failure aborts the build.
func (b *Builder) Build(path string) ([]*Unit, error) {
	if !b.config.HasExtension(path) {
		return nil, fmt.Errorf("%s: expected a %s file", path, b.config.Extension)
	}
	if b.config.Path != "" {
		b.logf("Using config: %s\n", b.config.Path)
	}

	if b.config.FollowUses {
		return b.buildGraph(path)
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	b.logf("Compiling %s...\n", path)
	res, err := b.compiler.Compile(string(src))
	if err != nil {
		return nil, &FileError{Name: path, Source: string(src), Err: err}
	}
	return []*Unit{{Name: path, Path: path, Source: string(src), Result: res}}, nil
}

func (b *Builder) buildGraph(path string) ([]*Unit, error) {
	b.logf("Loading uses of %s...\n", path)

	l := loader.New(b.config.Extension,
		loader.WithSearchPaths(b.config.SearchPaths...),
		loader.WithParser(b.compiler.Parse),
	)
	ordered, err := l.LoadOrdered(path)
	if err != nil {
		var unitErr *loader.UnitError
		if errors.As(err, &unitErr) && unitErr.Source != "" {
			return nil, &FileError{Name: b.display(path, unitErr.Name), Source: unitErr.Source, Err: unitErr.Err}
		}
		return nil, err
	}

	units := make([]*Unit, 0, len(ordered))
	for _, u := range ordered {
		name := b.display(path, u.Name)
		b.logf("  checking %s\n", name)

		res, err := b.compiler.Check(u.Program)
		if err != nil {
			return nil, &FileError{Name: name, Source: u.Source, Err: err}
		}
		units = append(units, &Unit{Name: name, Path: u.Path, Source: u.Source, Result: res})
	}
	return units, nil
}

// display names a unit relative to the working directory the way the entry
// path was given.
func (b *Builder) display(entry, name string) string {
	return filepath.ToSlash(filepath.Join(filepath.Dir(entry), filepath.FromSlash(name)))
}

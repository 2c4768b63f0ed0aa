package loader

import (
	"fmt"
	"os"
	"path/filepath"

	"karmlang/karm/internal/ast"
	"karmlang/karm/internal/parser"
)

// UnitError wraps a failure to read or parse one unit. Source is empty when
// the file could not be read.
type UnitError struct {
	Name   string
	Source string
	Err    error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

func (e *UnitError) Unwrap() error {
	return e.Err
}

// Loader reads an entry file and every file reachable through its use
// definitions. Each file is read and parsed once.
type Loader struct {
	resolver *Resolver
	parse    func(src string) (*ast.Program, error)
}

type Option func(*Loader)

// WithSearchPaths adds directories tried after the using file's directory.
func WithSearchPaths(paths ...string) Option {
	return func(l *Loader) {
		l.resolver.searchPaths = append(l.resolver.searchPaths, paths...)
	}
}

// WithParser replaces the parser used for every unit.
func WithParser(parse func(src string) (*ast.Program, error)) Option {
	return func(l *Loader) { l.parse = parse }
}

// New creates a Loader for files with the given extension.
func New(extension string, opts ...Option) *Loader {
	l := &Loader{
		resolver: NewResolver(extension, nil),
		parse:    parser.Parse,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load builds the use graph rooted at entry and rejects cycles.
func (l *Loader) Load(entry string) (*Graph, error) {
	abs, err := filepath.Abs(entry)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", entry, err)
	}

	g := newGraph()
	b := &builder{loader: l, graph: g, base: filepath.Dir(abs)}
	g.Root, err = b.unit(abs)
	if err != nil {
		return nil, err
	}
	if err := g.DetectCycles(); err != nil {
		return nil, err
	}
	return g, nil
}

// LoadOrdered loads entry and returns its units in dependency order.
func (l *Loader) LoadOrdered(entry string) ([]*Unit, error) {
	g, err := l.Load(entry)
	if err != nil {
		return nil, err
	}
	return g.TopologicalSort()
}

type builder struct {
	loader *Loader
	graph  *Graph
	base   string
}

func (b *builder) name(path string) string {
	if rel, err := filepath.Rel(b.base, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}

// unit loads path and, recursively, the files it uses. A file already in
// the graph is returned as is, which also stops the recursion on cycles.
func (b *builder) unit(path string) (*Unit, error) {
	if u, ok := b.graph.Units[path]; ok {
		return u, nil
	}

	u := &Unit{Path: path, Name: b.name(path)}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &UnitError{Name: u.Name, Err: err}
	}
	u.Source = string(data)

	u.Program, err = b.loader.parse(u.Source)
	if err != nil {
		return nil, &UnitError{Name: u.Name, Source: u.Source, Err: err}
	}
	b.graph.Units[path] = u

	for _, use := range u.Program.Uses() {
		target, err := b.loader.resolver.Resolve(path, use)
		if err != nil {
			return nil, err
		}
		dep, err := b.unit(target)
		if err != nil {
			return nil, err
		}
		b.graph.addEdge(u, dep)
	}
	return u, nil
}

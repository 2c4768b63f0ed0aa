// Package compiler runs the Karm front end: parse, then type check.
package compiler

import (
	"karmlang/karm/internal/ast"
	"karmlang/karm/internal/config"
	"karmlang/karm/internal/parser"
	"karmlang/karm/internal/typecheck"
)

// SourceParser parses Karm source into a program.
type SourceParser interface {
	Parse(src string) (*ast.Program, error)
}

// ParseFunc adapts a function to the SourceParser interface.
type ParseFunc func(src string) (*ast.Program, error)

func (f ParseFunc) Parse(src string) (*ast.Program, error) {
	return f(src)
}

// ProgramChecker infers the signatures of a program's definitions.
type ProgramChecker interface {
	Infer(prog *ast.Program) ([]*typecheck.Signature, error)
}

// Result is the outcome of a successful compilation.
type Result struct {
	Program    *ast.Program
	Signatures []*typecheck.Signature // nil when checking is skipped
}

// Compiler orchestrates the front-end pipeline. A nil checker skips type
// checking.
type Compiler struct {
	parser  SourceParser
	checker ProgramChecker
}

// NewCompiler creates a Compiler with its dependencies.
func NewCompiler(parser SourceParser, checker ProgramChecker) *Compiler {
	return &Compiler{
		parser:  parser,
		checker: checker,
	}
}

// allErrors reports every failing definition instead of the first.
type allErrors struct {
	*typecheck.Checker
}

func (c allErrors) Infer(prog *ast.Program) ([]*typecheck.Signature, error) {
	return c.CheckAll(prog)
}

// FromConfig wires the recursive-descent parser and, when cfg.Check is
// set, a type checker configured by cfg.
func FromConfig(cfg *config.Config) *Compiler {
	var checker ProgramChecker
	if cfg.Check {
		opts := []typecheck.Option{typecheck.WithWorkers(cfg.Workers)}
		if cfg.Strict {
			opts = append(opts, typecheck.WithStrict())
		}
		c := typecheck.New(opts...)
		checker = c
		if cfg.AllErrors {
			checker = allErrors{c}
		}
	}
	return NewCompiler(ParseFunc(parser.Parse), checker)
}

// Compile executes the pipeline. The first failing stage aborts it and
// no partial result is returned.
func (c *Compiler) Compile(src string) (*Result, error) {
	prog, err := c.parser.Parse(src)
	if err != nil {
		return nil, err
	}
	return c.Check(prog)
}

// Parse runs only the parsing stage.
func (c *Compiler) Parse(src string) (*ast.Program, error) {
	return c.parser.Parse(src)
}

// Check runs only the checking stage over an already parsed program.
func (c *Compiler) Check(prog *ast.Program) (*Result, error) {
	res := &Result{Program: prog}
	if c.checker == nil {
		return res, nil
	}

	sigs, err := c.checker.Infer(prog)
	if err != nil {
		return nil, err
	}
	res.Signatures = sigs
	return res, nil
}

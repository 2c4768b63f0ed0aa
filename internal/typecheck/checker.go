package typecheck

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"karmlang/karm/internal/ast"
	"karmlang/karm/internal/token"
	"karmlang/karm/karmerr"
)

// Signature is what the checker learned about one function definition.
type Signature struct {
	Name   string
	Style  ast.Style
	Params []Assumption // in declaration order
	Result TypeSet
	Free   []Assumption // identifiers used but not bound by a parameter
}

func (s *Signature) String() string {
	var sb strings.Builder
	sb.WriteString(s.Name)
	if s.Style == ast.Infix {
		sb.WriteString(" |")
	}
	if len(s.Params) > 0 {
		parts := make([]string, len(s.Params))
		for i, p := range s.Params {
			parts[i] = p.String()
		}
		sb.WriteString(" :: " + strings.Join(parts, ", "))
	}
	sb.WriteString(" -> " + s.Result.String())
	return sb.String()
}

// Checker checks programs one top-level definition at a time.
type Checker struct {
	strict  bool
	workers int
}

type Option func(*Checker)

// WithStrict enables cross-definition checking: prefix calls are resolved
// against the signatures inferred for the program's own definitions, and
// identifiers must be bound by a parameter.
func WithStrict() Option {
	return func(c *Checker) { c.strict = true }
}

// WithWorkers checks up to n definitions concurrently. Errors are still
// reported in definition order.
func WithWorkers(n int) Option {
	return func(c *Checker) {
		if n > 0 {
			c.workers = n
		}
	}
}

func New(opts ...Option) *Checker {
	c := &Checker{workers: 1}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check type checks prog with default options.
func Check(prog *ast.Program) error {
	return New().Check(prog)
}

// Check reports the first failing definition, or nil.
func (c *Checker) Check(prog *ast.Program) error {
	_, err := c.Infer(prog)
	return err
}

// Infer returns the signature of every function definition in prog, or
// the error of the first failing definition.
func (c *Checker) Infer(prog *ast.Program) ([]*Signature, error) {
	results, err := c.run(prog, true)
	if err != nil {
		return nil, err
	}
	return signatures(results), nil
}

// CheckAll checks every definition even after failures. The returned
// error, if any, is a *karmerr.MultiError listing the failures in
// definition order; the signatures of the definitions that passed are
// returned alongside it.
func (c *Checker) CheckAll(prog *ast.Program) ([]*Signature, error) {
	results, err := c.run(prog, false)
	if err != nil {
		return nil, err
	}

	var errs []error
	for _, r := range results {
		if r.err != nil {
			errs = append(errs, r.err)
		}
	}
	sigs := signatures(results)
	if len(errs) > 0 {
		return sigs, &karmerr.MultiError{Errors: errs}
	}
	return sigs, nil
}

type result struct {
	sig *Signature
	err error
}

func signatures(results []result) []*Signature {
	var sigs []*Signature
	for _, r := range results {
		if r.sig != nil && r.err == nil {
			sigs = append(sigs, r.sig)
		}
	}
	return sigs
}

// run checks every definition. When failFast is set the first error in
// definition order is returned directly.
//
// In strict mode a first pass collects the signatures. Calls are not
// resolved yet in that pass, so their {Whatever} result is let through
// operators and conditions; the second pass checks every body again with
// calls resolved against the collected signatures and no such allowance.
func (c *Checker) run(prog *ast.Program, failFast bool) ([]result, error) {
	results := c.pass(prog, nil, c.strict, failFast)
	if c.strict {
		if err := firstError(results); err != nil {
			if failFast {
				return nil, err
			}
			return results, nil
		}
		env := make(map[string]*Signature)
		for _, r := range results {
			if r.sig != nil {
				env[r.sig.Name] = r.sig
			}
		}
		results = c.pass(prog, env, false, failFast)
	}

	if failFast {
		if err := firstError(results); err != nil {
			return nil, err
		}
	}
	return results, nil
}

func firstError(results []result) error {
	for _, r := range results {
		if r.err != nil {
			return r.err
		}
	}
	return nil
}

// pass checks each definition in isolation. env, when non-nil, holds the
// signatures prefix calls are resolved against.
func (c *Checker) pass(prog *ast.Program, env map[string]*Signature, collect, failFast bool) []result {
	results := make([]result, len(prog.Defs))

	if c.workers <= 1 {
		for i, def := range prog.Defs {
			results[i] = checkDef(def, env, collect)
			if failFast && results[i].err != nil {
				return results[:i+1]
			}
		}
		return results
	}

	var g errgroup.Group
	g.SetLimit(c.workers)
	for i, def := range prog.Defs {
		i, def := i, def
		g.Go(func() error {
			results[i] = checkDef(def, env, collect)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func checkDef(def ast.Expr, env map[string]*Signature, collect bool) result {
	in := &inferer{env: env, collect: collect}

	sig, err := in.definition(def)
	if err != nil {
		var te *karmerr.TypeError
		if errors.As(err, &te) {
			te.Def = ast.Name(def)
		}
		return result{err: err}
	}
	return result{sig: sig}
}

// inferer holds the state for checking one top-level definition.
type inferer struct {
	env     map[string]*Signature
	params  map[string]bool // bound names, checked in strict mode only
	collect bool            // first strict pass, calls are not resolved yet
}

func (in *inferer) strict() bool {
	return in.env != nil
}

// pending reports whether s is the result of a call that the second strict
// pass will resolve.
func (in *inferer) pending(s TypeScheme) bool {
	return in.collect && s.Types == WhateverSet
}

func (in *inferer) definition(def ast.Expr) (*Signature, error) {
	switch def := def.(type) {
	case *ast.Use:
		return nil, nil
	case *ast.LamDef:
		return in.lamDef(def)
	}
	_, err := in.expr(def)
	return nil, err
}

func (in *inferer) lamDef(d *ast.LamDef) (*Signature, error) {
	in.params = make(map[string]bool, len(d.Params))
	for _, p := range d.Params {
		in.params[p] = true
	}

	body, err := in.expr(d.Body)
	if err != nil {
		return nil, err
	}

	sig := &Signature{
		Name:   d.Ident,
		Style:  d.Style,
		Params: make([]Assumption, len(d.Params)),
		Result: body.refresh(body.Gamma).Types,
	}
	for i, p := range d.Params {
		hyp, ok := body.Gamma.Lookup(p)
		if !ok {
			hyp = WhateverSet
		}
		sig.Params[i] = Assumption{Name: p, Hypothesis: hyp}
	}
	for _, a := range body.Gamma.Assumptions() {
		if !in.params[a.Name] {
			sig.Free = append(sig.Free, a)
		}
	}
	return sig, nil
}

func (in *inferer) expr(e ast.Expr) (TypeScheme, error) {
	switch e := e.(type) {
	case *ast.IntLit:
		return TypeScheme{Types: IntSet}, nil
	case *ast.StrLit:
		return TypeScheme{Types: StrSet}, nil
	case *ast.Var:
		return in.variable(e)
	case *ast.LamCall:
		if e.Style == ast.Infix {
			return in.operator(e)
		}
		return in.call(e)
	case *ast.If:
		return in.conditional(e)
	case *ast.Use:
		return TypeScheme{Types: WhateverSet}, nil
	}
	return TypeScheme{}, fmt.Errorf("typecheck: unexpected node %T", e)
}

func (in *inferer) variable(v *ast.Var) (TypeScheme, error) {
	if in.strict() && !in.params[v.Name] {
		return TypeScheme{}, errorAt(v.Pos, karmerr.RuleUndefinedIdent, v.Name)
	}
	return TypeScheme{
		Gamma:    NewGamma(Assumption{Name: v.Name, Hypothesis: ValueSet}),
		Types:    ValueSet,
		variable: v.Name,
	}, nil
}

// operatorTypes returns the operand domain and the result type of op.
func operatorTypes(op string) (domain, result TypeSet) {
	switch token.Operators[op] {
	case token.Mul, token.Div, token.Plus, token.Min:
		return IntSet, IntSet
	case token.Leq, token.Geq:
		return IntSet, BoolSet
	case token.DoubleEq, token.Neq:
		return ValueSet, BoolSet
	}
	return InvalidSet, InvalidSet
}

func (in *inferer) operator(e *ast.LamCall) (TypeScheme, error) {
	if len(e.Args) != 2 {
		return TypeScheme{}, errorAt(e.Pos, karmerr.RuleArity,
			fmt.Sprintf("operator %s takes 2 operands, got %d", e.Ident, len(e.Args)))
	}

	left, err := in.expr(e.Args[0])
	if err != nil {
		return TypeScheme{}, err
	}
	right, err := in.expr(e.Args[1])
	if err != nil {
		return TypeScheme{}, err
	}

	domain, res := operatorTypes(e.Ident)
	given := left.Types.Intersect(right.Types)
	operand := given
	if in.pending(left) || in.pending(right) {
		// The other operand still has to suit the operator.
		given = left.Types.Meet(right.Types)
		operand = given.Meet(domain)
	} else if given.IsEmpty() {
		return TypeScheme{}, errorAt(e.Pos, karmerr.RuleMismatch,
			fmt.Sprintf("%s %s %s", left.Types, e.Ident, right.Types))
	}

	if domain == InvalidSet {
		return TypeScheme{}, errorAt(e.Pos, karmerr.RuleNotApplicable,
			fmt.Sprintf("unknown operator %s", e.Ident))
	}
	if operand.IsEmpty() || !operand.SubsetOf(domain) {
		return TypeScheme{}, errorAt(e.Pos, karmerr.RuleNotApplicable,
			fmt.Sprintf("%s does not accept %s", e.Ident, given))
	}

	left = left.narrow(operand)
	right = right.narrow(operand)
	g, err := merge(e.Pos, left.Gamma, right.Gamma)
	if err != nil {
		return TypeScheme{}, err
	}
	return TypeScheme{Gamma: g, Types: res}, nil
}

func (in *inferer) call(e *ast.LamCall) (TypeScheme, error) {
	var sig *Signature
	if in.strict() {
		var ok bool
		if sig, ok = in.env[e.Ident]; !ok {
			return TypeScheme{}, errorAt(e.Pos, karmerr.RuleUndefinedFunction, e.Ident)
		}
		if len(sig.Params) != len(e.Args) {
			return TypeScheme{}, errorAt(e.Pos, karmerr.RuleArity,
				fmt.Sprintf("%s takes %d arguments, got %d", e.Ident, len(sig.Params), len(e.Args)))
		}
	}

	g := Gamma{}
	for i, arg := range e.Args {
		s, err := in.expr(arg)
		if err != nil {
			return TypeScheme{}, err
		}
		if sig != nil {
			// An unused parameter accepts any argument.
			if want := sig.Params[i].Hypothesis; want != WhateverSet {
				got := s.Types.Intersect(want)
				if got.IsEmpty() {
					return TypeScheme{}, errorAt(arg.Position(), karmerr.RuleArgumentMismatch,
						fmt.Sprintf("argument %d of %s: want %s, got %s", i+1, e.Ident, want, s.Types))
				}
				s = s.narrow(got)
			}
		}
		if g, err = merge(arg.Position(), g, s.Gamma); err != nil {
			return TypeScheme{}, err
		}
	}

	if sig != nil {
		return TypeScheme{Gamma: g, Types: sig.Result}, nil
	}
	return TypeScheme{Gamma: g, Types: WhateverSet}, nil
}

func (in *inferer) conditional(e *ast.If) (TypeScheme, error) {
	cond, err := in.expr(e.Cond)
	if err != nil {
		return TypeScheme{}, err
	}
	then, err := in.expr(e.Then)
	if err != nil {
		return TypeScheme{}, err
	}
	alter, err := in.expr(e.Alter)
	if err != nil {
		return TypeScheme{}, err
	}

	if cond.Types != BoolSet && !in.pending(cond) {
		return TypeScheme{}, errorAt(e.Cond.Position(), karmerr.RuleNonBoolCondition,
			fmt.Sprintf("got %s", cond.Types))
	}

	// A bare identifier in a branch has the types the condition left it.
	then, alter = then.refresh(cond.Gamma), alter.refresh(cond.Gamma)

	res := then.Types
	switch {
	case then.Types == alter.Types, in.pending(alter):
	case in.pending(then):
		res = alter.Types
	default:
		return TypeScheme{}, errorAt(e.Pos, karmerr.RuleDivergentBranches,
			fmt.Sprintf("%s and %s", then.Types, alter.Types))
	}

	g, err := merge(e.Pos, cond.Gamma, then.Gamma)
	if err != nil {
		return TypeScheme{}, err
	}
	if g, err = merge(e.Pos, g, alter.Gamma); err != nil {
		return TypeScheme{}, err
	}
	return TypeScheme{Gamma: g, Types: res}, nil
}

func merge(pos token.Pos, a, b Gamma) (Gamma, error) {
	g, left, right, ok := a.Merge(b)
	if !ok {
		return Gamma{}, errorAt(pos, karmerr.RuleInconsistent,
			fmt.Sprintf("'%s' is used as %s and as %s", left.Name, left.Hypothesis, right.Hypothesis))
	}
	return g, nil
}

func errorAt(pos token.Pos, rule karmerr.TypeRule, detail string) *karmerr.TypeError {
	return karmerr.NewTypeErrorAt(pos.Line, pos.Col, rule, detail)
}

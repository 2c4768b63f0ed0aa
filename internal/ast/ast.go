// Package ast declares the syntax tree produced by the Karm parser.
//
// Nodes are created once by the parser and never mutated afterwards. Each
// child is owned by exactly one parent. Positions are excluded from
// structural comparison so that trees parsed from differently formatted
// sources compare equal.
package ast

import "karmlang/karm/internal/token"

// Expr is implemented by every node of the tree.
type Expr interface {
	Position() token.Pos
	exprNode()
}

// Style records how a function is written: as a binary operator or as a
// named call.
type Style int

const (
	Prefix Style = iota
	Infix
)

func (s Style) String() string {
	if s == Infix {
		return "infix"
	}
	return "prefix"
}

// IntLit is an integer literal.
type IntLit struct {
	Value int32
	Pos   token.Pos `deep:"-"`
}

// StrLit is a string literal. Value excludes the quotes.
type StrLit struct {
	Value string
	Pos   token.Pos `deep:"-"`
}

// Var is a reference to an identifier.
type Var struct {
	Name string
	Pos  token.Pos `deep:"-"`
}

// LamCall is a function application. Binary operators are infix calls
// whose Ident is the operator lexeme and whose Args hold both operands.
type LamCall struct {
	Ident string
	Style Style
	Args  []Expr
	Pos   token.Pos `deep:"-"`
}

// LamDef binds zero or more parameter names to a body expression.
type LamDef struct {
	Ident  string
	Style  Style
	Params []string
	// ParamClause is set when the definition was written with `::`, which
	// tells `lam f -> x` apart from `lam f :: -> x`.
	ParamClause bool
	Body        Expr
	Pos         token.Pos `deep:"-"`
}

// If is the ternary conditional `if cond ? then : alter`.
type If struct {
	Cond  Expr
	Then  Expr
	Alter Expr
	Pos   token.Pos `deep:"-"`
}

// Use references another module. Path excludes the quotes.
type Use struct {
	Path string
	Pos  token.Pos `deep:"-"`
}

func (e *IntLit) Position() token.Pos  { return e.Pos }
func (e *StrLit) Position() token.Pos  { return e.Pos }
func (e *Var) Position() token.Pos     { return e.Pos }
func (e *LamCall) Position() token.Pos { return e.Pos }
func (e *LamDef) Position() token.Pos  { return e.Pos }
func (e *If) Position() token.Pos      { return e.Pos }
func (e *Use) Position() token.Pos     { return e.Pos }

func (*IntLit) exprNode()  {}
func (*StrLit) exprNode()  {}
func (*Var) exprNode()     {}
func (*LamCall) exprNode() {}
func (*LamDef) exprNode()  {}
func (*If) exprNode()      {}
func (*Use) exprNode()     {}

// IsOperator reports whether the call is a binary operator application.
func (e *LamCall) IsOperator() bool {
	return e.Style == Infix && token.OperatorPrec(e.Ident) != token.PrecNone && len(e.Args) == 2
}

// Program is the ordered list of top-level definitions of one source file.
type Program struct {
	Defs []Expr
}

// Uses returns the paths named by the program's use definitions, in order.
func (p *Program) Uses() []string {
	var paths []string
	for _, def := range p.Defs {
		if u, ok := def.(*Use); ok {
			paths = append(paths, u.Path)
		}
	}
	return paths
}

// Lams returns the program's function definitions, in order.
func (p *Program) Lams() []*LamDef {
	var defs []*LamDef
	for _, def := range p.Defs {
		if d, ok := def.(*LamDef); ok {
			defs = append(defs, d)
		}
	}
	return defs
}

// Name returns a short label for a top-level definition, used in
// diagnostics.
func Name(e Expr) string {
	switch e := e.(type) {
	case *LamDef:
		return e.Ident
	case *Use:
		return "use " + e.Path
	}
	return ""
}

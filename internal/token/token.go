// Package token defines the lexical categories of Karm source text.
package token

import "fmt"

// Kind is the lexical category of a token.
type Kind int

const (
	// EOF never appears in a token stream. It stands for "end of input"
	// wherever a Kind is expected but the stream was exhausted.
	EOF Kind = iota

	Integer
	String
	Ident
	Lam
	Use
	If
	DoubleColon
	Colon
	SemiColon
	Bar
	Arrow
	Mul
	Div
	Plus
	Min
	Leq
	Geq
	DoubleEq
	Neq
	Comma
	QMark
	LParen
	RParen
	Newline
)

var kindNames = [...]string{
	EOF:         "EOF",
	Integer:     "Integer",
	String:      "String",
	Ident:       "Ident",
	Lam:         "Lam",
	Use:         "Use",
	If:          "If",
	DoubleColon: "DoubleColon",
	Colon:       "Colon",
	SemiColon:   "SemiColon",
	Bar:         "Bar",
	Arrow:       "Arrow",
	Mul:         "Mul",
	Div:         "Div",
	Plus:        "Plus",
	Min:         "Min",
	Leq:         "Leq",
	Geq:         "Geq",
	DoubleEq:    "DoubleEq",
	Neq:         "Neq",
	Comma:       "Comma",
	QMark:       "QMark",
	LParen:      "LParen",
	RParen:      "RParen",
	Newline:     "Newline",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Binding precedences of the binary operators.
const (
	PrecNone           = 0
	PrecComparison     = 1
	PrecAdditive       = 2
	PrecMultiplicative = 3
)

// Prec returns the binding precedence of k, or PrecNone if k is not a
// binary operator.
func (k Kind) Prec() int {
	switch k {
	case Mul, Div:
		return PrecMultiplicative
	case Plus, Min:
		return PrecAdditive
	case Leq, Geq, DoubleEq, Neq:
		return PrecComparison
	}
	return PrecNone
}

// Operators maps operator lexemes to their kinds.
var Operators = map[string]Kind{
	"*":  Mul,
	"/":  Div,
	"+":  Plus,
	"-":  Min,
	"<=": Leq,
	">=": Geq,
	"==": DoubleEq,
	"!=": Neq,
}

// OperatorPrec returns the precedence of the operator spelled lexeme.
func OperatorPrec(lexeme string) int {
	if k, ok := Operators[lexeme]; ok {
		return k.Prec()
	}
	return PrecNone
}

// Pos is a 1-based line/column position in a source file.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// IsValid reports whether the position was set.
func (p Pos) IsValid() bool {
	return p.Line > 0
}

type Token struct {
	Kind   Kind
	Lexeme string
	Pos    Pos // Position of the first character
}

func (t Token) String() string {
	return fmt.Sprintf("{%s '%s' %s}", t.Kind, t.Lexeme, t.Pos)
}

package ast

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"karmlang/karm/internal/token"
)

// precAtom binds tighter than any operator.
const precAtom = token.PrecMultiplicative + 1

// Format renders the program as canonical source, one definition per line.
// Parsing the result yields a tree structurally equal to p.
func Format(p *Program) string {
	var sb strings.Builder
	for _, def := range p.Defs {
		writeDef(&sb, def)
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatExpr renders a single expression as source text.
func FormatExpr(e Expr) string {
	var sb strings.Builder
	writeExpr(&sb, e)
	return sb.String()
}

func writeDef(sb *strings.Builder, e Expr) {
	switch e := e.(type) {
	case *LamDef:
		sb.WriteString("lam " + e.Ident)
		if e.Style == Infix {
			sb.WriteString(" |")
		}
		if e.ParamClause {
			sb.WriteString(" ::")
			if len(e.Params) > 0 {
				sb.WriteString(" " + strings.Join(e.Params, ", "))
			}
		}
		sb.WriteString(" -> ")
		writeExpr(sb, e.Body)
	case *Use:
		sb.WriteString("use " + quote(e.Path))
	default:
		writeExpr(sb, e)
	}
	sb.WriteString(";")
}

func writeExpr(sb *strings.Builder, e Expr) {
	switch e := e.(type) {
	case *IntLit:
		sb.WriteString(strconv.FormatInt(int64(e.Value), 10))
	case *StrLit:
		sb.WriteString(quote(e.Value))
	case *Var:
		sb.WriteString(e.Name)
	case *If:
		sb.WriteString("if ")
		writeExpr(sb, e.Cond)
		sb.WriteString(" ? ")
		writeExpr(sb, e.Then)
		sb.WriteString(" : ")
		writeExpr(sb, e.Alter)
	case *LamCall:
		if e.IsOperator() {
			p := token.OperatorPrec(e.Ident)
			// Left-associative: the left operand may share the operator's
			// precedence, the right one may not.
			writeOperand(sb, e.Args[0], precOf(e.Args[0]) < p)
			sb.WriteString(" " + e.Ident + " ")
			writeOperand(sb, e.Args[1], precOf(e.Args[1]) <= p)
			return
		}
		sb.WriteString(e.Ident + "(")
		for i, arg := range e.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			// Call arguments are comparison expressions, so a bare
			// conditional needs parentheses.
			_, isIf := arg.(*If)
			writeOperand(sb, arg, isIf)
		}
		sb.WriteString(")")
	case *LamDef, *Use:
		writeDef(sb, e)
	default:
		sb.WriteString(fmt.Sprintf("<%T>", e))
	}
}

func writeOperand(sb *strings.Builder, e Expr, parens bool) {
	if parens {
		sb.WriteString("(")
	}
	writeExpr(sb, e)
	if parens {
		sb.WriteString(")")
	}
}

func precOf(e Expr) int {
	switch e := e.(type) {
	case *If:
		return token.PrecNone
	case *LamCall:
		if e.IsOperator() {
			return token.OperatorPrec(e.Ident)
		}
	}
	return precAtom
}

func quote(s string) string {
	return `"` + s + `"`
}

// Dump writes an indented tree of the program to w.
func Dump(w io.Writer, p *Program) error {
	d := &dumper{w: w}
	for _, def := range p.Defs {
		d.node("", def, 0)
	}
	return d.err
}

type dumper struct {
	w   io.Writer
	err error
}

func (d *dumper) line(depth int, label, format string, args ...any) {
	if d.err != nil {
		return
	}
	prefix := strings.Repeat("  ", depth)
	if label != "" {
		prefix += label + ": "
	}
	_, d.err = fmt.Fprintf(d.w, prefix+format+"\n", args...)
}

func (d *dumper) node(label string, e Expr, depth int) {
	switch e := e.(type) {
	case *IntLit:
		d.line(depth, label, "Int %d", e.Value)
	case *StrLit:
		d.line(depth, label, "Str %q", e.Value)
	case *Var:
		d.line(depth, label, "Var %s", e.Name)
	case *Use:
		d.line(depth, label, "Use %q", e.Path)
	case *LamDef:
		params := "none"
		if e.ParamClause {
			params = "[" + strings.Join(e.Params, ", ") + "]"
		}
		d.line(depth, label, "LamDef %s (%s) params=%s", e.Ident, e.Style, params)
		d.node("body", e.Body, depth+1)
	case *LamCall:
		d.line(depth, label, "LamCall %s (%s)", e.Ident, e.Style)
		for _, arg := range e.Args {
			d.node("", arg, depth+1)
		}
	case *If:
		d.line(depth, label, "If")
		d.node("cond", e.Cond, depth+1)
		d.node("then", e.Then, depth+1)
		d.node("alter", e.Alter, depth+1)
	default:
		d.line(depth, label, "%T", e)
	}
}

// Package parser builds Karm syntax trees from source text.
//
// The parser is a recursive-descent parser with one token of lookahead.
// Binary operators are parsed by precedence climbing and represented as
// infix function calls. Parsing is fail-fast: the first SyntaxError aborts.
package parser

import (
	"strconv"

	"karmlang/karm/internal/ast"
	"karmlang/karm/internal/lexer"
	"karmlang/karm/internal/token"
	"karmlang/karm/karmerr"
)

// Parser owns the token cursor exclusively; nothing else advances it.
type Parser struct {
	lexer *lexer.Lexer
	next  token.Token
	ok    bool // false once the stream is exhausted
}

// New creates a parser for src and primes one token of lookahead.
func New(src string) *Parser {
	p := &Parser{lexer: lexer.New(src)}
	p.advance()
	return p
}

// Parse is a shorthand for New(src).Program().
func Parse(src string) (*ast.Program, error) {
	return New(src).Program()
}

// Program parses the whole token stream. An empty stream is a terminal
// condition reported as karmerr.ErrEmptyProgram.
func (p *Parser) Program() (*ast.Program, error) {
	if !p.ok {
		if p.lexer.Err() != nil {
			return nil, p.errorf([]token.Kind{token.Lam, token.Use})
		}
		return nil, karmerr.ErrEmptyProgram
	}

	prog := &ast.Program{}
	for p.ok {
		def, err := p.definition()
		if err != nil {
			return nil, err
		}
		prog.Defs = append(prog.Defs, def)
	}
	return prog, nil
}

// ParseExpr parses a single expression, optionally terminated by `;`, that
// must span the whole of src.
func ParseExpr(src string) (ast.Expr, error) {
	p := New(src)
	expr, err := p.ifExpr()
	if err != nil {
		return nil, err
	}
	if p.peek() == token.SemiColon {
		p.advance()
	}
	if p.ok {
		return nil, p.errorf(nil)
	}
	return expr, nil
}

func (p *Parser) advance() {
	p.next, p.ok = p.lexer.Next()
}

// peek returns the lookahead kind, or token.EOF when the stream is exhausted.
func (p *Parser) peek() token.Kind {
	if !p.ok {
		return token.EOF
	}
	return p.next.Kind
}

// errorf reports a failed expectation. The position is the lexer's current
// cursor, not the start of the offending token.
func (p *Parser) errorf(expected []token.Kind) *karmerr.SyntaxError {
	err := karmerr.NewSyntaxError(p.lexer.Line(), p.lexer.Col(), expected, p.peek())
	if !p.ok && p.lexer.Err() != nil {
		err.Msg = p.lexer.Err().Error()
	}
	return err
}

// eat consumes the lookahead if it has the expected kind. It never
// advances on failure.
func (p *Parser) eat(kind token.Kind) (token.Token, error) {
	if !p.ok || p.next.Kind != kind {
		return token.Token{}, p.errorf([]token.Kind{kind})
	}
	tok := p.next
	p.advance()
	return tok, nil
}

func (p *Parser) definition() (ast.Expr, error) {
	var (
		def ast.Expr
		err error
	)
	switch p.peek() {
	case token.Lam:
		def, err = p.lamDef()
	case token.Use:
		def, err = p.useDef()
	default:
		return nil, p.errorf([]token.Kind{token.Lam, token.Use})
	}
	if err != nil {
		return nil, err
	}

	if _, err := p.eat(token.SemiColon); err != nil {
		return nil, err
	}
	return def, nil
}

func (p *Parser) useDef() (ast.Expr, error) {
	kw, err := p.eat(token.Use)
	if err != nil {
		return nil, err
	}
	path, err := p.eat(token.String)
	if err != nil {
		return nil, err
	}
	return &ast.Use{Path: unquote(path.Lexeme), Pos: kw.Pos}, nil
}

func (p *Parser) lamDef() (ast.Expr, error) {
	kw, err := p.eat(token.Lam)
	if err != nil {
		return nil, err
	}
	id, err := p.eat(token.Ident)
	if err != nil {
		return nil, err
	}

	def := &ast.LamDef{Ident: id.Lexeme, Style: ast.Prefix, Pos: kw.Pos}
	if p.peek() == token.Bar {
		p.advance()
		def.Style = ast.Infix
	}

	if p.peek() == token.DoubleColon {
		p.advance()
		def.ParamClause = true
		def.Params = []string{}
		if p.peek() == token.Ident {
			for {
				param, err := p.eat(token.Ident)
				if err != nil {
					return nil, err
				}
				def.Params = append(def.Params, param.Lexeme)
				if p.peek() != token.Comma {
					break
				}
				p.advance()
			}
		}
	}

	if _, err := p.eat(token.Arrow); err != nil {
		return nil, err
	}

	def.Body, err = p.ifExpr()
	if err != nil {
		return nil, err
	}
	return def, nil
}

func (p *Parser) ifExpr() (ast.Expr, error) {
	if p.peek() != token.If {
		return p.binary(token.PrecComparison)
	}

	kw, _ := p.eat(token.If)
	cond, err := p.ifExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.eat(token.QMark); err != nil {
		return nil, err
	}
	then, err := p.ifExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.eat(token.Colon); err != nil {
		return nil, err
	}
	alter, err := p.ifExpr()
	if err != nil {
		return nil, err
	}
	return &ast.If{Cond: cond, Then: then, Alter: alter, Pos: kw.Pos}, nil
}

// binary parses one precedence tier, folding operators of that tier
// left-associatively over operands of the next tighter tier.
func (p *Parser) binary(prec int) (ast.Expr, error) {
	operand := func() (ast.Expr, error) {
		if prec == token.PrecMultiplicative {
			return p.factor()
		}
		return p.binary(prec + 1)
	}

	left, err := operand()
	if err != nil {
		return nil, err
	}
	for p.ok && p.next.Kind.Prec() == prec {
		op := p.next
		p.advance()
		right, err := operand()
		if err != nil {
			return nil, err
		}
		left = &ast.LamCall{
			Ident: op.Lexeme,
			Style: ast.Infix,
			Args:  []ast.Expr{left, right},
			Pos:   op.Pos,
		}
	}
	return left, nil
}

func (p *Parser) factor() (ast.Expr, error) {
	switch p.peek() {
	case token.Integer:
		tok := p.next
		v, err := strconv.ParseInt(tok.Lexeme, 10, 32)
		if err != nil {
			serr := p.errorf([]token.Kind{token.Integer})
			serr.Msg = "integer literal " + tok.Lexeme + " out of range"
			return nil, serr
		}
		p.advance()
		return &ast.IntLit{Value: int32(v), Pos: tok.Pos}, nil
	case token.String:
		tok := p.next
		p.advance()
		return &ast.StrLit{Value: unquote(tok.Lexeme), Pos: tok.Pos}, nil
	case token.LParen:
		p.advance()
		expr, err := p.ifExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.eat(token.RParen); err != nil {
			return nil, err
		}
		return expr, nil
	}
	return p.identExpr()
}

func (p *Parser) identExpr() (ast.Expr, error) {
	id, err := p.eat(token.Ident)
	if err != nil {
		return nil, err
	}
	if p.peek() != token.LParen {
		return &ast.Var{Name: id.Lexeme, Pos: id.Pos}, nil
	}
	p.advance()

	call := &ast.LamCall{Ident: id.Lexeme, Style: ast.Prefix, Pos: id.Pos}
	if p.peek() != token.RParen {
		for {
			arg, err := p.binary(token.PrecComparison)
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, arg)
			if p.peek() != token.Comma {
				break
			}
			p.advance()
		}
	}
	if _, err := p.eat(token.RParen); err != nil {
		return nil, err
	}
	return call, nil
}

// unquote strips the surrounding quotes of a string lexeme. String
// literals have no escape sequences.
func unquote(lexeme string) string {
	if len(lexeme) >= 2 && lexeme[0] == '"' && lexeme[len(lexeme)-1] == '"' {
		return lexeme[1 : len(lexeme)-1]
	}
	return lexeme
}

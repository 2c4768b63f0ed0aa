// Package lexer turns Karm source text into a pull-based stream of tokens.
package lexer

import (
	"fmt"
	"regexp"

	"karmlang/karm/internal/token"
)

type rule struct {
	re   *regexp.Regexp
	kind token.Kind
	skip bool
}

// Order matters: earlier rules win, so integers come before identifiers and
// two-character operators before their one-character prefixes.
var rules = []rule{
	{re: regexp.MustCompile(`^\d+`), kind: token.Integer},
	{re: regexp.MustCompile(`^\n`), kind: token.Newline, skip: true},
	{re: regexp.MustCompile(`^[ \t\r\f\v]+`), skip: true},
	{re: regexp.MustCompile(`^lam\b`), kind: token.Lam},
	{re: regexp.MustCompile(`^use\b`), kind: token.Use},
	{re: regexp.MustCompile(`^if\b`), kind: token.If},
	{re: regexp.MustCompile(`^::`), kind: token.DoubleColon},
	{re: regexp.MustCompile(`^:`), kind: token.Colon},
	{re: regexp.MustCompile(`^;`), kind: token.SemiColon},
	{re: regexp.MustCompile(`^\|`), kind: token.Bar},
	{re: regexp.MustCompile(`^"[^"\n]*"`), kind: token.String},
	{re: regexp.MustCompile(`^->`), kind: token.Arrow},
	{re: regexp.MustCompile(`^\*`), kind: token.Mul},
	{re: regexp.MustCompile(`^/`), kind: token.Div},
	{re: regexp.MustCompile(`^\+`), kind: token.Plus},
	{re: regexp.MustCompile(`^-`), kind: token.Min},
	{re: regexp.MustCompile(`^<=`), kind: token.Leq},
	{re: regexp.MustCompile(`^>=`), kind: token.Geq},
	{re: regexp.MustCompile(`^==`), kind: token.DoubleEq},
	{re: regexp.MustCompile(`^!=`), kind: token.Neq},
	{re: regexp.MustCompile(`^,`), kind: token.Comma},
	{re: regexp.MustCompile(`^\?`), kind: token.QMark},
	{re: regexp.MustCompile(`^\(`), kind: token.LParen},
	{re: regexp.MustCompile(`^\)`), kind: token.RParen},
	{re: regexp.MustCompile(`^\w+`), kind: token.Ident},
}

// Lexer scans a source string one token at a time. Tokens are never
// re-read: each call to Next consumes input.
type Lexer struct {
	src    string
	offset int
	line   int
	col    int
	err    error
}

func New(src string) *Lexer {
	return &Lexer{
		src:  src,
		line: 1,
		col:  1,
	}
}

// Next returns the next token. It returns false at the end of input, and
// also when the remaining input starts with a character no rule accepts;
// Err reports the latter case.
func (l *Lexer) Next() (token.Token, bool) {
	for l.offset < len(l.src) && l.err == nil {
		rest := l.src[l.offset:]

		matched := false
		for _, r := range rules {
			lexeme := r.re.FindString(rest)
			if lexeme == "" {
				continue
			}
			matched = true

			pos := token.Pos{Line: l.line, Col: l.col}
			l.offset += len(lexeme)
			if r.kind == token.Newline {
				l.line++
				l.col = 1
			} else {
				l.col += len(lexeme)
			}

			if r.skip {
				break
			}
			return token.Token{Kind: r.kind, Lexeme: lexeme, Pos: pos}, true
		}

		if !matched {
			l.err = fmt.Errorf("unexpected character %q at %d:%d", rest[0], l.line, l.col)
		}
	}
	return token.Token{}, false
}

// Line returns the current 1-based line of the cursor.
func (l *Lexer) Line() int { return l.line }

// Col returns the current 1-based column of the cursor.
func (l *Lexer) Col() int { return l.col }

// Pos returns the current cursor position.
func (l *Lexer) Pos() token.Pos {
	return token.Pos{Line: l.line, Col: l.col}
}

// Err returns the error that stopped the lexer early, if any.
func (l *Lexer) Err() error {
	return l.err
}


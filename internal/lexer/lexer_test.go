package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"karmlang/karm/internal/token"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func scan(src string) ([]token.Token, error) {
	l := New(src)
	var toks []token.Token
	for {
		tok, ok := l.Next()
		if !ok {
			break
		}
		toks = append(toks, tok)
	}
	return toks, l.Err()
}

func TestLexerKinds(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []token.Kind
	}{
		{
			name:  "function definition",
			input: `lam fib :: n -> n;`,
			want:  []token.Kind{token.Lam, token.Ident, token.DoubleColon, token.Ident, token.Arrow, token.Ident, token.SemiColon},
		},
		{
			name:  "two char operators before one char",
			input: `<= >= == != :: :`,
			want:  []token.Kind{token.Leq, token.Geq, token.DoubleEq, token.Neq, token.DoubleColon, token.Colon},
		},
		{
			name:  "arithmetic",
			input: `1+2*3/4-5`,
			want:  []token.Kind{token.Integer, token.Plus, token.Integer, token.Mul, token.Integer, token.Div, token.Integer, token.Min, token.Integer},
		},
		{
			name:  "keywords need word boundary",
			input: `lambda user iffy lam use if`,
			want:  []token.Kind{token.Ident, token.Ident, token.Ident, token.Lam, token.Use, token.If},
		},
		{
			name:  "integer before identifier",
			input: `12abc`,
			want:  []token.Kind{token.Integer, token.Ident},
		},
		{
			name:  "ternary and call",
			input: `if f(a, "x") ? 1 : 2`,
			want:  []token.Kind{token.If, token.Ident, token.LParen, token.Ident, token.Comma, token.String, token.RParen, token.QMark, token.Integer, token.Colon, token.Integer},
		},
		{
			name:  "infix marker",
			input: `lam add | :: a, b -> a + b;`,
			want:  []token.Kind{token.Lam, token.Ident, token.Bar, token.DoubleColon, token.Ident, token.Comma, token.Ident, token.Arrow, token.Ident, token.Plus, token.Ident, token.SemiColon},
		},
		{
			name:  "empty input",
			input: "",
			want:  []token.Kind{},
		},
		{
			name:  "whitespace only",
			input: " \t\n\n  ",
			want:  []token.Kind{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := scan(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, kinds(toks))
		})
	}
}

func TestLexerLexemes(t *testing.T) {
	toks, err := scan(`use "std/math";`)
	require.NoError(t, err)
	require.Len(t, toks, 3)
	assert.Equal(t, "use", toks[0].Lexeme)
	assert.Equal(t, `"std/math"`, toks[1].Lexeme)
	assert.Equal(t, ";", toks[2].Lexeme)
}

func TestLexerPositions(t *testing.T) {
	toks, err := scan("lam f ->\n  x + 10;")
	require.NoError(t, err)

	want := []token.Pos{
		{Line: 1, Col: 1},  // lam
		{Line: 1, Col: 5},  // f
		{Line: 1, Col: 7},  // ->
		{Line: 2, Col: 3},  // x
		{Line: 2, Col: 5},  // +
		{Line: 2, Col: 7},  // 10
		{Line: 2, Col: 9},  // ;
	}
	require.Len(t, toks, len(want))
	for i, p := range want {
		assert.Equal(t, p, toks[i].Pos, "token %d (%s)", i, toks[i].Lexeme)
	}
}

func TestLexerCursor(t *testing.T) {
	l := New("lam f -> 1")
	for {
		if _, ok := l.Next(); !ok {
			break
		}
	}
	assert.Equal(t, 1, l.Line())
	assert.Equal(t, 11, l.Col())
	assert.NoError(t, l.Err())

	l = New("a\nb\n")
	l.Next()
	l.Next()
	l.Next()
	assert.Equal(t, token.Pos{Line: 3, Col: 1}, l.Pos())
}

func TestLexerUnknownCharacter(t *testing.T) {
	l := New("x $ y")

	tok, ok := l.Next()
	require.True(t, ok)
	assert.Equal(t, token.Ident, tok.Kind)

	_, ok = l.Next()
	assert.False(t, ok)
	require.Error(t, l.Err())
	assert.Contains(t, l.Err().Error(), "unexpected character")
	assert.Equal(t, token.Pos{Line: 1, Col: 3}, l.Pos())

	// The stream stays exhausted.
	_, ok = l.Next()
	assert.False(t, ok)
}

func TestLexerStringsStayOnOneLine(t *testing.T) {
	toks, err := scan("\"ab\"\n\"cd\"")
	require.NoError(t, err)
	require.Len(t, toks, 2)
	assert.Equal(t, token.Pos{Line: 2, Col: 1}, toks[1].Pos)

	toks, err = scan("lam s -> \"ab\ncd\";")
	require.Error(t, err)
	assert.Equal(t, []token.Kind{token.Lam, token.Ident, token.Arrow}, kinds(toks))
	assert.Equal(t, `unexpected character '"' at 1:10`, err.Error())
}

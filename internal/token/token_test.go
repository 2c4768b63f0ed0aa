package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindPrec(t *testing.T) {
	cases := map[Kind]int{
		Mul:       PrecMultiplicative,
		Div:       PrecMultiplicative,
		Plus:      PrecAdditive,
		Min:       PrecAdditive,
		Leq:       PrecComparison,
		Geq:       PrecComparison,
		DoubleEq:  PrecComparison,
		Neq:       PrecComparison,
		Ident:     PrecNone,
		SemiColon: PrecNone,
		EOF:       PrecNone,
	}

	for k, want := range cases {
		assert.Equal(t, want, k.Prec(), "precedence of %s", k)
	}
}

func TestOperatorPrec(t *testing.T) {
	assert.Equal(t, PrecMultiplicative, OperatorPrec("*"))
	assert.Equal(t, PrecAdditive, OperatorPrec("-"))
	assert.Equal(t, PrecComparison, OperatorPrec("!="))
	assert.Equal(t, PrecNone, OperatorPrec("fib"))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "SemiColon", SemiColon.String())
	assert.Equal(t, "DoubleColon", DoubleColon.String())
	assert.Equal(t, "EOF", EOF.String())
	assert.Equal(t, "Kind(99)", Kind(99).String())
}

func TestTokenString(t *testing.T) {
	tok := Token{Kind: Ident, Lexeme: "fib", Pos: Pos{Line: 2, Col: 5}}
	assert.Equal(t, "{Ident 'fib' 2:5}", tok.String())
	assert.True(t, tok.Pos.IsValid())
	assert.False(t, Pos{}.IsValid())
}

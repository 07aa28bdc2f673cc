package hql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapql/pkg/token"
)

func TestLexer_Tokens(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []token.TokenType
	}{
		{
			name:  "select with alias",
			input: "select a.basic from Something a",
			want:  []token.TokenType{token.SELECT, token.IDENT, token.DOT, token.IDENT, token.FROM, token.IDENT, token.IDENT, token.EOF},
		},
		{
			name:  "comparison operators",
			input: "< <= > >= = <> != ^=",
			want:  []token.TokenType{token.LT, token.LE, token.GT, token.GE, token.EQ, token.NE, token.NE, token.NE, token.EOF},
		},
		{
			name:  "parameters",
			input: ":name ?1",
			want:  []token.TokenType{token.NAMED_PARAM, token.POS_PARAM, token.EOF},
		},
		{
			name:  "comments are skipped",
			input: "-- line\nselect /* block */ x",
			want:  []token.TokenType{token.SELECT, token.IDENT, token.EOF},
		},
		{
			name:  "index access",
			input: "a.list[0]",
			want:  []token.TokenType{token.IDENT, token.DOT, token.IDENT, token.LBRACKET, token.NUMBER, token.RBRACKET, token.EOF},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []token.TokenType
			for _, tok := range Tokenize(tt.input) {
				got = append(got, tok.Type)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLexer_Literals(t *testing.T) {
	toks := Tokenize("'it''s' 10L 1.5BD 2e10 \"quoted id\"")
	require.Len(t, toks, 6)
	assert.Equal(t, "it's", toks[0].Literal)
	assert.Equal(t, "10L", toks[1].Literal)
	assert.Equal(t, "1.5BD", toks[2].Literal)
	assert.Equal(t, "2e10", toks[3].Literal)
	assert.Equal(t, token.IDENT, toks[4].Type)
	assert.Equal(t, "quoted id", toks[4].Literal)
}

func TestLexer_Positions(t *testing.T) {
	toks := Tokenize("select\n  a")
	require.Len(t, toks, 3)
	assert.Equal(t, token.Position{Line: 1, Column: 1, Offset: 0}, toks[0].Pos)
	assert.Equal(t, 2, toks[1].Pos.Line)
	assert.Equal(t, 3, toks[1].Pos.Column)
}

func TestLexer_Errors(t *testing.T) {
	toks := Tokenize("'open")
	require.Len(t, toks, 1)
	assert.Equal(t, token.ILLEGAL, toks[0].Type)
	assert.Equal(t, ErrUnterminatedString, toks[0].Literal)

	toks = Tokenize("a ? b")
	assert.Equal(t, token.ILLEGAL, toks[len(toks)-1].Type)
}

package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupIdent(t *testing.T) {
	tests := []struct {
		in   string
		want TokenType
	}{
		{"select", SELECT},
		{"SELECT", SELECT},
		{"Fetch", FETCH},
		{"new", NEW},
		{"type", IDENT},
		{"treat", IDENT},
		{"entity", IDENT},
		{"list", IDENT},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, LookupIdent(tt.in))
		})
	}
}

func TestTokenTypeString(t *testing.T) {
	assert.Equal(t, "JOIN", JOIN.String())
	assert.Equal(t, "<=", LE.String())
	assert.Equal(t, "TOKEN(9999)", TokenType(9999).String())
	assert.True(t, WHERE.IsKeyword())
	assert.False(t, IDENT.IsKeyword())
}

func TestPosition(t *testing.T) {
	assert.False(t, Position{}.IsValid())
	assert.Equal(t, "2:5", Position{Line: 2, Column: 5}.String())
	s := Span{Start: Position{Line: 1, Column: 1, Offset: 0}, End: Position{Line: 1, Column: 4, Offset: 3}}
	assert.True(t, s.Contains(2))
	assert.False(t, s.Contains(3))
}

// Package token defines the lexical tokens of the LeapQL object query language.
//
// Only reserved words get their own token type. Words such as TYPE, TREAT,
// ESCAPE, LIST or MAP are lexed as identifiers and recognised by the parser
// from context, so they remain usable as attribute names.
package token

import (
	"fmt"
	"strings"
)

// TokenType represents the type of a lexical token.
//
//nolint:revive // token.TokenType mirrors the parser vocabulary
type TokenType int32

const (
	// Special tokens
	EOF TokenType = iota
	ILLEGAL

	// Literals
	IDENT       // identifier
	NUMBER      // 123, 45.67, 1e10, 10L, 1.5BD
	STRING      // 'hello'
	NAMED_PARAM // :name
	POS_PARAM   // ?1

	// Operators
	PLUS     // +
	MINUS    // -
	STAR     // *
	SLASH    // /
	PERCENT  // %
	DPIPE    // ||
	EQ       // =
	NE       // != or <>
	LT       // <
	GT       // >
	LE       // <=
	GE       // >=
	DOT      // .
	COMMA    // ,
	LPAREN   // (
	RPAREN   // )
	LBRACKET // [
	RBRACKET // ]

	// Keywords (alphabetical)
	AND
	AS
	ASC
	BETWEEN
	BY
	CROSS
	DELETE
	DESC
	DISTINCT
	EXISTS
	FALSE
	FETCH
	FROM
	FULL
	IN
	INNER
	INSERT
	INTO
	IS
	JOIN
	LEFT
	LIKE
	NEW
	NOT
	NULL
	ON
	OR
	ORDER
	OUTER
	RIGHT
	SELECT
	SET
	TRUE
	UPDATE
	WHERE
	WITH
)

// String returns a human-readable representation of the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", t)
}

// IsKeyword reports whether t is a reserved word.
func (t TokenType) IsKeyword() bool {
	return t >= AND && t <= WITH
}

var tokenNames = map[TokenType]string{
	EOF:     "EOF",
	ILLEGAL: "ILLEGAL",

	IDENT:       "IDENT",
	NUMBER:      "NUMBER",
	STRING:      "STRING",
	NAMED_PARAM: "NAMED_PARAM",
	POS_PARAM:   "POS_PARAM",

	PLUS:     "+",
	MINUS:    "-",
	STAR:     "*",
	SLASH:    "/",
	PERCENT:  "%",
	DPIPE:    "||",
	EQ:       "=",
	NE:       "!=",
	LT:       "<",
	GT:       ">",
	LE:       "<=",
	GE:       ">=",
	DOT:      ".",
	COMMA:    ",",
	LPAREN:   "(",
	RPAREN:   ")",
	LBRACKET: "[",
	RBRACKET: "]",

	AND:      "AND",
	AS:       "AS",
	ASC:      "ASC",
	BETWEEN:  "BETWEEN",
	BY:       "BY",
	CROSS:    "CROSS",
	DELETE:   "DELETE",
	DESC:     "DESC",
	DISTINCT: "DISTINCT",
	EXISTS:   "EXISTS",
	FALSE:    "FALSE",
	FETCH:    "FETCH",
	FROM:     "FROM",
	FULL:     "FULL",
	IN:       "IN",
	INNER:    "INNER",
	INSERT:   "INSERT",
	INTO:     "INTO",
	IS:       "IS",
	JOIN:     "JOIN",
	LEFT:     "LEFT",
	LIKE:     "LIKE",
	NEW:      "NEW",
	NOT:      "NOT",
	NULL:     "NULL",
	ON:       "ON",
	OR:       "OR",
	ORDER:    "ORDER",
	OUTER:    "OUTER",
	RIGHT:    "RIGHT",
	SELECT:   "SELECT",
	SET:      "SET",
	TRUE:     "TRUE",
	UPDATE:   "UPDATE",
	WHERE:    "WHERE",
	WITH:     "WITH",
}

// keywords maps lowercase keyword strings to their token types.
var keywords = func() map[string]TokenType {
	m := make(map[string]TokenType)
	for t := AND; t <= WITH; t++ {
		m[strings.ToLower(tokenNames[t])] = t
	}
	return m
}()

// LookupIdent returns the keyword token type for ident, or IDENT.
func LookupIdent(ident string) TokenType {
	if t, ok := keywords[strings.ToLower(ident)]; ok {
		return t
	}
	return IDENT
}

// Token is a lexical token with its position in the query text.
type Token struct {
	Type    TokenType
	Literal string
	Pos     Position
}

func (t Token) String() string {
	if t.Literal == "" {
		return t.Type.String()
	}
	return fmt.Sprintf("%s(%s)", t.Type, t.Literal)
}

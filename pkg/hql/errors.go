package hql

import (
	"fmt"

	"github.com/leapstack-labs/leapql/pkg/token"
)

// ParseError represents a grammar error with position information.
type ParseError struct {
	Pos     token.Position
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// Common error messages
const (
	ErrUnexpectedToken    = "unexpected token %s, expected %s"
	ErrUnexpectedInput    = "unexpected %s"
	ErrUnterminatedString = "unterminated string literal"
	ErrInvalidNumber      = "invalid number literal %q"
	ErrInvalidParameter   = "invalid ordinal parameter %q"
	ErrIllegalCharacter   = "illegal character %q"
	ErrMixedParameters    = "cannot mix named and ordinal parameters"
	ErrEmptyStatement     = "empty statement"
)

package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for classification with errors.Is.
var (
	// ErrSemantic marks bad input relative to the domain model.
	ErrSemantic = errors.New("semantic error")
	// ErrParsing marks an internal invariant violation inside the compiler.
	ErrParsing = errors.New("internal compiler error")
	// ErrNotYetImplemented marks a recognised construct that is not supported yet.
	ErrNotYetImplemented = errors.New("not yet implemented")
)

// SemanticError reports a query that is invalid relative to the domain model:
// an unresolved entity or attribute, a duplicate alias, an illegal join predicate.
type SemanticError struct {
	Message string
	// Text is the offending query fragment or alias, if known.
	Text string
}

func (e *SemanticError) Error() string {
	if e.Text == "" {
		return e.Message
	}
	return fmt.Sprintf("%s [%s]", e.Message, e.Text)
}

// Is reports whether target is ErrSemantic.
func (e *SemanticError) Is(target error) bool { return target == ErrSemantic }

// Semanticf builds a SemanticError from a format string.
func Semanticf(text, format string, args ...any) *SemanticError {
	return &SemanticError{Message: fmt.Sprintf(format, args...), Text: text}
}

// ParsingError is an internal invariant violation. It indicates a defect in
// the compiler rather than bad input.
type ParsingError struct {
	Message string
}

func (e *ParsingError) Error() string {
	return "internal compiler error: " + e.Message
}

// Is reports whether target is ErrParsing.
func (e *ParsingError) Is(target error) bool { return target == ErrParsing }

// Internalf builds a ParsingError from a format string.
func Internalf(format string, args ...any) *ParsingError {
	return &ParsingError{Message: fmt.Sprintf(format, args...)}
}

// NotYetImplementedError reports a construct the compiler recognises but does not support.
type NotYetImplementedError struct {
	Construct string
}

func (e *NotYetImplementedError) Error() string {
	return "not yet implemented: " + e.Construct
}

// Is reports whether target is ErrNotYetImplemented.
func (e *NotYetImplementedError) Is(target error) bool { return target == ErrNotYetImplemented }

// NotYetImplemented builds a NotYetImplementedError for construct.
func NotYetImplemented(construct string) *NotYetImplementedError {
	return &NotYetImplementedError{Construct: construct}
}

// UnsupportedJoinTypeError is returned when a join kind has no SQL rendering.
// It is a semantic error.
type UnsupportedJoinTypeError struct {
	JoinType JoinType
}

func (e *UnsupportedJoinTypeError) Error() string {
	return fmt.Sprintf("unsupported join type %s: only INNER, LEFT and CROSS joins are supported", e.JoinType)
}

// Is reports whether target is ErrSemantic.
func (e *UnsupportedJoinTypeError) Is(target error) bool { return target == ErrSemantic }

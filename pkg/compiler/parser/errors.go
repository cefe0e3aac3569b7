package parser

import (
	"fmt"

	"github.com/zurustar/gamelang/pkg/compiler/token"
)

// ParseError is returned when the next token does not match what the grammar expects.
type ParseError struct {
	Expected      token.Kind
	ExpectedValue string // empty when any literal is acceptable
	Actual        token.Kind
	ActualValue   string
	Line          int
	Column        int
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	expected := e.Expected.String()
	if e.ExpectedValue != "" {
		expected += fmt.Sprintf(" %q", e.ExpectedValue)
	}
	actual := e.Actual.String()
	if e.ActualValue != "" {
		actual += fmt.Sprintf(" %q", e.ActualValue)
	}
	return fmt.Sprintf("expected %s, got %s at line %d, column %d", expected, actual, e.Line, e.Column)
}

// UnknownExpressionError is returned when no expression can start at the current token.
type UnknownExpressionError struct {
	Kind   token.Kind
	Value  string
	Line   int
	Column int
}

// Error implements the error interface.
func (e *UnknownExpressionError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("unknown expression: %s at line %d, column %d", e.Kind, e.Line, e.Column)
	}
	return fmt.Sprintf("unknown expression: %s %q at line %d, column %d", e.Kind, e.Value, e.Line, e.Column)
}

func newParseError(expected token.Kind, expectedValue string, actual token.Token) *ParseError {
	return &ParseError{
		Expected:      expected,
		ExpectedValue: expectedValue,
		Actual:        actual.Kind,
		ActualValue:   actual.Literal,
		Line:          actual.Line,
		Column:        actual.Column,
	}
}

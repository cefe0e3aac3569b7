package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zurustar/gamelang/pkg/compiler/lexer"
	"github.com/zurustar/gamelang/pkg/compiler/parser"
)

// Compilation phases reported in CompileError.Phase.
const (
	PhaseLexer  = "lexer"
	PhaseParser = "parser"
)

// CompileError represents a structured compilation error with location information.
// Context holds the surrounding source lines with a pointer (^) at the error column.
type CompileError struct {
	// Phase is "lexer" or "parser".
	Phase string

	// Message is the human-readable error description.
	Message string

	// Line is the 1-indexed line number where the error occurred.
	Line int

	// Column is the 1-indexed column number where the error occurred.
	Column int

	// Context contains the source code around the error location.
	Context string

	// Err is the underlying lexer or parser error.
	Err error
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s error at line %d, column %d: %s\n%s",
			e.Phase, e.Line, e.Column, e.Message, e.Context)
	}
	return fmt.Sprintf("%s error at line %d, column %d: %s",
		e.Phase, e.Line, e.Column, e.Message)
}

// Unwrap returns the underlying lexer or parser error.
func (e *CompileError) Unwrap() error {
	return e.Err
}

// WrapError converts a lexer or parser error into a CompileError with source
// context. Errors of other types are wrapped with line and column 0.
func WrapError(err error, source string) *CompileError {
	ce := &CompileError{Message: err.Error(), Err: err}

	var lexErr *lexer.LexError
	var parseErr *parser.ParseError
	var unknownErr *parser.UnknownExpressionError
	switch {
	case errors.As(err, &lexErr):
		ce.Phase = PhaseLexer
		ce.Message = lexErr.Message
		ce.Line, ce.Column = lexErr.Line, lexErr.Column
	case errors.As(err, &parseErr):
		ce.Phase = PhaseParser
		ce.Line, ce.Column = parseErr.Line, parseErr.Column
		ce.Message = trimLocation(err.Error())
	case errors.As(err, &unknownErr):
		ce.Phase = PhaseParser
		ce.Line, ce.Column = unknownErr.Line, unknownErr.Column
		ce.Message = trimLocation(err.Error())
	default:
		ce.Phase = PhaseParser
	}

	ce.Context = GenerateErrorContext(source, ce.Line, ce.Column)
	return ce
}

// IsCompileError reports whether err is a *CompileError and returns it.
func IsCompileError(err error) (*CompileError, bool) {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// trimLocation drops the " at line N, column M" suffix, which CompileError
// reports separately.
func trimLocation(msg string) string {
	if idx := strings.LastIndex(msg, " at line "); idx >= 0 {
		return msg[:idx]
	}
	return msg
}

// GenerateErrorContext generates source code context around an error location.
// It includes 2 lines before and 2 lines after the error line, with line numbers
// and a pointer (^) indicating the error column.
//
// Example output:
//
//	  2 | hero.x = 1
//	  3 | hero.y = 2
//	> 4 | background 5
//	    |            ^
//	  5 | every frame:
//	  6 |     hero.x += 1
func GenerateErrorContext(source string, line, column int) string {
	if source == "" || line <= 0 {
		return ""
	}

	lines := strings.Split(source, "\n")
	if line > len(lines) {
		return ""
	}

	start := line - 3
	if start < 0 {
		start = 0
	}
	end := line + 2
	if end > len(lines) {
		end = len(lines)
	}

	var buf strings.Builder
	lineNumWidth := len(fmt.Sprintf("%d", end))

	for i := start; i < end; i++ {
		lineNum := i + 1
		lineContent := strings.TrimRight(lines[i], "\r")

		if lineNum != line {
			buf.WriteString(fmt.Sprintf("  %*d | %s\n", lineNumWidth, lineNum, lineContent))
			continue
		}

		buf.WriteString(fmt.Sprintf("> %*d | %s\n", lineNumWidth, lineNum, lineContent))
		pad := strings.Repeat(" ", lineNumWidth)
		if column > 0 {
			buf.WriteString(fmt.Sprintf("  %s | %s^\n", pad, strings.Repeat(" ", column-1)))
		} else {
			buf.WriteString(fmt.Sprintf("  %s | ^\n", pad))
		}
	}

	return buf.String()
}

package compiler

import (
	"errors"
	"strings"
	"testing"

	"github.com/zurustar/gamelang/pkg/compiler/lexer"
	"github.com/zurustar/gamelang/pkg/compiler/parser"
	"github.com/zurustar/gamelang/pkg/compiler/token"
)

func TestCompileError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *CompileError
		contains []string
	}{
		{
			name:     "lexer error without context",
			err:      &CompileError{Phase: PhaseLexer, Message: "unterminated string literal", Line: 5, Column: 10},
			contains: []string{"lexer error", "line 5", "column 10", "unterminated string literal"},
		},
		{
			name:     "parser error with context",
			err:      &CompileError{Phase: PhaseParser, Message: "unexpected token", Line: 3, Column: 5, Context: "> 3 | x = )\n"},
			contains: []string{"parser error", "line 3", "column 5", "unexpected token", "> 3 |"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errStr := tt.err.Error()
			for _, substr := range tt.contains {
				if !strings.Contains(errStr, substr) {
					t.Errorf("Error() = %q, want to contain %q", errStr, substr)
				}
			}
		})
	}
}

func TestWrapError(t *testing.T) {
	source := "a = 1\nb = (\nc = 3"

	tests := []struct {
		name    string
		err     error
		phase   string
		message string
		line    int
		column  int
	}{
		{
			name:    "lex error",
			err:     &lexer.LexError{Message: "unterminated string literal", Line: 1, Column: 5},
			phase:   PhaseLexer,
			message: "unterminated string literal",
			line:    1,
			column:  5,
		},
		{
			name: "parse error",
			err: &parser.ParseError{
				Expected: token.SYMBOL, ExpectedValue: ")",
				Actual: token.NEWLINE, Line: 2, Column: 6,
			},
			phase:   PhaseParser,
			message: `expected SYMBOL ")", got NEWLINE`,
			line:    2,
			column:  6,
		},
		{
			name:    "unknown expression",
			err:     &parser.UnknownExpressionError{Kind: token.NEWLINE, Line: 2, Column: 6},
			phase:   PhaseParser,
			message: "unknown expression: NEWLINE",
			line:    2,
			column:  6,
		},
		{
			name:    "other error",
			err:     errors.New("boom"),
			phase:   PhaseParser,
			message: "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ce := WrapError(tt.err, source)
			if ce.Phase != tt.phase || ce.Message != tt.message || ce.Line != tt.line || ce.Column != tt.column {
				t.Errorf("WrapError = {%s %q %d:%d}, want {%s %q %d:%d}",
					ce.Phase, ce.Message, ce.Line, ce.Column, tt.phase, tt.message, tt.line, tt.column)
			}
			if !errors.Is(ce, tt.err) {
				t.Error("CompileError does not unwrap to the original error")
			}
			if tt.line > 0 && ce.Context == "" {
				t.Error("Context should not be empty")
			}
		})
	}
}

func TestIsCompileError(t *testing.T) {
	if _, ok := IsCompileError(errors.New("plain")); ok {
		t.Error("plain error reported as CompileError")
	}
	if _, ok := IsCompileError(nil); ok {
		t.Error("nil reported as CompileError")
	}
	ce, ok := IsCompileError(&CompileError{Phase: PhaseLexer})
	if !ok || ce.Phase != PhaseLexer {
		t.Error("CompileError not detected")
	}
}

func TestGenerateErrorContext(t *testing.T) {
	source := `a = 1
b = 2
c = 3
d = )
e = 5
f = 6
g = 7`

	tests := []struct {
		name        string
		source      string
		line        int
		column      int
		contains    []string
		notContains []string
	}{
		{
			name:   "error in middle of file",
			source: source,
			line:   4,
			column: 5,
			contains: []string{
				"2 | b = 2", "3 | c = 3",
				"> 4 | d = )", "^",
				"5 | e = 5", "6 | f = 6",
			},
			notContains: []string{"1 |", "7 |"},
		},
		{
			name:        "error at beginning of file",
			source:      source,
			line:        1,
			column:      1,
			contains:    []string{"> 1 | a = 1", "2 | b = 2", "3 | c = 3"},
			notContains: []string{"4 |"},
		},
		{
			name:        "error at end of file",
			source:      source,
			line:        7,
			column:      3,
			contains:    []string{"5 | e = 5", "6 | f = 6", "> 7 | g = 7"},
			notContains: []string{"4 |"},
		},
		{name: "empty source", source: "", line: 1, column: 1},
		{name: "invalid line number", source: source, line: 0, column: 1},
		{name: "line number exceeds source", source: source, line: 100, column: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			context := GenerateErrorContext(tt.source, tt.line, tt.column)
			if len(tt.contains) == 0 && context != "" {
				t.Errorf("expected empty context, got %q", context)
			}
			for _, substr := range tt.contains {
				if !strings.Contains(context, substr) {
					t.Errorf("GenerateErrorContext() = %q, want to contain %q", context, substr)
				}
			}
			for _, substr := range tt.notContains {
				if strings.Contains(context, substr) {
					t.Errorf("GenerateErrorContext() = %q, should not contain %q", context, substr)
				}
			}
		})
	}
}

func TestGenerateErrorContext_PointerPosition(t *testing.T) {
	source := "hero.x = )"

	for _, column := range []int{1, 5, 10} {
		context := GenerateErrorContext(source, 1, column)
		lines := strings.Split(context, "\n")
		if len(lines) < 2 {
			t.Fatalf("context has %d lines, want at least 2", len(lines))
		}

		// "> 1 | " is six characters wide, so the caret sits at 6 + column - 1.
		caret := strings.Index(lines[1], "^")
		if caret != 6+column-1 {
			t.Errorf("column %d: caret at %d, want %d\n%s", column, caret, 6+column-1, context)
		}
	}
}

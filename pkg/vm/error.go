package vm

import (
	"fmt"
)

// ErrorType represents the type of runtime error.
type ErrorType string

const (
	ErrorUndefinedFunc    ErrorType = "UNDEFINED_FUNCTION"
	ErrorUndefinedSprite  ErrorType = "UNDEFINED_SPRITE"
	ErrorInvalidOperation ErrorType = "INVALID_OPERATION"
	ErrorStackOverflow    ErrorType = "STACK_OVERFLOW"
	ErrorUnsupportedStmt  ErrorType = "UNSUPPORTED_STATEMENT"
)

// RuntimeError represents an error raised while interpreting a program.
type RuntimeError struct {
	Type    ErrorType
	Message string
	Line    int // source line, -1 if unknown
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Line >= 0 {
		return fmt.Sprintf("[%s] %s at line %d", e.Type, e.Message, e.Line)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// IsFatal reports whether the error aborts the statement that raised it.
// Every other error is a logged diagnostic and execution continues.
func (e *RuntimeError) IsFatal() bool {
	return e.Type == ErrorStackOverflow
}

// NewRuntimeError creates a new RuntimeError without line information.
func NewRuntimeError(errType ErrorType, message string) *RuntimeError {
	return &RuntimeError{Type: errType, Message: message, Line: -1}
}

// NewRuntimeErrorWithLine creates a new RuntimeError with line information.
func NewRuntimeErrorWithLine(errType ErrorType, message string, line int) *RuntimeError {
	return &RuntimeError{Type: errType, Message: message, Line: line}
}

// NewUndefinedFunctionError creates an undefined function error.
func NewUndefinedFunctionError(name string, line int) *RuntimeError {
	return NewRuntimeErrorWithLine(ErrorUndefinedFunc, fmt.Sprintf("function not found: %s", name), line)
}

// NewUndefinedSpriteError creates an undefined sprite error.
func NewUndefinedSpriteError(name string) *RuntimeError {
	return NewRuntimeError(ErrorUndefinedSprite, fmt.Sprintf("sprite not found: %s", name))
}

// NewInvalidOperationError creates an unsupported operator error.
func NewInvalidOperationError(op string, line int) *RuntimeError {
	return NewRuntimeErrorWithLine(ErrorInvalidOperation, fmt.Sprintf("unsupported operator: %s", op), line)
}

// NewStackOverflowError creates a stack overflow error.
func NewStackOverflowError(depth, line int) *RuntimeError {
	return NewRuntimeErrorWithLine(ErrorStackOverflow, fmt.Sprintf("call depth exceeded %d", depth), line)
}

// NewUnsupportedStatementError creates an error for a statement the
// interpreter cannot execute.
func NewUnsupportedStatementError(kind string, line int) *RuntimeError {
	return NewRuntimeErrorWithLine(ErrorUnsupportedStmt, fmt.Sprintf("unsupported statement: %s", kind), line)
}

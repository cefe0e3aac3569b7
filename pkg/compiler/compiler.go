// Package compiler provides the front-end pipeline for Gamelang scripts:
// lexing followed by parsing into an AST.
//
// Both phases are error tolerant. Compile always returns a program holding
// every statement that parsed, together with the errors of the lines that
// did not; callers decide whether errors are fatal.
package compiler

import (
	"fmt"
	"path/filepath"

	"github.com/zurustar/gamelang/pkg/compiler/ast"
	"github.com/zurustar/gamelang/pkg/compiler/lexer"
	"github.com/zurustar/gamelang/pkg/compiler/parser"
	"github.com/zurustar/gamelang/pkg/compiler/token"
	"github.com/zurustar/gamelang/pkg/fileutil"
	"github.com/zurustar/gamelang/pkg/script"
)

// Compile tokenizes and parses source. Lexer and parser errors are returned
// as *CompileError values carrying source context.
func Compile(source string) (*ast.Program, []error) {
	tokens, lexErrs := lexer.Tokenize(source)
	program, parseErrs := parser.New(tokens).ParseProgram()

	var errs []error
	for _, err := range lexErrs {
		errs = append(errs, WrapError(err, source))
	}
	for _, err := range parseErrs {
		errs = append(errs, WrapError(err, source))
	}
	return program, errs
}

// Tokens returns the token stream for source, for diagnostics.
func Tokens(source string) ([]token.Token, []error) {
	tokens, lexErrs := lexer.Tokenize(source)
	var errs []error
	for _, err := range lexErrs {
		errs = append(errs, WrapError(err, source))
	}
	return tokens, errs
}

// CompileFile loads the script at path, decodes it from encoding and compiles it.
// The returned Script is nil only when the file could not be loaded.
func CompileFile(path, encoding string) (*script.Script, *ast.Program, []error) {
	loader := script.NewLoader(fileutil.NewRealFS(filepath.Dir(path)), script.WithEncoding(encoding))
	s, err := loader.Load(filepath.Base(path))
	if err != nil {
		return nil, nil, []error{fmt.Errorf("failed to load %s: %w", path, err)}
	}

	program, errs := Compile(s.Content)
	return s, program, errs
}

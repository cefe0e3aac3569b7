// Package lexer provides lexical analysis for Gamelang scripts.
//
// Source is processed one physical line at a time: everything from the first
// '#' to the end of the line is discarded (there is no escaping, so a '#'
// inside a string literal also starts a comment), the indentation depth is
// derived from the leading whitespace, and the remaining text is scanned into
// tokens. Every non-blank line ends with exactly one NEWLINE token and a line
// with a non-zero depth starts with an INDENT token.
package lexer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zurustar/gamelang/pkg/compiler/token"
)

// SpacesPerIndent is the number of leading spaces that make up one indentation level.
// A tab counts as SpacesPerIndent spaces.
const SpacesPerIndent = 4

// punctuation closes any pending bare word and produces a symbol token.
const punctuation = "()=:.,+-*/<>!"

// LexError is reported for a line that cannot be tokenized.
// The offending line contributes no tokens to the stream.
type LexError struct {
	Message string
	Line    int
	Column  int
}

// Error implements the error interface.
func (e *LexError) Error() string {
	return fmt.Sprintf("%s at line %d, column %d", e.Message, e.Line, e.Column)
}

// Tokenize converts source text into a flat token stream terminated by EOF.
// Lines that fail to tokenize are skipped and their errors returned; the rest
// of the program is still tokenized.
func Tokenize(source string) ([]token.Token, []error) {
	var tokens []token.Token
	var errs []error

	lines := strings.Split(source, "\n")
	for i, raw := range lines {
		lineNo := i + 1

		code := raw
		if idx := strings.IndexByte(code, '#'); idx >= 0 {
			code = code[:idx]
		}
		if strings.TrimSpace(code) == "" {
			continue
		}

		l := newLineLexer(code, lineNo)
		lineTokens, err := l.scan()
		if err != nil {
			errs = append(errs, err)
			continue
		}

		if depth := IndentDepth(raw); depth > 0 {
			tokens = append(tokens, token.Token{Kind: token.INDENT, Depth: depth, Line: lineNo, Column: 1})
		}
		tokens = append(tokens, lineTokens...)
		tokens = append(tokens, token.Token{Kind: token.NEWLINE, Line: lineNo, Column: len(code) + 1})
	}

	tokens = append(tokens, token.Token{Kind: token.EOF, Line: len(lines), Column: 1})
	return tokens, errs
}

// IndentDepth returns floor(leading spaces / SpacesPerIndent) for a line,
// counting each tab as SpacesPerIndent spaces.
func IndentDepth(line string) int {
	spaces := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case ' ':
			spaces++
		case '\t':
			spaces += SpacesPerIndent
		default:
			return spaces / SpacesPerIndent
		}
	}
	return spaces / SpacesPerIndent
}

// lineLexer scans the content of a single line.
type lineLexer struct {
	input   string
	pos     int
	line    int
	tokens  []token.Token
	word    strings.Builder
	wordCol int
}

func newLineLexer(input string, line int) *lineLexer {
	return &lineLexer{input: input, line: line}
}

func (l *lineLexer) scan() ([]token.Token, error) {
	for l.pos < len(l.input) {
		ch := l.input[l.pos]

		switch {
		case ch == '"' || ch == '\'':
			l.flushWord()
			if err := l.readString(ch); err != nil {
				return nil, err
			}

		case ch == '.' && l.continuesNumber():
			l.word.WriteByte(ch)
			l.pos++

		case strings.IndexByte(punctuation, ch) >= 0:
			l.flushWord()
			l.readPunctuation()

		case ch == ' ' || ch == '\t' || ch == '\r':
			l.flushWord()
			l.pos++

		default:
			if l.word.Len() == 0 {
				l.wordCol = l.pos + 1
			}
			l.word.WriteByte(ch)
			l.pos++
		}
	}
	l.flushWord()
	return l.tokens, nil
}

// readString reads a literal delimited by quote. There are no escape sequences.
func (l *lineLexer) readString(quote byte) error {
	start := l.pos
	end := strings.IndexByte(l.input[start+1:], quote)
	if end < 0 {
		return &LexError{Message: "unterminated string literal", Line: l.line, Column: start + 1}
	}
	value := l.input[start+1 : start+1+end]
	l.tokens = append(l.tokens, token.Token{Kind: token.STRING, Literal: value, Line: l.line, Column: start + 1})
	l.pos = start + end + 2
	return nil
}

// readPunctuation emits a COMPARISON, OPERATOR or SYMBOL token, preferring
// two-character operators.
func (l *lineLexer) readPunctuation() {
	col := l.pos + 1
	if l.pos+1 < len(l.input) {
		pair := l.input[l.pos : l.pos+2]
		switch pair {
		case "<=", ">=", "==":
			l.emit(token.COMPARISON, pair, col)
			l.pos += 2
			return
		case "+=", "-=", "*=", "/=":
			l.emit(token.OPERATOR, pair, col)
			l.pos += 2
			return
		}
	}
	l.emit(token.SYMBOL, string(l.input[l.pos]), col)
	l.pos++
}

// continuesNumber reports whether a '.' at the current position is the decimal
// point of a number literal (pending word is all digits and a digit follows).
func (l *lineLexer) continuesNumber() bool {
	if l.word.Len() == 0 || !isInteger(l.word.String()) {
		return false
	}
	return l.pos+1 < len(l.input) && isDigit(l.input[l.pos+1])
}

func (l *lineLexer) emit(kind token.Kind, literal string, col int) {
	l.tokens = append(l.tokens, token.Token{Kind: kind, Literal: literal, Line: l.line, Column: col})
}

// flushWord classifies the pending bare word as keyword, number or identifier.
func (l *lineLexer) flushWord() {
	if l.word.Len() == 0 {
		return
	}
	text := l.word.String()
	l.word.Reset()

	tok := token.Token{Literal: text, Line: l.line, Column: l.wordCol}
	if kind, ok := token.LookupKeyword(text); ok {
		tok.Kind = kind
	} else if isInteger(text) || isFloat(text) {
		value, err := strconv.ParseFloat(text, 64)
		if err != nil {
			tok.Kind = token.IDENTIFIER
		} else {
			tok.Kind = token.NUMBER
			tok.Number = value
		}
	} else {
		tok.Kind = token.IDENTIFIER
	}
	l.tokens = append(l.tokens, tok)
}

// isInteger matches ^\d+$.
func isInteger(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

// isFloat matches ^\d+\.\d+$.
func isFloat(s string) bool {
	dot := strings.IndexByte(s, '.')
	if dot <= 0 {
		return false
	}
	return isInteger(s[:dot]) && isInteger(s[dot+1:])
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

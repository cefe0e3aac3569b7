// Package token defines the lexical tokens of Gamelang scripts.
package token

import "fmt"

// Kind represents the type of a token.
type Kind int

// Token kinds
const (
	ILLEGAL Kind = iota
	EOF
	NEWLINE
	INDENT // carries the indentation depth in Token.Depth

	// Literals
	IDENTIFIER
	NUMBER
	STRING

	// Punctuation
	SYMBOL     // single character: ( ) = : . , + - * / < > !
	COMPARISON // <= >= ==
	OPERATOR   // += -= *= /=

	// Keywords
	SPRITE
	BACKGROUND
	FUNCTION
	ON
	EVERY
	IF
	ELIF
	ELSE
	PRINT
	SAY
	RANDOM
	BOOLEAN // true, false
)

var kindNames = map[Kind]string{
	ILLEGAL:    "ILLEGAL",
	EOF:        "EOF",
	NEWLINE:    "NEWLINE",
	INDENT:     "INDENT",
	IDENTIFIER: "IDENTIFIER",
	NUMBER:     "NUMBER",
	STRING:     "STRING",
	SYMBOL:     "SYMBOL",
	COMPARISON: "COMPARISON",
	OPERATOR:   "OPERATOR",
	SPRITE:     "SPRITE",
	BACKGROUND: "BACKGROUND",
	FUNCTION:   "FUNCTION",
	ON:         "ON",
	EVERY:      "EVERY",
	IF:         "IF",
	ELIF:       "ELIF",
	ELSE:       "ELSE",
	PRINT:      "PRINT",
	SAY:        "SAY",
	RANDOM:     "RANDOM",
	BOOLEAN:    "BOOLEAN",
}

// String returns the name of the token kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsKeyword reports whether the kind is a keyword.
func (k Kind) IsKeyword() bool {
	return k >= SPRITE && k <= BOOLEAN
}

// Token is a single lexical unit. Line and Column are 1-based.
type Token struct {
	Kind    Kind
	Literal string  // source text (string contents for STRING)
	Number  float64 // parsed value for NUMBER
	Depth   int     // indentation depth for INDENT
	Line    int
	Column  int
}

// Is reports whether the token has the given kind and, when value is non-empty,
// the given literal.
func (t Token) Is(kind Kind, value string) bool {
	if t.Kind != kind {
		return false
	}
	return value == "" || t.Literal == value
}

// String renders the token for diagnostics and --emit tokens.
func (t Token) String() string {
	switch t.Kind {
	case INDENT:
		return fmt.Sprintf("INDENT(%d)", t.Depth)
	case NEWLINE, EOF:
		return t.Kind.String()
	case STRING:
		return fmt.Sprintf("STRING(%q)", t.Literal)
	default:
		return fmt.Sprintf("%s(%s)", t.Kind, t.Literal)
	}
}

// keywords maps keyword spellings to their Kind. Matching is exact (case-sensitive).
var keywords = map[string]Kind{
	"sprite":     SPRITE,
	"background": BACKGROUND,
	"function":   FUNCTION,
	"on":         ON,
	"every":      EVERY,
	"if":         IF,
	"elif":       ELIF,
	"else":       ELSE,
	"print":      PRINT,
	"say":        SAY,
	"random":     RANDOM,
	"true":       BOOLEAN,
	"false":      BOOLEAN,
}

// LookupKeyword returns the keyword Kind for word, or IDENTIFIER.
func LookupKeyword(word string) (Kind, bool) {
	if k, ok := keywords[word]; ok {
		return k, true
	}
	return IDENTIFIER, false
}

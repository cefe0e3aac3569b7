package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/zurustar/gamelang/pkg/compiler/ast"
	"github.com/zurustar/gamelang/pkg/compiler/lexer"
	"github.com/zurustar/gamelang/pkg/compiler/token"
)

func parse(t *testing.T, input string) (*ast.Program, []error) {
	t.Helper()
	tokens, lexErrs := lexer.Tokenize(input)
	if len(lexErrs) != 0 {
		t.Fatalf("unexpected lexer errors: %v", lexErrs)
	}
	return New(tokens).ParseProgram()
}

func checkParserErrors(t *testing.T, errs []error) {
	t.Helper()
	if len(errs) == 0 {
		return
	}
	t.Errorf("parser has %d errors", len(errs))
	for _, err := range errs {
		t.Errorf("parser error: %v", err)
	}
	t.FailNow()
}

func TestIfStatementWithPrint(t *testing.T) {
	program, errs := parse(t, "if x > 5:\n    print(\"hi\")\n")
	checkParserErrors(t, errs)

	expected := &ast.Program{Body: []ast.Statement{
		&ast.IfStatement{
			Pos: ast.Pos{SourceLine: 1},
			Condition: &ast.BinaryExpression{
				Pos:      ast.Pos{SourceLine: 1},
				Operator: ">",
				Left:     &ast.Identifier{Pos: ast.Pos{SourceLine: 1}, Name: "x"},
				Right:    &ast.NumberLiteral{Pos: ast.Pos{SourceLine: 1}, Value: 5},
			},
			Body: []ast.Statement{
				&ast.ExpressionStatement{
					Pos: ast.Pos{SourceLine: 2},
					Expression: &ast.FunctionCall{
						Pos:       ast.Pos{SourceLine: 2},
						Name:      "print",
						Arguments: []ast.Expression{&ast.StringLiteral{Pos: ast.Pos{SourceLine: 2}, Value: "hi"}},
					},
				},
			},
		},
	}}

	if diff := cmp.Diff(expected, program); diff != "" {
		t.Errorf("AST mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePrograms(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "sprite with image",
			input:    `sprite hero "hero.png"`,
			expected: `(sprite hero "hero.png")`,
		},
		{
			name:     "sprite without image",
			input:    "sprite ghost",
			expected: `(sprite ghost "")`,
		},
		{
			name:     "background",
			input:    `background "sky.bmp"`,
			expected: `(background "sky.bmp")`,
		},
		{
			name:     "precedence",
			input:    "x = 2 + 3 * 4",
			expected: "(= x (+ 2 (* 3 4)))",
		},
		{
			name:     "left associative",
			input:    "x = 10 - 2 - 3",
			expected: "(= x (- (- 10 2) 3))",
		},
		{
			name:     "parentheses",
			input:    "x = (2 + 3) * 4",
			expected: "(= x (* (+ 2 3) 4))",
		},
		{
			name:     "comparison binds loosest",
			input:    "ok = a + 1 >= b * 2",
			expected: "(= ok (>= (+ a 1) (* b 2)))",
		},
		{
			name:     "float literal",
			input:    "speed = 2.5",
			expected: "(= speed 2.5)",
		},
		{
			name:     "compound variable assignment",
			input:    "score += 10",
			expected: "(+= score 10)",
		},
		{
			name:     "property assignment",
			input:    "hero.x = 100",
			expected: "(= (. hero x) 100)",
		},
		{
			name:     "compound property assignment",
			input:    "hero.y -= speed * 2",
			expected: "(-= (. hero y) (* speed 2))",
		},
		{
			name:     "property access statement",
			input:    "hero.x",
			expected: "(expr (. hero x))",
		},
		{
			name:     "chained property access",
			input:    "v = a.b.c",
			expected: "(= v (. (. a b) c))",
		},
		{
			name:     "property access in arithmetic",
			input:    "v = hero.x + hero.width",
			expected: "(= v (+ (. hero x) (. hero width)))",
		},
		{
			name:     "boolean literal",
			input:    "hero.visible = false",
			expected: "(= (. hero visible) false)",
		},
		{
			name:     "print without parentheses",
			input:    `print "score: " + score`,
			expected: `(expr (call print (+ "score: " score)))`,
		},
		{
			name:     "empty print",
			input:    "print()",
			expected: "(expr (call print))",
		},
		{
			name:     "compound operator in expression position",
			input:    "print(a += 1)",
			expected: "(expr (call print (+= a 1)))",
		},
		{
			name:     "random in expression",
			input:    "x = random(1, 6)",
			expected: "(= x (call random 1 6))",
		},
		{
			name:     "say statement",
			input:    `say("hello")`,
			expected: `(expr (call say "hello"))`,
		},
		{
			name:     "user function call",
			input:    `greet("Ann", 2)`,
			expected: `(expr (call greet "Ann" 2))`,
		},
		{
			name: "function declaration",
			input: `function greet(name, times):
    print("Hello " + name)
    count += times
greet("Ann", 1)`,
			expected: `(function greet (name times)
  (expr (call print (+ "Hello " name)))
  (+= count times))
(expr (call greet "Ann" 1))`,
		},
		{
			name: "function without parameters",
			input: `function reset():
    hero.x = 0`,
			expected: "(function reset ()\n  (= (. hero x) 0))",
		},
		{
			name: "every frame",
			input: `every frame:
    hero.x += 2
    n += 1`,
			expected: "(every frame\n  (+= (. hero x) 2)\n  (+= n 1))",
		},
		{
			name: "event without arguments",
			input: `on click():
    say("clicked")`,
			expected: "(on click ()\n  (expr (call say \"clicked\")))",
		},
		{
			name: "event with arguments",
			input: `on key("space"):
    hero.y -= 10`,
			expected: "(on key (\"space\")\n  (-= (. hero y) 10))",
		},
		{
			name: "block ends at unindented line",
			input: `if ready:
    a = 1
b = 2`,
			expected: "(if ready\n  (= a 1))\n(= b 2)",
		},
		{
			// Indentation depths are not compared, so the inner block keeps
			// every following indented line.
			name: "nested block is greedy",
			input: `every frame:
    if x > 1:
        a = 1
    b = 2
c = 3`,
			expected: "(every frame\n  (if (> x 1)\n    (= a 1)\n    (= b 2)))\n(= c 3)",
		},
		{
			name: "elif and else are standalone branches",
			input: `if x:
    a = 1
elif y:
    a = 2
else:
    a = 3`,
			expected: "(if x\n  (= a 1))\n(elif y\n  (= a 2))\n(else\n  (= a 3))",
		},
		{
			name:     "if without colon degrades to expression",
			input:    "if x > 1\nprint(\"y\")",
			expected: "(expr (> x 1))\n(expr (call print \"y\"))",
		},
		{
			name:     "comments and blank lines",
			input:    "# setup\n\nx = 1 # one\n\n\ny = 2\n",
			expected: "(= x 1)\n(= y 2)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			program, errs := parse(t, tt.input)
			checkParserErrors(t, errs)
			if got := ast.Dump(program); got != tt.expected {
				t.Errorf("AST mismatch.\nexpected:\n%s\ngot:\n%s", tt.expected, got)
			}
		})
	}
}

func TestParseRecoversFromInvalidStatement(t *testing.T) {
	input := `sprite hero "hero.png"
hero.x = 1
background 5
hero.y = 2
`
	program, errs := parse(t, input)

	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d: %v", len(errs), errs)
	}
	var parseErr *ParseError
	if !errors.As(errs[0], &parseErr) {
		t.Fatalf("expected *ParseError, got %T", errs[0])
	}
	if parseErr.Expected != token.STRING || parseErr.Actual != token.NUMBER || parseErr.Line != 3 {
		t.Errorf("unexpected error contents: %+v", parseErr)
	}

	if len(program.Body) != 3 {
		t.Fatalf("expected 3 statements, got %d:\n%s", len(program.Body), ast.Dump(program))
	}
	last, ok := program.Body[2].(*ast.PropertyAssignment)
	if !ok {
		t.Fatalf("program.Body[2] is not *ast.PropertyAssignment. got=%T", program.Body[2])
	}
	if last.Property != "y" || last.Line() != 4 {
		t.Errorf("expected hero.y assignment on line 4, got %s on line %d", last.String(), last.Line())
	}
}

func TestParseRecoversInsideBlock(t *testing.T) {
	input := `every frame:
    n += 1
    sprite 7
    m += 1
done = true
`
	program, errs := parse(t, input)
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d: %v", len(errs), errs)
	}

	expected := "(every frame\n  (+= n 1)\n  (+= m 1))\n(= done true)"
	if got := ast.Dump(program); got != expected {
		t.Errorf("AST mismatch.\nexpected:\n%s\ngot:\n%s", expected, got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		expectedError string
		statements    int
	}{
		{
			name:          "missing parameter name",
			input:         "function f(:\n    x = 1",
			expectedError: `expected IDENTIFIER, got SYMBOL ":" at line 1, column 12`,
			statements:    1, // the indented line is parsed at top level
		},
		{
			name:          "missing colon after every",
			input:         "every frame\n",
			expectedError: `expected SYMBOL ":", got NEWLINE at line 1, column 12`,
		},
		{
			name:          "unclosed call",
			input:         "greet(1, 2\n",
			expectedError: `expected SYMBOL ")", got NEWLINE at line 1, column 11`,
		},
		{
			name:          "unknown expression",
			input:         "print(*)\n",
			expectedError: `unknown expression: SYMBOL "*" at line 1, column 7`,
		},
		{
			name:          "trailing tokens keep the statement",
			input:         "x = 1 2\n",
			expectedError: `expected NEWLINE, got NUMBER "2" at line 1, column 7`,
			statements:    1,
		},
		{
			name:          "failed assignment retried as expression",
			input:         "x = )\n",
			expectedError: `expected NEWLINE, got SYMBOL "=" at line 1, column 3`,
			statements:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			program, errs := parse(t, tt.input)
			if len(errs) != 1 {
				t.Fatalf("expected 1 error, got %d: %v", len(errs), errs)
			}
			if errs[0].Error() != tt.expectedError {
				t.Errorf("error = %q, want %q", errs[0].Error(), tt.expectedError)
			}
			if len(program.Body) != tt.statements {
				t.Errorf("expected %d statements, got %d:\n%s", tt.statements, len(program.Body), ast.Dump(program))
			}
		})
	}
}

func TestUnknownExpressionError(t *testing.T) {
	_, errs := parse(t, "print(*)\n")
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}
	var unknown *UnknownExpressionError
	if !errors.As(errs[0], &unknown) {
		t.Fatalf("expected *UnknownExpressionError, got %T", errs[0])
	}
	if unknown.Kind != token.SYMBOL || unknown.Value != "*" {
		t.Errorf("unexpected error contents: %+v", unknown)
	}
}

func TestStatementLines(t *testing.T) {
	program, errs := parse(t, "\n\nx = 1\n\nif y:\n    z = 2\n")
	checkParserErrors(t, errs)

	if len(program.Body) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(program.Body))
	}
	if program.Body[0].Line() != 3 {
		t.Errorf("assignment line = %d, want 3", program.Body[0].Line())
	}
	ifStmt := program.Body[1].(*ast.IfStatement)
	if ifStmt.Line() != 5 || ifStmt.Body[0].Line() != 6 {
		t.Errorf("if lines = %d/%d, want 5/6", ifStmt.Line(), ifStmt.Body[0].Line())
	}
}

func TestNewAppendsMissingEOF(t *testing.T) {
	tokens := []token.Token{
		{Kind: token.IDENTIFIER, Literal: "x", Line: 1, Column: 1},
	}
	program, errs := New(tokens).ParseProgram()
	checkParserErrors(t, errs)
	if got := ast.Dump(program); got != "(expr x)" {
		t.Errorf("Dump = %q, want %q", got, "(expr x)")
	}
}

func TestParseLargeProgramHasNoErrors(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("sprite hero \"hero.png\"\n")
	for i := 0; i < 200; i++ {
		sb.WriteString("hero.x += 1\n")
	}
	program, errs := parse(t, sb.String())
	checkParserErrors(t, errs)
	if len(program.Body) != 201 {
		t.Errorf("expected 201 statements, got %d", len(program.Body))
	}
}

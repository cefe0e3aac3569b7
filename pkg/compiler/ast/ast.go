// Package ast defines the abstract syntax tree produced by the parser.
//
// Statement and Expression are sealed: only the node types declared in this
// package implement them, so a type switch over either is exhaustive.
package ast

import (
	"bytes"
	"strconv"
	"strings"
)

// Node is implemented by every AST node.
type Node interface {
	// Line returns the 1-based source line the node starts on.
	Line() int
	String() string
}

// Statement is a node that can appear in a program or block body.
type Statement interface {
	Node
	statementNode()
}

// Expression is a node that produces a value.
type Expression interface {
	Node
	expressionNode()
}

// Pos records the originating source line of a node.
type Pos struct {
	SourceLine int
}

// Line returns the source line.
func (p Pos) Line() int { return p.SourceLine }

// Program is the root node
type Program struct {
	Body []Statement
}

func (p *Program) Line() int {
	if len(p.Body) > 0 {
		return p.Body[0].Line()
	}
	return 0
}

func (p *Program) String() string {
	var out bytes.Buffer
	for _, s := range p.Body {
		out.WriteString(s.String())
		out.WriteString("\n")
	}
	return out.String()
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// SpriteDeclaration: sprite name "image"
type SpriteDeclaration struct {
	Pos
	Name  string
	Image string
}

func (s *SpriteDeclaration) statementNode() {}
func (s *SpriteDeclaration) String() string {
	if s.Image == "" {
		return "sprite " + s.Name
	}
	return "sprite " + s.Name + " " + strconv.Quote(s.Image)
}

// BackgroundDeclaration: background "image"
type BackgroundDeclaration struct {
	Pos
	Image string
}

func (b *BackgroundDeclaration) statementNode() {}
func (b *BackgroundDeclaration) String() string {
	return "background " + strconv.Quote(b.Image)
}

// FunctionDeclaration: function name(params):
type FunctionDeclaration struct {
	Pos
	Name   string
	Params []string
	Body   []Statement
}

func (f *FunctionDeclaration) statementNode() {}
func (f *FunctionDeclaration) String() string {
	return "function " + f.Name + "(" + strings.Join(f.Params, ", ") + "):" + blockString(f.Body)
}

// EventDeclaration: on eventType(args):
type EventDeclaration struct {
	Pos
	EventType string
	Args      []Expression
	Body      []Statement
}

func (e *EventDeclaration) statementNode() {}
func (e *EventDeclaration) String() string {
	return "on " + e.EventType + "(" + joinExpressions(e.Args) + "):" + blockString(e.Body)
}

// LoopDeclaration: every loopType:
type LoopDeclaration struct {
	Pos
	LoopType string
	Body     []Statement
}

func (l *LoopDeclaration) statementNode() {}
func (l *LoopDeclaration) String() string {
	return "every " + l.LoopType + ":" + blockString(l.Body)
}

// IfStatement: if condition:
type IfStatement struct {
	Pos
	Condition Expression
	Body      []Statement
}

func (i *IfStatement) statementNode() {}
func (i *IfStatement) String() string {
	return "if " + i.Condition.String() + ":" + blockString(i.Body)
}

// ElseBranch is an elif or else clause. It is parsed as a standalone
// statement and is never attached to the preceding IfStatement.
type ElseBranch struct {
	Pos
	Keyword   string     // "elif" or "else"
	Condition Expression // nil for else
	Body      []Statement
}

func (e *ElseBranch) statementNode() {}
func (e *ElseBranch) String() string {
	if e.Condition == nil {
		return e.Keyword + ":" + blockString(e.Body)
	}
	return e.Keyword + " " + e.Condition.String() + ":" + blockString(e.Body)
}

// Assignment: name op value, where op is one of = += -= *= /=
type Assignment struct {
	Pos
	Name     string
	Operator string
	Value    Expression
}

func (a *Assignment) statementNode() {}
func (a *Assignment) String() string {
	return a.Name + " " + a.Operator + " " + a.Value.String()
}

// PropertyAssignment: object.property op value
type PropertyAssignment struct {
	Pos
	Object   string
	Property string
	Operator string
	Value    Expression
}

func (p *PropertyAssignment) statementNode() {}
func (p *PropertyAssignment) String() string {
	return p.Object + "." + p.Property + " " + p.Operator + " " + p.Value.String()
}

// ExpressionStatement wraps an expression evaluated for its side effects.
type ExpressionStatement struct {
	Pos
	Expression Expression
}

func (e *ExpressionStatement) statementNode() {}
func (e *ExpressionStatement) String() string {
	if e.Expression != nil {
		return e.Expression.String()
	}
	return ""
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// NumberLiteral
type NumberLiteral struct {
	Pos
	Value float64
}

func (n *NumberLiteral) expressionNode() {}
func (n *NumberLiteral) String() string {
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}

// StringLiteral
type StringLiteral struct {
	Pos
	Value string
}

func (s *StringLiteral) expressionNode() {}
func (s *StringLiteral) String() string  { return strconv.Quote(s.Value) }

// BooleanLiteral
type BooleanLiteral struct {
	Pos
	Value bool
}

func (b *BooleanLiteral) expressionNode() {}
func (b *BooleanLiteral) String() string  { return strconv.FormatBool(b.Value) }

// Identifier
type Identifier struct {
	Pos
	Name string
}

func (i *Identifier) expressionNode() {}
func (i *Identifier) String() string  { return i.Name }

// PropertyAccess: object.property. Object may itself be a PropertyAccess.
type PropertyAccess struct {
	Pos
	Object   Expression
	Property string
}

func (p *PropertyAccess) expressionNode() {}
func (p *PropertyAccess) String() string  { return p.Object.String() + "." + p.Property }

// FunctionCall: name(arguments)
type FunctionCall struct {
	Pos
	Name      string
	Arguments []Expression
}

func (f *FunctionCall) expressionNode() {}
func (f *FunctionCall) String() string {
	return f.Name + "(" + joinExpressions(f.Arguments) + ")"
}

// BinaryExpression: left operator right
type BinaryExpression struct {
	Pos
	Operator string
	Left     Expression
	Right    Expression
}

func (b *BinaryExpression) expressionNode() {}
func (b *BinaryExpression) String() string {
	return "(" + b.Left.String() + " " + b.Operator + " " + b.Right.String() + ")"
}

func joinExpressions(exprs []Expression) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}

func blockString(body []Statement) string {
	var out bytes.Buffer
	for _, s := range body {
		for _, line := range strings.Split(s.String(), "\n") {
			out.WriteString("\n    ")
			out.WriteString(line)
		}
	}
	return out.String()
}

package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Dump renders a node as an indented s-expression. Block bodies are written
// one statement per line, indented two spaces per level.
//
//	(every frame
//	  (+= (. hero x) 2)
//	  (if (> (. hero x) 100)
//	    (expr (call print "edge"))))
func Dump(node Node) string {
	var sb strings.Builder
	d := &dumper{out: &sb}
	switch n := node.(type) {
	case *Program:
		for i, s := range n.Body {
			if i > 0 {
				sb.WriteString("\n")
			}
			d.statement(s, 0)
		}
	case Statement:
		d.statement(n, 0)
	case Expression:
		d.expression(n)
	}
	return sb.String()
}

type dumper struct {
	out *strings.Builder
}

func (d *dumper) printf(format string, args ...any) {
	fmt.Fprintf(d.out, format, args...)
}

func (d *dumper) statement(stmt Statement, depth int) {
	switch s := stmt.(type) {
	case *SpriteDeclaration:
		d.printf("(sprite %s %s)", s.Name, strconv.Quote(s.Image))
	case *BackgroundDeclaration:
		d.printf("(background %s)", strconv.Quote(s.Image))
	case *FunctionDeclaration:
		d.printf("(function %s (%s)", s.Name, strings.Join(s.Params, " "))
		d.body(s.Body, depth)
	case *EventDeclaration:
		d.printf("(on %s (", s.EventType)
		d.expressions(s.Args)
		d.printf(")")
		d.body(s.Body, depth)
	case *LoopDeclaration:
		d.printf("(every %s", s.LoopType)
		d.body(s.Body, depth)
	case *IfStatement:
		d.printf("(if ")
		d.expression(s.Condition)
		d.body(s.Body, depth)
	case *ElseBranch:
		d.printf("(%s", s.Keyword)
		if s.Condition != nil {
			d.printf(" ")
			d.expression(s.Condition)
		}
		d.body(s.Body, depth)
	case *Assignment:
		d.printf("(%s %s ", s.Operator, s.Name)
		d.expression(s.Value)
		d.printf(")")
	case *PropertyAssignment:
		d.printf("(%s (. %s %s) ", s.Operator, s.Object, s.Property)
		d.expression(s.Value)
		d.printf(")")
	case *ExpressionStatement:
		d.printf("(expr ")
		d.expression(s.Expression)
		d.printf(")")
	default:
		d.printf("(unknown %T)", stmt)
	}
}

// body writes each statement on its own line and closes the enclosing form.
func (d *dumper) body(stmts []Statement, depth int) {
	for _, s := range stmts {
		d.printf("\n%s", strings.Repeat("  ", depth+1))
		d.statement(s, depth+1)
	}
	d.printf(")")
}

func (d *dumper) expressions(exprs []Expression) {
	for i, e := range exprs {
		if i > 0 {
			d.printf(" ")
		}
		d.expression(e)
	}
}

func (d *dumper) expression(expr Expression) {
	switch e := expr.(type) {
	case *NumberLiteral:
		d.printf("%s", e.String())
	case *StringLiteral:
		d.printf("%s", strconv.Quote(e.Value))
	case *BooleanLiteral:
		d.printf("%t", e.Value)
	case *Identifier:
		d.printf("%s", e.Name)
	case *PropertyAccess:
		d.printf("(. ")
		d.expression(e.Object)
		d.printf(" %s)", e.Property)
	case *FunctionCall:
		d.printf("(call %s", e.Name)
		for _, a := range e.Arguments {
			d.printf(" ")
			d.expression(a)
		}
		d.printf(")")
	case *BinaryExpression:
		d.printf("(%s ", e.Operator)
		d.expression(e.Left)
		d.printf(" ")
		d.expression(e.Right)
		d.printf(")")
	case nil:
		d.printf("nil")
	default:
		d.printf("(unknown %T)", expr)
	}
}

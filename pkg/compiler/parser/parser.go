// Package parser builds an AST from a Gamelang token stream.
//
// Parsing is error tolerant: a statement that fails to parse is reported and
// the parser resynchronizes at the next NEWLINE, so one bad line never hides
// the rest of the program.
package parser

import (
	"github.com/zurustar/gamelang/pkg/compiler/ast"
	"github.com/zurustar/gamelang/pkg/compiler/token"
)

// Precedence levels for binary operators.
const (
	_ int = iota
	LOWEST
	COMPARE // < > <= >= ==
	SUM     // + - += -=
	PRODUCT // * / *= /=
	MEMBER  // object.property
)

var precedences = map[string]int{
	"<":  COMPARE,
	">":  COMPARE,
	"<=": COMPARE,
	">=": COMPARE,
	"==": COMPARE,
	"+":  SUM,
	"-":  SUM,
	"+=": SUM,
	"-=": SUM,
	"*":  PRODUCT,
	"/":  PRODUCT,
	"*=": PRODUCT,
	"/=": PRODUCT,
	".":  MEMBER,
}

// Parser parses a token stream into an AST.
type Parser struct {
	tokens []token.Token
	pos    int
	errors []error
}

// New creates a new Parser. The token slice must end with an EOF token.
func New(tokens []token.Token) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != token.EOF {
		line := 1
		if len(tokens) > 0 {
			line = tokens[len(tokens)-1].Line
		}
		tokens = append(tokens, token.Token{Kind: token.EOF, Line: line, Column: 1})
	}
	return &Parser{tokens: tokens}
}

// Errors returns the errors collected by the last ParseProgram call.
func (p *Parser) Errors() []error {
	return p.errors
}

// ParseProgram parses statements until EOF. Every statement that parsed
// successfully is present in the program even when errors are returned.
func (p *Parser) ParseProgram() (*ast.Program, []error) {
	program := &ast.Program{}
	p.errors = nil

	for !p.atEnd() {
		stmt, err := p.parseStatement()
		if err != nil {
			p.errors = append(p.errors, err)
			p.synchronize()
		}
		if stmt != nil {
			program.Body = append(program.Body, stmt)
		}
	}

	return program, p.errors
}

// parseStatement parses one statement. A statement may be returned together
// with an error when trailing tokens follow it on the same line.
func (p *Parser) parseStatement() (ast.Statement, error) {
	if p.check(token.INDENT, "") {
		p.advance()
	}
	if p.check(token.NEWLINE, "") {
		p.advance()
		return nil, nil
	}
	if p.atEnd() {
		return nil, nil
	}

	var stmt ast.Statement
	var err error

	switch p.cur().Kind {
	case token.SPRITE:
		stmt, err = p.parseSprite()
	case token.BACKGROUND:
		stmt, err = p.parseBackground()
	case token.FUNCTION:
		return p.parseFunction()
	case token.PRINT:
		stmt, err = p.parsePrint()
	case token.IF:
		return p.parseIf()
	case token.ELIF, token.ELSE:
		return p.parseElseBranch()
	case token.EVERY:
		return p.parseEvery()
	case token.ON:
		return p.parseOn()
	default:
		stmt, err = p.parseExpressionOrAssignment()
	}

	if err != nil {
		return nil, err
	}
	return stmt, p.endOfStatement()
}

// endOfStatement consumes the NEWLINE that terminates a simple statement.
func (p *Parser) endOfStatement() error {
	if p.atEnd() {
		return nil
	}
	_, err := p.expect(token.NEWLINE, "")
	return err
}

func (p *Parser) parseSprite() (ast.Statement, error) {
	tok := p.advance()
	name, err := p.expect(token.IDENTIFIER, "")
	if err != nil {
		return nil, err
	}

	stmt := &ast.SpriteDeclaration{Pos: ast.Pos{SourceLine: tok.Line}, Name: name.Literal}
	if p.check(token.STRING, "") {
		stmt.Image = p.advance().Literal
	}
	return stmt, nil
}

func (p *Parser) parseBackground() (ast.Statement, error) {
	tok := p.advance()
	image, err := p.expect(token.STRING, "")
	if err != nil {
		return nil, err
	}
	return &ast.BackgroundDeclaration{Pos: ast.Pos{SourceLine: tok.Line}, Image: image.Literal}, nil
}

func (p *Parser) parseFunction() (ast.Statement, error) {
	tok := p.advance()
	name, err := p.expect(token.IDENTIFIER, "")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SYMBOL, "("); err != nil {
		return nil, err
	}

	var params []string
	if !p.check(token.SYMBOL, ")") {
		for {
			param, err := p.expect(token.IDENTIFIER, "")
			if err != nil {
				return nil, err
			}
			params = append(params, param.Literal)
			if !p.match(token.SYMBOL, ",") {
				break
			}
		}
	}

	if _, err := p.expect(token.SYMBOL, ")"); err != nil {
		return nil, err
	}
	if err := p.blockHeader(); err != nil {
		return nil, err
	}

	return &ast.FunctionDeclaration{
		Pos:    ast.Pos{SourceLine: tok.Line},
		Name:   name.Literal,
		Params: params,
		Body:   p.parseBlock(),
	}, nil
}

// parsePrint parses print with or without parentheses around its argument.
func (p *Parser) parsePrint() (ast.Statement, error) {
	tok := p.advance()
	paren := p.match(token.SYMBOL, "(")

	var args []ast.Expression
	if !p.check(token.SYMBOL, ")") && !p.check(token.NEWLINE, "") && !p.atEnd() {
		arg, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	if paren {
		if _, err := p.expect(token.SYMBOL, ")"); err != nil {
			return nil, err
		}
	}

	return &ast.ExpressionStatement{
		Pos:        ast.Pos{SourceLine: tok.Line},
		Expression: &ast.FunctionCall{Pos: ast.Pos{SourceLine: tok.Line}, Name: "print", Arguments: args},
	}, nil
}

// parseIf parses an if block. A condition without a trailing ':' degrades
// to an expression statement and the rest of the line is skipped.
func (p *Parser) parseIf() (ast.Statement, error) {
	tok := p.advance()
	condition, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}

	if !p.check(token.SYMBOL, ":") {
		p.synchronize()
		return &ast.ExpressionStatement{Pos: ast.Pos{SourceLine: tok.Line}, Expression: condition}, nil
	}
	if err := p.blockHeader(); err != nil {
		return nil, err
	}

	return &ast.IfStatement{
		Pos:       ast.Pos{SourceLine: tok.Line},
		Condition: condition,
		Body:      p.parseBlock(),
	}, nil
}

func (p *Parser) parseElseBranch() (ast.Statement, error) {
	tok := p.advance()
	branch := &ast.ElseBranch{Pos: ast.Pos{SourceLine: tok.Line}, Keyword: tok.Literal}

	if tok.Kind == token.ELIF {
		condition, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		branch.Condition = condition
	}
	if err := p.blockHeader(); err != nil {
		return nil, err
	}

	branch.Body = p.parseBlock()
	return branch, nil
}

func (p *Parser) parseEvery() (ast.Statement, error) {
	tok := p.advance()
	loopType, err := p.expect(token.IDENTIFIER, "")
	if err != nil {
		return nil, err
	}
	if err := p.blockHeader(); err != nil {
		return nil, err
	}

	return &ast.LoopDeclaration{
		Pos:      ast.Pos{SourceLine: tok.Line},
		LoopType: loopType.Literal,
		Body:     p.parseBlock(),
	}, nil
}

func (p *Parser) parseOn() (ast.Statement, error) {
	tok := p.advance()
	eventType, err := p.expect(token.IDENTIFIER, "")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SYMBOL, "("); err != nil {
		return nil, err
	}
	args, err := p.parseArguments()
	if err != nil {
		return nil, err
	}
	if err := p.blockHeader(); err != nil {
		return nil, err
	}

	return &ast.EventDeclaration{
		Pos:       ast.Pos{SourceLine: tok.Line},
		EventType: eventType.Literal,
		Args:      args,
		Body:      p.parseBlock(),
	}, nil
}

// blockHeader consumes the ':' NEWLINE that ends a block header line.
func (p *Parser) blockHeader() error {
	if _, err := p.expect(token.SYMBOL, ":"); err != nil {
		return err
	}
	_, err := p.expect(token.NEWLINE, "")
	return err
}

// parseBlock collects statements while the next line starts with an INDENT
// of positive depth. Depths are not compared with the header's depth.
func (p *Parser) parseBlock() []ast.Statement {
	var body []ast.Statement
	for !p.atEnd() && p.check(token.INDENT, "") && p.cur().Depth > 0 {
		stmt, err := p.parseStatement()
		if err != nil {
			p.errors = append(p.errors, err)
			p.synchronize()
		}
		if stmt != nil {
			body = append(body, stmt)
		}
	}
	return body
}

// parseExpressionOrAssignment decides between a property assignment, a
// variable assignment and a bare expression by looking ahead. If an
// assignment form fails part-way, the statement is retried as an expression.
func (p *Parser) parseExpressionOrAssignment() (ast.Statement, error) {
	start := p.pos
	first := p.cur()

	stmt, err := p.parseAssignment()
	if err == nil && stmt != nil {
		return stmt, nil
	}
	if err != nil {
		p.pos = start
	}

	expr, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	return &ast.ExpressionStatement{Pos: ast.Pos{SourceLine: first.Line}, Expression: expr}, nil
}

// parseAssignment returns (nil, nil) without consuming anything when the
// statement is not an assignment.
func (p *Parser) parseAssignment() (ast.Statement, error) {
	first := p.cur()
	if first.Kind != token.IDENTIFIER {
		return nil, nil
	}

	if p.peekAt(1).Is(token.SYMBOL, ".") && p.peekAt(2).Kind == token.IDENTIFIER && isAssignOperator(p.peekAt(3)) {
		p.advance()
		p.advance()
		property := p.advance()
		operator := p.advance()
		value, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		return &ast.PropertyAssignment{
			Pos:      ast.Pos{SourceLine: first.Line},
			Object:   first.Literal,
			Property: property.Literal,
			Operator: operator.Literal,
			Value:    value,
		}, nil
	}

	if isAssignOperator(p.peekAt(1)) {
		p.advance()
		operator := p.advance()
		value, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		return &ast.Assignment{
			Pos:      ast.Pos{SourceLine: first.Line},
			Name:     first.Literal,
			Operator: operator.Literal,
			Value:    value,
		}, nil
	}

	return nil, nil
}

func isAssignOperator(tok token.Token) bool {
	return tok.Is(token.SYMBOL, "=") || tok.Kind == token.OPERATOR
}

// parseExpression parses a left-associative binary expression whose
// operators all bind tighter than precedence.
func (p *Parser) parseExpression(precedence int) (ast.Expression, error) {
	left, err := p.parseAtom()
	if err != nil {
		return nil, err
	}

	for {
		prec := p.curPrecedence()
		if prec <= precedence {
			return left, nil
		}

		op := p.advance()
		if op.Literal == "." {
			property, err := p.expect(token.IDENTIFIER, "")
			if err != nil {
				return nil, err
			}
			left = &ast.PropertyAccess{Pos: ast.Pos{SourceLine: op.Line}, Object: left, Property: property.Literal}
			continue
		}

		right, err := p.parseExpression(prec)
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpression{
			Pos:      ast.Pos{SourceLine: op.Line},
			Operator: op.Literal,
			Left:     left,
			Right:    right,
		}
	}
}

func (p *Parser) parseAtom() (ast.Expression, error) {
	tok := p.cur()
	pos := ast.Pos{SourceLine: tok.Line}

	switch tok.Kind {
	case token.NUMBER:
		p.advance()
		return &ast.NumberLiteral{Pos: pos, Value: tok.Number}, nil

	case token.STRING:
		p.advance()
		return &ast.StringLiteral{Pos: pos, Value: tok.Literal}, nil

	case token.BOOLEAN:
		p.advance()
		return &ast.BooleanLiteral{Pos: pos, Value: tok.Literal == "true"}, nil

	case token.IDENTIFIER:
		p.advance()
		if p.check(token.SYMBOL, "(") {
			return p.parseCall(tok)
		}
		return &ast.Identifier{Pos: pos, Name: tok.Literal}, nil

	case token.PRINT, token.SAY, token.RANDOM:
		// Built-in keywords are callable in expression position.
		if p.peekAt(1).Is(token.SYMBOL, "(") {
			p.advance()
			return p.parseCall(tok)
		}

	case token.SYMBOL:
		if tok.Literal == "(" {
			p.advance()
			expr, err := p.parseExpression(LOWEST)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.SYMBOL, ")"); err != nil {
				return nil, err
			}
			return expr, nil
		}
	}

	return nil, &UnknownExpressionError{Kind: tok.Kind, Value: tok.Literal, Line: tok.Line, Column: tok.Column}
}

// parseCall parses the argument list of a call to name. The current token is '('.
func (p *Parser) parseCall(name token.Token) (ast.Expression, error) {
	p.advance()
	args, err := p.parseArguments()
	if err != nil {
		return nil, err
	}
	return &ast.FunctionCall{Pos: ast.Pos{SourceLine: name.Line}, Name: name.Literal, Arguments: args}, nil
}

// parseArguments parses a comma separated expression list up to and
// including the closing ')'. The opening '(' has already been consumed.
func (p *Parser) parseArguments() ([]ast.Expression, error) {
	var args []ast.Expression
	if !p.check(token.SYMBOL, ")") {
		for {
			arg, err := p.parseExpression(LOWEST)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.match(token.SYMBOL, ",") {
				break
			}
		}
	}
	if _, err := p.expect(token.SYMBOL, ")"); err != nil {
		return nil, err
	}
	return args, nil
}

// synchronize discards tokens up to and including the next NEWLINE.
func (p *Parser) synchronize() {
	for !p.atEnd() && !p.check(token.NEWLINE, "") {
		p.advance()
	}
	if p.check(token.NEWLINE, "") {
		p.advance()
	}
}

func (p *Parser) curPrecedence() int {
	tok := p.cur()
	switch tok.Kind {
	case token.SYMBOL, token.COMPARISON, token.OPERATOR:
		if prec, ok := precedences[tok.Literal]; ok {
			return prec
		}
	}
	return LOWEST
}

func (p *Parser) cur() token.Token {
	return p.tokens[p.pos]
}

// peekAt returns the token offset positions ahead, or the final EOF.
func (p *Parser) peekAt(offset int) token.Token {
	if p.pos+offset >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+offset]
}

// advance consumes the current token and returns it. EOF is never consumed.
func (p *Parser) advance() token.Token {
	tok := p.cur()
	if !p.atEnd() {
		p.pos++
	}
	return tok
}

func (p *Parser) atEnd() bool {
	return p.cur().Kind == token.EOF
}

func (p *Parser) check(kind token.Kind, value string) bool {
	return p.cur().Is(kind, value)
}

func (p *Parser) match(kind token.Kind, value string) bool {
	if p.check(kind, value) {
		p.advance()
		return true
	}
	return false
}

// expect consumes and returns the current token if it matches, otherwise it
// returns a *ParseError describing the mismatch.
func (p *Parser) expect(kind token.Kind, value string) (token.Token, error) {
	if p.check(kind, value) {
		return p.advance(), nil
	}
	return token.Token{}, newParseError(kind, value, p.cur())
}

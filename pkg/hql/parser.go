// Package hql parses LeapQL object queries into a parse tree.
//
// # Usage
//
//	stmt, err := hql.Parse("select a.basic from Something a where a.id = :id")
//	if err != nil {
//	    // handle error
//	}
//
// # Grammar Overview
//
// The parser is a recursive descent parser with Pratt-style expression parsing:
//
//	statement   → select_stmt | insert_stmt | update_stmt | delete_stmt
//	select_stmt → query_spec
//	query_spec  → [SELECT [DISTINCT] select_list] FROM from_clause
//	              [WHERE expr] [ORDER BY order_list]
//	insert_stmt → INSERT INTO entity_ref '(' path_list ')' query_spec
//	update_stmt → UPDATE entity_ref SET assignment {',' assignment} [WHERE expr]
//	delete_stmt → DELETE [FROM] entity_ref [WHERE expr]
//
// See each file for detailed grammar rules for that section.
//
// Every node receives a NodeID when it is created. IDs are stable for the
// lifetime of the tree and are what later compilation phases key on.
package hql

import (
	"fmt"

	"github.com/leapstack-labs/leapql/pkg/token"
)

// Parser parses query text into a parse tree.
type Parser struct {
	lexer  *Lexer
	token  token.Token // current token
	peek   token.Token // lookahead token
	peek2  token.Token // second lookahead token
	errors []error
	nextID NodeID

	sawNamed   bool
	sawOrdinal bool
}

// NewParser creates a new parser for the given query text.
func NewParser(input string) *Parser {
	p := &Parser{
		lexer: NewLexer(input),
	}
	// Read three tokens to initialize current, peek, and peek2
	p.nextToken()
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses a single statement and returns its parse tree.
func Parse(input string) (Statement, error) {
	p := NewParser(input)
	stmt := p.parseStatement()
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	return stmt, nil
}

// ---------- Token Helpers ----------

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.token = p.peek
	p.peek = p.peek2
	p.peek2 = p.lexer.NextToken()
}

// check returns true if the current token is of the given type.
func (p *Parser) check(t token.TokenType) bool {
	return p.token.Type == t
}

// checkPeek returns true if the peek token is of the given type.
func (p *Parser) checkPeek(t token.TokenType) bool {
	return p.peek.Type == t
}

// match consumes the current token if it matches and returns true.
func (p *Parser) match(t token.TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	return false
}

// expect consumes the current token if it matches, otherwise adds an error.
func (p *Parser) expect(t token.TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	p.addError(fmt.Sprintf(ErrUnexpectedToken, p.describe(p.token), t))
	return false
}

// addError adds a parse error at the current token.
func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, &ParseError{
		Pos:     p.token.Pos,
		Message: msg,
	})
}

// failed reports whether any error was recorded. Loops check it to stop early.
func (p *Parser) failed() bool {
	return len(p.errors) > 0
}

func (p *Parser) describe(tok token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of input"
	case token.ILLEGAL:
		if tok.Literal == ErrUnterminatedString {
			return tok.Literal
		}
		return fmt.Sprintf(ErrIllegalCharacter, tok.Literal)
	case token.IDENT, token.NUMBER:
		return fmt.Sprintf("%s %q", tok.Type, tok.Literal)
	}
	return tok.Type.String()
}

// base returns a node base with a fresh id at the current token position.
func (p *Parser) base() base {
	return p.baseAt(p.token.Pos)
}

func (p *Parser) baseAt(pos token.Position) base {
	p.nextID++
	return base{id: p.nextID, pos: pos}
}

// ---------- Statements ----------

func (p *Parser) parseStatement() Statement {
	var stmt Statement
	switch p.token.Type {
	case token.SELECT, token.FROM:
		b := p.base()
		q := p.parseQuerySpec()
		stmt = &SelectStatement{base: b, Query: q}
	case token.INSERT:
		stmt = p.parseInsert()
	case token.UPDATE:
		stmt = p.parseUpdate()
	case token.DELETE:
		stmt = p.parseDelete()
	case token.EOF:
		p.addError(ErrEmptyStatement)
		return nil
	default:
		p.addError(fmt.Sprintf(ErrUnexpectedInput, p.describe(p.token)))
		return nil
	}
	if p.failed() {
		return nil
	}
	if !p.check(token.EOF) {
		p.addError(fmt.Sprintf(ErrUnexpectedInput, p.describe(p.token)))
		return nil
	}
	return stmt
}

// insert_stmt → INSERT INTO entity_ref '(' path {',' path} ')' query_spec
func (p *Parser) parseInsert() Statement {
	stmt := &InsertStatement{base: p.base()}
	p.nextToken() // INSERT
	p.expect(token.INTO)
	stmt.Target = p.parseRootEntity()
	if p.expect(token.LPAREN) {
		for !p.failed() {
			stmt.Columns = append(stmt.Columns, p.parsePath())
			if !p.match(token.COMMA) {
				break
			}
		}
		p.expect(token.RPAREN)
	}
	if p.failed() {
		return nil
	}
	stmt.Query = p.parseQuerySpec()
	return stmt
}

// update_stmt → UPDATE entity_ref SET path '=' expr {',' path '=' expr} [WHERE expr]
func (p *Parser) parseUpdate() Statement {
	stmt := &UpdateStatement{base: p.base()}
	p.nextToken() // UPDATE
	stmt.Target = p.parseRootEntity()
	p.expect(token.SET)
	for !p.failed() {
		a := &Assignment{base: p.base()}
		a.Path = p.parsePath()
		p.expect(token.EQ)
		a.Value = p.parseExpression()
		stmt.Assignments = append(stmt.Assignments, a)
		if !p.match(token.COMMA) {
			break
		}
	}
	if p.match(token.WHERE) {
		stmt.Where = p.parseExpression()
	}
	return stmt
}

// delete_stmt → DELETE [FROM] entity_ref [WHERE expr]
func (p *Parser) parseDelete() Statement {
	stmt := &DeleteStatement{base: p.base()}
	p.nextToken() // DELETE
	p.match(token.FROM)
	stmt.Target = p.parseRootEntity()
	if p.match(token.WHERE) {
		stmt.Where = p.parseExpression()
	}
	return stmt
}

// query_spec → [SELECT [DISTINCT] select_list] FROM from_clause [WHERE expr] [ORDER BY order_list]
func (p *Parser) parseQuerySpec() *QuerySpec {
	q := &QuerySpec{base: p.base()}
	if p.check(token.SELECT) {
		q.Select = p.parseSelectClause()
	}
	if p.failed() {
		return q
	}
	if !p.check(token.FROM) {
		p.addError(fmt.Sprintf(ErrUnexpectedToken, p.describe(p.token), token.FROM))
		return q
	}
	q.From = p.parseFromClause()
	if p.match(token.WHERE) {
		q.Where = p.parseExpression()
	}
	if p.check(token.ORDER) {
		p.nextToken()
		p.expect(token.BY)
		q.OrderBy = p.parseOrderByList()
	}
	return q
}

// order_list → expr [ASC|DESC] {',' expr [ASC|DESC]}
func (p *Parser) parseOrderByList() []*SortSpec {
	var specs []*SortSpec
	for !p.failed() {
		s := &SortSpec{base: p.base()}
		s.Expr = p.parseExpression()
		if p.match(token.DESC) {
			s.Desc = true
		} else {
			p.match(token.ASC)
		}
		specs = append(specs, s)
		if !p.match(token.COMMA) {
			break
		}
	}
	return specs
}

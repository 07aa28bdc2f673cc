package hql

import (
	"fmt"

	"github.com/leapstack-labs/leapql/pkg/core"
	"github.com/leapstack-labs/leapql/pkg/token"
)

// FROM clause parsing.
//
// Grammar:
//
//	from_clause → FROM space {',' space}
//	space       → entity_ref {join}
//	entity_ref  → entity_name [[AS] alias]
//	entity_name → IDENT {'.' IDENT}
//	join        → CROSS JOIN entity_ref
//	            | [INNER | LEFT [OUTER] | RIGHT [OUTER] | FULL [OUTER]] JOIN [FETCH] path [[AS] alias]
//	              [(ON | WITH) expr]

// parseFromClause parses the FROM clause.
func (p *Parser) parseFromClause() *FromClause {
	from := &FromClause{base: p.base()}
	p.nextToken() // FROM
	for !p.failed() {
		from.Spaces = append(from.Spaces, p.parseFromElementSpace())
		if !p.match(token.COMMA) {
			break
		}
	}
	return from
}

func (p *Parser) parseFromElementSpace() *FromElementSpace {
	space := &FromElementSpace{base: p.base()}
	space.Root = p.parseRootEntity()
	for !p.failed() && p.isJoinStart() {
		if j := p.parseJoin(); j != nil {
			space.Joins = append(space.Joins, j)
		}
	}
	return space
}

// parseRootEntity parses entity_ref.
func (p *Parser) parseRootEntity() *RootEntity {
	r := &RootEntity{base: p.base()}
	r.EntityName = p.parseQualifiedName()
	r.Alias = p.parseOptionalAlias()
	return r
}

// parseQualifiedName parses IDENT {'.' IDENT}.
func (p *Parser) parseQualifiedName() string {
	if !p.check(token.IDENT) {
		p.addError(fmt.Sprintf(ErrUnexpectedToken, p.describe(p.token), "entity name"))
		return ""
	}
	name := p.token.Literal
	p.nextToken()
	for p.check(token.DOT) && p.checkPeek(token.IDENT) {
		p.nextToken()
		name += "." + p.token.Literal
		p.nextToken()
	}
	return name
}

// parseOptionalAlias parses [[AS] alias].
func (p *Parser) parseOptionalAlias() string {
	if p.match(token.AS) {
		if !p.check(token.IDENT) {
			p.addError(fmt.Sprintf(ErrUnexpectedToken, p.describe(p.token), "alias"))
			return ""
		}
		alias := p.token.Literal
		p.nextToken()
		return alias
	}
	if p.check(token.IDENT) {
		alias := p.token.Literal
		p.nextToken()
		return alias
	}
	return ""
}

func (p *Parser) isJoinStart() bool {
	switch p.token.Type {
	case token.JOIN, token.INNER, token.LEFT, token.RIGHT, token.FULL, token.CROSS:
		return true
	}
	return false
}

// parseJoin parses a single join.
func (p *Parser) parseJoin() JoinNode {
	start := p.token.Pos

	if p.check(token.CROSS) {
		p.nextToken()
		p.expect(token.JOIN)
		j := &CrossJoin{base: p.baseAt(start)}
		j.EntityName = p.parseQualifiedName()
		j.Alias = p.parseOptionalAlias()
		return j
	}

	joinType := core.JoinInner
	switch p.token.Type {
	case token.INNER:
		p.nextToken()
	case token.LEFT:
		joinType = core.JoinLeft
		p.nextToken()
		p.match(token.OUTER)
	case token.RIGHT:
		joinType = core.JoinRight
		p.nextToken()
		p.match(token.OUTER)
	case token.FULL:
		joinType = core.JoinFull
		p.nextToken()
		p.match(token.OUTER)
	}
	if !p.expect(token.JOIN) {
		return nil
	}

	j := &QualifiedJoin{base: p.baseAt(start), Type: joinType}
	j.Fetch = p.match(token.FETCH)
	j.Path = p.parsePath()
	j.Alias = p.parseOptionalAlias()
	if p.match(token.ON) || p.match(token.WITH) {
		j.On = p.parseExpression()
	}
	return j
}

// parsePath parses a dotted identifier sequence. Segments after the first
// may be keywords.
func (p *Parser) parsePath() *DottedPath {
	path := &DottedPath{base: p.base()}
	if !p.check(token.IDENT) {
		p.addError(fmt.Sprintf(ErrUnexpectedToken, p.describe(p.token), "path"))
		return path
	}
	path.Parts = append(path.Parts, p.token.Literal)
	p.nextToken()
	path.Parts = append(path.Parts, p.parsePathTail()...)
	return path
}

// parsePathTail parses {'.' segment}.
func (p *Parser) parsePathTail() []string {
	var parts []string
	for p.check(token.DOT) && (p.checkPeek(token.IDENT) || p.peek.Type.IsKeyword()) {
		p.nextToken()
		parts = append(parts, p.token.Literal)
		p.nextToken()
	}
	return parts
}

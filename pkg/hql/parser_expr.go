package hql

import (
	"strings"

	"github.com/leapstack-labs/leapql/pkg/token"
)

// Expression precedence parsing using a Pratt parser.
//
// Precedence levels:
//
//	PrecedenceNone       = 0
//	PrecedenceOr         = 1
//	PrecedenceAnd        = 2
//	PrecedenceNot        = 3
//	PrecedenceComparison = 4  (=, !=, <, >, <=, >=, IS, IN, BETWEEN, LIKE)
//	PrecedenceAddition   = 5  (+, -, ||)
//	PrecedenceMultiply   = 6  (*, /, %)
//	PrecedenceUnary      = 7  (-, +)

// Operator precedence levels.
const (
	PrecedenceNone = iota
	PrecedenceOr
	PrecedenceAnd
	PrecedenceNot
	PrecedenceComparison
	PrecedenceAddition
	PrecedenceMultiply
	PrecedenceUnary
)

// parseExpression parses an expression using precedence climbing.
func (p *Parser) parseExpression() Expr {
	return p.parseExpressionWithPrecedence(PrecedenceNone + 1)
}

func (p *Parser) parseExpressionWithPrecedence(minPrecedence int) Expr {
	left := p.parsePrefixExpr()
	if left == nil {
		return nil
	}

	for !p.failed() {
		prec := precedence(p.token.Type)
		if prec == PrecedenceNone || prec < minPrecedence {
			break
		}
		left = p.parseInfixExpr(left, prec)
		if left == nil {
			break
		}
	}

	return left
}

// parsePrefixExpr parses prefix expressions (unary operators and primary expressions).
func (p *Parser) parsePrefixExpr() Expr {
	switch p.token.Type {
	case token.NOT:
		b := p.base()
		p.nextToken()
		expr := p.parseExpressionWithPrecedence(PrecedenceNot)
		if expr == nil {
			return nil
		}
		return &NotExpr{base: b, Expr: expr}

	case token.MINUS, token.PLUS:
		b := p.base()
		op := p.token.Type
		p.nextToken()
		expr := p.parseExpressionWithPrecedence(PrecedenceUnary)
		if expr == nil {
			return nil
		}
		return &UnaryExpr{base: b, Op: op, Operand: expr}

	default:
		return p.parsePrimary()
	}
}

// precedence returns the precedence of t as an infix operator, or PrecedenceNone.
func precedence(t token.TokenType) int {
	switch t {
	case token.OR:
		return PrecedenceOr
	case token.AND:
		return PrecedenceAnd
	case token.EQ, token.NE, token.LT, token.GT, token.LE, token.GE,
		token.IS, token.IN, token.BETWEEN, token.LIKE, token.NOT:
		return PrecedenceComparison
	case token.PLUS, token.MINUS, token.DPIPE:
		return PrecedenceAddition
	case token.STAR, token.SLASH, token.PERCENT:
		return PrecedenceMultiply
	default:
		return PrecedenceNone
	}
}

// parseInfixExpr parses an infix expression given the left operand and current precedence.
func (p *Parser) parseInfixExpr(left Expr, prec int) Expr {
	b := p.baseAt(left.Pos())

	switch p.token.Type {
	case token.NOT:
		// NOT IN, NOT BETWEEN, NOT LIKE
		p.nextToken()
		switch p.token.Type {
		case token.IN:
			p.nextToken()
			return p.parseInExpr(b, left, true)
		case token.BETWEEN:
			p.nextToken()
			return p.parseBetweenExpr(b, left, true)
		case token.LIKE:
			p.nextToken()
			return p.parseLikeExpr(b, left, true)
		}
		p.addError("expected IN, BETWEEN or LIKE after NOT")
		return nil

	case token.IS:
		p.nextToken()
		not := p.match(token.NOT)
		if !p.expect(token.NULL) {
			return nil
		}
		return &IsNullExpr{base: b, Expr: left, Not: not}

	case token.IN:
		p.nextToken()
		return p.parseInExpr(b, left, false)

	case token.BETWEEN:
		p.nextToken()
		return p.parseBetweenExpr(b, left, false)

	case token.LIKE:
		p.nextToken()
		return p.parseLikeExpr(b, left, false)

	case token.AND, token.OR:
		op := p.token.Type
		p.nextToken()
		right := p.parseExpressionWithPrecedence(prec + 1)
		if right == nil {
			return nil
		}
		return &LogicalExpr{base: b, Op: op, Left: left, Right: right}

	case token.EQ, token.NE, token.LT, token.GT, token.LE, token.GE:
		op := p.token.Type
		p.nextToken()
		right := p.parseExpressionWithPrecedence(prec + 1)
		if right == nil {
			return nil
		}
		return &ComparisonExpr{base: b, Op: op, Left: left, Right: right}

	default:
		op := p.token.Type
		p.nextToken()
		right := p.parseExpressionWithPrecedence(prec + 1)
		if right == nil {
			return nil
		}
		return &BinaryExpr{base: b, Op: op, Left: left, Right: right}
	}
}

// in_expr → IN '(' (query_spec | expr {',' expr}) ')' | IN parameter
func (p *Parser) parseInExpr(b base, left Expr, not bool) Expr {
	in := &InExpr{base: b, Expr: left, Not: not}
	if p.check(token.NAMED_PARAM) || p.check(token.POS_PARAM) {
		in.List = []Expr{p.parsePrimary()}
		return in
	}
	if !p.expect(token.LPAREN) {
		return nil
	}
	if p.check(token.SELECT) || p.check(token.FROM) {
		in.Query = p.parseQuerySpec()
	} else {
		for !p.failed() {
			e := p.parseExpression()
			if e == nil {
				return nil
			}
			in.List = append(in.List, e)
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	if !p.expect(token.RPAREN) {
		return nil
	}
	return in
}

// between_expr → BETWEEN expr AND expr
func (p *Parser) parseBetweenExpr(b base, left Expr, not bool) Expr {
	low := p.parseExpressionWithPrecedence(PrecedenceAddition)
	if low == nil || !p.expect(token.AND) {
		return nil
	}
	high := p.parseExpressionWithPrecedence(PrecedenceAddition)
	if high == nil {
		return nil
	}
	return &BetweenExpr{base: b, Expr: left, Not: not, Low: low, High: high}
}

// like_expr → LIKE expr [ESCAPE expr]
func (p *Parser) parseLikeExpr(b base, left Expr, not bool) Expr {
	pattern := p.parseExpressionWithPrecedence(PrecedenceAddition)
	if pattern == nil {
		return nil
	}
	like := &LikeExpr{base: b, Expr: left, Not: not, Pattern: pattern}
	if p.check(token.IDENT) && strings.EqualFold(p.token.Literal, "escape") {
		p.nextToken()
		like.Escape = p.parseExpressionWithPrecedence(PrecedenceAddition)
		if like.Escape == nil {
			return nil
		}
	}
	return like
}

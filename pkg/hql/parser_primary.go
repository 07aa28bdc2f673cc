package hql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapql/pkg/token"
)

// Primary expression parsing.
//
// Grammar:
//
//	primary   → literal | parameter | '(' expr ')' | '(' query_spec ')'
//	          | EXISTS '(' query_spec ')'
//	          | TREAT '(' path AS entity_name ')' {'.' IDENT}
//	          | TYPE '(' path ')'
//	          | func_name '(' [DISTINCT] ('*' | expr {',' expr}) ')'
//	          | path ['[' expr ']' {'.' IDENT}]
//	literal   → NUMBER | STRING | TRUE | FALSE | NULL
//	parameter → ':' IDENT | '?' NUMBER

func (p *Parser) parsePrimary() Expr {
	switch p.token.Type {
	case token.NUMBER:
		return p.parseNumber()

	case token.STRING:
		lit := &Literal{base: p.base(), Kind: LitString, Text: p.token.Literal}
		p.nextToken()
		return lit

	case token.TRUE, token.FALSE:
		lit := &Literal{base: p.base(), Kind: LitBoolean, Text: strings.ToLower(p.token.Literal)}
		p.nextToken()
		return lit

	case token.NULL:
		lit := &Literal{base: p.base(), Kind: LitNull, Text: "null"}
		p.nextToken()
		return lit

	case token.NAMED_PARAM:
		if p.sawOrdinal {
			p.addError(ErrMixedParameters)
			return nil
		}
		p.sawNamed = true
		param := &Parameter{base: p.base(), Name: p.token.Literal}
		p.nextToken()
		return param

	case token.POS_PARAM:
		if p.sawNamed {
			p.addError(ErrMixedParameters)
			return nil
		}
		p.sawOrdinal = true
		n, err := strconv.Atoi(p.token.Literal)
		if err != nil || n < 1 {
			p.addError(fmt.Sprintf(ErrInvalidParameter, "?"+p.token.Literal))
			return nil
		}
		param := &Parameter{base: p.base(), Position: n}
		p.nextToken()
		return param

	case token.LPAREN:
		return p.parseParenExpr()

	case token.EXISTS:
		b := p.base()
		p.nextToken()
		if !p.expect(token.LPAREN) {
			return nil
		}
		q := p.parseQuerySpec()
		if !p.expect(token.RPAREN) {
			return nil
		}
		return &ExistsExpr{base: b, Query: q}

	case token.IDENT:
		if p.checkPeek(token.LPAREN) {
			switch strings.ToLower(p.token.Literal) {
			case "treat":
				return p.parseTreat()
			case "type":
				return p.parseType()
			}
			return p.parseFuncCall()
		}
		return p.parsePathExpr()

	case token.ILLEGAL:
		p.addError(p.describe(p.token))
		return nil

	default:
		p.addError(fmt.Sprintf(ErrUnexpectedInput, p.describe(p.token)))
		return nil
	}
}

// parseNumber classifies a numeric literal by its shape and suffix.
func (p *Parser) parseNumber() Expr {
	lit := &Literal{base: p.base()}
	text := p.token.Literal
	lower := strings.ToLower(text)

	switch {
	case strings.HasSuffix(lower, "bd"):
		lit.Kind, text = LitBigDecimal, text[:len(text)-2]
	case strings.HasSuffix(lower, "bi"):
		lit.Kind, text = LitBigInteger, text[:len(text)-2]
	case strings.HasSuffix(lower, "l"):
		lit.Kind, text = LitLong, text[:len(text)-1]
	case strings.HasSuffix(lower, "f"):
		lit.Kind, text = LitFloat, text[:len(text)-1]
	case strings.HasSuffix(lower, "d"):
		lit.Kind, text = LitDouble, text[:len(text)-1]
	case strings.ContainsAny(lower, ".e"):
		lit.Kind = LitDecimal
	default:
		lit.Kind = LitInteger
	}

	if _, err := strconv.ParseFloat(text, 64); err != nil {
		p.addError(fmt.Sprintf(ErrInvalidNumber, p.token.Literal))
		return nil
	}
	if lit.Kind == LitInteger {
		if _, err := strconv.ParseInt(text, 10, 32); err != nil {
			lit.Kind = LitLong
		}
	}
	lit.Text = text
	p.nextToken()
	return lit
}

// parseParenExpr parses '(' expr ')' or '(' query_spec ')'.
func (p *Parser) parseParenExpr() Expr {
	b := p.base()
	p.nextToken() // (
	if p.check(token.SELECT) || p.check(token.FROM) {
		q := p.parseQuerySpec()
		if !p.expect(token.RPAREN) {
			return nil
		}
		return &SubqueryExpr{base: b, Query: q}
	}
	expr := p.parseExpression()
	if expr == nil || !p.expect(token.RPAREN) {
		return nil
	}
	return expr
}

func (p *Parser) parseTreat() Expr {
	t := &TreatExpr{base: p.base()}
	p.nextToken() // TREAT
	p.nextToken() // (
	t.Path = p.parsePath()
	if !p.expect(token.AS) {
		return nil
	}
	t.EntityName = p.parseQualifiedName()
	if !p.expect(token.RPAREN) {
		return nil
	}
	t.Rest = p.parsePathTail()
	return t
}

func (p *Parser) parseType() Expr {
	t := &TypeExpr{base: p.base()}
	p.nextToken() // TYPE
	p.nextToken() // (
	t.Path = p.parsePath()
	if !p.expect(token.RPAREN) {
		return nil
	}
	return t
}

func (p *Parser) parseFuncCall() Expr {
	fn := &FuncCall{base: p.base(), Name: strings.ToLower(p.token.Literal)}
	p.nextToken() // name
	p.nextToken() // (

	if p.match(token.RPAREN) {
		return fn
	}
	if p.check(token.STAR) {
		p.nextToken()
		fn.Star = true
		if !p.expect(token.RPAREN) {
			return nil
		}
		return fn
	}
	fn.Distinct = p.match(token.DISTINCT)
	for !p.failed() {
		arg := p.parseExpression()
		if arg == nil {
			return nil
		}
		fn.Args = append(fn.Args, arg)
		if !p.match(token.COMMA) {
			break
		}
	}
	if !p.expect(token.RPAREN) {
		return nil
	}
	return fn
}

// parsePathExpr parses a dotted path optionally followed by an index access.
func (p *Parser) parsePathExpr() Expr {
	path := p.parsePath()
	if !p.check(token.LBRACKET) {
		return path
	}
	idx := &IndexedPath{base: p.baseAt(path.Pos()), Collection: path}
	p.nextToken() // [
	idx.Index = p.parseExpression()
	if idx.Index == nil || !p.expect(token.RBRACKET) {
		return nil
	}
	idx.Rest = p.parsePathTail()
	return idx
}

package hql

import (
	"fmt"

	"github.com/leapstack-labs/leapql/pkg/token"
)

// SELECT clause parsing.
//
// Grammar:
//
//	select_list   → select_item {',' select_item}
//	select_item   → (instantiation | expr) [[AS] alias]
//	instantiation → NEW target '(' inst_arg {',' inst_arg} ')'
//	target        → IDENT {'.' IDENT}
//	inst_arg      → expr [[AS] alias]

func (p *Parser) parseSelectClause() *SelectClause {
	sel := &SelectClause{base: p.base()}
	p.nextToken() // SELECT
	sel.Distinct = p.match(token.DISTINCT)
	for !p.failed() {
		sel.Items = append(sel.Items, p.parseSelectItem())
		if !p.match(token.COMMA) {
			break
		}
	}
	return sel
}

func (p *Parser) parseSelectItem() *SelectItem {
	item := &SelectItem{base: p.base()}
	if p.check(token.NEW) {
		item.Expr = p.parseInstantiation()
	} else {
		item.Expr = p.parseExpression()
	}
	item.Alias = p.parseOptionalAlias()
	return item
}

func (p *Parser) parseInstantiation() *DynamicInstantiation {
	inst := &DynamicInstantiation{base: p.base()}
	p.nextToken() // NEW
	inst.Target = p.parseQualifiedName()
	if !p.expect(token.LPAREN) {
		return inst
	}
	for !p.failed() {
		arg := &InstantiationArg{base: p.base()}
		if p.check(token.NEW) {
			arg.Expr = p.parseInstantiation()
		} else {
			arg.Expr = p.parseExpression()
		}
		arg.Alias = p.parseOptionalAlias()
		inst.Args = append(inst.Args, arg)
		if !p.match(token.COMMA) {
			break
		}
	}
	if len(inst.Args) == 0 {
		p.addError(fmt.Sprintf("instantiation of %q requires at least one argument", inst.Target))
	}
	p.expect(token.RPAREN)
	return inst
}

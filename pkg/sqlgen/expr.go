package sqlgen

import (
	"fmt"

	"github.com/leapstack-labs/leapql/pkg/core"
	"github.com/leapstack-labs/leapql/pkg/domain"
	"github.com/leapstack-labs/leapql/pkg/hql"
	"github.com/leapstack-labs/leapql/pkg/sqlast"
	"github.com/leapstack-labs/leapql/pkg/sqm"
)

func (g *Generator) expression(e sqm.Expression) (sqlast.Expression, error) {
	switch v := e.(type) {
	case *sqm.FromElementReference:
		et := v.Element.EffectiveType()
		refs, err := g.columnBindings(v.Element, et.IDColumns(), et.ID.FlatSQLTypes())
		if err != nil {
			return nil, err
		}
		return columnsExpr(refs), nil

	case *sqm.AttributeReference:
		if v.Attribute.Classification == domain.CollectionValued {
			return nil, core.Internalf("collection %s used as a value", v.Attribute)
		}
		refs, err := g.columnBindings(v.Source, v.Attribute.FlatColumns(), v.Attribute.FlatSQLTypes())
		if err != nil {
			return nil, err
		}
		return columnsExpr(refs), nil

	case *sqm.CollectionIndex:
		col := v.Element.Attribute.IndexColumn
		if col == nil {
			return nil, core.Internalf("collection %s has no index column", v.Element.Attribute)
		}
		tg, err := g.lookup(v.Element)
		if err != nil {
			return nil, err
		}
		return g.column(v.Element, tg, *col, "integer")

	case *sqm.EntityTypeExpression:
		d := v.Element.EffectiveType().Discriminator
		if d == nil {
			return nil, core.NotYetImplemented("TYPE() of an entity without discriminator")
		}
		tg, err := g.lookup(v.Element)
		if err != nil {
			return nil, err
		}
		return g.column(v.Element, tg, d.Column, d.SQLType)

	case *sqm.EntityTypeLiteral:
		d := v.Entity.Discriminator
		if d == nil {
			return nil, core.NotYetImplemented("entity type literal without discriminator")
		}
		return &sqlast.Literal{Kind: sqlast.StringLiteral, Value: d.Value, SQLType: d.SQLType}, nil

	case *sqm.Literal:
		return literal(v), nil

	case *sqm.ConstantReference:
		return constant(v), nil

	case *sqm.Parameter:
		return &sqlast.Parameter{Binder: &sqlast.ParameterBinder{
			Name:     v.Name,
			Position: v.Position,
			SQLType:  v.Type,
		}}, nil

	case *sqm.BinaryArithmetic:
		left, err := g.scalar(v.Left)
		if err != nil {
			return nil, err
		}
		right, err := g.scalar(v.Right)
		if err != nil {
			return nil, err
		}
		return &sqlast.Arithmetic{Op: v.Op, Left: left, Right: right}, nil

	case *sqm.UnaryMinus:
		operand, err := g.scalar(v.Operand)
		if err != nil {
			return nil, err
		}
		return &sqlast.Negation{Operand: operand}, nil

	case *sqm.Function:
		fn := &sqlast.FunctionCall{Name: v.Name, Distinct: v.Distinct, Star: v.Star}
		for _, a := range v.Args {
			arg, err := g.expression(a)
			if err != nil {
				return nil, err
			}
			fn.Args = append(fn.Args, arg)
		}
		return fn, nil

	case *sqm.SubqueryExpression:
		q, _, err := g.querySpec(v.Query)
		if err != nil {
			return nil, err
		}
		return &sqlast.Subquery{Query: q}, nil

	case *sqm.DynamicInstantiation:
		return nil, core.Semanticf(v.Target, "dynamic instantiation is only allowed in the select clause")
	}
	return nil, core.Internalf("unexpected expression %T", e)
}

// scalar converts e and requires it to be a single column.
func (g *Generator) scalar(e sqm.Expression) (sqlast.Expression, error) {
	out, err := g.expression(e)
	if err != nil {
		return nil, err
	}
	if n := sqlast.Width(out); n != 1 {
		return nil, core.Semanticf("", "multi-column value (%d columns) used in arithmetic", n)
	}
	return out, nil
}

func columnsExpr(refs []*sqlast.ColumnReference) sqlast.Expression {
	if len(refs) == 1 {
		return refs[0]
	}
	items := make([]sqlast.Expression, len(refs))
	for i, r := range refs {
		items[i] = r
	}
	return &sqlast.Tuple{Items: items}
}

func literal(l *sqm.Literal) *sqlast.Literal {
	out := &sqlast.Literal{Value: l.Text, SQLType: l.Type}
	switch l.Kind {
	case hql.LitString:
		out.Kind = sqlast.StringLiteral
	case hql.LitBoolean:
		out.Kind = sqlast.BooleanLiteral
	case hql.LitNull:
		out.Kind = sqlast.NullLiteral
	default:
		out.Kind = sqlast.NumericLiteral
	}
	return out
}

func constant(c *sqm.ConstantReference) *sqlast.Literal {
	out := &sqlast.Literal{SQLType: c.Constant.SQLType}
	switch v := c.Constant.Value.(type) {
	case nil:
		out.Kind = sqlast.NullLiteral
	case string:
		out.Kind, out.Value = sqlast.StringLiteral, v
	case bool:
		out.Kind, out.Value = sqlast.BooleanLiteral, fmt.Sprint(v)
	default:
		out.Kind, out.Value = sqlast.NumericLiteral, fmt.Sprint(v)
	}
	return out
}

func (g *Generator) predicate(p sqm.Predicate) (sqlast.Predicate, error) {
	switch v := p.(type) {
	case *sqm.ComparisonPredicate:
		left, right, err := g.operands(v.Left, v.Right)
		if err != nil {
			return nil, err
		}
		if sqlast.Width(left) > 1 && v.Op != sqm.Equal && v.Op != sqm.NotEqual {
			return nil, core.NotYetImplemented("multi-column " + string(v.Op) + " comparison")
		}
		return &sqlast.Comparison{Op: string(v.Op), Left: left, Right: right}, nil

	case *sqm.Junction:
		out := &sqlast.Junction{Conjunction: v.Conjunction}
		for _, child := range v.Predicates {
			c, err := g.predicate(child)
			if err != nil {
				return nil, err
			}
			out.Predicates = append(out.Predicates, c)
		}
		return out, nil

	case *sqm.NegatedPredicate:
		inner, err := g.predicate(v.Predicate)
		if err != nil {
			return nil, err
		}
		return &sqlast.Negated{Predicate: inner}, nil

	case *sqm.NullnessPredicate:
		expr, err := g.expression(v.Expr)
		if err != nil {
			return nil, err
		}
		return &sqlast.Nullness{Expr: expr, Negated: v.Negated}, nil

	case *sqm.InListPredicate:
		expr, err := g.expression(v.Expr)
		if err != nil {
			return nil, err
		}
		out := &sqlast.InList{Expr: expr, Negated: v.Negated}
		for _, item := range v.List {
			conv, err := g.expression(item)
			if err != nil {
				return nil, err
			}
			if err := checkWidths(expr, conv); err != nil {
				return nil, err
			}
			out.List = append(out.List, conv)
		}
		return out, nil

	case *sqm.InSubqueryPredicate:
		expr, err := g.expression(v.Expr)
		if err != nil {
			return nil, err
		}
		q, _, err := g.querySpec(v.Query)
		if err != nil {
			return nil, err
		}
		if len(q.Selections) != sqlast.Width(expr) {
			return nil, core.Semanticf("", "IN subquery selects %d columns, expected %d", len(q.Selections), sqlast.Width(expr))
		}
		return &sqlast.InSubquery{Expr: expr, Query: q, Negated: v.Negated}, nil

	case *sqm.BetweenPredicate:
		expr, err := g.scalar(v.Expr)
		if err != nil {
			return nil, err
		}
		low, err := g.scalar(v.Low)
		if err != nil {
			return nil, err
		}
		high, err := g.scalar(v.High)
		if err != nil {
			return nil, err
		}
		return &sqlast.Between{Expr: expr, Low: low, High: high, Negated: v.Negated}, nil

	case *sqm.LikePredicate:
		expr, err := g.scalar(v.Expr)
		if err != nil {
			return nil, err
		}
		pattern, err := g.scalar(v.Pattern)
		if err != nil {
			return nil, err
		}
		out := &sqlast.Like{Expr: expr, Pattern: pattern, Negated: v.Negated}
		if v.Escape != nil {
			if out.Escape, err = g.scalar(v.Escape); err != nil {
				return nil, err
			}
		}
		return out, nil

	case *sqm.ExistsPredicate:
		q, _, err := g.querySpec(v.Query)
		if err != nil {
			return nil, err
		}
		return &sqlast.Exists{Query: q, Negated: v.Negated}, nil
	}
	return nil, core.Internalf("unexpected predicate %T", p)
}

// operands converts both sides of a comparison and checks that they have
// the same number of columns.
func (g *Generator) operands(l, r sqm.Expression) (sqlast.Expression, sqlast.Expression, error) {
	left, err := g.expression(l)
	if err != nil {
		return nil, nil, err
	}
	right, err := g.expression(r)
	if err != nil {
		return nil, nil, err
	}
	if err := checkWidths(left, right); err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

func checkWidths(left, right sqlast.Expression) error {
	lw, rw := sqlast.Width(left), sqlast.Width(right)
	switch {
	case lw == rw:
		return nil
	case isParameter(left) || isParameter(right):
		return core.NotYetImplemented("binding a parameter to a multi-column value")
	case isSubquery(left) || isSubquery(right):
		return nil
	}
	return core.Semanticf("", "cannot compare a %d column value with a %d column value", lw, rw)
}

func isParameter(e sqlast.Expression) bool {
	_, ok := e.(*sqlast.Parameter)
	return ok
}

func isSubquery(e sqlast.Expression) bool {
	_, ok := e.(*sqlast.Subquery)
	return ok
}

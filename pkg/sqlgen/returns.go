package sqlgen

import (
	"github.com/leapstack-labs/leapql/pkg/core"
	"github.com/leapstack-labs/leapql/pkg/domain"
	"github.com/leapstack-labs/leapql/pkg/sqlast"
	"github.com/leapstack-labs/leapql/pkg/sqm"
)

// selection adds the columns of one top level selection to q and returns
// the descriptor that reads them back.
func (g *Generator) selection(q *sqlast.QuerySpec, e sqm.Expression, alias string) (sqlast.Return, error) {
	switch v := e.(type) {
	case *sqm.FromElementReference:
		return g.entityReturn(q, v.Element, alias)

	case *sqm.AttributeReference:
		if v.Attribute.Classification == domain.Embedded {
			ret := &sqlast.CompositeReturn{Alias: alias, Path: v.Path}
			for _, c := range v.Attribute.Components {
				comps, err := g.attributeReturns(q, v.Source, c, "")
				if err != nil {
					return nil, err
				}
				ret.Components = append(ret.Components, comps...)
			}
			return ret, nil
		}

	case *sqm.DynamicInstantiation:
		ret := &sqlast.DynamicInstantiationReturn{Alias: alias, Target: v.Target}
		for _, arg := range v.Args {
			r, err := g.selection(q, arg.Expr, arg.Alias)
			if err != nil {
				return nil, err
			}
			ret.Args = append(ret.Args, &sqlast.InstantiationArgReturn{Alias: arg.Alias, Return: r})
		}
		return ret, nil
	}

	expr, err := g.expression(e)
	if err != nil {
		return nil, err
	}
	if sqlast.Width(expr) != 1 {
		return nil, core.NotYetImplemented("selecting a multi-column value")
	}
	return &sqlast.ScalarReturn{Alias: alias, Position: q.AddSelection(expr), SQLType: e.SQLType()}, nil
}

// entityReturn selects the identifier and every non-collection attribute
// of fe, followed by the associations fetched through it.
func (g *Generator) entityReturn(q *sqlast.QuerySpec, fe *sqm.FromElement, alias string) (*sqlast.EntityReturn, error) {
	et := fe.EffectiveType()
	ret := &sqlast.EntityReturn{Alias: alias, Entity: et.Name, IDName: et.ID.Name}
	if !fe.ImplicitAlias {
		ret.Source = fe.Alias
	}

	ids, err := g.columnBindings(fe, et.IDColumns(), et.ID.FlatSQLTypes())
	if err != nil {
		return nil, err
	}
	for _, c := range ids {
		ret.IDPositions = append(ret.IDPositions, q.AddSelection(c))
	}

	for _, attr := range et.Attributes {
		if attr == et.ID || attr.Classification == domain.CollectionValued {
			continue
		}
		attrs, err := g.attributeReturns(q, fe, attr, "")
		if err != nil {
			return nil, err
		}
		ret.Attributes = append(ret.Attributes, attrs...)
	}

	for _, j := range fe.Space().Joins() {
		if !j.Fetched || j.Lhs != fe {
			continue
		}
		child, err := g.entityReturn(q, j, "")
		if err != nil {
			return nil, err
		}
		ret.Fetches = append(ret.Fetches, &sqlast.FetchReturn{
			Attribute:  j.Attribute.Name,
			Collection: j.Attribute.Classification == domain.CollectionValued,
			Entity:     child,
		})
	}
	return ret, nil
}

// attributeReturns selects the columns of attr. Embedded attributes yield
// one return per leaf component, named by its dotted path below prefix.
func (g *Generator) attributeReturns(q *sqlast.QuerySpec, fe *sqm.FromElement, attr *domain.Attribute, prefix string) ([]*sqlast.AttributeReturn, error) {
	name := attr.Name
	if prefix != "" {
		name = prefix + "." + attr.Name
	}
	if attr.Classification == domain.Embedded {
		var out []*sqlast.AttributeReturn
		for _, c := range attr.Components {
			comps, err := g.attributeReturns(q, fe, c, name)
			if err != nil {
				return nil, err
			}
			out = append(out, comps...)
		}
		return out, nil
	}

	cols, err := g.columnBindings(fe, attr.Columns, attr.FlatSQLTypes())
	if err != nil {
		return nil, err
	}
	ret := &sqlast.AttributeReturn{Name: name, SQLTypes: attr.FlatSQLTypes()}
	for _, c := range cols {
		ret.Positions = append(ret.Positions, q.AddSelection(c))
	}
	return []*sqlast.AttributeReturn{ret}, nil
}

// Package sqlgen generates the SQL tree from a typed statement.
//
// Every from-element maps to exactly one table group, recorded in a cross
// reference that is consulted before a group is built. Column references
// are resolved through that cross reference.
package sqlgen

import (
	"log/slog"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/leapstack-labs/leapql/pkg/core"
	"github.com/leapstack-labs/leapql/pkg/domain"
	"github.com/leapstack-labs/leapql/pkg/sqlast"
	"github.com/leapstack-labs/leapql/pkg/sqm"
)

// Generator converts one typed statement into a SQL tree. It must not be
// shared between compilations.
type Generator struct {
	logger *slog.Logger
	xref   map[*sqm.FromElement]*sqlast.TableGroup
	groups int
}

// New creates a generator. A nil logger discards output.
func New(logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Generator{
		logger: logger,
		xref:   make(map[*sqm.FromElement]*sqlast.TableGroup),
	}
}

// Generate produces the SQL tree and the return descriptors of stmt.
func (g *Generator) Generate(stmt *sqm.SelectStatement) (*sqlast.SelectStatement, error) {
	if stmt.Query.Subquery {
		return nil, core.Internalf("top level query marked as subquery")
	}
	if err := validateFetches(stmt.Query); err != nil {
		return nil, err
	}
	q, returns, err := g.querySpec(stmt.Query)
	if err != nil {
		return nil, err
	}
	return &sqlast.SelectStatement{Query: q, Returns: returns}, nil
}

func (g *Generator) querySpec(q *sqm.QuerySpec) (*sqlast.QuerySpec, []sqlast.Return, error) {
	out := &sqlast.QuerySpec{Distinct: q.Distinct}
	from, err := g.fromClause(q.Scope)
	if err != nil {
		return nil, nil, err
	}
	out.From = from

	var returns []sqlast.Return
	for _, sel := range q.Selections {
		if q.Subquery {
			expr, err := g.expression(sel.Expr)
			if err != nil {
				return nil, nil, err
			}
			addColumns(out, expr)
			continue
		}
		ret, err := g.selection(out, sel.Expr, sel.Alias)
		if err != nil {
			return nil, nil, err
		}
		returns = append(returns, ret)
	}

	if q.Where != nil {
		if out.Where, err = g.predicate(q.Where); err != nil {
			return nil, nil, err
		}
	}

	for _, s := range q.OrderBy {
		expr, err := g.expression(s.Expr)
		if err != nil {
			return nil, nil, err
		}
		if t, ok := expr.(*sqlast.Tuple); ok {
			for _, item := range t.Items {
				out.OrderBy = append(out.OrderBy, &sqlast.SortSpec{Expr: item, Descending: s.Descending})
			}
			continue
		}
		out.OrderBy = append(out.OrderBy, &sqlast.SortSpec{Expr: expr, Descending: s.Descending})
	}
	return out, returns, nil
}

// addColumns adds expr to the select list, one item per tuple element.
func addColumns(q *sqlast.QuerySpec, expr sqlast.Expression) []int {
	if t, ok := expr.(*sqlast.Tuple); ok {
		positions := make([]int, len(t.Items))
		for i, item := range t.Items {
			positions[i] = q.AddSelection(item)
		}
		return positions
	}
	return []int{q.AddSelection(expr)}
}

// fromClause builds one table space per from-element-space. Groups are
// created for every from-element first so join predicates may refer to
// any from-element of the scope.
func (g *Generator) fromClause(scope *sqm.Scope) (*sqlast.FromClause, error) {
	for _, fe := range scope.FromElements() {
		if fe.Kind != sqm.RootKind && !fe.JoinType.Supported() {
			return nil, &core.UnsupportedJoinTypeError{JoinType: fe.JoinType}
		}
		if _, err := g.TableGroup(fe); err != nil {
			return nil, err
		}
	}

	from := &sqlast.FromClause{}
	for _, fs := range scope.Spaces() {
		root, err := g.lookup(fs.Root())
		if err != nil {
			return nil, err
		}
		ts := sqlast.NewRootSpace(root)
		for _, fe := range fs.Joins() {
			group, err := g.lookup(fe)
			if err != nil {
				return nil, err
			}
			pred, err := g.joinPredicate(fe, group)
			if err != nil {
				return nil, err
			}
			ts.AddJoin(&sqlast.TableGroupJoin{Type: fe.JoinType, Group: group, Predicate: pred})
		}
		from.Spaces = append(from.Spaces, ts)
	}
	return from, nil
}

// TableGroup returns the table group of fe, building it on first use.
// Repeated calls return the same group.
func (g *Generator) TableGroup(fe *sqm.FromElement) (*sqlast.TableGroup, error) {
	if tg, ok := g.xref[fe]; ok {
		return tg, nil
	}
	g.groups++
	base := aliasBase(fe, g.groups)
	et := fe.Entity

	var tg *sqlast.TableGroup
	if fe.Kind == sqm.AttributeJoinKind && fe.Attribute.ForeignKey != nil && fe.Attribute.ForeignKey.JoinTable != "" {
		fk := fe.Attribute.ForeignKey
		tg = sqlast.NewTableGroup(fe.String(), fk.JoinTable, base)
		if _, err := tg.JoinTable(core.JoinInner, et.Table, fk.ElementPairs); err != nil {
			return nil, err
		}
	} else {
		tg = sqlast.NewTableGroup(fe.String(), et.Table, base)
	}
	if err := tg.AddSecondaryTables(et.SecondaryTables); err != nil {
		return nil, err
	}

	g.xref[fe] = tg
	g.logger.Debug("created table group",
		slog.String("from", fe.String()),
		slog.String("table", tg.Root.Table),
		slog.String("alias", tg.Root.Alias))
	return tg, nil
}

// lookup returns the table group already built for fe.
func (g *Generator) lookup(fe *sqm.FromElement) (*sqlast.TableGroup, error) {
	tg, ok := g.xref[fe]
	if !ok {
		return nil, core.Internalf("from-element %s has no table group", fe)
	}
	return tg, nil
}

// joinPredicate derives the key equality of an attribute join and appends
// the explicit ON clause.
func (g *Generator) joinPredicate(fe *sqm.FromElement, target *sqlast.TableGroup) (sqlast.Predicate, error) {
	var preds []sqlast.Predicate
	if fe.Kind == sqm.AttributeJoinKind {
		lhs, err := g.lookup(fe.Lhs)
		if err != nil {
			return nil, err
		}
		fk := fe.Attribute.ForeignKey
		if fk == nil {
			return nil, core.Internalf("association %s has no foreign key", fe.Attribute)
		}
		for _, p := range fk.Pairs {
			left, err := g.column(fe.Lhs, lhs, p.Owning, "")
			if err != nil {
				return nil, err
			}
			right, err := g.column(fe, target, p.Target, "")
			if err != nil {
				return nil, err
			}
			preds = append(preds, &sqlast.Comparison{Op: "=", Left: left, Right: right})
		}
	}
	if on := fe.OnClause(); on != nil {
		p, err := g.predicate(on)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return sqlast.And(preds...), nil
}

// columnBindings binds cols to the tables of fe's group.
func (g *Generator) columnBindings(fe *sqm.FromElement, cols []domain.Column, types []string) ([]*sqlast.ColumnReference, error) {
	tg, err := g.lookup(fe)
	if err != nil {
		return nil, err
	}
	refs := make([]*sqlast.ColumnReference, len(cols))
	for i, c := range cols {
		typ := ""
		if i < len(types) {
			typ = types[i]
		}
		if refs[i], err = g.column(fe, tg, c, typ); err != nil {
			return nil, err
		}
	}
	return refs, nil
}

func (g *Generator) column(fe *sqm.FromElement, tg *sqlast.TableGroup, c domain.Column, sqlType string) (*sqlast.ColumnReference, error) {
	table, err := tg.ResolveTableReference(c.Table)
	if err != nil {
		if fe.TreatedAs() != nil {
			return nil, core.NotYetImplemented("TREAT to " + fe.TreatedAs().Name + " mapped to table " + c.Table)
		}
		return nil, err
	}
	return &sqlast.ColumnReference{Table: table, Column: c.Name, SQLType: sqlType}, nil
}

// aliasBase is the first letter of the attribute or entity name followed
// by the group number, e.g. s1.
func aliasBase(fe *sqm.FromElement, n int) string {
	name := fe.Entity.Name
	if fe.Kind == sqm.AttributeJoinKind {
		name = fe.Attribute.Name
	}
	letter := 't'
	if r, _ := utf8.DecodeRuneInString(name); unicode.IsLetter(r) && r < unicode.MaxASCII {
		letter = unicode.ToLower(r)
	}
	return string(letter) + strconv.Itoa(n)
}

// validateFetches checks that every fetched join hangs off a from-element
// that is selected, directly or through another fetch.
func validateFetches(q *sqm.QuerySpec) error {
	selected := make(map[*sqm.FromElement]bool)
	for _, s := range q.Selections {
		if ref, ok := s.Expr.(*sqm.FromElementReference); ok {
			selected[ref.Element] = true
		}
	}
	for _, fs := range q.Scope.Spaces() {
		for _, j := range fs.Joins() {
			if !j.Fetched {
				continue
			}
			if j.Lhs == nil || !selected[j.Lhs] {
				return core.Semanticf(j.String(), "query specified join fetching, but the owner of the fetched association was not present in the select list")
			}
			selected[j] = true
		}
	}
	return nil
}

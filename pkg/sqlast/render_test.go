package sqlast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapql/pkg/core"
	"github.com/leapstack-labs/leapql/pkg/dialect"
	"github.com/leapstack-labs/leapql/pkg/domain"
	"github.com/leapstack-labs/leapql/pkg/sqlast"
)

func pgLike() *dialect.Dialect {
	return dialect.New(&core.DialectConfig{
		Name:            "pglike",
		Placeholder:     core.PlaceholderDollar,
		BooleanLiterals: true,
		Identifiers:     core.IdentifierConfig{Quote: `"`, QuoteEnd: `"`, Escape: `""`},
	}).ReservedWords("order").Build()
}

func TestRender_SimpleQuery(t *testing.T) {
	g := sqlast.NewTableGroup("Something a", "something", "s1")
	col := &sqlast.ColumnReference{Table: g.Root, Column: "basic"}
	q := &sqlast.QuerySpec{
		From: &sqlast.FromClause{Spaces: []*sqlast.TableSpace{sqlast.NewRootSpace(g)}},
		Where: &sqlast.Comparison{
			Op:    "=",
			Left:  &sqlast.Literal{Kind: sqlast.NumericLiteral, Value: "1"},
			Right: &sqlast.Literal{Kind: sqlast.NumericLiteral, Value: "2"},
		},
	}
	q.AddSelection(col)

	out, err := sqlast.Render(&sqlast.SelectStatement{Query: q}, pgLike())
	require.NoError(t, err)
	assert.Equal(t, "select s1_0.basic from something s1_0 where 1=2", out.SQL)
	assert.Empty(t, out.Binders)
}

func TestRender_ParametersAndLiterals(t *testing.T) {
	g := sqlast.NewTableGroup("Order o", "order", "o1")
	p1 := &sqlast.ParameterBinder{Name: "name"}
	p2 := &sqlast.ParameterBinder{Name: "name"}
	q := &sqlast.QuerySpec{
		From: &sqlast.FromClause{Spaces: []*sqlast.TableSpace{sqlast.NewRootSpace(g)}},
		Where: &sqlast.Junction{Conjunction: true, Predicates: []sqlast.Predicate{
			&sqlast.Comparison{Op: "=", Left: &sqlast.ColumnReference{Table: g.Root, Column: "order"}, Right: &sqlast.Parameter{Binder: p1}},
			&sqlast.Junction{Predicates: []sqlast.Predicate{
				&sqlast.Comparison{Op: "<>", Left: &sqlast.ColumnReference{Table: g.Root, Column: "label"}, Right: &sqlast.Literal{Kind: sqlast.StringLiteral, Value: "it's"}},
				&sqlast.Nullness{Expr: &sqlast.Parameter{Binder: p2}},
			}},
			&sqlast.Negated{Predicate: &sqlast.Comparison{Op: "=", Left: &sqlast.ColumnReference{Table: g.Root, Column: "flag"}, Right: &sqlast.Literal{Kind: sqlast.BooleanLiteral, Value: "true"}}},
		}},
	}
	q.AddSelection(&sqlast.FunctionCall{Name: "count", Star: true})

	out, err := sqlast.Render(&sqlast.SelectStatement{Query: q}, pgLike())
	require.NoError(t, err)
	assert.Equal(t,
		`select count(*) from "order" o1_0 where o1_0."order"=$1 and (o1_0.label<>'it''s' or $2 is null) and not (o1_0.flag=true)`,
		out.SQL)
	require.Len(t, out.Binders, 2)
	assert.Same(t, p1, out.Binders[0])
	assert.Same(t, p2, out.Binders[1])
}

func TestRender_GroupJoins(t *testing.T) {
	root := sqlast.NewTableGroup("Something a", "something", "s1")
	space := sqlast.NewRootSpace(root)
	require.NoError(t, root.AddSecondaryTables([]domain.SecondaryTable{{
		Name:     "something_ext",
		Optional: true,
		KeyPairs: []domain.ColumnPair{{
			Owning: domain.Column{Table: "something", Name: "id"},
			Target: domain.Column{Table: "something_ext", Name: "something_id"},
		}},
	}}))

	// join table collection: something_other joined to other inside the group
	coll := sqlast.NewTableGroup("a.others o", "something_other", "o2")
	_, err := coll.JoinTable(core.JoinInner, "other", []domain.ColumnPair{{
		Owning: domain.Column{Table: "something_other", Name: "other_id"},
		Target: domain.Column{Table: "other", Name: "id"},
	}})
	require.NoError(t, err)
	space.AddJoin(&sqlast.TableGroupJoin{
		Type:  core.JoinLeft,
		Group: coll,
		Predicate: &sqlast.Comparison{Op: "=",
			Left:  &sqlast.ColumnReference{Table: root.Root, Column: "id"},
			Right: &sqlast.ColumnReference{Table: coll.Root, Column: "something_id"},
		},
	})
	assert.Same(t, space, coll.Space())

	cross := sqlast.NewTableGroup("Other x", "other", "o3")
	space.AddJoin(&sqlast.TableGroupJoin{Type: core.JoinCross, Group: cross})

	ext, err := root.ResolveTableReference("something_ext")
	require.NoError(t, err)
	assert.Equal(t, "s1_1", ext.Alias)
	again, err := root.ResolveTableReference("something_ext")
	require.NoError(t, err)
	assert.Same(t, ext, again)

	_, err = root.ResolveTableReference("nope")
	assert.ErrorIs(t, err, core.ErrParsing)

	q := &sqlast.QuerySpec{From: &sqlast.FromClause{Spaces: []*sqlast.TableSpace{space}}}
	q.AddSelection(&sqlast.ColumnReference{Table: ext, Column: "code"})

	out, err := sqlast.Render(&sqlast.SelectStatement{Query: q}, pgLike())
	require.NoError(t, err)
	assert.Equal(t,
		"select s1_1.code from something s1_0 left join something_ext s1_1 on s1_0.id=s1_1.something_id"+
			" left join (something_other o2_0 join other o2_1 on o2_0.other_id=o2_1.id) on s1_0.id=o2_0.something_id"+
			" cross join other o3_0",
		out.SQL)
}

func TestRender_UnsupportedJoinType(t *testing.T) {
	for _, jt := range []core.JoinType{core.JoinRight, core.JoinFull} {
		t.Run(string(jt), func(t *testing.T) {
			root := sqlast.NewTableGroup("Something a", "something", "s1")
			space := sqlast.NewRootSpace(root)
			space.AddJoin(&sqlast.TableGroupJoin{Type: jt, Group: sqlast.NewTableGroup("Entity e", "entity", "e2")})
			q := &sqlast.QuerySpec{From: &sqlast.FromClause{Spaces: []*sqlast.TableSpace{space}}}
			q.AddSelection(&sqlast.ColumnReference{Table: root.Root, Column: "id"})

			_, err := sqlast.Render(&sqlast.SelectStatement{Query: q}, pgLike())
			var unsupported *core.UnsupportedJoinTypeError
			require.ErrorAs(t, err, &unsupported)
			assert.Equal(t, jt, unsupported.JoinType)
		})
	}
}

func TestRender_TupleNullness(t *testing.T) {
	g := sqlast.NewTableGroup("X x", "x", "x1")
	q := &sqlast.QuerySpec{
		From: &sqlast.FromClause{Spaces: []*sqlast.TableSpace{sqlast.NewRootSpace(g)}},
		Where: &sqlast.Nullness{Negated: true, Expr: &sqlast.Tuple{Items: []sqlast.Expression{
			&sqlast.ColumnReference{Table: g.Root, Column: "a"},
			&sqlast.ColumnReference{Table: g.Root, Column: "b"},
		}}},
	}
	q.AddSelection(&sqlast.Arithmetic{
		Op:    "*",
		Left:  &sqlast.Arithmetic{Op: "+", Left: &sqlast.ColumnReference{Table: g.Root, Column: "a"}, Right: &sqlast.Literal{Value: "1"}},
		Right: &sqlast.Negation{Operand: &sqlast.ColumnReference{Table: g.Root, Column: "b"}},
	})

	out, err := sqlast.Render(&sqlast.SelectStatement{Query: q}, pgLike())
	require.NoError(t, err)
	assert.Equal(t, "select (x1_0.a + 1) * -x1_0.b from x x1_0 where (x1_0.a is not null and x1_0.b is not null)", out.SQL)
}

func TestRender_RequiredSecondaryTable(t *testing.T) {
	root := sqlast.NewTableGroup("Something a", "something", "s1")
	require.NoError(t, root.AddSecondaryTables([]domain.SecondaryTable{
		{
			Name: "something_main",
			KeyPairs: []domain.ColumnPair{{
				Owning: domain.Column{Table: "something", Name: "id"},
				Target: domain.Column{Table: "something_main", Name: "id"},
			}},
		},
		{
			Name:     "something_ext",
			Optional: true,
			KeyPairs: []domain.ColumnPair{{
				Owning: domain.Column{Table: "something", Name: "id"},
				Target: domain.Column{Table: "something_ext", Name: "something_id"},
			}},
		},
	}))
	require.Len(t, root.Tables(), 2)

	q := &sqlast.QuerySpec{From: &sqlast.FromClause{Spaces: []*sqlast.TableSpace{sqlast.NewRootSpace(root)}}}
	q.AddSelection(&sqlast.ColumnReference{Table: root.Root, Column: "basic"})

	out, err := sqlast.Render(&sqlast.SelectStatement{Query: q}, pgLike())
	require.NoError(t, err)
	assert.Equal(t, "select s1_0.basic from something s1_0 join something_main s1_1 on s1_0.id=s1_1.id", out.SQL)

	bad := sqlast.NewTableGroup("Something a", "something", "s1")
	err = bad.AddSecondaryTables([]domain.SecondaryTable{{
		Name: "something_main",
		KeyPairs: []domain.ColumnPair{{
			Owning: domain.Column{Table: "elsewhere", Name: "id"},
			Target: domain.Column{Table: "something_main", Name: "id"},
		}},
	}})
	assert.ErrorIs(t, err, core.ErrParsing)
}

func TestRender_Negation(t *testing.T) {
	g := sqlast.NewTableGroup("X x", "x", "x1")
	col := &sqlast.ColumnReference{Table: g.Root, Column: "a"}
	tests := []struct {
		name string
		expr sqlast.Expression
		want string
	}{
		{"column", &sqlast.Negation{Operand: col}, "-x1_0.a"},
		{"literal", &sqlast.Negation{Operand: &sqlast.Literal{Value: "2"}}, "-2"},
		{"negative literal", &sqlast.Negation{Operand: &sqlast.Literal{Value: "-2"}}, "-(-2)"},
		{"double", &sqlast.Negation{Operand: &sqlast.Negation{Operand: col}}, "-(-x1_0.a)"},
		{"arithmetic", &sqlast.Negation{Operand: &sqlast.Arithmetic{Op: "+", Left: col, Right: &sqlast.Literal{Value: "1"}}}, "-(x1_0.a + 1)"},
		{"function", &sqlast.Negation{Operand: &sqlast.FunctionCall{Name: "abs", Args: []sqlast.Expression{col}}}, "-abs(x1_0.a)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &sqlast.QuerySpec{
				From:  &sqlast.FromClause{Spaces: []*sqlast.TableSpace{sqlast.NewRootSpace(g)}},
				Where: &sqlast.Comparison{Op: "=", Left: tt.expr, Right: &sqlast.Literal{Value: "1"}},
			}
			q.AddSelection(tt.expr)

			out, err := sqlast.Render(&sqlast.SelectStatement{Query: q}, pgLike())
			require.NoError(t, err)
			assert.Equal(t, "select "+tt.want+" from x x1_0 where "+tt.want+"=1", out.SQL)
			assert.NotContains(t, out.SQL, "--")
		})
	}
}

func TestRender_RequiresDialect(t *testing.T) {
	_, err := sqlast.Render(&sqlast.SelectStatement{}, nil)
	assert.ErrorIs(t, err, dialect.ErrDialectRequired)
}

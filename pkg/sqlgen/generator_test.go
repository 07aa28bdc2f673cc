package sqlgen_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapql/internal/testutil"
	"github.com/leapstack-labs/leapql/pkg/core"
	"github.com/leapstack-labs/leapql/pkg/dialects/ansi"
	"github.com/leapstack-labs/leapql/pkg/domain"
	"github.com/leapstack-labs/leapql/pkg/hql"
	"github.com/leapstack-labs/leapql/pkg/sqlast"
	"github.com/leapstack-labs/leapql/pkg/sqlgen"
	"github.com/leapstack-labs/leapql/pkg/sqm"
)

func generate(t *testing.T, query string) (*sqlast.SelectStatement, error) {
	t.Helper()
	stmt, err := hql.Parse(query)
	require.NoError(t, err, "parse %q", query)
	logger := testutil.NewTestLogger(t)
	_, tree, err := sqm.Analyze(stmt, testutil.NewDomainModel(t), logger)
	require.NoError(t, err, "analyze %q", query)
	return sqlgen.New(logger).Generate(tree)
}

func render(t *testing.T, query string) (*sqlast.SelectStatement, string) {
	t.Helper()
	out, err := generate(t, query)
	require.NoError(t, err, "generate %q", query)
	r, err := sqlast.Render(out, ansi.ANSI)
	require.NoError(t, err)
	return out, r.SQL
}

func TestGenerate_SingleTable(t *testing.T) {
	out, sql := render(t, "select a.basic from Something a where 1=2")

	assert.Equal(t, "select s1_0.basic from something s1_0 where 1=2", sql)
	require.Len(t, out.Query.From.Spaces, 1)
	space := out.Query.From.Spaces[0]
	assert.Empty(t, space.Joins)
	assert.Len(t, space.Root.Tables(), 1, "secondary tables are only joined when used")

	require.Len(t, out.Returns, 1)
	scalar := out.Returns[0].(*sqlast.ScalarReturn)
	assert.Equal(t, 0, scalar.Position)
	assert.Equal(t, "integer", scalar.SQLType)
}

func TestGenerate_SQL(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{
			"entity valued join",
			"select e.name from Something s join s.entity e",
			"select e2_0.name from something s1_0 join entity e2_0 on s1_0.entity_id=e2_0.id",
		},
		{
			"join table collection",
			"select o.label from Something s left join s.others o",
			"select o2_1.label from something s1_0 left join (something_other o2_0 join other o2_1 on o2_0.other_id=o2_1.id) on s1_0.id=o2_0.something_id",
		},
		{
			"inner join table collection is not nested",
			"select o.label from Something s join s.others o",
			"select o2_1.label from something s1_0 join something_other o2_0 on s1_0.id=o2_0.something_id join other o2_1 on o2_0.other_id=o2_1.id",
		},
		{
			"unique key reference",
			"select o.label from Something s join s.otherByCode o",
			"select o2_0.label from something s1_0 join other o2_0 on s1_0.other_code=o2_0.code",
		},
		{
			"secondary table",
			"select s.code from Something s",
			"select s1_1.code from something s1_0 left join something_ext s1_1 on s1_0.id=s1_1.something_id",
		},
		{
			"implicit join",
			"select s.basic from Something s where s.entity.name = 'x'",
			"select s1_0.basic from something s1_0 join entity e2_0 on s1_0.entity_id=e2_0.id where e2_0.name='x'",
		},
		{
			"explicit on clause",
			"select s.basic from Something s left join s.entity e on e.basic1 > 3",
			"select s1_0.basic from something s1_0 left join entity e2_0 on s1_0.entity_id=e2_0.id and e2_0.basic1>3",
		},
		{
			"entity join",
			"select s.basic from Something s join Other o on o.code = s.basic2",
			"select s1_0.basic from something s1_0 join other o2_0 on o2_0.code=s1_0.basic2",
		},
		{
			"cross join",
			"select s.basic, o.label from Something s cross join Other o",
			"select s1_0.basic, o2_0.label from something s1_0 cross join other o2_0",
		},
		{
			"comma separated roots",
			"select s.basic from Something s, Other o where o.code = s.basic2",
			"select s1_0.basic from something s1_0, other o2_0 where o2_0.code=s1_0.basic2",
		},
		{
			"indexed collection",
			"select a.list[0].basic1 from Something a",
			"select l2_0.basic1 from something s1_0 join entity l2_0 on s1_0.id=l2_0.something_id and l2_0.idx=0",
		},
		{
			"entity type",
			"select a.basic from Something a join a.entity e where type(e) = Entity",
			"select s1_0.basic from something s1_0 join entity e2_0 on s1_0.entity_id=e2_0.id where e2_0.dtype='E'",
		},
		{
			"constant",
			"select a.basic from Something a where a.basic = Status.ACTIVE",
			"select s1_0.basic from something s1_0 where s1_0.basic=1",
		},
		{
			"embedded nullness",
			"select a.basic from Something a where a.address is null",
			"select s1_0.basic from something s1_0 where (s1_0.street is null and s1_0.city is null)",
		},
		{
			"entity compared by key",
			"select a.basic from Something a, Entity e where a.entity = e",
			"select s1_0.basic from something s1_0, entity e2_0 where s1_0.entity_id=e2_0.id",
		},
		{
			"correlated subquery",
			"select a.basic from Something a where exists (select e.id from Entity e where e.basic1 = a.basic)",
			"select s1_0.basic from something s1_0 where exists (select e2_0.id from entity e2_0 where e2_0.basic1=s1_0.basic)",
		},
		{
			"in subquery",
			"select a.basic from Something a where a.basic in (select e.basic1 from Entity e)",
			"select s1_0.basic from something s1_0 where s1_0.basic in (select e2_0.basic1 from entity e2_0)",
		},
		{
			"functions and arithmetic",
			"select count(a), max(a.basic + 1) from Something a",
			"select count(s1_0.id), max(s1_0.basic + 1) from something s1_0",
		},
		{
			"distinct and order",
			"select distinct a.basic from Something a order by a.basic desc, a.address",
			"select distinct s1_0.basic from something s1_0 order by s1_0.basic desc, s1_0.street, s1_0.city",
		},
		{
			"predicates",
			"select a.basic from Something a where a.basic between 1 and 5 and a.basic2 like 'x%' and (a.basic1 in (1, 2) or a.basic2 is not null)",
			"select s1_0.basic from something s1_0 where s1_0.basic between 1 and 5 and s1_0.basic2 like 'x%' and (s1_0.basic1 in (1, 2) or s1_0.basic2 is not null)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, sql := render(t, tt.query)
			assert.Equal(t, tt.want, sql)
		})
	}
}

func TestGenerate_Parameters(t *testing.T) {
	_, sql := render(t, "select a.basic from Something a where a.basic = :p or a.basic2 = :q or a.basic1 = :p")
	assert.Equal(t, "select s1_0.basic from something s1_0 where s1_0.basic=? or s1_0.basic2=? or s1_0.basic1=?", sql)

	out, err := generate(t, "select a.basic from Something a where a.basic = :p or a.basic2 = :q or a.basic1 = :p")
	require.NoError(t, err)
	r, err := sqlast.Render(out, ansi.ANSI)
	require.NoError(t, err)
	require.Len(t, r.Binders, 3)
	assert.Equal(t, ":p", r.Binders[0].Label())
	assert.Equal(t, "integer", r.Binders[0].SQLType)
	assert.Equal(t, ":q", r.Binders[1].Label())
	assert.Equal(t, "varchar", r.Binders[1].SQLType)
	assert.Equal(t, ":p", r.Binders[2].Label())
}

func TestGenerate_EntityReturn(t *testing.T) {
	out, sql := render(t, "select s from Something s join fetch s.entity e")

	assert.Equal(t, "select s1_0.id, s1_0.basic, s1_0.basic1, s1_0.basic2, s1_0.entity_id, s1_0.other_code, s1_0.street, s1_0.city, s1_1.code, "+
		"e2_0.id, e2_0.basic1, e2_0.basic2, e2_0.name, e2_0.other_id "+
		"from something s1_0 left join something_ext s1_1 on s1_0.id=s1_1.something_id join entity e2_0 on s1_0.entity_id=e2_0.id", sql)

	require.Len(t, out.Returns, 1)
	ent := out.Returns[0].(*sqlast.EntityReturn)
	assert.Equal(t, "Something", ent.Entity)
	assert.Equal(t, "s", ent.Source)
	assert.Equal(t, "id", ent.IDName)
	assert.Equal(t, []int{0}, ent.IDPositions)

	names := make([]string, len(ent.Attributes))
	for i, a := range ent.Attributes {
		names[i] = a.Name
	}
	assert.Equal(t, []string{"basic", "basic1", "basic2", "entity", "otherByCode", "address.street", "address.city", "code"}, names)
	assert.Equal(t, []int{8}, ent.Attributes[7].Positions)

	require.Len(t, ent.Fetches, 1)
	f := ent.Fetches[0]
	assert.Equal(t, "entity", f.Attribute)
	assert.False(t, f.Collection)
	assert.Equal(t, "Entity", f.Entity.Entity)
	assert.Equal(t, []int{9}, f.Entity.IDPositions)
}

func TestGenerate_CollectionFetch(t *testing.T) {
	out, err := generate(t, "select e from Entity e, Something s left join fetch s.list l where 1=2")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrSemantic)
	assert.Contains(t, err.Error(), "owner of the fetched association was not present in the select list")
	assert.Nil(t, out)

	out, err = generate(t, "select s from Something s left join fetch s.list l")
	require.NoError(t, err)
	ent := out.Returns[0].(*sqlast.EntityReturn)
	require.Len(t, ent.Fetches, 1)
	assert.True(t, ent.Fetches[0].Collection)
	assert.Equal(t, "list", ent.Fetches[0].Attribute)
}

func TestGenerate_CompositeAndInstantiation(t *testing.T) {
	out, sql := render(t, "select a.address, new map(a.basic as b, a.basic2 as c) from Something a")
	assert.Equal(t, "select s1_0.street, s1_0.city, s1_0.basic, s1_0.basic2 from something s1_0", sql)

	require.Len(t, out.Returns, 2)
	comp := out.Returns[0].(*sqlast.CompositeReturn)
	assert.Equal(t, "address", comp.Path)
	require.Len(t, comp.Components, 2)
	assert.Equal(t, "street", comp.Components[0].Name)
	assert.Equal(t, []int{1}, comp.Components[1].Positions)

	inst := out.Returns[1].(*sqlast.DynamicInstantiationReturn)
	assert.Equal(t, "map", inst.Target)
	require.Len(t, inst.Args, 2)
	assert.Equal(t, "b", inst.Args[0].Alias)
	assert.Equal(t, 2, inst.Args[0].Return.(*sqlast.ScalarReturn).Position)
	assert.Equal(t, 3, inst.Args[1].Return.(*sqlast.ScalarReturn).Position)
}

func TestGenerate_RequiredSecondaryTable(t *testing.T) {
	mapping := testutil.DomainMapping()
	mapping.Entities[0].SecondaryTables[0].Optional = false
	model, err := domain.NewModel(mapping)
	require.NoError(t, err)

	tests := []struct {
		query string
		want  string
	}{
		{
			"select a.basic from Something a",
			"select s1_0.basic from something s1_0 join something_ext s1_1 on s1_0.id=s1_1.something_id",
		},
		{
			"select a.code from Something a where a.basic = 1",
			"select s1_1.code from something s1_0 join something_ext s1_1 on s1_0.id=s1_1.something_id where s1_0.basic=1",
		},
		{
			"select o.label from Something a join a.otherByCode o",
			"select o2_0.label from something s1_0 join something_ext s1_1 on s1_0.id=s1_1.something_id join other o2_0 on s1_0.other_code=o2_0.code",
		},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			stmt, err := hql.Parse(tt.query)
			require.NoError(t, err)
			logger := testutil.NewTestLogger(t)
			_, tree, err := sqm.Analyze(stmt, model, logger)
			require.NoError(t, err)
			out, err := sqlgen.New(logger).Generate(tree)
			require.NoError(t, err)
			r, err := sqlast.Render(out, ansi.ANSI)
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.SQL)
		})
	}
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		target  error
		message string
	}{
		{"full join", "select s.basic from Something s full join s.entity e", nil, "FULL"},
		{"right join", "select s.basic from Something s right join Other o on o.code = s.basic2", nil, "RIGHT"},
		{"type without discriminator", "select a.basic from Something a where type(a) = Something", core.ErrNotYetImplemented, "discriminator"},
		{"tuple width", "select a.basic from Something a where a.address = a.basic", core.ErrSemantic, "column"},
		{"tuple parameter", "select a.basic from Something a where a.address = :addr", core.ErrNotYetImplemented, "parameter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := generate(t, tt.query)
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			} else {
				var unsupported *core.UnsupportedJoinTypeError
				assert.ErrorAs(t, err, &unsupported)
			}
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

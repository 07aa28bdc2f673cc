package sqlast

import (
	"fmt"

	"github.com/leapstack-labs/leapql/pkg/core"
	"github.com/leapstack-labs/leapql/pkg/domain"
)

// FromClause holds the table spaces of one query, one per from-element-space.
type FromClause struct {
	Spaces []*TableSpace
}

// TableSpace is a root table group and the groups joined to it.
type TableSpace struct {
	Root  *TableGroup
	Joins []*TableGroupJoin
}

// AddJoin appends a joined group and sets its back reference.
func (s *TableSpace) AddJoin(j *TableGroupJoin) {
	j.Group.space = s
	s.Joins = append(s.Joins, j)
}

// Groups returns the root group followed by the joined groups.
func (s *TableSpace) Groups() []*TableGroup {
	groups := []*TableGroup{s.Root}
	for _, j := range s.Joins {
		groups = append(groups, j.Group)
	}
	return groups
}

// TableGroupJoin joins a table group into a table space. Predicate is nil
// for cross joins.
type TableGroupJoin struct {
	Type      core.JoinType
	Group     *TableGroup
	Predicate Predicate
}

// TableReference is one aliased physical table.
type TableReference struct {
	Table string
	Alias string
}

func (t *TableReference) String() string { return t.Table + " " + t.Alias }

// TableReferenceJoin joins a table inside a group.
type TableReferenceJoin struct {
	Type      core.JoinType
	Table     *TableReference
	Predicate Predicate
}

// TableGroup is the root table of one from-element plus the tables joined
// to it within the group: secondary tables, or the element table of a join
// table collection. Required secondary tables are joined when the group is
// built; optional ones on first use.
type TableGroup struct {
	// Source describes the from-element, e.g. "Something a".
	Source string
	Root   *TableReference
	Joins  []*TableReferenceJoin

	aliasBase string
	lazy      map[string]domain.SecondaryTable
	space     *TableSpace
}

// NewTableGroup creates a group rooted at table. Aliases of the group's
// tables are aliasBase followed by _0, _1, ...
func NewTableGroup(source, table, aliasBase string) *TableGroup {
	g := &TableGroup{Source: source, aliasBase: aliasBase}
	g.Root = &TableReference{Table: table, Alias: g.nextAlias()}
	return g
}

// NewRootSpace creates a table space rooted at g.
func NewRootSpace(g *TableGroup) *TableSpace {
	s := &TableSpace{Root: g}
	g.space = s
	return s
}

// Space returns the table space the group belongs to.
func (g *TableGroup) Space() *TableSpace { return g.space }

func (g *TableGroup) nextAlias() string {
	n := 1 + len(g.Joins)
	if g.Root == nil {
		n = 0
	}
	return fmt.Sprintf("%s_%d", g.aliasBase, n)
}

// JoinTable joins table to the group with pairs relating existing tables
// of the group (owning side) to the new table (target side).
func (g *TableGroup) JoinTable(typ core.JoinType, table string, pairs []domain.ColumnPair) (*TableReference, error) {
	ref := &TableReference{Table: table, Alias: g.nextAlias()}
	var preds []Predicate
	for _, p := range pairs {
		owner, ok := g.find(p.Owning.Table)
		if !ok {
			return nil, core.Internalf("table %s is not part of group %s", p.Owning.Table, g.Source)
		}
		preds = append(preds, &Comparison{
			Op:    "=",
			Left:  &ColumnReference{Table: owner, Column: p.Owning.Name},
			Right: &ColumnReference{Table: ref, Column: p.Target.Name},
		})
	}
	g.Joins = append(g.Joins, &TableReferenceJoin{Type: typ, Table: ref, Predicate: And(preds...)})
	return ref, nil
}

// AddSecondaryTables inner joins the required secondary tables right away
// and registers the optional ones to be left joined when one of their
// columns is first resolved.
func (g *TableGroup) AddSecondaryTables(tables []domain.SecondaryTable) error {
	for _, st := range tables {
		if !st.Optional {
			if _, err := g.JoinTable(core.JoinInner, st.Name, st.KeyPairs); err != nil {
				return err
			}
			continue
		}
		if g.lazy == nil {
			g.lazy = make(map[string]domain.SecondaryTable)
		}
		g.lazy[st.Name] = st
	}
	return nil
}

// ResolveTableReference returns the reference of table within the group,
// joining a pending secondary table if needed.
func (g *TableGroup) ResolveTableReference(table string) (*TableReference, error) {
	if ref, ok := g.find(table); ok {
		return ref, nil
	}
	st, ok := g.lazy[table]
	if !ok {
		return nil, core.Internalf("table %s is not mapped by %s", table, g.Source)
	}
	delete(g.lazy, table)
	return g.JoinTable(core.JoinLeft, st.Name, st.KeyPairs)
}

func (g *TableGroup) find(table string) (*TableReference, bool) {
	if g.Root.Table == table {
		return g.Root, true
	}
	for _, j := range g.Joins {
		if j.Table.Table == table {
			return j.Table, true
		}
	}
	return nil, false
}

// Tables returns the group's table references in join order.
func (g *TableGroup) Tables() []*TableReference {
	refs := []*TableReference{g.Root}
	for _, j := range g.Joins {
		refs = append(refs, j.Table)
	}
	return refs
}

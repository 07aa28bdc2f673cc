// Package domain describes the mapped domain model that queries are compiled
// against: entity types, their attributes, and how attributes map to tables
// and foreign keys.
//
// The compiler only consumes the Resolver interface. Model is the in-memory
// implementation, built from a Mapping that is usually loaded from a YAML or
// TOML mapping file.
package domain

import "strings"

// Classification is the kind of an attribute.
type Classification int

// Attribute classifications.
const (
	Basic Classification = iota
	Embedded
	EntityValued
	CollectionValued
)

func (c Classification) String() string {
	switch c {
	case Basic:
		return "basic"
	case Embedded:
		return "embedded"
	case EntityValued:
		return "entity"
	case CollectionValued:
		return "collection"
	}
	return "unknown"
}

// Resolver maps entity and attribute names to type descriptors.
type Resolver interface {
	// ResolveEntity looks up an entity type by name.
	ResolveEntity(name string) (*EntityType, bool)
	// AttributeOf looks up an attribute, including the identifier, of t.
	AttributeOf(t *EntityType, name string) (*Attribute, bool)
	// ResolveConstant looks up a named constant such as Status.ACTIVE.
	ResolveConstant(name string) (*Constant, bool)
}

// Column is a physical column qualified by its table.
type Column struct {
	Table string
	Name  string
}

func (c Column) String() string { return c.Table + "." + c.Name }

// ColumnPair is one owning-side to target-side key column correspondence.
// Owning columns live on the left-hand side of a join, Target columns on the
// joined side.
type ColumnPair struct {
	Owning Column
	Target Column
}

// ForeignKey describes how an entity or collection valued attribute joins
// its target.
type ForeignKey struct {
	// Pairs join the owner's tables to the target. For a join-table
	// collection the target side is the join table.
	Pairs []ColumnPair
	// UniqueKeyProperty names the attribute whose columns are referenced
	// instead of the identifier.
	UniqueKeyProperty string
	// JoinTable is set for collections mapped through a link table.
	JoinTable string
	// ElementPairs join the join table to the element entity's table.
	ElementPairs []ColumnPair
}

// SecondaryTable is an additional table holding part of an entity's state.
type SecondaryTable struct {
	Name string
	// Optional secondary tables are outer joined.
	Optional bool
	// KeyPairs join the primary table to the secondary table.
	KeyPairs []ColumnPair
}

// Discriminator identifies the concrete type of a row.
type Discriminator struct {
	Column  Column
	Value   string
	SQLType string
}

// EntityType is a mapped entity.
type EntityType struct {
	Name            string
	Table           string
	SecondaryTables []SecondaryTable
	ID              *Attribute
	Attributes      []*Attribute
	Discriminator   *Discriminator

	byName map[string]*Attribute
}

// Attribute returns the attribute (or identifier) named name.
func (e *EntityType) Attribute(name string) (*Attribute, bool) {
	a, ok := e.byName[name]
	return a, ok
}

// Tables returns the primary table followed by the secondary tables.
func (e *EntityType) Tables() []string {
	tables := []string{e.Table}
	for _, st := range e.SecondaryTables {
		tables = append(tables, st.Name)
	}
	return tables
}

// IDColumns returns the identifier columns.
func (e *EntityType) IDColumns() []Column {
	return e.ID.Columns
}

func (e *EntityType) String() string { return e.Name }

// Attribute describes one persistent attribute.
type Attribute struct {
	Name           string
	Classification Classification
	// SQLType of a basic attribute, or of the referenced key of a
	// single-column entity valued attribute.
	SQLType string
	// Columns of a basic attribute, or the owning-side key columns of an
	// entity valued attribute.
	Columns []Column
	// Components of an embedded attribute, in declaration order.
	Components []*Attribute
	// Target entity name of entity and collection valued attributes.
	Target string
	// Optional entity valued attributes may be null.
	Optional   bool
	ForeignKey *ForeignKey
	// IndexColumn orders list collections.
	IndexColumn *Column
	// Declaring is the entity the attribute belongs to.
	Declaring *EntityType
	// Path is the attribute's dotted name relative to its entity.
	Path string
}

// Component returns the embedded component named name.
func (a *Attribute) Component(name string) (*Attribute, bool) {
	for _, c := range a.Components {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// IsAssociation reports whether a is entity or collection valued.
func (a *Attribute) IsAssociation() bool {
	return a.Classification == EntityValued || a.Classification == CollectionValued
}

// FlatColumns returns the columns of a, recursing into embedded components.
func (a *Attribute) FlatColumns() []Column {
	if a.Classification != Embedded {
		return a.Columns
	}
	var cols []Column
	for _, c := range a.Components {
		cols = append(cols, c.FlatColumns()...)
	}
	return cols
}

// FlatSQLTypes returns one SQL type per column of FlatColumns.
func (a *Attribute) FlatSQLTypes() []string {
	if a.Classification != Embedded {
		types := make([]string, len(a.Columns))
		for i := range types {
			types[i] = a.SQLType
		}
		return types
	}
	var types []string
	for _, c := range a.Components {
		types = append(types, c.FlatSQLTypes()...)
	}
	return types
}

func (a *Attribute) String() string {
	if a.Declaring == nil {
		return a.Path
	}
	return a.Declaring.Name + "." + a.Path
}

// Constant is a named literal value.
type Constant struct {
	Name    string
	Value   any
	SQLType string
}

// normalize lowercases SQL type names.
func normalize(sqlType string) string {
	return strings.ToLower(strings.TrimSpace(sqlType))
}

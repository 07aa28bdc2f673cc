package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Mapping is the declarative form of a domain model, as stored in a mapping file.
type Mapping struct {
	Entities  []EntityMapping            `yaml:"entities" toml:"entities"`
	Constants map[string]ConstantMapping `yaml:"constants" toml:"constants"`
}

// EntityMapping maps one entity type.
type EntityMapping struct {
	Name            string                  `yaml:"name" toml:"name"`
	Table           string                  `yaml:"table" toml:"table"`
	ID              AttributeMapping        `yaml:"id" toml:"id"`
	SecondaryTables []SecondaryTableMapping `yaml:"secondary_tables" toml:"secondary_tables"`
	Discriminator   *DiscriminatorMapping   `yaml:"discriminator" toml:"discriminator"`
	Attributes      []AttributeMapping      `yaml:"attributes" toml:"attributes"`
}

// SecondaryTableMapping maps a secondary table. Key lists the secondary
// table's columns referencing the identifier; it defaults to the identifier
// column names.
type SecondaryTableMapping struct {
	Name     string   `yaml:"name" toml:"name"`
	Optional bool     `yaml:"optional" toml:"optional"`
	Key      []string `yaml:"key" toml:"key"`
}

// DiscriminatorMapping maps a discriminator column and this entity's value.
type DiscriminatorMapping struct {
	Column string `yaml:"column" toml:"column"`
	Value  string `yaml:"value" toml:"value"`
	Type   string `yaml:"type" toml:"type"`
}

// AttributeMapping maps one attribute.
//
// Kind is basic (default), embedded, entity or collection. For entity
// attributes Columns are the foreign key columns on the owner's table. For
// collections Key lists the foreign key columns on the element's table, or
// JoinTable describes a link table. References names a unique-key property
// used in place of the identifier on the referenced side.
type AttributeMapping struct {
	Name        string             `yaml:"name" toml:"name"`
	Kind        string             `yaml:"kind" toml:"kind"`
	Type        string             `yaml:"type" toml:"type"`
	Column      string             `yaml:"column" toml:"column"`
	Columns     []string           `yaml:"columns" toml:"columns"`
	Table       string             `yaml:"table" toml:"table"`
	Target      string             `yaml:"target" toml:"target"`
	Optional    bool               `yaml:"optional" toml:"optional"`
	References  string             `yaml:"references" toml:"references"`
	Key         []string           `yaml:"key" toml:"key"`
	JoinTable   *JoinTableMapping  `yaml:"join_table" toml:"join_table"`
	IndexColumn string             `yaml:"index_column" toml:"index_column"`
	Components  []AttributeMapping `yaml:"components" toml:"components"`
}

// JoinTableMapping maps a collection link table.
type JoinTableMapping struct {
	Name    string   `yaml:"name" toml:"name"`
	Owner   []string `yaml:"owner" toml:"owner"`
	Element []string `yaml:"element" toml:"element"`
}

// ConstantMapping maps a named constant.
type ConstantMapping struct {
	Value any    `yaml:"value" toml:"value"`
	Type  string `yaml:"type" toml:"type"`
}

// MappingError reports an invalid mapping.
type MappingError struct {
	Entity  string
	Message string
}

func (e *MappingError) Error() string {
	if e.Entity == "" {
		return "invalid mapping: " + e.Message
	}
	return fmt.Sprintf("invalid mapping for entity %s: %s", e.Entity, e.Message)
}

// NewModel validates m and builds the in-memory model.
func NewModel(m Mapping) (*Model, error) {
	model := &Model{
		entities:  make(map[string]*EntityType, len(m.Entities)),
		constants: make(map[string]*Constant, len(m.Constants)),
	}

	// First pass: entity shells with identifiers, basic and embedded attributes.
	for i := range m.Entities {
		em := &m.Entities[i]
		if em.Name == "" {
			return nil, &MappingError{Message: fmt.Sprintf("entity #%d has no name", i+1)}
		}
		if _, dup := model.entities[em.Name]; dup {
			return nil, &MappingError{Entity: em.Name, Message: "declared more than once"}
		}
		et, err := newEntityShell(em)
		if err != nil {
			return nil, err
		}
		model.entities[em.Name] = et
		model.order = append(model.order, em.Name)
	}

	// Second pass: associations, which need every target to exist.
	for i := range m.Entities {
		em := &m.Entities[i]
		et := model.entities[em.Name]
		for _, am := range em.Attributes {
			kind := strings.ToLower(am.Kind)
			if kind != "entity" && kind != "collection" {
				continue
			}
			attr, err := model.association(et, am, kind)
			if err != nil {
				return nil, err
			}
			et.byName[attr.Name] = attr
		}
		// Rebuild the declaration order now that associations exist.
		et.Attributes = et.Attributes[:0]
		for _, am := range em.Attributes {
			et.Attributes = append(et.Attributes, et.byName[am.Name])
		}
	}

	names := make([]string, 0, len(m.Constants))
	for name := range m.Constants {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cm := m.Constants[name]
		model.constants[name] = &Constant{Name: name, Value: cm.Value, SQLType: normalize(cm.Type)}
	}

	return model, nil
}

func newEntityShell(em *EntityMapping) (*EntityType, error) {
	if em.Table == "" {
		return nil, &MappingError{Entity: em.Name, Message: "table is required"}
	}
	et := &EntityType{
		Name:   em.Name,
		Table:  em.Table,
		byName: make(map[string]*Attribute),
	}

	for _, st := range em.SecondaryTables {
		if st.Name == "" {
			return nil, &MappingError{Entity: em.Name, Message: "secondary table without name"}
		}
	}
	tables := map[string]bool{em.Table: true}
	for _, st := range em.SecondaryTables {
		tables[st.Name] = true
	}

	if em.ID.Name == "" {
		return nil, &MappingError{Entity: em.Name, Message: "id attribute is required"}
	}
	id, err := basicAttribute(et, em.ID, "", tables)
	if err != nil {
		return nil, err
	}
	if id.Classification != Basic {
		return nil, &MappingError{Entity: em.Name, Message: "id must be a basic attribute"}
	}
	et.ID = id
	et.byName[id.Name] = id

	for _, st := range em.SecondaryTables {
		key := st.Key
		if len(key) == 0 {
			for _, c := range id.Columns {
				key = append(key, c.Name)
			}
		}
		if len(key) != len(id.Columns) {
			return nil, &MappingError{Entity: em.Name, Message: fmt.Sprintf("secondary table %s key has %d columns, id has %d", st.Name, len(key), len(id.Columns))}
		}
		sec := SecondaryTable{Name: st.Name, Optional: st.Optional}
		for i, c := range id.Columns {
			sec.KeyPairs = append(sec.KeyPairs, ColumnPair{Owning: c, Target: Column{Table: st.Name, Name: key[i]}})
		}
		et.SecondaryTables = append(et.SecondaryTables, sec)
	}

	if d := em.Discriminator; d != nil {
		if d.Column == "" || d.Value == "" {
			return nil, &MappingError{Entity: em.Name, Message: "discriminator needs column and value"}
		}
		sqlType := normalize(d.Type)
		if sqlType == "" {
			sqlType = "varchar"
		}
		et.Discriminator = &Discriminator{Column: Column{Table: em.Table, Name: d.Column}, Value: d.Value, SQLType: sqlType}
	}

	for _, am := range em.Attributes {
		if am.Name == "" {
			return nil, &MappingError{Entity: em.Name, Message: "attribute without name"}
		}
		if _, dup := et.byName[am.Name]; dup {
			return nil, &MappingError{Entity: em.Name, Message: fmt.Sprintf("attribute %s declared more than once", am.Name)}
		}
		kind := strings.ToLower(am.Kind)
		if kind == "entity" || kind == "collection" {
			// placeholder until the second pass
			et.byName[am.Name] = nil
			continue
		}
		attr, err := basicAttribute(et, am, "", tables)
		if err != nil {
			return nil, err
		}
		et.byName[am.Name] = attr
		et.Attributes = append(et.Attributes, attr)
	}
	return et, nil
}

// basicAttribute builds a basic or embedded attribute.
func basicAttribute(et *EntityType, am AttributeMapping, prefix string, tables map[string]bool) (*Attribute, error) {
	attr := &Attribute{
		Name:      am.Name,
		Declaring: et,
		Path:      prefix + am.Name,
	}
	switch strings.ToLower(am.Kind) {
	case "", "basic":
		attr.Classification = Basic
		attr.SQLType = normalize(am.Type)
		if attr.SQLType == "" {
			attr.SQLType = "varchar"
		}
		table := et.Table
		if am.Table != "" {
			if !tables[am.Table] {
				return nil, &MappingError{Entity: et.Name, Message: fmt.Sprintf("attribute %s uses unknown table %s", attr.Path, am.Table)}
			}
			table = am.Table
		}
		names := am.Columns
		if am.Column != "" {
			names = append([]string{am.Column}, names...)
		}
		if len(names) == 0 {
			names = []string{toSnake(attr.Path)}
		}
		for _, n := range names {
			attr.Columns = append(attr.Columns, Column{Table: table, Name: n})
		}
	case "embedded":
		attr.Classification = Embedded
		if len(am.Components) == 0 {
			return nil, &MappingError{Entity: et.Name, Message: fmt.Sprintf("embedded attribute %s has no components", attr.Path)}
		}
		for _, cm := range am.Components {
			if k := strings.ToLower(cm.Kind); k == "entity" || k == "collection" {
				return nil, &MappingError{Entity: et.Name, Message: fmt.Sprintf("embedded attribute %s cannot contain association %s", attr.Path, cm.Name)}
			}
			c, err := basicAttribute(et, cm, attr.Path+".", tables)
			if err != nil {
				return nil, err
			}
			attr.Components = append(attr.Components, c)
		}
	default:
		return nil, &MappingError{Entity: et.Name, Message: fmt.Sprintf("attribute %s has unknown kind %q", attr.Path, am.Kind)}
	}
	return attr, nil
}

// association builds an entity or collection valued attribute.
func (m *Model) association(owner *EntityType, am AttributeMapping, kind string) (*Attribute, error) {
	target, ok := m.entities[am.Target]
	if !ok {
		return nil, &MappingError{Entity: owner.Name, Message: fmt.Sprintf("attribute %s targets unknown entity %q", am.Name, am.Target)}
	}
	attr := &Attribute{
		Name:      am.Name,
		Target:    target.Name,
		Optional:  am.Optional,
		Declaring: owner,
		Path:      am.Name,
	}
	fk := &ForeignKey{UniqueKeyProperty: am.References}

	if kind == "entity" {
		attr.Classification = EntityValued
		referenced, err := referencedColumns(target, am.References)
		if err != nil {
			return nil, &MappingError{Entity: owner.Name, Message: fmt.Sprintf("attribute %s: %v", am.Name, err)}
		}
		names := am.Columns
		if am.Column != "" {
			names = append([]string{am.Column}, names...)
		}
		if len(names) == 0 {
			names = []string{toSnake(am.Name) + "_id"}
		}
		if len(names) != len(referenced) {
			return nil, &MappingError{Entity: owner.Name, Message: fmt.Sprintf("attribute %s has %d key columns, %s has %d", am.Name, len(names), target.Name, len(referenced))}
		}
		if len(referenced) == 1 {
			attr.SQLType = referencedType(target, am.References)
		}
		table := owner.Table
		if am.Table != "" {
			table = am.Table
		}
		for i, n := range names {
			col := Column{Table: table, Name: n}
			attr.Columns = append(attr.Columns, col)
			fk.Pairs = append(fk.Pairs, ColumnPair{Owning: col, Target: referenced[i]})
		}
		attr.ForeignKey = fk
		return attr, nil
	}

	attr.Classification = CollectionValued
	ownerKey, err := referencedColumns(owner, am.References)
	if err != nil {
		return nil, &MappingError{Entity: owner.Name, Message: fmt.Sprintf("attribute %s: %v", am.Name, err)}
	}

	if jt := am.JoinTable; jt != nil {
		if jt.Name == "" || len(jt.Owner) != len(ownerKey) || len(jt.Element) != len(target.IDColumns()) {
			return nil, &MappingError{Entity: owner.Name, Message: fmt.Sprintf("attribute %s has an invalid join table", am.Name)}
		}
		fk.JoinTable = jt.Name
		for i, n := range jt.Owner {
			fk.Pairs = append(fk.Pairs, ColumnPair{Owning: ownerKey[i], Target: Column{Table: jt.Name, Name: n}})
		}
		for i, n := range jt.Element {
			fk.ElementPairs = append(fk.ElementPairs, ColumnPair{Owning: Column{Table: jt.Name, Name: n}, Target: target.IDColumns()[i]})
		}
		if am.IndexColumn != "" {
			attr.IndexColumn = &Column{Table: jt.Name, Name: am.IndexColumn}
		}
	} else {
		if len(am.Key) != len(ownerKey) {
			return nil, &MappingError{Entity: owner.Name, Message: fmt.Sprintf("attribute %s needs %d key columns on %s", am.Name, len(ownerKey), target.Table)}
		}
		for i, n := range am.Key {
			fk.Pairs = append(fk.Pairs, ColumnPair{Owning: ownerKey[i], Target: Column{Table: target.Table, Name: n}})
		}
		if am.IndexColumn != "" {
			attr.IndexColumn = &Column{Table: target.Table, Name: am.IndexColumn}
		}
	}
	attr.ForeignKey = fk
	return attr, nil
}

// referencedColumns returns the identifier columns of et, or the columns of
// the unique-key property when one is named.
func referencedColumns(et *EntityType, uniqueKey string) ([]Column, error) {
	if uniqueKey == "" {
		return et.IDColumns(), nil
	}
	a, ok := et.byName[uniqueKey]
	if !ok || a == nil || a.Classification != Basic {
		return nil, fmt.Errorf("unique key property %s.%s is not a basic attribute", et.Name, uniqueKey)
	}
	return a.Columns, nil
}

func referencedType(et *EntityType, uniqueKey string) string {
	if uniqueKey == "" {
		return et.ID.SQLType
	}
	return et.byName[uniqueKey].SQLType
}

// toSnake converts a camelCase attribute path to a snake_case column name.
func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r == '.':
			b.WriteByte('_')
		case r >= 'A' && r <= 'Z':
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

package domain

// Model is an in-memory Resolver built from a Mapping. It is read-only after
// construction and safe for concurrent use.
type Model struct {
	entities  map[string]*EntityType
	order     []string
	constants map[string]*Constant
}

var _ Resolver = (*Model)(nil)

// ResolveEntity looks up an entity type by name. Entity names are case sensitive.
func (m *Model) ResolveEntity(name string) (*EntityType, bool) {
	e, ok := m.entities[name]
	return e, ok
}

// AttributeOf looks up an attribute of t by name.
func (m *Model) AttributeOf(t *EntityType, name string) (*Attribute, bool) {
	if t == nil {
		return nil, false
	}
	return t.Attribute(name)
}

// ResolveConstant looks up a named constant.
func (m *Model) ResolveConstant(name string) (*Constant, bool) {
	c, ok := m.constants[name]
	return c, ok
}

// Entities returns all entity types in declaration order.
func (m *Model) Entities() []*EntityType {
	out := make([]*EntityType, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.entities[name])
	}
	return out
}

package sqm

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapql/pkg/core"
	"github.com/leapstack-labs/leapql/pkg/domain"
	"github.com/leapstack-labs/leapql/pkg/hql"
)

// Scope is the lexical region of one from clause. Alias lookups fall back to
// ancestor scopes, never to siblings.
type Scope struct {
	parent   *Scope
	children []*Scope
	spaces   []*FromElementSpace
	aliases  map[string]*FromElement
	node     hql.NodeID
}

func newScope(parent *Scope, node hql.NodeID) *Scope {
	s := &Scope{
		parent:  parent,
		aliases: make(map[string]*FromElement),
		node:    node,
	}
	if parent != nil {
		parent.children = append(parent.children, s)
	}
	return s
}

// Parent returns the enclosing scope, or nil for the root.
func (s *Scope) Parent() *Scope { return s.parent }

// Children returns the subquery scopes in creation order.
func (s *Scope) Children() []*Scope { return s.children }

// Spaces returns the from-element-spaces in textual order.
func (s *Scope) Spaces() []*FromElementSpace { return s.spaces }

// Node returns the id of the query spec this scope was indexed from.
func (s *Scope) Node() hql.NodeID { return s.node }

// Depth returns 0 for the root scope.
func (s *Scope) Depth() int {
	d := 0
	for p := s.parent; p != nil; p = p.parent {
		d++
	}
	return d
}

func (s *Scope) addSpace() *FromElementSpace {
	fs := &FromElementSpace{scope: s}
	s.spaces = append(s.spaces, fs)
	return fs
}

// Register adds fe under its alias. Aliases are case insensitive and unique
// within one scope; shadowing an ancestor's alias is allowed.
func (s *Scope) Register(fe *FromElement) error {
	key := strings.ToLower(fe.Alias)
	if existing, ok := s.aliases[key]; ok {
		return core.Semanticf(fe.Alias, "alias %q is already used by %s, cannot also use it for %s", fe.Alias, existing, fe)
	}
	s.aliases[key] = fe
	return nil
}

// Lookup finds the from-element registered under alias in this scope or an ancestor.
func (s *Scope) Lookup(alias string) (*FromElement, bool) {
	key := strings.ToLower(alias)
	for sc := s; sc != nil; sc = sc.parent {
		if fe, ok := sc.aliases[key]; ok {
			return fe, true
		}
	}
	return nil, false
}

// LocalLookup finds alias in this scope only.
func (s *Scope) LocalLookup(alias string) (*FromElement, bool) {
	fe, ok := s.aliases[strings.ToLower(alias)]
	return fe, ok
}

// FromElements returns every from-element of the scope, space by space,
// each root followed by its joins.
func (s *Scope) FromElements() []*FromElement {
	var out []*FromElement
	for _, fs := range s.spaces {
		out = append(out, fs.root)
		out = append(out, fs.joins...)
	}
	return out
}

// FromElementSpace is one root from-element and the joins hanging off it.
type FromElementSpace struct {
	scope *Scope
	root  *FromElement
	joins []*FromElement
}

// Scope returns the owning scope.
func (fs *FromElementSpace) Scope() *Scope { return fs.scope }

// Root returns the space's root from-element.
func (fs *FromElementSpace) Root() *FromElement { return fs.root }

// Joins returns the joined from-elements in creation order.
func (fs *FromElementSpace) Joins() []*FromElement { return fs.joins }

func (fs *FromElementSpace) setRoot(fe *FromElement) {
	fe.space = fs
	fs.root = fe
}

func (fs *FromElementSpace) addJoin(fe *FromElement) {
	fe.space = fs
	fs.joins = append(fs.joins, fe)
}

// FromElementKind tags the variant of a FromElement.
type FromElementKind int

// From-element kinds.
const (
	RootKind FromElementKind = iota
	CrossJoinKind
	EntityJoinKind
	AttributeJoinKind
)

func (k FromElementKind) String() string {
	switch k {
	case RootKind:
		return "root"
	case CrossJoinKind:
		return "cross join"
	case EntityJoinKind:
		return "entity join"
	case AttributeJoinKind:
		return "attribute join"
	}
	return "unknown"
}

// FromElement is a root entity reference or a join. Kind selects which of
// the join fields are meaningful:
//
//	RootKind, CrossJoinKind  Entity, Alias
//	EntityJoinKind           JoinType, Entity, Alias, on clause
//	AttributeJoinKind        JoinType, Fetched, Lhs, Attribute, AttributePath, Alias, on clause
type FromElement struct {
	Kind   FromElementKind
	Alias  string
	Entity *domain.EntityType
	// ImplicitAlias is true when Alias was generated.
	ImplicitAlias bool
	// Synthesized is true for joins created while resolving a path.
	Synthesized bool

	JoinType      core.JoinType
	Fetched       bool
	Lhs           *FromElement
	Attribute     *domain.Attribute
	AttributePath string

	// Node is the originating parse node, zero for synthesized joins.
	Node hql.NodeID

	space     *FromElementSpace
	onClause  Predicate
	treatedAs *domain.EntityType
	seq       int
}

// Space returns the containing from-element-space.
func (fe *FromElement) Space() *FromElementSpace { return fe.space }

// Seq is the creation order of the from-element within its compilation.
func (fe *FromElement) Seq() int { return fe.seq }

// OnClause returns the explicit join predicate, if any.
func (fe *FromElement) OnClause() Predicate { return fe.onClause }

// SetOnClause attaches the join predicate. It may only be set once.
func (fe *FromElement) SetOnClause(p Predicate) error {
	if fe.Kind == RootKind || fe.Kind == CrossJoinKind {
		return core.Semanticf(fe.Alias, "%s cannot have a join predicate", fe.Kind)
	}
	if fe.onClause != nil {
		return core.Internalf("join predicate of %s set twice", fe)
	}
	fe.onClause = p
	return nil
}

// TreatedAs returns the TREAT target type, if any.
func (fe *FromElement) TreatedAs() *domain.EntityType { return fe.treatedAs }

// Treat reclassifies the from-element as et. A from-element may be treated
// as at most one type.
func (fe *FromElement) Treat(et *domain.EntityType) error {
	if fe.treatedAs != nil && fe.treatedAs != et {
		return core.Semanticf(fe.Alias, "from-element %s is already treated as %s", fe, fe.treatedAs.Name)
	}
	fe.treatedAs = et
	return nil
}

// EffectiveType is the treated type when set, otherwise the bound entity.
func (fe *FromElement) EffectiveType() *domain.EntityType {
	if fe.treatedAs != nil {
		return fe.treatedAs
	}
	return fe.Entity
}

func (fe *FromElement) String() string {
	switch fe.Kind {
	case AttributeJoinKind:
		return fmt.Sprintf("%s.%s as %s", fe.Lhs.Alias, fe.AttributePath, fe.Alias)
	default:
		return fmt.Sprintf("%s as %s", fe.Entity.Name, fe.Alias)
	}
}

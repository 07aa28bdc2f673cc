package sqm

import (
	"github.com/leapstack-labs/leapql/pkg/core"
	"github.com/leapstack-labs/leapql/pkg/domain"
	"github.com/leapstack-labs/leapql/pkg/hql"
)

// Strategy decides how a path resolves in the current clause: which joins
// intermediate segments produce, what the terminal segment becomes, and
// which from-elements a path may start from.
type Strategy interface {
	// IntermediateJoin returns the from-element reached by traversing the
	// entity or collection valued attr from lhs.
	IntermediateJoin(c *Context, lhs *FromElement, attr *domain.Attribute, path string) (*FromElement, error)
	// ResolveTerminal resolves the last path segment, attr of lhs.
	ResolveTerminal(c *Context, lhs *FromElement, attr *domain.Attribute, path, text string) (Expression, error)
	// ResolveFromElement resolves a bare alias.
	ResolveFromElement(c *Context, fe *FromElement, text string) (Expression, error)
	// ResolveEntityName resolves a path that names an entity type.
	ResolveEntityName(c *Context, et *domain.EntityType, text string) (Expression, error)
	// ValidateRoot is called with the from-element a path starts from.
	ValidateRoot(c *Context, fe *FromElement, text string) error
}

// standard is the strategy for ordinary expression contexts.
var standard Strategy = standardStrategy{}

type standardStrategy struct{}

func (standardStrategy) IntermediateJoin(c *Context, lhs *FromElement, attr *domain.Attribute, path string) (*FromElement, error) {
	return c.implicitJoin(lhs, attr, path, core.JoinInner, false)
}

func (s standardStrategy) ResolveTerminal(c *Context, lhs *FromElement, attr *domain.Attribute, path, _ string) (Expression, error) {
	if attr.Classification == domain.CollectionValued {
		fe, err := s.IntermediateJoin(c, lhs, attr, path)
		if err != nil {
			return nil, err
		}
		return &FromElementReference{Element: fe}, nil
	}
	return &AttributeReference{Source: lhs, Attribute: attr, Path: path}, nil
}

func (standardStrategy) ResolveFromElement(_ *Context, fe *FromElement, _ string) (Expression, error) {
	return &FromElementReference{Element: fe}, nil
}

func (standardStrategy) ResolveEntityName(_ *Context, et *domain.EntityType, _ string) (Expression, error) {
	return &EntityTypeLiteral{Entity: et}, nil
}

func (standardStrategy) ValidateRoot(*Context, *FromElement, string) error { return nil }

// JoinStrategy resolves the target path of an explicit join. Intermediate
// joins take the declared join type and fetch flag; the terminal segment
// becomes the join's own from-element.
type JoinStrategy struct {
	node  *hql.QualifiedJoin
	space *FromElementSpace
	scope *Scope
}

// NewJoinStrategy returns the strategy for resolving node inside space.
func NewJoinStrategy(node *hql.QualifiedJoin, space *FromElementSpace) *JoinStrategy {
	return &JoinStrategy{node: node, space: space, scope: space.scope}
}

func (s *JoinStrategy) IntermediateJoin(c *Context, lhs *FromElement, attr *domain.Attribute, path string) (*FromElement, error) {
	return c.implicitJoin(lhs, attr, path, s.node.Type, s.node.Fetch)
}

func (s *JoinStrategy) ResolveTerminal(c *Context, lhs *FromElement, attr *domain.Attribute, path, text string) (Expression, error) {
	if !attr.IsAssociation() {
		return nil, core.Semanticf(text, "join path %q does not refer to an entity or collection valued attribute", text)
	}
	target, err := c.targetOf(attr)
	if err != nil {
		return nil, err
	}
	fe := c.newFromElement(&FromElement{
		Kind:          AttributeJoinKind,
		Alias:         s.node.Alias,
		Entity:        target,
		JoinType:      s.node.Type,
		Fetched:       s.node.Fetch,
		Lhs:           lhs,
		Attribute:     attr,
		AttributePath: path,
		Node:          s.node.ID(),
	})
	return s.register(c, fe)
}

func (s *JoinStrategy) ResolveFromElement(_ *Context, fe *FromElement, text string) (Expression, error) {
	return nil, core.Semanticf(text, "join path %q refers to from-element %s, expected an attribute path or entity name", text, fe)
}

func (s *JoinStrategy) ResolveEntityName(c *Context, et *domain.EntityType, text string) (Expression, error) {
	if s.node.Fetch {
		return nil, core.Semanticf(text, "entity join %q cannot be fetched", text)
	}
	fe := c.newFromElement(&FromElement{
		Kind:     EntityJoinKind,
		Alias:    s.node.Alias,
		Entity:   et,
		JoinType: s.node.Type,
		Node:     s.node.ID(),
	})
	return s.register(c, fe)
}

func (*JoinStrategy) ValidateRoot(*Context, *FromElement, string) error { return nil }

func (s *JoinStrategy) register(c *Context, fe *FromElement) (Expression, error) {
	s.space.addJoin(fe)
	if err := s.scope.Register(fe); err != nil {
		return nil, err
	}
	c.elements[s.node.ID()] = fe
	return &FromElementReference{Element: fe}, nil
}

// JoinPredicateStrategy resolves paths inside a join's ON clause. The
// predicate may only refer to the join itself and one other from-element,
// and may not synthesize joins.
type JoinPredicateStrategy struct {
	join  *FromElement
	left  *FromElement
	right *FromElement
}

// NewJoinPredicateStrategy returns the strategy for the ON clause of join.
// For attribute joins the left side is the join's lhs; for entity joins it
// is the first other from-element the predicate refers to.
func NewJoinPredicateStrategy(join *FromElement) *JoinPredicateStrategy {
	s := &JoinPredicateStrategy{join: join, right: join}
	if join.Kind == AttributeJoinKind {
		s.left = join.Lhs
	}
	return s
}

func (s *JoinPredicateStrategy) IntermediateJoin(_ *Context, lhs *FromElement, attr *domain.Attribute, path string) (*FromElement, error) {
	return nil, core.Semanticf(lhs.Alias+"."+path, "ON-clause cannot contain implicit entity/collection joins (%s)", attr)
}

func (s *JoinPredicateStrategy) ResolveTerminal(c *Context, lhs *FromElement, attr *domain.Attribute, path, text string) (Expression, error) {
	if attr.Classification == domain.CollectionValued {
		return nil, core.Semanticf(text, "ON-clause cannot contain implicit entity/collection joins (%s)", attr)
	}
	return standard.ResolveTerminal(c, lhs, attr, path, text)
}

func (s *JoinPredicateStrategy) ResolveFromElement(c *Context, fe *FromElement, text string) (Expression, error) {
	return standard.ResolveFromElement(c, fe, text)
}

func (s *JoinPredicateStrategy) ResolveEntityName(c *Context, et *domain.EntityType, text string) (Expression, error) {
	return standard.ResolveEntityName(c, et, text)
}

func (s *JoinPredicateStrategy) ValidateRoot(_ *Context, fe *FromElement, text string) error {
	switch {
	case fe == s.right || fe == s.left:
		return nil
	case s.left == nil:
		s.left = fe
		return nil
	}
	return core.Semanticf(text, "join predicate of %s referred to more than 2 from-elements: %s, %s and %s", s.join.Alias, s.left.Alias, s.right.Alias, fe.Alias)
}

// Left returns the non-join side seen so far.
func (s *JoinPredicateStrategy) Left() *FromElement { return s.left }

// indexRelativeStrategy resolves the remainder of a path that follows an
// index access. Resolution is rooted at the indexed collection join; joins
// and terminals follow the enclosing strategy.
type indexRelativeStrategy struct {
	source   *FromElement
	enclosed Strategy
}

func (s *indexRelativeStrategy) IntermediateJoin(c *Context, lhs *FromElement, attr *domain.Attribute, path string) (*FromElement, error) {
	return s.enclosed.IntermediateJoin(c, lhs, attr, path)
}

func (s *indexRelativeStrategy) ResolveTerminal(c *Context, lhs *FromElement, attr *domain.Attribute, path, text string) (Expression, error) {
	return s.enclosed.ResolveTerminal(c, lhs, attr, path, text)
}

func (s *indexRelativeStrategy) ResolveFromElement(c *Context, fe *FromElement, text string) (Expression, error) {
	return s.enclosed.ResolveFromElement(c, fe, text)
}

func (s *indexRelativeStrategy) ResolveEntityName(_ *Context, _ *domain.EntityType, text string) (Expression, error) {
	return nil, core.Semanticf(text, "index access must be followed by an attribute path")
}

func (s *indexRelativeStrategy) ValidateRoot(_ *Context, fe *FromElement, text string) error {
	if fe != s.source {
		return core.Internalf("index relative path %q rooted at %s instead of %s", text, fe, s.source)
	}
	return nil
}

package sqm

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapql/pkg/core"
	"github.com/leapstack-labs/leapql/pkg/domain"
	"github.com/leapstack-labs/leapql/pkg/hql"
)

// Context holds all mutable state of one compilation: the implicit alias
// counter, the scope index, the scope and resolver stacks.
type Context struct {
	resolver domain.Resolver
	logger   *slog.Logger

	aliasCounter   int
	elementCounter int

	root     *Scope
	scopes   map[hql.NodeID]*Scope
	elements map[hql.NodeID]*FromElement
	implicit map[implicitJoinKey]*FromElement

	scopeStack    []*Scope
	strategyStack []Strategy
	topLevel      *Scope
}

type implicitJoinKey struct {
	lhs      *FromElement
	path     string
	joinType core.JoinType
	fetched  bool
}

// NewContext creates a compilation context. A nil logger discards output.
func NewContext(resolver domain.Resolver, logger *slog.Logger) *Context {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Context{
		resolver: resolver,
		logger:   logger,
		scopes:   make(map[hql.NodeID]*Scope),
		elements: make(map[hql.NodeID]*FromElement),
		implicit: make(map[implicitJoinKey]*FromElement),
	}
}

// Analyze runs both passes over stmt with a fresh Context and returns the
// context together with the typed statement.
func Analyze(stmt hql.Statement, resolver domain.Resolver, logger *slog.Logger) (*Context, *SelectStatement, error) {
	c := NewContext(resolver, logger)
	if _, err := c.Index(stmt); err != nil {
		return nil, nil, err
	}
	tree, err := c.Build(stmt)
	if err != nil {
		return nil, nil, err
	}
	return c, tree, nil
}

// Resolver returns the domain model resolver.
func (c *Context) Resolver() domain.Resolver { return c.resolver }

// RootScope returns the scope of the outermost query, or nil before indexing.
func (c *Context) RootScope() *Scope { return c.root }

// ScopeOf returns the scope indexed for the query spec with the given node id.
func (c *Context) ScopeOf(node hql.NodeID) (*Scope, bool) {
	s, ok := c.scopes[node]
	return s, ok
}

// FromElementOf returns the from-element created for a root or join parse node.
func (c *Context) FromElementOf(node hql.NodeID) (*FromElement, bool) {
	fe, ok := c.elements[node]
	return fe, ok
}

// nextAlias mints an implicit alias unique within this compilation.
func (c *Context) nextAlias() string {
	alias := fmt.Sprintf("<gen:%d>", c.aliasCounter)
	c.aliasCounter++
	return alias
}

// newFromElement stamps fe with a sequence number and, if needed, an alias.
func (c *Context) newFromElement(fe *FromElement) *FromElement {
	c.elementCounter++
	fe.seq = c.elementCounter
	if fe.Alias == "" {
		fe.Alias = c.nextAlias()
		fe.ImplicitAlias = true
	}
	return fe
}

// ---------- Scope stack ----------

func (c *Context) pushScope(s *Scope) {
	c.scopeStack = append(c.scopeStack, s)
}

func (c *Context) popScope(expected *Scope) error {
	n := len(c.scopeStack)
	if n == 0 || c.scopeStack[n-1] != expected {
		return core.Internalf("scope stack mismatch")
	}
	c.scopeStack = c.scopeStack[:n-1]
	return nil
}

func (c *Context) currentScope() (*Scope, error) {
	if len(c.scopeStack) == 0 {
		return nil, core.Internalf("no current scope")
	}
	return c.scopeStack[len(c.scopeStack)-1], nil
}

// ---------- Resolver stack ----------

// PushStrategy makes s the active path resolution strategy.
func (c *Context) PushStrategy(s Strategy) {
	c.strategyStack = append(c.strategyStack, s)
}

// PopStrategy removes the active strategy, which must be expected.
func (c *Context) PopStrategy(expected Strategy) error {
	n := len(c.strategyStack)
	if n == 0 || c.strategyStack[n-1] != expected {
		return core.Internalf("resolver stack mismatch")
	}
	c.strategyStack = c.strategyStack[:n-1]
	return nil
}

func (c *Context) currentStrategy() Strategy {
	if len(c.strategyStack) == 0 {
		return standard
	}
	return c.strategyStack[len(c.strategyStack)-1]
}

// ---------- Implicit joins ----------

// implicitJoin returns the join of attr from lhs, creating it on first use.
// Joins are reused per lhs, attribute path, join type and fetch flag.
func (c *Context) implicitJoin(lhs *FromElement, attr *domain.Attribute, path string, joinType core.JoinType, fetched bool) (*FromElement, error) {
	key := implicitJoinKey{lhs: lhs, path: path, joinType: joinType, fetched: fetched}
	if fe, ok := c.implicit[key]; ok {
		return fe, nil
	}
	fe, err := c.newImplicitJoin(lhs, attr, path, joinType, fetched)
	if err != nil {
		return nil, err
	}
	c.implicit[key] = fe
	return fe, nil
}

// newImplicitJoin always creates a fresh synthesized join in lhs's space.
func (c *Context) newImplicitJoin(lhs *FromElement, attr *domain.Attribute, path string, joinType core.JoinType, fetched bool) (*FromElement, error) {
	target, err := c.targetOf(attr)
	if err != nil {
		return nil, err
	}
	fe := c.newFromElement(&FromElement{
		Kind:          AttributeJoinKind,
		Entity:        target,
		JoinType:      joinType,
		Fetched:       fetched,
		Lhs:           lhs,
		Attribute:     attr,
		AttributePath: path,
		Synthesized:   true,
	})
	lhs.space.addJoin(fe)
	if err := lhs.space.scope.Register(fe); err != nil {
		return nil, err
	}
	c.logger.Debug("synthesized implicit join",
		slog.String("lhs", lhs.Alias),
		slog.String("path", path),
		slog.String("alias", fe.Alias),
		slog.String("type", joinType.String()))
	return fe, nil
}

func (c *Context) targetOf(attr *domain.Attribute) (*domain.EntityType, error) {
	target, ok := c.resolver.ResolveEntity(attr.Target)
	if !ok {
		return nil, core.Semanticf(attr.String(), "could not resolve target entity %q of attribute %s", attr.Target, attr)
	}
	return target, nil
}

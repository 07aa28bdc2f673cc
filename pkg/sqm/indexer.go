package sqm

import (
	"log/slog"

	"github.com/leapstack-labs/leapql/pkg/core"
	"github.com/leapstack-labs/leapql/pkg/hql"
)

// Index builds the scope tree for stmt and returns the root scope. Every
// query spec is recorded in the scope index by node id for Build.
func (c *Context) Index(stmt hql.Statement) (*Scope, error) {
	if c.root != nil {
		return nil, core.Internalf("context already indexed a statement")
	}
	var err error
	switch s := stmt.(type) {
	case *hql.SelectStatement:
		_, err = c.indexQuery(s.Query)
	case *hql.InsertStatement:
		err = c.indexDML(s, s.Target, func() error {
			_, err := c.indexQuery(s.Query)
			return err
		})
	case *hql.UpdateStatement:
		err = c.indexDML(s, s.Target, func() error {
			for _, a := range s.Assignments {
				if err := c.indexSubqueries(a.Value); err != nil {
					return err
				}
			}
			return c.indexSubqueries(s.Where)
		})
	case *hql.DeleteStatement:
		err = c.indexDML(s, s.Target, func() error {
			return c.indexSubqueries(s.Where)
		})
	default:
		err = core.Internalf("unexpected statement %T", stmt)
	}
	if err != nil {
		return nil, err
	}
	return c.root, nil
}

// indexDML indexes the target entity of a DML statement as a single-space
// scope keyed by the statement node.
func (c *Context) indexDML(stmt hql.Statement, target *hql.RootEntity, body func() error) error {
	scope := c.openScope(stmt.ID())
	fs := scope.addSpace()
	if err := c.indexRoot(fs, target); err != nil {
		return err
	}
	if err := body(); err != nil {
		return err
	}
	return c.popScope(scope)
}

func (c *Context) openScope(node hql.NodeID) *Scope {
	var parent *Scope
	if len(c.scopeStack) > 0 {
		parent = c.scopeStack[len(c.scopeStack)-1]
	}
	scope := newScope(parent, node)
	if parent == nil {
		c.root = scope
	}
	c.scopes[node] = scope
	c.pushScope(scope)
	return scope
}

// indexQuery indexes one query spec: its from clause first, then any
// subqueries nested in its clauses.
func (c *Context) indexQuery(q *hql.QuerySpec) (*Scope, error) {
	scope := c.openScope(q.ID())
	c.logger.Debug("indexing query", slog.Int("node", int(q.ID())), slog.Int("depth", scope.Depth()))

	for _, space := range q.From.Spaces {
		fs := scope.addSpace()
		if err := c.indexRoot(fs, space.Root); err != nil {
			return nil, err
		}
		for _, j := range space.Joins {
			if err := c.indexJoin(fs, j); err != nil {
				return nil, err
			}
		}
	}

	for _, space := range q.From.Spaces {
		for _, j := range space.Joins {
			if qj, ok := j.(*hql.QualifiedJoin); ok {
				if err := c.indexSubqueries(qj.On); err != nil {
					return nil, err
				}
			}
		}
	}
	if q.Select != nil {
		for _, item := range q.Select.Items {
			if err := c.indexSubqueries(item.Expr); err != nil {
				return nil, err
			}
		}
	}
	if err := c.indexSubqueries(q.Where); err != nil {
		return nil, err
	}
	for _, s := range q.OrderBy {
		if err := c.indexSubqueries(s.Expr); err != nil {
			return nil, err
		}
	}

	return scope, c.popScope(scope)
}

// indexSubqueries indexes every query spec directly nested in expr. Deeper
// nesting is handled by the recursive indexQuery call.
func (c *Context) indexSubqueries(expr hql.Expr) error {
	if expr == nil {
		return nil
	}
	var err error
	hql.Walk(expr, func(n hql.Node) bool {
		if err != nil {
			return false
		}
		if q, ok := n.(*hql.QuerySpec); ok {
			_, err = c.indexQuery(q)
			return false
		}
		return true
	})
	return err
}

func (c *Context) indexRoot(fs *FromElementSpace, root *hql.RootEntity) error {
	et, ok := c.resolver.ResolveEntity(root.EntityName)
	if !ok {
		return core.Semanticf(root.EntityName, "could not resolve entity %q", root.EntityName)
	}
	fe := c.newFromElement(&FromElement{
		Kind:   RootKind,
		Alias:  root.Alias,
		Entity: et,
		Node:   root.ID(),
	})
	fs.setRoot(fe)
	c.elements[root.ID()] = fe
	return fs.scope.Register(fe)
}

func (c *Context) indexJoin(fs *FromElementSpace, j hql.JoinNode) error {
	switch n := j.(type) {
	case *hql.CrossJoin:
		et, ok := c.resolver.ResolveEntity(n.EntityName)
		if !ok {
			return core.Semanticf(n.EntityName, "could not resolve entity %q", n.EntityName)
		}
		fe := c.newFromElement(&FromElement{
			Kind:     CrossJoinKind,
			Alias:    n.Alias,
			Entity:   et,
			JoinType: core.JoinCross,
			Node:     n.ID(),
		})
		fs.addJoin(fe)
		c.elements[n.ID()] = fe
		return fs.scope.Register(fe)

	case *hql.QualifiedJoin:
		strategy := NewJoinStrategy(n, fs)
		c.PushStrategy(strategy)
		_, err := c.ResolvePath(n.Path.Parts)
		if popErr := c.PopStrategy(strategy); err == nil {
			err = popErr
		}
		if err != nil {
			return err
		}
		if _, ok := c.elements[n.ID()]; !ok {
			return core.Semanticf(n.Path.Text(), "could not resolve join target %q", n.Path.Text())
		}
		return nil
	}
	return core.Internalf("unexpected join node %T", j)
}

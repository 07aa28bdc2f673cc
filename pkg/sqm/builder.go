package sqm

import (
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapql/pkg/core"
	"github.com/leapstack-labs/leapql/pkg/domain"
	"github.com/leapstack-labs/leapql/pkg/hql"
	"github.com/leapstack-labs/leapql/pkg/token"
)

// Build produces the typed statement tree of stmt. Index must have run on
// the same statement with the same Context.
func (c *Context) Build(stmt hql.Statement) (*SelectStatement, error) {
	if c.root == nil {
		return nil, core.Internalf("build called before index")
	}
	switch s := stmt.(type) {
	case *hql.SelectStatement:
		q, err := c.buildQuerySpec(s.Query, false)
		if err != nil {
			return nil, err
		}
		return &SelectStatement{Query: q}, nil
	case *hql.InsertStatement:
		return nil, core.NotYetImplemented("INSERT statement")
	case *hql.UpdateStatement:
		return nil, core.NotYetImplemented("UPDATE statement")
	case *hql.DeleteStatement:
		return nil, core.NotYetImplemented("DELETE statement")
	}
	return nil, core.Internalf("unexpected statement %T", stmt)
}

func (c *Context) buildQuerySpec(q *hql.QuerySpec, subquery bool) (*QuerySpec, error) {
	scope, ok := c.scopes[q.ID()]
	if !ok {
		return nil, core.Internalf("no scope indexed for query node %d", q.ID())
	}
	c.pushScope(scope)
	c.PushStrategy(standard)
	if !subquery {
		c.topLevel = scope
	}
	c.logger.Debug("building query", slog.Int("node", int(q.ID())), slog.Bool("subquery", subquery))

	spec, err := c.buildQueryBody(q, scope, subquery)

	if popErr := c.PopStrategy(standard); err == nil {
		err = popErr
	}
	if popErr := c.popScope(scope); err == nil {
		err = popErr
	}
	if err != nil {
		return nil, err
	}
	return spec, nil
}

func (c *Context) buildQueryBody(q *hql.QuerySpec, scope *Scope, subquery bool) (*QuerySpec, error) {
	spec := &QuerySpec{Node: q.ID(), Scope: scope, Subquery: subquery}

	// ON clauses first so that joins they are attached to are complete
	// before select and where paths synthesize further joins.
	for _, space := range q.From.Spaces {
		for _, j := range space.Joins {
			qj, ok := j.(*hql.QualifiedJoin)
			if !ok || qj.On == nil {
				continue
			}
			if err := c.buildJoinPredicate(qj); err != nil {
				return nil, err
			}
		}
	}

	if q.Select == nil {
		for _, fs := range scope.Spaces() {
			spec.Selections = append(spec.Selections, &Selection{Expr: &FromElementReference{Element: fs.Root()}})
		}
	} else {
		spec.Distinct = q.Select.Distinct
		for _, item := range q.Select.Items {
			expr, err := c.buildSelection(item.Expr, subquery)
			if err != nil {
				return nil, err
			}
			spec.Selections = append(spec.Selections, &Selection{Expr: expr, Alias: item.Alias})
		}
	}

	if q.Where != nil {
		where, err := c.buildPredicate(q.Where)
		if err != nil {
			return nil, err
		}
		spec.Where = where
	}

	for _, s := range q.OrderBy {
		expr, err := c.buildExpression(s.Expr)
		if err != nil {
			return nil, err
		}
		spec.OrderBy = append(spec.OrderBy, &SortSpecification{Expr: expr, Descending: s.Desc})
	}
	return spec, nil
}

func (c *Context) buildJoinPredicate(j *hql.QualifiedJoin) error {
	fe, ok := c.elements[j.ID()]
	if !ok {
		return core.Internalf("join %q was not indexed", j.Path.Text())
	}
	strategy := NewJoinPredicateStrategy(fe)
	c.PushStrategy(strategy)
	pred, err := c.buildPredicate(j.On)
	if popErr := c.PopStrategy(strategy); err == nil {
		err = popErr
	}
	if err != nil {
		return err
	}
	return fe.SetOnClause(pred)
}

// buildSelection builds one select item. A top-level entity valued
// attribute is selected through an implicit inner join so that the whole
// entity can be returned.
func (c *Context) buildSelection(e hql.Expr, subquery bool) (Expression, error) {
	if inst, ok := e.(*hql.DynamicInstantiation); ok {
		return c.buildInstantiation(inst, subquery)
	}
	expr, err := c.buildExpression(e)
	if err != nil {
		return nil, err
	}
	if subquery {
		return expr, nil
	}
	ref, ok := expr.(*AttributeReference)
	if !ok || ref.Attribute.Classification != domain.EntityValued {
		return expr, nil
	}
	fe, err := c.implicitJoin(ref.Source, ref.Attribute, ref.Path, core.JoinInner, false)
	if err != nil {
		return nil, err
	}
	return &FromElementReference{Element: fe}, nil
}

func (c *Context) buildInstantiation(n *hql.DynamicInstantiation, subquery bool) (Expression, error) {
	if subquery {
		return nil, core.Semanticf(n.Target, "dynamic instantiation is not allowed in a subquery")
	}
	inst := &DynamicInstantiation{Target: n.Target}
	switch strings.ToLower(n.Target) {
	case InstantiateList:
		inst.Target = InstantiateList
	case InstantiateMap:
		inst.Target = InstantiateMap
	}
	for _, a := range n.Args {
		expr, err := c.buildSelection(a.Expr, false)
		if err != nil {
			return nil, err
		}
		if inst.Target == InstantiateMap && a.Alias == "" {
			return nil, core.Semanticf(n.Target, "map instantiation requires an alias for every argument")
		}
		inst.Args = append(inst.Args, &InstantiationArgument{Expr: expr, Alias: a.Alias})
	}
	return inst, nil
}

// ---------- Expressions ----------

func (c *Context) buildExpression(e hql.Expr) (Expression, error) {
	switch n := e.(type) {
	case *hql.DottedPath:
		return c.ResolvePath(n.Parts)

	case *hql.IndexedPath:
		return c.resolveIndexed(n)

	case *hql.TreatExpr:
		return c.resolveTreat(n)

	case *hql.TypeExpr:
		expr, err := c.ResolvePath(n.Path.Parts)
		if err != nil {
			return nil, err
		}
		ref, ok := expr.(*FromElementReference)
		if !ok {
			return nil, core.Semanticf(n.Path.Text(), "TYPE() argument %q must be an alias", n.Path.Text())
		}
		return &EntityTypeExpression{Element: ref.Element}, nil

	case *hql.Literal:
		return &Literal{Kind: n.Kind, Text: n.Text, Type: literalType(n.Kind)}, nil

	case *hql.Parameter:
		return &Parameter{Name: n.Name, Position: n.Position}, nil

	case *hql.BinaryExpr:
		return c.buildBinary(n)

	case *hql.UnaryExpr:
		operand, err := c.buildExpression(n.Operand)
		if err != nil {
			return nil, err
		}
		if n.Op == token.PLUS {
			return operand, nil
		}
		return &UnaryMinus{Operand: operand}, nil

	case *hql.FuncCall:
		return c.buildFunction(n)

	case *hql.SubqueryExpr:
		q, err := c.buildQuerySpec(n.Query, true)
		if err != nil {
			return nil, err
		}
		return &SubqueryExpression{Query: q}, nil

	case *hql.DynamicInstantiation:
		return nil, core.Semanticf(n.Target, "dynamic instantiation is only allowed in the select clause")

	case *hql.ComparisonExpr, *hql.LogicalExpr, *hql.NotExpr, *hql.IsNullExpr,
		*hql.InExpr, *hql.BetweenExpr, *hql.LikeExpr, *hql.ExistsExpr:
		return nil, core.Semanticf("", "predicate cannot be used as a value at %s", e.Pos())
	}
	return nil, core.Internalf("unexpected expression %T", e)
}

var arithmeticOps = map[token.TokenType]string{
	token.PLUS:    "+",
	token.MINUS:   "-",
	token.STAR:    "*",
	token.SLASH:   "/",
	token.PERCENT: "%",
	token.DPIPE:   "||",
}

func (c *Context) buildBinary(n *hql.BinaryExpr) (Expression, error) {
	op, ok := arithmeticOps[n.Op]
	if !ok {
		return nil, core.Internalf("unexpected binary operator %s", n.Op)
	}
	left, err := c.buildExpression(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := c.buildExpression(n.Right)
	if err != nil {
		return nil, err
	}
	inferParameterType(left, right)
	inferParameterType(right, left)

	typ := "varchar"
	if op != "||" {
		typ = widerNumeric(left.SQLType(), right.SQLType())
	}
	return &BinaryArithmetic{Op: op, Left: left, Right: right, Type: typ}, nil
}

func (c *Context) buildFunction(n *hql.FuncCall) (Expression, error) {
	fn := &Function{Name: n.Name, Distinct: n.Distinct, Star: n.Star}
	for _, a := range n.Args {
		arg, err := c.buildExpression(a)
		if err != nil {
			return nil, err
		}
		fn.Args = append(fn.Args, arg)
	}
	switch n.Name {
	case "count":
		fn.Type = "bigint"
	case "avg":
		fn.Type = "double"
	case "sum", "min", "max", "abs", "coalesce", "nullif":
		if len(fn.Args) > 0 {
			fn.Type = fn.Args[0].SQLType()
		}
	case "lower", "upper", "trim", "concat", "substring":
		fn.Type = "varchar"
	case "length", "locate", "size":
		fn.Type = "integer"
	}
	return fn, nil
}

// resolveTreat reclassifies the from-element named by the path and resolves
// any trailing segments against the treated type.
func (c *Context) resolveTreat(n *hql.TreatExpr) (Expression, error) {
	text := n.Path.Text()
	expr, err := c.ResolvePath(n.Path.Parts)
	if err != nil {
		return nil, err
	}
	if attr, ok := expr.(*AttributeReference); ok && attr.Attribute.Classification == domain.EntityValued {
		fe, err := c.currentStrategy().IntermediateJoin(c, attr.Source, attr.Attribute, attr.Path)
		if err != nil {
			return nil, err
		}
		expr = &FromElementReference{Element: fe}
	}
	ref, ok := expr.(*FromElementReference)
	if !ok {
		return nil, core.Semanticf(text, "TREAT path %q must refer to an alias or an association", text)
	}
	et, ok := c.resolver.ResolveEntity(n.EntityName)
	if !ok {
		return nil, core.Semanticf(n.EntityName, "TREAT-AS target %q is not an entity type", n.EntityName)
	}
	if err := ref.Element.Treat(et); err != nil {
		return nil, err
	}
	if len(n.Rest) == 0 {
		return ref, nil
	}
	fullText := text + "." + strings.Join(n.Rest, ".")
	return c.resolveFrom(c.currentStrategy(), ref.Element, n.Rest, fullText)
}

// resolveIndexed resolves collection[index].rest. Each index access gets
// its own join whose predicate restricts the collection index.
func (c *Context) resolveIndexed(n *hql.IndexedPath) (Expression, error) {
	text := n.Collection.Text()
	strategy := c.currentStrategy()
	if _, ok := strategy.(*JoinPredicateStrategy); ok {
		return nil, core.NotYetImplemented("index access inside an ON clause")
	}
	lhs, attr, path, err := c.resolveAttributePath(strategy, n.Collection.Parts, text)
	if err != nil {
		return nil, err
	}
	if attr.Classification != domain.CollectionValued || attr.IndexColumn == nil {
		return nil, core.Semanticf(text, "index access on %q requires an indexed collection", text)
	}
	fe, err := c.newImplicitJoin(lhs, attr, path, core.JoinInner, false)
	if err != nil {
		return nil, err
	}
	index, err := c.buildExpression(n.Index)
	if err != nil {
		return nil, err
	}
	pos := &CollectionIndex{Element: fe}
	inferParameterType(index, pos)
	if err := fe.SetOnClause(&ComparisonPredicate{Op: Equal, Left: pos, Right: index}); err != nil {
		return nil, err
	}
	if len(n.Rest) == 0 {
		return &FromElementReference{Element: fe}, nil
	}

	relative := &indexRelativeStrategy{source: fe, enclosed: strategy}
	c.PushStrategy(relative)
	fullText := text + "[]." + strings.Join(n.Rest, ".")
	expr, err := c.resolveRelative(relative, fe, n.Rest, fullText)
	if popErr := c.PopStrategy(relative); err == nil {
		err = popErr
	}
	return expr, err
}

func (c *Context) resolveRelative(s Strategy, fe *FromElement, segments []string, text string) (Expression, error) {
	if err := s.ValidateRoot(c, fe, text); err != nil {
		return nil, err
	}
	return c.resolveFrom(s, fe, segments, text)
}

// resolveAttributePath resolves parts as an attribute path, qualified by an
// alias or unqualified, and returns the terminal attribute without applying
// the terminal rule.
func (c *Context) resolveAttributePath(strategy Strategy, parts []string, text string) (*FromElement, *domain.Attribute, string, error) {
	scope, err := c.currentScope()
	if err != nil {
		return nil, nil, "", err
	}
	root, segments := (*FromElement)(nil), parts
	if len(parts) > 1 {
		if fe, ok := scope.Lookup(parts[0]); ok {
			root, segments = fe, parts[1:]
		}
	}
	if root == nil {
		fe, err := c.findUnqualified(scope, parts[0], text)
		if err != nil {
			return nil, nil, "", err
		}
		if fe == nil {
			return nil, nil, "", core.Semanticf(text, "could not interpret path expression %q", text)
		}
		root = fe
	}
	if err := strategy.ValidateRoot(c, root, text); err != nil {
		return nil, nil, "", err
	}
	return c.walkPath(strategy, root, segments, text)
}

// ---------- Predicates ----------

var comparisonOps = map[token.TokenType]ComparisonOperator{
	token.EQ: Equal,
	token.NE: NotEqual,
	token.LT: LessThan,
	token.LE: LessThanOrEqual,
	token.GT: GreaterThan,
	token.GE: GreaterThanOrEqual,
}

func (c *Context) buildPredicate(e hql.Expr) (Predicate, error) {
	switch n := e.(type) {
	case *hql.ComparisonExpr:
		op, ok := comparisonOps[n.Op]
		if !ok {
			return nil, core.Internalf("unexpected comparison operator %s", n.Op)
		}
		left, right, err := c.buildOperands(n.Left, n.Right)
		if err != nil {
			return nil, err
		}
		return &ComparisonPredicate{Op: op, Left: left, Right: right}, nil

	case *hql.LogicalExpr:
		left, err := c.buildPredicate(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := c.buildPredicate(n.Right)
		if err != nil {
			return nil, err
		}
		return junction(n.Op == token.AND, left, right), nil

	case *hql.NotExpr:
		p, err := c.buildPredicate(n.Expr)
		if err != nil {
			return nil, err
		}
		return &NegatedPredicate{Predicate: p}, nil

	case *hql.IsNullExpr:
		expr, err := c.buildExpression(n.Expr)
		if err != nil {
			return nil, err
		}
		return &NullnessPredicate{Expr: expr, Negated: n.Not}, nil

	case *hql.InExpr:
		return c.buildIn(n)

	case *hql.BetweenExpr:
		expr, err := c.buildExpression(n.Expr)
		if err != nil {
			return nil, err
		}
		low, high, err := c.buildOperands(n.Low, n.High)
		if err != nil {
			return nil, err
		}
		inferParameterType(low, expr)
		inferParameterType(high, expr)
		return &BetweenPredicate{Expr: expr, Low: low, High: high, Negated: n.Not}, nil

	case *hql.LikeExpr:
		expr, pattern, err := c.buildOperands(n.Expr, n.Pattern)
		if err != nil {
			return nil, err
		}
		like := &LikePredicate{Expr: expr, Pattern: pattern, Negated: n.Not}
		if n.Escape != nil {
			if like.Escape, err = c.buildExpression(n.Escape); err != nil {
				return nil, err
			}
			inferParameterType(like.Escape, &Literal{Type: "char"})
		}
		return like, nil

	case *hql.ExistsExpr:
		q, err := c.buildQuerySpec(n.Query, true)
		if err != nil {
			return nil, err
		}
		return &ExistsPredicate{Query: q, Negated: n.Not}, nil
	}
	return nil, core.Semanticf("", "expression at %s is not a predicate", e.Pos())
}

// buildOperands builds both sides of a binary predicate and lets an untyped
// parameter adopt the type of the other side.
func (c *Context) buildOperands(l, r hql.Expr) (Expression, Expression, error) {
	left, err := c.buildExpression(l)
	if err != nil {
		return nil, nil, err
	}
	right, err := c.buildExpression(r)
	if err != nil {
		return nil, nil, err
	}
	inferParameterType(left, right)
	inferParameterType(right, left)
	return left, right, nil
}

func (c *Context) buildIn(n *hql.InExpr) (Predicate, error) {
	expr, err := c.buildExpression(n.Expr)
	if err != nil {
		return nil, err
	}
	if n.Query != nil {
		q, err := c.buildQuerySpec(n.Query, true)
		if err != nil {
			return nil, err
		}
		return &InSubqueryPredicate{Expr: expr, Query: q, Negated: n.Not}, nil
	}
	in := &InListPredicate{Expr: expr, Negated: n.Not}
	for _, item := range n.List {
		v, err := c.buildExpression(item)
		if err != nil {
			return nil, err
		}
		inferParameterType(v, expr)
		in.List = append(in.List, v)
	}
	return in, nil
}

func junction(conjunction bool, left, right Predicate) Predicate {
	j := &Junction{Conjunction: conjunction}
	for _, p := range []Predicate{left, right} {
		if inner, ok := p.(*Junction); ok && inner.Conjunction == conjunction {
			j.Predicates = append(j.Predicates, inner.Predicates...)
			continue
		}
		j.Predicates = append(j.Predicates, p)
	}
	return j
}

// ---------- Types ----------

func literalType(kind hql.LiteralKind) string {
	switch kind {
	case hql.LitInteger:
		return "integer"
	case hql.LitLong:
		return "bigint"
	case hql.LitBigInteger, hql.LitBigDecimal:
		return "numeric"
	case hql.LitDecimal:
		return "decimal"
	case hql.LitFloat:
		return "real"
	case hql.LitDouble:
		return "double"
	case hql.LitString:
		return "varchar"
	case hql.LitBoolean:
		return "boolean"
	}
	return ""
}

// inferParameterType gives an untyped parameter the type of the expression
// it is compared or combined with.
func inferParameterType(target, from Expression) {
	p, ok := target.(*Parameter)
	if !ok || p.Type != "" {
		return
	}
	p.Type = from.SQLType()
}

var numericRank = map[string]int{
	"smallint": 1,
	"integer":  2,
	"int":      2,
	"bigint":   3,
	"decimal":  4,
	"numeric":  4,
	"real":     5,
	"float":    5,
	"double":   6,
}

// widerNumeric returns the wider of two numeric types, or the known one if
// only one side is typed.
func widerNumeric(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	if numericRank[b] > numericRank[a] {
		return b
	}
	return a
}

package sqm

import (
	"strconv"

	"github.com/leapstack-labs/leapql/pkg/domain"
	"github.com/leapstack-labs/leapql/pkg/hql"
)

// Expression is a typed value expression.
type Expression interface {
	// SQLType is the inferred SQL type name, or "" when not known.
	SQLType() string
	expression()
}

// FromElementReference refers to a from-element itself: an entity valued
// value identified by its key.
type FromElementReference struct {
	Element *FromElement
}

// AttributeReference refers to a basic, embedded or entity valued attribute
// of Source. Path is relative to Source and includes embedded prefixes.
type AttributeReference struct {
	Source    *FromElement
	Attribute *domain.Attribute
	Path      string
}

// CollectionIndex is the index of an indexed collection join.
type CollectionIndex struct {
	Element *FromElement
}

// EntityTypeLiteral is an entity name used as a value, e.g. in TYPE(a) = Entity.
type EntityTypeLiteral struct {
	Entity *domain.EntityType
}

// EntityTypeExpression is TYPE(alias).
type EntityTypeExpression struct {
	Element *FromElement
}

// Literal is a constant from the query text.
type Literal struct {
	Kind hql.LiteralKind
	Text string
	Type string
}

// ConstantReference is a named constant from the domain model.
type ConstantReference struct {
	Constant *domain.Constant
}

// Parameter is one occurrence of a named or ordinal parameter.
type Parameter struct {
	Name     string
	Position int
	// Type is inferred from the expression the parameter is compared with.
	Type string
}

// Label returns :name or ?n.
func (p *Parameter) Label() string {
	if p.Name != "" {
		return ":" + p.Name
	}
	return "?" + strconv.Itoa(p.Position)
}

// BinaryArithmetic is an arithmetic or concatenation expression.
type BinaryArithmetic struct {
	Op    string
	Left  Expression
	Right Expression
	Type  string
}

// UnaryMinus negates a numeric expression.
type UnaryMinus struct {
	Operand Expression
}

// Function is a function or aggregate call.
type Function struct {
	Name     string
	Distinct bool
	Star     bool
	Args     []Expression
	Type     string
}

// SubqueryExpression is a scalar or row subquery.
type SubqueryExpression struct {
	Query *QuerySpec
}

// DynamicInstantiation constructs Target from its arguments at the
// execution boundary. Target is "list", "map" or a registered type name.
type DynamicInstantiation struct {
	Target string
	Args   []*InstantiationArgument
}

// InstantiationArgument is one constructor argument.
type InstantiationArgument struct {
	Expr  Expression
	Alias string
}

// Instantiation targets with built-in construction.
const (
	InstantiateList = "list"
	InstantiateMap  = "map"
)

// SQLType implementations

func (r *FromElementReference) SQLType() string {
	if len(r.Element.Entity.IDColumns()) == 1 {
		return r.Element.Entity.ID.SQLType
	}
	return ""
}

func (r *AttributeReference) SQLType() string {
	switch r.Attribute.Classification {
	case domain.Basic, domain.EntityValued:
		return r.Attribute.SQLType
	}
	return ""
}

func (*CollectionIndex) SQLType() string         { return "integer" }
func (*EntityTypeLiteral) SQLType() string       { return "" }
func (*EntityTypeExpression) SQLType() string    { return "" }
func (l *Literal) SQLType() string               { return l.Type }
func (c *ConstantReference) SQLType() string     { return c.Constant.SQLType }
func (p *Parameter) SQLType() string             { return p.Type }
func (b *BinaryArithmetic) SQLType() string      { return b.Type }
func (u *UnaryMinus) SQLType() string            { return u.Operand.SQLType() }
func (f *Function) SQLType() string              { return f.Type }
func (*DynamicInstantiation) SQLType() string    { return "" }
func (s *SubqueryExpression) SQLType() string {
	if len(s.Query.Selections) == 1 {
		return s.Query.Selections[0].Expr.SQLType()
	}
	return ""
}

func (*FromElementReference) expression()  {}
func (*AttributeReference) expression()    {}
func (*CollectionIndex) expression()       {}
func (*EntityTypeLiteral) expression()     {}
func (*EntityTypeExpression) expression()  {}
func (*Literal) expression()               {}
func (*ConstantReference) expression()     {}
func (*Parameter) expression()             {}
func (*BinaryArithmetic) expression()      {}
func (*UnaryMinus) expression()            {}
func (*Function) expression()              {}
func (*SubqueryExpression) expression()    {}
func (*DynamicInstantiation) expression()  {}

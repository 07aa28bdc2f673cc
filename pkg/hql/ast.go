package hql

import (
	"strings"

	"github.com/leapstack-labs/leapql/pkg/core"
	"github.com/leapstack-labs/leapql/pkg/token"
)

// NodeID identifies a parse node. IDs are assigned once by the parser in
// creation order and are unique within one parse tree.
type NodeID int

// Node is implemented by every parse tree node.
type Node interface {
	ID() NodeID
	Pos() token.Position
}

// base carries the fields shared by all nodes.
type base struct {
	id  NodeID
	pos token.Position
}

// ID returns the stable node identifier.
func (b *base) ID() NodeID { return b.id }

// Pos returns the position of the node's first token.
func (b *base) Pos() token.Position { return b.pos }

// Statement is a top-level query statement.
type Statement interface {
	Node
	statementNode()
}

// Expr is an expression or predicate.
type Expr interface {
	Node
	exprNode()
}

// JoinNode is a joined from-element inside a FromElementSpace.
type JoinNode interface {
	Node
	joinNode()
}

// ---------- Statements ----------

// SelectStatement is a SELECT query.
type SelectStatement struct {
	base
	Query *QuerySpec
}

// InsertStatement is INSERT INTO entity (paths) select ...
type InsertStatement struct {
	base
	Target  *RootEntity
	Columns []*DottedPath
	Query   *QuerySpec
}

// UpdateStatement is UPDATE entity SET ... [WHERE ...].
type UpdateStatement struct {
	base
	Target      *RootEntity
	Assignments []*Assignment
	Where       Expr
}

// DeleteStatement is DELETE [FROM] entity [WHERE ...].
type DeleteStatement struct {
	base
	Target *RootEntity
	Where  Expr
}

// Assignment is one path = value pair of an UPDATE.
type Assignment struct {
	base
	Path  *DottedPath
	Value Expr
}

func (*SelectStatement) statementNode() {}
func (*InsertStatement) statementNode() {}
func (*UpdateStatement) statementNode() {}
func (*DeleteStatement) statementNode() {}

// ---------- Query structure ----------

// QuerySpec is one query or subquery. Select is nil when the select clause
// was omitted.
type QuerySpec struct {
	base
	Select  *SelectClause
	From    *FromClause
	Where   Expr
	OrderBy []*SortSpec
}

// SelectClause is the select list.
type SelectClause struct {
	base
	Distinct bool
	Items    []*SelectItem
}

// SelectItem is one selection, optionally aliased.
type SelectItem struct {
	base
	Expr  Expr
	Alias string
}

// SortSpec is one ORDER BY item.
type SortSpec struct {
	base
	Expr Expr
	Desc bool
}

// FromClause is the list of comma separated from-element-spaces.
type FromClause struct {
	base
	Spaces []*FromElementSpace
}

// FromElementSpace is a root entity followed by its joins.
type FromElementSpace struct {
	base
	Root  *RootEntity
	Joins []JoinNode
}

// RootEntity is a root entity reference. Alias is empty when none was written.
type RootEntity struct {
	base
	EntityName string
	Alias      string
}

// CrossJoin is CROSS JOIN entity [alias].
type CrossJoin struct {
	base
	EntityName string
	Alias      string
}

// QualifiedJoin is [type] JOIN [FETCH] path [alias] [ON predicate]. The path
// may name an attribute of an earlier from-element or an entity.
type QualifiedJoin struct {
	base
	Type  core.JoinType
	Fetch bool
	Path  *DottedPath
	Alias string
	On    Expr
}

func (*CrossJoin) joinNode()     {}
func (*QualifiedJoin) joinNode() {}

// ---------- Expressions ----------

// DottedPath is an identifier sequence such as a.entity.basic1.
type DottedPath struct {
	base
	Parts []string
}

// Text returns the dotted text of the path.
func (p *DottedPath) Text() string { return strings.Join(p.Parts, ".") }

// IndexedPath is an indexed collection element access: Collection[Index].Rest.
type IndexedPath struct {
	base
	Collection *DottedPath
	Index      Expr
	Rest       []string
}

// TreatExpr is TREAT(path AS Entity) optionally followed by .Rest.
type TreatExpr struct {
	base
	Path       *DottedPath
	EntityName string
	Rest       []string
}

// TypeExpr is TYPE(path), the entity type of a from-element.
type TypeExpr struct {
	base
	Path *DottedPath
}

// LiteralKind classifies literals.
type LiteralKind int

// Literal kinds.
const (
	LitInteger LiteralKind = iota
	LitLong
	LitBigInteger
	LitDecimal
	LitFloat
	LitDouble
	LitBigDecimal
	LitString
	LitBoolean
	LitNull
)

// Literal is a constant value. Text holds the raw token text without suffix
// for numbers and the unescaped value for strings.
type Literal struct {
	base
	Kind LiteralKind
	Text string
}

// Parameter is a named (:name) or ordinal (?1) parameter.
type Parameter struct {
	base
	Name     string
	Position int
}

// BinaryExpr is an arithmetic or concatenation expression.
type BinaryExpr struct {
	base
	Op    token.TokenType
	Left  Expr
	Right Expr
}

// UnaryExpr is a unary minus or plus.
type UnaryExpr struct {
	base
	Op      token.TokenType
	Operand Expr
}

// FuncCall is a function call, including aggregates.
type FuncCall struct {
	base
	Name     string
	Distinct bool
	Star     bool
	Args     []Expr
}

// SubqueryExpr is a parenthesised subquery.
type SubqueryExpr struct {
	base
	Query *QuerySpec
}

// DynamicInstantiation is NEW target(args...).
type DynamicInstantiation struct {
	base
	Target string
	Args   []*InstantiationArg
}

// InstantiationArg is one argument of a dynamic instantiation.
type InstantiationArg struct {
	base
	Expr  Expr
	Alias string
}

// ---------- Predicates ----------

// ComparisonExpr is left op right with op one of = <> < > <= >=.
type ComparisonExpr struct {
	base
	Op    token.TokenType
	Left  Expr
	Right Expr
}

// LogicalExpr is AND or OR.
type LogicalExpr struct {
	base
	Op    token.TokenType
	Left  Expr
	Right Expr
}

// NotExpr negates a predicate.
type NotExpr struct {
	base
	Expr Expr
}

// IsNullExpr is expr IS [NOT] NULL.
type IsNullExpr struct {
	base
	Expr Expr
	Not  bool
}

// InExpr is expr [NOT] IN (list) or expr [NOT] IN (subquery).
type InExpr struct {
	base
	Expr  Expr
	Not   bool
	List  []Expr
	Query *QuerySpec
}

// BetweenExpr is expr [NOT] BETWEEN low AND high.
type BetweenExpr struct {
	base
	Expr Expr
	Not  bool
	Low  Expr
	High Expr
}

// LikeExpr is expr [NOT] LIKE pattern [ESCAPE escape].
type LikeExpr struct {
	base
	Expr    Expr
	Not     bool
	Pattern Expr
	Escape  Expr
}

// ExistsExpr is [NOT] EXISTS (subquery).
type ExistsExpr struct {
	base
	Not   bool
	Query *QuerySpec
}

func (*DottedPath) exprNode()           {}
func (*IndexedPath) exprNode()          {}
func (*TreatExpr) exprNode()            {}
func (*TypeExpr) exprNode()             {}
func (*Literal) exprNode()              {}
func (*Parameter) exprNode()            {}
func (*BinaryExpr) exprNode()           {}
func (*UnaryExpr) exprNode()            {}
func (*FuncCall) exprNode()             {}
func (*SubqueryExpr) exprNode()         {}
func (*DynamicInstantiation) exprNode() {}
func (*ComparisonExpr) exprNode()       {}
func (*LogicalExpr) exprNode()          {}
func (*NotExpr) exprNode()              {}
func (*IsNullExpr) exprNode()           {}
func (*InExpr) exprNode()               {}
func (*BetweenExpr) exprNode()          {}
func (*LikeExpr) exprNode()             {}
func (*ExistsExpr) exprNode()           {}

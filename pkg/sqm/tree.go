package sqm

import "github.com/leapstack-labs/leapql/pkg/hql"

// StatementType is the kind of a statement.
type StatementType int

// Statement kinds.
const (
	Select StatementType = iota
	Insert
	Update
	Delete
)

func (t StatementType) String() string {
	return [...]string{"SELECT", "INSERT", "UPDATE", "DELETE"}[t]
}

// SelectStatement is the typed form of a SELECT.
type SelectStatement struct {
	Query *QuerySpec
}

// Type returns Select.
func (*SelectStatement) Type() StatementType { return Select }

// QuerySpec is one typed query or subquery, tied to its Scope.
type QuerySpec struct {
	Node       hql.NodeID
	Scope      *Scope
	Distinct   bool
	Selections []*Selection
	Where      Predicate
	OrderBy    []*SortSpecification
	// Subquery is false for the outermost query.
	Subquery bool
}

// Selection is one item of the select clause.
type Selection struct {
	Expr  Expression
	Alias string
}

// SortSpecification is one ORDER BY item.
type SortSpecification struct {
	Expr       Expression
	Descending bool
}

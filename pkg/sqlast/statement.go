package sqlast

// SelectStatement is a complete SQL query with its return descriptors.
type SelectStatement struct {
	Query   *QuerySpec
	Returns []Return
}

// QuerySpec is one SELECT, top level or nested.
type QuerySpec struct {
	Distinct   bool
	Selections []*SelectItem
	From       *FromClause
	Where      Predicate
	OrderBy    []*SortSpec
}

// AddSelection appends expr to the select list and returns its 0-based position.
func (q *QuerySpec) AddSelection(expr Expression) int {
	q.Selections = append(q.Selections, &SelectItem{Expr: expr})
	return len(q.Selections) - 1
}

// SelectItem is one column of the select list.
type SelectItem struct {
	Expr Expression
}

// SortSpec is one ORDER BY item.
type SortSpec struct {
	Expr       Expression
	Descending bool
}

package sqm

// Predicate is a typed boolean condition.
type Predicate interface {
	predicate()
}

// ComparisonOperator is one of = <> < > <= >=.
type ComparisonOperator string

// Comparison operators.
const (
	Equal              ComparisonOperator = "="
	NotEqual           ComparisonOperator = "<>"
	LessThan           ComparisonOperator = "<"
	LessThanOrEqual    ComparisonOperator = "<="
	GreaterThan        ComparisonOperator = ">"
	GreaterThanOrEqual ComparisonOperator = ">="
)

// ComparisonPredicate is Left Op Right.
type ComparisonPredicate struct {
	Op    ComparisonOperator
	Left  Expression
	Right Expression
}

// Junction is a flattened AND (Conjunction) or OR of predicates.
type Junction struct {
	Conjunction bool
	Predicates  []Predicate
}

// NegatedPredicate is NOT (Predicate).
type NegatedPredicate struct {
	Predicate Predicate
}

// NullnessPredicate is Expr IS [NOT] NULL.
type NullnessPredicate struct {
	Expr    Expression
	Negated bool
}

// InListPredicate is Expr [NOT] IN (List...).
type InListPredicate struct {
	Expr    Expression
	List    []Expression
	Negated bool
}

// InSubqueryPredicate is Expr [NOT] IN (subquery).
type InSubqueryPredicate struct {
	Expr    Expression
	Query   *QuerySpec
	Negated bool
}

// BetweenPredicate is Expr [NOT] BETWEEN Low AND High.
type BetweenPredicate struct {
	Expr    Expression
	Low     Expression
	High    Expression
	Negated bool
}

// LikePredicate is Expr [NOT] LIKE Pattern [ESCAPE Escape].
type LikePredicate struct {
	Expr    Expression
	Pattern Expression
	Escape  Expression
	Negated bool
}

// ExistsPredicate is [NOT] EXISTS (subquery).
type ExistsPredicate struct {
	Query   *QuerySpec
	Negated bool
}

func (*ComparisonPredicate) predicate() {}
func (*Junction) predicate()            {}
func (*NegatedPredicate) predicate()    {}
func (*NullnessPredicate) predicate()   {}
func (*InListPredicate) predicate()     {}
func (*InSubqueryPredicate) predicate() {}
func (*BetweenPredicate) predicate()    {}
func (*LikePredicate) predicate()       {}
func (*ExistsPredicate) predicate()     {}

// And combines predicates into a flattened conjunction. Nil predicates are
// skipped; a single predicate is returned as is.
func And(preds ...Predicate) Predicate {
	var flat []Predicate
	for _, p := range preds {
		switch v := p.(type) {
		case nil:
		case *Junction:
			if v.Conjunction {
				flat = append(flat, v.Predicates...)
			} else {
				flat = append(flat, v)
			}
		default:
			flat = append(flat, v)
		}
	}
	switch len(flat) {
	case 0:
		return nil
	case 1:
		return flat[0]
	}
	return &Junction{Conjunction: true, Predicates: flat}
}

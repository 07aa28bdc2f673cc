package sqlast

// Predicate is a SQL boolean condition.
type Predicate interface {
	predicateNode()
}

// Comparison is Left Op Right.
type Comparison struct {
	Op    string
	Left  Expression
	Right Expression
}

// Junction is an AND (Conjunction) or OR of predicates.
type Junction struct {
	Conjunction bool
	Predicates  []Predicate
}

// Negated is NOT (Predicate).
type Negated struct {
	Predicate Predicate
}

// Nullness is Expr IS [NOT] NULL.
type Nullness struct {
	Expr    Expression
	Negated bool
}

// InList is Expr [NOT] IN (List...).
type InList struct {
	Expr    Expression
	List    []Expression
	Negated bool
}

// InSubquery is Expr [NOT] IN (Query).
type InSubquery struct {
	Expr    Expression
	Query   *QuerySpec
	Negated bool
}

// Between is Expr [NOT] BETWEEN Low AND High.
type Between struct {
	Expr    Expression
	Low     Expression
	High    Expression
	Negated bool
}

// Like is Expr [NOT] LIKE Pattern [ESCAPE Escape].
type Like struct {
	Expr    Expression
	Pattern Expression
	Escape  Expression
	Negated bool
}

// Exists is [NOT] EXISTS (Query).
type Exists struct {
	Query   *QuerySpec
	Negated bool
}

func (*Comparison) predicateNode() {}
func (*Junction) predicateNode()   {}
func (*Negated) predicateNode()    {}
func (*Nullness) predicateNode()   {}
func (*InList) predicateNode()     {}
func (*InSubquery) predicateNode() {}
func (*Between) predicateNode()    {}
func (*Like) predicateNode()       {}
func (*Exists) predicateNode()     {}

// And combines predicates into a flattened conjunction, skipping nils.
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

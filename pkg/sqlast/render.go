package sqlast

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapql/pkg/core"
	"github.com/leapstack-labs/leapql/pkg/dialect"
)

// Rendered is SQL text with its parameter binders in placeholder order.
type Rendered struct {
	SQL     string
	Binders []*ParameterBinder
}

// Render renders stmt as a single line of SQL for d.
func Render(stmt *SelectStatement, d *dialect.Dialect) (*Rendered, error) {
	if d == nil {
		return nil, dialect.ErrDialectRequired
	}
	r := &renderer{d: d}
	if err := r.query(stmt.Query); err != nil {
		return nil, err
	}
	return &Rendered{SQL: r.out.String(), Binders: r.binders}, nil
}

type renderer struct {
	d       *dialect.Dialect
	out     strings.Builder
	binders []*ParameterBinder
}

func (r *renderer) write(s string) {
	r.out.WriteString(s)
}

func (r *renderer) query(q *QuerySpec) error {
	r.write("select ")
	if q.Distinct {
		r.write("distinct ")
	}
	for i, item := range q.Selections {
		if i > 0 {
			r.write(", ")
		}
		if err := r.expr(item.Expr); err != nil {
			return err
		}
	}

	r.write(" from ")
	for i, space := range q.From.Spaces {
		if i > 0 {
			r.write(", ")
		}
		if err := r.space(space); err != nil {
			return err
		}
	}

	if q.Where != nil {
		r.write(" where ")
		if err := r.predicate(q.Where); err != nil {
			return err
		}
	}

	for i, s := range q.OrderBy {
		if i == 0 {
			r.write(" order by ")
		} else {
			r.write(", ")
		}
		if err := r.expr(s.Expr); err != nil {
			return err
		}
		if s.Descending {
			r.write(" desc")
		}
	}
	return nil
}

// ---------- From clause ----------

func (r *renderer) space(s *TableSpace) error {
	if err := r.group(s.Root); err != nil {
		return err
	}
	for _, j := range s.Joins {
		if !j.Type.Supported() {
			return &core.UnsupportedJoinTypeError{JoinType: j.Type}
		}
		r.write(" ")
		r.write(j.Type.SQL())
		r.write(" ")

		// An outer joined group whose own tables are inner joined must be
		// nested so the inner joins do not filter the outer rows.
		nested := j.Type == core.JoinLeft && hasInnerTableJoin(j.Group)
		if nested {
			r.write("(")
			if err := r.group(j.Group); err != nil {
				return err
			}
			r.write(")")
		} else {
			r.table(j.Group.Root)
		}

		if j.Type != core.JoinCross {
			r.write(" on ")
			if err := r.joinPredicate(j.Predicate); err != nil {
				return err
			}
		}

		if !nested {
			if err := r.tableJoins(j.Group); err != nil {
				return err
			}
		}
	}
	return nil
}

func hasInnerTableJoin(g *TableGroup) bool {
	for _, j := range g.Joins {
		if j.Type == core.JoinInner {
			return true
		}
	}
	return false
}

func (r *renderer) group(g *TableGroup) error {
	r.table(g.Root)
	return r.tableJoins(g)
}

func (r *renderer) tableJoins(g *TableGroup) error {
	for _, j := range g.Joins {
		r.write(" ")
		r.write(j.Type.SQL())
		r.write(" ")
		r.table(j.Table)
		r.write(" on ")
		if err := r.joinPredicate(j.Predicate); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) joinPredicate(p Predicate) error {
	if p == nil {
		r.write("1=1")
		return nil
	}
	return r.predicate(p)
}

func (r *renderer) table(t *TableReference) {
	r.write(r.d.QuoteIdentifierIfNeeded(t.Table))
	r.write(" ")
	r.write(t.Alias)
}

// ---------- Expressions ----------

func (r *renderer) expr(e Expression) error {
	switch v := e.(type) {
	case *ColumnReference:
		r.write(v.Table.Alias)
		r.write(".")
		r.write(r.d.QuoteIdentifierIfNeeded(v.Column))

	case *Tuple:
		r.write("(")
		for i, item := range v.Items {
			if i > 0 {
				r.write(", ")
			}
			if err := r.expr(item); err != nil {
				return err
			}
		}
		r.write(")")

	case *Literal:
		r.literal(v)

	case *Parameter:
		r.binders = append(r.binders, v.Binder)
		r.write(r.d.FormatPlaceholder(len(r.binders)))

	case *Arithmetic:
		if err := r.operand(v.Left); err != nil {
			return err
		}
		r.write(" ")
		r.write(v.Op)
		r.write(" ")
		return r.operand(v.Right)

	case *Negation:
		r.write("-")
		if bareOperand(v.Operand) {
			return r.expr(v.Operand)
		}
		r.write("(")
		if err := r.expr(v.Operand); err != nil {
			return err
		}
		r.write(")")

	case *FunctionCall:
		r.write(r.d.FunctionName(v.Name))
		r.write("(")
		if v.Distinct {
			r.write("distinct ")
		}
		if v.Star {
			r.write("*")
		}
		for i, a := range v.Args {
			if i > 0 {
				r.write(", ")
			}
			if err := r.expr(a); err != nil {
				return err
			}
		}
		r.write(")")

	case *Subquery:
		return r.subquery(v.Query)

	default:
		return core.Internalf("cannot render expression %T", e)
	}
	return nil
}

func (r *renderer) operand(e Expression) error {
	if _, ok := e.(*Arithmetic); ok {
		r.write("(")
		if err := r.expr(e); err != nil {
			return err
		}
		r.write(")")
		return nil
	}
	return r.expr(e)
}

// bareOperand reports whether e can follow a unary minus without
// parentheses. Anything that may itself start with "-" cannot, since "--"
// opens a line comment.
func bareOperand(e Expression) bool {
	switch v := e.(type) {
	case *ColumnReference, *Parameter, *FunctionCall:
		return true
	case *Literal:
		return v.Kind != NumericLiteral || !strings.HasPrefix(v.Value, "-")
	}
	return false
}

func (r *renderer) literal(l *Literal) {
	switch l.Kind {
	case StringLiteral:
		r.write("'")
		r.write(strings.ReplaceAll(l.Value, "'", "''"))
		r.write("'")
	case BooleanLiteral:
		r.write(r.d.FormatBoolean(l.Value == "true"))
	case NullLiteral:
		r.write("null")
	default:
		r.write(l.Value)
	}
}

func (r *renderer) subquery(q *QuerySpec) error {
	r.write("(")
	if err := r.query(q); err != nil {
		return err
	}
	r.write(")")
	return nil
}

// ---------- Predicates ----------

func (r *renderer) predicate(p Predicate) error {
	switch v := p.(type) {
	case *Comparison:
		if err := r.expr(v.Left); err != nil {
			return err
		}
		r.write(v.Op)
		return r.expr(v.Right)

	case *Junction:
		sep := " or "
		if v.Conjunction {
			sep = " and "
		}
		for i, child := range v.Predicates {
			if i > 0 {
				r.write(sep)
			}
			if inner, ok := child.(*Junction); ok && inner.Conjunction != v.Conjunction {
				r.write("(")
				if err := r.predicate(child); err != nil {
					return err
				}
				r.write(")")
				continue
			}
			if err := r.predicate(child); err != nil {
				return err
			}
		}

	case *Negated:
		r.write("not (")
		if err := r.predicate(v.Predicate); err != nil {
			return err
		}
		r.write(")")

	case *Nullness:
		return r.nullness(v)

	case *InList:
		if err := r.expr(v.Expr); err != nil {
			return err
		}
		r.write(negate(v.Negated, " in ("))
		for i, item := range v.List {
			if i > 0 {
				r.write(", ")
			}
			if err := r.expr(item); err != nil {
				return err
			}
		}
		r.write(")")

	case *InSubquery:
		if err := r.expr(v.Expr); err != nil {
			return err
		}
		r.write(negate(v.Negated, " in "))
		return r.subquery(v.Query)

	case *Between:
		if err := r.expr(v.Expr); err != nil {
			return err
		}
		r.write(negate(v.Negated, " between "))
		if err := r.expr(v.Low); err != nil {
			return err
		}
		r.write(" and ")
		return r.expr(v.High)

	case *Like:
		if err := r.expr(v.Expr); err != nil {
			return err
		}
		r.write(negate(v.Negated, " like "))
		if err := r.expr(v.Pattern); err != nil {
			return err
		}
		if v.Escape != nil {
			r.write(" escape ")
			return r.expr(v.Escape)
		}

	case *Exists:
		if v.Negated {
			r.write("not ")
		}
		r.write("exists ")
		return r.subquery(v.Query)

	default:
		return core.Internalf("cannot render predicate %T", p)
	}
	return nil
}

// nullness expands a tuple into one test per column.
func (r *renderer) nullness(n *Nullness) error {
	test := " is null"
	if n.Negated {
		test = " is not null"
	}
	t, ok := n.Expr.(*Tuple)
	if !ok {
		if err := r.expr(n.Expr); err != nil {
			return err
		}
		r.write(test)
		return nil
	}
	r.write("(")
	for i, item := range t.Items {
		if i > 0 {
			r.write(" and ")
		}
		if err := r.expr(item); err != nil {
			return err
		}
		r.write(test)
	}
	r.write(")")
	return nil
}

// negate prefixes the keyword in kw with "not".
func negate(negated bool, kw string) string {
	if !negated {
		return kw
	}
	return fmt.Sprintf(" not%s", kw)
}

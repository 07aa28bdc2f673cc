package sqlast

import "strconv"

// Expression is a SQL value expression.
type Expression interface {
	expressionNode()
}

// ColumnReference is a column of an aliased table.
type ColumnReference struct {
	Table   *TableReference
	Column  string
	SQLType string
}

// Tuple is a parenthesised list of expressions, used for multi-column keys.
type Tuple struct {
	Items []Expression
}

// LiteralKind classifies literals for rendering.
type LiteralKind int

// Literal kinds.
const (
	NumericLiteral LiteralKind = iota
	StringLiteral
	BooleanLiteral
	NullLiteral
)

// Literal is a constant. Value is the numeric text, the unquoted string,
// or "true"/"false".
type Literal struct {
	Kind    LiteralKind
	Value   string
	SQLType string
}

// Parameter is one parameter placeholder.
type Parameter struct {
	Binder *ParameterBinder
}

// Arithmetic is Left Op Right with Op one of + - * / % ||.
type Arithmetic struct {
	Op    string
	Left  Expression
	Right Expression
}

// Negation is unary minus.
type Negation struct {
	Operand Expression
}

// FunctionCall is a function or aggregate call.
type FunctionCall struct {
	Name     string
	Distinct bool
	Star     bool
	Args     []Expression
}

// Subquery is a nested query used as a value.
type Subquery struct {
	Query *QuerySpec
}

// ParameterBinder binds one parameter occurrence. Binders are numbered in
// the order their placeholders appear in the rendered SQL.
type ParameterBinder struct {
	Name     string
	Position int
	SQLType  string
}

// Label returns :name or ?n.
func (b *ParameterBinder) Label() string {
	if b.Name != "" {
		return ":" + b.Name
	}
	return "?" + strconv.Itoa(b.Position)
}

// Columns returns the columns of a column reference or a tuple of column
// references, and false for anything else.
func Columns(e Expression) ([]*ColumnReference, bool) {
	switch v := e.(type) {
	case *ColumnReference:
		return []*ColumnReference{v}, true
	case *Tuple:
		cols := make([]*ColumnReference, 0, len(v.Items))
		for _, item := range v.Items {
			c, ok := item.(*ColumnReference)
			if !ok {
				return nil, false
			}
			cols = append(cols, c)
		}
		return cols, true
	}
	return nil, false
}

// Width is the number of columns e evaluates to.
func Width(e Expression) int {
	if t, ok := e.(*Tuple); ok {
		return len(t.Items)
	}
	return 1
}

func (*ColumnReference) expressionNode() {}
func (*Tuple) expressionNode()           {}
func (*Literal) expressionNode()         {}
func (*Parameter) expressionNode()       {}
func (*Arithmetic) expressionNode()      {}
func (*Negation) expressionNode()        {}
func (*FunctionCall) expressionNode()    {}
func (*Subquery) expressionNode()        {}

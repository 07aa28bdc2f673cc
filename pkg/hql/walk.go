package hql

// Walk traverses a parse tree depth-first and calls fn for each node.
// If fn returns false, the children of that node are skipped.
func Walk(node Node, fn func(node Node) bool) {
	if node == nil || isNilNode(node) {
		return
	}
	if !fn(node) {
		return
	}
	walkChildren(node, fn)
}

func walkChildren(node Node, fn func(node Node) bool) {
	switch n := node.(type) {
	case *SelectStatement:
		walkQuery(n.Query, fn)
	case *InsertStatement:
		walkQuery(n.Query, fn)
	case *UpdateStatement:
		for _, a := range n.Assignments {
			Walk(a, fn)
		}
		walkExpr(n.Where, fn)
	case *DeleteStatement:
		walkExpr(n.Where, fn)
	case *Assignment:
		walkExpr(n.Value, fn)

	case *QuerySpec:
		if n.Select != nil {
			Walk(n.Select, fn)
		}
		if n.From != nil {
			Walk(n.From, fn)
		}
		walkExpr(n.Where, fn)
		for _, s := range n.OrderBy {
			Walk(s, fn)
		}
	case *SelectClause:
		for _, item := range n.Items {
			Walk(item, fn)
		}
	case *SelectItem:
		walkExpr(n.Expr, fn)
	case *SortSpec:
		walkExpr(n.Expr, fn)
	case *FromClause:
		for _, s := range n.Spaces {
			Walk(s, fn)
		}
	case *FromElementSpace:
		Walk(n.Root, fn)
		for _, j := range n.Joins {
			Walk(j, fn)
		}
	case *QualifiedJoin:
		Walk(n.Path, fn)
		walkExpr(n.On, fn)

	case *IndexedPath:
		Walk(n.Collection, fn)
		walkExpr(n.Index, fn)
	case *TreatExpr:
		Walk(n.Path, fn)
	case *TypeExpr:
		Walk(n.Path, fn)
	case *BinaryExpr:
		walkExpr(n.Left, fn)
		walkExpr(n.Right, fn)
	case *UnaryExpr:
		walkExpr(n.Operand, fn)
	case *FuncCall:
		for _, a := range n.Args {
			walkExpr(a, fn)
		}
	case *SubqueryExpr:
		walkQuery(n.Query, fn)
	case *DynamicInstantiation:
		for _, a := range n.Args {
			Walk(a, fn)
		}
	case *InstantiationArg:
		walkExpr(n.Expr, fn)
	case *ComparisonExpr:
		walkExpr(n.Left, fn)
		walkExpr(n.Right, fn)
	case *LogicalExpr:
		walkExpr(n.Left, fn)
		walkExpr(n.Right, fn)
	case *NotExpr:
		walkExpr(n.Expr, fn)
	case *IsNullExpr:
		walkExpr(n.Expr, fn)
	case *InExpr:
		walkExpr(n.Expr, fn)
		for _, e := range n.List {
			walkExpr(e, fn)
		}
		walkQuery(n.Query, fn)
	case *BetweenExpr:
		walkExpr(n.Expr, fn)
		walkExpr(n.Low, fn)
		walkExpr(n.High, fn)
	case *LikeExpr:
		walkExpr(n.Expr, fn)
		walkExpr(n.Pattern, fn)
		walkExpr(n.Escape, fn)
	case *ExistsExpr:
		walkQuery(n.Query, fn)
	}
}

func walkExpr(e Expr, fn func(Node) bool) {
	if e != nil {
		Walk(e, fn)
	}
}

func walkQuery(q *QuerySpec, fn func(Node) bool) {
	if q != nil {
		Walk(q, fn)
	}
}

// isNilNode reports whether node holds a typed nil pointer.
func isNilNode(node Node) bool {
	switch n := node.(type) {
	case *QuerySpec:
		return n == nil
	case *SelectClause:
		return n == nil
	case *FromClause:
		return n == nil
	case *RootEntity:
		return n == nil
	case *DottedPath:
		return n == nil
	}
	return false
}

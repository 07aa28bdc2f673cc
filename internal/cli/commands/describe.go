package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapql/pkg/compiler"
	"github.com/leapstack-labs/leapql/pkg/sqlast"
)

// compiledView is the JSON form of a compiled query.
type compiledView struct {
	Name       string          `json:"name"`
	Dialect    string          `json:"dialect"`
	SQL        string          `json:"sql"`
	Parameters []parameterView `json:"parameters"`
	Returns    []returnView    `json:"returns"`
}

type parameterView struct {
	Placeholder int    `json:"placeholder"`
	Label       string `json:"label"`
	SQLType     string `json:"sqlType,omitempty"`
}

type returnView struct {
	Kind       string          `json:"kind"`
	Alias      string          `json:"alias,omitempty"`
	Entity     string          `json:"entity,omitempty"`
	Target     string          `json:"target,omitempty"`
	Positions  []int           `json:"positions,omitempty"`
	Attributes []attributeView `json:"attributes,omitempty"`
	Fetches    []fetchView     `json:"fetches,omitempty"`
	Args       []returnView    `json:"args,omitempty"`
}

type attributeView struct {
	Name      string `json:"name"`
	Positions []int  `json:"positions"`
}

type fetchView struct {
	Attribute  string     `json:"attribute"`
	Collection bool       `json:"collection"`
	Entity     returnView `json:"entity"`
}

func describe(name string, res *compiler.Result) compiledView {
	v := compiledView{Name: name, Dialect: res.Dialect, SQL: res.SQL}
	for i, b := range res.Binders {
		v.Parameters = append(v.Parameters, parameterView{Placeholder: i + 1, Label: b.Label(), SQLType: b.SQLType})
	}
	for _, r := range res.Returns {
		v.Returns = append(v.Returns, describeReturn(r))
	}
	return v
}

func describeReturn(r sqlast.Return) returnView {
	switch v := r.(type) {
	case *sqlast.ScalarReturn:
		return returnView{Kind: "scalar", Alias: v.Alias, Positions: []int{v.Position}}
	case *sqlast.CompositeReturn:
		rv := returnView{Kind: "composite", Alias: v.Alias}
		rv.Attributes = attributeViews(v.Components)
		return rv
	case *sqlast.EntityReturn:
		return entityView(v)
	case *sqlast.DynamicInstantiationReturn:
		rv := returnView{Kind: "instantiation", Alias: v.Alias, Target: v.Target}
		for _, a := range v.Args {
			arg := describeReturn(a.Return)
			if a.Alias != "" {
				arg.Alias = a.Alias
			}
			rv.Args = append(rv.Args, arg)
		}
		return rv
	}
	return returnView{Kind: fmt.Sprintf("%T", r)}
}

func entityView(e *sqlast.EntityReturn) returnView {
	rv := returnView{Kind: "entity", Alias: e.Alias, Entity: e.Entity, Positions: e.IDPositions}
	rv.Attributes = attributeViews(e.Attributes)
	for _, f := range e.Fetches {
		rv.Fetches = append(rv.Fetches, fetchView{Attribute: f.Attribute, Collection: f.Collection, Entity: entityView(f.Entity)})
	}
	return rv
}

func attributeViews(attrs []*sqlast.AttributeReturn) []attributeView {
	views := make([]attributeView, len(attrs))
	for i, a := range attrs {
		views[i] = attributeView{Name: a.Name, Positions: a.Positions}
	}
	return views
}

// summary is a one-line description of a return for table output.
func (v returnView) summary() string {
	switch v.Kind {
	case "entity":
		var b strings.Builder
		fmt.Fprintf(&b, "%s id%v", v.Entity, v.Positions)
		for _, a := range v.Attributes {
			fmt.Fprintf(&b, " %s%v", a.Name, a.Positions)
		}
		for _, f := range v.Fetches {
			fmt.Fprintf(&b, " fetch %s(%s)", f.Attribute, f.Entity.summary())
		}
		return b.String()
	case "composite":
		parts := make([]string, len(v.Attributes))
		for i, a := range v.Attributes {
			parts[i] = fmt.Sprintf("%s%v", a.Name, a.Positions)
		}
		return strings.Join(parts, " ")
	case "instantiation":
		parts := make([]string, len(v.Args))
		for i, a := range v.Args {
			parts[i] = a.summary()
		}
		return fmt.Sprintf("new %s(%s)", v.Target, strings.Join(parts, ", "))
	}
	return fmt.Sprintf("%v", v.Positions)
}

// label names a return in result headers.
func (v returnView) label(i int) string {
	switch {
	case v.Alias != "":
		return v.Alias
	case v.Entity != "":
		return v.Entity
	}
	return fmt.Sprintf("col_%d", i)
}

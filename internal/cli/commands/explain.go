package commands

import (
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapql/internal/cli/output"
	"github.com/leapstack-labs/leapql/pkg/compiler"
	"github.com/leapstack-labs/leapql/pkg/sqlast"
	"github.com/leapstack-labs/leapql/pkg/sqm"
)

// NewExplainCommand creates the explain command.
func NewExplainCommand() *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "explain [query]",
		Short: "Show how a query is resolved",
		Long: `Compile a query and print its scope tree (scopes, from-element spaces,
from-elements and joins) followed by the SQL table spaces and table groups
generated for the top level query.`,
		Example: `  leapql explain -q "select e.name from Something s join s.entity e"`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if query == "" && len(args) == 1 {
				query = args[0]
			}
			return runExplain(cmd, query)
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Query text")
	return cmd
}

func runExplain(cmd *cobra.Command, query string) error {
	ctx := cmd.Context()
	r := GetRenderer(ctx)

	inputs, err := readQueries(query, nil)
	if err != nil {
		return err
	}
	c, _, err := newCompiler(GetConfig(ctx), GetLogger(ctx))
	if err != nil {
		return err
	}
	res, err := c.Compile(inputs[0].Text)
	if err != nil {
		return err
	}

	renderExplain(r, res)
	return nil
}

func renderExplain(r *output.Renderer, res *compiler.Result) {
	styles := r.Styles()

	r.Println(styles.Header1.Render("Scopes"))
	t := newTable(r)
	t.AppendHeader(table.Row{"Scope", "Space", "Alias", "Kind", "Entity", "Join", "Path", "Flags"})
	walkScopes(res.Semantic.RootScope(), "0", func(id string, space int, fe *sqm.FromElement) {
		t.AppendRow(table.Row{id, space, fe.Alias, fe.Kind, fe.EffectiveType().Name, joinLabel(fe), pathLabel(fe), flags(fe)})
	})
	t.Render()

	r.Println()
	r.Println(styles.Header1.Render("Table spaces"))
	t = newTable(r)
	t.AppendHeader(table.Row{"Space", "Group", "Table", "Alias", "Join"})
	for i, space := range res.Statement.Query.From.Spaces {
		appendGroup(t, i, space.Root, "")
		for _, j := range space.Joins {
			appendGroup(t, i, j.Group, j.Type.String())
		}
	}
	t.Render()

	r.Println()
	r.Println(styles.Header1.Render("SQL"))
	r.Println(res.SQL)
}

// walkScopes visits the from-elements of s and its children. Scope ids are
// dotted child indexes, e.g. 0.1 for the second subquery of the top level.
func walkScopes(s *sqm.Scope, id string, visit func(id string, space int, fe *sqm.FromElement)) {
	for i, space := range s.Spaces() {
		visit(id, i, space.Root())
		for _, j := range space.Joins() {
			visit(id, i, j)
		}
	}
	for i, child := range s.Children() {
		walkScopes(child, id+"."+strconv.Itoa(i), visit)
	}
}

func appendGroup(t table.Writer, space int, g *sqlast.TableGroup, join string) {
	t.AppendRow(table.Row{space, g.Source, g.Root.Table, g.Root.Alias, join})
	for _, tj := range g.Joins {
		t.AppendRow(table.Row{space, "", tj.Table.Table, tj.Table.Alias, tj.Type.String()})
	}
}

func joinLabel(fe *sqm.FromElement) string {
	switch fe.Kind {
	case sqm.RootKind, sqm.CrossJoinKind:
		return ""
	}
	label := fe.JoinType.String()
	if fe.Fetched {
		label += " FETCH"
	}
	return label
}

func pathLabel(fe *sqm.FromElement) string {
	if fe.Kind != sqm.AttributeJoinKind {
		return ""
	}
	return fe.Lhs.Alias + "." + fe.AttributePath
}

func flags(fe *sqm.FromElement) string {
	var f []string
	if fe.ImplicitAlias {
		f = append(f, "implicit alias")
	}
	if fe.Synthesized {
		f = append(f, "synthesized")
	}
	if fe.TreatedAs() != nil {
		f = append(f, "treated")
	}
	return strings.Join(f, ", ")
}

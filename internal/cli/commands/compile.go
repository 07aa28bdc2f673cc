package commands

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapql/internal/cli/output"
	"github.com/leapstack-labs/leapql/pkg/compiler"
)

// CompileOptions holds options for the compile command.
type CompileOptions struct {
	Query       string
	Files       []string
	Concurrency int
}

// NewCompileCommand creates the compile command.
func NewCompileCommand() *cobra.Command {
	opts := &CompileOptions{}

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile queries to SQL",
		Long: `Compile one or more queries against the domain mapping and print the SQL,
the parameter binders and the return descriptors.

Files are compiled concurrently, each in its own compilation.`,
		Example: `  leapql compile -q "select s.basic from Something s"
  leapql compile -f queries/a.hql -f queries/b.hql -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCompile(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "Query text")
	cmd.Flags().StringArrayVarP(&opts.Files, "file", "f", nil, "File containing one query (repeatable)")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", runtime.GOMAXPROCS(0), "Maximum number of concurrent compilations")

	return cmd
}

func runCompile(cmd *cobra.Command, opts *CompileOptions) error {
	ctx := cmd.Context()
	cfg := GetConfig(ctx)
	logger := GetLogger(ctx)
	r := GetRenderer(ctx)

	inputs, err := readQueries(opts.Query, opts.Files)
	if err != nil {
		return err
	}
	c, _, err := newCompiler(cfg, logger)
	if err != nil {
		return err
	}

	results, err := compileAll(ctx, c, inputs, opts.Concurrency)
	if err != nil {
		return err
	}
	logger.Debug("compiled queries", slog.Int("count", len(results)))

	views := make([]compiledView, len(results))
	for i, res := range results {
		views[i] = describe(inputs[i].Name, res)
	}

	if r.Mode() == output.ModeJSON {
		return r.JSON(views)
	}
	for i, v := range views {
		if i > 0 {
			r.Println()
		}
		renderCompiled(r, v, len(views) > 1)
	}
	return nil
}

// compileAll compiles inputs concurrently and returns results in input
// order. After the first failure, inputs that have not started yet are
// skipped; compilations already running finish before it returns.
func compileAll(ctx context.Context, c *compiler.Compiler, inputs []queryInput, concurrency int) ([]*compiler.Result, error) {
	results := make([]*compiler.Result, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, in := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := c.Compile(in.Text)
			if err != nil {
				return fmt.Errorf("%s: %w", in.Name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func renderCompiled(r *output.Renderer, v compiledView, withName bool) {
	styles := r.Styles()
	if withName {
		r.Println(styles.Header1.Render(v.Name))
	}
	r.Println(v.SQL)

	if len(v.Parameters) > 0 {
		r.Println()
		r.Println(styles.Header2.Render("Parameters"))
		t := newTable(r)
		t.AppendHeader(table.Row{"#", "Parameter", "Type"})
		for _, p := range v.Parameters {
			t.AppendRow(table.Row{p.Placeholder, p.Label, p.SQLType})
		}
		t.Render()
	}

	r.Println()
	r.Println(styles.Header2.Render("Returns"))
	t := newTable(r)
	t.AppendHeader(table.Row{"#", "Kind", "Alias", "Columns"})
	for i, ret := range v.Returns {
		t.AppendRow(table.Row{i, ret.Kind, ret.Alias, ret.summary()})
	}
	t.Render()
}

func newTable(r *output.Renderer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.SetStyle(table.StyleLight)
	return t
}

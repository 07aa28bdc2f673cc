package commands

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapql/internal/cli/output"
	"github.com/leapstack-labs/leapql/internal/config"
	"github.com/leapstack-labs/leapql/pkg/adapter"
	"github.com/leapstack-labs/leapql/pkg/compiler"
	"github.com/leapstack-labs/leapql/pkg/exec"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	Query  string
	File   string
	Params []string
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Compile and execute a query",
		Long: `Compile a query, connect to the configured target, bind the parameters
and print the results.

Named parameters are given as name=value, ordinal parameters as 1=value.
Values that parse as integers, floats or booleans are bound as such.`,
		Example: `  leapql run -q "select s.basic from Something s where s.id = :id" --param id=100
  leapql run -t prod -f report.hql -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runQuery(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "Query text")
	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "File containing the query")
	cmd.Flags().StringArrayVarP(&opts.Params, "param", "p", nil, "Parameter value as name=value (repeatable)")

	return cmd
}

func runQuery(cmd *cobra.Command, opts *RunOptions) error {
	ctx := cmd.Context()
	cfg := GetConfig(ctx)
	logger := GetLogger(ctx)

	var files []string
	if opts.File != "" {
		files = append(files, opts.File)
	}
	inputs, err := readQueries(opts.Query, files)
	if err != nil {
		return err
	}
	if len(inputs) > 1 {
		return fmt.Errorf("run takes a single query, use either -q or -f")
	}
	params, err := parseParams(opts.Params)
	if err != nil {
		return err
	}

	c, _, err := newCompiler(cfg, logger)
	if err != nil {
		return err
	}
	res, err := c.Compile(inputs[0].Text)
	if err != nil {
		return err
	}

	adp, err := connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = adp.Close() }()

	rows, err := exec.New(adp, logger).List(ctx, res, params)
	if err != nil {
		return err
	}
	return renderRows(GetRenderer(ctx), res, rows)
}

// connect opens the configured target through the adapter registry.
func connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (adapter.Adapter, error) {
	if cfg.Target == nil {
		return nil, fmt.Errorf("no target configured")
	}
	ac := cfg.Target.AdapterConfig()
	ac.Type = strings.ToLower(ac.Type)

	adp, err := adapter.NewAdapter(ac, logger)
	if err != nil {
		return nil, err
	}
	if err := adp.Connect(ctx, ac); err != nil {
		return nil, fmt.Errorf("failed to connect to %s target: %w", ac.Type, err)
	}
	return adp, nil
}

// parseParams parses name=value pairs. Values are typed as int64, float64
// or bool when they parse as one, otherwise they stay strings.
func parseParams(pairs []string) (exec.Params, error) {
	params := make(exec.Params, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		name = strings.TrimLeft(strings.TrimSpace(name), ":?")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q (expected name=value)", p)
		}
		params[name] = parseValue(value)
	}
	return params, nil
}

func parseValue(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}

func renderRows(r *output.Renderer, res *compiler.Result, rows []any) error {
	if r.Mode() == output.ModeJSON {
		if rows == nil {
			rows = []any{}
		}
		return r.JSON(rows)
	}

	header := make(table.Row, len(res.Returns))
	for i, ret := range res.Returns {
		header[i] = describeReturn(ret).label(i)
	}

	t := newTable(r)
	t.AppendHeader(header)
	for _, row := range rows {
		values := []any{row}
		if len(res.Returns) > 1 {
			values = row.([]any)
		}
		tr := make(table.Row, len(values))
		for i, v := range values {
			tr[i] = formatValue(v)
		}
		t.AppendRow(tr)
	}
	t.Render()
	r.Printf("(%d rows)\n", len(rows))
	return nil
}

// formatValue renders a result value for table output.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case *exec.EntityRecord:
		if x == nil {
			return "NULL"
		}
		return fmt.Sprintf("%s#%v%s", x.Entity, x.ID, formatMap(x.Attributes))
	case map[string]any:
		return formatMap(x)
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = formatValue(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return fmt.Sprintf("%v", v)
}

func formatMap(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + formatValue(m[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

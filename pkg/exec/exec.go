// Package exec runs compiled queries and turns result rows into values
// using the return descriptors produced by the compiler.
package exec

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/leapstack-labs/leapql/pkg/compiler"
	"github.com/leapstack-labs/leapql/pkg/core"
	"github.com/leapstack-labs/leapql/pkg/sqlast"
	"github.com/leapstack-labs/leapql/pkg/sqm"
)

// Querier runs SQL with positional arguments. Every adapter.Adapter is a Querier.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (*core.Rows, error)
}

// Params holds parameter values. Named parameters are keyed by name,
// ordinal parameters by their position, e.g. "1" for ?1.
type Params map[string]any

// Instantiator constructs a registered NEW target from its arguments.
// aliases holds the argument aliases, "" where none was given.
type Instantiator func(args []any, aliases []string) (any, error)

// Executor executes compiled queries.
type Executor struct {
	db     Querier
	logger *slog.Logger

	mu            sync.RWMutex
	instantiators map[string]Instantiator
}

// New creates an executor. A nil logger discards output.
func New(db Querier, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Executor{db: db, logger: logger, instantiators: make(map[string]Instantiator)}
}

// Register makes target available to NEW target(...) selections.
func (e *Executor) Register(target string, fn Instantiator) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.instantiators[target] = fn
}

func (e *Executor) instantiator(target string) (Instantiator, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	fn, ok := e.instantiators[target]
	return fn, ok
}

// Bind returns the argument list for binders, one value per placeholder.
func Bind(binders []*sqlast.ParameterBinder, params Params) ([]any, error) {
	args := make([]any, len(binders))
	for i, b := range binders {
		key := b.Name
		if key == "" {
			key = strconv.Itoa(b.Position)
		}
		v, ok := params[key]
		if !ok {
			return nil, fmt.Errorf("no value bound for parameter %s", b.Label())
		}
		args[i] = v
	}
	return args, nil
}

// List executes res and returns one element per result. A query with a
// single select item yields its values directly, otherwise each element
// is a []any with one entry per select item. Rows repeated by fetched
// collections are merged into one result.
func (e *Executor) List(ctx context.Context, res *compiler.Result, params Params) ([]any, error) {
	args, err := Bind(res.Binders, params)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("executing", slog.String("compilation", res.ID), slog.String("sql", res.SQL))
	rows, err := e.db.Query(ctx, res.SQL, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read result columns: %w", err)
	}

	merge := hasCollectionFetch(res.Returns)
	seen := make(map[string]int)
	var out []any

	for rows.Next() {
		row := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range row {
			ptrs[i] = &row[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for i, v := range row {
			if b, ok := v.([]byte); ok {
				row[i] = string(b)
			}
		}

		values := make([]any, len(res.Returns))
		for i, r := range res.Returns {
			if values[i], err = e.value(r, row); err != nil {
				return nil, err
			}
		}

		if merge {
			key := rowKey(res.Returns, values)
			if at, ok := seen[key]; ok {
				mergeRow(out[at], values)
				continue
			}
			seen[key] = len(out)
		}
		if len(values) == 1 {
			out = append(out, values[0])
		} else {
			out = append(out, values)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	e.logger.Debug("executed", slog.String("compilation", res.ID), slog.Int("results", len(out)))
	return out, nil
}

func (e *Executor) value(r sqlast.Return, row []any) (any, error) {
	switch v := r.(type) {
	case *sqlast.ScalarReturn:
		return row[v.Position], nil

	case *sqlast.EntityReturn:
		return entity(v, row), nil

	case *sqlast.CompositeReturn:
		m := make(map[string]any, len(v.Components))
		for _, c := range v.Components {
			setPath(m, c.Name, column(c.Positions, row))
		}
		return m, nil

	case *sqlast.DynamicInstantiationReturn:
		args := make([]any, len(v.Args))
		aliases := make([]string, len(v.Args))
		for i, a := range v.Args {
			val, err := e.value(a.Return, row)
			if err != nil {
				return nil, err
			}
			args[i], aliases[i] = val, a.Alias
		}
		switch v.Target {
		case sqm.InstantiateList:
			return args, nil
		case sqm.InstantiateMap:
			m := make(map[string]any, len(args))
			for i, a := range aliases {
				m[a] = args[i]
			}
			return m, nil
		}
		fn, ok := e.instantiator(v.Target)
		if !ok {
			return nil, fmt.Errorf("no instantiator registered for %q", v.Target)
		}
		return fn(args, aliases)
	}
	return nil, fmt.Errorf("unexpected return %T", r)
}

// column reads a single or multi-column value.
func column(positions []int, row []any) any {
	if len(positions) == 1 {
		return row[positions[0]]
	}
	vals := make([]any, len(positions))
	allNull := true
	for i, p := range positions {
		vals[i] = row[p]
		if vals[i] != nil {
			allNull = false
		}
	}
	if allNull {
		return nil
	}
	return vals
}

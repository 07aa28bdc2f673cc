// Package compiler runs the full pipeline from query text to rendered SQL:
// parse, index, build, generate and render.
//
// A Compiler is safe for concurrent use. Every call to Compile works on its
// own compilation context.
package compiler

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/leapstack-labs/leapql/pkg/dialect"
	"github.com/leapstack-labs/leapql/pkg/domain"
	"github.com/leapstack-labs/leapql/pkg/hql"
	"github.com/leapstack-labs/leapql/pkg/sqlast"
	"github.com/leapstack-labs/leapql/pkg/sqlgen"
	"github.com/leapstack-labs/leapql/pkg/sqm"
)

// Result is one compiled query.
type Result struct {
	// ID identifies the compilation in log records.
	ID      string
	Query   string
	Dialect string
	SQL     string
	// Binders has one entry per placeholder, in placeholder order.
	Binders []*sqlast.ParameterBinder
	// Returns has one entry per select item of the query.
	Returns []sqlast.Return

	// Semantic is the compilation context holding the scope tree.
	Semantic *sqm.Context
	// Statement is the generated SQL tree.
	Statement *sqlast.SelectStatement
}

// Compiler compiles queries against one domain model for one dialect.
type Compiler struct {
	resolver domain.Resolver
	dialect  *dialect.Dialect
	logger   *slog.Logger
}

// New creates a compiler. A nil logger discards output.
func New(resolver domain.Resolver, d *dialect.Dialect, logger *slog.Logger) (*Compiler, error) {
	if resolver == nil {
		return nil, fmt.Errorf("domain resolver is required")
	}
	if d == nil {
		return nil, dialect.ErrDialectRequired
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Compiler{resolver: resolver, dialect: d, logger: logger}, nil
}

// Dialect returns the dialect queries are rendered in.
func (c *Compiler) Dialect() *dialect.Dialect { return c.dialect }

// Compile compiles one query. The first error aborts the compilation.
func (c *Compiler) Compile(query string) (*Result, error) {
	id := uuid.NewString()
	logger := c.logger.With(slog.String("compilation", id))

	res, err := c.compile(id, query, logger)
	if err != nil {
		logger.Debug("compilation failed", slog.String("query", query), slog.String("err", err.Error()))
		return nil, err
	}
	return res, nil
}

func (c *Compiler) compile(id, query string, logger *slog.Logger) (*Result, error) {
	stmt, err := hql.Parse(query)
	if err != nil {
		return nil, err
	}

	sc := sqm.NewContext(c.resolver, logger)
	logger.Debug("compiling", slog.String("phase", "index"), slog.String("query", query))
	if _, err := sc.Index(stmt); err != nil {
		return nil, err
	}

	logger.Debug("compiling", slog.String("phase", "build"))
	tree, err := sc.Build(stmt)
	if err != nil {
		return nil, err
	}

	logger.Debug("compiling", slog.String("phase", "generate"))
	out, err := sqlgen.New(logger).Generate(tree)
	if err != nil {
		return nil, err
	}

	logger.Debug("compiling", slog.String("phase", "render"), slog.String("dialect", c.dialect.Name))
	rendered, err := sqlast.Render(out, c.dialect)
	if err != nil {
		return nil, err
	}

	return &Result{
		ID:        id,
		Query:     query,
		Dialect:   c.dialect.Name,
		SQL:       rendered.SQL,
		Binders:   rendered.Binders,
		Returns:   out.Returns,
		Semantic:  sc,
		Statement: out,
	}, nil
}

// Compile compiles query against resolver, rendering for d.
func Compile(query string, resolver domain.Resolver, d *dialect.Dialect, logger *slog.Logger) (*Result, error) {
	c, err := New(resolver, d, logger)
	if err != nil {
		return nil, err
	}
	return c.Compile(query)
}

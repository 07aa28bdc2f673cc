package duckdb

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/leapql/pkg/adapter"
	duckdialect "github.com/leapstack-labs/leapql/pkg/dialects/duckdb"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// Adapter implements the adapter.Adapter interface for DuckDB.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new DuckDB adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger, SQLDialect: duckdialect.DuckDB},
	}
}

// Connect establishes a connection to DuckDB and applies the session
// parameters from cfg.Options.
// Use ":memory:" as the path for an in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	path := cfg.Path
	if path == ":memory:" {
		path = ""
	}

	a.Logger.Debug("connecting to duckdb", slog.String("path", cfg.Path))
	if err := a.Open(ctx, "duckdb", path, cfg); err != nil {
		return err
	}
	if path == "" {
		a.DB.SetMaxOpenConns(1)
	}

	for _, stmt := range ParseParams(cfg.Options).Statements() {
		if err := a.Exec(ctx, stmt); err != nil {
			_ = a.Close()
			a.DB = nil
			return err
		}
	}
	return nil
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)

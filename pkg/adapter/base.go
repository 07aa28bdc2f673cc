package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapql/pkg/core"
	"github.com/leapstack-labs/leapql/pkg/dialect"
)

// BaseSQLAdapter provides common database/sql functionality for adapters.
// Embed this struct in concrete adapter implementations to get standard
// Close, Exec, Query and Dialect implementations.
type BaseSQLAdapter struct {
	DB         *sql.DB
	Cfg        core.AdapterConfig
	Logger     *slog.Logger
	SQLDialect *dialect.Dialect
}

// Open opens driverName with dsn, pings it and stores the handle.
func (b *BaseSQLAdapter) Open(ctx context.Context, driverName, dsn string, cfg core.AdapterConfig) error {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return fmt.Errorf("failed to open %s connection: %w", driverName, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping %s: %w", driverName, err)
	}
	b.DB = db
	b.Cfg = cfg
	return nil
}

// Close closes the database connection.
func (b *BaseSQLAdapter) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing database connection")
		}
		return b.DB.Close()
	}
	return nil
}

// Exec executes a SQL statement that doesn't return rows.
func (b *BaseSQLAdapter) Exec(ctx context.Context, sqlStr string, args ...any) error {
	if b.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	_, err := b.DB.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// Query executes a SQL statement that returns rows.
func (b *BaseSQLAdapter) Query(ctx context.Context, sqlStr string, args ...any) (*core.Rows, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	if b.Logger != nil {
		b.Logger.Debug("executing query", slog.String("sql", sqlStr), slog.Int("args", len(args)))
	}
	//nolint:rowserrcheck // rows.Err() must be checked by caller after iteration completes
	rows, err := b.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return &core.Rows{Rows: rows}, nil
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}

// Dialect returns the adapter's SQL dialect.
func (b *BaseSQLAdapter) Dialect() *dialect.Dialect {
	return b.SQLDialect
}

// DialectConfig returns the configuration of the adapter's dialect.
func (b *BaseSQLAdapter) DialectConfig() *core.DialectConfig {
	if b.SQLDialect == nil {
		return nil
	}
	return b.SQLDialect.Config()
}

package sqlite

import (
	"context"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"github.com/leapstack-labs/leapql/pkg/adapter"
	sqlitedialect "github.com/leapstack-labs/leapql/pkg/dialects/sqlite"

	_ "modernc.org/sqlite" // sqlite driver
)

// Adapter implements the adapter.Adapter interface for SQLite.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger, SQLDialect: sqlitedialect.SQLite},
	}
}

// Connect opens the database file at cfg.Path, or an in-memory database
// when no path is given.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	dsn := buildDSN(cfg)
	a.Logger.Debug("connecting to sqlite", slog.String("dsn", dsn))
	if err := a.Open(ctx, "sqlite", dsn, cfg); err != nil {
		return err
	}
	// Each connection of an in-memory database is a separate database.
	if cfg.Path == "" || cfg.Path == ":memory:" {
		a.DB.SetMaxOpenConns(1)
	}
	return nil
}

// buildDSN turns options into _pragma parameters, e.g. foreign_keys=1
// becomes _pragma=foreign_keys(1).
func buildDSN(cfg adapter.Config) string {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}
	if len(cfg.Options) == 0 {
		return path
	}

	keys := make([]string, 0, len(cfg.Options))
	for k := range cfg.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	params := make([]string, 0, len(keys))
	for _, k := range keys {
		params = append(params, "_pragma="+url.QueryEscape(k+"("+cfg.Options[k]+")"))
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return "file:" + strings.TrimPrefix(path, "file:") + sep + strings.Join(params, "&")
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)

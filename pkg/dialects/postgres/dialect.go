// Package postgres provides the PostgreSQL SQL dialect definition.
// This package is pure Go with no database driver dependencies.
package postgres

import (
	"github.com/leapstack-labs/leapql/pkg/core"
	"github.com/leapstack-labs/leapql/pkg/dialect"
	"github.com/leapstack-labs/leapql/pkg/dialects/ansi"
)

func init() {
	dialect.Register(Postgres)
}

// Config is the PostgreSQL dialect configuration.
var Config = &core.DialectConfig{
	Name:            "postgres",
	DefaultSchema:   "public",
	Placeholder:     core.PlaceholderDollar,
	BooleanLiterals: true,
	Identifiers: core.IdentifierConfig{
		Quote:    `"`,
		QuoteEnd: `"`,
		Escape:   `""`,
	},
}

// postgresReservedWords contains common PostgreSQL reserved words on top of
// the ANSI list. For a complete list, use pg_get_keywords() at runtime.
var postgresReservedWords = []string{
	"analyse", "analyze", "array", "asymmetric", "authorization", "binary",
	"both", "collate", "concurrently", "current_catalog", "current_date",
	"current_role", "current_schema", "current_time", "current_timestamp",
	"current_user", "deferrable", "do", "freeze", "ilike", "index",
	"initially", "isnull", "lateral", "leading", "limit", "localtime",
	"localtimestamp", "notnull", "offset", "only", "overlaps", "placing",
	"returning", "session_user", "similar", "symmetric", "trailing",
	"variadic", "verbose", "window",
}

// Postgres is the PostgreSQL dialect.
var Postgres = dialect.New(Config).
	ReservedWords(ansi.ReservedWords...).
	ReservedWords(postgresReservedWords...).
	Functions(map[string]string{
		"locate": "strpos",
	}).
	Build()

// Package duckdb provides the DuckDB SQL dialect definition.
// This package is pure Go with no database driver dependencies.
package duckdb

import (
	"github.com/leapstack-labs/leapql/pkg/core"
	"github.com/leapstack-labs/leapql/pkg/dialect"
	"github.com/leapstack-labs/leapql/pkg/dialects/ansi"
)

func init() {
	dialect.Register(DuckDB)
}

// Config is the DuckDB dialect configuration.
var Config = &core.DialectConfig{
	Name:            "duckdb",
	DefaultSchema:   "main",
	Placeholder:     core.PlaceholderQuestion,
	BooleanLiterals: true,
	Identifiers: core.IdentifierConfig{
		Quote:    `"`,
		QuoteEnd: `"`,
		Escape:   `""`,
	},
}

// DuckDB is the DuckDB dialect.
var DuckDB = dialect.New(Config).
	ReservedWords(ansi.ReservedWords...).
	ReservedWords("pivot", "unpivot", "qualify", "limit", "offset", "window", "lateral").
	Functions(map[string]string{
		"locate": "strpos",
	}).
	Build()

// Package sqlite provides the SQLite SQL dialect definition.
// This package is pure Go with no database driver dependencies.
package sqlite

import (
	"github.com/leapstack-labs/leapql/pkg/core"
	"github.com/leapstack-labs/leapql/pkg/dialect"
	"github.com/leapstack-labs/leapql/pkg/dialects/ansi"
)

func init() {
	dialect.Register(SQLite)
}

// Config is the SQLite dialect configuration. SQLite has no boolean type;
// booleans are stored as integers.
var Config = &core.DialectConfig{
	Name:          "sqlite",
	DefaultSchema: "main",
	Placeholder:   core.PlaceholderQuestion,
	Identifiers: core.IdentifierConfig{
		Quote:    `"`,
		QuoteEnd: `"`,
		Escape:   `""`,
	},
}

// SQLite is the SQLite dialect.
var SQLite = dialect.New(Config).
	ReservedWords(ansi.ReservedWords...).
	ReservedWords("abort", "autoincrement", "glob", "index", "limit", "offset", "pragma", "regexp", "vacuum").
	Functions(map[string]string{
		"locate":    "instr",
		"substring": "substr",
	}).
	Build()

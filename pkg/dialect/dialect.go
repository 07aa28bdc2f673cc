// Package dialect provides SQL dialect configuration for rendering compiled
// queries: identifier quoting, parameter placeholders, boolean literals and
// function name mapping.
//
// Concrete dialects are registered from pkg/dialects/*/ packages.
package dialect

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapql/pkg/core"
)

// Dialect represents a SQL dialect configuration.
type Dialect struct {
	Name        string
	Identifiers core.IdentifierConfig

	// Database-specific settings
	DefaultSchema   string                // Default schema name ("main" for DuckDB, "public" for Postgres)
	Placeholder     core.PlaceholderStyle // How to format query parameters
	BooleanLiterals bool                  // true/false keywords instead of 1/0

	reservedWords map[string]struct{} // Words that need quoting as identifiers
	functions     map[string]string   // Query function name -> SQL function name
}

// Builder assembles a Dialect from its static configuration.
type Builder struct {
	d *Dialect
}

// New starts a dialect from cfg.
func New(cfg *core.DialectConfig) *Builder {
	return &Builder{d: &Dialect{
		Name:            cfg.Name,
		Identifiers:     cfg.Identifiers,
		DefaultSchema:   cfg.DefaultSchema,
		Placeholder:     cfg.Placeholder,
		BooleanLiterals: cfg.BooleanLiterals,
		reservedWords:   make(map[string]struct{}),
		functions:       make(map[string]string),
	}}
}

// ReservedWords adds words that must be quoted when used as identifiers.
func (b *Builder) ReservedWords(words ...string) *Builder {
	for _, w := range words {
		b.d.reservedWords[strings.ToLower(w)] = struct{}{}
	}
	return b
}

// Functions maps query language function names to the dialect's names.
func (b *Builder) Functions(m map[string]string) *Builder {
	for k, v := range m {
		b.d.functions[strings.ToLower(k)] = v
	}
	return b
}

// Build returns the finished dialect.
func (b *Builder) Build() *Dialect {
	return b.d
}

// Config returns the pure data configuration for this dialect.
func (d *Dialect) Config() *core.DialectConfig {
	return &core.DialectConfig{
		Name:            d.Name,
		Identifiers:     d.Identifiers,
		DefaultSchema:   d.DefaultSchema,
		Placeholder:     d.Placeholder,
		BooleanLiterals: d.BooleanLiterals,
	}
}

// FormatPlaceholder returns a placeholder for the given parameter index (1-based).
// Returns "?" for PlaceholderQuestion style, "$1", "$2" etc. for PlaceholderDollar style.
func (d *Dialect) FormatPlaceholder(index int) string {
	switch d.Placeholder {
	case core.PlaceholderDollar:
		return "$" + strconv.Itoa(index)
	default: // PlaceholderQuestion
		return "?"
	}
}

// FormatBoolean renders a boolean literal.
func (d *Dialect) FormatBoolean(v bool) string {
	switch {
	case d.BooleanLiterals && v:
		return "true"
	case d.BooleanLiterals:
		return "false"
	case v:
		return "1"
	}
	return "0"
}

// FunctionName returns the SQL name of a query language function.
func (d *Dialect) FunctionName(name string) string {
	if mapped, ok := d.functions[strings.ToLower(name)]; ok {
		return mapped
	}
	return name
}

// IsReservedWord returns true if the word needs quoting when used as an identifier.
func (d *Dialect) IsReservedWord(word string) bool {
	_, ok := d.reservedWords[strings.ToLower(word)]
	return ok
}

// QuoteIdentifier quotes an identifier using the dialect's quote characters.
func (d *Dialect) QuoteIdentifier(name string) string {
	// Escape any existing quote end characters in the name (e.g., ] -> ]])
	escaped := strings.ReplaceAll(name, d.Identifiers.QuoteEnd, d.Identifiers.Escape)
	return d.Identifiers.Quote + escaped + d.Identifiers.QuoteEnd
}

// QuoteIdentifierIfNeeded quotes an identifier only if it's a reserved word.
func (d *Dialect) QuoteIdentifierIfNeeded(name string) string {
	if d.IsReservedWord(name) {
		return d.QuoteIdentifier(name)
	}
	return name
}

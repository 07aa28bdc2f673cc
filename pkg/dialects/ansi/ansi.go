// Package ansi provides the base ANSI SQL dialect.
//
// The reserved word list is shared by the other dialects, which extend it
// with their own words.
package ansi

import (
	"github.com/leapstack-labs/leapql/pkg/core"
	"github.com/leapstack-labs/leapql/pkg/dialect"
)

func init() {
	dialect.Register(ANSI)
}

// Config is the ANSI dialect configuration.
var Config = &core.DialectConfig{
	Name:            "ansi",
	Placeholder:     core.PlaceholderQuestion,
	BooleanLiterals: true,
	Identifiers: core.IdentifierConfig{
		Quote:    `"`,
		QuoteEnd: `"`,
		Escape:   `""`,
	},
}

// ReservedWords are SQL:2016 reserved words that commonly collide with
// column and table names.
var ReservedWords = []string{
	"all", "and", "any", "as", "asc", "between", "by", "case", "cast", "check",
	"column", "constraint", "create", "cross", "current", "default", "delete",
	"desc", "distinct", "drop", "else", "end", "except", "exists", "false",
	"fetch", "for", "foreign", "from", "full", "grant", "group", "having", "in",
	"inner", "insert", "intersect", "into", "is", "join", "left", "like",
	"natural", "not", "null", "of", "on", "or", "order", "outer", "primary",
	"references", "right", "select", "set", "some", "table", "then", "to",
	"true", "union", "unique", "update", "user", "using", "value", "values",
	"when", "where", "with",
}

// ANSI is the base ANSI SQL dialect.
var ANSI = dialect.New(Config).
	ReservedWords(ReservedWords...).
	Functions(map[string]string{
		"locate": "position",
		"length": "char_length",
	}).
	Build()

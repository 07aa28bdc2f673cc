// Package adapter provides the database adapter contract and registry used
// to execute compiled queries.
//
// Concrete adapter implementations are in pkg/adapters/ subdirectories and
// register themselves from init().
package adapter

import (
	"github.com/leapstack-labs/leapql/pkg/core"
	"github.com/leapstack-labs/leapql/pkg/dialect"
)

type (
	// Config is an alias for core.AdapterConfig.
	Config = core.AdapterConfig

	// Rows is an alias for core.Rows.
	Rows = core.Rows
)

// Adapter is a database connection able to run rendered SQL.
type Adapter interface {
	core.Adapter

	// Dialect returns the dialect compiled queries must be rendered in to
	// run on this adapter.
	Dialect() *dialect.Dialect
}

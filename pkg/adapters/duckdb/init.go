// Package duckdb provides a DuckDB database adapter for LeapQL.
//
// This file registers the DuckDB adapter with the adapter registry.
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/leapql/pkg/adapters/duckdb"
package duckdb

import (
	"log/slog"

	"github.com/leapstack-labs/leapql/pkg/adapter"
	duckdialect "github.com/leapstack-labs/leapql/pkg/dialects/duckdb"
)

func init() {
	adapter.Register("duckdb", duckdialect.Config.Name, func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}

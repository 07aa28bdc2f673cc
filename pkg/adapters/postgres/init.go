// Package postgres provides a PostgreSQL database adapter for LeapQL.
//
// This file registers the PostgreSQL adapter with the adapter registry.
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/leapql/pkg/adapters/postgres"
package postgres

import (
	"log/slog"

	"github.com/leapstack-labs/leapql/pkg/adapter"
	pgdialect "github.com/leapstack-labs/leapql/pkg/dialects/postgres"
)

func init() {
	adapter.Register("postgres", pgdialect.Config.Name, func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}

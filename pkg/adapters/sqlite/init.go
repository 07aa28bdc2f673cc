// Package sqlite provides a SQLite database adapter for LeapQL, backed by
// the pure Go modernc.org/sqlite driver.
//
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/leapql/pkg/adapters/sqlite"
package sqlite

import (
	"log/slog"

	"github.com/leapstack-labs/leapql/pkg/adapter"
	sqlitedialect "github.com/leapstack-labs/leapql/pkg/dialects/sqlite"
)

func init() {
	adapter.Register("sqlite", sqlitedialect.Config.Name, func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}

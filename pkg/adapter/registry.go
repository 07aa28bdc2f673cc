package adapter

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/leapstack-labs/leapql/pkg/core"
)

// Factory builds an unconnected adapter.
type Factory func(*slog.Logger) Adapter

// registration pairs an adapter factory with the name of the SQL dialect
// its connections speak.
type registration struct {
	dialect string
	factory Factory
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]registration)
)

// Register adds an adapter under name, rendering queries with the dialect
// registered as dialectName. Names are case-insensitive. Called by adapter
// packages in their init() functions.
func Register(name, dialectName string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(name)] = registration{dialect: dialectName, factory: factory}
}

func lookup(name string) (registration, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	reg, ok := registry[strings.ToLower(name)]
	return reg, ok
}

// Get retrieves an adapter factory by name.
func Get(name string) (Factory, bool) {
	reg, ok := lookup(name)
	return reg.factory, ok
}

// DialectFor returns the dialect name the adapter registered with.
func DialectFor(name string) (string, bool) {
	reg, ok := lookup(name)
	return reg.dialect, ok
}

// NewAdapter creates an unconnected adapter for cfg.Type. A nil logger
// discards output.
func NewAdapter(cfg core.AdapterConfig, logger *slog.Logger) (Adapter, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("adapter type not specified")
	}
	reg, ok := lookup(cfg.Type)
	if !ok {
		return nil, &UnknownAdapterError{Type: cfg.Type, Available: ListAdapters()}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return reg.factory(logger.With(slog.String("adapter", cfg.Type))), nil
}

// ListAdapters returns the registered adapter names, sorted.
func ListAdapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered reports whether an adapter is registered under name.
func IsRegistered(name string) bool {
	_, ok := lookup(name)
	return ok
}

// UnknownAdapterError is returned for a target type no adapter serves.
type UnknownAdapterError struct {
	Type      string
	Available []string
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("unknown target type %q (available: %s); check target.type in leapql.yaml",
		e.Type, strings.Join(e.Available, ", "))
}

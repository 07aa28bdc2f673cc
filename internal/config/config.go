// Package config loads leapql configuration from defaults, leapql.yaml,
// LEAPQL_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapql/pkg/adapter"
	"github.com/leapstack-labs/leapql/pkg/dialect"
)

// Default configuration values.
const (
	DefaultDialect   = "sqlite"
	DefaultOutput    = "text"
	DefaultCacheSize = 256
	DefaultTarget    = "sqlite"
)

// Output formats.
const (
	OutputText = "text"
	OutputJSON = "json"
)

// TargetConfig holds database target configuration.
type TargetConfig struct {
	Type     string            `koanf:"type"`
	Database string            `koanf:"database"` // file path or database name
	Host     string            `koanf:"host"`
	Port     int               `koanf:"port"`
	User     string            `koanf:"user"`
	Password string            `koanf:"password"`
	Schema   string            `koanf:"schema"`
	Options  map[string]string `koanf:"options"`
}

// AdapterConfig converts the target into an adapter configuration.
func (t *TargetConfig) AdapterConfig() adapter.Config {
	return adapter.Config{
		Type:     t.Type,
		Path:     t.Database,
		Database: t.Database,
		Host:     t.Host,
		Port:     t.Port,
		Username: t.User,
		Password: t.Password,
		Schema:   t.Schema,
		Options:  t.Options,
	}
}

// EnvConfig holds environment-specific overrides.
type EnvConfig struct {
	Target *TargetConfig `koanf:"target"`
}

// Config holds all leapql configuration options.
type Config struct {
	Mapping      string               `koanf:"mapping"`
	Dialect      string               `koanf:"dialect"`
	Verbose      bool                 `koanf:"verbose"`
	Output       string               `koanf:"output"`
	CacheSize    int                  `koanf:"cache_size"`
	Target       *TargetConfig        `koanf:"target"`
	Environments map[string]EnvConfig `koanf:"environments"`

	// File is the config file that was loaded, empty if none.
	File string `koanf:"-"`
}

// Validate checks the dialect, output format, cache size and target type.
func (c *Config) Validate() error {
	var errs []error

	if _, ok := dialect.Get(strings.ToLower(c.Dialect)); !ok {
		errs = append(errs, fmt.Errorf("unknown dialect %q (available: %s)", c.Dialect, strings.Join(dialect.List(), ", ")))
	}
	switch c.Output {
	case OutputText, OutputJSON:
	default:
		errs = append(errs, fmt.Errorf("unknown output format %q (expected text or json)", c.Output))
	}
	if c.CacheSize <= 0 {
		errs = append(errs, fmt.Errorf("cache_size must be positive, got %d", c.CacheSize))
	}
	if c.Target != nil {
		if err := c.Target.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("invalid target configuration: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Validate checks that the target type names a registered adapter.
func (t *TargetConfig) Validate() error {
	if t.Type == "" {
		return fmt.Errorf("target type is required")
	}
	if !adapter.IsRegistered(strings.ToLower(t.Type)) {
		return &adapter.UnknownAdapterError{
			Type:      t.Type,
			Available: adapter.ListAdapters(),
		}
	}
	return nil
}

// MergeTargetConfig merges two target configs, with override taking precedence.
func MergeTargetConfig(base, override *TargetConfig) *TargetConfig {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	merged := *base
	merged.Options = make(map[string]string, len(base.Options)+len(override.Options))
	for k, v := range base.Options {
		merged.Options[k] = v
	}

	if override.Type != "" {
		merged.Type = override.Type
	}
	if override.Database != "" {
		merged.Database = override.Database
	}
	if override.Host != "" {
		merged.Host = override.Host
	}
	if override.Port != 0 {
		merged.Port = override.Port
	}
	if override.User != "" {
		merged.User = override.User
	}
	if override.Password != "" {
		merged.Password = override.Password
	}
	if override.Schema != "" {
		merged.Schema = override.Schema
	}
	for k, v := range override.Options {
		merged.Options[k] = v
	}
	return &merged
}

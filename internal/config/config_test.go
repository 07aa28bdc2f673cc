package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/leapstack-labs/leapql/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/leapql/pkg/adapters/sqlite"
	_ "github.com/leapstack-labs/leapql/pkg/dialects/ansi"
	_ "github.com/leapstack-labs/leapql/pkg/dialects/postgres"
	_ "github.com/leapstack-labs/leapql/pkg/dialects/sqlite"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "leapql.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir(), "", "", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultDialect, cfg.Dialect)
	assert.Equal(t, DefaultOutput, cfg.Output)
	assert.Equal(t, DefaultCacheSize, cfg.CacheSize)
	assert.False(t, cfg.Verbose)
	assert.Empty(t, cfg.File)
	require.NotNil(t, cfg.Target)
	assert.Equal(t, "sqlite", cfg.Target.Type)
}

func TestLoad_FileInDir(t *testing.T) {
	path := writeConfig(t, `mapping: model.yaml
dialect: Postgres
cache_size: 16
target:
  type: sqlite
  database: data/app.db
`)
	dir := filepath.Dir(path)

	cfg, err := Load(dir, "", "", nil)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.File)
	assert.Equal(t, "postgres", cfg.Dialect)
	assert.Equal(t, 16, cfg.CacheSize)
	assert.Equal(t, filepath.Join(dir, "model.yaml"), cfg.Mapping, "mapping resolves against the config file")
	assert.Equal(t, filepath.Join(dir, "data/app.db"), cfg.Target.Database)
}

func TestLoad_DialectFollowsTarget(t *testing.T) {
	path := writeConfig(t, `target:
  type: postgres
  host: localhost
environments:
  local:
    target:
      type: sqlite
      database: ":memory:"
`)

	cfg, err := Load("", path, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Dialect)

	cfg, err = Load("", path, "local", nil)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Dialect, "environment target picks the dialect")

	t.Setenv("LEAPQL_DIALECT", "ansi")
	cfg, err = Load("", path, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "ansi", cfg.Dialect, "explicit dialect wins")
}

func TestLoad_NetworkDatabaseNotResolved(t *testing.T) {
	path := writeConfig(t, `target:
  type: postgres
  database: analytics
  host: localhost
`)
	cfg, err := Load("", path, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "analytics", cfg.Target.Database)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeConfig(t, "dialect: ansi\noutput: text\n")

	t.Run("env overrides file", func(t *testing.T) {
		t.Setenv("LEAPQL_DIALECT", "postgres")
		cfg, err := Load("", path, "", nil)
		require.NoError(t, err)
		assert.Equal(t, "postgres", cfg.Dialect)
	})

	t.Run("flag overrides env", func(t *testing.T) {
		t.Setenv("LEAPQL_DIALECT", "postgres")
		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.String("dialect", "", "")
		require.NoError(t, flags.Set("dialect", "sqlite"))

		cfg, err := Load("", path, "", flags)
		require.NoError(t, err)
		assert.Equal(t, "sqlite", cfg.Dialect)
	})

	t.Run("unset flag falls back to env", func(t *testing.T) {
		t.Setenv("LEAPQL_DIALECT", "postgres")
		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.String("dialect", "ansi", "")

		cfg, err := Load("", path, "", flags)
		require.NoError(t, err)
		assert.Equal(t, "postgres", cfg.Dialect)
	})

	t.Run("nested env key", func(t *testing.T) {
		t.Setenv("LEAPQL_TARGET__SCHEMA", "reporting")
		t.Setenv("LEAPQL_CACHE_SIZE", "8")
		cfg, err := Load("", path, "", nil)
		require.NoError(t, err)
		assert.Equal(t, "reporting", cfg.Target.Schema)
		assert.Equal(t, 8, cfg.CacheSize)
	})

	t.Run("selector flags are not config keys", func(t *testing.T) {
		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.String("target", "", "")
		flags.Int("cache-size", 0, "")
		require.NoError(t, flags.Set("target", "dev"))
		require.NoError(t, flags.Set("cache-size", "4"))

		cfg, err := Load("", path, "", flags)
		require.NoError(t, err)
		assert.Equal(t, "sqlite", cfg.Target.Type)
		assert.Equal(t, 4, cfg.CacheSize)
	})
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("LEAPQL_TEST_PG_PASSWORD", "s3cret")
	path := writeConfig(t, `target:
  type: sqlite
  options:
    foreign_keys: "1"
environments:
  prod:
    target:
      type: postgres
      host: db.internal
      password: ${LEAPQL_TEST_PG_PASSWORD}
      options:
        sslmode: require
`)

	cfg, err := Load("", path, "prod", nil)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Target.Type)
	assert.Equal(t, "db.internal", cfg.Target.Host)
	assert.Equal(t, "s3cret", cfg.Target.Password)
	assert.Equal(t, map[string]string{"foreign_keys": "1", "sslmode": "require"}, cfg.Target.Options)

	_, err = Load("", path, "staging", nil)
	require.EqualError(t, err, `unknown environment "staging"`)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load("", filepath.Join(t.TempDir(), "nope.yaml"), "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{Dialect: "sqlite", Output: OutputText, CacheSize: 1, Target: &TargetConfig{Type: "sqlite"}}
	}

	tests := []struct {
		name      string
		mutate    func(*Config)
		errSubstr string
	}{
		{"valid", func(*Config) {}, ""},
		{"no target", func(c *Config) { c.Target = nil }, ""},
		{"unknown dialect", func(c *Config) { c.Dialect = "oracle" }, `unknown dialect "oracle"`},
		{"unknown output", func(c *Config) { c.Output = "xml" }, `unknown output format "xml"`},
		{"zero cache", func(c *Config) { c.CacheSize = 0 }, "cache_size must be positive"},
		{"empty target type", func(c *Config) { c.Target.Type = "" }, "target type is required"},
		{"unknown target", func(c *Config) { c.Target.Type = "mysql" }, `unknown target type "mysql"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errSubstr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestTargetConfig_ValidateCaseInsensitive(t *testing.T) {
	require.NoError(t, (&TargetConfig{Type: "SQLite"}).Validate())
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("LEAPQL_TEST_ONE", "value_one")

	tests := []struct {
		input    string
		expected string
	}{
		{"${LEAPQL_TEST_ONE}", "value_one"},
		{"user-${LEAPQL_TEST_ONE}", "user-value_one"},
		{"${LEAPQL_TEST_UNSET}", "${LEAPQL_TEST_UNSET}"},
		{"plain", "plain"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandEnvVars(tt.input))
		})
	}
}

func TestMergeTargetConfig(t *testing.T) {
	base := &TargetConfig{Type: "postgres", Host: "localhost", Port: 5432, Options: map[string]string{"a": "1"}}

	assert.Same(t, base, MergeTargetConfig(base, nil))
	assert.Same(t, base, MergeTargetConfig(nil, base))

	merged := MergeTargetConfig(base, &TargetConfig{Host: "remote", Options: map[string]string{"b": "2"}})
	assert.Equal(t, &TargetConfig{
		Type:    "postgres",
		Host:    "remote",
		Port:    5432,
		Options: map[string]string{"a": "1", "b": "2"},
	}, merged)
	assert.Equal(t, map[string]string{"a": "1"}, base.Options, "base is not modified")
}

func TestTargetConfig_AdapterConfig(t *testing.T) {
	tc := &TargetConfig{Type: "postgres", Database: "db", Host: "h", Port: 1, User: "u", Password: "p", Schema: "s"}
	ac := tc.AdapterConfig()
	assert.Equal(t, "postgres", ac.Type)
	assert.Equal(t, "db", ac.Database)
	assert.Equal(t, "u", ac.Username)
	assert.Equal(t, "s", ac.Schema)
}

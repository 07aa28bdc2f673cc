package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/leapql/pkg/adapter"
)

// Config file names, in lookup order.
var FileNames = []string{"leapql.yaml", "leapql.yml"}

// EnvPrefix prefixes environment variables. A double underscore separates
// nested keys: LEAPQL_TARGET__TYPE sets target.type.
const EnvPrefix = "LEAPQL_"

// selectorFlags choose what to load rather than carrying config values.
var selectorFlags = map[string]bool{"config": true, "target": true}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load loads configuration with precedence flags > env vars > config file > defaults.
// cfgFile may be empty, in which case leapql.yaml or leapql.yml in dir is
// used when present. environment selects an entry of environments whose
// target is merged over the base target. Only flags that were explicitly
// set are applied; flag names map to keys by replacing '-' with '_'. When
// no dialect is configured, the target adapter's dialect is used.
func Load(dir, cfgFile, environment string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]any{
		"verbose":     false,
		"output":      DefaultOutput,
		"cache_size":  DefaultCacheSize,
		"target.type": DefaultTarget,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	path := findConfigFile(dir, cfgFile)
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed || selectorFlags[f.Name] {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = path
	cfg.Dialect = strings.ToLower(cfg.Dialect)
	cfg.Output = strings.ToLower(cfg.Output)

	if environment != "" {
		envCfg, ok := cfg.Environments[environment]
		if !ok {
			return nil, fmt.Errorf("unknown environment %q", environment)
		}
		cfg.Target = MergeTargetConfig(cfg.Target, envCfg.Target)
	}

	if cfg.Dialect == "" {
		cfg.Dialect = targetDialect(cfg.Target)
	}

	base := dir
	if path != "" {
		base = filepath.Dir(path)
	}
	cfg.Mapping = resolvePathRelativeTo(cfg.Mapping, base)
	if cfg.Target != nil {
		expandTargetEnvVars(cfg.Target)
		if isFileTarget(cfg.Target.Type) && cfg.Target.Database != ":memory:" {
			cfg.Target.Database = resolvePathRelativeTo(cfg.Target.Database, base)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// targetDialect is the dialect of the target's adapter, or DefaultDialect
// when the target is unset or its adapter unknown.
func targetDialect(t *TargetConfig) string {
	if t != nil {
		if d, ok := adapter.DialectFor(t.Type); ok {
			return d
		}
	}
	return DefaultDialect
}

// findConfigFile returns explicit when set, otherwise the first config
// file name present in dir.
func findConfigFile(dir, explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range FileNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) || baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}

// expandEnvVars expands ${VAR} patterns. Unset variables are left as is.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if val, ok := os.LookupEnv(match[2 : len(match)-1]); ok {
			return val
		}
		return match
	})
}

// isFileTarget reports whether the target's database is a file path.
func isFileTarget(typ string) bool {
	switch strings.ToLower(typ) {
	case "sqlite", "duckdb":
		return true
	}
	return false
}

func expandTargetEnvVars(t *TargetConfig) {
	t.Password = expandEnvVars(t.Password)
	t.User = expandEnvVars(t.User)
	t.Host = expandEnvVars(t.Host)
}

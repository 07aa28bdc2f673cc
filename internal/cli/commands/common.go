package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/leapstack-labs/leapql/internal/config"
	"github.com/leapstack-labs/leapql/pkg/compiler"
	"github.com/leapstack-labs/leapql/pkg/dialect"
	"github.com/leapstack-labs/leapql/pkg/domain"
)

// newCompiler loads the configured mapping and creates a compiler for the
// configured dialect.
func newCompiler(cfg *config.Config, logger *slog.Logger) (*compiler.Compiler, *domain.Model, error) {
	if cfg.Mapping == "" {
		return nil, nil, fmt.Errorf("no domain mapping configured (set mapping in leapql.yaml or pass --mapping)")
	}
	model, err := domain.LoadMapping(cfg.Mapping)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load mapping %s: %w", cfg.Mapping, err)
	}
	d, err := dialect.Lookup(cfg.Dialect)
	if err != nil {
		return nil, nil, err
	}
	c, err := compiler.New(model, d, logger)
	if err != nil {
		return nil, nil, err
	}
	return c, model, nil
}

// queryInput is one query to compile, from a flag or a file.
type queryInput struct {
	Name string
	Text string
}

// readQueries collects the -q query and the contents of each file. A
// trailing semicolon is dropped.
func readQueries(query string, files []string) ([]queryInput, error) {
	var inputs []queryInput
	if query != "" {
		inputs = append(inputs, queryInput{Name: "query", Text: cleanQuery(query)})
	}
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read query file: %w", err)
		}
		inputs = append(inputs, queryInput{Name: f, Text: cleanQuery(string(data))})
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no query given (use -q or -f)")
	}
	return inputs, nil
}

func cleanQuery(s string) string {
	return strings.TrimSuffix(strings.TrimSpace(s), ";")
}

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapql/internal/cli/output"
	"github.com/leapstack-labs/leapql/internal/config"
	"github.com/leapstack-labs/leapql/pkg/domain"
	"github.com/leapstack-labs/leapql/pkg/exec"
	"github.com/leapstack-labs/leapql/pkg/plancache"
)

const (
	replPrompt     = "leapql> "
	replContPrompt = "   ...> "
)

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	var history string

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive query shell",
		Long: `Start an interactive shell. Queries end with a semicolon and are compiled
through the plan cache. Use .run to also execute them against the configured
target, and .param to bind parameter values.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runREPL(cmd, history)
		},
	}

	cmd.Flags().StringVar(&history, "history", "", "History file (default: none)")
	return cmd
}

func runREPL(cmd *cobra.Command, history string) error {
	ctx := cmd.Context()
	cfg := GetConfig(ctx)
	logger := GetLogger(ctx)

	c, model, err := newCompiler(cfg, logger)
	if err != nil {
		return err
	}
	cache, err := plancache.New(c, cfg.CacheSize)
	if err != nil {
		return err
	}

	session := newREPLSession(cache, GetRenderer(ctx), cfg, logger)
	defer session.Close()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     history,
		AutoComplete:    newEntityCompleter(model),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "LeapQL REPL (dialect: %s)\n", c.Dialect().Name)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			session.Reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if session.HandleLine(ctx, line) {
			return nil
		}
		if session.Pending() {
			rl.SetPrompt(replContPrompt)
		} else {
			rl.SetPrompt(replPrompt)
		}
	}
}

// replSession holds the state of one REPL: the statement being typed,
// bound parameters and the optional execution target.
type replSession struct {
	cache  *plancache.Cache
	r      *output.Renderer
	cfg    *config.Config
	logger *slog.Logger

	buf     strings.Builder
	params  exec.Params
	execute bool
	conn    exec.Querier
	closer  io.Closer

	// connect opens the target on first execution.
	connect func(ctx context.Context) (exec.Querier, io.Closer, error)
}

func newREPLSession(cache *plancache.Cache, r *output.Renderer, cfg *config.Config, logger *slog.Logger) *replSession {
	s := &replSession{cache: cache, r: r, cfg: cfg, logger: logger, params: exec.Params{}}
	s.connect = func(ctx context.Context) (exec.Querier, io.Closer, error) {
		adp, err := connect(ctx, s.cfg, s.logger)
		if err != nil {
			return nil, nil, err
		}
		return adp, adp, nil
	}
	return s
}

// Pending reports whether a statement is partially entered.
func (s *replSession) Pending() bool { return s.buf.Len() > 0 }

// Reset discards the partially entered statement.
func (s *replSession) Reset() { s.buf.Reset() }

// Close closes the target connection, if one was opened.
func (s *replSession) Close() {
	if s.closer != nil {
		_ = s.closer.Close()
		s.closer, s.conn = nil, nil
	}
}

// HandleLine processes one input line and reports whether to quit.
func (s *replSession) HandleLine(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !s.Pending() && strings.HasPrefix(line, ".") {
		return s.dotCommand(line)
	}

	s.buf.WriteString(line)
	if !strings.HasSuffix(line, ";") {
		s.buf.WriteString(" ")
		return false
	}
	query := cleanQuery(s.buf.String())
	s.buf.Reset()

	if err := s.evaluate(ctx, query); err != nil {
		s.r.Errorf("%v", err)
	}
	return false
}

func (s *replSession) evaluate(ctx context.Context, query string) error {
	res, err := s.cache.Compile(query)
	if err != nil {
		return err
	}
	if !s.execute {
		renderCompiled(s.r, describe("query", res), false)
		return nil
	}

	if s.conn == nil {
		conn, closer, err := s.connect(ctx)
		if err != nil {
			return err
		}
		s.conn, s.closer = conn, closer
	}
	rows, err := exec.New(s.conn, s.logger).List(ctx, res, s.params)
	if err != nil {
		return err
	}
	return renderRows(s.r, res, rows)
}

func (s *replSession) dotCommand(line string) bool {
	parts := strings.Fields(line)
	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit":
		return true

	case ".help":
		s.r.Println(replHelp)

	case ".run":
		s.execute = !s.execute
		state := "off"
		if s.execute {
			state = "on"
		}
		s.r.Printf("Execution %s\n", state)

	case ".param":
		if len(parts) == 1 {
			for _, k := range sortedKeys(s.params) {
				s.r.Printf("%s = %v\n", k, s.params[k])
			}
			return false
		}
		params, err := parseParams(parts[1:])
		if err != nil {
			s.r.Errorf("%v", err)
			return false
		}
		for k, v := range params {
			s.params[k] = v
		}

	case ".clear":
		s.params = exec.Params{}

	case ".stats":
		st := s.cache.Stats()
		s.r.Printf("plans: %d, hits: %d, misses: %d\n", st.Size, st.Hits, st.Misses)

	default:
		s.r.Errorf("unknown command %s (type .help for commands)", parts[0])
	}
	return false
}

const replHelp = `
Commands:
  .help               Show this help message
  .run                Toggle executing queries against the target
  .param name=value   Bind a parameter value (.param alone lists them)
  .clear              Remove all bound parameters
  .stats              Show plan cache statistics
  .quit / .exit       Exit the REPL

Queries must end with a semicolon (;).`

// newEntityCompleter completes dot-commands and entity names.
func newEntityCompleter(model *domain.Model) *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	for _, cmd := range []string{".help", ".run", ".param", ".clear", ".stats", ".quit"} {
		items = append(items, readline.PcItem(cmd))
	}
	for _, e := range model.Entities() {
		items = append(items, readline.PcItem(e.Name))
	}
	return readline.NewPrefixCompleter(items...)
}

func sortedKeys(m exec.Params) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

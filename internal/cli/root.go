// Package cli provides the command-line interface for LeapQL.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapql/internal/cli/commands"
	"github.com/leapstack-labs/leapql/internal/cli/output"
	"github.com/leapstack-labs/leapql/internal/config"

	// Registered dialects and database adapters.
	_ "github.com/leapstack-labs/leapql/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/leapql/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/leapql/pkg/adapters/sqlite"
	_ "github.com/leapstack-labs/leapql/pkg/dialects/ansi"
	_ "github.com/leapstack-labs/leapql/pkg/dialects/duckdb"
	_ "github.com/leapstack-labs/leapql/pkg/dialects/postgres"
	_ "github.com/leapstack-labs/leapql/pkg/dialects/sqlite"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var (
		cfgFile    string
		targetFlag string
	)

	rootCmd := &cobra.Command{
		Use:   "leapql",
		Short: "LeapQL - object query compiler",
		Long: `LeapQL compiles object queries written against a domain mapping into SQL
for a target dialect, and can execute them against a configured database.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			dir, err := os.Getwd()
			if err != nil {
				return err
			}
			cfg, err := config.Load(dir, cfgFile, targetFlag, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			logger := NewLogger(cmd, cfg.Verbose)
			if cfg.File != "" {
				logger.Debug("using config file", slog.String("path", cfg.File))
			}
			if targetFlag != "" {
				logger.Debug("using target", slog.String("environment", targetFlag))
			}

			ctx := commands.WithConfig(cmd.Context(), cfg)
			ctx = commands.WithLogger(ctx, logger)
			ctx = commands.WithRenderer(ctx, output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.Output)))
			cmd.SetContext(ctx)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./leapql.yaml)")
	rootCmd.PersistentFlags().StringVarP(&targetFlag, "target", "t", "", "Environment whose target to use (e.g., dev, prod)")
	rootCmd.PersistentFlags().StringP("mapping", "m", "", "Domain mapping file (.yaml, .yml or .toml)")
	rootCmd.PersistentFlags().StringP("dialect", "d", "", "SQL dialect (ansi|postgres|sqlite|duckdb)")
	rootCmd.PersistentFlags().Int("cache-size", 0, "Plan cache size for the REPL")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (text|json)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{config.OutputText, config.OutputJSON}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("dialect", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"ansi", "postgres", "sqlite", "duckdb"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewCompileCommand())
	rootCmd.AddCommand(commands.NewExplainCommand())
	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewREPLCommand())

	return rootCmd
}

// NewLogger builds the text logger used by commands, writing to the
// command's error stream.
func NewLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		styles := output.DefaultStyles()
		fmt.Fprintf(os.Stderr, "%s %v\n", styles.Error.Render("Error:"), err)
		return err
	}
	return nil
}

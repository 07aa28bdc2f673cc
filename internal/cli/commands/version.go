package commands

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapql/pkg/adapter"
	"github.com/leapstack-labs/leapql/pkg/dialect"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display LeapQL version, the registered dialects and the registered database adapters.`,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "LeapQL v%s (%s)\n", version, runtime.Version())
			_, _ = fmt.Fprintf(out, "Dialects: %s\n", strings.Join(dialect.List(), ", "))
			_, _ = fmt.Fprintf(out, "Adapters: %s\n", strings.Join(adapter.ListAdapters(), ", "))
		},
	}
}

package commands

import (
	"strings"

	"github.com/spf13/cobra"
	"go.trai.ch/cargo-metadata-mcp/internal/core/domain"
)

func (c *CLI) newQueryCmd() *cobra.Command {
	names := make([]string, 0, len(domain.Operations()))
	for _, op := range domain.Operations() {
		names = append(names, strings.TrimPrefix(string(op), "get_"))
	}

	return &cobra.Command{
		Use:   "query <operation> <manifest-path>",
		Short: "Run a single metadata operation and print the result",
		Long: "Run a single metadata operation and print its JSON payload to stdout.\n\n" +
			"Operations: " + strings.Join(names, ", ") + ".\n" +
			"The get_ prefix is optional and dashes may replace underscores.",
		Example:   "  cargo-metadata-mcp query package-info ./Cargo.toml",
		Args:      cobra.ExactArgs(2),
		ValidArgs: names,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Query(cmd.Context(), args[0], args[1], cmd.OutOrStdout(), c.opts)
		},
	}
}

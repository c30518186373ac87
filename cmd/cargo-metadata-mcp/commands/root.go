// Package commands implements the CLI commands for cargo-metadata-mcp.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/cargo-metadata-mcp/internal/app"
	"go.trai.ch/cargo-metadata-mcp/internal/build"
)

// CLI represents the command line interface for cargo-metadata-mcp.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
	opts    app.Options
}

// Application represents the application logic interface.
type Application interface {
	Serve(ctx context.Context, opts app.Options) error
	Query(ctx context.Context, operation, manifestPath string, w io.Writer, opts app.Options) error
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	c := &CLI{app: a}

	rootCmd := &cobra.Command{
		Use:   "cargo-metadata-mcp",
		Short: "A Model Context Protocol server for Cargo project metadata",
		Long: "cargo-metadata-mcp answers questions about a Cargo project by running\n" +
			"`cargo metadata` once and serving projections of the result over the\n" +
			"Model Context Protocol (MCP) on stdio.\n" +
			"Without a subcommand it behaves like `serve`.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Serve(cmd.Context(), c.opts)
		},
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	c.rootCmd = rootCmd
	c.bindFlags()

	rootCmd.AddCommand(c.newServeCmd())
	rootCmd.AddCommand(c.newQueryCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

func (c *CLI) bindFlags() {
	flags := c.rootCmd.PersistentFlags()

	flags.StringVarP(&c.opts.ConfigPath, "config", "c", "",
		"Path to a config file (default: cargo-metadata-mcp.yaml or .toml in the working directory or a parent)")
	flags.StringVar(&c.opts.LogLevel, "log-level", "", "Log level: debug, info, warn or error")
	flags.StringVar(&c.opts.LogFormat, "log-format", "", "Log format: pretty or json")
	flags.StringVar(&c.opts.CachePolicy, "cache-policy", "",
		"Snapshot cache policy: sticky (first snapshot serves every path) or keyed (one per manifest)")

	flags.StringVar(&c.opts.CargoPath, "cargo", "", "Cargo executable (default: $CARGO, then cargo)")
	flags.StringSliceVarP(&c.opts.Features, "features", "F", nil, "Features to activate, passed to cargo metadata")
	flags.BoolVar(&c.opts.AllFeatures, "all-features", false, "Activate all available features")
	flags.BoolVar(&c.opts.NoDefaultFeatures, "no-default-features", false, "Do not activate the default feature")
	flags.BoolVar(&c.opts.NoDeps, "no-deps", false, "Output information only about workspace members")
	flags.StringVar(&c.opts.FilterPlatform, "filter-platform", "", "Only include resolve dependencies matching the target triple")
	flags.BoolVar(&c.opts.Offline, "offline", false, "Run cargo without accessing the network")
	flags.BoolVar(&c.opts.Locked, "locked", false, "Require Cargo.lock to be up to date")
	flags.BoolVar(&c.opts.Frozen, "frozen", false, "Require Cargo.lock and cache to be up to date")
	flags.DurationVar(&c.opts.Timeout, "timeout", 0, "Abort cargo metadata after this duration (0 disables)")
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/tabula/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
//
// Persistent flags:
//   - --verbose (-v): debug-level logging
//   - --config: configuration file (default: $XDG_CONFIG_HOME/tabula/config.toml)
//   - --no-cache: disable the source and dataset caches
//
// The logger is attached to the command context and is available to every
// subcommand through loggerFromContext.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Tabula converts tabular data into chart series",
		Long: `Tabula loads delimited text, JSON, rows or columns from a file or URL and
converts them into target series: one series per field, with x-values,
category labels and types resolved the way a charting library expects.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := LogInfo
			if c.verbose {
				level = LogDebug
			}
			c.SetLogLevel(level)
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.SetOut(c.out)

	flags := root.PersistentFlags()
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	flags.StringVar(&c.configPath, "config", "", "configuration file (TOML)")
	flags.BoolVar(&c.noCache, "no-cache", false, "disable caching")

	root.AddCommand(c.convertCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

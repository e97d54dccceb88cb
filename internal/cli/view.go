package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	tio "github.com/matzehuels/tabula/pkg/io"
)

// viewCommand creates the view command.
func (c *CLI) viewCommand() *cobra.Command {
	var (
		flags      buildFlags
		importPath string
	)

	cmd := &cobra.Command{
		Use:   "view [SOURCE...]",
		Short: "Browse converted series interactively",
		Long: `View converts each SOURCE like convert does, or loads a series file written
by "convert --output", and opens an interactive browser over the series.`,
		Example: `  tabula view sales.csv --x month --x-type category
  tabula view --import series.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (importPath == "") == (len(args) == 0) {
				return fmt.Errorf("give either SOURCE arguments or --import")
			}

			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			var s tio.Series
			if importPath != "" {
				var err error
				if s, err = tio.ImportJSON(importPath); err != nil {
					return err
				}
			} else {
				cfg, err := c.loadConfig()
				if err != nil {
					return err
				}
				runner, err := c.newRunner(ctx, cfg)
				if err != nil {
					return err
				}
				defer runner.Close()
				if _, err := c.runSources(ctx, cfg, runner, &flags, args); err != nil {
					return err
				}
				s = tio.FromStore(runner.Store)
			}
			for _, t := range s.Targets {
				logger.Debug("series", "summary", summarize(t))
			}

			_, err := tea.NewProgram(NewSeriesModel(s), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			return err
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&importPath, "import", "", "series file written by convert --output")

	return cmd
}

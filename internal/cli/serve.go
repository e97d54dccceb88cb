package cli

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/matzehuels/tabula/internal/api"
	"github.com/matzehuels/tabula/pkg/observability/prom"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the conversion API over HTTP",
		Long: `Serve exposes the pipeline as an HTTP API with one shared series store.
Conversion defaults come from the [data] and [fetch] sections of the config
file; /metrics serves Prometheus metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}

			runner, err := c.newRunner(ctx, cfg)
			if err != nil {
				return err
			}
			defer runner.Close()

			prom.New(prometheus.DefaultRegisterer).Register()

			opts := []api.Option{api.WithConfig(cfg)}
			if _, ok := cfg.ArchiveConfig(); ok {
				a, err := c.connectArchive(ctx, cfg)
				if err != nil {
					return err
				}
				defer a.Close(context.Background())
				runner.Archive = a
				opts = append(opts, api.WithArchive(a))
			}

			printKeyValue("Listening", StyleLink.Render("http://"+displayAddr(addr)))
			printKeyValue("Metrics", StyleLink.Render("http://"+displayAddr(addr)+"/metrics"))
			return api.New(runner, logger, opts...).ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: [server] addr, else :8080)")
	return cmd
}

// displayAddr turns a listen address into a host:port for display.
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/crewboard/internal/server"
	"github.com/matzehuels/crewboard/pkg/observability/prom"
)

// serveCommand creates the serve command that runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		noMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the diagram API over HTTP",
		Long: `Serve the diagram API over HTTP.

The API backs the crew editor: it lists, loads, saves and deletes diagrams in
the configured library under /designer and exposes layout, render and
execution-plan endpoints. Prometheus metrics are served on /metrics unless
disabled. The server stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.Config()
			if err != nil {
				return err
			}
			srvCfg := cfg.Server
			if cmd.Flags().Changed("addr") {
				srvCfg.Addr = addr
			}

			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			runner, err := c.newRunner(ctx, false, scopeServer)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			defaults, err := c.pipelineOptions()
			if err != nil {
				return err
			}

			opts := []server.Option{
				server.WithLogger(c.Logger),
				server.WithLayoutDefaults(defaults),
			}
			if srvCfg.Metrics && !noMetrics {
				m := prom.New()
				m.Register()
				opts = append(opts, server.WithMetrics(m.Handler()))
			}

			srv := server.New(srvCfg, st, runner, opts...)
			c.Logger.Info("serving diagram API", "addr", srvCfg.Addr, "store", st.Backend())
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8000)")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "do not serve /metrics")
	return cmd
}

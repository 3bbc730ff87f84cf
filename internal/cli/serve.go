package cli

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/forcegraph/pkg/observability"
	"github.com/matzehuels/forcegraph/pkg/observability/prom"
	"github.com/matzehuels/forcegraph/pkg/server"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		scene   sceneFlags
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP host",
		Long: `Run the HTTP host. Each session owns one renderer; snapshots arrive by
POST or over a WebSocket and scenes are exported on demand. Prometheus
metrics are served at /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.settings()
			defaults := cfg.PipelineOptions()
			scene.apply(cmd, &defaults)
			if err := defaults.ValidateAndSetDefaults(); err != nil {
				return err
			}
			scfg := server.Config{
				Addr:            cfg.Server.Addr,
				MaxSessions:     cfg.Server.MaxSessions,
				SessionTTL:      cfg.Server.SessionTTL.Duration,
				ShutdownTimeout: cfg.Server.ShutdownTimeout.Duration,
				AllowedOrigins:  cfg.Server.AllowedOrigins,
				Defaults:        defaults,
			}
			if cmd.Flags().Changed("addr") {
				scfg.Addr = addr
			}
			return c.runServe(cmd.Context(), scfg, noCache)
		},
	}

	scene.bind(cmd.Flags())
	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "do not cache fetched backgrounds")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, cfg server.Config, noCache bool) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := prom.New(reg)
	observability.SetRendererHooks(metrics)
	observability.SetPipelineHooks(metrics)
	observability.SetCacheHooks(metrics)
	observability.SetHTTPHooks(metrics)
	defer observability.Reset()

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	srv := server.New(cfg,
		server.WithLogger(c.Logger.WithPrefix("server")),
		server.WithFetcher(runner.Fetcher),
		server.WithMetrics(metrics, reg),
	)
	printInfo("Listening on %s", StyleValue.Render(cfg.Addr))
	if err := srv.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

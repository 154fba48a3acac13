package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/dotgraph/internal/server"
	"github.com/matzehuels/dotgraph/pkg/config"
	"github.com/matzehuels/dotgraph/pkg/observability"
	"github.com/matzehuels/dotgraph/pkg/pipeline"
	"github.com/matzehuels/dotgraph/pkg/render"
)

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API.

Endpoints:
  POST /v1/dot             graph document in, DOT out
  POST /v1/render          graph document or DOT in, rendered artifact out
  POST /v1/graphs/inspect  graph document in, degree summary out
  GET  /healthz, /version, /metrics

The server stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			return c.runServe(cmd.Context(), cmd.OutOrStdout(), cfg, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, stdout io.Writer, cfg *config.Config, noCache bool) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	hooks := observability.NewPrometheusHooks(reg)
	observability.SetRenderHooks(hooks)
	observability.SetCacheHooks(hooks)
	observability.SetHTTPHooks(hooks)
	defer observability.Reset()

	runner, err := c.newRunner(ctx, cfg, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	srv := server.New(runner, cfg.Server, server.Options{
		Defaults: pipeline.Options{
			Engine:  render.Engine(cfg.Render.Engine),
			Formats: []render.Format{render.Format(cfg.Render.Format)},
		},
		Gatherer: reg,
		Logger:   c.Logger,
	})

	out := newPrinter(stdout)
	out.info("Serving on %s", cfg.Server.Addr)
	out.keyValue("Engine", cfg.Render.Engine)
	out.keyValue("Format", cfg.Render.Format)
	out.keyValue("Cache", cacheLabel(cfg.Cache, noCache))
	return srv.Run(ctx)
}

func cacheLabel(cc config.Cache, noCache bool) string {
	if noCache {
		return config.BackendNone
	}
	return cc.Backend
}

package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stackaudit/pkg/server"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr        string
	maxPackages int
	timeout     time.Duration
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the audit API over HTTP",
		Long: `Serve exposes the audit pipeline over HTTP.

  POST /v1/audit   {"packages":[{"coordinate":"g:a:v","exclude":["g:a"]}]}
  GET  /healthz
  GET  /metrics

The report cache is shared by all requests; use the redis or mongo backend
when several instances run side by side.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, then :8080)")
	cmd.Flags().IntVar(&opts.maxPackages, "max-packages", server.DefaultMaxPackages, "maximum roots per request")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 2*time.Minute, "maximum time spent on one request")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	logger := loggerFromContext(ctx)

	p, err := c.newPipeline(ctx)
	if err != nil {
		return err
	}
	defer p.cache.Close()

	addr := opts.addr
	if addr == "" {
		addr = c.settings().Server.Addr
	}

	srvOpts := []server.Option{
		server.WithLogger(logger),
		server.WithMaxPackages(opts.maxPackages),
		server.WithTimeout(opts.timeout),
		server.WithCollectorOptions(c.collectorOptions(logger)...),
		server.WithRequestOptions(c.requestOptions(logger)...),
	}
	if c.Metrics != nil {
		srvOpts = append(srvOpts, server.WithMetrics(c.Metrics))
	}

	srv := server.New(c.auditResolver(p, logger), p.service, p.cache, srvOpts...)
	return srv.ListenAndServe(ctx, addr)
}

package commands

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/mattcknight/cursor-rules-mcp/config"
	"github.com/mattcknight/cursor-rules-mcp/errors"
	"github.com/mattcknight/cursor-rules-mcp/logging"
	"github.com/mattcknight/cursor-rules-mcp/mcp"
)

const metricsShutdownTimeout = 5 * time.Second

func (c *CLI) newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP over stdio (the default)",
		Args:  cobra.NoArgs,
		RunE:  c.runServe,
	}
	config.RegisterServeFlags(cmd.Flags())
	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, _ []string) error {
	a, err := c.setup(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	if a.cfg.MetricsAddr != "" {
		_, stop, err := serveMetrics(ctx, a.cfg.MetricsAddr, a.registry, a.logger)
		if err != nil {
			return err
		}
		defer stop()
	}

	stopRefresh := a.mirror.StartAutoRefresh(a.cfg.AutoRefresh)
	defer stopRefresh()

	server := mcp.New(a.svc, mcp.WithLogger(a.logger), mcp.WithVersion(c.version))
	err = server.ServeStdio(ctx, c.in, c.out)
	if err == nil || errors.Is(err, context.Canceled) {
		a.logger.Info(context.WithoutCancel(ctx), "server stopped")
		return nil
	}
	return errors.Wrap(err, errors.CodeUnavailable, "MCP server failed")
}

// serveMetrics exposes reg at /metrics on addr until the returned stop
// function is called. It returns the address actually bound.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, logger *logging.Logger) (bound string, stop func(), err error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.WithContext(
			errors.Wrap(err, errors.CodeInvalidConfig, "failed to listen for metrics"),
			"addr", addr,
		)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "metrics server failed", "error", err.Error())
		}
	}()
	logger.Info(ctx, "serving metrics", "addr", ln.Addr().String())

	return ln.Addr().String(), func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), metricsShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		<-done
	}, nil
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/comfyforge/internal/presentation/tui"
	httpAdapter "github.com/aretw0/comfyforge/pkg/adapters/http"
	"github.com/aretw0/comfyforge/pkg/adapters/mcp"
)

const shutdownTimeout = 5 * time.Second

// Handler returns the HTTP API with the metrics endpoint mounted.
func (a *App) Handler() http.Handler {
	return httpAdapter.NewHandler(a.Engine,
		httpAdapter.WithLogger(a.Logger),
		httpAdapter.WithMetricsHandler(a.Config.Server.MetricsPath,
			promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{})),
	)
}

// Serve runs the HTTP API until ctx is done. addr overrides server.addr when set.
func (a *App) Serve(ctx context.Context, addr string) error {
	if addr == "" {
		addr = a.Config.Server.Addr
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return a.serve(ctx, lis)
}

func (a *App) serve(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{
		Handler:      a.Handler(),
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
	}

	if isTerminal(a.Stderr) {
		tui.PrintBanner(a.Stderr)
	}

	serverErrors := make(chan error, 1)
	go func() {
		a.Logger.Info("starting comfyforge server", "addr", lis.Addr().String(), "metrics", a.Config.Server.MetricsPath)
		serverErrors <- srv.Serve(lis)
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		a.Logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.Logger.Error("graceful shutdown did not complete", "timeout", shutdownTimeout, "error", err)
			return srv.Close()
		}
		a.Logger.Info("server stopped gracefully")
		return nil
	}
}

// ServeMCP runs the MCP server over stdio or SSE.
func (a *App) ServeMCP(ctx context.Context, transport, addr string) error {
	srv := mcp.NewServer(a.Engine, a.Logger)
	switch transport {
	case "stdio":
		a.Logger.Info("starting MCP server (stdio)")
		return srv.ServeStdio()
	case "sse":
		if addr == "" {
			addr = a.Config.Server.Addr
		}
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return fmt.Errorf("invalid address %q: %w", addr, err)
		}
		if host == "" {
			host = "localhost"
		}
		return srv.ServeSSE(ctx, addr, fmt.Sprintf("http://%s", net.JoinHostPort(host, port)))
	}
	return fmt.Errorf("unknown transport %q (supported: stdio, sse)", transport)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/nstehr/vimy/vimy-tactics/agent"
	"github.com/nstehr/vimy/vimy-tactics/config"
	"github.com/nstehr/vimy/vimy-tactics/ipc"
	"github.com/nstehr/vimy/vimy-tactics/metrics"
)

var (
	socketPath  string
	metricsAddr string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve tactical sessions over a unix domain socket",
		RunE:  runServe,
	}
)

func init() {
	serveCmd.Flags().StringVar(&socketPath, "socket", "", "Unix socket path (overrides the config)")
	serveCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Address for the Prometheus /metrics endpoint, e.g. :9090")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	fmt.Println(banner)

	if socketPath != "" {
		cfg.Server.Socket = socketPath
	}
	if metricsAddr != "" {
		cfg.Server.MetricsAddr = metricsAddr
	}

	slog.Info("starting vimy-tactics", "doctrine", cfg.Doctrine.Name)

	j, err := openJournal(cfg.Server.Journal)
	if err != nil {
		return err
	}
	if j != nil {
		defer j.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var extra []agent.Notifier
	if cfg.Server.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		extra = append(extra, metrics.NewRecorder(reg))
		go serveMetrics(ctx, cfg.Server.MetricsAddr, reg)
	}
	shared := notifiers(j, extra...)

	// Unix sockets leave behind a file on unclean shutdown; remove it so we can rebind.
	if err := os.RemoveAll(cfg.Server.Socket); err != nil {
		return fmt.Errorf("clean up socket %s: %w", cfg.Server.Socket, err)
	}

	listener, err := net.Listen("unix", cfg.Server.Socket)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Server.Socket, err)
	}
	defer listener.Close()
	defer os.Remove(cfg.Server.Socket)

	slog.Info("listening on domain socket", "path", cfg.Server.Socket)

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				select {
				case <-ctx.Done():
					return
				default:
					slog.Error("failed to accept connection", "error", err)
					continue
				}
			}
			slog.Info("new connection accepted")
			go handleConn(conn, cfg, shared)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
	return nil
}

// handleConn gives each client its own session so rosters never cross connections.
func handleConn(conn net.Conn, cfg config.Config, shared []agent.Notifier) {
	c := ipc.NewConnection(conn, nil)
	s := agent.NewSession(cfg.Doctrine, shared...)
	s.Register(c)
	c.ReadLoop()
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("metrics server failed", "addr", addr, "error", err)
	}
}

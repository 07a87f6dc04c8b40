package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/funvibe/clausegen/internal/cache"
	"github.com/funvibe/clausegen/internal/manifest"
	"github.com/funvibe/clausegen/internal/rpc"
)

func newServeCmd(a *app) *cobra.Command {
	var addr, metricsAddr string
	cmd := &cobra.Command{
		Use:   "serve <manifest>",
		Short: "Serve ClauseService over gRPC",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.Serve.Addr = addr
			}
			if cmd.Flags().Changed("metrics-addr") {
				a.cfg.Serve.MetricsAddr = metricsAddr
			}
			tbl, err := manifest.LoadTable(args[0])
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector())
			memo := cache.NewMemo(cache.Lower(tbl),
				cache.WithMetrics(cache.NewMetrics(reg)),
				cache.WithLogger(a.logger))
			svc, err := rpc.NewService(tbl, memo, a.logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, a, svc, reg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "gRPC listen address (default from config)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Prometheus /metrics listen address (empty disables)")
	return cmd
}

func serve(ctx context.Context, a *app, svc *rpc.Service, reg *prometheus.Registry) error {
	lis, err := net.Listen("tcp", a.cfg.Serve.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.cfg.Serve.Addr, err)
	}
	srv := grpc.NewServer()
	rpc.Register(srv, svc)

	serverErrors := make(chan error, 2)
	go func() {
		a.logger.Info("serving ClauseService", "addr", lis.Addr().String())
		serverErrors <- srv.Serve(lis)
	}()

	var metrics *http.Server
	if a.cfg.Serve.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		metrics = &http.Server{Addr: a.cfg.Serve.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			a.logger.Info("serving metrics", "addr", metrics.Addr)
			if err := metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErrors <- err
			}
		}()
	}

	select {
	case err := <-serverErrors:
		srv.Stop()
		if metrics != nil {
			_ = metrics.Close()
		}
		return err
	case <-ctx.Done():
		a.logger.Info("shutting down")
		if metrics != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metrics.Shutdown(shutdownCtx); err != nil {
				a.logger.Warn("metrics shutdown", "err", err)
			}
		}
		srv.GracefulStop()
		return nil
	}
}

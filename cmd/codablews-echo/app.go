package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BobCatC/CodableWebsocket/pkg/config"
	"github.com/BobCatC/CodableWebsocket/pkg/echo"
	"github.com/BobCatC/CodableWebsocket/pkg/observability"
)

const shutdownGrace = 5 * time.Second

func run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.Listen != "" {
		cfg.Server.Listen = opts.Listen
	}
	if opts.Path != "" {
		cfg.Server.Path = opts.Path
	}

	logger, err := observability.SetupLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.Named(cfg.AppName)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := echo.NewHandler(
		echo.WithSubprotocols(cfg.Socket.Protocols...),
		echo.WithReadLimit(cfg.Socket.ReadLimit),
		echo.WithLogger(logger),
	)
	mux := http.NewServeMux()
	mux.Handle(cfg.Server.Path, h)
	if cfg.Metrics.Enable {
		reg := prometheus.NewRegistry()
		reg.MustRegister(h.Collector(), collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	}
	srv := &http.Server{Addr: cfg.Server.Listen, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("echo server listening",
			zap.String("listen", cfg.Server.Listen), zap.String("path", cfg.Server.Path))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		logger.Info("shutting down", zap.Int64("active", h.Active()))
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

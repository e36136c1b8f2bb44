package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	dirhandler "reviewdraw/internal/directory/handler"
	"reviewdraw/internal/platform/config"
	"reviewdraw/internal/platform/httpserver"
	"reviewdraw/internal/platform/logger"
	platformmetrics "reviewdraw/internal/platform/metrics"
	"reviewdraw/internal/platform/otel"
	selhandler "reviewdraw/internal/selection/handler"
	selmetrics "reviewdraw/internal/selection/metrics"
	"reviewdraw/internal/selection/service"
	httptransport "reviewdraw/internal/transport/http"
)

// main loads configuration, wires the backends chosen by it and serves until
// SIGINT or SIGTERM.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	shutdownTracing, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	deps, err := buildDeps(ctx, cfg, log, reg)
	if err != nil {
		return err
	}
	defer deps.close(log)

	svc := service.New(deps.directory, deps.directory, deps.records,
		service.WithLogger(log),
		service.WithAuditPublisher(deps.publisher),
		service.WithMetrics(selmetrics.New(reg)),
		service.WithProjectPrefix(cfg.Selection.ProjectPrefix),
	)

	router := httptransport.NewRouter(httptransport.Config{
		Logger:         log,
		Metrics:        platformmetrics.New(reg),
		Gatherer:       reg,
		RequestTimeout: cfg.Server.RequestTimeout,
		HealthChecks:   deps.health,
	},
		selhandler.New(svc, log),
		dirhandler.New(deps.directory, log),
	)
	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting reviewdraw",
			"addr", cfg.Server.Addr,
			"record_store", cfg.Store.Records,
			"directory", cfg.Store.Directory,
			"audit_sink", cfg.Audit.Sink,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Warn("tracing shutdown failed", "error", err)
		}
		return nil
	})
	return g.Wait()
}

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
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/AltairaLabs/datazone-handlers/internal/config"
	"github.com/AltairaLabs/datazone-handlers/internal/datazone"
	"github.com/AltairaLabs/datazone-handlers/internal/engine"
	"github.com/AltairaLabs/datazone-handlers/internal/host"
	"github.com/AltairaLabs/datazone-handlers/internal/telemetry"
	"github.com/AltairaLabs/datazone-handlers/internal/version"
)

const (
	serviceName            = "datazone-worker"
	shutdownTimeout        = 10 * time.Second
	defaultReadHeaderTmout = 10 * time.Second
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	if err := run(); err != nil {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
}

// buildInvoker is replaced in tests to avoid contacting AWS.
var buildInvoker = func(
	ctx context.Context, cfg *config.Config, log *slog.Logger, metrics *engine.Metrics,
) (host.Invoker, error) {
	client, err := datazone.NewClient(ctx, cfg.AWS)
	if err != nil {
		return nil, err
	}
	reg := engine.NewRegistry()
	if err := datazone.Register(reg, client, cfg.Policies,
		engine.WithLogger(log), engine.WithMetrics(metrics)); err != nil {
		return nil, err
	}
	log.Info("registered resource types", "types", reg.TypeNames())
	return reg, nil
}

func run() error {
	wcfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	cfg, err := wcfg.resolve()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	level, err := telemetry.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	log, err := telemetry.NewLogger(os.Stderr, cfg.Log.Format, level)
	if err != nil {
		return err
	}

	ctx := context.Background()
	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.Tracing, serviceName, os.Stdout, log)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := engine.NewMetrics(promReg)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	inv, err := buildInvoker(ctx, cfg, log, metrics)
	if err != nil {
		return fmt.Errorf("build handlers: %w", err)
	}

	healthH := newHealthHandler()
	mux := buildMux(&invokeHandler{inv: inv, log: log}, healthH, promReg)

	addr := fmt.Sprintf(":%d", wcfg.Port)
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	log.Info("listening", "addr", ln.Addr().String(), "region", cfg.AWS.Region, "version", version.Version)

	return runWithShutdown(log, ln, mux, healthH)
}

// runWithShutdown serves until SIGTERM/SIGINT, then drains: health turns
// 503 and in-flight invocations finish before the server closes.
func runWithShutdown(log *slog.Logger, ln net.Listener, handler http.Handler, healthH *healthHandler) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: defaultReadHeaderTmout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		log.Info("received signal, shutting down", "signal", sig)
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	}

	healthH.setDraining()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}

	log.Info("shutdown complete")
	return nil
}

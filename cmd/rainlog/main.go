package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/rainlog/internal/api/http"
	"github.com/i474232898/rainlog/internal/config"
	"github.com/i474232898/rainlog/internal/logger"
	"github.com/i474232898/rainlog/internal/metrics"
	"github.com/i474232898/rainlog/internal/rainfall"
	"github.com/i474232898/rainlog/internal/rainfall/providers"
	"github.com/i474232898/rainlog/internal/scheduler"
	"github.com/i474232898/rainlog/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel, cfg.LogMode, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// The store lives for the whole process and is handed to the service explicitly.
	recordStore, err := store.Open(cfg.StoreOptions())
	if err != nil {
		zlog.Fatal("failed to open record store", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}
	defer func() {
		if err := recordStore.Close(); err != nil {
			zlog.Error("failed to close record store", zap.Error(err))
		}
	}()

	// Providers for the optional daily import.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	var provs []rainfall.Provider
	if cfg.ImportEnabled {
		if !cfg.DisableOpenMeteo {
			provs = append(provs, providers.NewOpenMeteoProvider(httpClient))
		}
		if cfg.WeatherAPIKey != "" {
			provs = append(provs, providers.NewWeatherAPIProvider(httpClient, cfg.WeatherAPIKey))
		}
	}

	service := rainfall.NewService(recordStore, provs, zlog, m)

	sched := scheduler.New(scheduler.Config{
		ImportEnabled:  cfg.ImportEnabled,
		ImportAt:       cfg.ImportSchedule,
		Location:       cfg.ImportLocation(),
		DigestInterval: cfg.DigestInterval,
	}, service, zlog)
	if err := sched.Start(); err != nil {
		zlog.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	app := httpapi.NewApp(httpapi.Options{
		Service:   service,
		Logger:    zlog,
		Gatherer:  reg,
		AccessLog: true,
	})

	go func() {
		zlog.Info("starting rainlog",
			zap.String("port", cfg.Port),
			zap.String("store", cfg.StoreBackend),
			zap.Bool("allow_multiple_per_date", cfg.AllowMultiplePerDate),
		)
		if err := app.Listen(":" + cfg.Port); err != nil {
			zlog.Error("fiber server stopped", zap.Error(err))
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		zlog.Error("error during shutdown", zap.Error(err))
	}
	zlog.Info("server stopped")
}

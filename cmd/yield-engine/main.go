package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agrisense/yield-engine/internal/acquisition"
	"github.com/agrisense/yield-engine/internal/api"
	"github.com/agrisense/yield-engine/internal/cache"
	"github.com/agrisense/yield-engine/internal/config"
	"github.com/agrisense/yield-engine/internal/engine"
	"github.com/agrisense/yield-engine/internal/metrics"
	"github.com/agrisense/yield-engine/internal/registry"
	"github.com/agrisense/yield-engine/internal/repo"
	"github.com/agrisense/yield-engine/internal/services"
	"github.com/agrisense/yield-engine/internal/utils"
	"github.com/agrisense/yield-engine/internal/variety"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	// Optional .env for local development; ignored when absent.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting yield-engine", slog.String("address", cfg.Server.Address))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	priors, err := registry.LoadPriors(cfg.Registry.PriorsPath)
	if err != nil {
		logger.Warn("priors file unusable, using built-in defaults", slog.Any("error", err))
	}
	modelRegistry := registry.LoadAll(cfg.Registry.ArtifactDir, priors, logger)

	catalogClient := repo.NewCatalogClient(cfg.Clients.Catalog.BaseURL, cfg.Clients.Catalog.Timeout)
	satelliteClient := repo.NewSatelliteClient(cfg.Clients.Satellite.BaseURL, cfg.Clients.Satellite.Timeout)
	weatherClient := repo.NewWeatherClient(cfg.Clients.Weather.BaseURL, cfg.Clients.Weather.Timeout)

	historyCache := cache.NewMemoryProvider(cfg.History.MaxEntries)
	acquirer := acquisition.NewTier(logger, satelliteClient, weatherClient, historyCache, acquisition.Options{
		CallTimeout: cfg.Clients.Weather.Timeout,
		HistoryTTL:  cfg.History.TTL,
		MinQuality:  cfg.History.MinQuality,
	})

	resolver := variety.NewResolver(logger, catalogClient)
	pipeline := engine.NewPipeline(logger, resolver, acquirer, modelRegistry, catalogClient)
	service := services.NewPredictionService(logger, pipeline, cfg.Server.RequestTimeout)

	handler := api.NewHandler(logger, service, modelRegistry)
	server := api.NewServer(cfg.Server, logger, handler)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.Server.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Server.MetricsAddress))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	go func() {
		if serveErr := server.Start(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("http server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown", slog.Any("error", err))
	}

	if metricsServer != nil {
		metricsCtx, cancelMetrics := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(metricsCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server shutdown", slog.Any("error", err))
		}
		cancelMetrics()
	}

	_ = historyCache.Close()

	// Give remaining goroutines time to finish logging
	time.Sleep(100 * time.Millisecond)
	logger.Info("yield-engine stopped")
}

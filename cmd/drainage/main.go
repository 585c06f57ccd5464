package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/storm-drainage-service/internal/adapter/earthengine"
	httpadapter "github.com/couchcryptid/storm-drainage-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/storm-drainage-service/internal/adapter/kafka"
	"github.com/couchcryptid/storm-drainage-service/internal/adapter/openmeteo"
	"github.com/couchcryptid/storm-drainage-service/internal/adapter/overpass"
	"github.com/couchcryptid/storm-drainage-service/internal/analysis"
	"github.com/couchcryptid/storm-drainage-service/internal/config"
	"github.com/couchcryptid/storm-drainage-service/internal/observability"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
)

func main() {
	// A local .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to read .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := analysis.Deps{Clock: clock}

	// Geospatial client bootstrap (feature-flagged via GEE_ENABLED). A failure
	// is logged and the service keeps running on fallbacks.
	if cfg.GEEEnabled {
		gee, err := earthengine.NewClient(ctx, cfg.GEEProject, cfg.GEEBaseURL, cfg.GEETimeout, logger, metrics)
		if err != nil {
			logger.Error("earth engine bootstrap failed, geospatial lookups will fall back", "error", err)
			deps.ProviderErr = err
		} else {
			logger.Info("earth engine enabled", "project", gee.Project(), "timeout", cfg.GEETimeout)
			metrics.ProviderReady.Set(1)
			deps.Terrain = gee
			if cfg.WaterSource == config.WaterSourceEarthEngine {
				deps.Water = gee
			}
		}
	} else {
		logger.Info("earth engine disabled")
	}

	if cfg.WaterSource == config.WaterSourceOverpass {
		deps.Water = overpass.NewWaterSource(cfg.OverpassURL, cfg.OverpassTimeout, logger, metrics)
		logger.Info("overpass water source enabled", "url", cfg.OverpassURL, "timeout", cfg.OverpassTimeout)
	}

	rain := openmeteo.NewClient(cfg.RainfallBaseURL, cfg.RainfallTimeout, logger, metrics)
	deps.Rainfall = openmeteo.NewCachedProvider(rain, cfg.RainfallCacheSize, cfg.RainfallCacheTTL, clock, metrics)
	logger.Info("rainfall provider configured", "cache_size", cfg.RainfallCacheSize, "cache_ttl", cfg.RainfallCacheTTL)

	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		deps.Publisher = writer
		logger.Info("plan publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaPlanTopic)
	}

	svc := analysis.New(deps, analysis.Timeouts{
		Geospatial: max(cfg.GEETimeout, cfg.OverpassTimeout),
		Rainfall:   cfg.RainfallTimeout,
	}, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, svc, cfg.CORSAllowedOrigins, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

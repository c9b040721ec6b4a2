package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/trogers1052/mandi-price-service/internal/agmarknet"
	"github.com/trogers1052/mandi-price-service/internal/api"
	"github.com/trogers1052/mandi-price-service/internal/config"
	"github.com/trogers1052/mandi-price-service/internal/database"
	"github.com/trogers1052/mandi-price-service/internal/forecast"
	"github.com/trogers1052/mandi-price-service/internal/kafka"
	"github.com/trogers1052/mandi-price-service/internal/logger"
	"github.com/trogers1052/mandi-price-service/internal/market"
	"github.com/trogers1052/mandi-price-service/internal/metrics"
	"github.com/trogers1052/mandi-price-service/internal/pricesync"
	"github.com/trogers1052/mandi-price-service/internal/synccache"
	"github.com/trogers1052/mandi-price-service/internal/trainer"
	"github.com/trogers1052/mandi-price-service/internal/weather"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "optional YAML config file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	logger.Init("mandi-price-service", cfg.Log.Level, cfg.Log.Format)

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("Service stopped with error")
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(cfg.Database.MigrationsPath); err != nil {
		return err
	}
	log.Info().Str("host", cfg.Database.Host).Str("db", cfg.Database.DBName).Msg("Database ready")

	m := metrics.New()

	var lastSync pricesync.LastSyncStore = db
	if cfg.Redis.Enabled {
		rdb, err := synccache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
		lastSync = rdb
		log.Info().Str("addr", cfg.Redis.Addr).Msg("Using Redis for sync state")
	}

	snapshots := trainer.NewCache(db, trainer.New(cfg.Model), cfg.Model.CacheEnabled, m)

	var ws forecast.WeatherSource
	if cfg.Weather.APIKey != "" {
		ws = weather.NewClient(cfg.Weather)
	}
	forecasts := forecast.NewService(db, snapshots, ws, forecast.NewForecaster(forecast.NewRandomSource()).WithMaxHorizon(cfg.Model.MaxHorizonDays), m)

	provider := agmarknet.NewClient(cfg.Agmarknet)
	syncer := pricesync.New(provider, db, lastSync, cfg.Sync, cfg.Agmarknet.SyncLimit, m).
		WithInvalidator(snapshots)

	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		syncer.WithPublisher(producer)

		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, db, snapshots, m)
		go func() {
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("Kafka consumer stopped")
			}
		}()
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("Kafka enabled")
	}

	scheduler := pricesync.NewScheduler(syncer, cfg.Sync)
	if err := scheduler.Start(); err != nil {
		return err
	}
	defer scheduler.Stop()

	handler := api.NewHandler(db, forecasts, syncer, snapshots, market.NewService(provider, cfg.Agmarknet))
	router := api.SetupRoutes(handler, m)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      c.Handler(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error during server shutdown: %w", err)
	}
	log.Info().Msg("Server gracefully stopped")
	return nil
}

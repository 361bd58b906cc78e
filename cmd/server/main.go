package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"    // loads a local .env before the config is read
	"github.com/labstack/echo/v4" // Echo web framework
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/smart-seats/internal/assistant"
	"github.com/iliyamo/smart-seats/internal/config"
	"github.com/iliyamo/smart-seats/internal/database"
	"github.com/iliyamo/smart-seats/internal/drift"
	"github.com/iliyamo/smart-seats/internal/handler"
	"github.com/iliyamo/smart-seats/internal/iot"
	"github.com/iliyamo/smart-seats/internal/llm"
	"github.com/iliyamo/smart-seats/internal/occupancy"
	"github.com/iliyamo/smart-seats/internal/queue"
	"github.com/iliyamo/smart-seats/internal/repository"
	"github.com/iliyamo/smart-seats/internal/router"
	"github.com/iliyamo/smart-seats/internal/scheduler"
	queue_publisher "github.com/iliyamo/smart-seats/internal/service"
	"github.com/iliyamo/smart-seats/internal/snapshot"
	"github.com/iliyamo/smart-seats/internal/suggest"
)

func main() {
	_ = godotenv.Load() // a missing .env is fine

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server terminated", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped cleanly")
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.InitSchema(ctx, db); err != nil {
		return err
	}
	if cfg.SeedDemo {
		n, err := database.SeedDemo(ctx, db)
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info("seeded demo seats", "count", n)
		}
	}

	repo := repository.NewSeatRepo(db)
	cache := snapshot.NewCache()
	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb != nil {
		defer rdb.Close()
	}

	history := repository.NewHistoryRepo(db)
	sinks := snapshotSinks(cfg, rdb, history, logger)

	seed := cfg.Worker.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	worker, err := scheduler.New(scheduler.Options{
		Interval:    cfg.Worker.Interval,
		TickTimeout: cfg.Worker.TickTimeout,
		Store:       repo,
		Simulator:   drift.NewSeeded(cfg.Worker.TargetRatio, cfg.Worker.DriftRatio, seed),
		Cache:       cache,
		Sinks:       sinks,
		Logger:      logger.With("component", "scheduler"),
	})
	if err != nil {
		return err
	}
	if err := worker.Start(ctx); err != nil {
		return err
	}
	defer worker.Stop()

	applier := occupancy.NewApplier(repo, logger.With("component", "occupancy"))

	var bg sync.WaitGroup
	if cfg.MQTT.BrokerURL != "" {
		sub := iot.NewSubscriber(iot.Config{
			BrokerURL: cfg.MQTT.BrokerURL,
			ClientID:  cfg.MQTT.ClientID,
			Topic:     cfg.MQTT.Topic,
			QoS:       1,
		}, applier, logger)
		if err := sub.Start(ctx); err != nil {
			logger.Warn("mqtt subscriber not started", "error", err)
		} else {
			defer sub.Stop()
		}
	}
	if cfg.AMQPURL != "" {
		consumer := queue.NewOccupancyConsumer(cfg.AMQPURL, applier, logger.With("component", "amqp"))
		bg.Add(1)
		go func() {
			defer bg.Done()
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("occupancy consumer stopped", "error", err)
			}
		}()
	}
	defer func() {
		cancel()
		bg.Wait()
	}()

	ranker := suggest.NewRanker(repo)
	gen := llm.NewClient(llm.Config{
		EndpointURL: cfg.LLM.EndpointURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Timeout:     cfg.LLM.Timeout,
		MaxRetries:  cfg.LLM.MaxRetries,
	}, logger.With("component", "llm"))
	if !gen.Configured() {
		logger.Info("llm backend not configured; chat replies use the offline fallback")
	}
	concierge := assistant.NewService(ranker, cache, gen, cfg.LLM.Timeout, logger.With("component", "assistant"))
	concierge.WithHistory(history)

	e := echo.New()
	e.HideBanner = true
	deps := router.Deps{
		Seats: &handler.SeatHandler{
			Snapshots: cache,
			Ranker:    ranker,
			Occupancy: applier,
			History:   history,
			Ticker:    worker,
		},
		Chat:      &handler.ChatHandler{Assistant: concierge},
		Snapshots: cache,
		JWTSecret: cfg.JWTSecret,
		Redis:     rdb,
		Cache:     config.LoadCacheConfig(),
		RateLimit: config.LoadRateLimitConfig(),
	}
	router.RegisterRoutes(e, deps)
	router.RegisterSeats(e, deps)
	router.RegisterAssistant(e, deps)

	addr := ":" + cfg.Port
	logger.Info("listening", "addr", addr, "env", cfg.Env)

	errc := make(chan error, 1)
	go func() { errc <- e.Start(addr) }()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return e.Shutdown(shutdownCtx)
}

func openDB(cfg config.Config) (*sql.DB, error) {
	if cfg.DBDriver == "mysql" {
		return database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	}
	return database.OpenSQLite(cfg.SQLitePath)
}

// snapshotSinks collects the downstream consumers of each published
// snapshot.  History is always recorded; the mirror and the broker are
// optional.
func snapshotSinks(cfg config.Config, rdb *redis.Client, history occupancy.HistoryStore, logger *slog.Logger) []scheduler.Sink {
	sinks := []scheduler.Sink{occupancy.NewHistoryRecorder(history, cfg.Worker.HistoryEvery, logger.With("component", "history"))}
	if rdb != nil && cfg.Mirror.Enabled {
		m, err := snapshot.NewRedisMirror(rdb, cfg.Mirror.Prefix, cfg.Mirror.TTL)
		if err != nil {
			logger.Warn("snapshot mirror disabled", "error", err)
		} else {
			sinks = append(sinks, m)
		}
	}
	if cfg.AMQPURL != "" {
		sinks = append(sinks, queue_publisher.NewSnapshotPublisher(cfg.AMQPURL, logger.With("component", "amqp")))
	}
	return sinks
}

func logLevel(level string) slog.Leveler {
	var lvl slog.Level

	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	lv := new(slog.LevelVar)
	lv.Set(lvl)
	return lv
}

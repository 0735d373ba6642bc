package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rocketscienceinc/stackfive-backend/internal/config"
	"github.com/rocketscienceinc/stackfive-backend/internal/repository"
	"github.com/rocketscienceinc/stackfive-backend/internal/repository/storage"
	"github.com/rocketscienceinc/stackfive-backend/internal/search"
	"github.com/rocketscienceinc/stackfive-backend/internal/usecase"
	"github.com/rocketscienceinc/stackfive-backend/transport/rest"
	"github.com/rocketscienceinc/stackfive-backend/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	sqliteStorage, err := storage.NewSQLiteStorage(conf.SQLiteStoragePath)
	if err != nil {
		return fmt.Errorf("could not open sqlite storage: %w", err)
	}

	defer func() {
		if err = sqliteStorage.Close(); err != nil {
			log.Error("could not close sqlite storage", "error", err)
		}
	}()

	if err = sqliteStorage.Init(ctx); err != nil {
		return fmt.Errorf("could not init sqlite storage: %w", err)
	}

	difficulty, err := search.ParseDifficulty(conf.Bot.DefaultDifficulty)
	if err != nil {
		return fmt.Errorf("invalid bot config: %w", err)
	}

	seed := conf.Bot.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	engine, err := search.NewEngine(rand.New(rand.NewSource(seed)), conf.Bot.EvalCacheSize) //nolint:gosec // game AI, not crypto
	if err != nil {
		return fmt.Errorf("could not create bot engine: %w", err)
	}

	playerRepo := repository.NewPlayerRepository(redisStorage.Connection)
	gameRepo := repository.NewGameRepository(redisStorage.Connection)
	resultRepo := repository.NewResultRepository(sqliteStorage.Connection)
	gameUseCase := usecase.NewGameManager(logger, playerRepo, gameRepo, resultRepo, engine, difficulty)

	log.Info("Bot configured", "difficulty", difficulty, "seed", seed, "eval_cache_size", conf.Bot.EvalCacheSize)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		router := rest.NewRouter(logger, gameUseCase)
		router.Get("/ws", websocket.New(logger, gameUseCase).ServeHTTP)

		httpServer := rest.New(logger, router)
		httpErrCh <- httpServer.Start(ctx, conf.HTTPPort)
	}()

	select {
	case err = <-httpErrCh:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		if err = <-httpErrCh; err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	}
}

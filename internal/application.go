package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/rocketscienceinc/gamerooms-backend/internal/config"
	"github.com/rocketscienceinc/gamerooms-backend/internal/presence"
	"github.com/rocketscienceinc/gamerooms-backend/internal/repository"
	"github.com/rocketscienceinc/gamerooms-backend/internal/repository/storage"
	"github.com/rocketscienceinc/gamerooms-backend/internal/room"
	"github.com/rocketscienceinc/gamerooms-backend/internal/service"
	"github.com/rocketscienceinc/gamerooms-backend/internal/usecase"
	"github.com/rocketscienceinc/gamerooms-backend/transport/rest"
	"github.com/rocketscienceinc/gamerooms-backend/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application until SIGINT or SIGTERM.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	gameRepo := repository.NewGameRepository(redisStorage.Connection)
	userRepo := repository.NewUserRepository(redisStorage.Connection)
	messageRepo := repository.NewMessageRepository(redisStorage.Connection)

	authService := service.NewAuthService(conf.JWTSecretKey, conf.JWTTokenTTL)
	userUseCase := usecase.NewUserUseCase(userRepo, authService)

	hub := websocket.NewHub(logger)
	rooms := room.NewRegistry(logger, gameRepo, hub)
	gameManager := usecase.NewGameManager(logger, usecase.Limits{
		CheckersMoveLimit: conf.Checkers.MoveLimit,
		ChatHistory:       conf.Chat.HistoryLimit,
		MessageMaxLength:  conf.Chat.MaxLength,
	}, rooms, gameRepo, messageRepo, userRepo)

	restored, err := gameManager.RestoreOpenGames(ctx)
	if err != nil {
		return fmt.Errorf("could not restore open games: %w", err)
	}
	log.Info("open games restored", "count", restored)

	tracker := presence.NewTracker()
	restServer := rest.New(logger, userUseCase, authService, gameManager, tracker)
	wsServer := websocket.New(logger, hub, tracker, authService, gameManager, conf.Rooms.SendBuffer)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := restServer.Start(groupCtx, conf.HTTPPort); httpErr != nil {
			return fmt.Errorf("HTTP server error: %w", httpErr)
		}
		return nil
	})

	group.Go(func() error {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		if wsErr := wsServer.Start(groupCtx, conf.SocketPort); wsErr != nil {
			return fmt.Errorf("WebSocket server error: %w", wsErr)
		}
		return nil
	})

	group.Go(func() error {
		return gameManager.RunSweeper(groupCtx, conf.Rooms.SweepInterval, conf.Rooms.IdleTimeout)
	})

	if err = group.Wait(); err != nil {
		return err
	}

	log.Info("Application context canceled, shutting down")

	return nil
}

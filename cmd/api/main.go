// @title        Storefront API
// @version      1.0
// @description  Accounts, sessions and orders for the storefront.
// @BasePath     /
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
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

	"github.com/rs/zerolog"

	"github.com/storefront-labs/storefront-api/internal/api"
	"github.com/storefront-labs/storefront-api/internal/api/handler"
	"github.com/storefront-labs/storefront-api/internal/core/ports"
	"github.com/storefront-labs/storefront-api/internal/core/service"
	"github.com/storefront-labs/storefront-api/internal/infrastructure/db/memory"
	mongostore "github.com/storefront-labs/storefront-api/internal/infrastructure/db/mongo"
	redisstore "github.com/storefront-labs/storefront-api/internal/infrastructure/db/redis"
	"github.com/storefront-labs/storefront-api/internal/pkg/config"
	"github.com/storefront-labs/storefront-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "storefront-api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "storefront-api",
		Env:     cfg.Env,
	})

	var (
		users    ports.UserRepository
		orders   ports.OrderRepository
		checkers []handler.DependencyChecker
	)

	switch cfg.StoreDriver {
	case config.StoreMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return err
		}
		defer func() {
			dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := client.Disconnect(dctx); err != nil {
				log.Warn().Err(err).Msg("mongo disconnect failed")
			}
		}()

		userRepo := mongostore.NewUserRepository(db)
		orderRepo := mongostore.NewOrderRepository(db)
		if err := mongostore.EnsureIndexes(ctx, userRepo, orderRepo); err != nil {
			return err
		}
		users, orders = userRepo, orderRepo
		checkers = append(checkers, mongostore.NewPinger(db))
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")
	default:
		users, orders = memory.NewUserRepository(), memory.NewOrderRepository()
		log.Warn().Msg("using in-memory store, data is lost on restart")
	}

	var (
		denylist    ports.TokenDenylist
		idempotency ports.IdempotencyStore
	)
	if cfg.Redis.Addr != "" {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer rdb.Close()

		denylist = redisstore.NewTokenDenylist(rdb)
		idempotency = redisstore.NewIdempotencyStore(rdb)
		checkers = append(checkers, redisstore.NewPinger(rdb))
		log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")
	} else {
		log.Info().Msg("redis disabled, logout and idempotency keys are no-ops")
	}

	authService := service.NewAuthService(users, denylist, service.AuthConfig{
		JWTSecret:  cfg.JWTSecret,
		TokenTTL:   cfg.TokenTTL,
		BcryptCost: cfg.BcryptCost,
	}, log.With().Str("component", "auth").Logger())
	orderService := service.NewOrderService(orders, users, idempotency, service.OrderOptions{
		StrictTransitions: cfg.Orders.StrictTransitions,
		EnforceOwnership:  cfg.Orders.EnforceOwnership,
	}, log.With().Str("component", "orders").Logger())
	userService := service.NewUserService(users, authService, log.With().Str("component", "users").Logger())

	if cfg.Admin.Email != "" {
		if err := authService.EnsureAdmin(ctx, cfg.Admin.FullName, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
	}

	e := api.NewRouter(api.Dependencies{
		Auth:     authService,
		Orders:   orderService,
		Users:    userService,
		Checkers: checkers,
		Log:      log,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutdown signal received")
	return shutdown(server, log)
}

func shutdown(server *http.Server, log zerolog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	log.Info().Msg("http server stopped")
	return nil
}

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/Sternrassler/artsel/internal/config"
	"github.com/Sternrassler/artsel/pkg/artwork"
	"github.com/Sternrassler/artsel/pkg/client"
	"github.com/Sternrassler/artsel/pkg/controller"
	"github.com/Sternrassler/artsel/pkg/logging"
	"github.com/Sternrassler/artsel/pkg/pagination"
	"github.com/Sternrassler/artsel/pkg/ratelimit"
	"github.com/Sternrassler/artsel/pkg/selection"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// app is the wired core shared by all subcommands.
type app struct {
	ctrl   *controller.Controller
	store  selection.Store
	logger zerolog.Logger

	closers []func() error
}

// Close stops the controller and releases the store.
func (a *app) Close() error {
	var firstErr error
	if a.ctrl != nil {
		firstErr = a.ctrl.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// setupLogging configures the global logger. The terminal browser passes
// toFile because stderr belongs to the screen there.
func setupLogging(cfg config.LoggingConfig, stderr io.Writer, toFile bool) (zerolog.Logger, func() error, error) {
	out := stderr
	closeFn := func() error { return nil }

	if toFile {
		f, err := logging.OpenFile(cfg.File)
		if err != nil {
			return zerolog.Nop(), nil, err
		}
		out = f
		closeFn = f.Close
	}

	lc := logging.DefaultConfig()
	if cfg.Level != "" {
		lc.Level = logging.LogLevel(cfg.Level)
	}
	lc.Pretty = cfg.Pretty
	lc.Output = out
	return logging.Setup(lc), closeFn, nil
}

// openStore opens the configured selection backend.
func openStore(ctx context.Context, cfg config.SelectionConfig, logger zerolog.Logger) (selection.Store, func() error, error) {
	switch cfg.Backend {
	case config.BackendMemory, "":
		return selection.NewMemoryStore(), func() error { return nil }, nil

	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		logger.Info().
			Str("addr", cfg.RedisAddr).
			Str("key", cfg.RedisKey).
			Msg("Connected to redis selection store")
		return selection.NewRedisStore(rdb, cfg.RedisKey), rdb.Close, nil

	case config.BackendBolt:
		store, err := selection.NewBoltStore(cfg.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info().Str("path", cfg.BoltPath).Msg("Opened bolt selection store")
		return store, store.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown selection backend %q", cfg.Backend)
	}
}

// newApp wires client, store and controller from cfg.
func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	cl, err := client.New(client.Config{
		BaseURL:    cfg.API.BaseURL,
		Collection: cfg.API.Collection,
		UserAgent:  cfg.API.UserAgent,
		Timeout:    cfg.API.Timeout,
		Fields:     artwork.Fields,
		RateLimit: ratelimit.Config{
			ThrottleDelay: cfg.API.ThrottleDelay,
			MaxWait:       cfg.API.MaxWait,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection client: %w", err)
	}

	store, closeStore, err := openStore(ctx, cfg.Selection, logger)
	if err != nil {
		return nil, err
	}

	ctrl := controller.New(cl, store, controller.Config{
		Rows: cfg.Pagination.Rows,
		Page: cfg.Pagination.Page,
		Bulk: pagination.Config{Timeout: cfg.Pagination.PageTimeout},
	}, logger)

	return &app{
		ctrl:    ctrl,
		store:   store,
		logger:  logger,
		closers: []func() error{closeStore},
	}, nil
}

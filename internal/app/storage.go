package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/hyeonup/eisenmatrix/internal/config"
	"github.com/hyeonup/eisenmatrix/internal/storage"
)

var (
	globalStorage     storage.Gateway
	globalRedisClient *redis.Client
)

func MustOpenStorage() {
	cfg := config.Global().Storage

	switch cfg.Driver {
	case config.StorageDriverRedis:
		globalStorage = mustConnectRedis(cfg.Redis)
	case config.StorageDriverFile:
		store, err := storage.NewFileStore(cfg.File.DataDir)
		if err != nil {
			globalLogger.Error().
				Err(err).
				Str("data_dir", cfg.File.DataDir).
				Msg("failed to open file storage")
			panic(err)
		}
		globalStorage = store

		globalLogger.Info().
			Str("data_dir", cfg.File.DataDir).
			Msg("opened file storage")
	default:
		globalLogger.Error().
			Str("driver", cfg.Driver).
			Msg("unknown storage driver")
		panic(fmt.Errorf("unknown storage driver: %s", cfg.Driver))
	}
}

func mustConnectRedis(cfg config.RedisConfig) storage.Gateway {
	globalRedisClient = redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:    cfg.Password,
		DB:          cfg.Database,
		DialTimeout: cfg.ConnectTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.PingTimeout)
	defer cancel()

	err := globalRedisClient.Ping(ctx).Err()
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to ping redis")
		panic(err)
	}
	globalLogger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Msg("connected to redis")

	return storage.NewRedisStore(globalRedisClient)
}

func CloseStorage() {
	if globalRedisClient != nil {
		_ = globalRedisClient.Close()
		globalLogger.Info().Msg("disconnected from redis")
	}
}

package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/Alturino/shopcart/internal/config"
	"github.com/Alturino/shopcart/internal/log"
	"github.com/Alturino/shopcart/internal/otel"
)

// NewCacheClient connects to redis with tracing and metrics instrumentation.
// It returns nil when the cache is disabled.
func NewCacheClient(c context.Context, cacheConfig config.Cache) *redis.Client {
	c, span := otel.Tracer.Start(c, "main NewCacheClient")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "main NewCacheClient").
		Str(log.KeyProcess, "initializing cache").
		Logger()

	if !cacheConfig.Enabled {
		logger.Info().Msg("cache disabled")
		return nil
	}

	addr := fmt.Sprintf("%s:%d", cacheConfig.Host, cacheConfig.Port)
	logger = logger.With().Str(log.KeyProcess, "initializing redis client").Str("addr", addr).Logger()
	logger.Info().Msg("initializing redis client")
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    cacheConfig.Password,
		DB:          cacheConfig.Database,
		DialTimeout: 5 * time.Second,
	})
	logger.Info().Msg("initialized redis client")

	logger = logger.With().Str(log.KeyProcess, "instrumenting redis client").Logger()
	logger.Info().Msg("instrumenting redis client")
	if err := redisotel.InstrumentTracing(client, redisotel.WithAttributes(semconv.DBSystemRedis)); err != nil {
		err = fmt.Errorf("failed instrumenting redis tracing with error=%w", err)
		logger.Fatal().Err(err).Msg(err.Error())
	}
	if err := redisotel.InstrumentMetrics(client, redisotel.WithAttributes(semconv.DBSystemRedis)); err != nil {
		err = fmt.Errorf("failed instrumenting redis metrics with error=%w", err)
		logger.Fatal().Err(err).Msg(err.Error())
	}
	logger.Info().Msg("instrumented redis client")

	logger = logger.With().Str(log.KeyProcess, "pinging redis").Logger()
	logger.Info().Msg("pinging redis")
	if err := client.Ping(c).Err(); err != nil {
		err = fmt.Errorf("failed pinging redis with error=%w", err)
		logger.Fatal().Err(err).Msg(err.Error())
	}
	logger.Info().Msg("pinged redis")

	return client
}

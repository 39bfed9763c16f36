package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Alturino/shopcart/cart/internal/repository"
	"github.com/Alturino/shopcart/internal/config"
	"github.com/Alturino/shopcart/internal/infra"
	"github.com/Alturino/shopcart/internal/log"
)

type closeFunc func(context.Context)

// newRepository builds the cart store selected by db.driver, wrapped with the
// redis cache when cache.enabled is set.
func newRepository(c context.Context, cfg *config.Config) (repository.Repository, closeFunc, error) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "main newRepository").
		Str("driver", cfg.Database.Driver).
		Logger()

	closers := []closeFunc{}
	closeAll := func(c context.Context) {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i](c)
		}
	}

	var repo repository.Repository
	switch cfg.Database.Driver {
	case config.DriverMemory:
		logger.Warn().Msg("using in memory cart store")
		repo = repository.NewMemoryRepository()
	case config.DriverMongo:
		logger = logger.With().Str(log.KeyProcess, "initializing database").Logger()
		logger.Info().Msg("initializing database")
		client := infra.NewDatabaseClient(logger.WithContext(c), cfg.Database)
		closers = append(closers, func(c context.Context) {
			logger.Info().Msg("shutting down database")
			if err := client.Disconnect(c); err != nil {
				err = fmt.Errorf("failed shutting down database with error=%w", err)
				logger.Error().Err(err).Msg(err.Error())
				return
			}
			logger.Info().Msg("shutdown database")
		})

		collection := client.Database(cfg.Database.Name).Collection(cfg.Database.Collection)
		mongoRepo := repository.NewMongoRepository(collection, cfg.Database.Transactions)
		if err := mongoRepo.CreateIndexes(logger.WithContext(c)); err != nil {
			closeAll(c)
			return nil, nil, err
		}
		repo = mongoRepo
		logger.Info().Msg("initialized database")
	default:
		err := fmt.Errorf("unknown db.driver=%s", cfg.Database.Driver)
		logger.Error().Err(err).Msg(err.Error())
		return nil, nil, err
	}

	if cache := infra.NewCacheClient(logger.WithContext(c), cfg.Cache); cache != nil {
		closers = append(closers, func(context.Context) {
			logger.Info().Msg("shutting down cache")
			if err := cache.Close(); err != nil {
				err = fmt.Errorf("failed shutting down cache with error=%w", err)
				logger.Error().Err(err).Msg(err.Error())
				return
			}
			logger.Info().Msg("shutdown cache")
		})
		repo = repository.NewCachedRepository(repo, cache, time.Duration(cfg.Cache.TTLMinutes)*time.Minute)
	}

	return repo, closeAll, nil
}

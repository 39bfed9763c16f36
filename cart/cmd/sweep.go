package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	commonOtel "github.com/Alturino/shopcart/cart/internal/common/otel"
	"github.com/Alturino/shopcart/cart/internal/service"
	"github.com/Alturino/shopcart/cart/internal/sweeper"
	"github.com/Alturino/shopcart/internal/config"
	"github.com/Alturino/shopcart/internal/constants"
	inErrors "github.com/Alturino/shopcart/internal/errors"
	"github.com/Alturino/shopcart/internal/log"
	"github.com/Alturino/shopcart/internal/otel"
)

// RunSweep deletes expired guest carts once and exits.
func RunSweep(c context.Context) error {
	c, span := commonOtel.Tracer.Start(c, "RunSweep")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyAppName, constants.APP_CART_SWEEPER).
		Str(log.KeyTag, "main RunSweep").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "init config").Logger()
	logger.Info().Msg("initializing config")
	c = logger.WithContext(c)
	cfg := config.InitConfig(c, constants.APP_CART_SERVICE)
	logger.Info().Msg("initialized config")

	logger = logger.With().Str(log.KeyProcess, "initializing otel sdk").Logger()
	logger.Info().Msg("initializing otel sdk")
	otelShutdowns, err := otel.InitOtelSdk(logger.WithContext(c), constants.APP_CART_SWEEPER, cfg.Otel)
	if err != nil {
		err = fmt.Errorf("failed initializing otel sdk with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	defer func() {
		if err := otel.ShutdownOtel(context.WithoutCancel(c), otelShutdowns); err != nil {
			err = fmt.Errorf("failed shutting down otel with error=%w", err)
			logger.Error().Err(err).Msg(err.Error())
		}
	}()
	logger.Info().Msg("initialized otel sdk")

	logger = logger.With().Str(log.KeyProcess, "initializing repository").Logger()
	logger.Info().Msg("initializing repository")
	c = logger.WithContext(c)
	repo, closeRepository, err := newRepository(c, cfg)
	if err != nil {
		err = fmt.Errorf("failed initializing repository with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	defer closeRepository(context.WithoutCancel(c))
	logger.Info().Msg("initialized repository")

	cartService := service.NewCartService(repo)
	cartSweeper, err := sweeper.NewSweeper(c, cartService, cfg.Cart.CleanupSchedule, cfg.Cart.CleanupTimezone)
	if err != nil {
		err = fmt.Errorf("failed initializing sweeper with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	logger = logger.With().Str(log.KeyProcess, "sweeping expired guest carts").Logger()
	deleted, err := cartSweeper.RunOnce(logger.WithContext(c))
	if err != nil {
		inErrors.HandleError(err, span)
		return err
	}
	logger.Info().Int64(log.KeyDeletedCount, deleted).Msg("swept expired guest carts")
	return nil
}

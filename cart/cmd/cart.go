package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Alturino/shopcart/cart/internal/common/metrics"
	commonOtel "github.com/Alturino/shopcart/cart/internal/common/otel"
	"github.com/Alturino/shopcart/cart/internal/controller"
	"github.com/Alturino/shopcart/cart/internal/service"
	"github.com/Alturino/shopcart/cart/internal/sweeper"
	"github.com/Alturino/shopcart/internal/config"
	"github.com/Alturino/shopcart/internal/constants"
	inErrors "github.com/Alturino/shopcart/internal/errors"
	"github.com/Alturino/shopcart/internal/log"
	"github.com/Alturino/shopcart/internal/middleware"
	"github.com/Alturino/shopcart/internal/otel"
)

func RunCartService(c context.Context) error {
	c, span := commonOtel.Tracer.Start(c, "RunCartService")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyAppName, constants.APP_CART_SERVICE).
		Str(log.KeyTag, "main RunCartService").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "init config").Logger()
	logger.Info().Msg("initializing config")
	c = logger.WithContext(c)
	cfg := config.InitConfig(c, constants.APP_CART_SERVICE)
	logger = logger.With().Any(log.KeyConfig, cfg).Logger()
	logger.Info().Msg("initialized config")

	logger = logger.With().Str(log.KeyProcess, "initializing otel sdk").Logger()
	logger.Info().Msg("initializing otel sdk")
	c = logger.WithContext(c)
	otelShutdowns, err := otel.InitOtelSdk(c, constants.APP_CART_SERVICE, cfg.Otel)
	if err != nil {
		err = fmt.Errorf("failed initializing otel sdk with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	defer func() {
		logger.Info().Msg("shutting down otel")
		if err := otel.ShutdownOtel(context.WithoutCancel(c), otelShutdowns); err != nil {
			err = fmt.Errorf("failed shutting down otel with error=%w", err)
			logger.Error().Err(err).Msg(err.Error())
			return
		}
		logger.Info().Msg("shutdown otel")
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

	logger = logger.With().Str(log.KeyProcess, "initializing metrics").Logger()
	logger.Info().Msg("initializing metrics")
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	cartMetrics := metrics.NewMetrics(registry)
	logger.Info().Msg("initialized metrics")

	logger = logger.With().Str(log.KeyProcess, "initializing cart service").Logger()
	logger.Info().Msg("initializing cart service")
	cartService := service.NewCartService(
		repo,
		service.WithMetrics(cartMetrics),
		service.WithGuestExpiry(time.Duration(cfg.Cart.GuestExpiryDays)*24*time.Hour),
	)
	logger.Info().Msg("initialized cart service")

	logger = logger.With().Str(log.KeyProcess, "initializing sweeper").Logger()
	logger.Info().Msg("initializing sweeper")
	c = logger.WithContext(c)
	cartSweeper, err := sweeper.NewSweeper(c, cartService, cfg.Cart.CleanupSchedule, cfg.Cart.CleanupTimezone)
	if err != nil {
		err = fmt.Errorf("failed initializing sweeper with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	cartSweeper.Start()
	defer cartSweeper.Stop(context.WithoutCancel(c))
	logger.Info().Time("next", cartSweeper.Next()).Msg("initialized sweeper")

	logger = logger.With().Str(log.KeyProcess, "initializing router").Logger()
	logger.Info().Msg("initializing router")
	router := mux.NewRouter()
	router.Use(
		otelmux.Middleware(constants.APP_CART_SERVICE),
		middleware.Logging,
		middleware.RecoverPanic,
	)
	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(constants.HEALTH_CHECK_TEXT))
	}).Methods(http.MethodGet)
	router.Handle("/metrics", otelhttp.NewHandler(
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		"metrics",
	)).Methods(http.MethodGet)
	controller.AttachCartController(router, cartService, cfg.Application.SecretKey)
	logger.Info().Msg("initialized router")

	logger = logger.With().Str(log.KeyProcess, "initializing server").Logger()
	logger.Info().Msg("initializing server")
	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.Application.AllowedOrigins),
		handlers.AllowedMethods([]string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Request-Id"}),
		handlers.AllowCredentials(),
	)
	httpServer := http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Application.Host, cfg.Application.Port),
		BaseContext:  func(net.Listener) context.Context { return c },
		Handler:      cors(router),
		ReadTimeout:  45 * time.Second,
		WriteTimeout: 45 * time.Second,
	}
	logger.Info().Msg("initialized server")

	serverErr := make(chan error, 1)
	go func() {
		logger := logger.With().Str(log.KeyProcess, "start server").Logger()
		logger.Info().Msgf("start listening request at %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("error=%w occured while server is running", err)
			return
		}
		logger.Info().Msg("server stopped listening")
	}()

	select {
	case <-c.Done():
		logger.Info().Msg("received interuption signal shutting down")
	case err = <-serverErr:
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	logger = logger.With().Str(log.KeyProcess, "shutting down http server").Logger()
	logger.Info().Msg("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(c), 15*time.Second)
	defer cancel()
	if err = httpServer.Shutdown(shutdownCtx); err != nil {
		err = fmt.Errorf("failed shutting down http server with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("shutdown http server")
	return nil
}

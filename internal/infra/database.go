package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"

	"github.com/Alturino/shopcart/internal/config"
	"github.com/Alturino/shopcart/internal/log"
	"github.com/Alturino/shopcart/internal/otel"
)

func NewDatabaseClient(c context.Context, dbConfig config.Database) *mongo.Client {
	c, span := otel.Tracer.Start(c, "main NewDatabaseClient")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "main NewDatabaseClient").
		Str(log.KeyProcess, "connecting to database").
		Logger()

	logger.Info().Msg("connecting to database")

	logger = logger.With().Str(log.KeyProcess, "initializing mongo client options").Logger()
	logger.Info().Msg("initializing mongo client options")
	opts := options.Client().
		ApplyURI(dbConfig.URI).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(dbConfig.MaxPoolSize).
		SetMinPoolSize(dbConfig.MinPoolSize).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true}).
		SetMonitor(otelmongo.NewMonitor())
	logger.Info().Msg("initialized mongo client options")

	logger = logger.With().Str(log.KeyProcess, "creating mongo client").Logger()
	logger.Info().Msg("creating mongo client")
	client, err := mongo.Connect(c, opts)
	if err != nil {
		err = fmt.Errorf("failed creating mongo client with error=%w", err)
		logger.Fatal().Err(err).Msg(err.Error())
	}
	logger.Info().Msg("created mongo client")

	logger = logger.With().Str(log.KeyProcess, "ping db").Logger()
	logger.Info().Msg("ping db")
	err = client.Ping(c, nil)
	if err != nil {
		err = fmt.Errorf("failed ping db with error=%w", err)
		logger.Fatal().Err(err).Msg(err.Error())
	}
	logger.Info().Msg("successed ping db")

	logger.Info().
		Str(log.KeyProcess, "connecting to database").
		Msg("successed connecting to database")

	return client
}

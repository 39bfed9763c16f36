package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Alturino/shopcart/cart/internal/common/otel"
	inErrors "github.com/Alturino/shopcart/internal/errors"
	"github.com/Alturino/shopcart/internal/log"
)

type MongoRepository struct {
	collection   *mongo.Collection
	transactions bool
}

// NewMongoRepository stores carts in collection. When transactions is set
// CommitMerge runs inside a session transaction, which requires a replica set.
func NewMongoRepository(collection *mongo.Collection, transactions bool) *MongoRepository {
	return &MongoRepository{collection: collection, transactions: transactions}
}

func (r *MongoRepository) CreateIndexes(c context.Context) error {
	c, span := otel.Tracer.Start(c, "MongoRepository CreateIndexes")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "MongoRepository CreateIndexes").
		Str(log.KeyProcess, "creating indexes").
		Logger()

	logger.Info().Msg("creating indexes")
	_, err := r.collection.Indexes().CreateMany(c, []mongo.IndexModel{
		{Keys: bson.D{{Key: FieldType, Value: 1}, {Key: FieldExpiresAt, Value: 1}}},
	})
	if err != nil {
		err = inErrors.NewStoreError("create indexes", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("created indexes")
	return nil
}

func (r *MongoRepository) Get(c context.Context, key string) (Cart, error) {
	c, span := otel.Tracer.Start(c, "MongoRepository Get")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "MongoRepository Get").
		Str(log.KeyCartID, key).
		Logger()

	cart := Cart{}
	err := r.collection.FindOne(c, bson.M{FieldID: key}).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		err = fmt.Errorf("failed finding cartId=%s with error=%w", key, inErrors.ErrCartNotFound)
		logger.Debug().Err(err).Msg(err.Error())
		return Cart{}, err
	}
	if err != nil {
		err = inErrors.NewStoreError("find cart", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Cart{}, err
	}
	if cart.Items == nil {
		cart.Items = []CartItem{}
	}
	return cart, nil
}

func (r *MongoRepository) Put(c context.Context, cart Cart) error {
	c, span := otel.Tracer.Start(c, "MongoRepository Put")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "MongoRepository Put").
		Str(log.KeyCartID, cart.ID).
		Logger()

	if cart.Items == nil {
		cart.Items = []CartItem{}
	}
	_, err := r.collection.ReplaceOne(c, bson.M{FieldID: cart.ID}, cart, options.Replace().SetUpsert(true))
	if err != nil {
		err = inErrors.NewStoreError("replace cart", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	return nil
}

func (r *MongoRepository) Patch(c context.Context, key string, patch Patch) error {
	c, span := otel.Tracer.Start(c, "MongoRepository Patch")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "MongoRepository Patch").
		Str(log.KeyCartID, key).
		Int(log.KeyCartItemsCount, len(patch.Items)).
		Logger()

	items := patch.Items
	if items == nil {
		items = []CartItem{}
	}
	result, err := r.collection.UpdateOne(
		c,
		bson.M{FieldID: key},
		bson.M{"$set": bson.M{FieldItems: items, FieldUpdatedAt: patch.UpdatedAt}},
	)
	if err != nil {
		err = inErrors.NewStoreError("update cart", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	if result.MatchedCount == 0 {
		err = fmt.Errorf("failed patching cartId=%s with error=%w", key, inErrors.ErrCartNotFound)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	return nil
}

func (r *MongoRepository) Delete(c context.Context, key string) error {
	c, span := otel.Tracer.Start(c, "MongoRepository Delete")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "MongoRepository Delete").
		Str(log.KeyCartID, key).
		Logger()

	_, err := r.collection.DeleteOne(c, bson.M{FieldID: key})
	if err != nil {
		err = inErrors.NewStoreError("delete cart", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	return nil
}

func (r *MongoRepository) QueryExpiredGuestCarts(c context.Context, now time.Time) ([]Cart, error) {
	c, span := otel.Tracer.Start(c, "MongoRepository QueryExpiredGuestCarts")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "MongoRepository QueryExpiredGuestCarts").
		Time(log.KeyExpiresAt, now).
		Logger()

	cursor, err := r.collection.Find(c, bson.M{
		FieldType:      CartTypeGuest,
		FieldExpiresAt: bson.M{"$lt": now},
	})
	if err != nil {
		err = inErrors.NewStoreError("find expired carts", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}

	carts := []Cart{}
	if err = cursor.All(c, &carts); err != nil {
		err = inErrors.NewStoreError("decode expired carts", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	return carts, nil
}

func (r *MongoRepository) BatchDelete(c context.Context, keys []string) (int64, error) {
	c, span := otel.Tracer.Start(c, "MongoRepository BatchDelete")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "MongoRepository BatchDelete").
		Int(log.KeyCartItemsCount, len(keys)).
		Logger()

	if len(keys) == 0 {
		return 0, nil
	}
	result, err := r.collection.DeleteMany(c, bson.M{FieldID: bson.M{"$in": keys}})
	if err != nil {
		err = inErrors.NewStoreError("delete carts", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return 0, err
	}
	return result.DeletedCount, nil
}

func (r *MongoRepository) CommitMerge(c context.Context, write MergeWrite) error {
	c, span := otel.Tracer.Start(c, "MongoRepository CommitMerge")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "MongoRepository CommitMerge").
		Str(log.KeyCartID, write.UserCart.ID).
		Str(log.KeyGuestID, write.GuestKey).
		Bool("transactional", r.transactions).
		Logger()

	if !r.transactions {
		return r.commitMerge(c, write)
	}

	logger = logger.With().Str(log.KeyProcess, "starting session").Logger()
	logger.Debug().Msg("starting session")
	session, err := r.collection.Database().Client().StartSession()
	if err != nil {
		err = inErrors.NewStoreError("start session", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	defer session.EndSession(c)

	logger = logger.With().Str(log.KeyProcess, "committing merge in transaction").Logger()
	logger.Debug().Msg("committing merge in transaction")
	_, err = session.WithTransaction(c, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, r.commitMerge(sc, write)
	})
	if err != nil {
		if !inErrors.IsStoreError(err) {
			err = inErrors.NewStoreError("merge transaction", err)
		}
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Debug().Msg("committed merge in transaction")
	return nil
}

func (r *MongoRepository) commitMerge(c context.Context, write MergeWrite) error {
	cart := write.UserCart
	items := cart.Items
	if items == nil {
		items = []CartItem{}
	}

	_, err := r.collection.UpdateOne(
		c,
		bson.M{FieldID: cart.ID},
		bson.M{
			"$set": bson.M{
				FieldType:      CartTypeUser,
				FieldUserID:    cart.UserID,
				FieldItems:     items,
				FieldUpdatedAt: cart.UpdatedAt,
			},
			"$setOnInsert": bson.M{FieldCreatedAt: cart.CreatedAt},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return inErrors.NewStoreError("upsert user cart", err)
	}

	_, err = r.collection.DeleteOne(c, bson.M{FieldID: write.GuestKey})
	if err != nil {
		return inErrors.NewStoreError("delete guest cart", err)
	}
	return nil
}

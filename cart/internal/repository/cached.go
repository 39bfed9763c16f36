package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Alturino/shopcart/cart/internal/common/otel"
	inErrors "github.com/Alturino/shopcart/internal/errors"
	"github.com/Alturino/shopcart/internal/log"
)

const (
	cacheKeyPrefix      = "cart:"
	generationKeyPrefix = "cart:gen:"
)

var errGenerationChanged = errors.New("cart generation changed")

func cacheKey(key string) string {
	return cacheKeyPrefix + key
}

// generationKey counts the evictions of key. A fill is only written when the
// count read before the store read is still current.
func generationKey(key string) string {
	return generationKeyPrefix + key
}

// CachedRepository is a cache-aside decorator. Reads are served from redis
// when possible and every write evicts the keys it touches. Redis failures
// are logged and never fail the call.
type CachedRepository struct {
	Repository
	cache *redis.Client
	ttl   time.Duration
}

func NewCachedRepository(repository Repository, cache *redis.Client, ttl time.Duration) *CachedRepository {
	return &CachedRepository{Repository: repository, cache: cache, ttl: ttl}
}

func (r *CachedRepository) Get(c context.Context, key string) (Cart, error) {
	c, span := otel.Tracer.Start(c, "CachedRepository Get")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "CachedRepository Get").
		Str(log.KeyCacheKey, cacheKey(key)).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding cart in cache").Logger()
	logger.Trace().Msg("finding cart in cache")
	cached, err := r.cache.Get(c, cacheKey(key)).Bytes()
	switch {
	case err == nil:
		cart := Cart{}
		if err = json.Unmarshal(cached, &cart); err == nil {
			logger.Trace().Msg("found cart in cache")
			return cart, nil
		}
		err = fmt.Errorf("failed unmarshaling cached cart with error=%w", err)
		logger.Warn().Err(err).Msg(err.Error())
	case errors.Is(err, redis.Nil):
		logger.Trace().Msg("cart not found in cache")
	default:
		err = fmt.Errorf("failed finding cart in cache with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Warn().Err(err).Msg(err.Error())
	}

	logger = logger.With().Str(log.KeyProcess, "finding cart generation").Logger()
	logger.Trace().Msg("finding cart generation")
	expected, err := generation(c, r.cache, key)
	fillable := err == nil
	if err != nil {
		err = fmt.Errorf("failed finding cart generation with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Warn().Err(err).Msg(err.Error())
	}

	cart, err := r.Repository.Get(c, key)
	if err != nil {
		return Cart{}, err
	}
	if !fillable {
		return cart, nil
	}

	logger = logger.With().Str(log.KeyProcess, "caching cart").Logger()
	logger.Trace().Msg("caching cart")
	marshaled, err := json.Marshal(cart)
	if err != nil {
		err = fmt.Errorf("failed marshaling cart with error=%w", err)
		logger.Warn().Err(err).Msg(err.Error())
		return cart, nil
	}
	err = r.cache.Watch(c, func(tx *redis.Tx) error {
		current, err := generation(c, tx, key)
		if err != nil {
			return err
		}
		if current != expected {
			return errGenerationChanged
		}
		_, err = tx.TxPipelined(c, func(pipe redis.Pipeliner) error {
			pipe.Set(c, cacheKey(key), marshaled, r.ttl)
			return nil
		})
		return err
	}, generationKey(key))
	switch {
	case err == nil:
		logger.Trace().Msg("cached cart")
	case errors.Is(err, errGenerationChanged), errors.Is(err, redis.TxFailedErr):
		logger.Debug().Msg("cart changed while reading store, skipped caching")
	default:
		err = fmt.Errorf("failed caching cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Warn().Err(err).Msg(err.Error())
	}
	return cart, nil
}

type stringGetter interface {
	Get(c context.Context, key string) *redis.StringCmd
}

func generation(c context.Context, cache stringGetter, key string) (int64, error) {
	generation, err := cache.Get(c, generationKey(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return generation, err
}

func (r *CachedRepository) Put(c context.Context, cart Cart) error {
	if err := r.Repository.Put(c, cart); err != nil {
		return err
	}
	r.evict(c, cart.ID)
	return nil
}

func (r *CachedRepository) Patch(c context.Context, key string, patch Patch) error {
	if err := r.Repository.Patch(c, key, patch); err != nil {
		return err
	}
	r.evict(c, key)
	return nil
}

func (r *CachedRepository) Delete(c context.Context, key string) error {
	if err := r.Repository.Delete(c, key); err != nil {
		return err
	}
	r.evict(c, key)
	return nil
}

func (r *CachedRepository) BatchDelete(c context.Context, keys []string) (int64, error) {
	deleted, err := r.Repository.BatchDelete(c, keys)
	if err != nil {
		return 0, err
	}
	r.evict(c, keys...)
	return deleted, nil
}

func (r *CachedRepository) CommitMerge(c context.Context, write MergeWrite) error {
	if err := r.Repository.CommitMerge(c, write); err != nil {
		return err
	}
	r.evict(c, write.UserCart.ID, write.GuestKey)
	return nil
}

func (r *CachedRepository) evict(c context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}

	c, span := otel.Tracer.Start(c, "CachedRepository evict")
	defer span.End()

	cacheKeys := make([]string, 0, len(keys))
	for _, key := range keys {
		cacheKeys = append(cacheKeys, cacheKey(key))
	}
	generationTTL := 2 * r.ttl

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "CachedRepository evict").
		Strs(log.KeyCacheKey, cacheKeys).
		Logger()

	_, err := r.cache.TxPipelined(c, func(pipe redis.Pipeliner) error {
		for _, key := range keys {
			pipe.Incr(c, generationKey(key))
			if generationTTL > 0 {
				pipe.Expire(c, generationKey(key), generationTTL)
			}
		}
		pipe.Del(c, cacheKeys...)
		return nil
	})
	if err != nil {
		err = fmt.Errorf("failed evicting carts from cache with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Warn().Err(err).Msg(err.Error())
	}
}

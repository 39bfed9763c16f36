package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/Alturino/shopcart/cart/internal/common/metrics"
	"github.com/Alturino/shopcart/cart/internal/common/otel"
	"github.com/Alturino/shopcart/cart/internal/repository"
	inErrors "github.com/Alturino/shopcart/internal/errors"
	"github.com/Alturino/shopcart/internal/log"
)

const DefaultGuestExpiry = 30 * 24 * time.Hour

type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

type CartService struct {
	repository  repository.Repository
	metrics     *metrics.Metrics
	now         Clock
	guestExpiry time.Duration
}

type Option func(*CartService)

func WithClock(now Clock) Option {
	return func(svc *CartService) { svc.now = now }
}

func WithGuestExpiry(expiry time.Duration) Option {
	return func(svc *CartService) {
		if expiry > 0 {
			svc.guestExpiry = expiry
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(svc *CartService) { svc.metrics = m }
}

func NewCartService(repository repository.Repository, opts ...Option) CartService {
	svc := CartService{
		repository:  repository,
		now:         systemClock,
		guestExpiry: DefaultGuestExpiry,
	}
	for _, opt := range opts {
		opt(&svc)
	}
	return svc
}

// UserCart is the result of GetUserCart. Persisted is false when no record
// exists and Cart is the empty default.
type UserCart struct {
	Cart      repository.Cart
	Persisted bool
}

func StoredUserCart(cart repository.Cart) UserCart {
	return UserCart{Cart: cart, Persisted: true}
}

func SyntheticUserCart(userID string) UserCart {
	return UserCart{
		Cart: repository.Cart{
			ID:     repository.KeyFor(repository.CartTypeUser, userID),
			Type:   repository.CartTypeUser,
			UserID: userID,
			Items:  []repository.CartItem{},
		},
	}
}

type MergeResult struct {
	Cart        repository.Cart
	MergedCount int
	Message     string
}

func (svc CartService) CreateGuestCart(
	c context.Context,
	guestID string,
	items []repository.CartItem,
) (repository.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService CreateGuestCart", trace.WithAttributes(
		attribute.String(log.KeyGuestID, guestID),
		attribute.Int(log.KeyCartItemsCount, len(items)),
	))
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService CreateGuestCart").
		Str(log.KeyGuestID, guestID).
		Int(log.KeyCartItemsCount, len(items)).
		Logger()

	if guestID == "" {
		err := inErrors.Validation("guestId is required")
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return repository.Cart{}, err
	}

	now := svc.now()
	expiresAt := now.Add(svc.guestExpiry)
	cart := repository.Cart{
		ID:        repository.KeyFor(repository.CartTypeGuest, guestID),
		Type:      repository.CartTypeGuest,
		Items:     repository.CloneItems(items),
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: &expiresAt,
	}

	logger = logger.With().Str(log.KeyProcess, "inserting guest cart").Str(log.KeyCartID, cart.ID).Logger()
	logger.Info().Msg("inserting guest cart")
	err := svc.repository.Put(c, cart)
	if err != nil {
		err = fmt.Errorf("failed inserting guest cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return repository.Cart{}, err
	}
	logger.Info().Time(log.KeyExpiresAt, expiresAt).Msg("inserted guest cart")

	return cart, nil
}

func (svc CartService) GetGuestCart(c context.Context, guestID string) (repository.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService GetGuestCart", trace.WithAttributes(
		attribute.String(log.KeyGuestID, guestID),
	))
	defer span.End()

	key := repository.KeyFor(repository.CartTypeGuest, guestID)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService GetGuestCart").
		Str(log.KeyCartID, key).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding guest cart").Logger()
	logger.Info().Msg("finding guest cart")
	cart, err := svc.repository.Get(c, key)
	if err != nil {
		err = fmt.Errorf("failed finding guest cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return repository.Cart{}, err
	}
	logger.Info().Msg("found guest cart")

	now := svc.now()
	if cart.IsExpired(now) {
		logger = logger.With().
			Str(log.KeyProcess, "deleting expired guest cart").
			Time(log.KeyExpiresAt, *cart.ExpiresAt).
			Logger()
		logger.Info().Msg("deleting expired guest cart")
		err = svc.repository.Delete(c, key)
		if err != nil {
			err = fmt.Errorf("failed deleting expired guest cart with error=%w", err)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return repository.Cart{}, err
		}
		svc.metrics.ExpiredRead()
		logger.Info().Msg("deleted expired guest cart")

		err = fmt.Errorf("failed getting guest cart with error=%w", inErrors.ErrCartExpired)
		inErrors.HandleError(err, span)
		return repository.Cart{}, err
	}

	return cart, nil
}

func (svc CartService) UpdateGuestCart(
	c context.Context,
	guestID string,
	items []repository.CartItem,
) (repository.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService UpdateGuestCart", trace.WithAttributes(
		attribute.String(log.KeyGuestID, guestID),
		attribute.Int(log.KeyCartItemsCount, len(items)),
	))
	defer span.End()

	key := repository.KeyFor(repository.CartTypeGuest, guestID)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService UpdateGuestCart").
		Str(log.KeyCartID, key).
		Int(log.KeyCartItemsCount, len(items)).
		Logger()
	c = logger.WithContext(c)

	if items == nil {
		err := inErrors.Validation("items must be an array")
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return repository.Cart{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "finding guest cart").Logger()
	logger.Info().Msg("finding guest cart")
	cart, err := svc.repository.Get(c, key)
	if errors.Is(err, inErrors.ErrCartNotFound) {
		logger.Info().Msg("guest cart not found creating new guest cart")
		return svc.CreateGuestCart(c, guestID, items)
	}
	if err != nil {
		err = fmt.Errorf("failed finding guest cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return repository.Cart{}, err
	}
	logger.Info().Msg("found guest cart")

	return svc.replaceItems(c, span, logger, cart, items)
}

func (svc CartService) GetUserCart(c context.Context, userID string) (UserCart, error) {
	c, span := otel.Tracer.Start(c, "CartService GetUserCart", trace.WithAttributes(
		attribute.String(log.KeyUserID, userID),
	))
	defer span.End()

	key := repository.KeyFor(repository.CartTypeUser, userID)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService GetUserCart").
		Str(log.KeyCartID, key).
		Str(log.KeyProcess, "finding user cart").
		Logger()

	logger.Info().Msg("finding user cart")
	cart, err := svc.repository.Get(c, key)
	if errors.Is(err, inErrors.ErrCartNotFound) {
		logger.Info().Msg("user cart not found returning empty cart")
		return SyntheticUserCart(userID), nil
	}
	if err != nil {
		err = fmt.Errorf("failed finding user cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return UserCart{}, err
	}
	logger.Info().Msg("found user cart")

	return StoredUserCart(cart), nil
}

func (svc CartService) UpdateUserCart(
	c context.Context,
	userID string,
	items []repository.CartItem,
) (repository.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService UpdateUserCart", trace.WithAttributes(
		attribute.String(log.KeyUserID, userID),
		attribute.Int(log.KeyCartItemsCount, len(items)),
	))
	defer span.End()

	key := repository.KeyFor(repository.CartTypeUser, userID)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService UpdateUserCart").
		Str(log.KeyCartID, key).
		Int(log.KeyCartItemsCount, len(items)).
		Logger()

	if items == nil {
		err := inErrors.Validation("items must be an array")
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return repository.Cart{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "finding user cart").Logger()
	logger.Info().Msg("finding user cart")
	cart, err := svc.repository.Get(c, key)
	if errors.Is(err, inErrors.ErrCartNotFound) {
		now := svc.now()
		cart = repository.Cart{
			ID:        key,
			Type:      repository.CartTypeUser,
			UserID:    userID,
			Items:     repository.CloneItems(items),
			CreatedAt: now,
			UpdatedAt: now,
		}

		logger = logger.With().Str(log.KeyProcess, "inserting user cart").Logger()
		logger.Info().Msg("inserting user cart")
		err = svc.repository.Put(c, cart)
		if err != nil {
			err = fmt.Errorf("failed inserting user cart with error=%w", err)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return repository.Cart{}, err
		}
		logger.Info().Msg("inserted user cart")
		return cart, nil
	}
	if err != nil {
		err = fmt.Errorf("failed finding user cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return repository.Cart{}, err
	}
	logger.Info().Msg("found user cart")

	return svc.replaceItems(c, span, logger, cart, items)
}

func (svc CartService) DeleteUserCart(c context.Context, userID string) (repository.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService DeleteUserCart", trace.WithAttributes(
		attribute.String(log.KeyUserID, userID),
	))
	defer span.End()

	key := repository.KeyFor(repository.CartTypeUser, userID)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService DeleteUserCart").
		Str(log.KeyCartID, key).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding user cart").Logger()
	logger.Info().Msg("finding user cart")
	cart, err := svc.repository.Get(c, key)
	if err != nil {
		err = fmt.Errorf("failed finding user cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return repository.Cart{}, err
	}
	logger.Info().Msg("found user cart")

	return svc.replaceItems(c, span, logger, cart, []repository.CartItem{})
}

// replaceItems overwrites the items of an existing cart. The last writer wins.
func (svc CartService) replaceItems(
	c context.Context,
	span trace.Span,
	logger zerolog.Logger,
	cart repository.Cart,
	items []repository.CartItem,
) (repository.Cart, error) {
	cart.Items = repository.CloneItems(items)
	cart.UpdatedAt = svc.now()

	logger = logger.With().Str(log.KeyProcess, "replacing cart items").Logger()
	logger.Info().Msg("replacing cart items")
	err := svc.repository.Patch(c, cart.ID, repository.Patch{Items: cart.Items, UpdatedAt: cart.UpdatedAt})
	if err != nil {
		err = fmt.Errorf("failed replacing cart items with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return repository.Cart{}, err
	}
	logger.Info().Msg("replaced cart items")

	return cart, nil
}

func (svc CartService) MergeCart(c context.Context, guestID, userID string) (result MergeResult, err error) {
	c, span := otel.Tracer.Start(c, "CartService MergeCart", trace.WithAttributes(
		attribute.String(log.KeyGuestID, guestID),
		attribute.String(log.KeyUserID, userID),
	))
	defer span.End()
	defer func() { svc.metrics.Merge(err, result.MergedCount) }()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService MergeCart").
		Str(log.KeyGuestID, guestID).
		Str(log.KeyUserID, userID).
		Logger()

	if guestID == "" || userID == "" {
		err = inErrors.Validation("guestId and userId are required")
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return MergeResult{}, err
	}

	guestKey := repository.KeyFor(repository.CartTypeGuest, guestID)
	userKey := repository.KeyFor(repository.CartTypeUser, userID)

	logger = logger.With().Str(log.KeyProcess, "finding guest and user carts").Logger()
	logger.Info().Msg("finding guest and user carts")
	var (
		guestCart, userCart   repository.Cart
		guestFound, userFound bool
	)
	g, gc := errgroup.WithContext(c)
	g.Go(func() error {
		var err error
		guestCart, guestFound, err = svc.find(gc, guestKey)
		return err
	})
	g.Go(func() error {
		var err error
		userCart, userFound, err = svc.find(gc, userKey)
		return err
	})
	if err = g.Wait(); err != nil {
		err = fmt.Errorf("failed finding carts to merge with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return MergeResult{}, err
	}
	logger.Info().Bool("guestFound", guestFound).Bool("userFound", userFound).Msg("found guest and user carts")

	merged := []repository.CartItem{}
	if userFound {
		merged = repository.CloneItems(userCart.Items)
	}
	mergedCount := 0
	if guestFound {
		merged = mergeItems(merged, guestCart.Items)
		mergedCount = len(guestCart.Items)
	}

	now := svc.now()
	cart := repository.Cart{
		ID:        userKey,
		Type:      repository.CartTypeUser,
		UserID:    userID,
		Items:     merged,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if userFound {
		cart.CreatedAt = userCart.CreatedAt
	}

	logger = logger.With().
		Str(log.KeyProcess, "committing merged cart").
		Int(log.KeyCartItemsMerged, mergedCount).
		Int(log.KeyCartItemsCount, len(merged)).
		Logger()
	logger.Info().Msg("committing merged cart")
	err = svc.repository.CommitMerge(c, repository.MergeWrite{UserCart: cart, GuestKey: guestKey})
	if err != nil {
		err = fmt.Errorf("failed committing merged cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return MergeResult{}, err
	}
	logger.Info().Msg("committed merged cart")

	return MergeResult{
		Cart:        cart,
		MergedCount: mergedCount,
		Message:     fmt.Sprintf("merged %d items from guest cart", mergedCount),
	}, nil
}

func (svc CartService) find(c context.Context, key string) (repository.Cart, bool, error) {
	cart, err := svc.repository.Get(c, key)
	if errors.Is(err, inErrors.ErrCartNotFound) {
		return repository.Cart{}, false, nil
	}
	if err != nil {
		return repository.Cart{}, false, err
	}
	return cart, true, nil
}

// mergeItems folds guest into merged in order. A guest item whose id is
// already present adds its quantity to the first match, otherwise it is
// appended.
func mergeItems(merged []repository.CartItem, guest []repository.CartItem) []repository.CartItem {
	for _, item := range guest {
		existing := -1
		for i, m := range merged {
			if m.ID() == item.ID() {
				existing = i
				break
			}
		}
		if existing < 0 {
			merged = append(merged, item.Clone())
			continue
		}
		merged[existing].SetQuantity(merged[existing].Quantity() + item.Quantity())
	}
	return merged
}

func (svc CartService) CleanupExpiredCarts(c context.Context, now time.Time) (deleted int64, err error) {
	c, span := otel.Tracer.Start(c, "CartService CleanupExpiredCarts")
	defer span.End()
	defer func() { svc.metrics.Sweep(err, deleted) }()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService CleanupExpiredCarts").
		Time("now", now).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding expired guest carts").Logger()
	logger.Info().Msg("finding expired guest carts")
	expired, err := svc.repository.QueryExpiredGuestCarts(c, now)
	if err != nil {
		err = fmt.Errorf("failed finding expired guest carts with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return 0, err
	}
	logger.Info().Int("expired", len(expired)).Msg("found expired guest carts")

	if len(expired) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(expired))
	for _, cart := range expired {
		keys = append(keys, cart.ID)
	}

	logger = logger.With().Str(log.KeyProcess, "deleting expired guest carts").Logger()
	logger.Info().Msg("deleting expired guest carts")
	deleted, err = svc.repository.BatchDelete(c, keys)
	if err != nil {
		err = fmt.Errorf("failed deleting expired guest carts with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return 0, err
	}
	logger.Info().Int64(log.KeyDeletedCount, deleted).Msg("deleted expired guest carts")

	return deleted, nil
}

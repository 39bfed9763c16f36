package repository

import (
	"context"
	"time"
)

// Repository persists carts by key. Get and Patch return
// errors.ErrCartNotFound for a missing key, every other failure is an
// *errors.StoreError.
type Repository interface {
	Get(c context.Context, key string) (Cart, error)
	Put(c context.Context, cart Cart) error
	Patch(c context.Context, key string, patch Patch) error
	Delete(c context.Context, key string) error
	QueryExpiredGuestCarts(c context.Context, now time.Time) ([]Cart, error)
	BatchDelete(c context.Context, keys []string) (int64, error)
	CommitMerge(c context.Context, write MergeWrite) error
}

type Patch struct {
	Items     []CartItem
	UpdatedAt time.Time
}

// MergeWrite upserts UserCart and then removes the cart stored at GuestKey.
// UserCart.CreatedAt is only written when the user cart does not exist yet.
type MergeWrite struct {
	UserCart Cart
	GuestKey string
}

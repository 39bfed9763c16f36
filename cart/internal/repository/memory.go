package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	inErrors "github.com/Alturino/shopcart/internal/errors"
)

// MemoryRepository keeps carts in process. Values are deep copied on the way
// in and out so callers never share item maps with the store.
type MemoryRepository struct {
	mu    sync.RWMutex
	carts map[string]Cart
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{carts: map[string]Cart{}}
}

func (r *MemoryRepository) Get(_ context.Context, key string) (Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cart, ok := r.carts[key]
	if !ok {
		return Cart{}, fmt.Errorf("failed finding cartId=%s with error=%w", key, inErrors.ErrCartNotFound)
	}
	return cart.Clone(), nil
}

func (r *MemoryRepository) Put(_ context.Context, cart Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.carts[cart.ID] = cart.Clone()
	return nil
}

func (r *MemoryRepository) Patch(_ context.Context, key string, patch Patch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart, ok := r.carts[key]
	if !ok {
		return fmt.Errorf("failed patching cartId=%s with error=%w", key, inErrors.ErrCartNotFound)
	}
	cart.Items = CloneItems(patch.Items)
	cart.UpdatedAt = patch.UpdatedAt
	r.carts[key] = cart
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.carts, key)
	return nil
}

func (r *MemoryRepository) QueryExpiredGuestCarts(_ context.Context, now time.Time) ([]Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	carts := []Cart{}
	for _, cart := range r.carts {
		if cart.Type == CartTypeGuest && cart.IsExpired(now) {
			carts = append(carts, cart.Clone())
		}
	}
	return carts, nil
}

func (r *MemoryRepository) BatchDelete(_ context.Context, keys []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for _, key := range keys {
		if _, ok := r.carts[key]; ok {
			delete(r.carts, key)
			deleted++
		}
	}
	return deleted, nil
}

func (r *MemoryRepository) CommitMerge(_ context.Context, write MergeWrite) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart := write.UserCart.Clone()
	cart.Type = CartTypeUser
	cart.ExpiresAt = nil
	if existing, ok := r.carts[cart.ID]; ok {
		cart.CreatedAt = existing.CreatedAt
	}
	r.carts[cart.ID] = cart
	delete(r.carts, write.GuestKey)
	return nil
}

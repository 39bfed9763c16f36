package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inErrors "github.com/Alturino/shopcart/internal/errors"
)

var baseTime = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

func guestCart(guestID string, createdAt time.Time, items ...CartItem) Cart {
	expiresAt := createdAt.Add(30 * 24 * time.Hour)
	if items == nil {
		items = []CartItem{}
	}
	return Cart{
		ID:        KeyFor(CartTypeGuest, guestID),
		Type:      CartTypeGuest,
		Items:     items,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
		ExpiresAt: &expiresAt,
	}
}

func userCart(userID string, createdAt time.Time, items ...CartItem) Cart {
	if items == nil {
		items = []CartItem{}
	}
	return Cart{
		ID:        KeyFor(CartTypeUser, userID),
		Type:      CartTypeUser,
		UserID:    userID,
		Items:     items,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

type repositoryTest struct {
	name string
	run  func(t *testing.T, c context.Context, repo Repository)
}

// testRepository runs the behaviour every Repository implementation shares.
func testRepository(t *testing.T, newRepository func(t *testing.T) Repository) {
	tests := []repositoryTest{
		{
			name: "given missing key when get should return not found",
			run: func(t *testing.T, c context.Context, repo Repository) {
				_, err := repo.Get(c, KeyFor(CartTypeGuest, "missing"))
				assert.ErrorIs(t, err, inErrors.ErrCartNotFound)
			},
		},
		{
			name: "given put cart when get should return the same cart",
			run: func(t *testing.T, c context.Context, repo Repository) {
				cart := guestCart("g1", baseTime, CartItem{"id": "A", "cantidad": 2, "name": "apple"})
				require.NoError(t, repo.Put(c, cart))

				actual, err := repo.Get(c, cart.ID)
				require.NoError(t, err)
				assert.Equal(t, cart.ID, actual.ID)
				assert.Equal(t, CartTypeGuest, actual.Type)
				assert.Empty(t, actual.UserID)
				assert.True(t, cart.CreatedAt.Equal(actual.CreatedAt))
				require.NotNil(t, actual.ExpiresAt)
				assert.True(t, cart.ExpiresAt.Equal(*actual.ExpiresAt))
				require.Len(t, actual.Items, 1)
				assert.Equal(t, "A", actual.Items[0].ID())
				assert.EqualValues(t, 2, actual.Items[0].Quantity())
				assert.Equal(t, "apple", actual.Items[0]["name"])
			},
		},
		{
			name: "given existing cart when put should overwrite it",
			run: func(t *testing.T, c context.Context, repo Repository) {
				require.NoError(t, repo.Put(c, guestCart("g1", baseTime, CartItem{"id": "A", "cantidad": 2})))
				later := baseTime.Add(time.Hour)
				require.NoError(t, repo.Put(c, guestCart("g1", later)))

				actual, err := repo.Get(c, KeyFor(CartTypeGuest, "g1"))
				require.NoError(t, err)
				assert.Empty(t, actual.Items)
				assert.True(t, later.Equal(actual.CreatedAt))
			},
		},
		{
			name: "given existing cart when patch should replace items and updatedAt only",
			run: func(t *testing.T, c context.Context, repo Repository) {
				cart := guestCart("g1", baseTime, CartItem{"id": "A", "cantidad": 2})
				require.NoError(t, repo.Put(c, cart))

				updatedAt := baseTime.Add(time.Minute)
				err := repo.Patch(c, cart.ID, Patch{Items: []CartItem{{"id": "B", "cantidad": 7}}, UpdatedAt: updatedAt})
				require.NoError(t, err)

				actual, err := repo.Get(c, cart.ID)
				require.NoError(t, err)
				require.Len(t, actual.Items, 1)
				assert.Equal(t, "B", actual.Items[0].ID())
				assert.EqualValues(t, 7, actual.Items[0].Quantity())
				assert.True(t, updatedAt.Equal(actual.UpdatedAt))
				assert.True(t, baseTime.Equal(actual.CreatedAt))
				require.NotNil(t, actual.ExpiresAt)
				assert.True(t, cart.ExpiresAt.Equal(*actual.ExpiresAt))
			},
		},
		{
			name: "given missing key when patch should return not found",
			run: func(t *testing.T, c context.Context, repo Repository) {
				err := repo.Patch(c, KeyFor(CartTypeUser, "missing"), Patch{Items: []CartItem{}, UpdatedAt: baseTime})
				assert.ErrorIs(t, err, inErrors.ErrCartNotFound)
			},
		},
		{
			name: "given missing key when delete should not fail",
			run: func(t *testing.T, c context.Context, repo Repository) {
				cart := guestCart("g1", baseTime)
				require.NoError(t, repo.Put(c, cart))
				require.NoError(t, repo.Delete(c, cart.ID))
				require.NoError(t, repo.Delete(c, cart.ID))

				_, err := repo.Get(c, cart.ID)
				assert.ErrorIs(t, err, inErrors.ErrCartNotFound)
			},
		},
		{
			name: "given mixed carts when query expired should return expired guest carts only",
			run: func(t *testing.T, c context.Context, repo Repository) {
				now := baseTime.Add(40 * 24 * time.Hour)
				require.NoError(t, repo.Put(c, guestCart("old", baseTime)))
				require.NoError(t, repo.Put(c, guestCart("fresh", now)))
				require.NoError(t, repo.Put(c, userCart("u1", baseTime)))

				expired, err := repo.QueryExpiredGuestCarts(c, now)
				require.NoError(t, err)
				require.Len(t, expired, 1)
				assert.Equal(t, KeyFor(CartTypeGuest, "old"), expired[0].ID)
			},
		},
		{
			name: "given cart expiring exactly now when query expired should not return it",
			run: func(t *testing.T, c context.Context, repo Repository) {
				cart := guestCart("edge", baseTime)
				require.NoError(t, repo.Put(c, cart))

				expired, err := repo.QueryExpiredGuestCarts(c, *cart.ExpiresAt)
				require.NoError(t, err)
				assert.Empty(t, expired)
			},
		},
		{
			name: "given keys when batch delete should return number of removed carts",
			run: func(t *testing.T, c context.Context, repo Repository) {
				require.NoError(t, repo.Put(c, guestCart("g1", baseTime)))
				require.NoError(t, repo.Put(c, guestCart("g2", baseTime)))

				deleted, err := repo.BatchDelete(c, []string{
					KeyFor(CartTypeGuest, "g1"),
					KeyFor(CartTypeGuest, "g2"),
					KeyFor(CartTypeGuest, "missing"),
				})
				require.NoError(t, err)
				assert.EqualValues(t, 2, deleted)

				deleted, err = repo.BatchDelete(c, nil)
				require.NoError(t, err)
				assert.EqualValues(t, 0, deleted)
			},
		},
		{
			name: "given no user cart when commit merge should create user cart and delete guest cart",
			run: func(t *testing.T, c context.Context, repo Repository) {
				guest := guestCart("g1", baseTime, CartItem{"id": "X", "cantidad": 5})
				require.NoError(t, repo.Put(c, guest))

				now := baseTime.Add(time.Hour)
				merged := userCart("u1", now, CartItem{"id": "X", "cantidad": 5})
				require.NoError(t, repo.CommitMerge(c, MergeWrite{UserCart: merged, GuestKey: guest.ID}))

				actual, err := repo.Get(c, merged.ID)
				require.NoError(t, err)
				assert.Equal(t, CartTypeUser, actual.Type)
				assert.Equal(t, "u1", actual.UserID)
				assert.Nil(t, actual.ExpiresAt)
				assert.True(t, now.Equal(actual.CreatedAt))
				require.Len(t, actual.Items, 1)
				assert.EqualValues(t, 5, actual.Items[0].Quantity())

				_, err = repo.Get(c, guest.ID)
				assert.ErrorIs(t, err, inErrors.ErrCartNotFound)
			},
		},
		{
			name: "given existing user cart when commit merge should keep createdAt",
			run: func(t *testing.T, c context.Context, repo Repository) {
				require.NoError(t, repo.Put(c, userCart("u1", baseTime, CartItem{"id": "A", "cantidad": 1})))

				now := baseTime.Add(time.Hour)
				merged := userCart("u1", now, CartItem{"id": "A", "cantidad": 3})
				require.NoError(t, repo.CommitMerge(c, MergeWrite{UserCart: merged, GuestKey: KeyFor(CartTypeGuest, "none")}))

				actual, err := repo.Get(c, merged.ID)
				require.NoError(t, err)
				assert.True(t, baseTime.Equal(actual.CreatedAt))
				assert.True(t, now.Equal(actual.UpdatedAt))
				require.Len(t, actual.Items, 1)
				assert.EqualValues(t, 3, actual.Items[0].Quantity())
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			test.run(t, context.Background(), newRepository(t))
		})
	}
}

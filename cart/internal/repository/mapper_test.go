package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/shopcart/cart/pkg/request"
)

func TestCartResponse(t *testing.T) {
	t.Run("given guest cart should have null user id and timestamps", func(t *testing.T) {
		res := guestCart("g1", baseTime, CartItem{"id": "A", "cantidad": 1}).Response()
		assert.Equal(t, "guest_g1", res.ID)
		assert.Equal(t, "guest", res.Type)
		assert.Nil(t, res.UserID)
		require.NotNil(t, res.CreatedAt)
		require.NotNil(t, res.ExpiresAt)
		assert.Len(t, res.Items, 1)
	})

	t.Run("given never stored user cart should omit timestamps", func(t *testing.T) {
		res := Cart{ID: "user_u1", Type: CartTypeUser, UserID: "u1", Items: []CartItem{}}.Response()
		require.NotNil(t, res.UserID)
		assert.Equal(t, "u1", *res.UserID)
		assert.Nil(t, res.CreatedAt)
		assert.Nil(t, res.UpdatedAt)
		assert.Nil(t, res.ExpiresAt)
		assert.NotNil(t, res.Items)
	})
}

func TestItemsFromRequest(t *testing.T) {
	assert.Nil(t, ItemsFromRequest(nil))
	assert.Equal(t, []CartItem{}, ItemsFromRequest([]request.CartItem{}))
	assert.Equal(t, []CartItem{{"id": "A"}}, ItemsFromRequest([]request.CartItem{{"id": "A"}}))
}

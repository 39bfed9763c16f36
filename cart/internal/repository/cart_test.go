package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyFor(t *testing.T) {
	assert.Equal(t, "guest_abc", KeyFor(CartTypeGuest, "abc"))
	assert.Equal(t, "user_42", KeyFor(CartTypeUser, "42"))
}

func TestCartItemQuantity(t *testing.T) {
	tests := []struct {
		name     string
		item     CartItem
		expected int64
	}{
		{name: "given int quantity should return it", item: CartItem{"cantidad": 3}, expected: 3},
		{name: "given json number should return it", item: CartItem{"cantidad": float64(2)}, expected: 2},
		{name: "given int32 from store should return it", item: CartItem{"cantidad": int32(4)}, expected: 4},
		{name: "given numeric string should return it", item: CartItem{"cantidad": "5"}, expected: 5},
		{name: "given stored fraction should truncate it", item: CartItem{"cantidad": 1.5}, expected: 1},
		{name: "given stored true should return one", item: CartItem{"cantidad": true}, expected: 1},
		{name: "given missing quantity should return one", item: CartItem{"id": "A"}, expected: 1},
		{name: "given nil quantity should return one", item: CartItem{"cantidad": nil}, expected: 1},
		{name: "given zero quantity should return one", item: CartItem{"cantidad": 0}, expected: 1},
		{name: "given non numeric quantity should return one", item: CartItem{"cantidad": "many"}, expected: 1},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, test.item.Quantity())
		})
	}
}

func TestCartIsExpired(t *testing.T) {
	now := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	before := now.Add(-time.Millisecond)

	assert.True(t, Cart{ExpiresAt: &before}.IsExpired(now))
	assert.False(t, Cart{ExpiresAt: &now}.IsExpired(now))
	assert.False(t, Cart{}.IsExpired(now))
}

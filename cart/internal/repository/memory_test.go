package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository(t *testing.T) {
	testRepository(t, func(t *testing.T) Repository {
		return NewMemoryRepository()
	})
}

func TestMemoryRepositoryIsolation(t *testing.T) {
	c := context.Background()
	repo := NewMemoryRepository()
	item := CartItem{"id": "A", "cantidad": 1, "meta": map[string]any{"color": "red"}}
	require.NoError(t, repo.Put(c, guestCart("g1", baseTime, item)))

	item.SetQuantity(9)
	item["meta"].(map[string]any)["color"] = "blue"

	actual, err := repo.Get(c, KeyFor(CartTypeGuest, "g1"))
	require.NoError(t, err)
	assert.EqualValues(t, 1, actual.Items[0].Quantity())
	assert.Equal(t, "red", actual.Items[0]["meta"].(map[string]any)["color"])

	actual.Items[0].SetQuantity(4)
	again, err := repo.Get(c, KeyFor(CartTypeGuest, "g1"))
	require.NoError(t, err)
	assert.EqualValues(t, 1, again.Items[0].Quantity())
}

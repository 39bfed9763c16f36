package repository

import (
	"time"

	"github.com/Alturino/shopcart/cart/pkg/request"
	"github.com/Alturino/shopcart/cart/pkg/response"
)

func (c Cart) Response() response.Cart {
	items := make([]response.CartItem, 0, len(c.Items))
	for _, item := range c.Items {
		items = append(items, response.CartItem(item.Clone()))
	}

	res := response.Cart{
		ID:        c.ID,
		Type:      string(c.Type),
		Items:     items,
		CreatedAt: timePtr(c.CreatedAt),
		UpdatedAt: timePtr(c.UpdatedAt),
		ExpiresAt: c.ExpiresAt,
	}
	if c.Type == CartTypeUser {
		userID := c.UserID
		res.UserID = &userID
	}
	return res
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// ItemsFromRequest converts request items, keeping nil so a missing array
// can still be rejected.
func ItemsFromRequest(items []request.CartItem) []CartItem {
	if items == nil {
		return nil
	}
	converted := make([]CartItem, 0, len(items))
	for _, item := range items {
		converted = append(converted, CartItem(item))
	}
	return converted
}

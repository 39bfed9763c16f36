package repository

import (
	"time"

	"github.com/spf13/cast"
	"go.mongodb.org/mongo-driver/bson"
)

type CartType string

const (
	CartTypeGuest CartType = "guest"
	CartTypeUser  CartType = "user"
)

const (
	FieldID        = "_id"
	FieldType      = "type"
	FieldUserID    = "userId"
	FieldItems     = "items"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
	FieldExpiresAt = "expiresAt"

	ItemFieldID       = "id"
	ItemFieldQuantity = "cantidad"
)

// KeyFor returns the store key of the cart owned by externalID.
func KeyFor(cartType CartType, externalID string) string {
	return string(cartType) + "_" + externalID
}

type Cart struct {
	ID        string     `bson:"_id"                 json:"id"`
	Type      CartType   `bson:"type"                json:"type"`
	UserID    string     `bson:"userId,omitempty"    json:"userId,omitempty"`
	Items     []CartItem `bson:"items"               json:"items"`
	CreatedAt time.Time  `bson:"createdAt"           json:"createdAt"`
	UpdatedAt time.Time  `bson:"updatedAt"           json:"updatedAt"`
	ExpiresAt *time.Time `bson:"expiresAt,omitempty" json:"expiresAt,omitempty"`
}

// IsExpired reports whether a guest cart expired strictly before now.
func (c Cart) IsExpired(now time.Time) bool {
	return c.ExpiresAt != nil && c.ExpiresAt.Before(now)
}

func (c Cart) Clone() Cart {
	cloned := c
	cloned.Items = CloneItems(c.Items)
	if c.ExpiresAt != nil {
		expiresAt := *c.ExpiresAt
		cloned.ExpiresAt = &expiresAt
	}
	return cloned
}

// CartItem is an opaque product line. Only "id" and "cantidad" are
// interpreted, every other field is carried through untouched.
type CartItem map[string]any

func (i CartItem) ID() string {
	return cast.ToString(i[ItemFieldID])
}

// Quantity returns cantidad, or 1 when it is missing, zero or not a number.
// Request validation only lets whole numbers in. Values already stored are
// coerced with cast: fractions are truncated, numeric strings are parsed and
// true counts as 1.
func (i CartItem) Quantity() int64 {
	quantity, err := cast.ToInt64E(i[ItemFieldQuantity])
	if err != nil || quantity == 0 {
		return 1
	}
	return quantity
}

func (i CartItem) SetQuantity(quantity int64) {
	i[ItemFieldQuantity] = quantity
}

func (i CartItem) Clone() CartItem {
	cloned := make(CartItem, len(i))
	for k, v := range i {
		cloned[k] = cloneValue(v)
	}
	return cloned
}

func cloneValue(v any) any {
	switch value := v.(type) {
	case map[string]any:
		return map[string]any(CartItem(value).Clone())
	case bson.M:
		return bson.M(CartItem(value).Clone())
	case CartItem:
		return value.Clone()
	case []any:
		return cloneSlice(value)
	case bson.A:
		return bson.A(cloneSlice(value))
	default:
		return v
	}
}

func cloneSlice(values []any) []any {
	cloned := make([]any, len(values))
	for i, v := range values {
		cloned[i] = cloneValue(v)
	}
	return cloned
}

// CloneItems deep copies items and never returns nil.
func CloneItems(items []CartItem) []CartItem {
	cloned := make([]CartItem, 0, len(items))
	for _, item := range items {
		cloned = append(cloned, item.Clone())
	}
	return cloned
}


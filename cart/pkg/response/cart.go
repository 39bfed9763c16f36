package response

import "time"

type CartItem map[string]any

// Cart timestamps are nil for a user cart that was never stored.
type Cart struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	UserID    *string    `json:"userId"`
	Items     []CartItem `json:"items"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

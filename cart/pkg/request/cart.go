package request

type CartItem map[string]any

type CreateGuestCart struct {
	GuestID string     `validate:"required" json:"guestId"`
	Items   []CartItem `validate:"omitempty,dive,quantity" json:"items"`
}

type UpdateCart struct {
	Items []CartItem `validate:"required,dive,quantity" json:"items"`
}

type MergeCart struct {
	GuestID string `validate:"required" json:"guestId"`
	UserID  string `validate:"required" json:"userId"`
}

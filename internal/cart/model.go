package cart

import "time"

// Item is one server-side cart line. Size is "" for products sold without
// sizes.
type Item struct {
	ID        int64     `json:"id"`
	UserID    uint      `json:"user_id"`
	ProductID int64     `json:"product_id"`
	Size      string    `json:"size,omitempty"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AddToCartParams struct {
	UserID    uint
	ProductID int64
	Size      string
	Quantity  int
}

type RemoveFromCartParams struct {
	UserID    uint
	ProductID int64
	Size      string
}

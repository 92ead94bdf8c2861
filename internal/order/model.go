package order

import (
	"time"

	"storefront-be/internal/address"
	"storefront-be/internal/payment"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusPaid       Status = "paid"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// Source names the ingress that triggered a creation.
type Source string

const (
	SourceClient  Source = "client"
	SourceWebhook Source = "webhook"
)

type Order struct {
	ID          int64     `json:"order_id"`
	UserID      uint      `json:"user_id"`
	TotalAmount int64     `json:"total_amount"`
	ShippingFee int64     `json:"shipping_fee"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Items   []Item            `json:"items"`
	Address *address.Snapshot `json:"address,omitempty"`
	Payment *payment.Payment  `json:"payment,omitempty"`
}

// Item stores the price the buyer paid, never a live product price.
type Item struct {
	ID        int64  `json:"order_item_id"`
	OrderID   int64  `json:"order_id"`
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`
	Size      string `json:"size,omitempty"`
}

// CartLine is one line of the cart snapshot submitted at checkout.
type CartLine struct {
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"qty"`
	UnitPrice int64  `json:"price"`
	Size      string `json:"size,omitempty"`
}

type CreateOrderInput struct {
	UserID          uint
	Lines           []CartLine
	Address         *address.Input
	AddressID       *uuid.UUID
	TotalAmount     int64
	ShippingFee     int64
	PaymentIntentID string
	PaymentMethod   string
	Source          Source
}

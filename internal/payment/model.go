package payment

import (
	"time"
)

const (
	StatusSucceeded = "succeeded"

	DefaultMethod = "card"

	// Provider is the key under which webhook deliveries are logged.
	Provider = "STRIPE"
)

// Payment is the record of the provider transaction that paid an order.
type Payment struct {
	ID              int64     `json:"payment_id"`
	OrderID         int64     `json:"order_id"`
	UserID          uint      `json:"user_id"`
	PaymentIntentID string    `json:"payment_intent_id"`
	Amount          int64     `json:"amount"`
	Status          string    `json:"status"`
	PaymentMethod   string    `json:"payment_method"`
	CreatedAt       time.Time `json:"created_at"`
}

// WebhookRecord is one logged provider delivery.
type WebhookRecord struct {
	Provider       string
	EventID        string
	EventType      string
	ExternalID     string
	Payload        []byte
	SignatureValid bool
}

package order

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	EventOrderCreated = "OrderCreated"
	TopicOrderCreated = "order.created"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type ItemPrice struct {
	ProductID int64  `json:"product_id"`
	Size      string `json:"size,omitempty"`
	Qty       int    `json:"qty"`
	Price     int64  `json:"price"`
}

type OrderCreatedPayload struct {
	OrderID         int64       `json:"order_id"`
	UserID          uint        `json:"user_id"`
	PaymentIntentID string      `json:"payment_intent_id"`
	Items           []ItemPrice `json:"items"`
	ShippingFee     int64       `json:"shipping_fee"`
	TotalAmount     int64       `json:"total_amount"`
}

// NewOrderCreatedEnvelope wraps o for the order.created topic. The
// correlation id is the order id, which is also the partition key.
func NewOrderCreatedEnvelope(o *Order, producer string) (Envelope, error) {
	p := OrderCreatedPayload{
		OrderID:     o.ID,
		UserID:      o.UserID,
		ShippingFee: o.ShippingFee,
		TotalAmount: o.TotalAmount,
		Items:       make([]ItemPrice, 0, len(o.Items)),
	}
	if o.Payment != nil {
		p.PaymentIntentID = o.Payment.PaymentIntentID
	}
	for _, it := range o.Items {
		p.Items = append(p.Items, ItemPrice{
			ProductID: it.ProductID,
			Size:      it.Size,
			Qty:       it.Quantity,
			Price:     it.Price,
		})
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return Envelope{}, err
	}

	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventOrderCreated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		CorrelationID: strconv.FormatInt(o.ID, 10),
		Payload:       raw,
	}, nil
}

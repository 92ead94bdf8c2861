package payment

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v81"
)

// Provider event types this service reacts to.
const (
	EventIntentSucceeded = string(stripe.EventTypePaymentIntentSucceeded)
	EventIntentFailed    = string(stripe.EventTypePaymentIntentPaymentFailed)
)

type Event struct {
	ID      string
	Type    string
	Created int64

	object json.RawMessage
}

// Intent is the payment_intent object embedded in intent events.
type Intent struct {
	ID                 string
	Amount             int64
	AmountReceived     int64
	Currency           string
	Status             string
	PaymentMethodTypes []string
	Metadata           map[string]string
}

func ParseEvent(body []byte) (*Event, error) {
	var se stripe.Event
	if err := json.Unmarshal(body, &se); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	if se.ID == "" || se.Type == "" {
		return nil, errors.New("decode event: missing id or type")
	}

	ev := &Event{ID: se.ID, Type: string(se.Type), Created: se.Created}
	if se.Data != nil {
		ev.object = se.Data.Raw
	}
	return ev, nil
}

func (e *Event) Intent() (*Intent, error) {
	if len(e.object) == 0 {
		return nil, errors.New("decode payment intent: missing data.object")
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(e.object, &pi); err != nil {
		return nil, fmt.Errorf("decode payment intent: %w", err)
	}
	if pi.ID == "" {
		return nil, errors.New("decode payment intent: missing id")
	}

	return &Intent{
		ID:                 pi.ID,
		Amount:             pi.Amount,
		AmountReceived:     pi.AmountReceived,
		Currency:           string(pi.Currency),
		Status:             string(pi.Status),
		PaymentMethodTypes: pi.PaymentMethodTypes,
		Metadata:           pi.Metadata,
	}, nil
}

// PaidAmount prefers the captured amount over the requested one.
func (in *Intent) PaidAmount() int64 {
	if in.AmountReceived > 0 {
		return in.AmountReceived
	}
	return in.Amount
}

func (in *Intent) Method() string {
	if len(in.PaymentMethodTypes) > 0 && in.PaymentMethodTypes[0] != "" {
		return in.PaymentMethodTypes[0]
	}
	return DefaultMethod
}

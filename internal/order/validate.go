package order

import (
	"fmt"
	"strings"
)

// validateIdentity checks the fields needed to look up an earlier creation.
func (in CreateOrderInput) validateIdentity() error {
	if in.UserID == 0 {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.PaymentIntentID) == "" {
		return fmt.Errorf("%w: payment_intent_id is required", ErrInvalidInput)
	}
	return nil
}

// Validate checks the cart snapshot and that total_amount equals the sum of
// line prices plus the shipping fee.
func (in CreateOrderInput) Validate() error {
	if err := in.validateIdentity(); err != nil {
		return err
	}
	if len(in.Lines) == 0 {
		return fmt.Errorf("%w: cart is empty", ErrInvalidInput)
	}
	if in.ShippingFee < 0 {
		return fmt.Errorf("%w: shipping_fee must not be negative", ErrInvalidInput)
	}

	var sum int64
	for i, l := range in.Lines {
		switch {
		case l.ProductID <= 0:
			return fmt.Errorf("%w: line %d: product_id is required", ErrInvalidInput, i)
		case l.Quantity < 1:
			return fmt.Errorf("%w: line %d: qty must be at least 1", ErrInvalidInput, i)
		case l.UnitPrice < 0:
			return fmt.Errorf("%w: line %d: price must not be negative", ErrInvalidInput, i)
		}
		sum += l.UnitPrice * int64(l.Quantity)
	}

	if want := sum + in.ShippingFee; in.TotalAmount != want {
		return fmt.Errorf("%w: total_amount %d does not match cart total %d", ErrInvalidInput, in.TotalAmount, want)
	}
	return nil
}

// mayReplay reports whether an existing order can be handed back for this
// input. The provider webhook is trusted; a client only sees its own orders.
func (in CreateOrderInput) mayReplay(o *Order) bool {
	return in.Source == SourceWebhook || o.UserID == in.UserID
}

package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"storefront-be/internal/address"
	"storefront-be/internal/order"
	"storefront-be/internal/payment"

	"github.com/google/uuid"
)

// Metadata keys the checkout page attaches to the payment intent.
const (
	MetaUserID      = "user_id"
	MetaItems       = "items"
	MetaShippingFee = "shipping_fee"
	MetaAddress     = "address"
	MetaAddressID   = "address_id"
)

var ErrInvalidMetadata = errors.New("invalid payment intent metadata")

// inputFromIntent rebuilds the checkout request from a succeeded intent.
// The amount is what the provider actually collected.
func inputFromIntent(in *payment.Intent) (order.CreateOrderInput, error) {
	md := in.Metadata

	userID, err := strconv.ParseUint(strings.TrimSpace(md[MetaUserID]), 10, 0)
	if err != nil || userID == 0 {
		return order.CreateOrderInput{}, fmt.Errorf("%w: %s %q", ErrInvalidMetadata, MetaUserID, md[MetaUserID])
	}

	var lines []order.CartLine
	if err := json.Unmarshal([]byte(md[MetaItems]), &lines); err != nil {
		return order.CreateOrderInput{}, fmt.Errorf("%w: %s: %w", ErrInvalidMetadata, MetaItems, err)
	}

	var shippingFee int64
	if raw := strings.TrimSpace(md[MetaShippingFee]); raw != "" {
		if shippingFee, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return order.CreateOrderInput{}, fmt.Errorf("%w: %s %q", ErrInvalidMetadata, MetaShippingFee, raw)
		}
	}

	out := order.CreateOrderInput{
		UserID:          uint(userID),
		Lines:           lines,
		TotalAmount:     in.PaidAmount(),
		ShippingFee:     shippingFee,
		PaymentIntentID: in.ID,
		PaymentMethod:   in.Method(),
		Source:          order.SourceWebhook,
	}

	if raw := strings.TrimSpace(md[MetaAddress]); raw != "" {
		var addr address.Input
		if err := json.Unmarshal([]byte(raw), &addr); err != nil {
			return order.CreateOrderInput{}, fmt.Errorf("%w: %s: %w", ErrInvalidMetadata, MetaAddress, err)
		}
		out.Address = &addr
	}

	if raw := strings.TrimSpace(md[MetaAddressID]); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return order.CreateOrderInput{}, fmt.Errorf("%w: %s %q", ErrInvalidMetadata, MetaAddressID, raw)
		}
		out.AddressID = &id
	}

	return out, nil
}

package webhook

import (
	"testing"

	"storefront-be/internal/order"
	"storefront-be/internal/payment"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputFromIntent(t *testing.T) {
	addrID := uuid.New()
	in := &payment.Intent{
		ID:                 "pi_abc",
		Amount:             250,
		PaymentMethodTypes: []string{"promptpay"},
		Metadata: map[string]string{
			MetaUserID:      "3",
			MetaItems:       `[{"product_id":7,"qty":2,"price":100,"size":"M"}]`,
			MetaShippingFee: "50",
			MetaAddress:     `{"full_name":"Jane","province":"Bangkok"}`,
			MetaAddressID:   addrID.String(),
		},
	}

	got, err := inputFromIntent(in)
	require.NoError(t, err)
	assert.Equal(t, uint(3), got.UserID)
	assert.Equal(t, int64(250), got.TotalAmount)
	assert.Equal(t, int64(50), got.ShippingFee)
	assert.Equal(t, "promptpay", got.PaymentMethod)
	assert.Equal(t, order.SourceWebhook, got.Source)
	assert.Equal(t, []order.CartLine{{ProductID: 7, Quantity: 2, UnitPrice: 100, Size: "M"}}, got.Lines)
	require.NotNil(t, got.Address)
	assert.Equal(t, "Jane", *got.Address.FullName)
	require.NotNil(t, got.AddressID)
	assert.Equal(t, addrID, *got.AddressID)
	assert.NoError(t, got.Validate())
}

func TestInputFromIntent_Invalid(t *testing.T) {
	base := func() map[string]string {
		return map[string]string{
			MetaUserID: "3",
			MetaItems:  `[{"product_id":7,"qty":1,"price":100}]`,
		}
	}

	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"missing user", MetaUserID, ""},
		{"zero user", MetaUserID, "0"},
		{"bad items", MetaItems, "{"},
		{"bad shipping", MetaShippingFee, "ten"},
		{"bad address", MetaAddress, "[]"},
		{"bad address id", MetaAddressID, "home"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := base()
			md[tt.key] = tt.val
			_, err := inputFromIntent(&payment.Intent{ID: "pi_abc", Amount: 100, Metadata: md})
			assert.ErrorIs(t, err, ErrInvalidMetadata)
		})
	}
}

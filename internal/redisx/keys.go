package redisx

import (
	"fmt"
	"time"
)

const (
	// idem:order:pi:{payment_intent_id} -> order_id
	KeyIdemOrderPayment = "idem:order:pi:%s"
)

var TTLIdempotency = 24 * time.Hour

func IdemOrderPaymentKey(paymentIntentID string) string {
	return fmt.Sprintf(KeyIdemOrderPayment, paymentIntentID)
}

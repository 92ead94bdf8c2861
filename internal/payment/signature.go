package payment

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v81/webhook"
)

// SignatureHeader carries "t=<unix seconds>,v1=<hex hmac>[,v1=...]".
const SignatureHeader = "Stripe-Signature"

// Verifier checks webhook signatures against the endpoint secret within a
// timestamp tolerance.
type Verifier struct {
	secret    string
	tolerance time.Duration
}

func NewVerifier(secret string, tolerance time.Duration) *Verifier {
	if tolerance <= 0 {
		tolerance = webhook.DefaultTolerance
	}
	return &Verifier{secret: secret, tolerance: tolerance}
}

func (v *Verifier) Verify(payload []byte, header string) error {
	if v.secret == "" || header == "" {
		return ErrSignatureInvalid
	}
	if err := webhook.ValidatePayloadWithTolerance(payload, header, v.secret, v.tolerance); err != nil {
		return fmt.Errorf("%w: %w", ErrSignatureInvalid, err)
	}
	return nil
}

// Sign produces a header value for payload at time ts.
func (v *Verifier) Sign(payload []byte, ts time.Time) string {
	sig := webhook.ComputeSignature(ts, payload, v.secret)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(sig))
}

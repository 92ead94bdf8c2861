package metrics

import (
	"net/http"
	"sync/atomic"
	"time"

	"storefront-be/internal/utils"
)

type Counter struct {
	value uint64
}

func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

func (c *Counter) Add(n uint64) {
	atomic.AddUint64(&c.value, n)
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Checkout counts order-creation outcomes for both ingress paths.
type Checkout struct {
	OrdersCreated     Counter
	DuplicateTriggers Counter
	CreationFailures  Counter
	ValidationErrors  Counter
	OversoldLines     Counter
	UntrackedLines    Counter
	WebhooksReceived  Counter
	WebhooksRejected  Counter

	createNanos Counter
}

// ObserveCreate records the latency of one committed creation.
func (c *Checkout) ObserveCreate(t *Timer) {
	c.createNanos.Add(uint64(t.Duration().Nanoseconds()))
}

func (c *Checkout) Snapshot() map[string]uint64 {
	snap := map[string]uint64{
		"orders_created":     c.OrdersCreated.Load(),
		"duplicate_triggers": c.DuplicateTriggers.Load(),
		"creation_failures":  c.CreationFailures.Load(),
		"validation_errors":  c.ValidationErrors.Load(),
		"oversold_lines":     c.OversoldLines.Load(),
		"untracked_lines":    c.UntrackedLines.Load(),
		"webhooks_received":  c.WebhooksReceived.Load(),
		"webhooks_rejected":  c.WebhooksRejected.Load(),
	}
	if n := snap["orders_created"]; n > 0 {
		snap["avg_create_micros"] = c.createNanos.Load() / n / uint64(time.Microsecond)
	}
	return snap
}

func (c *Checkout) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, http.StatusOK, c.Snapshot())
	})
}

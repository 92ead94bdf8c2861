package webhook

import (
	"context"
	"errors"
	"io"
	"net/http"

	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"
	"storefront-be/internal/order"
	"storefront-be/internal/payment"
	"storefront-be/internal/utils"

	"go.uber.org/zap"
)

type OrderCreator interface {
	CreateOrder(ctx context.Context, in order.CreateOrderInput) (*order.Order, bool, error)
}

// Handler receives payment provider events. Every delivery is logged by
// event id; succeeded intents go through the same order creation as the
// client path, so a redelivery or a race with the client is harmless.
type Handler struct {
	orders   OrderCreator
	payments payment.Repository
	verifier *payment.Verifier
	metrics  *metrics.Checkout
}

func NewHandler(
	orders OrderCreator,
	payments payment.Repository,
	verifier *payment.Verifier,
	m *metrics.Checkout,
) *Handler {
	if m == nil {
		m = &metrics.Checkout{}
	}
	return &Handler{orders: orders, payments: payments, verifier: verifier, metrics: m}
}

type response struct {
	Status     string `json:"status"`
	OrderID    int64  `json:"order_id,omitempty"`
	Idempotent bool   `json:"idempotent,omitempty"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "webhook"),
		zap.String("provider", payment.Provider),
	)

	h.metrics.WebhooksReceived.Inc()

	// Step 1️⃣ – Read and verify before anything is stored
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, utils.MaxBodyBytes))
	if err != nil {
		h.metrics.WebhooksRejected.Inc()
		utils.WriteJSONError(w, "failed to read body", http.StatusBadRequest)
		return
	}

	if err := h.verifier.Verify(body, r.Header.Get(payment.SignatureHeader)); err != nil {
		h.metrics.WebhooksRejected.Inc()
		log.Warn("webhook signature rejected", zap.Error(err))
		utils.WriteJSONError(w, "invalid signature", http.StatusBadRequest)
		return
	}

	ev, err := payment.ParseEvent(body)
	if err != nil {
		h.metrics.WebhooksRejected.Inc()
		log.Warn("webhook payload rejected", zap.Error(err))
		utils.WriteJSONError(w, "invalid payload", http.StatusBadRequest)
		return
	}

	log = log.With(zap.String("event_id", ev.ID), zap.String("event_type", ev.Type))

	// Step 2️⃣ – Log the delivery, skip events already handled
	intent, intentErr := ev.Intent()
	externalID := ""
	if intentErr == nil {
		externalID = intent.ID
	}

	webhookID, processed, err := h.payments.SaveWebhook(ctx, payment.WebhookRecord{
		Provider:       payment.Provider,
		EventID:        ev.ID,
		EventType:      ev.Type,
		ExternalID:     externalID,
		Payload:        body,
		SignatureValid: true,
	})
	if err != nil {
		log.Error("failed to log webhook", zap.Error(err))
		utils.WriteJSONError(w, "failed to record event", http.StatusInternalServerError)
		return
	}
	if processed {
		log.Info("webhook already processed")
		utils.WriteJSON(w, http.StatusOK, response{Status: "duplicate"})
		return
	}

	// Step 3️⃣ – Dispatch by event type
	switch ev.Type {
	case payment.EventIntentSucceeded:
		h.handleSucceeded(ctx, w, log, webhookID, intent, intentErr)

	case payment.EventIntentFailed:
		log.Warn("payment intent failed", zap.String("payment_intent_id", externalID))
		h.markProcessed(ctx, log, webhookID)
		utils.WriteJSON(w, http.StatusOK, response{Status: "ok"})

	default:
		log.Debug("ignoring webhook event type")
		h.markProcessed(ctx, log, webhookID)
		utils.WriteJSON(w, http.StatusOK, response{Status: "ignored"})
	}
}

func (h *Handler) handleSucceeded(
	ctx context.Context,
	w http.ResponseWriter,
	log *zap.Logger,
	webhookID int64,
	intent *payment.Intent,
	intentErr error,
) {
	if intentErr != nil {
		log.Warn("payment intent object unreadable", zap.Error(intentErr))
		h.markFailed(ctx, log, webhookID, intentErr, true)
		utils.WriteJSON(w, http.StatusOK, response{Status: "ignored"})
		return
	}

	log = log.With(zap.String("payment_intent_id", intent.ID))

	in, err := inputFromIntent(intent)
	if err != nil {
		log.Warn("payment intent metadata unusable", zap.Error(err))
		h.markFailed(ctx, log, webhookID, err, true)
		utils.WriteJSON(w, http.StatusOK, response{Status: "ignored"})
		return
	}

	o, existed, err := h.orders.CreateOrder(ctx, in)
	switch {
	case err == nil:
		h.markProcessed(ctx, log, webhookID)
		utils.WriteJSON(w, http.StatusOK, response{Status: "ok", OrderID: o.ID, Idempotent: existed})

	case errors.Is(err, order.ErrInvalidInput):
		// redelivery cannot fix a bad cart snapshot
		h.markFailed(ctx, log, webhookID, err, true)
		utils.WriteJSON(w, http.StatusOK, response{Status: "ignored"})

	default:
		h.markFailed(ctx, log, webhookID, err, false)
		utils.WriteJSONError(w, "could not create order", http.StatusInternalServerError)
	}
}

func (h *Handler) markProcessed(ctx context.Context, log *zap.Logger, webhookID int64) {
	if err := h.payments.MarkWebhookProcessed(ctx, webhookID); err != nil {
		log.Error("failed to mark webhook processed", zap.Error(err))
	}
}

func (h *Handler) markFailed(ctx context.Context, log *zap.Logger, webhookID int64, cause error, permanent bool) {
	if err := h.payments.MarkWebhookFailed(ctx, webhookID, cause.Error(), permanent); err != nil {
		log.Error("failed to mark webhook failed", zap.Error(err))
	}
}

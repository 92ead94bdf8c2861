package payment

import (
	"context"
	"database/sql"
	"errors"

	"storefront-be/internal/db"
	"storefront-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	// Record inserts the payment row. A second row for the same payment
	// intent fails with ErrDuplicatePayment.
	Record(ctx context.Context, q db.DBTX, p *Payment) error
	GetByIntent(ctx context.Context, paymentIntentID string) (*Payment, error)
	GetByOrder(ctx context.Context, orderID int64) (*Payment, error)

	// SaveWebhook logs a delivery and reports whether an earlier delivery
	// of the same event was already processed.
	SaveWebhook(ctx context.Context, rec WebhookRecord) (webhookID int64, alreadyProcessed bool, err error)
	MarkWebhookProcessed(ctx context.Context, webhookID int64) error
	// MarkWebhookFailed stores the failure; a permanent failure is closed
	// and will not be processed again.
	MarkWebhookFailed(ctx context.Context, webhookID int64, reason string, permanent bool) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Record(ctx context.Context, q db.DBTX, p *Payment) error {
	log := logger.FromCtx(ctx).With(
		zap.String("repo", "Payment"),
		zap.String("method", "Record"),
		zap.Int64("order_id", p.OrderID),
		zap.String("payment_intent_id", p.PaymentIntentID),
	)

	err := q.QueryRowContext(ctx, `
		INSERT INTO order_payments (
			order_id, user_id, payment_intent_id,
			amount, status, payment_method
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`,
		p.OrderID, p.UserID, p.PaymentIntentID,
		p.Amount, p.Status, p.PaymentMethod,
	).Scan(&p.ID, &p.CreatedAt)

	if isUniqueViolation(err) {
		log.Info("payment intent already recorded")
		return ErrDuplicatePayment
	}
	if err != nil {
		log.Error("insert failed", zap.Error(err))
		return err
	}

	return nil
}

const selectPayment = `
	SELECT id, order_id, user_id, payment_intent_id, amount, status, payment_method, created_at
	FROM order_payments
`

func (r *repository) GetByIntent(ctx context.Context, paymentIntentID string) (*Payment, error) {
	return r.getOne(ctx, selectPayment+` WHERE payment_intent_id = $1`, paymentIntentID)
}

func (r *repository) GetByOrder(ctx context.Context, orderID int64) (*Payment, error) {
	return r.getOne(ctx, selectPayment+` WHERE order_id = $1`, orderID)
}

func (r *repository) getOne(ctx context.Context, query string, arg any) (*Payment, error) {
	var p Payment
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&p.ID, &p.OrderID, &p.UserID, &p.PaymentIntentID,
		&p.Amount, &p.Status, &p.PaymentMethod, &p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) SaveWebhook(ctx context.Context, rec WebhookRecord) (int64, bool, error) {
	const q = `
	INSERT INTO payment_webhooks (
		provider,
		event_id,
		event_type,
		external_id,
		signature_valid,
		payload
	)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (provider, event_id)
	DO UPDATE SET attempts = payment_webhooks.attempts + 1, last_received_at = now()
	RETURNING id, processed_at IS NOT NULL;
	`

	var (
		id        int64
		processed bool
	)
	err := r.db.QueryRowContext(
		ctx,
		q,
		rec.Provider,
		rec.EventID,
		rec.EventType,
		rec.ExternalID,
		rec.SignatureValid,
		rec.Payload,
	).Scan(&id, &processed)
	if err != nil {
		return 0, false, err
	}

	return id, processed, nil
}

func (r *repository) MarkWebhookProcessed(ctx context.Context, webhookID int64) error {
	const q = `
	UPDATE payment_webhooks
	SET processed_at = now(), process_error = NULL
	WHERE id = $1;
	`

	_, err := r.db.ExecContext(ctx, q, webhookID)
	return err
}

func (r *repository) MarkWebhookFailed(ctx context.Context, webhookID int64, reason string, permanent bool) error {
	const q = `
	UPDATE payment_webhooks
	SET process_error = $2,
		processed_at = CASE WHEN $3 THEN now() ELSE processed_at END
	WHERE id = $1;
	`

	_, err := r.db.ExecContext(ctx, q, webhookID, reason, permanent)
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation
}

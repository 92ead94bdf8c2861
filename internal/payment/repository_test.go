package payment

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_Record(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	newPayment := func() *Payment {
		return &Payment{
			OrderID:         101,
			UserID:          3,
			PaymentIntentID: "pi_abc",
			Amount:          200,
			Status:          StatusSucceeded,
			PaymentMethod:   DefaultMethod,
		}
	}

	t.Run("Success", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery(`INSERT INTO order_payments`).
			WithArgs(int64(101), uint(3), "pi_abc", int64(200), "succeeded", "card").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(9, now))

		p := newPayment()
		require.NoError(t, repo.Record(ctx, db, p))
		assert.Equal(t, int64(9), p.ID)
		assert.Equal(t, now, p.CreatedAt)
	})

	t.Run("DuplicateIntent", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO order_payments`).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "order_payments_payment_intent_id_key"})

		err := repo.Record(ctx, db, newPayment())
		assert.ErrorIs(t, err, ErrDuplicatePayment)
	})

	t.Run("OtherError", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO order_payments`).
			WillReturnError(&pq.Error{Code: "23503"})

		err := repo.Record(ctx, db, newPayment())
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrDuplicatePayment)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetByIntent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	cols := []string{"id", "order_id", "user_id", "payment_intent_id", "amount", "status", "payment_method", "created_at"}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM order_payments WHERE payment_intent_id = \$1`).
			WithArgs("pi_abc").
			WillReturnRows(sqlmock.NewRows(cols).AddRow(1, 101, 3, "pi_abc", 200, "succeeded", "card", time.Now()))

		p, err := repo.GetByIntent(context.Background(), "pi_abc")
		require.NoError(t, err)
		assert.Equal(t, int64(101), p.OrderID)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM order_payments WHERE payment_intent_id = \$1`).
			WithArgs("pi_none").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByIntent(context.Background(), "pi_none")
		assert.ErrorIs(t, err, ErrPaymentNotFound)
	})

	t.Run("ByOrder", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM order_payments WHERE order_id = \$1`).
			WithArgs(int64(101)).
			WillReturnRows(sqlmock.NewRows(cols).AddRow(1, 101, 3, "pi_abc", 200, "succeeded", "card", time.Now()))

		p, err := repo.GetByOrder(context.Background(), 101)
		require.NoError(t, err)
		assert.Equal(t, "pi_abc", p.PaymentIntentID)
	})
}

func TestRepository_SaveWebhook(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	rec := WebhookRecord{
		Provider:       Provider,
		EventID:        "evt_1",
		EventType:      EventIntentSucceeded,
		ExternalID:     "pi_abc",
		Payload:        []byte(`{}`),
		SignatureValid: true,
	}

	t.Run("FirstDelivery", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO payment_webhooks .* ON CONFLICT \(provider, event_id\) DO UPDATE`).
			WithArgs(Provider, "evt_1", EventIntentSucceeded, "pi_abc", true, []byte(`{}`)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "processed"}).AddRow(10, false))

		id, processed, err := repo.SaveWebhook(ctx, rec)
		assert.NoError(t, err)
		assert.False(t, processed)
		assert.Equal(t, int64(10), id)
	})

	t.Run("AlreadyProcessed", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO payment_webhooks`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "processed"}).AddRow(10, true))

		id, processed, err := repo.SaveWebhook(ctx, rec)
		assert.NoError(t, err)
		assert.True(t, processed)
		assert.Equal(t, int64(10), id)
	})

	t.Run("Error", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO payment_webhooks`).
			WillReturnError(errors.New("db error"))

		_, _, err := repo.SaveWebhook(ctx, rec)
		assert.Error(t, err)
	})
}

func TestRepository_WebhookUpdates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()
	id := int64(1)

	t.Run("MarkProcessed", func(t *testing.T) {
		mock.ExpectExec(`UPDATE payment_webhooks SET processed_at = now\(\), process_error = NULL WHERE id = \$1`).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.MarkWebhookProcessed(ctx, id))
	})

	t.Run("MarkFailedTransient", func(t *testing.T) {
		mock.ExpectExec(`UPDATE payment_webhooks SET process_error = \$2`).
			WithArgs(id, "db down", false).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.MarkWebhookFailed(ctx, id, "db down", false))
	})

	t.Run("MarkFailed_Error", func(t *testing.T) {
		mock.ExpectExec(`UPDATE payment_webhooks SET process_error = \$2`).
			WithArgs(id, "bad metadata", true).
			WillReturnError(errors.New("db error"))

		assert.Error(t, repo.MarkWebhookFailed(ctx, id, "bad metadata", true))
	})
}

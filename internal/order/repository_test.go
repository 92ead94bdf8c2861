package order

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	orderCols   = []string{"id", "user_id", "total_amount", "shipping_fee", "status", "created_at", "updated_at"}
	itemCols    = []string{"id", "order_id", "product_id", "quantity", "price", "size"}
	addressCols = []string{
		"id", "order_id", "user_id", "full_name", "phone_number", "address_line1", "address_line2",
		"subdistrict", "district", "province", "postal_code", "country", "note",
	}
	paymentCols = []string{"id", "order_id", "user_id", "payment_intent_id", "amount", "status", "payment_method", "created_at"}
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestRepository_FindIDByPaymentIntent(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRepository(db)
	ctx := context.Background()

	t.Run("Found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT order_id FROM order_payments WHERE payment_intent_id = \$1`).
			WithArgs("pi_abc").
			WillReturnRows(sqlmock.NewRows([]string{"order_id"}).AddRow(101))

		id, found, err := repo.FindIDByPaymentIntent(ctx, db, "pi_abc")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, int64(101), id)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(`SELECT order_id FROM order_payments`).
			WithArgs("pi_new").
			WillReturnRows(sqlmock.NewRows([]string{"order_id"}))

		_, found, err := repo.FindIDByPaymentIntent(ctx, db, "pi_new")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("DBError", func(t *testing.T) {
		mock.ExpectQuery(`SELECT order_id FROM order_payments`).
			WillReturnError(errors.New("db error"))

		_, _, err := repo.FindIDByPaymentIntent(ctx, db, "pi_x")
		assert.Error(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_InsertOrderAndItem(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO orders \(user_id, total_amount, shipping_fee, status\)`).
		WithArgs(uint(3), int64(250), int64(50), StatusPaid).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(101, now, now))

	o := &Order{UserID: 3, TotalAmount: 250, ShippingFee: 50, Status: StatusPaid}
	require.NoError(t, repo.InsertOrder(ctx, db, o))
	assert.Equal(t, int64(101), o.ID)
	assert.Equal(t, now, o.CreatedAt)

	mock.ExpectQuery(`INSERT INTO order_items \(order_id, product_id, quantity, price, size\)`).
		WithArgs(int64(101), int64(7), 2, int64(100), "M").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	it := &Item{OrderID: 101, ProductID: 7, Quantity: 2, Price: 100, Size: "M"}
	require.NoError(t, repo.InsertItem(ctx, db, it))
	assert.Equal(t, int64(1), it.ID)

	mock.ExpectQuery(`INSERT INTO order_items`).
		WillReturnError(errors.New("fk violation"))
	assert.Error(t, repo.InsertItem(ctx, db, &Item{OrderID: 101, ProductID: 999, Quantity: 1}))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetOrderDetail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now()

	t.Run("WithItemsAndAddress", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, user_id, total_amount, shipping_fee, status, created_at, updated_at FROM orders WHERE id = \$1`).
			WithArgs(int64(101)).
			WillReturnRows(sqlmock.NewRows(orderCols).AddRow(101, 3, 200, 0, "paid", now, now))
		mock.ExpectQuery(`FROM order_items WHERE order_id = ANY\(\$1\)`).
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows(itemCols).
				AddRow(1, 101, 7, 2, 100, "M").
				AddRow(2, 101, 8, 1, 50, ""))
		mock.ExpectQuery(`FROM order_addresses WHERE order_id = \$1`).
			WithArgs(int64(101)).
			WillReturnRows(sqlmock.NewRows(addressCols).
				AddRow(5, 101, 3, "Jane", "0800", "1 Road", "", "", "", "Bangkok", "10110", "Thailand", ""))

		o, err := repo.GetOrderDetail(ctx, 101)
		require.NoError(t, err)
		assert.Equal(t, StatusPaid, o.Status)
		require.Len(t, o.Items, 2)
		assert.Equal(t, "M", o.Items[0].Size)
		assert.Equal(t, int64(50), o.Items[1].Price)
		require.NotNil(t, o.Address)
		assert.Equal(t, "Thailand", o.Address.Country)
	})

	t.Run("NoAddress", func(t *testing.T) {
		mock.ExpectQuery(`FROM orders WHERE id = \$1`).
			WithArgs(int64(102)).
			WillReturnRows(sqlmock.NewRows(orderCols).AddRow(102, 3, 100, 0, "paid", now, now))
		mock.ExpectQuery(`FROM order_items`).
			WillReturnRows(sqlmock.NewRows(itemCols).AddRow(3, 102, 7, 1, 100, ""))
		mock.ExpectQuery(`FROM order_addresses`).
			WillReturnRows(sqlmock.NewRows(addressCols))

		o, err := repo.GetOrderDetail(ctx, 102)
		require.NoError(t, err)
		assert.Nil(t, o.Address)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(`FROM orders WHERE id = \$1`).
			WithArgs(int64(999)).
			WillReturnRows(sqlmock.NewRows(orderCols))

		_, err := repo.GetOrderDetail(ctx, 999)
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListByUser(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now()

	t.Run("WithStatusFilter", func(t *testing.T) {
		status := StatusPaid
		mock.ExpectQuery(`FROM orders WHERE user_id = \$1 AND status = \$2 ORDER BY created_at DESC LIMIT \$3 OFFSET \$4`).
			WithArgs(uint(3), StatusPaid, 20, 0).
			WillReturnRows(sqlmock.NewRows(orderCols).
				AddRow(102, 3, 100, 0, "paid", now, now).
				AddRow(101, 3, 200, 0, "paid", now, now))
		mock.ExpectQuery(`FROM order_items WHERE order_id = ANY\(\$1\)`).
			WillReturnRows(sqlmock.NewRows(itemCols).
				AddRow(1, 101, 7, 2, 100, "M").
				AddRow(3, 102, 8, 1, 100, ""))

		orders, err := repo.ListByUser(ctx, 3, &status, 20, 0)
		require.NoError(t, err)
		require.Len(t, orders, 2)
		assert.Len(t, orders[0].Items, 1)
		assert.Equal(t, int64(8), orders[0].Items[0].ProductID)
		assert.Equal(t, int64(7), orders[1].Items[0].ProductID)
	})

	t.Run("Empty", func(t *testing.T) {
		mock.ExpectQuery(`FROM orders WHERE user_id = \$1 ORDER BY created_at DESC LIMIT \$2 OFFSET \$3`).
			WithArgs(uint(4), 20, 20).
			WillReturnRows(sqlmock.NewRows(orderCols))

		orders, err := repo.ListByUser(ctx, 4, nil, 20, 20)
		require.NoError(t, err)
		assert.Empty(t, orders)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateStatus(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRepository(db)
	ctx := context.Background()

	mock.ExpectExec(`UPDATE orders SET status = \$1, updated_at = NOW\(\) WHERE id = \$2`).
		WithArgs(StatusShipped, int64(101)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.UpdateStatus(ctx, 101, StatusShipped))

	mock.ExpectExec(`UPDATE orders`).
		WithArgs(StatusShipped, int64(999)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.UpdateStatus(ctx, 999, StatusShipped), ErrOrderNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ItemPricesComeFromOrderItems(t *testing.T) {
	var queries []string
	matcher := sqlmock.QueryMatcherFunc(func(expectedSQL, actualSQL string) error {
		queries = append(queries, actualSQL)
		return sqlmock.QueryMatcherRegexp.Match(expectedSQL, actualSQL)
	})

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(matcher))
	require.NoError(t, err)
	defer db.Close()
	repo := NewRepository(db)
	now := time.Now()

	mock.ExpectQuery(`FROM orders WHERE id = \$1`).
		WithArgs(int64(101)).
		WillReturnRows(sqlmock.NewRows(orderCols).AddRow(101, 3, 200, 0, "paid", now, now))
	mock.ExpectQuery(`SELECT id, order_id, product_id, quantity, price, COALESCE\(size, ''\) FROM order_items`).
		WillReturnRows(sqlmock.NewRows(itemCols).AddRow(1, 101, 7, 2, 100, "M"))
	mock.ExpectQuery(`FROM order_addresses`).
		WillReturnRows(sqlmock.NewRows(addressCols))

	mock.ExpectQuery(`FROM orders WHERE user_id = \$1`).
		WillReturnRows(sqlmock.NewRows(orderCols).AddRow(101, 3, 200, 0, "paid", now, now))
	mock.ExpectQuery(`FROM order_items`).
		WillReturnRows(sqlmock.NewRows(itemCols).AddRow(1, 101, 7, 2, 100, "M"))

	o, err := repo.GetOrderDetail(context.Background(), 101)
	require.NoError(t, err)
	require.Len(t, o.Items, 1)
	assert.Equal(t, int64(100), o.Items[0].Price)

	list, err := repo.ListByUser(context.Background(), 3, nil, 20, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Len(t, list[0].Items, 1)
	assert.Equal(t, int64(100), list[0].Items[0].Price)

	require.NoError(t, mock.ExpectationsWereMet())
	require.NotEmpty(t, queries)
	for _, q := range queries {
		assert.NotRegexp(t, `\bproducts\b`, q, "order reads must not join the catalog")
	}
}

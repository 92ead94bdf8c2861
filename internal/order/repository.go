package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront-be/internal/address"
	"storefront-be/internal/db"
	"storefront-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// Repository is the order ledger. Writes take the caller's handle so they
// join the creation transaction.
type Repository interface {
	FindIDByPaymentIntent(ctx context.Context, q db.DBTX, paymentIntentID string) (int64, bool, error)
	InsertOrder(ctx context.Context, q db.DBTX, o *Order) error
	InsertItem(ctx context.Context, q db.DBTX, it *Item) error

	GetOrderDetail(ctx context.Context, orderID int64) (*Order, error)
	ListByUser(ctx context.Context, userID uint, status *Status, limit, offset int) ([]*Order, error)
	UpdateStatus(ctx context.Context, orderID int64, status Status) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindIDByPaymentIntent(
	ctx context.Context,
	q db.DBTX,
	paymentIntentID string,
) (int64, bool, error) {

	var orderID int64
	err := q.QueryRowContext(ctx, `
		SELECT order_id
		FROM order_payments
		WHERE payment_intent_id = $1
	`, paymentIntentID).Scan(&orderID)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to look up payment intent",
			zap.String("repo", "Order"),
			zap.String("method", "FindIDByPaymentIntent"),
			zap.String("payment_intent_id", paymentIntentID),
			zap.Error(err),
		)
		return 0, false, err
	}
	return orderID, true, nil
}

func (r *repository) InsertOrder(ctx context.Context, q db.DBTX, o *Order) error {
	err := q.QueryRowContext(ctx, `
		INSERT INTO orders (user_id, total_amount, shipping_fee, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, o.UserID, o.TotalAmount, o.ShippingFee, o.Status).
		Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to insert order",
			zap.String("repo", "Order"),
			zap.String("method", "InsertOrder"),
			zap.Uint("user_id", o.UserID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (r *repository) InsertItem(ctx context.Context, q db.DBTX, it *Item) error {
	err := q.QueryRowContext(ctx, `
		INSERT INTO order_items (order_id, product_id, quantity, price, size)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
		RETURNING id
	`, it.OrderID, it.ProductID, it.Quantity, it.Price, it.Size).Scan(&it.ID)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to insert order item",
			zap.String("repo", "Order"),
			zap.String("method", "InsertItem"),
			zap.Int64("order_id", it.OrderID),
			zap.Int64("product_id", it.ProductID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// GetOrderDetail loads an order with its items and address snapshot.
func (r *repository) GetOrderDetail(ctx context.Context, orderID int64) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("repo", "Order"),
		zap.String("method", "GetOrderDetail"),
		zap.Int64("order_id", orderID),
	)

	var o Order
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, total_amount, shipping_fee, status, created_at, updated_at
		FROM orders
		WHERE id = $1
	`, orderID).Scan(&o.ID, &o.UserID, &o.TotalAmount, &o.ShippingFee, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		log.Error("failed to query order", zap.Error(err))
		return nil, err
	}

	items, err := r.fetchItems(ctx, []int64{o.ID})
	if err != nil {
		log.Error("failed to query order items", zap.Error(err))
		return nil, err
	}
	o.Items = items[o.ID]

	if o.Address, err = r.fetchAddress(ctx, o.ID); err != nil {
		log.Error("failed to query order address", zap.Error(err))
		return nil, err
	}

	return &o, nil
}

func (r *repository) ListByUser(
	ctx context.Context,
	userID uint,
	status *Status,
	limit, offset int,
) ([]*Order, error) {

	log := logger.FromCtx(ctx).With(
		zap.String("repo", "Order"),
		zap.String("method", "ListByUser"),
		zap.Uint("user_id", userID),
		zap.Int("limit", limit),
		zap.Int("offset", offset),
	)

	// ---------- BASE QUERY ----------
	query := `
		SELECT id, user_id, total_amount, shipping_fee, status, created_at, updated_at
		FROM orders
		WHERE user_id = $1
	`
	args := []any{userID}

	// ---------- FILTERING ----------
	if status != nil {
		args = append(args, *status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}

	// ---------- PAGINATION ----------
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var (
		orders []*Order
		ids    []int64
	)
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.TotalAmount, &o.ShippingFee, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			log.Error("failed to scan order row", zap.Error(err))
			return nil, err
		}
		orders = append(orders, &o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		log.Error("rows iteration error", zap.Error(err))
		return nil, err
	}

	if len(ids) == 0 {
		return orders, nil
	}

	items, err := r.fetchItems(ctx, ids)
	if err != nil {
		log.Error("failed to query order items", zap.Error(err))
		return nil, err
	}
	for _, o := range orders {
		o.Items = items[o.ID]
	}

	log.Debug("list orders success", zap.Int("count", len(orders)))
	return orders, nil
}

func (r *repository) UpdateStatus(ctx context.Context, orderID int64, status Status) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`, status, orderID)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to update order status",
			zap.String("repo", "Order"),
			zap.String("method", "UpdateStatus"),
			zap.Int64("order_id", orderID),
			zap.Error(err),
		)
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *repository) fetchItems(ctx context.Context, orderIDs []int64) (map[int64][]Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, quantity, price, COALESCE(size, '')
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make(map[int64][]Item, len(orderIDs))
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.Price, &it.Size); err != nil {
			return nil, err
		}
		items[it.OrderID] = append(items[it.OrderID], it)
	}
	return items, rows.Err()
}

func (r *repository) fetchAddress(ctx context.Context, orderID int64) (*address.Snapshot, error) {
	var s address.Snapshot
	err := r.db.QueryRowContext(ctx, `
		SELECT
			id, order_id, user_id,
			full_name, phone_number,
			address_line1, address_line2,
			subdistrict, district, province, postal_code,
			country, note
		FROM order_addresses
		WHERE order_id = $1
	`, orderID).Scan(
		&s.ID, &s.OrderID, &s.UserID,
		&s.FullName, &s.PhoneNumber,
		&s.AddressLine1, &s.AddressLine2,
		&s.Subdistrict, &s.District, &s.Province, &s.PostalCode,
		&s.Country, &s.Note,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront-be/internal/db"
	"storefront-be/internal/logger"

	"go.uber.org/zap"
)

// Repository is the InventoryStore. Every method runs on the caller's
// handle so decrements share the order transaction.
type Repository interface {
	Resolve(ctx context.Context, q db.DBTX, productID int64, size string) (Unit, error)
	Decrement(ctx context.Context, q db.DBTX, line Line) (Outcome, error)
	Available(ctx context.Context, q db.DBTX, productID int64, size string) (*int64, error)
}

type repository struct{}

func NewRepository() Repository {
	return &repository{}
}

const lookupStockQuery = `
	SELECT p.stock, ps.stock, ps.product_id IS NOT NULL
	FROM products p
	LEFT JOIN product_sizes ps
		ON ps.product_id = p.id AND ps.size_name = $2 AND $2 <> ''
	WHERE p.id = $1
`

func (r *repository) lookup(
	ctx context.Context,
	q db.DBTX,
	productID int64,
	size string,
) (Unit, *int64, error) {

	var (
		productStock sql.NullInt64
		sizeStock    sql.NullInt64
		sizeFound    bool
	)

	err := q.QueryRowContext(ctx, lookupStockQuery, productID, size).
		Scan(&productStock, &sizeStock, &sizeFound)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("%w: %d", ErrProductNotFound, productID)
	}
	if err != nil {
		return nil, nil, err
	}

	unit, stock := resolveUnit(productID, size, sizeFound, nullable(sizeStock), nullable(productStock))
	return unit, stock, nil
}

func (r *repository) Resolve(
	ctx context.Context,
	q db.DBTX,
	productID int64,
	size string,
) (Unit, error) {
	unit, _, err := r.lookup(ctx, q, productID, size)
	return unit, err
}

// Available returns the stock a cart line would draw from, nil when the
// product is untracked.
func (r *repository) Available(
	ctx context.Context,
	q db.DBTX,
	productID int64,
	size string,
) (*int64, error) {
	_, stock, err := r.lookup(ctx, q, productID, size)
	return stock, err
}

// Decrement subtracts line.Quantity from the resolved unit with a single
// conditional UPDATE, so concurrent orders can never take stock below zero.
// Insufficient stock is reported through Outcome, never as an error.
func (r *repository) Decrement(
	ctx context.Context,
	q db.DBTX,
	line Line,
) (Outcome, error) {

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Decrement"),
		zap.Int64("product_id", line.ProductID),
		zap.String("size", line.Size),
		zap.Int("quantity", line.Quantity),
	)

	if line.Quantity <= 0 {
		return Outcome{}, ErrInvalidQuantity
	}

	unit, err := r.Resolve(ctx, q, line.ProductID, line.Size)
	if err != nil {
		log.Error("failed to resolve inventory unit", zap.Error(err))
		return Outcome{}, err
	}

	var res sql.Result
	switch u := unit.(type) {
	case SizeUnit:
		res, err = q.ExecContext(ctx, `
			UPDATE product_sizes
			SET stock = stock - $1
			WHERE product_id = $2
			  AND size_name = $3
			  AND stock IS NOT NULL
			  AND stock >= $1
		`, line.Quantity, u.ProductID, u.Size)
	case ProductUnit:
		res, err = q.ExecContext(ctx, `
			UPDATE products
			SET stock = stock - $1, updated_at = NOW()
			WHERE id = $2
			  AND stock IS NOT NULL
			  AND stock >= $1
		`, line.Quantity, u.ProductID)
	case Untracked:
		log.Debug("stock not tracked, skipping decrement")
		return Outcome{Unit: unit}, nil
	}
	if err != nil {
		log.Error("failed to decrement stock", zap.String("unit", unit.String()), zap.Error(err))
		return Outcome{}, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{Unit: unit, Applied: affected > 0}
	log.Debug("stock decrement evaluated",
		zap.String("unit", unit.String()),
		zap.Bool("applied", out.Applied),
	)
	return out, nil
}

func nullable(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

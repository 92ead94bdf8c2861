package cart

import (
	"context"
	"database/sql"
	"errors"

	"storefront-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	GetItem(ctx context.Context, userID uint, productID int64, size string) (*Item, error)
	CreateItem(ctx context.Context, params AddToCartParams) (*Item, error)
	UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) (*Item, error)
	ListItems(ctx context.Context, userID uint) ([]*Item, error)
	RemoveItem(ctx context.Context, params RemoveFromCartParams) error
	ClearCart(ctx context.Context, userID uint) (int64, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const itemColumns = `id, user_id, product_id, size, quantity, created_at, updated_at`

func scanItem(row interface{ Scan(...any) error }) (*Item, error) {
	var it Item
	err := row.Scan(
		&it.ID,
		&it.UserID,
		&it.ProductID,
		&it.Size,
		&it.Quantity,
		&it.CreatedAt,
		&it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// GetItem returns nil, nil when the user has no line for the product and size.
func (r *repository) GetItem(
	ctx context.Context,
	userID uint,
	productID int64,
	size string,
) (*Item, error) {

	row := r.db.QueryRowContext(ctx, `
		SELECT `+itemColumns+`
		FROM carts
		WHERE user_id = $1 AND product_id = $2 AND size = $3
	`, userID, productID, size)

	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return it, nil
}

func (r *repository) CreateItem(
	ctx context.Context,
	params AddToCartParams,
) (*Item, error) {

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateItem"),
		zap.Uint("user_id", params.UserID),
		zap.Int64("product_id", params.ProductID),
	)

	log.Debug("start create cart item")

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO carts (user_id, product_id, size, quantity)
		VALUES ($1, $2, $3, $4)
		RETURNING `+itemColumns,
		params.UserID, params.ProductID, params.Size, params.Quantity,
	)

	it, err := scanItem(row)
	if err != nil {
		log.Error("failed to create cart item", zap.Error(err))
		return nil, err
	}

	log.Debug("cart item created", zap.Int64("cart_item_id", it.ID))
	return it, nil
}

func (r *repository) UpdateItemQuantity(
	ctx context.Context,
	itemID int64,
	quantity int,
) (*Item, error) {

	row := r.db.QueryRowContext(ctx, `
		UPDATE carts
		SET quantity = $1,
		    updated_at = NOW()
		WHERE id = $2
		RETURNING `+itemColumns,
		quantity, itemID,
	)

	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCartItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return it, nil
}

func (r *repository) ListItems(ctx context.Context, userID uint) ([]*Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM carts
		WHERE user_id = $1
		ORDER BY created_at, id
	`, userID)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to query cart",
			zap.String("layer", "repository"),
			zap.String("method", "ListItems"),
			zap.Error(err),
		)
		return nil, err
	}
	defer rows.Close()

	items := []*Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *repository) RemoveItem(ctx context.Context, params RemoveFromCartParams) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM carts
		WHERE user_id = $1 AND product_id = $2 AND size = $3
	`, params.UserID, params.ProductID, params.Size)
	if err != nil {
		return err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

// ClearCart deletes every line of the user's cart and reports how many
// were removed.
func (r *repository) ClearCart(ctx context.Context, userID uint) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM carts WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

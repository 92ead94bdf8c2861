package cart

import (
	"context"
	"errors"
	"fmt"

	"storefront-be/internal/db"
	"storefront-be/internal/inventory"
	"storefront-be/internal/logger"

	"go.uber.org/zap"
)

// Service defines the business logic for carts.
type Service interface {
	AddToCart(ctx context.Context, params AddToCartParams) (*Item, error)
	GetCart(ctx context.Context, userID uint) ([]*Item, error)
	RemoveFromCart(ctx context.Context, params RemoveFromCartParams) error
	ClearCart(ctx context.Context, userID uint) error
}

type service struct {
	repo  Repository
	stock inventory.Repository
	conn  db.DBTX
}

// NewService creates a new cart service. conn is the handle stock is read
// through.
func NewService(repo Repository, stock inventory.Repository, conn db.DBTX) Service {
	return &service{repo: repo, stock: stock, conn: conn}
}

// AddToCart adds quantity to the user's line for the product and size. It
// is an early guard only: the stock is checked again, atomically, when the
// paid order decrements it.
func (s *service) AddToCart(
	ctx context.Context,
	params AddToCartParams,
) (*Item, error) {

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "AddToCart"),
		zap.Int64("product_id", params.ProductID),
		zap.String("size", params.Size),
	)

	if params.UserID == 0 {
		return nil, ErrUserNotAuthenticated
	}
	if params.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	// 1️⃣ Existing line, if any
	item, err := s.repo.GetItem(ctx, params.UserID, params.ProductID, params.Size)
	if err != nil {
		return nil, err
	}

	finalQty := params.Quantity
	if item != nil {
		finalQty += item.Quantity
	}

	// 2️⃣ Validate stock
	available, err := s.stock.Available(ctx, s.conn, params.ProductID, params.Size)
	if errors.Is(err, inventory.ErrProductNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	if available != nil && int64(finalQty) > *available {
		log.Info("cart quantity exceeds stock",
			zap.Int("requested", finalQty),
			zap.Int64("available", *available),
		)
		return nil, ErrInsufficientStock
	}

	// 3️⃣ Create or update
	if item == nil {
		return s.repo.CreateItem(ctx, params)
	}
	return s.repo.UpdateItemQuantity(ctx, item.ID, finalQty)
}

func (s *service) GetCart(ctx context.Context, userID uint) ([]*Item, error) {
	if userID == 0 {
		return nil, ErrUserNotAuthenticated
	}
	return s.repo.ListItems(ctx, userID)
}

func (s *service) RemoveFromCart(ctx context.Context, params RemoveFromCartParams) error {
	if params.UserID == 0 {
		return ErrUserNotAuthenticated
	}
	return s.repo.RemoveItem(ctx, params)
}

// ClearCart empties the user's cart. An already empty cart is not an error.
func (s *service) ClearCart(ctx context.Context, userID uint) error {
	if userID == 0 {
		return ErrUserNotAuthenticated
	}

	n, err := s.repo.ClearCart(ctx, userID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFailedClearCart, err)
	}

	logger.FromCtx(ctx).Debug("cart cleared",
		zap.String("layer", "service"),
		zap.String("method", "ClearCart"),
		zap.Uint("user_id", userID),
		zap.Int64("removed", n),
	)
	return nil
}

package address

import (
	"context"
	"database/sql"
	"errors"

	"storefront-be/internal/db"
	"storefront-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Repository interface {
	// GetByID returns an active saved address owned by userID.
	GetByID(ctx context.Context, id uuid.UUID, userID uint) (*Address, error)

	// InsertSnapshot is the only write path for order addresses.
	InsertSnapshot(ctx context.Context, q db.DBTX, s *Snapshot) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(
	ctx context.Context,
	id uuid.UUID,
	userID uint,
) (*Address, error) {

	log := logger.FromCtx(ctx).With(
		zap.String("repo", "Address"),
		zap.String("method", "GetByID"),
		zap.String("address_id", id.String()),
	)

	const q = `
		SELECT
			id, user_id,
			full_name, phone_number,
			address_line1, address_line2,
			subdistrict, district, province, postal_code,
			country, note,
			is_default, is_active
		FROM addresses
		WHERE id = $1 AND user_id = $2 AND is_active = true
		LIMIT 1
	`

	var a Address
	err := r.db.QueryRowContext(ctx, q, id, userID).Scan(
		&a.ID, &a.UserID,
		&a.FullName, &a.PhoneNumber,
		&a.AddressLine1, &a.AddressLine2,
		&a.Subdistrict, &a.District, &a.Province, &a.PostalCode,
		&a.Country, &a.Note,
		&a.IsDefault, &a.IsActive,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAddressNotFound
	}
	if err != nil {
		log.Error("query failed", zap.Error(err))
		return nil, err
	}

	return &a, nil
}

func (r *repository) InsertSnapshot(
	ctx context.Context,
	q db.DBTX,
	s *Snapshot,
) error {

	log := logger.FromCtx(ctx).With(
		zap.String("repo", "Address"),
		zap.String("method", "InsertSnapshot"),
		zap.Int64("order_id", s.OrderID),
	)

	const stmt = `
		INSERT INTO order_addresses (
			order_id, user_id,
			full_name, phone_number,
			address_line1, address_line2,
			subdistrict, district, province, postal_code,
			country, note
		) VALUES (
			$1, $2,
			$3, $4,
			$5, $6,
			$7, $8, $9, $10,
			$11, $12
		)
		RETURNING id
	`

	err := q.QueryRowContext(
		ctx, stmt,
		s.OrderID, s.UserID,
		s.FullName, s.PhoneNumber,
		s.AddressLine1, s.AddressLine2,
		s.Subdistrict, s.District, s.Province, s.PostalCode,
		s.Country, s.Note,
	).Scan(&s.ID)
	if err != nil {
		log.Error("insert failed", zap.Error(err))
		return err
	}

	return nil
}

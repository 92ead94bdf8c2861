package address

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()
	id := uuid.New()

	cols := []string{
		"id", "user_id", "full_name", "phone_number", "address_line1", "address_line2",
		"subdistrict", "district", "province", "postal_code", "country", "note",
		"is_default", "is_active",
	}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM addresses WHERE id = \$1 AND user_id = \$2 AND is_active = true`).
			WithArgs(id, uint(3)).
			WillReturnRows(sqlmock.NewRows(cols).AddRow(
				id.String(), 3, "Nok", "0812345678", "1 Silom", nil,
				"Suriyawong", "Bang Rak", "Bangkok", "10500", nil, nil,
				true, true,
			))

		a, err := repo.GetByID(ctx, id, 3)
		require.NoError(t, err)
		assert.Equal(t, "Nok", a.FullName)
		assert.Nil(t, a.AddressLine2)
		assert.Equal(t, "Suriyawong", *a.Subdistrict)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM addresses`).
			WithArgs(id, uint(4)).
			WillReturnRows(sqlmock.NewRows(cols))

		_, err := repo.GetByID(ctx, id, 4)
		assert.ErrorIs(t, err, ErrAddressNotFound)
	})

	t.Run("DBError", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM addresses`).
			WillReturnError(errors.New("db error"))

		_, err := repo.GetByID(ctx, id, 3)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrAddressNotFound)
	})
}

func TestRepository_InsertSnapshot(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	s := NewSnapshot(10, 3, Input{}, "Thailand")

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO order_addresses`).
			WithArgs(int64(10), uint(3), "", "", "", "", "", "", "", "", "Thailand", "").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(55))

		require.NoError(t, repo.InsertSnapshot(context.Background(), db, s))
		assert.Equal(t, int64(55), s.ID)
	})

	t.Run("Error", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO order_addresses`).
			WillReturnError(errors.New("fk violation"))

		assert.Error(t, repo.InsertSnapshot(context.Background(), db, s))
	})
}

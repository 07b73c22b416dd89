package user

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "name", "email", "phone_number", "role"}).
			AddRow("u-1", "Budi", "budi@example.com", "0811", "CUSTOMER")

		mock.ExpectQuery(`SELECT id, name, email, phone_number, role FROM users WHERE id = \$1`).
			WithArgs("u-1").
			WillReturnRows(rows)

		u, err := repo.GetByID(ctx, "u-1")
		require.NoError(t, err)
		assert.Equal(t, "Budi", u.Name)
		assert.Equal(t, "0811", u.Phone())
		assert.Equal(t, RoleCustomer, u.Role)
	})

	t.Run("NullPhone", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "name", "email", "phone_number", "role"}).
			AddRow("u-2", "Sari", "sari@example.com", nil, "SELLER")

		mock.ExpectQuery(`SELECT .* FROM users`).
			WithArgs("u-2").
			WillReturnRows(rows)

		u, err := repo.GetByID(ctx, "u-2")
		require.NoError(t, err)
		assert.Equal(t, "", u.Phone())
		assert.Equal(t, RoleSeller, u.Role)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM users`).
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "phone_number", "role"}))

		u, err := repo.GetByID(ctx, "missing")
		assert.ErrorIs(t, err, ErrUserNotFound)
		assert.Nil(t, u)
	})

	t.Run("DBError", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM users`).
			WillReturnError(errors.New("connection refused"))

		_, err := repo.GetByID(ctx, "u-1")
		assert.Error(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

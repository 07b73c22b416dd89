package car

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var carColumns = []string{
	"id", "owner_id", "brand", "model", "license_plate", "price", "is_available", "created_at", "updated_at",
}

func TestRepository_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, owner_id, brand, model, license_plate, price, is_available, created_at, updated_at FROM cars WHERE id = \$1$`).
			WithArgs("car-1").
			WillReturnRows(sqlmock.NewRows(carColumns).
				AddRow("car-1", "seller-1", "Toyota", "Avanza", "B 1234 XYZ", 100, true, now, now))

		c, err := repo.FindByID(ctx, "car-1")
		require.NoError(t, err)
		assert.Equal(t, "seller-1", c.OwnerID)
		assert.Equal(t, int64(100), c.Price)
		assert.True(t, c.IsAvailable)
		assert.Equal(t, "Toyota Avanza (B 1234 XYZ)", c.DisplayName())
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM cars`).
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows(carColumns))

		c, err := repo.FindByID(ctx, "missing")
		assert.ErrorIs(t, err, ErrCarNotFound)
		assert.Nil(t, c)
	})

	t.Run("DBError", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM cars`).
			WillReturnError(errors.New("db error"))

		_, err := repo.FindByID(ctx, "car-1")
		assert.Error(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FindByIDForUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM cars WHERE id = \$1 FOR UPDATE`).
		WithArgs("car-1").
		WillReturnRows(sqlmock.NewRows(carColumns).
			AddRow("car-1", "seller-1", "Toyota", "Avanza", "B 1234 XYZ", 100, true, now, now))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)

	c, err := NewRepository(tx).FindByIDForUpdate(context.Background(), "car-1")
	require.NoError(t, err)
	assert.Equal(t, "car-1", c.ID)

	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateAvailability(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(`UPDATE cars SET is_available = \$1, updated_at = NOW\(\) WHERE id = \$2`).
			WithArgs(false, "car-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.UpdateAvailability(ctx, "car-1", false))
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectExec(`UPDATE cars`).
			WithArgs(true, "missing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.UpdateAvailability(ctx, "missing", true), ErrCarNotFound)
	})

	t.Run("DBError", func(t *testing.T) {
		mock.ExpectExec(`UPDATE cars`).
			WillReturnError(errors.New("db error"))

		assert.Error(t, repo.UpdateAvailability(ctx, "car-1", true))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

package car

import (
	"context"
	"database/sql"
	"errors"

	"rentcar-be/internal/db"
	"rentcar-be/internal/logger"

	"go.uber.org/zap"
)

var ErrCarNotFound = errors.New("car not found")

type Repository interface {
	FindByID(ctx context.Context, id string) (*Car, error)
	// FindByIDForUpdate locks the row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id string) (*Car, error)
	UpdateAvailability(ctx context.Context, id string, available bool) error
}

type repository struct {
	q db.Queryer
}

// NewRepository accepts either the pool or an open transaction.
func NewRepository(q db.Queryer) Repository {
	return &repository{q: q}
}

const selectCar = `
	SELECT id, owner_id, brand, model, license_plate, price, is_available, created_at, updated_at
	FROM cars
	WHERE id = $1`

func (r *repository) FindByID(ctx context.Context, id string) (*Car, error) {
	return r.find(ctx, selectCar, id)
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id string) (*Car, error) {
	return r.find(ctx, selectCar+" FOR UPDATE", id)
}

func (r *repository) find(ctx context.Context, query, id string) (*Car, error) {
	var c Car
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&c.ID,
		&c.OwnerID,
		&c.Brand,
		&c.Model,
		&c.LicensePlate,
		&c.Price,
		&c.IsAvailable,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCarNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to load car", zap.String("car_id", id), zap.Error(err))
		return nil, err
	}
	return &c, nil
}

func (r *repository) UpdateAvailability(ctx context.Context, id string, available bool) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE cars SET is_available = $1, updated_at = NOW() WHERE id = $2`,
		available, id,
	)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to update car availability",
			zap.String("car_id", id),
			zap.Bool("available", available),
			zap.Error(err),
		)
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCarNotFound
	}
	return nil
}

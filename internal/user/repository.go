package user

import (
	"context"
	"database/sql"
	"errors"

	"rentcar-be/internal/logger"

	"go.uber.org/zap"
)

var ErrUserNotFound = errors.New("user not found")

type Repository interface {
	GetByID(ctx context.Context, id string) (*User, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	var u User
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, email, phone_number, role FROM users WHERE id = $1",
		id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PhoneNumber, &u.Role)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to load user",
			zap.String("user_id", id),
			zap.Error(err),
		)
		return nil, err
	}

	return &u, nil
}

package order

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"rentcar-be/internal/car"
	"rentcar-be/internal/db"
	"rentcar-be/internal/logger"

	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// Store is one unit of work against orders and the cars they reference.
// Inside WithinTx the car and order reads lock their rows.
type Store interface {
	FindCar(ctx context.Context, carID string) (*car.Car, error)
	UpdateCarAvailability(ctx context.Context, carID string, available bool) error
	FindOverlappingOrders(ctx context.Context, carID string, start, end time.Time, statuses []OrderStatus) ([]*Order, error)
	CountCarOrders(ctx context.Context, carID, excludeOrderID string, statuses []OrderStatus) (int, error)
	InsertOrder(ctx context.Context, o *Order) error
	UpdateOrder(ctx context.Context, o *Order) error
	FindOrder(ctx context.Context, id string) (*Order, error)
}

type Repository interface {
	Store
	WithinTx(ctx context.Context, fn func(Store) error) error
	ListByCustomer(ctx context.Context, customerID string) ([]*Order, error)
	ListBySeller(ctx context.Context, sellerID string) ([]*Order, error)
	// SetPaymentStatus reports whether the stored status actually changed.
	SetPaymentStatus(ctx context.Context, orderID string, status PaymentStatus) (bool, error)
	SetPaymentInfo(ctx context.Context, orderID, token, url string) error
}

type repository struct {
	conn *sql.DB
	q    db.Queryer
	cars car.Repository
	inTx bool
}

func NewRepository(conn *sql.DB) Repository {
	return &repository{
		conn: conn,
		q:    conn,
		cars: car.NewRepository(conn),
	}
}

func (r *repository) WithinTx(ctx context.Context, fn func(Store) error) error {
	return db.WithTx(ctx, r.conn, func(tx *sql.Tx) error {
		return fn(&repository{
			conn: r.conn,
			q:    tx,
			cars: car.NewRepository(tx),
			inTx: true,
		})
	})
}

const orderColumns = `
	o.id, o.car_id, o.customer_id, o.seller_id, o.start_date, o.end_date,
	o.total_price, o.status, o.payment_method, o.payment_status,
	o.payment_token, o.payment_url, o.created_at, o.updated_at`

const carColumns = `
	c.id, c.owner_id, c.brand, c.model, c.license_plate, c.price,
	c.is_available, c.created_at, c.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(s rowScanner, withCar bool) (*Order, error) {
	var o Order
	dest := []any{
		&o.ID, &o.CarID, &o.CustomerID, &o.SellerID, &o.StartDate, &o.EndDate,
		&o.TotalPrice, &o.Status, &o.PaymentMethod, &o.PaymentStatus,
		&o.PaymentToken, &o.PaymentURL, &o.CreatedAt, &o.UpdatedAt,
	}

	var c car.Car
	if withCar {
		dest = append(dest,
			&c.ID, &c.OwnerID, &c.Brand, &c.Model, &c.LicensePlate, &c.Price,
			&c.IsAvailable, &c.CreatedAt, &c.UpdatedAt,
		)
	}

	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	if withCar {
		o.Car = &c
	}
	return &o, nil
}

func statusStrings(statuses []OrderStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func (r *repository) FindCar(ctx context.Context, carID string) (*car.Car, error) {
	if r.inTx {
		return r.cars.FindByIDForUpdate(ctx, carID)
	}
	return r.cars.FindByID(ctx, carID)
}

func (r *repository) UpdateCarAvailability(ctx context.Context, carID string, available bool) error {
	return r.cars.UpdateAvailability(ctx, carID, available)
}

func (r *repository) FindOverlappingOrders(
	ctx context.Context,
	carID string,
	start, end time.Time,
	statuses []OrderStatus,
) ([]*Order, error) {
	query := `SELECT` + orderColumns + `
		FROM orders o
		WHERE o.car_id = $1
		  AND o.status = ANY($2)
		  AND o.start_date <= $3
		  AND o.end_date >= $4
		ORDER BY o.start_date`

	rows, err := r.q.QueryContext(ctx, query, carID, pq.Array(statusStrings(statuses)), end, start)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to query overlapping orders",
			zap.String("car_id", carID),
			zap.Error(err),
		)
		return nil, err
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		o, err := scanOrder(rows, false)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *repository) CountCarOrders(ctx context.Context, carID, excludeOrderID string, statuses []OrderStatus) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM orders
		WHERE car_id = $1
		  AND id <> $2
		  AND status = ANY($3)
	`, carID, excludeOrderID, pq.Array(statusStrings(statuses))).Scan(&n)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to count car orders",
			zap.String("car_id", carID),
			zap.Error(err),
		)
		return 0, err
	}
	return n, nil
}

func (r *repository) InsertOrder(ctx context.Context, o *Order) error {
	err := r.q.QueryRowContext(ctx, `
		INSERT INTO orders (
			id, car_id, customer_id, seller_id, start_date, end_date,
			total_price, status, payment_method, payment_status
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at
	`,
		o.ID,
		o.CarID,
		o.CustomerID,
		o.SellerID,
		o.StartDate,
		o.EndDate,
		o.TotalPrice,
		o.Status,
		o.PaymentMethod,
		o.PaymentStatus,
	).Scan(&o.CreatedAt, &o.UpdatedAt)

	if isExclusionViolation(err) {
		return ErrCarBooked
	}
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to insert order",
			zap.String("order_id", o.ID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (r *repository) UpdateOrder(ctx context.Context, o *Order) error {
	err := r.q.QueryRowContext(ctx, `
		UPDATE orders
		SET status = $1,
		    payment_status = $2,
		    payment_token = $3,
		    payment_url = $4,
		    updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at
	`,
		o.Status,
		o.PaymentStatus,
		o.PaymentToken,
		o.PaymentURL,
		o.ID,
	).Scan(&o.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return ErrOrderNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to update order",
			zap.String("order_id", o.ID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (r *repository) FindOrder(ctx context.Context, id string) (*Order, error) {
	query := `SELECT` + orderColumns + `, ` + carColumns + `
		FROM orders o
		JOIN cars c ON c.id = o.car_id
		WHERE o.id = $1`
	if r.inTx {
		query += " FOR UPDATE OF o"
	}

	o, err := scanOrder(r.q.QueryRowContext(ctx, query, id), true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to load order",
			zap.String("order_id", id),
			zap.Error(err),
		)
		return nil, err
	}
	return o, nil
}

func (r *repository) ListByCustomer(ctx context.Context, customerID string) ([]*Order, error) {
	return r.list(ctx, "o.customer_id", customerID)
}

func (r *repository) ListBySeller(ctx context.Context, sellerID string) ([]*Order, error) {
	return r.list(ctx, "o.seller_id", sellerID)
}

func (r *repository) list(ctx context.Context, column, userID string) ([]*Order, error) {
	query := `SELECT` + orderColumns + `, ` + carColumns + `
		FROM orders o
		JOIN cars c ON c.id = o.car_id
		WHERE ` + column + ` = $1
		ORDER BY o.created_at DESC`

	rows, err := r.q.QueryContext(ctx, query, userID)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to list orders",
			zap.String("filter", column),
			zap.Error(err),
		)
		return nil, err
	}
	defer rows.Close()

	orders := []*Order{}
	for rows.Next() {
		o, err := scanOrder(rows, true)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *repository) SetPaymentStatus(ctx context.Context, orderID string, status PaymentStatus) (bool, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE orders
		SET payment_status = $1, updated_at = NOW()
		WHERE id = $2 AND payment_status <> $1
	`, status, orderID)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to set payment status",
			zap.String("order_id", orderID),
			zap.String("payment_status", string(status)),
			zap.Error(err),
		)
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *repository) SetPaymentInfo(ctx context.Context, orderID, token, url string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE orders
		SET payment_token = $1, payment_url = $2, updated_at = NOW()
		WHERE id = $3
	`, token, url, orderID)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to set payment info",
			zap.String("order_id", orderID),
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

func isExclusionViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgerrcode.ExclusionViolation
	}
	return false
}

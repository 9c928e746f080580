package order

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"

	"storefront-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const uniqueViolation = "23505"

func (r *postgresRepo) Create(ctx context.Context, o *domain.Order) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := insertOrder(ctx, tx, o); err != nil {
		return err
	}
	if err := decrementStock(ctx, tx, o.Items); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) CreateFromCart(ctx context.Context, o *domain.Order, cartID string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Conditional flip guards against two racing confirms on the same cart.
	cmd, err := tx.Exec(ctx, `
UPDATE carts SET status = 'converted', updated_at = now()
WHERE id = $1 AND status = 'active'
`, cartID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrCheckoutConflict
	}

	if err := insertOrder(ctx, tx, o); err != nil {
		return err
	}
	if err := decrementStock(ctx, tx, o.Items); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	r.logger.Printf("order repo: created %s from cart %s", o.OrderNumber, cartID)
	return nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	row := r.pool.QueryRow(ctx, `
SELECT `+orderColumns+`
FROM orders
WHERE id = $1
`, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, `
SELECT `+orderColumns+`
FROM orders
WHERE user_id = $1
ORDER BY created_at DESC
`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) Update(ctx context.Context, o *domain.Order) error {
	payment, err := json.Marshal(o.Payment)
	if err != nil {
		return err
	}
	shipment, err := json.Marshal(o.Shipment)
	if err != nil {
		return err
	}
	timeline, err := json.Marshal(o.Timeline)
	if err != nil {
		return err
	}
	cmd, err := r.pool.Exec(ctx, `
UPDATE orders
SET status = $1, payment = $2, shipment = $3, timeline = $4
WHERE id = $5
`, o.Status, payment, shipment, timeline, o.ID)
	if err != nil {
		r.logger.Printf("order repo: update id=%s error=%v", o.ID, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

const orderColumns = `id::text, order_number, user_id, status, items, shipping_address, billing_address, payment, pricing, shipment, timeline, created_at`

func insertOrder(ctx context.Context, tx pgx.Tx, o *domain.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}
	shippingAddr, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return err
	}
	billingAddr, err := json.Marshal(o.BillingAddress)
	if err != nil {
		return err
	}
	payment, err := json.Marshal(o.Payment)
	if err != nil {
		return err
	}
	pricing, err := json.Marshal(o.Pricing)
	if err != nil {
		return err
	}
	shipment, err := json.Marshal(o.Shipment)
	if err != nil {
		return err
	}
	timeline, err := json.Marshal(o.Timeline)
	if err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `
INSERT INTO orders (id, order_number, user_id, status, items, shipping_address, billing_address, payment, pricing, shipment, timeline)
VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING id::text, created_at
`, o.ID, o.OrderNumber, o.UserID, o.Status, items, shippingAddr, billingAddr, payment, pricing, shipment, timeline).
		Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrOrderNumberTaken
		}
		return err
	}
	return nil
}

func decrementStock(ctx context.Context, tx pgx.Tx, items []domain.OrderItem) error {
	for _, item := range items {
		cmd, err := tx.Exec(ctx, `
UPDATE products
SET stock_count = stock_count - $2,
    in_stock = (stock_count - $2) > 0
WHERE id = $1 AND stock_count >= $2
`, item.ProductID, item.Quantity)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return domain.ErrOutOfStock
		}
	}
	return nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	var items, shippingAddr, billingAddr, payment, pricing, shipment, timeline []byte
	if err := row.Scan(&o.ID, &o.OrderNumber, &o.UserID, &o.Status, &items, &shippingAddr, &billingAddr, &payment, &pricing, &shipment, &timeline, &o.CreatedAt); err != nil {
		return nil, err
	}
	fields := []struct {
		raw []byte
		dst interface{}
	}{
		{items, &o.Items},
		{shippingAddr, &o.ShippingAddress},
		{billingAddr, &o.BillingAddress},
		{payment, &o.Payment},
		{pricing, &o.Pricing},
		{shipment, &o.Shipment},
		{timeline, &o.Timeline},
	}
	for _, f := range fields {
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return nil, err
		}
	}
	return &o, nil
}

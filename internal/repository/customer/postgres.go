package customer

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

const customerColumns = `id::text, email, password_hash, role, COALESCE(first_name, ''), COALESCE(last_name, ''), addresses, COALESCE(default_shipping_address_id, ''), COALESCE(default_billing_address_id, ''), created_at`

func (r *postgresRepo) Create(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	addresses, err := json.Marshal(c.Addresses)
	if err != nil {
		return nil, err
	}
	err = r.pool.QueryRow(ctx, `
INSERT INTO customers (email, password_hash, role, first_name, last_name, addresses, default_shipping_address_id, default_billing_address_id)
VALUES ($1, $2, COALESCE(NULLIF($3, ''), 'customer'), NULLIF($4, ''), NULLIF($5, ''), $6, NULLIF($7, ''), NULLIF($8, ''))
RETURNING id::text, role, created_at
`, c.Email, c.PasswordHash, c.Role, c.FirstName, c.LastName, addresses, c.DefaultShippingAddressID, c.DefaultBillingAddressID).
		Scan(&c.ID, &c.Role, &c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrEmailTaken
		}
		r.logger.Printf("customer repo: create email=%s error=%v", c.Email, err)
		return nil, err
	}
	return &c, nil
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	return r.fetch(ctx, `SELECT `+customerColumns+` FROM customers WHERE email = $1`, email)
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	return r.fetch(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
}

func (r *postgresRepo) fetch(ctx context.Context, q string, arg interface{}) (*domain.Customer, error) {
	var c domain.Customer
	var addresses []byte
	err := r.pool.QueryRow(ctx, q, arg).Scan(
		&c.ID,
		&c.Email,
		&c.PasswordHash,
		&c.Role,
		&c.FirstName,
		&c.LastName,
		&addresses,
		&c.DefaultShippingAddressID,
		&c.DefaultBillingAddressID,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if len(addresses) > 0 {
		if err := json.Unmarshal(addresses, &c.Addresses); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

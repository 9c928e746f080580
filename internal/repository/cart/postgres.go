package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"storefront-api/internal/domain"
	"github.com/jackc/pgx/v5"
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

const cartColumns = `id::text, user_id, session_id, currency, subtotal_cents, tax_cents, shipping_cents, discount_cents, total_cents, coupon_code, discount_rule, status, expires_at, created_at, updated_at`

func (r *postgresRepo) Create(ctx context.Context, owner domain.Owner, currency string) (*domain.Cart, error) {
	if !owner.Valid() {
		return nil, domain.ErrIdentity
	}
	var userID, sessionID *string
	if owner.IsUser() {
		userID = &owner.ID
	} else {
		sessionID = &owner.ID
	}
	q := fmt.Sprintf(`
INSERT INTO carts (user_id, session_id, currency, expires_at)
VALUES ($1, $2, $3, $4)
RETURNING %s
`, cartColumns)
	row := r.pool.QueryRow(ctx, q, userID, sessionID, currency, time.Now().UTC().Add(domain.CartTTL))
	cart, err := scanCart(row)
	if err != nil {
		r.logger.Printf("cart repo: create owner=%s/%s error=%v", owner.Kind, owner.ID, err)
		return nil, err
	}
	return cart, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Cart, error) {
	q := fmt.Sprintf(`SELECT %s FROM carts WHERE id = $1`, cartColumns)
	return r.fetchCart(ctx, q, id)
}

func (r *postgresRepo) GetActiveByOwner(ctx context.Context, owner domain.Owner) (*domain.Cart, error) {
	if !owner.Valid() {
		return nil, domain.ErrIdentity
	}
	col := "session_id"
	if owner.IsUser() {
		col = "user_id"
	}
	q := fmt.Sprintf(`
SELECT %s FROM carts
WHERE %s = $1 AND status = 'active'
ORDER BY created_at DESC
LIMIT 1
`, cartColumns, col)
	return r.fetchCart(ctx, q, owner.ID)
}

func (r *postgresRepo) Save(ctx context.Context, cart *domain.Cart) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var ruleJSON []byte
	if cart.Discount != nil {
		if ruleJSON, err = json.Marshal(cart.Discount); err != nil {
			return err
		}
	}
	now := time.Now().UTC()
	cart.UpdatedAt = now
	cart.ExpiresAt = now.Add(domain.CartTTL)

	cmd, err := tx.Exec(ctx, `
UPDATE carts
SET subtotal_cents = $1, tax_cents = $2, shipping_cents = $3, discount_cents = $4, total_cents = $5,
    coupon_code = NULLIF($6, ''), discount_rule = $7, status = $8, expires_at = $9, updated_at = $10
WHERE id = $11
`, cart.SubtotalCents, cart.TaxCents, cart.ShippingCents, cart.DiscountCents, cart.TotalCents,
		cart.CouponCode, ruleJSON, cart.Status, cart.ExpiresAt, cart.UpdatedAt, cart.ID)
	if err != nil {
		r.logger.Printf("cart repo: save id=%s error=%v", cart.ID, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_lines WHERE cart_id = $1`, cart.ID); err != nil {
		return err
	}
	for i := range cart.Lines {
		line := &cart.Lines[i]
		variantJSON, err := json.Marshal(line.Variant)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
INSERT INTO cart_lines (id, cart_id, product_id, name, image_url, variant, quantity, unit_price_cents, original_price_cents, added_at, position)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`, line.ID, cart.ID, line.ProductID, line.Name, line.ImageURL, variantJSON, line.Quantity, line.UnitPriceCents, line.OriginalPriceCents, line.AddedAt, i); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *postgresRepo) Rebind(ctx context.Context, cartID, userID string) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE carts
SET user_id = $1, session_id = NULL, updated_at = now()
WHERE id = $2 AND status = 'active'
`, userID, cartID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM carts WHERE id = $1`, id)
	return err
}

func (r *postgresRepo) MarkAbandoned(ctx context.Context, inactiveFor time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-inactiveFor)
	cmd, err := r.pool.Exec(ctx, `
UPDATE carts SET status = 'abandoned', updated_at = now()
WHERE status = 'active' AND updated_at < $1
`, cutoff)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *postgresRepo) DeleteExpired(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	cmd, err := r.pool.Exec(ctx, `
DELETE FROM carts
WHERE status IN ('active', 'abandoned') AND expires_at < $1
`, cutoff)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *postgresRepo) fetchCart(ctx context.Context, q string, args ...interface{}) (*domain.Cart, error) {
	cart, err := scanCart(r.pool.QueryRow(ctx, q, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
SELECT id::text, product_id::text, name, COALESCE(image_url, ''), variant, quantity, unit_price_cents, original_price_cents, added_at
FROM cart_lines
WHERE cart_id = $1
ORDER BY position ASC
`, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.Line
		var variantJSON []byte
		if err := rows.Scan(&line.ID, &line.ProductID, &line.Name, &line.ImageURL, &variantJSON, &line.Quantity, &line.UnitPriceCents, &line.OriginalPriceCents, &line.AddedAt); err != nil {
			return nil, err
		}
		if len(variantJSON) > 0 {
			if err := json.Unmarshal(variantJSON, &line.Variant); err != nil {
				return nil, err
			}
		}
		cart.Lines = append(cart.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cart, nil
}

func scanCart(row pgx.Row) (*domain.Cart, error) {
	var cart domain.Cart
	var userID, sessionID, couponCode *string
	var ruleJSON []byte
	if err := row.Scan(
		&cart.ID,
		&userID,
		&sessionID,
		&cart.Currency,
		&cart.SubtotalCents,
		&cart.TaxCents,
		&cart.ShippingCents,
		&cart.DiscountCents,
		&cart.TotalCents,
		&couponCode,
		&ruleJSON,
		&cart.Status,
		&cart.ExpiresAt,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	); err != nil {
		return nil, err
	}
	switch {
	case userID != nil:
		cart.Owner = domain.UserOwner(*userID)
	case sessionID != nil:
		cart.Owner = domain.GuestOwner(*sessionID)
	}
	if couponCode != nil {
		cart.CouponCode = *couponCode
	}
	if len(ruleJSON) > 0 {
		var rule domain.DiscountRule
		if err := json.Unmarshal(ruleJSON, &rule); err != nil {
			return nil, err
		}
		cart.Discount = &rule
	}
	return &cart, nil
}

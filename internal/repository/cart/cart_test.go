package cart

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"storefront-api/internal/domain"
	"storefront-api/internal/migrate"
	"github.com/jackc/pgx/v5/pgxpool"
)

func TestPostgres_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool, nil)
	owner := domain.GuestOwner("sess-test-1")

	created, err := repo.Create(ctx, owner, "USD")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Owner != owner || created.Currency != "USD" || created.Status != domain.CartActive {
		t.Fatalf("unexpected cart %+v", created)
	}
	if time.Until(created.ExpiresAt) < 29*24*time.Hour {
		t.Fatalf("expected fresh TTL, got %v", created.ExpiresAt)
	}

	fetched, err := repo.GetActiveByOwner(ctx, owner)
	if err != nil {
		t.Fatalf("GetActiveByOwner: %v", err)
	}
	if fetched.ID != created.ID {
		t.Fatalf("fetched mismatch %+v", fetched)
	}
}

func TestPostgres_SaveRoundTripsLinesAndDiscount(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	productID := insertProduct(ctx, t, pool, "SKU-RT-1", 1999, 10)

	repo := NewPostgres(pool, nil)
	cart, err := repo.Create(ctx, domain.UserOwner(insertCustomer(ctx, t, pool, "rt@example.com")), "USD")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	cart.Lines = []domain.Line{
		{ID: "11111111-1111-1111-1111-111111111111", ProductID: productID, Name: "Tee", Variant: domain.Variant{Size: "M"}, Quantity: 2, UnitPriceCents: 1999, AddedAt: time.Now().UTC()},
		{ID: "22222222-2222-2222-2222-222222222222", ProductID: productID, Name: "Tee", Variant: domain.Variant{Size: "L"}, Quantity: 1, UnitPriceCents: 1999, AddedAt: time.Now().UTC()},
	}
	cart.CouponCode = "WELCOME10"
	cart.Discount = &domain.DiscountRule{Kind: domain.DiscountPercent, Value: 10}
	cart.SubtotalCents = 5997
	if err := repo.Save(ctx, cart); err != nil {
		t.Fatalf("Save: %v", err)
	}

	fetched, err := repo.GetByID(ctx, cart.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(fetched.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(fetched.Lines))
	}
	if fetched.Lines[0].Variant.Size != "M" || fetched.Lines[1].Variant.Size != "L" {
		t.Fatalf("line order not preserved: %+v", fetched.Lines)
	}
	if fetched.CouponCode != "WELCOME10" || fetched.Discount == nil || fetched.Discount.Value != 10 {
		t.Fatalf("discount did not round-trip: %+v", fetched)
	}
	if fetched.SubtotalCents != 5997 {
		t.Fatalf("expected subtotal 5997, got %d", fetched.SubtotalCents)
	}
}

func TestPostgres_RebindMovesGuestCartToUser(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool, nil)
	guest, err := repo.Create(ctx, domain.GuestOwner("sess-rebind"), "USD")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	userID := insertCustomer(ctx, t, pool, "rebind@example.com")

	if err := repo.Rebind(ctx, guest.ID, userID); err != nil {
		t.Fatalf("Rebind: %v", err)
	}

	fetched, err := repo.GetActiveByOwner(ctx, domain.UserOwner(userID))
	if err != nil {
		t.Fatalf("GetActiveByOwner: %v", err)
	}
	if fetched.ID != guest.ID || !fetched.Owner.IsUser() {
		t.Fatalf("unexpected cart after rebind %+v", fetched)
	}
	if _, err := repo.GetActiveByOwner(ctx, domain.GuestOwner("sess-rebind")); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected guest cart gone, got %v", err)
	}
}

func TestPostgres_MarkAbandonedAndDeleteExpired(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool, nil)
	stale, err := repo.Create(ctx, domain.GuestOwner("sess-stale"), "USD")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := pool.Exec(ctx, `UPDATE carts SET updated_at = now() - interval '40 days', expires_at = now() - interval '10 days' WHERE id = $1`, stale.ID); err != nil {
		t.Fatalf("age cart: %v", err)
	}
	fresh, err := repo.Create(ctx, domain.GuestOwner("sess-fresh"), "USD")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	n, err := repo.MarkAbandoned(ctx, 30*24*time.Hour)
	if err != nil {
		t.Fatalf("MarkAbandoned: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 abandoned cart, got %d", n)
	}

	n, err = repo.DeleteExpired(ctx, 0)
	if err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 deleted cart, got %d", n)
	}
	if _, err := repo.GetByID(ctx, fresh.ID); err != nil {
		t.Fatalf("expected fresh cart to survive: %v", err)
	}
}

func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return pool
}

func resetTables(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(ctx, `TRUNCATE cart_lines, carts, orders, products, customers RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func insertCustomer(ctx context.Context, t *testing.T, pool *pgxpool.Pool, email string) string {
	t.Helper()
	var id string
	err := pool.QueryRow(ctx, `
INSERT INTO customers (email, password_hash) VALUES ($1, 'x') RETURNING id::text
`, email).Scan(&id)
	if err != nil {
		t.Fatalf("insert customer: %v", err)
	}
	return id
}

func insertProduct(ctx context.Context, t *testing.T, pool *pgxpool.Pool, sku string, priceCents int64, stock int) string {
	t.Helper()
	var id string
	err := pool.QueryRow(ctx, `
INSERT INTO products (sku, name, price_cents, original_price_cents, in_stock, stock_count)
VALUES ($1, $1, $2, $2, $3 > 0, $3)
RETURNING id::text
`, sku, priceCents, stock).Scan(&id)
	if err != nil {
		t.Fatalf("insert product: %v", err)
	}
	return id
}

package seed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type productSeed struct {
	SKU                string
	Name               string
	Description        string
	PriceCents         int64
	OriginalPriceCents int64
	Currency           string
	StockCount         int
	Attributes         map[string]interface{}
}

// Apply inserts basic seed data for manual testing. It is idempotent via ON CONFLICT.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	products := []productSeed{
		{
			SKU:                "SKU-TEE-CLASSIC",
			Name:               "Classic T-Shirt",
			Description:        "Soft cotton tee in several colors",
			PriceCents:         1999,
			OriginalPriceCents: 2499,
			Currency:           "USD",
			StockCount:         120,
			Attributes: map[string]interface{}{
				"images": []string{"https://cdn.example.com/tee-classic.jpg"},
				"sizes":  []string{"S", "M", "L", "XL"},
				"colors": []string{"black", "white", "navy"},
			},
		},
		{
			SKU:         "SKU-HOODIE-ZIP",
			Name:        "Zip Hoodie",
			Description: "Fleece-lined hoodie with full zip",
			PriceCents:  4999,
			Currency:    "USD",
			StockCount:  45,
			Attributes: map[string]interface{}{
				"images": []string{"https://cdn.example.com/hoodie-zip.jpg"},
				"sizes":  []string{"M", "L", "XL"},
			},
		},
		{
			SKU:         "SKU-MUG-LOGO",
			Name:        "Logo Mug",
			Description: "Ceramic mug, 350ml",
			PriceCents:  1299,
			Currency:    "USD",
			StockCount:  200,
			Attributes: map[string]interface{}{
				"images": []string{"https://cdn.example.com/mug-logo.jpg"},
			},
		},
		{
			SKU:         "SKU-POSTER-LTD",
			Name:        "Limited Poster",
			Description: "Numbered print, A2",
			PriceCents:  2999,
			Currency:    "USD",
			StockCount:  3,
			Attributes: map[string]interface{}{
				"images": []string{"https://cdn.example.com/poster-ltd.jpg"},
			},
		},
		{
			SKU:         "SKU-STICKERS",
			Name:        "Sticker Pack",
			Description: "Ten assorted vinyl stickers",
			PriceCents:  599,
			Currency:    "USD",
			StockCount:  0,
			Attributes: map[string]interface{}{
				"images": []string{"https://cdn.example.com/stickers.jpg"},
			},
		},
	}

	for _, p := range products {
		if err := upsertProduct(ctx, pool, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.SKU, err)
		}
	}
	return nil
}

func upsertProduct(ctx context.Context, pool *pgxpool.Pool, p productSeed) error {
	attrs, err := json.Marshal(p.Attributes)
	if err != nil {
		return err
	}
	original := p.OriginalPriceCents
	if original == 0 {
		original = p.PriceCents
	}
	const q = `
INSERT INTO products (sku, name, description, price_cents, original_price_cents, currency, in_stock, stock_count, attributes)
VALUES ($1, $2, $3, $4, $5, $6, $7 > 0, $7, $8)
ON CONFLICT (sku) DO UPDATE
SET name = EXCLUDED.name,
    description = EXCLUDED.description,
    price_cents = EXCLUDED.price_cents,
    original_price_cents = EXCLUDED.original_price_cents,
    currency = EXCLUDED.currency,
    in_stock = EXCLUDED.in_stock,
    stock_count = EXCLUDED.stock_count,
    attributes = EXCLUDED.attributes
`
	_, err = pool.Exec(ctx, q, p.SKU, p.Name, p.Description, p.PriceCents, original, p.Currency, p.StockCount, attrs)
	return err
}

package cart

import (
	"context"
	"time"

	"storefront-api/internal/domain"
)

type Repository interface {
	Create(ctx context.Context, owner domain.Owner, currency string) (*domain.Cart, error)
	GetByID(ctx context.Context, id string) (*domain.Cart, error)
	GetActiveByOwner(ctx context.Context, owner domain.Owner) (*domain.Cart, error)
	// Save replaces the cart's lines and derived fields and slides the expiry.
	Save(ctx context.Context, cart *domain.Cart) error
	// Rebind moves a guest cart to a user, clearing the session id.
	Rebind(ctx context.Context, cartID, userID string) error
	Delete(ctx context.Context, id string) error
	// MarkAbandoned flags active carts untouched for the given window.
	MarkAbandoned(ctx context.Context, inactiveFor time.Duration) (int64, error)
	// DeleteExpired hard-deletes carts past their TTL plus the retention window.
	DeleteExpired(ctx context.Context, retention time.Duration) (int64, error)
}

package order

import (
	"context"
	"errors"

	"storefront-api/internal/domain"
)

// ErrOrderNumberTaken signals an order-number uniqueness collision; the caller
// retries with a fresh suffix.
var ErrOrderNumberTaken = errors.New("order number already taken")

type Repository interface {
	// Create inserts the order and decrements stock for its items in one tx.
	Create(ctx context.Context, o *domain.Order) error
	// CreateFromCart additionally flips the source cart from active to
	// converted; if another checkout got there first it fails with
	// domain.ErrCheckoutConflict and nothing is written.
	CreateFromCart(ctx context.Context, o *domain.Order, cartID string) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	// Update persists status, timeline, payment and shipment changes.
	Update(ctx context.Context, o *domain.Order) error
}

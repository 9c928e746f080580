package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront-api/internal/coupon"
	"storefront-api/internal/domain"
	"storefront-api/internal/pricing"
)

// DefaultCurrency is used for lazily created carts.
const DefaultCurrency = "USD"

type cartRepo interface {
	Create(ctx context.Context, owner domain.Owner, currency string) (*domain.Cart, error)
	GetByID(ctx context.Context, id string) (*domain.Cart, error)
	GetActiveByOwner(ctx context.Context, owner domain.Owner) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	Rebind(ctx context.Context, cartID, userID string) error
	Delete(ctx context.Context, id string) error
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

// Service owns the cart lifecycle: identity resolution, line mutations,
// coupon application and the guest-to-user merge. Every mutation ends with a
// totals recomputation and a save.
type Service struct {
	repo     cartRepo
	products productRepo
	coupons  coupon.Catalog
}

func New(repo cartRepo, products productRepo, coupons coupon.Catalog) *Service {
	return &Service{repo: repo, products: products, coupons: coupons}
}

// Resolve maps a shopper identity to its single active cart, creating an
// empty one on first touch.
func (s *Service) Resolve(ctx context.Context, owner domain.Owner) (*domain.Cart, error) {
	if !owner.Valid() {
		return nil, domain.ErrIdentity
	}
	cart, err := s.repo.GetActiveByOwner(ctx, owner)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	return s.repo.Create(ctx, owner, DefaultCurrency)
}

// MergeGuestCart folds the guest cart for sessionID into the user's cart on
// login. Running it again after the guest cart is gone is a no-op.
func (s *Service) MergeGuestCart(ctx context.Context, userID, sessionID string) (*domain.Cart, error) {
	if userID == "" {
		return nil, domain.ErrIdentity
	}
	guest, err := s.repo.GetActiveByOwner(ctx, domain.GuestOwner(sessionID))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return s.Resolve(ctx, domain.UserOwner(userID))
		}
		return nil, err
	}

	userCart, err := s.repo.GetActiveByOwner(ctx, domain.UserOwner(userID))
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		// No user cart: re-bind the guest cart instead of copying it.
		if err := s.repo.Rebind(ctx, guest.ID, userID); err != nil {
			return nil, err
		}
		return s.repo.GetByID(ctx, guest.ID)
	}

	for i := range guest.Lines {
		gl := &guest.Lines[i]
		if existing := userCart.MatchLine(gl.ProductID, gl.Variant); existing != nil {
			existing.Quantity += gl.Quantity
		} else {
			userCart.Lines = append(userCart.Lines, *gl)
		}
	}
	pricing.Recompute(userCart)
	if err := s.repo.Save(ctx, userCart); err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, guest.ID); err != nil {
		return nil, err
	}
	return userCart, nil
}

// AddItem puts quantity of a product variant into the owner's cart, merging
// into an existing line when product and variant match.
func (s *Service) AddItem(ctx context.Context, owner domain.Owner, productID string, quantity int, variant domain.Variant) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
		}
		return nil, err
	}
	cart, err := s.Resolve(ctx, owner)
	if err != nil {
		return nil, err
	}
	if _, err := cart.AddLine(*product, quantity, variant); err != nil {
		return nil, err
	}
	return s.saveRecomputed(ctx, cart)
}

// UpdateQuantity sets a line's quantity directly; zero removes the line.
func (s *Service) UpdateQuantity(ctx context.Context, owner domain.Owner, lineID string, quantity int) (*domain.Cart, error) {
	cart, err := s.Resolve(ctx, owner)
	if err != nil {
		return nil, err
	}
	if err := cart.SetQuantity(lineID, quantity); err != nil {
		return nil, err
	}
	return s.saveRecomputed(ctx, cart)
}

// RemoveItem deletes a line; removing a line that is already gone succeeds.
func (s *Service) RemoveItem(ctx context.Context, owner domain.Owner, lineID string) (*domain.Cart, error) {
	cart, err := s.Resolve(ctx, owner)
	if err != nil {
		return nil, err
	}
	cart.RemoveLine(lineID)
	return s.saveRecomputed(ctx, cart)
}

// Clear empties the cart and drops the coupon.
func (s *Service) Clear(ctx context.Context, owner domain.Owner) (*domain.Cart, error) {
	cart, err := s.Resolve(ctx, owner)
	if err != nil {
		return nil, err
	}
	cart.Clear()
	return s.saveRecomputed(ctx, cart)
}

// ApplyCoupon validates the code against the catalog and the cart's subtotal.
// On failure the cart is left exactly as it was.
func (s *Service) ApplyCoupon(ctx context.Context, owner domain.Owner, code string) (*domain.Cart, error) {
	cart, err := s.Resolve(ctx, owner)
	if err != nil {
		return nil, err
	}
	rule, ok := s.coupons.Resolve(code)
	if !ok {
		return nil, fmt.Errorf("%w: unknown code %q", domain.ErrInvalidCoupon, code)
	}
	if cart.SubtotalCents < rule.MinSubtotalCents {
		return nil, fmt.Errorf("%w: order minimum not met", domain.ErrInvalidCoupon)
	}
	cart.CouponCode = code
	cart.Discount = rule
	return s.saveRecomputed(ctx, cart)
}

// Prune is the explicit clean-my-cart action: it drops lines whose product is
// gone or out of stock and refreshes drifted prices. The checkout validator
// never mutates; this is the only place lines are removed automatically.
func (s *Service) Prune(ctx context.Context, owner domain.Owner) (*domain.Cart, error) {
	cart, err := s.Resolve(ctx, owner)
	if err != nil {
		return nil, err
	}
	kept := cart.Lines[:0]
	for i := range cart.Lines {
		line := cart.Lines[i]
		product, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if !product.InStock {
			continue
		}
		line.UnitPriceCents = product.PriceCents
		line.OriginalPriceCents = product.OriginalPriceCents
		kept = append(kept, line)
	}
	cart.Lines = kept
	return s.saveRecomputed(ctx, cart)
}

func (s *Service) saveRecomputed(ctx context.Context, cart *domain.Cart) (*domain.Cart, error) {
	pricing.Recompute(cart)
	cart.UpdatedAt = time.Now().UTC()
	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

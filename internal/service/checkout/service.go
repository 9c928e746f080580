package checkout

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"storefront-api/internal/domain"
	"storefront-api/internal/pricing"
	orderrepo "storefront-api/internal/repository/order"
	"storefront-api/internal/service/payment"
)

// PriceDriftEpsilonCents is the tolerated gap between a line's captured price
// and the live catalog price. Anything beyond it is reported as drift.
const PriceDriftEpsilonCents int64 = 1

const orderNumberAttempts = 3

type ProblemKind string

const (
	ProblemUnavailable ProblemKind = "unavailable"
	ProblemOutOfStock  ProblemKind = "out_of_stock"
	ProblemPriceDrift  ProblemKind = "price_drift"
)

// Problem is one itemized validation failure. Price drift carries the live
// price so the caller can re-render the cart instead of showing a dead end.
type Problem struct {
	LineID         string      `json:"lineId"`
	ProductID      string      `json:"productId"`
	Kind           ProblemKind `json:"kind"`
	Message        string      `json:"message"`
	LivePriceCents int64       `json:"livePriceCents,omitempty"`
}

// ValidationError carries the full problem list through the error return.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("cart validation failed with %d problem(s)", len(e.Problems))
}

type cartRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
}

type orderRepo interface {
	Create(ctx context.Context, o *domain.Order) error
	CreateFromCart(ctx context.Context, o *domain.Order, cartID string) error
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

// Service runs the checkout path: validation against the live catalog, intent
// creation, and the paid-cart-to-order conversion.
type Service struct {
	carts    cartRepo
	orders   orderRepo
	products productRepo
	provider payment.Provider
	logger   *log.Logger
}

func New(carts cartRepo, orders orderRepo, products productRepo, provider payment.Provider, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{carts: carts, orders: orders, products: products, provider: provider, logger: logger}
}

// Validate re-checks every line against current catalog state. It reports
// problems without touching the cart; pruning is a separate explicit action.
func (s *Service) Validate(ctx context.Context, cart *domain.Cart) ([]Problem, error) {
	var problems []Problem
	for i := range cart.Lines {
		line := &cart.Lines[i]
		product, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				problems = append(problems, Problem{
					LineID:    line.ID,
					ProductID: line.ProductID,
					Kind:      ProblemUnavailable,
					Message:   fmt.Sprintf("%s is no longer available", line.Name),
				})
				continue
			}
			return nil, err
		}
		if !product.InStock || product.StockCount < line.Quantity {
			problems = append(problems, Problem{
				LineID:    line.ID,
				ProductID: line.ProductID,
				Kind:      ProblemOutOfStock,
				Message:   fmt.Sprintf("%s is out of stock", line.Name),
			})
			continue
		}
		if drift := product.PriceCents - line.UnitPriceCents; drift > PriceDriftEpsilonCents || drift < -PriceDriftEpsilonCents {
			problems = append(problems, Problem{
				LineID:         line.ID,
				ProductID:      line.ProductID,
				Kind:           ProblemPriceDrift,
				Message:        fmt.Sprintf("price of %s changed since it was added", line.Name),
				LivePriceCents: product.PriceCents,
			})
		}
	}
	return problems, nil
}

// CreateIntent validates the user's cart and opens a payment intent for its
// recomputed total, so the amount authorized matches the amount displayed.
func (s *Service) CreateIntent(ctx context.Context, userID, cartID string) (*payment.Intent, error) {
	cart, err := s.ownedActiveCart(ctx, userID, cartID)
	if err != nil {
		return nil, err
	}
	if len(cart.Lines) == 0 {
		return nil, domain.ErrEmptyCart
	}
	problems, err := s.Validate(ctx, cart)
	if err != nil {
		return nil, err
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}
	pricing.Recompute(cart)
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	intent, err := s.provider.CreateIntent(ctx, payment.CreateIntentInput{
		AmountCents: cart.TotalCents,
		Currency:    cart.Currency,
		CartID:      cart.ID,
		UserID:      userID,
	})
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	s.logger.Printf("checkout: intent %s opened for cart %s amount=%d", intent.ID, cart.ID, intent.AmountCents)
	return intent, nil
}

// ConfirmInput is everything the confirm endpoint supplies.
type ConfirmInput struct {
	UserID          string
	PaymentIntentID string
	CartID          string
	ShippingAddress domain.Address
	BillingAddress  domain.Address
	Method          string
}

// Confirm turns a paid cart into an order. The catalog is re-checked here
// because payment capture is asynchronous and state can drift after the
// intent was created. A provider failure leaves the cart active.
func (s *Service) Confirm(ctx context.Context, in ConfirmInput) (*domain.Order, error) {
	cart, err := s.ownedActiveCart(ctx, in.UserID, in.CartID)
	if err != nil {
		return nil, err
	}

	intent, err := s.provider.GetIntent(ctx, in.PaymentIntentID)
	if err != nil {
		if errors.Is(err, payment.ErrIntentNotFound) {
			return nil, domain.ErrPaymentMismatch
		}
		return nil, fmt.Errorf("fetch payment intent: %w", err)
	}
	if intent.CartID != cart.ID || intent.UserID != in.UserID {
		return nil, domain.ErrPaymentMismatch
	}
	if intent.Status != payment.StatusSucceeded {
		return nil, domain.ErrPaymentNotCompleted
	}

	problems, err := s.Validate(ctx, cart)
	if err != nil {
		return nil, err
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}
	pricing.Recompute(cart)
	if intent.AmountCents != cart.TotalCents {
		return nil, fmt.Errorf("%w: authorized %d, cart total %d", domain.ErrPaymentMismatch, intent.AmountCents, cart.TotalCents)
	}

	now := time.Now().UTC()
	order := &domain.Order{
		UserID:          in.UserID,
		Items:           itemsFromLines(cart.Lines),
		ShippingAddress: in.ShippingAddress,
		BillingAddress:  in.BillingAddress,
		Payment: domain.Payment{
			Method:        in.Method,
			Status:        domain.PaymentCompleted,
			TransactionID: intent.ID,
			PaidAt:        &now,
		},
		Pricing: domain.OrderPricing{
			SubtotalCents: cart.SubtotalCents,
			ShippingCents: cart.ShippingCents,
			TaxCents:      cart.TaxCents,
			DiscountCents: cart.DiscountCents,
			TotalCents:    cart.TotalCents,
		},
		Status:   domain.OrderConfirmed,
		Timeline: []domain.StatusEvent{{Status: domain.OrderConfirmed, Note: "payment captured", At: now}},
	}

	err = s.withFreshNumber(order, func() error {
		return s.orders.CreateFromCart(ctx, order, cart.ID)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Printf("checkout: cart %s converted to order %s", cart.ID, order.OrderNumber)
	return order, nil
}

// DirectItem is one item of the direct order path that bypasses a stored cart.
type DirectItem struct {
	ProductID string         `json:"productId"`
	Quantity  int            `json:"quantity"`
	Variant   domain.Variant `json:"variant"`
}

// PlaceDirect creates a pending order straight from an item list, validating
// each item against the live catalog.
func (s *Service) PlaceDirect(ctx context.Context, userID string, items []DirectItem, shipping, billing domain.Address, method string) (*domain.Order, error) {
	if len(items) == 0 {
		return nil, domain.ErrEmptyCart
	}
	var lines []domain.Line
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, domain.ErrInvalidQuantity
		}
		product, err := s.products.GetByID(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if !product.InStock || product.StockCount < item.Quantity {
			return nil, domain.ErrOutOfStock
		}
		lines = append(lines, domain.Line{
			ProductID:      product.ID,
			Name:           product.Name,
			ImageURL:       product.ImageURL(),
			Variant:        item.Variant,
			Quantity:       item.Quantity,
			UnitPriceCents: product.PriceCents,
		})
	}

	totals := pricing.Compute(lines, nil)
	now := time.Now().UTC()
	order := &domain.Order{
		UserID:          userID,
		Items:           itemsFromLines(lines),
		ShippingAddress: shipping,
		BillingAddress:  billing,
		Payment:         domain.Payment{Method: method, Status: domain.PaymentPending},
		Pricing: domain.OrderPricing{
			SubtotalCents: totals.SubtotalCents,
			ShippingCents: totals.ShippingCents,
			TaxCents:      totals.TaxCents,
			DiscountCents: totals.DiscountCents,
			TotalCents:    totals.TotalCents,
		},
		Status:   domain.OrderPending,
		Timeline: []domain.StatusEvent{{Status: domain.OrderPending, Note: "order placed", At: now}},
	}

	err := s.withFreshNumber(order, func() error {
		return s.orders.Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) ownedActiveCart(ctx context.Context, userID, cartID string) (*domain.Cart, error) {
	cart, err := s.carts.GetByID(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if !cart.Owner.IsUser() || cart.Owner.ID != userID {
		return nil, domain.ErrNotFound
	}
	if cart.Status == domain.CartConverted {
		return nil, domain.ErrCartConverted
	}
	if cart.Status != domain.CartActive {
		return nil, domain.ErrNotFound
	}
	return cart, nil
}

// withFreshNumber retries the insert with a new random suffix when the order
// number collides.
func (s *Service) withFreshNumber(order *domain.Order, insert func() error) error {
	var err error
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		number, numErr := newOrderNumber()
		if numErr != nil {
			return numErr
		}
		order.OrderNumber = number
		if err = insert(); !errors.Is(err, orderrepo.ErrOrderNumberTaken) {
			return err
		}
		s.logger.Printf("checkout: order number %s collided, retrying", number)
	}
	return err
}

func itemsFromLines(lines []domain.Line) []domain.OrderItem {
	items := make([]domain.OrderItem, 0, len(lines))
	for i := range lines {
		line := &lines[i]
		items = append(items, domain.OrderItem{
			ProductID:      line.ProductID,
			Name:           line.Name,
			ImageURL:       line.ImageURL,
			Variant:        line.Variant,
			Quantity:       line.Quantity,
			UnitPriceCents: line.UnitPriceCents,
		})
	}
	return items
}

const orderNumberAlphabet = "ABCDEFGHJKMNPQRSTVWXYZ0123456789"

// newOrderNumber composes the creation date with a short random suffix,
// e.g. ORD-20260828-K4TQ7X.
func newOrderNumber() (string, error) {
	var b [6]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	suffix := make([]byte, len(b))
	for i, c := range b {
		suffix[i] = orderNumberAlphabet[int(c)%len(orderNumberAlphabet)]
	}
	return fmt.Sprintf("ORD-%s-%s", time.Now().UTC().Format("20060102"), suffix), nil
}

package order

import (
	"context"
	"fmt"
	"io"
	"log"

	"storefront-api/internal/domain"
	"storefront-api/internal/service/payment"
)

type orderRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	Update(ctx context.Context, o *domain.Order) error
}

// Service advances orders through their status timeline. All changes go
// through the aggregate's AddStatusUpdate so the timeline stays append-only.
type Service struct {
	repo     orderRepo
	provider payment.Provider
	logger   *log.Logger
}

func New(repo orderRepo, provider payment.Provider, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: repo, provider: provider, logger: logger}
}

// Get returns the order if it belongs to the user.
func (s *Service) Get(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

// UpdateStatus moves the order to the given status, appending a timeline
// entry. A move to refunded triggers the provider-side refund first; if that
// fails the order is left untouched.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus, note, trackingNumber string) (*domain.Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, o.Status, status)
	}
	if status == domain.OrderRefunded {
		if err := s.provider.Refund(ctx, o.Payment.TransactionID); err != nil {
			return nil, fmt.Errorf("provider refund: %w", err)
		}
	}
	if status == domain.OrderShipped && trackingNumber != "" {
		o.Shipment.TrackingNumber = trackingNumber
	}
	if err := o.AddStatusUpdate(status, note); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, o); err != nil {
		return nil, err
	}
	s.logger.Printf("order %s moved to %s", o.OrderNumber, status)
	return o, nil
}

// Cancel is the customer-facing cancellation, allowed only before fulfilment
// starts (pending or confirmed).
func (s *Service) Cancel(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	o, err := s.Get(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if err := o.AddStatusUpdate(domain.OrderCancelled, "cancelled by customer"); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

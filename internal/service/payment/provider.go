// Package payment abstracts the external payment gateway. The core only needs
// intents it can create, inspect and refund; the concrete gateway is an
// external collaborator behind the Provider interface.
package payment

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"sync"
	"time"
)

type Status string

const (
	StatusRequiresConfirmation Status = "requires_confirmation"
	StatusSucceeded            Status = "succeeded"
	StatusFailed               Status = "failed"
	StatusRefunded             Status = "refunded"
)

var (
	// ErrIntentNotFound indicates an unknown intent id.
	ErrIntentNotFound = errors.New("payment intent not found")
	// ErrNotRefundable is returned when refunding an uncaptured intent.
	ErrNotRefundable = errors.New("payment intent not refundable")
)

// Intent mirrors a provider-side payment intent.
type Intent struct {
	ID           string    `json:"id"`
	ClientSecret string    `json:"clientSecret"`
	AmountCents  int64     `json:"amountCents"`
	Currency     string    `json:"currency"`
	CartID       string    `json:"cartId"`
	UserID       string    `json:"userId"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

type CreateIntentInput struct {
	AmountCents int64
	Currency    string
	CartID      string
	UserID      string
}

// Provider is the gateway capability the checkout flow depends on. Calls take
// a context so a real gateway client can honor timeouts.
type Provider interface {
	CreateIntent(ctx context.Context, in CreateIntentInput) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
	Refund(ctx context.Context, id string) error
}

// InProcess is a provider backed by an in-memory intent table, used in
// development and tests. With autoCapture set, intents are created already
// captured so the confirm flow works without a client-side confirmation step.
type InProcess struct {
	mu          sync.RWMutex
	intents     map[string]*Intent
	autoCapture bool
}

func NewInProcess(autoCapture bool) *InProcess {
	return &InProcess{
		intents:     make(map[string]*Intent),
		autoCapture: autoCapture,
	}
}

func (p *InProcess) CreateIntent(_ context.Context, in CreateIntentInput) (*Intent, error) {
	id, err := randomToken("pi")
	if err != nil {
		return nil, err
	}
	secret, err := randomToken("secret")
	if err != nil {
		return nil, err
	}
	intent := &Intent{
		ID:           id,
		ClientSecret: secret,
		AmountCents:  in.AmountCents,
		Currency:     in.Currency,
		CartID:       in.CartID,
		UserID:       in.UserID,
		Status:       StatusRequiresConfirmation,
		CreatedAt:    time.Now().UTC(),
	}
	if p.autoCapture {
		intent.Status = StatusSucceeded
	}
	p.mu.Lock()
	p.intents[intent.ID] = intent
	p.mu.Unlock()
	return intent, nil
}

func (p *InProcess) GetIntent(_ context.Context, id string) (*Intent, error) {
	p.mu.RLock()
	intent, ok := p.intents[id]
	p.mu.RUnlock()
	if !ok {
		return nil, ErrIntentNotFound
	}
	copied := *intent
	return &copied, nil
}

func (p *InProcess) Refund(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	intent, ok := p.intents[id]
	if !ok {
		return ErrIntentNotFound
	}
	if intent.Status != StatusSucceeded {
		return ErrNotRefundable
	}
	intent.Status = StatusRefunded
	return nil
}

// Succeed marks an intent captured, standing in for the client-side
// confirmation a real gateway performs.
func (p *InProcess) Succeed(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	intent, ok := p.intents[id]
	if !ok {
		return ErrIntentNotFound
	}
	intent.Status = StatusSucceeded
	return nil
}

func randomToken(prefix string) (string, error) {
	b := make([]byte, 18)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return prefix + "_" + base64.RawURLEncoding.EncodeToString(b), nil
}

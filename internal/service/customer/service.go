package customer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront-api/internal/domain"
	custrepo "storefront-api/internal/repository/customer"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned when email/password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Service handles customer signup/login flows and token verification.
type Service struct {
	repo        custrepo.Repository
	tokens      *tokenManager
	passwordMin int
}

// New creates a Service with sane defaults.
func New(repo custrepo.Repository, jwtSecret string) *Service {
	return &Service{
		repo:        repo,
		tokens:      newTokenManager(jwtSecret, 48*time.Hour, 30*24*time.Hour),
		passwordMin: 8,
	}
}

// AddressInput mirrors incoming address payloads.
type AddressInput struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

// SignupInput captures fields expected by the signup endpoint.
type SignupInput struct {
	Email                  string         `json:"email"`
	Password               string         `json:"password"`
	FirstName              string         `json:"firstName"`
	LastName               string         `json:"lastName"`
	Addresses              []AddressInput `json:"addresses"`
	DefaultShippingAddress *int           `json:"defaultShippingAddress"`
	DefaultBillingAddress  *int           `json:"defaultBillingAddress"`
}

// Signup registers a new customer.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*domain.Customer, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" {
		return nil, fmt.Errorf("%w: email required", domain.ErrInvalidInput)
	}
	password := strings.TrimSpace(in.Password)
	if len(password) < s.passwordMin {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, s.passwordMin)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	addresses := make([]domain.CustomerAddress, 0, len(in.Addresses))
	for _, a := range in.Addresses {
		addresses = append(addresses, domain.CustomerAddress{
			ID:         uuid.NewString(),
			FirstName:  a.FirstName,
			LastName:   a.LastName,
			Street:     a.Street,
			City:       a.City,
			PostalCode: a.PostalCode,
			Country:    a.Country,
			Phone:      a.Phone,
		})
	}

	shippingID := addressIDFromIndex(addresses, in.DefaultShippingAddress)
	if shippingID == "" && len(addresses) > 0 {
		shippingID = addresses[0].ID
	}
	billingID := addressIDFromIndex(addresses, in.DefaultBillingAddress)
	if billingID == "" && len(addresses) > 0 {
		billingID = addresses[0].ID
	}

	return s.repo.Create(ctx, domain.Customer{
		Email:                    email,
		PasswordHash:             string(hashed),
		Role:                     domain.RoleCustomer,
		FirstName:                in.FirstName,
		LastName:                 in.LastName,
		Addresses:                addresses,
		DefaultShippingAddressID: shippingID,
		DefaultBillingAddressID:  billingID,
	})
}

// Login validates credentials and returns issued tokens plus the customer.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.Customer, string, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	c, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", "", ErrInvalidCredentials
		}
		return nil, "", "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(strings.TrimSpace(password))); err != nil {
		return nil, "", "", ErrInvalidCredentials
	}

	access, err := s.tokens.issueAccess(c.ID, c.Email, c.Role)
	if err != nil {
		return nil, "", "", err
	}
	refresh, err := s.tokens.issueRefresh(c.ID)
	if err != nil {
		return nil, "", "", err
	}
	return c, access, refresh, nil
}

// Verify returns the customer id and role bound to a valid access token. It
// does not hit the database, so middleware can call it on every request.
func (s *Service) Verify(token string) (string, string, error) {
	return s.tokens.verifyAccess(token)
}

// Refresh exchanges a valid refresh token for a fresh access token. The
// customer is re-read so a role change takes effect on the next refresh.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	customerID, err := s.tokens.verifyRefresh(refreshToken)
	if err != nil {
		return "", err
	}
	c, err := s.repo.GetByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", ErrInvalidToken
		}
		return "", err
	}
	return s.tokens.issueAccess(c.ID, c.Email, c.Role)
}

// GetByID loads a customer profile.
func (s *Service) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	return s.repo.GetByID(ctx, id)
}

func addressIDFromIndex(addresses []domain.CustomerAddress, idx *int) string {
	if idx == nil {
		return ""
	}
	if *idx < 0 || *idx >= len(addresses) {
		return ""
	}
	return addresses[*idx].ID
}

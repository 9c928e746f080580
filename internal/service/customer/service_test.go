package customer

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront-api/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

type stubRepo struct {
	byEmail map[string]*domain.Customer
	byID    map[string]*domain.Customer
	created *domain.Customer
}

func newStubRepo() *stubRepo {
	return &stubRepo{byEmail: make(map[string]*domain.Customer), byID: make(map[string]*domain.Customer)}
}

func (s *stubRepo) Create(_ context.Context, c domain.Customer) (*domain.Customer, error) {
	if _, ok := s.byEmail[c.Email]; ok {
		return nil, domain.ErrEmailTaken
	}
	c.ID = "cust-" + c.Email
	s.byEmail[c.Email] = &c
	s.byID[c.ID] = &c
	s.created = &c
	return &c, nil
}

func (s *stubRepo) GetByEmail(_ context.Context, email string) (*domain.Customer, error) {
	if c, ok := s.byEmail[email]; ok {
		return c, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubRepo) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	if c, ok := s.byID[id]; ok {
		return c, nil
	}
	return nil, domain.ErrNotFound
}

func TestSignupNormalizesAndHashes(t *testing.T) {
	repo := newStubRepo()
	svc := New(repo, "test-secret")

	created, err := svc.Signup(context.Background(), SignupInput{
		Email:     "  Jane@Example.COM ",
		Password:  "supersecret",
		FirstName: "Jane",
		Addresses: []AddressInput{{Street: "Main St 1", City: "Berlin", Country: "DE"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Email != "jane@example.com" {
		t.Fatalf("expected normalized email, got %q", created.Email)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("supersecret")); err != nil {
		t.Fatalf("expected bcrypt hash of password: %v", err)
	}
	if len(created.Addresses) != 1 || created.Addresses[0].ID == "" {
		t.Fatalf("expected address with generated id, got %+v", created.Addresses)
	}
	if created.DefaultShippingAddressID != created.Addresses[0].ID {
		t.Fatalf("expected first address as default shipping")
	}
}

func TestSignupRejectsShortPassword(t *testing.T) {
	svc := New(newStubRepo(), "test-secret")
	_, err := svc.Signup(context.Background(), SignupInput{Email: "a@b.c", Password: "short"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSignupRejectsMissingEmail(t *testing.T) {
	svc := New(newStubRepo(), "test-secret")
	_, err := svc.Signup(context.Background(), SignupInput{Password: "supersecret"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSignupAssignsCustomerRole(t *testing.T) {
	repo := newStubRepo()
	svc := New(repo, "test-secret")
	created, err := svc.Signup(context.Background(), SignupInput{Email: "a@b.c", Password: "supersecret"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if created.Role != domain.RoleCustomer {
		t.Fatalf("expected role %q, got %q", domain.RoleCustomer, created.Role)
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	repo := newStubRepo()
	svc := New(repo, "test-secret")
	in := SignupInput{Email: "a@b.c", Password: "supersecret"}
	if _, err := svc.Signup(context.Background(), in); err != nil {
		t.Fatalf("first signup: %v", err)
	}
	if _, err := svc.Signup(context.Background(), in); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestLoginAndVerifyRoundTrip(t *testing.T) {
	repo := newStubRepo()
	svc := New(repo, "test-secret")
	created, err := svc.Signup(context.Background(), SignupInput{Email: "a@b.c", Password: "supersecret"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	cust, access, refresh, err := svc.Login(context.Background(), "A@B.C", "supersecret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if cust.ID != created.ID || access == "" || refresh == "" {
		t.Fatalf("unexpected login result")
	}

	userID, role, err := svc.Verify(access)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if userID != created.ID {
		t.Fatalf("expected subject %s, got %s", created.ID, userID)
	}
	if role != domain.RoleCustomer {
		t.Fatalf("expected role %q in access token, got %q", domain.RoleCustomer, role)
	}
}

func TestVerifyRejectsRefreshToken(t *testing.T) {
	repo := newStubRepo()
	svc := New(repo, "test-secret")
	if _, err := svc.Signup(context.Background(), SignupInput{Email: "a@b.c", Password: "supersecret"}); err != nil {
		t.Fatalf("signup: %v", err)
	}
	_, _, refresh, err := svc.Login(context.Background(), "a@b.c", "supersecret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	// The long-lived refresh token must not work as an access token.
	if _, _, err := svc.Verify(refresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for refresh token, got %v", err)
	}
}

func TestRefreshRoundTrip(t *testing.T) {
	repo := newStubRepo()
	svc := New(repo, "test-secret")
	created, err := svc.Signup(context.Background(), SignupInput{Email: "a@b.c", Password: "supersecret"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	_, access, refresh, err := svc.Login(context.Background(), "a@b.c", "supersecret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	// An access token is not accepted where a refresh token is expected.
	if _, err := svc.Refresh(context.Background(), access); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for access token, got %v", err)
	}

	fresh, err := svc.Refresh(context.Background(), refresh)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	userID, role, err := svc.Verify(fresh)
	if err != nil {
		t.Fatalf("verify refreshed token: %v", err)
	}
	if userID != created.ID || role != domain.RoleCustomer {
		t.Fatalf("unexpected claims: id=%s role=%s", userID, role)
	}
}

func TestRefreshUnknownCustomer(t *testing.T) {
	repo := newStubRepo()
	svc := New(repo, "test-secret")
	token, err := svc.tokens.issueRefresh("gone")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.Refresh(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for deleted customer, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newStubRepo()
	svc := New(repo, "test-secret")
	if _, err := svc.Signup(context.Background(), SignupInput{Email: "a@b.c", Password: "supersecret"}); err != nil {
		t.Fatalf("signup: %v", err)
	}

	if _, _, _, err := svc.Login(context.Background(), "a@b.c", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, _, err := svc.Login(context.Background(), "nobody@b.c", "supersecret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	issuer := New(newStubRepo(), "secret-a")
	verifier := New(newStubRepo(), "secret-b")

	token, err := issuer.tokens.issueAccess("u1", "a@b.c", domain.RoleCustomer)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, _, err := verifier.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	repo := newStubRepo()
	svc := New(repo, "test-secret")
	svc.tokens.accessTTL = -time.Minute

	token, err := svc.tokens.issueAccess("u1", "a@b.c", domain.RoleCustomer)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, _, err := svc.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

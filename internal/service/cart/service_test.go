package cart

import (
	"context"
	"errors"
	"testing"

	"storefront-api/internal/coupon"
	"storefront-api/internal/domain"
)

type stubRepo struct {
	carts       map[string]*domain.Cart
	activeCarts map[domain.Owner]*domain.Cart
	createErr   error
	saveErr     error
	saved       *domain.Cart
	saveCalls   int
	rebound     [2]string
	deletedIDs  []string
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		carts:       make(map[string]*domain.Cart),
		activeCarts: make(map[domain.Owner]*domain.Cart),
	}
}

func (s *stubRepo) add(cart *domain.Cart) *domain.Cart {
	s.carts[cart.ID] = cart
	s.activeCarts[cart.Owner] = cart
	return cart
}

func (s *stubRepo) Create(_ context.Context, owner domain.Owner, currency string) (*domain.Cart, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	cart := &domain.Cart{ID: "cart-" + owner.ID, Owner: owner, Currency: currency, Status: domain.CartActive}
	return s.add(cart), nil
}

func (s *stubRepo) GetByID(_ context.Context, id string) (*domain.Cart, error) {
	if cart, ok := s.carts[id]; ok {
		return cart, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubRepo) GetActiveByOwner(_ context.Context, owner domain.Owner) (*domain.Cart, error) {
	if cart, ok := s.activeCarts[owner]; ok {
		return cart, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubRepo) Save(_ context.Context, cart *domain.Cart) error {
	s.saved = cart
	s.saveCalls++
	return s.saveErr
}

func (s *stubRepo) Rebind(_ context.Context, cartID, userID string) error {
	s.rebound = [2]string{cartID, userID}
	cart, ok := s.carts[cartID]
	if !ok {
		return domain.ErrNotFound
	}
	delete(s.activeCarts, cart.Owner)
	cart.Owner = domain.UserOwner(userID)
	s.activeCarts[cart.Owner] = cart
	return nil
}

func (s *stubRepo) Delete(_ context.Context, id string) error {
	s.deletedIDs = append(s.deletedIDs, id)
	if cart, ok := s.carts[id]; ok {
		delete(s.activeCarts, cart.Owner)
		delete(s.carts, id)
	}
	return nil
}

type stubProductRepo struct {
	products map[string]*domain.Product
}

func (s *stubProductRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	if p, ok := s.products[id]; ok {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

func testService(repo *stubRepo, products map[string]*domain.Product) *Service {
	return New(repo, &stubProductRepo{products: products}, coupon.NewStatic())
}

func product(id string, priceCents int64, stock int) *domain.Product {
	return &domain.Product{ID: id, Name: "Product " + id, PriceCents: priceCents, InStock: stock > 0, StockCount: stock}
}

func TestResolveCreatesCartOnFirstTouch(t *testing.T) {
	repo := newStubRepo()
	svc := testService(repo, nil)
	owner := domain.GuestOwner("sess-1")

	cart, err := svc.Resolve(context.Background(), owner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cart.Owner != owner || cart.Currency != DefaultCurrency {
		t.Fatalf("unexpected cart %+v", cart)
	}

	again, err := svc.Resolve(context.Background(), owner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.ID != cart.ID {
		t.Fatalf("expected same cart on second resolve, got %s and %s", cart.ID, again.ID)
	}
}

func TestResolveRejectsEmptyIdentity(t *testing.T) {
	svc := testService(newStubRepo(), nil)
	if _, err := svc.Resolve(context.Background(), domain.Owner{}); !errors.Is(err, domain.ErrIdentity) {
		t.Fatalf("expected ErrIdentity, got %v", err)
	}
}

func TestAddItemRecomputesTotals(t *testing.T) {
	repo := newStubRepo()
	svc := testService(repo, map[string]*domain.Product{"p1": product("p1", 3000, 10)})
	owner := domain.UserOwner("u1")

	cart, err := svc.AddItem(context.Background(), owner, "p1", 2, domain.Variant{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cart.SubtotalCents != 6000 {
		t.Fatalf("expected subtotal 6000, got %d", cart.SubtotalCents)
	}
	if cart.ShippingCents != 0 {
		t.Fatalf("expected free shipping above threshold, got %d", cart.ShippingCents)
	}
	if cart.TotalCents != 6480 {
		t.Fatalf("expected total 6480, got %d", cart.TotalCents)
	}
	if repo.saved == nil {
		t.Fatalf("expected cart to be saved")
	}
}

func TestAddItemUnknownProduct(t *testing.T) {
	svc := testService(newStubRepo(), nil)
	_, err := svc.AddItem(context.Background(), domain.UserOwner("u1"), "missing", 1, domain.Variant{})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAddItemOutOfStock(t *testing.T) {
	svc := testService(newStubRepo(), map[string]*domain.Product{"p1": product("p1", 1000, 0)})
	_, err := svc.AddItem(context.Background(), domain.UserOwner("u1"), "p1", 1, domain.Variant{})
	if !errors.Is(err, domain.ErrOutOfStock) {
		t.Fatalf("expected ErrOutOfStock, got %v", err)
	}
}

func TestUpdateQuantityMissingLine(t *testing.T) {
	svc := testService(newStubRepo(), nil)
	_, err := svc.UpdateQuantity(context.Background(), domain.UserOwner("u1"), "nope", 3)
	if !errors.Is(err, domain.ErrLineNotFound) {
		t.Fatalf("expected ErrLineNotFound, got %v", err)
	}
}

func TestRemoveItemAbsentLineSucceeds(t *testing.T) {
	repo := newStubRepo()
	svc := testService(repo, nil)
	cart, err := svc.RemoveItem(context.Background(), domain.GuestOwner("sess-1"), "nope")
	if err != nil {
		t.Fatalf("expected no-op removal to succeed, got %v", err)
	}
	if len(cart.Lines) != 0 {
		t.Fatalf("unexpected lines %+v", cart.Lines)
	}
}

func TestApplyCouponUnknownCodeLeavesCartUntouched(t *testing.T) {
	repo := newStubRepo()
	svc := testService(repo, map[string]*domain.Product{"p1": product("p1", 10000, 10)})
	owner := domain.UserOwner("u1")
	if _, err := svc.AddItem(context.Background(), owner, "p1", 1, domain.Variant{}); err != nil {
		t.Fatalf("add item: %v", err)
	}
	saves := repo.saveCalls

	_, err := svc.ApplyCoupon(context.Background(), owner, "BOGUS")
	if !errors.Is(err, domain.ErrInvalidCoupon) {
		t.Fatalf("expected ErrInvalidCoupon, got %v", err)
	}
	if repo.saveCalls != saves {
		t.Fatalf("expected no save on failed coupon")
	}
	cart, _ := repo.GetActiveByOwner(context.Background(), owner)
	if cart.CouponCode != "" || cart.Discount != nil {
		t.Fatalf("expected coupon state untouched, got %+v", cart)
	}
}

func TestApplyCouponBelowMinimum(t *testing.T) {
	repo := newStubRepo()
	svc := testService(repo, map[string]*domain.Product{"p1": product("p1", 1000, 10)})
	owner := domain.UserOwner("u1")
	if _, err := svc.AddItem(context.Background(), owner, "p1", 1, domain.Variant{}); err != nil {
		t.Fatalf("add item: %v", err)
	}

	_, err := svc.ApplyCoupon(context.Background(), owner, "SAVE20")
	if !errors.Is(err, domain.ErrInvalidCoupon) {
		t.Fatalf("expected ErrInvalidCoupon, got %v", err)
	}
}

func TestApplyCouponDiscountsTotal(t *testing.T) {
	repo := newStubRepo()
	svc := testService(repo, map[string]*domain.Product{"p1": product("p1", 10000, 10)})
	owner := domain.UserOwner("u1")
	if _, err := svc.AddItem(context.Background(), owner, "p1", 1, domain.Variant{}); err != nil {
		t.Fatalf("add item: %v", err)
	}

	cart, err := svc.ApplyCoupon(context.Background(), owner, "welcome10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cart.DiscountCents != 1000 {
		t.Fatalf("expected discount 1000, got %d", cart.DiscountCents)
	}
	if cart.TotalCents != 9800 {
		t.Fatalf("expected total 9800, got %d", cart.TotalCents)
	}
}

func TestMergeGuestCartWithoutUserCartRebinds(t *testing.T) {
	repo := newStubRepo()
	svc := testService(repo, nil)
	guest := repo.add(&domain.Cart{ID: "g1", Owner: domain.GuestOwner("sess-1"), Status: domain.CartActive})

	cart, err := svc.MergeGuestCart(context.Background(), "u1", "sess-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.rebound != [2]string{"g1", "u1"} {
		t.Fatalf("expected rebind of g1 to u1, got %v", repo.rebound)
	}
	if cart.ID != guest.ID || !cart.Owner.IsUser() {
		t.Fatalf("unexpected cart %+v", cart)
	}
}

func TestMergeGuestCartFoldsLines(t *testing.T) {
	repo := newStubRepo()
	svc := testService(repo, nil)
	repo.add(&domain.Cart{
		ID: "g1", Owner: domain.GuestOwner("sess-1"), Status: domain.CartActive,
		Lines: []domain.Line{
			{ID: "l1", ProductID: "p1", Quantity: 2, UnitPriceCents: 1000},
			{ID: "l2", ProductID: "p2", Quantity: 1, UnitPriceCents: 500},
		},
	})
	repo.add(&domain.Cart{
		ID: "u1-cart", Owner: domain.UserOwner("u1"), Status: domain.CartActive,
		Lines: []domain.Line{
			{ID: "l3", ProductID: "p1", Quantity: 1, UnitPriceCents: 1000},
		},
	})

	cart, err := svc.MergeGuestCart(context.Background(), "u1", "sess-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cart.ID != "u1-cart" {
		t.Fatalf("expected user cart to survive, got %s", cart.ID)
	}
	if len(cart.Lines) != 2 {
		t.Fatalf("expected two lines after merge, got %d", len(cart.Lines))
	}
	if got := cart.FindLine("l3").Quantity; got != 3 {
		t.Fatalf("expected merged quantity 3, got %d", got)
	}
	if cart.SubtotalCents != 3500 {
		t.Fatalf("expected subtotal 3500, got %d", cart.SubtotalCents)
	}
	if len(repo.deletedIDs) != 1 || repo.deletedIDs[0] != "g1" {
		t.Fatalf("expected guest cart deleted, got %v", repo.deletedIDs)
	}
}

func TestMergeGuestCartIsIdempotent(t *testing.T) {
	repo := newStubRepo()
	svc := testService(repo, nil)
	repo.add(&domain.Cart{ID: "g1", Owner: domain.GuestOwner("sess-1"), Status: domain.CartActive})

	first, err := svc.MergeGuestCart(context.Background(), "u1", "sess-1")
	if err != nil {
		t.Fatalf("first merge: %v", err)
	}
	second, err := svc.MergeGuestCart(context.Background(), "u1", "sess-1")
	if err != nil {
		t.Fatalf("second merge: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected second merge to return the same cart")
	}
}

func TestPruneDropsDeadLinesAndRefreshesPrices(t *testing.T) {
	repo := newStubRepo()
	products := map[string]*domain.Product{
		"live":    product("live", 2500, 10),
		"drifted": product("drifted", 1800, 10),
		"oos":     product("oos", 1000, 0),
	}
	svc := testService(repo, products)
	owner := domain.UserOwner("u1")
	repo.add(&domain.Cart{
		ID: "c1", Owner: owner, Status: domain.CartActive,
		Lines: []domain.Line{
			{ID: "l1", ProductID: "live", Quantity: 1, UnitPriceCents: 2500},
			{ID: "l2", ProductID: "drifted", Quantity: 1, UnitPriceCents: 1500},
			{ID: "l3", ProductID: "oos", Quantity: 1, UnitPriceCents: 1000},
			{ID: "l4", ProductID: "deleted", Quantity: 1, UnitPriceCents: 700},
		},
	})

	cart, err := svc.Prune(context.Background(), owner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cart.Lines) != 2 {
		t.Fatalf("expected two surviving lines, got %d", len(cart.Lines))
	}
	if got := cart.FindLine("l2").UnitPriceCents; got != 1800 {
		t.Fatalf("expected refreshed price 1800, got %d", got)
	}
	if cart.SubtotalCents != 4300 {
		t.Fatalf("expected subtotal 4300, got %d", cart.SubtotalCents)
	}
}

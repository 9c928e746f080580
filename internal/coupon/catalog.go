// Package coupon resolves coupon codes to discount rules. The catalog is an
// interface so the built-in static table can be swapped for a real store
// without touching the cart service.
package coupon

import (
	"strings"

	"storefront-api/internal/domain"
)

// Catalog looks up a discount rule by code.
type Catalog interface {
	Resolve(code string) (*domain.DiscountRule, bool)
}

// Static is the built-in, case-insensitive coupon table.
type Static struct {
	rules map[string]domain.DiscountRule
}

// NewStatic returns the catalog with the stock promotion codes.
func NewStatic() *Static {
	return &Static{rules: map[string]domain.DiscountRule{
		"WELCOME10": {Kind: domain.DiscountPercent, Value: 10},
		"SAVE20":    {Kind: domain.DiscountPercent, Value: 20, MinSubtotalCents: 5000, MaxDiscountCents: 10000},
		"FLAT5":     {Kind: domain.DiscountFixed, Value: 500, MinSubtotalCents: 2500},
	}}
}

func (s *Static) Resolve(code string) (*domain.DiscountRule, bool) {
	rule, ok := s.rules[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil, false
	}
	return &rule, true
}

// Package pricing computes cart totals. Everything is integer cents; division
// happens only once per component so no error accumulates across lines.
package pricing

import "storefront-api/internal/domain"

const (
	// TaxRateBasisPoints is the flat tax rate applied to the subtotal.
	TaxRateBasisPoints int64 = 800
	// FreeShippingThresholdCents waives the shipping fee at or above this subtotal.
	FreeShippingThresholdCents int64 = 5000
	// FlatShippingFeeCents is charged below the free-shipping threshold.
	FlatShippingFeeCents int64 = 1000
)

type Totals struct {
	SubtotalCents int64
	TaxCents      int64
	ShippingCents int64
	DiscountCents int64
	TotalCents    int64
}

// Compute derives totals from the lines and an optional discount rule.
// Pure: no I/O, no mutation of inputs.
func Compute(lines []domain.Line, rule *domain.DiscountRule) Totals {
	var t Totals
	for i := range lines {
		t.SubtotalCents += lines[i].UnitPriceCents * int64(lines[i].Quantity)
	}
	t.TaxCents = t.SubtotalCents * TaxRateBasisPoints / 10000
	if t.SubtotalCents > 0 && t.SubtotalCents < FreeShippingThresholdCents {
		t.ShippingCents = FlatShippingFeeCents
	}
	t.DiscountCents = discountFor(t.SubtotalCents, rule)
	t.TotalCents = t.SubtotalCents + t.TaxCents + t.ShippingCents - t.DiscountCents
	if t.TotalCents < 0 {
		t.TotalCents = 0
	}
	return t
}

// Recompute refreshes a cart's derived money fields in place. Must run after
// every mutation that changes lines, quantities or the discount.
func Recompute(c *domain.Cart) {
	t := Compute(c.Lines, c.Discount)
	c.SubtotalCents = t.SubtotalCents
	c.TaxCents = t.TaxCents
	c.ShippingCents = t.ShippingCents
	c.DiscountCents = t.DiscountCents
	c.TotalCents = t.TotalCents
}

func discountFor(subtotalCents int64, rule *domain.DiscountRule) int64 {
	if rule == nil || subtotalCents == 0 {
		return 0
	}
	var d int64
	switch rule.Kind {
	case domain.DiscountPercent:
		d = subtotalCents * rule.Value / 100
	case domain.DiscountFixed:
		d = rule.Value
	}
	if rule.MaxDiscountCents > 0 && d > rule.MaxDiscountCents {
		d = rule.MaxDiscountCents
	}
	if d < 0 {
		d = 0
	}
	return d
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// OwnerKind discriminates the two shopper identities a cart can belong to.
type OwnerKind string

const (
	OwnerUser  OwnerKind = "user"
	OwnerGuest OwnerKind = "guest"
)

// Owner is the tagged union of user id vs anonymous session id. A cart always
// has exactly one of the two; the zero Owner is invalid.
type Owner struct {
	Kind OwnerKind `json:"kind"`
	ID   string    `json:"id"`
}

func UserOwner(userID string) Owner {
	return Owner{Kind: OwnerUser, ID: userID}
}

func GuestOwner(sessionID string) Owner {
	return Owner{Kind: OwnerGuest, ID: sessionID}
}

func (o Owner) Valid() bool {
	return o.ID != "" && (o.Kind == OwnerUser || o.Kind == OwnerGuest)
}

func (o Owner) IsUser() bool {
	return o.Kind == OwnerUser
}

type CartStatus string

const (
	CartActive    CartStatus = "active"
	CartAbandoned CartStatus = "abandoned"
	CartConverted CartStatus = "converted"
)

// CartTTL is how long a cart stays valid after its last mutation.
const CartTTL = 30 * 24 * time.Hour

// Variant is the small fixed set of per-line selectors. Two lines with the
// same product and equal variants are the same line.
type Variant struct {
	Size  string `json:"size,omitempty"`
	Color string `json:"color,omitempty"`
}

// Line is one product+variant selection. Prices are captured at add time and
// not re-read on later views.
type Line struct {
	ID                 string    `json:"id"`
	ProductID          string    `json:"productId"`
	Name               string    `json:"name"`
	ImageURL           string    `json:"imageUrl,omitempty"`
	Variant            Variant   `json:"variant"`
	Quantity           int       `json:"quantity"`
	UnitPriceCents     int64     `json:"unitPriceCents"`
	OriginalPriceCents int64     `json:"originalPriceCents"`
	AddedAt            time.Time `json:"addedAt"`
}

type DiscountKind string

const (
	DiscountPercent DiscountKind = "percent"
	DiscountFixed   DiscountKind = "fixed"
)

// DiscountRule is the resolved form of a coupon code, captured on the cart at
// apply time so later recomputations do not need the catalog.
type DiscountRule struct {
	Kind             DiscountKind `json:"kind"`
	Value            int64        `json:"value"` // whole percent, or cents for fixed
	MinSubtotalCents int64        `json:"minSubtotalCents"`
	MaxDiscountCents int64        `json:"maxDiscountCents,omitempty"` // 0 means uncapped
}

// Cart is one shopper's in-progress selection. All money fields are derived;
// they are recomputed after every mutation and never set independently.
type Cart struct {
	ID            string       `json:"id"`
	Owner         Owner        `json:"owner"`
	Lines         []Line       `json:"lines"`
	SubtotalCents int64        `json:"subtotalCents"`
	TaxCents      int64        `json:"taxCents"`
	ShippingCents int64        `json:"shippingCents"`
	DiscountCents int64        `json:"discountCents"`
	TotalCents    int64        `json:"totalCents"`
	Currency      string       `json:"currency"`
	CouponCode    string       `json:"couponCode,omitempty"`
	Discount      *DiscountRule `json:"discount,omitempty"`
	Status        CartStatus   `json:"status"`
	ExpiresAt     time.Time    `json:"expiresAt"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// FindLine returns the line with the given id, or nil.
func (c *Cart) FindLine(lineID string) *Line {
	for i := range c.Lines {
		if c.Lines[i].ID == lineID {
			return &c.Lines[i]
		}
	}
	return nil
}

// MatchLine returns the line matching (productID, variant), or nil.
func (c *Cart) MatchLine(productID string, v Variant) *Line {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID && c.Lines[i].Variant == v {
			return &c.Lines[i]
		}
	}
	return nil
}

// AddLine merges quantity into an existing matching line or appends a new one
// capturing the product's current price.
func (c *Cart) AddLine(p Product, quantity int, v Variant) (*Line, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	if !p.InStock {
		return nil, ErrOutOfStock
	}
	if existing := c.MatchLine(p.ID, v); existing != nil {
		existing.Quantity += quantity
		return existing, nil
	}
	line := Line{
		ID:                 uuid.NewString(),
		ProductID:          p.ID,
		Name:               p.Name,
		ImageURL:           p.ImageURL(),
		Variant:            v,
		Quantity:           quantity,
		UnitPriceCents:     p.PriceCents,
		OriginalPriceCents: p.OriginalPriceCents,
		AddedAt:            time.Now().UTC(),
	}
	c.Lines = append(c.Lines, line)
	return &c.Lines[len(c.Lines)-1], nil
}

// SetQuantity sets a line's quantity directly. Zero or negative removes the
// line. A missing line is an error here, unlike RemoveLine.
func (c *Cart) SetQuantity(lineID string, quantity int) error {
	line := c.FindLine(lineID)
	if line == nil {
		return ErrLineNotFound
	}
	if quantity <= 0 {
		c.RemoveLine(lineID)
		return nil
	}
	line.Quantity = quantity
	return nil
}

// RemoveLine removes a line if present. Removing an absent line is a no-op,
// matching DELETE semantics.
func (c *Cart) RemoveLine(lineID string) {
	for i := range c.Lines {
		if c.Lines[i].ID == lineID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return
		}
	}
}

// Clear empties the cart and drops any applied coupon.
func (c *Cart) Clear() {
	c.Lines = nil
	c.CouponCode = ""
	c.Discount = nil
}

// ItemCount is the total quantity across lines.
func (c *Cart) ItemCount() int {
	n := 0
	for i := range c.Lines {
		n += c.Lines[i].Quantity
	}
	return n
}

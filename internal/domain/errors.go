package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput rejects malformed request fields; wrap it with the detail.
	ErrInvalidInput = errors.New("invalid input")
	// ErrIdentity is returned when a request carries neither a user nor a session identity.
	ErrIdentity = errors.New("no shopper identity supplied")
	// ErrOutOfStock is returned when a product cannot be added or sold.
	ErrOutOfStock = errors.New("product out of stock")
	// ErrInvalidQuantity rejects non-positive quantities on add.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	// ErrLineNotFound is returned when a named cart line does not exist.
	ErrLineNotFound = errors.New("cart line not found")
	// ErrEmptyCart rejects checkout of a cart with no lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidCoupon covers unknown codes and unmet coupon minimums.
	ErrInvalidCoupon = errors.New("invalid coupon")
	// ErrInvalidTransition rejects an illegal order status move.
	ErrInvalidTransition = errors.New("invalid order status transition")
	// ErrPaymentMismatch means the payment intent does not reference the claimed cart or user.
	ErrPaymentMismatch = errors.New("payment intent does not match cart")
	// ErrPaymentNotCompleted means the provider has not captured the payment yet.
	ErrPaymentNotCompleted = errors.New("payment not completed")
	// ErrCartConverted means the cart was already turned into an order.
	ErrCartConverted = errors.New("cart already converted")
	// ErrCheckoutConflict means a concurrent confirm converted the cart first.
	ErrCheckoutConflict = errors.New("cart converted by concurrent checkout")
	// ErrEmailTaken is returned on signup with an already registered email.
	ErrEmailTaken = errors.New("email already registered")
)

package domain

import (
	"fmt"
	"time"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
	OrderRefunded   OrderStatus = "refunded"
)

// validTransitions defines the allowed status moves. delivered, cancelled and
// refunded are terminal.
var validTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderConfirmed, OrderCancelled},
	OrderConfirmed:  {OrderProcessing, OrderShipped, OrderCancelled, OrderRefunded},
	OrderProcessing: {OrderShipped, OrderRefunded},
	OrderShipped:    {OrderDelivered, OrderRefunded},
	OrderDelivered:  {},
	OrderCancelled:  {},
	OrderRefunded:   {},
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

type Address struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// OrderItem is a snapshot of a cart line, decoupled from later catalog edits.
type OrderItem struct {
	ProductID      string  `json:"productId"`
	Name           string  `json:"name"`
	ImageURL       string  `json:"imageUrl,omitempty"`
	Variant        Variant `json:"variant"`
	Quantity       int     `json:"quantity"`
	UnitPriceCents int64   `json:"unitPriceCents"`
}

type Payment struct {
	Method        string        `json:"method"`
	Status        PaymentStatus `json:"status"`
	TransactionID string        `json:"transactionId,omitempty"`
	PaidAt        *time.Time    `json:"paidAt,omitempty"`
}

type OrderPricing struct {
	SubtotalCents int64 `json:"subtotalCents"`
	ShippingCents int64 `json:"shippingCents"`
	TaxCents      int64 `json:"taxCents"`
	DiscountCents int64 `json:"discountCents"`
	TotalCents    int64 `json:"totalCents"`
}

type Shipment struct {
	Method            string     `json:"method,omitempty"`
	TrackingNumber    string     `json:"trackingNumber,omitempty"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery,omitempty"`
	DeliveredAt       *time.Time `json:"deliveredAt,omitempty"`
}

// StatusEvent is one entry of the append-only order timeline.
type StatusEvent struct {
	Status OrderStatus `json:"status"`
	Note   string      `json:"note,omitempty"`
	At     time.Time   `json:"at"`
}

// Order is the immutable record of a completed purchase. Status changes go
// through AddStatusUpdate only, so the timeline never loses an entry.
type Order struct {
	ID              string        `json:"id"`
	OrderNumber     string        `json:"orderNumber"`
	UserID          string        `json:"userId"`
	Items           []OrderItem   `json:"items"`
	ShippingAddress Address       `json:"shippingAddress"`
	BillingAddress  Address       `json:"billingAddress"`
	Payment         Payment       `json:"payment"`
	Pricing         OrderPricing  `json:"pricing"`
	Shipment        Shipment      `json:"shipment"`
	Status          OrderStatus   `json:"status"`
	Timeline        []StatusEvent `json:"timeline"`
	CreatedAt       time.Time     `json:"createdAt"`
}

// CanTransitionTo reports whether the order may move to the target status.
func (o *Order) CanTransitionTo(target OrderStatus) bool {
	allowed, ok := validTransitions[o.Status]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}

// AddStatusUpdate appends a timeline entry and advances the current status.
// Entering confirmed completes a pending payment; entering delivered stamps
// the delivery time.
func (o *Order) AddStatusUpdate(status OrderStatus, note string) error {
	if !o.CanTransitionTo(status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, status)
	}
	now := time.Now().UTC()
	switch status {
	case OrderConfirmed:
		if o.Payment.Status != PaymentCompleted {
			o.Payment.Status = PaymentCompleted
			o.Payment.PaidAt = &now
		}
	case OrderDelivered:
		o.Shipment.DeliveredAt = &now
	case OrderRefunded:
		o.Payment.Status = PaymentRefunded
	}
	o.Status = status
	o.Timeline = append(o.Timeline, StatusEvent{Status: status, Note: note, At: now})
	return nil
}

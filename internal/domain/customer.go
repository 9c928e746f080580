package domain

import "time"

// Customer roles. Signup always produces a customer; admins are provisioned
// directly in the database.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

type Customer struct {
	ID                       string            `json:"id"`
	Email                    string            `json:"email"`
	PasswordHash             string            `json:"-"`
	Role                     string            `json:"role"`
	FirstName                string            `json:"firstName,omitempty"`
	LastName                 string            `json:"lastName,omitempty"`
	Addresses                []CustomerAddress `json:"addresses"`
	DefaultShippingAddressID string            `json:"defaultShippingAddressId,omitempty"`
	DefaultBillingAddressID  string            `json:"defaultBillingAddressId,omitempty"`
	CreatedAt                time.Time         `json:"createdAt"`
}

type CustomerAddress struct {
	ID         string `json:"id"`
	FirstName  string `json:"firstName,omitempty"`
	LastName   string `json:"lastName,omitempty"`
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

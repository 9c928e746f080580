package httpserver

import (
	"errors"
	"net/http"

	"storefront-api/internal/domain"
	"storefront-api/internal/service/checkout"
	"storefront-api/internal/service/customer"
	"github.com/gin-gonic/gin"
)

// respondError maps domain errors onto HTTP statuses. Validation problem
// lists are itemized so the client can re-render the cart.
func respondError(c *gin.Context, err error) {
	var vErr *checkout.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(http.StatusConflict, gin.H{
			"error":    "cart validation failed",
			"problems": vErr.Problems,
		})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrIdentity):
		status = http.StatusUnauthorized
	case errors.Is(err, customer.ErrInvalidCredentials),
		errors.Is(err, customer.ErrInvalidToken):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrLineNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidCoupon):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrPaymentNotCompleted):
		status = http.StatusPaymentRequired
	case errors.Is(err, domain.ErrOutOfStock),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrPaymentMismatch),
		errors.Is(err, domain.ErrCartConverted),
		errors.Is(err, domain.ErrCheckoutConflict),
		errors.Is(err, domain.ErrEmailTaken):
		status = http.StatusConflict
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	c.JSON(status, gin.H{"error": msg})
}

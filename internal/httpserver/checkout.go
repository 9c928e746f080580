package httpserver

import (
	"net/http"

	"storefront-api/internal/domain"
	"storefront-api/internal/service/checkout"
	"github.com/gin-gonic/gin"
)

type createIntentRequest struct {
	CartID          string         `json:"cartId" binding:"required"`
	ShippingAddress domain.Address `json:"shippingAddress"`
	BillingAddress  domain.Address `json:"billingAddress"`
}

type confirmRequest struct {
	PaymentIntentID string         `json:"paymentIntentId" binding:"required"`
	CartID          string         `json:"cartId" binding:"required"`
	ShippingAddress domain.Address `json:"shippingAddress"`
	BillingAddress  domain.Address `json:"billingAddress"`
	Method          string         `json:"method"`
}

type placeOrderRequest struct {
	Items           []checkout.DirectItem `json:"items" binding:"required"`
	ShippingAddress domain.Address        `json:"shippingAddress"`
	BillingAddress  domain.Address        `json:"billingAddress"`
	PaymentMethod   string                `json:"paymentMethod"`
}

func createIntentHandler(svc CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createIntentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		intent, err := svc.CreateIntent(c.Request.Context(), c.GetString(userIDKey), req.CartID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"paymentIntentId": intent.ID,
			"clientSecret":    intent.ClientSecret,
			"amountCents":     intent.AmountCents,
			"currency":        intent.Currency,
		})
	}
}

func confirmHandler(svc CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req confirmRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		order, err := svc.Confirm(c.Request.Context(), checkout.ConfirmInput{
			UserID:          c.GetString(userIDKey),
			PaymentIntentID: req.PaymentIntentID,
			CartID:          req.CartID,
			ShippingAddress: req.ShippingAddress,
			BillingAddress:  req.BillingAddress,
			Method:          req.Method,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"order": order})
	}
}

func placeOrderHandler(svc CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req placeOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		order, err := svc.PlaceDirect(c.Request.Context(), c.GetString(userIDKey), req.Items, req.ShippingAddress, req.BillingAddress, req.PaymentMethod)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"order": order})
	}
}

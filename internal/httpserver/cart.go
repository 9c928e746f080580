package httpserver

import (
	"net/http"

	"storefront-api/internal/domain"
	"github.com/gin-gonic/gin"
)

type addItemRequest struct {
	ProductID string          `json:"productId" binding:"required"`
	Quantity  *int            `json:"quantity"`
	Variants  *domain.Variant `json:"variants"`
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type applyCouponRequest struct {
	CouponCode string `json:"couponCode" binding:"required"`
}

type mergeCartRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
}

type cartResponse struct {
	Cart      *domain.Cart `json:"cart"`
	ItemCount int          `json:"itemCount"`
}

func respondCart(c *gin.Context, cart *domain.Cart) {
	c.JSON(http.StatusOK, cartResponse{Cart: cart, ItemCount: cart.ItemCount()})
}

func getCartHandler(carts CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, err := ownerFromContext(c)
		if err != nil {
			respondError(c, err)
			return
		}
		cart, err := carts.Resolve(c.Request.Context(), owner)
		if err != nil {
			respondError(c, err)
			return
		}
		respondCart(c, cart)
	}
}

func addItemHandler(carts CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, err := ownerFromContext(c)
		if err != nil {
			respondError(c, err)
			return
		}
		var req addItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		quantity := 1
		if req.Quantity != nil {
			quantity = *req.Quantity
		}
		var variant domain.Variant
		if req.Variants != nil {
			variant = *req.Variants
		}
		cart, err := carts.AddItem(c.Request.Context(), owner, req.ProductID, quantity, variant)
		if err != nil {
			respondError(c, err)
			return
		}
		respondCart(c, cart)
	}
}

func updateQuantityHandler(carts CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, err := ownerFromContext(c)
		if err != nil {
			respondError(c, err)
			return
		}
		var req updateQuantityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		cart, err := carts.UpdateQuantity(c.Request.Context(), owner, c.Param("lineId"), *req.Quantity)
		if err != nil {
			respondError(c, err)
			return
		}
		respondCart(c, cart)
	}
}

func removeItemHandler(carts CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, err := ownerFromContext(c)
		if err != nil {
			respondError(c, err)
			return
		}
		cart, err := carts.RemoveItem(c.Request.Context(), owner, c.Param("lineId"))
		if err != nil {
			respondError(c, err)
			return
		}
		respondCart(c, cart)
	}
}

func clearCartHandler(carts CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, err := ownerFromContext(c)
		if err != nil {
			respondError(c, err)
			return
		}
		cart, err := carts.Clear(c.Request.Context(), owner)
		if err != nil {
			respondError(c, err)
			return
		}
		respondCart(c, cart)
	}
}

func applyCouponHandler(carts CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, err := ownerFromContext(c)
		if err != nil {
			respondError(c, err)
			return
		}
		var req applyCouponRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		cart, err := carts.ApplyCoupon(c.Request.Context(), owner, req.CouponCode)
		if err != nil {
			respondError(c, err)
			return
		}
		respondCart(c, cart)
	}
}

func pruneCartHandler(carts CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, err := ownerFromContext(c)
		if err != nil {
			respondError(c, err)
			return
		}
		cart, err := carts.Prune(c.Request.Context(), owner)
		if err != nil {
			respondError(c, err)
			return
		}
		respondCart(c, cart)
	}
}

func mergeCartHandler(carts CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req mergeCartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		cart, err := carts.MergeGuestCart(c.Request.Context(), c.GetString(userIDKey), req.SessionID)
		if err != nil {
			respondError(c, err)
			return
		}
		respondCart(c, cart)
	}
}

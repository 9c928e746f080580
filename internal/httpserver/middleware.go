package httpserver

import (
	"net/http"
	"strings"

	"storefront-api/internal/domain"
	"github.com/gin-gonic/gin"
)

const (
	sessionHeader = "X-Session-Id"

	userIDKey    = "userID"
	userRoleKey  = "userRole"
	sessionIDKey = "sessionID"
)

// identityMiddleware resolves the shopper identity: an optional Bearer token
// names a user, the X-Session-Id header names a guest session. Routes that
// need a specific kind enforce it themselves.
func identityMiddleware(customers CustomerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			token := strings.TrimPrefix(auth, "Bearer ")
			userID, role, err := customers.Verify(token)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				return
			}
			c.Set(userIDKey, userID)
			c.Set(userRoleKey, role)
		}
		if sessionID := strings.TrimSpace(c.GetHeader(sessionHeader)); sessionID != "" {
			c.Set(sessionIDKey, sessionID)
		}
		c.Next()
	}
}

// requireUser rejects requests that did not authenticate as a customer.
func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(userIDKey) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// requireAdmin rejects authenticated customers without the admin role.
// Order status transitions are back-office operations.
func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(userIDKey) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if c.GetString(userRoleKey) != domain.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}

// ownerFromContext picks the cart identity for the request. An authenticated
// user wins over a session id.
func ownerFromContext(c *gin.Context) (domain.Owner, error) {
	if userID := c.GetString(userIDKey); userID != "" {
		return domain.UserOwner(userID), nil
	}
	if sessionID := c.GetString(sessionIDKey); sessionID != "" {
		return domain.GuestOwner(sessionID), nil
	}
	return domain.Owner{}, domain.ErrIdentity
}

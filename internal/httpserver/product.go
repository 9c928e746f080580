package httpserver

import (
	"net/http"

	"storefront-api/internal/domain"
	"github.com/gin-gonic/gin"
)

func listProductsHandler(products ProductRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := products.List(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		if result == nil {
			result = []domain.Product{}
		}
		c.JSON(http.StatusOK, gin.H{"products": result})
	}
}

func getProductHandler(products ProductRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		product, err := products.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"product": product})
	}
}

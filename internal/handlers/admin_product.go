package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"coffeeshop/internal/inventory"
	"coffeeshop/internal/models"
)

// Restocker adds inventory back to a product.
type Restocker interface {
	Increment(ctx context.Context, productID primitive.ObjectID, qty int) (models.Product, error)
}

type restockRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// RestockProduct replenishes stock by staff action, e.g. after a supplier
// delivery or a refunded order.
func RestockProduct(ledger Restocker) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /admin/api/products/:id/stock"
		defer handlePanic(c, route)

		productID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		var req restockRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}
		if req.Quantity <= 0 {
			respondWithError(c, http.StatusBadRequest, route, "quantity must be positive")
			return
		}

		updated, err := ledger.Increment(c.Request.Context(), productID, req.Quantity)
		if err != nil {
			if errors.Is(err, inventory.ErrProductNotFound) {
				respondWithError(c, http.StatusNotFound, route, "product not found")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Printf("[%s] %s restocked by %d, now %d", route, updated.Name, req.Quantity, updated.Stock)
		c.JSON(http.StatusOK, gin.H{
			"message": "stock updated",
			"product": updated.Name,
			"stock":   updated.Stock,
		})
	}
}

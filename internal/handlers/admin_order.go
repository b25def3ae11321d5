package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"coffeeshop/internal/models"
	"coffeeshop/internal/orders"
)

var allowedStatuses = map[string]bool{
	models.StatusPending:   true,
	models.StatusPreparing: true,
	models.StatusReady:     true,
	models.StatusCompleted: true,
	models.StatusCancelled: true,
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateOrderStatus advances fulfillment state by staff action, independent
// of payment outcome.
func UpdateOrderStatus(store *orders.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /admin/api/orders/:id/status"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		var req updateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}
		if !allowedStatuses[req.Status] {
			respondWithError(c, http.StatusBadRequest, route, "invalid status")
			return
		}

		if err := store.UpdateStatus(c.Request.Context(), orderID, req.Status); err != nil {
			if err == orders.ErrOrderNotFound {
				respondWithError(c, http.StatusNotFound, route, "order not found")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "status updated", "status": req.Status})
	}
}

// DeleteOrder removes a completed order; anything non-terminal is refused.
func DeleteOrder(store *orders.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/orders/:id"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		err = store.Delete(c.Request.Context(), orderID)
		switch err {
		case nil:
			c.JSON(http.StatusOK, gin.H{"message": "order deleted"})
		case orders.ErrOrderNotFound:
			respondWithError(c, http.StatusNotFound, route, "order not found")
		case orders.ErrNotCompleted:
			respondWithError(c, http.StatusConflict, route, "only completed orders can be deleted")
		default:
			respondWithError(c, http.StatusInternalServerError, route, "db error")
		}
	}
}

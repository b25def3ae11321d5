package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"coffeeshop/internal/inventory"
	"coffeeshop/internal/models"
	"coffeeshop/internal/orders"
)

/* =========================
   REQUEST DTOs
========================= */

type checkoutItemRequest struct {
	Name           string  `json:"name" binding:"required"`
	Price          float64 `json:"price"`
	Quantity       int     `json:"quantity" binding:"required"`
	Customizations string  `json:"customizations"`
	SpecialRequest string  `json:"specialRequest"`
}

type checkoutRequest struct {
	Items          []checkoutItemRequest `json:"items" binding:"required"`
	TotalAmount    float64               `json:"totalAmount"`
	PaymentMethod  string                `json:"paymentMethod"`
	DeliveryMethod string                `json:"deliveryMethod"`
	Notes          string                `json:"notes"`
	SpecialRequest string                `json:"specialRequest"`
	OrderNumber    string                `json:"orderNumber"`
}

type dineInRequest struct {
	Items       []checkoutItemRequest `json:"items" binding:"required"`
	TotalAmount float64               `json:"totalAmount"`
	TableNumber string                `json:"tableNumber" binding:"required"`
	Area        string                `json:"area"`
	Notes       string                `json:"notes"`
}

func cartItems(items []checkoutItemRequest) []orders.CartItem {
	out := make([]orders.CartItem, 0, len(items))
	for _, item := range items {
		out = append(out, orders.CartItem{
			Name:           strings.TrimSpace(item.Name),
			Price:          item.Price,
			Quantity:       item.Quantity,
			Customizations: item.Customizations,
			SpecialRequest: item.SpecialRequest,
		})
	}
	return out
}

/* =========================
   CHECKOUT
========================= */

func Checkout(assembler *orders.Assembler) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders"
		defer handlePanic(c, route)

		var req checkoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		cart := orders.Cart{
			Items:          cartItems(req.Items),
			TotalAmount:    req.TotalAmount,
			PaymentMethod:  req.PaymentMethod,
			DeliveryMethod: req.DeliveryMethod,
			Notes:          req.Notes,
			SpecialRequest: req.SpecialRequest,
			OrderNumber:    req.OrderNumber,
		}

		order, stockResults, err := assembler.Checkout(c.Request.Context(), cart)
		if err != nil {
			respondCheckoutError(c, route, err)
			return
		}

		log.Printf("[%s] order %s accepted, total %.2f", route, order.OrderNumber, order.TotalAmount)
		c.JSON(http.StatusCreated, gin.H{
			"order":        order,
			"orderNumber":  order.OrderNumber,
			"stockResults": stockResults,
		})
	}
}

func DineInCheckout(assembler *orders.Assembler) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders/dine-in"
		defer handlePanic(c, route)

		var req dineInRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		cart := orders.Cart{
			Items:          cartItems(req.Items),
			TotalAmount:    req.TotalAmount,
			DeliveryMethod: models.DeliveryDineIn,
			TableNumber:    strings.TrimSpace(req.TableNumber),
			Area:           req.Area,
			Notes:          req.Notes,
		}

		order, _, err := assembler.Checkout(c.Request.Context(), cart)
		if err != nil {
			respondCheckoutError(c, route, err)
			return
		}

		orderID := order.ID.Hex()
		if order.Synthetic {
			orderID = order.PlaceholderID
		}

		c.JSON(http.StatusCreated, gin.H{
			"orderId":     orderID,
			"tableNumber": order.TableNumber,
			"total":       order.TotalAmount,
		})
	}
}

func respondCheckoutError(c *gin.Context, route string, err error) {
	var validationErr orders.ValidationError
	if errors.As(err, &validationErr) {
		log.Printf("[%s] validation failed: %v", route, err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation failed",
			"fields": validationErr.Fields,
		})
		return
	}

	var unavailableErr orders.UnavailableError
	if errors.As(err, &unavailableErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "product not available",
			"product": unavailableErr.ProductName,
		})
		return
	}

	var stockErr inventory.InsufficientStockError
	if errors.As(err, &stockErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "insufficient stock",
			"product":   stockErr.ProductName,
			"requested": stockErr.Requested,
		})
		return
	}

	respondWithError(c, http.StatusInternalServerError, route, "order could not be created")
}

/* =========================
   RECENT ORDERS
========================= */

// RecentOrders backs the admin polling view. A store outage answers with an
// empty set and a status flag so pollers do not treat it as fatal.
func RecentOrders(store *orders.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/recent"
		defer handlePanic(c, route)

		recent, err := store.Recent(c.Request.Context(), 50)
		if err != nil {
			log.Printf("[%s] store unreachable: %v", route, err)
			c.JSON(http.StatusOK, gin.H{
				"orders":   []models.Order{},
				"dbStatus": "unavailable",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"orders":   recent,
			"dbStatus": "ok",
		})
	}
}

package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"coffeeshop/internal/orders"
	"coffeeshop/internal/payment"
)

/* =========================
   GATEWAY HANDOFF
========================= */

// PaymentCheckout returns the signed parameter set the client form-posts to
// the gateway's hosted checkout page.
func PaymentCheckout(adapter *payment.Adapter, store *orders.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /payment/checkout"
		defer handlePanic(c, route)

		orderNumber := c.Param("orderNumber")
		order, err := store.FindByOrderNumber(c.Request.Context(), orderNumber)
		if err == orders.ErrOrderNotFound {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "order store unavailable")
			return
		}

		creds := adapter.Credentials()
		params := payment.BuildCheckoutParams(order, creds, time.Now())

		c.JSON(http.StatusOK, gin.H{
			"action": creds.GatewayURL,
			"params": params,
		})
	}
}

/* =========================
   WEBHOOK + RESULT
========================= */

// PaymentNotify is the server-to-server webhook. It answers one of exactly
// two literal tokens and never a non-200, whatever happens inside.
func PaymentNotify(adapter *payment.Adapter) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /payment/notify"
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[%s] panic recovered: %v", route, r)
				c.String(http.StatusOK, payment.AckFailure)
			}
		}()

		params, err := formParams(c)
		if err != nil {
			log.Printf("[%s] form parse failed: %v", route, err)
			c.String(http.StatusOK, payment.AckFailure)
			return
		}

		ack := adapter.HandleNotification(c.Request.Context(), params)
		c.String(http.StatusOK, ack)
	}
}

// PaymentResult is the browser redirect target. Whatever goes wrong, the
// browser gets a redirect with an error indicator, never a raw error page.
func PaymentResult(adapter *payment.Adapter, landingURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /payment/result"
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[%s] panic recovered: %v", route, r)
				c.Redirect(http.StatusFound, landingURL+"?status=error")
			}
		}()

		params, err := formParams(c)
		if err != nil {
			log.Printf("[%s] form parse failed: %v", route, err)
			c.Redirect(http.StatusFound, landingURL+"?status=error")
			return
		}

		redirect := adapter.HandleResult(c.Request.Context(), params)
		c.Redirect(http.StatusFound, landingURL+"?"+redirect.Query())
	}
}

// formParams flattens an x-www-form-urlencoded body into the single-valued
// map the signature algorithm works on.
func formParams(c *gin.Context) (map[string]string, error) {
	if err := c.Request.ParseForm(); err != nil {
		return nil, err
	}

	params := make(map[string]string, len(c.Request.PostForm))
	for key, values := range c.Request.PostForm {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	return params, nil
}

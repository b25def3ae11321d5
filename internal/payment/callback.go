package payment

import (
	"context"
	"log"
	"net/url"

	"coffeeshop/internal/metrics"
	"coffeeshop/internal/models"
	"coffeeshop/internal/orders"
)

// The gateway accepts exactly these two plain-text acknowledgements.
// Anything else triggers redelivery.
const (
	AckSuccess = "1|OK"
	AckFailure = "0|CheckMacValue Error"
)

// paidNote is the system annotation written into Order.Notes on payment
// confirmation. specialRequest is never written by this path.
const paidNote = "Payment confirmed by gateway"

// rtnCodeSuccess is the gateway's trade status for a successful payment.
const rtnCodeSuccess = "1"

// OrderStore is the slice of the resilient store the adapter needs to
// drive the payment state machine.
type OrderStore interface {
	FindByOrderNumber(ctx context.Context, orderNumber string) (models.Order, error)
	MarkPaid(ctx context.Context, orderNumber, note string) (bool, error)
	MarkFailed(ctx context.Context, orderNumber string) (bool, error)
}

// Adapter reconciles asynchronous, possibly-duplicated gateway callbacks
// against order payment state.
type Adapter struct {
	store   OrderStore
	creds   Credentials
	metrics *metrics.PaymentMetrics
}

func NewAdapter(store OrderStore, creds Credentials, m *metrics.PaymentMetrics) *Adapter {
	return &Adapter{store: store, creds: creds, metrics: m}
}

func (a *Adapter) Credentials() Credentials {
	return a.creds
}

// HandleNotification processes the server-to-server webhook and returns the
// acknowledgement token. It never reports order-lookup problems to the
// gateway: an unknown trade number is acknowledged and logged for manual
// reconciliation, because a negative ack would only buy a retry storm.
func (a *Adapter) HandleNotification(ctx context.Context, params map[string]string) string {
	if !VerifyCheckMac(params, a.creds.HashKey, a.creds.HashIV) {
		a.metrics.CallbacksRejected.Inc()
		log.Printf("[PAYMENT] [WARN] callback signature mismatch for trade %q", params["MerchantTradeNo"])
		return AckFailure
	}
	a.metrics.CallbacksAccepted.Inc()

	tradeNo := params["MerchantTradeNo"]
	if tradeNo == "" {
		log.Println("[PAYMENT] [WARN] verified callback without MerchantTradeNo")
		return AckSuccess
	}

	if params["RtnCode"] == rtnCodeSuccess {
		a.applyPaid(ctx, tradeNo)
	} else {
		a.applyFailed(ctx, tradeNo, params["RtnMsg"])
	}
	return AckSuccess
}

func (a *Adapter) applyPaid(ctx context.Context, tradeNo string) {
	transitioned, err := a.store.MarkPaid(ctx, tradeNo, paidNote)
	if err != nil {
		log.Printf("[PAYMENT] [ERROR] marking %s paid: %v", tradeNo, err)
		return
	}
	if transitioned {
		log.Printf("[PAYMENT] [INFO] order %s paid", tradeNo)
		return
	}

	// No transition: either a duplicate delivery (terminal state already)
	// or the order never made it to the store. Only the latter needs
	// manual reconciliation.
	order, err := a.store.FindByOrderNumber(ctx, tradeNo)
	if err == orders.ErrOrderNotFound {
		log.Printf("[PAYMENT] [ERROR] paid callback for unknown order %s, reconcile manually", tradeNo)
		return
	}
	if err != nil {
		log.Printf("[PAYMENT] [ERROR] looking up %s: %v", tradeNo, err)
		return
	}
	log.Printf("[PAYMENT] [INFO] duplicate callback for order %s (paymentStatus=%s), no-op", tradeNo, order.PaymentStatus)
}

func (a *Adapter) applyFailed(ctx context.Context, tradeNo, reason string) {
	transitioned, err := a.store.MarkFailed(ctx, tradeNo)
	if err != nil {
		log.Printf("[PAYMENT] [ERROR] marking %s failed: %v", tradeNo, err)
		return
	}
	if transitioned {
		log.Printf("[PAYMENT] [INFO] order %s payment failed: %s", tradeNo, reason)
	}
}

// ResultRedirect is the browser-facing outcome of the client return leg.
// It always renders as a redirect, never an error page.
type ResultRedirect struct {
	Status       string
	OrderNumber  string
	Amount       string
	PickupNumber string
}

// Query encodes the redirect parameters.
func (r ResultRedirect) Query() string {
	q := url.Values{}
	q.Set("status", r.Status)
	if r.OrderNumber != "" {
		q.Set("orderNumber", r.OrderNumber)
	}
	if r.Amount != "" {
		q.Set("amount", r.Amount)
	}
	if r.PickupNumber != "" {
		q.Set("pickupNumber", r.PickupNumber)
	}
	return q.Encode()
}

// HandleResult processes the browser redirect leg. Verification failures
// and internal errors both collapse into an error-status redirect; the
// caller must never surface a 5xx to the browser.
func (a *Adapter) HandleResult(ctx context.Context, params map[string]string) ResultRedirect {
	if !VerifyCheckMac(params, a.creds.HashKey, a.creds.HashIV) {
		return ResultRedirect{Status: "error"}
	}

	tradeNo := params["MerchantTradeNo"]
	redirect := ResultRedirect{
		OrderNumber: tradeNo,
		Amount:      params["TradeAmt"],
	}
	if params["RtnCode"] != rtnCodeSuccess {
		redirect.Status = "failed"
		return redirect
	}
	redirect.Status = "paid"

	if order, err := a.store.FindByOrderNumber(ctx, tradeNo); err == nil {
		redirect.PickupNumber = order.PickupNumber
	}
	return redirect
}

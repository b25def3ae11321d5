package payment

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"coffeeshop/internal/models"
)

// itemNameLimit caps the concatenated item description the gateway accepts.
const itemNameLimit = 200

const tradeDateLayout = "2006/01/02 15:04:05"

// Credentials holds the merchant identity shared with the gateway.
type Credentials struct {
	MerchantID    string
	HashKey       string
	HashIV        string
	GatewayURL    string
	ReturnURL     string
	ClientBackURL string
}

// BuildCheckoutParams builds the flat parameter set the client form-posts
// to the gateway's hosted checkout, including the computed CheckMacValue.
func BuildCheckoutParams(order models.Order, creds Credentials, now time.Time) map[string]string {
	params := map[string]string{
		"MerchantID":        creds.MerchantID,
		"MerchantTradeNo":   order.OrderNumber,
		"MerchantTradeDate": now.Format(tradeDateLayout),
		"PaymentType":       "aio",
		"TotalAmount":       strconv.Itoa(int(math.Round(order.TotalAmount))),
		"TradeDesc":         "coffeeshop order",
		"ItemName":          itemDescription(order.Items),
		"ReturnURL":         creds.ReturnURL,
		"ClientBackURL":     creds.ClientBackURL,
		"ChoosePayment":     "Credit",
		"EncryptType":       "1",
	}
	params[CheckMacField] = GenerateCheckMac(params, creds.HashKey, creds.HashIV)
	return params
}

// itemDescription joins line names with "#" and truncates to the gateway's
// field limit.
func itemDescription(items []models.OrderItem) string {
	names := make([]string, 0, len(items))
	for _, item := range items {
		name := item.Name
		if item.Quantity > 1 {
			name += " x" + strconv.Itoa(item.Quantity)
		}
		names = append(names, name)
	}

	joined := strings.Join(names, "#")
	if len(joined) > itemNameLimit {
		// Back off to a rune start so the cut never splits a multi-byte
		// character.
		cut := itemNameLimit
		for cut > 0 && !utf8.RuneStart(joined[cut]) {
			cut--
		}
		joined = joined[:cut]
	}
	return joined
}

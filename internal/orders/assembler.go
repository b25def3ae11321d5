package orders

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"coffeeshop/internal/inventory"
	"coffeeshop/internal/models"
)

// ProductResolver maps a raw line-item name to a catalog product.
// Implemented by catalog.Resolver.
type ProductResolver interface {
	Resolve(ctx context.Context, name string) (models.Product, error)
}

// StockDecrementer applies one conditional stock decrement. Implemented by
// inventory.Ledger.
type StockDecrementer interface {
	Decrement(ctx context.Context, product models.Product, qty int) (models.Product, error)
}

// OrderPersister hands the assembled order to durable storage. Implemented
// by Store.
type OrderPersister interface {
	Persist(ctx context.Context, order models.Order) (models.Order, error)
}

// totalTolerance is the accepted drift between the submitted total and the
// server-recomputed one, in currency units.
const totalTolerance = 0.01

type CartItem struct {
	Name           string  `json:"name"`
	Price          float64 `json:"price"`
	Quantity       int     `json:"quantity"`
	Customizations string  `json:"customizations"`
	SpecialRequest string  `json:"specialRequest"`
}

type Cart struct {
	Items          []CartItem `json:"items"`
	TotalAmount    float64    `json:"totalAmount"`
	PaymentMethod  string     `json:"paymentMethod"`
	DeliveryMethod string     `json:"deliveryMethod"`
	TableNumber    string     `json:"tableNumber"`
	Area           string     `json:"area"`
	Notes          string     `json:"notes"`
	SpecialRequest string     `json:"specialRequest"`
	OrderNumber    string     `json:"orderNumber"`
}

// StockResult reports the per-item outcome of the best-effort decrement
// pass. Partial application is visible here instead of being swallowed.
type StockResult struct {
	Name    string `json:"name"`
	Applied bool   `json:"applied"`
	Error   string `json:"error,omitempty"`
}

// ValidationError carries field-level messages back to the caller. Never
// retried.
type ValidationError struct {
	Fields map[string]string
}

func (e ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// UnavailableError reports a resolvable but deactivated product.
type UnavailableError struct {
	ProductName string
}

func (e UnavailableError) Error() string {
	return fmt.Sprintf("product %s is not available", e.ProductName)
}

// Assembler validates a submitted cart, recomputes its money, applies stock
// decrements and hands the order to the resilient store.
type Assembler struct {
	resolver ProductResolver
	ledger   StockDecrementer
	store    OrderPersister
}

func NewAssembler(resolver ProductResolver, ledger StockDecrementer, store OrderPersister) *Assembler {
	return &Assembler{
		resolver: resolver,
		ledger:   ledger,
		store:    store,
	}
}

// Checkout runs the full intake: validate, price, decrement, persist.
// Inventory and validation errors abort before any decrement or persistence;
// decrement failures after the first applied item do not roll back earlier
// items (see StockResult).
func (a *Assembler) Checkout(ctx context.Context, cart Cart) (models.Order, []StockResult, error) {
	if len(cart.Items) == 0 {
		return models.Order{}, nil, ValidationError{Fields: map[string]string{
			"items": "at least one item is required",
		}}
	}
	if cart.DeliveryMethod == models.DeliveryDineIn && strings.TrimSpace(cart.TableNumber) == "" {
		return models.Order{}, nil, ValidationError{Fields: map[string]string{
			"tableNumber": "tableNumber is required for dine-in orders",
		}}
	}

	resolved := make([]models.Product, 0, len(cart.Items))
	items := make([]models.OrderItem, 0, len(cart.Items))
	serverTotal := 0.0

	for i, line := range cart.Items {
		if line.Quantity < 1 {
			return models.Order{}, nil, ValidationError{Fields: map[string]string{
				fmt.Sprintf("items[%d].quantity", i): "quantity must be at least 1",
			}}
		}

		product, err := a.resolver.Resolve(ctx, line.Name)
		if err != nil {
			return models.Order{}, nil, ValidationError{Fields: map[string]string{
				fmt.Sprintf("items[%d].name", i): fmt.Sprintf("product %q not found", line.Name),
			}}
		}
		if !product.IsAvailable {
			return models.Order{}, nil, UnavailableError{ProductName: product.Name}
		}
		if product.Stock < line.Quantity {
			return models.Order{}, nil, inventory.InsufficientStockError{
				ProductName: product.Name,
				Requested:   line.Quantity,
			}
		}

		// The client price may carry add-on surcharges the catalog does not
		// know; the subtotal is still recomputed server-side from it.
		subtotal := line.Price * float64(line.Quantity)
		serverTotal += subtotal

		items = append(items, models.OrderItem{
			ProductID:      product.ID,
			Name:           line.Name,
			Price:          line.Price,
			Quantity:       line.Quantity,
			Subtotal:       subtotal,
			Customizations: line.Customizations,
			SpecialRequest: line.SpecialRequest,
		})
		resolved = append(resolved, product)
	}

	if math.Abs(serverTotal-cart.TotalAmount) > totalTolerance {
		return models.Order{}, nil, ValidationError{Fields: map[string]string{
			"totalAmount": fmt.Sprintf("submitted total %.2f does not match computed total %.2f",
				cart.TotalAmount, serverTotal),
		}}
	}

	stockResults := make([]StockResult, 0, len(items))
	for i, product := range resolved {
		result := StockResult{Name: items[i].Name, Applied: true}
		if _, err := a.ledger.Decrement(ctx, product, items[i].Quantity); err != nil {
			result.Applied = false
			result.Error = err.Error()
		}
		stockResults = append(stockResults, result)
	}

	orderNumber := strings.TrimSpace(cart.OrderNumber)
	if orderNumber == "" {
		orderNumber = a.generateOrderNumber()
	}

	order := models.Order{
		OrderNumber:    orderNumber,
		Items:          items,
		TotalAmount:    serverTotal,
		Status:         models.StatusPending,
		PaymentStatus:  models.PaymentPending,
		PaymentMethod:  cart.PaymentMethod,
		DeliveryMethod: cart.DeliveryMethod,
		TableNumber:    cart.TableNumber,
		Area:           cart.Area,
		Notes:          cart.Notes,
		SpecialRequest: cart.SpecialRequest,
		CreatedAt:      time.Now(),
	}
	if cart.DeliveryMethod == models.DeliveryPickup {
		order.PickupNumber = a.generatePickupNumber()
	}

	persisted, err := a.store.Persist(ctx, order)
	if err != nil {
		return models.Order{}, stockResults, err
	}
	return persisted, stockResults, nil
}

// generateOrderNumber builds a collision-resistant (not unique-guaranteed)
// merchant trade reference: timestamp plus random suffix.
func (a *Assembler) generateOrderNumber() string {
	return fmt.Sprintf("C%s%04d", time.Now().Format("20060102150405"), rand.Intn(10000))
}

func (a *Assembler) generatePickupNumber() string {
	return fmt.Sprintf("%04d", rand.Intn(10000))
}

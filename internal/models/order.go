package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Fulfillment states for Order.Status.
const (
	StatusPending   = "pending"
	StatusPreparing = "preparing"
	StatusReady     = "ready"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Payment states for Order.PaymentStatus. Both "paid" and "failed" are
// terminal; no transition leaves them.
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
	PaymentFailed  = "failed"
)

// Delivery methods.
const (
	DeliveryPickup   = "pickup"
	DeliveryDelivery = "delivery"
	DeliveryDineIn   = "dine-in"
)

// OrderItem represents a single purchased line within an order. Subtotal is
// recomputed server-side and is authoritative over anything the client sent.
type OrderItem struct {
	ProductID      primitive.ObjectID `bson:"productId,omitempty" json:"productId,omitempty"`
	Name           string             `bson:"name" json:"name"`
	Price          float64            `bson:"price" json:"price"`
	Quantity       int                `bson:"quantity" json:"quantity"`
	Subtotal       float64            `bson:"subtotal" json:"subtotal"`
	Customizations string             `bson:"customizations,omitempty" json:"customizations,omitempty"`
	SpecialRequest string             `bson:"specialRequest,omitempty" json:"specialRequest,omitempty"`
}

// Order defines the persisted order document.
//
// Notes is system-owned: the payment callback and admin tooling may
// overwrite it. SpecialRequest is customer-owned free text and must never
// be written by any automated path once set.
type Order struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderNumber    string             `bson:"orderNumber,omitempty" json:"orderNumber,omitempty"`
	PickupNumber   string             `bson:"pickupNumber,omitempty" json:"pickupNumber,omitempty"`
	Items          []OrderItem        `bson:"items" json:"items"`
	TotalAmount    float64            `bson:"totalAmount" json:"totalAmount"`
	Status         string             `bson:"status" json:"status"`
	PaymentStatus  string             `bson:"paymentStatus" json:"paymentStatus"`
	PaymentMethod  string             `bson:"paymentMethod,omitempty" json:"paymentMethod,omitempty"`
	DeliveryMethod string             `bson:"deliveryMethod,omitempty" json:"deliveryMethod,omitempty"`
	TableNumber    string             `bson:"tableNumber,omitempty" json:"tableNumber,omitempty"`
	Area           string             `bson:"area,omitempty" json:"area,omitempty"`
	Notes          string             `bson:"notes,omitempty" json:"notes,omitempty"`
	SpecialRequest string             `bson:"specialRequest,omitempty" json:"specialRequest,omitempty"`
	// Synthetic marks an order answered to the customer before the durable
	// write confirmed; PlaceholderID is its local stand-in identifier.
	Synthetic     bool      `bson:"-" json:"synthetic,omitempty"`
	PlaceholderID string    `bson:"-" json:"placeholderId,omitempty"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updatedAt"`
}

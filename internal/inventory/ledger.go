package inventory

import (
	"context"
	"errors"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"coffeeshop/internal/models"
	"coffeeshop/internal/notify"
)

// ErrProductNotFound reports a mutation against a product id that does not
// exist in the store.
var ErrProductNotFound = errors.New("product not found")

// InsufficientStockError reports a decrement that would drive stock below
// zero. The conditional update guarantees the write never happened.
type InsufficientStockError struct {
	ProductName string
	Requested   int
}

func (e InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (requested %d)", e.ProductName, e.Requested)
}

// productCollection is the slice of *mongo.Collection the ledger touches,
// abstracted so the branch behavior can be tested without a live database.
type productCollection interface {
	FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}, opts ...*options.FindOneAndUpdateOptions) *mongo.SingleResult
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
}

// Ledger applies atomic conditional stock mutations and fans out change
// events. It takes no application-level locks; the filter on the update is
// the only concurrency guard.
type Ledger struct {
	products productCollection
	notifier notify.Notifier
}

func NewLedger(db *mongo.Database, notifier notify.Notifier) *Ledger {
	return &Ledger{products: db.Collection("products"), notifier: notifier}
}

// decrementFilter matches the product only while it still has qty units, so
// two racing orders cannot both win the same stock.
func decrementFilter(key string, value interface{}, qty int) bson.M {
	return bson.M{
		key:     value,
		"stock": bson.M{"$gte": qty},
	}
}

func decrementUpdate(qty int) bson.M {
	return bson.M{"$inc": bson.M{
		"stock":      -qty,
		"salesCount": qty,
	}}
}

func changeEvent(p models.Product, qty int) notify.StockChange {
	return notify.StockChange{
		ProductID:   p.ID.Hex(),
		ProductName: p.Name,
		OldStock:    p.Stock + qty,
		NewStock:    p.Stock,
		Delta:       -qty,
		Direction:   notify.DirectionOut,
	}
}

// Decrement subtracts qty from stock and adds qty to salesCount in one
// conditional update. Fallback products without a durable identity are
// reconciled against the store by base name, best-effort.
func (l *Ledger) Decrement(ctx context.Context, product models.Product, qty int) (models.Product, error) {
	if qty <= 0 {
		return models.Product{}, fmt.Errorf("quantity must be positive, got %d", qty)
	}

	var filter bson.M
	if product.ID.IsZero() {
		filter = decrementFilter("name", product.Name, qty)
	} else {
		filter = decrementFilter("_id", product.ID, qty)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Product
	err := l.products.
		FindOneAndUpdate(ctx, filter, decrementUpdate(qty), opts).
		Decode(&updated)
	if err == mongo.ErrNoDocuments {
		if product.ID.IsZero() {
			return l.reconcileFallbackMiss(ctx, product, qty)
		}
		return models.Product{}, InsufficientStockError{ProductName: product.Name, Requested: qty}
	}
	if err != nil {
		return models.Product{}, err
	}

	l.notifier.StockChanged(changeEvent(updated, qty))
	return updated, nil
}

// reconcileFallbackMiss decides what a by-name miss meant: a fallback product
// with no durable counterpart gets its accounting skipped, while a durable
// counterpart that lost the stock condition is a real shortage.
func (l *Ledger) reconcileFallbackMiss(ctx context.Context, product models.Product, qty int) (models.Product, error) {
	err := l.products.FindOne(ctx, bson.M{"name": product.Name}).Err()
	if err == mongo.ErrNoDocuments {
		log.Printf("[STOCK] [WARN] no durable product named %q, decrement skipped", product.Name)
		return product, nil
	}
	if err != nil {
		log.Printf("[STOCK] [WARN] could not reconcile %q against the store, decrement skipped: %v", product.Name, err)
		return product, nil
	}
	return models.Product{}, InsufficientStockError{ProductName: product.Name, Requested: qty}
}

// Increment restocks a product, e.g. after a supplier delivery or a refunded
// order. Reached through the admin restock endpoint.
func (l *Ledger) Increment(ctx context.Context, productID primitive.ObjectID, qty int) (models.Product, error) {
	if qty <= 0 {
		return models.Product{}, fmt.Errorf("quantity must be positive, got %d", qty)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Product
	err := l.products.
		FindOneAndUpdate(ctx, bson.M{"_id": productID}, bson.M{"$inc": bson.M{"stock": qty}}, opts).
		Decode(&updated)
	if err == mongo.ErrNoDocuments {
		return models.Product{}, ErrProductNotFound
	}
	if err != nil {
		return models.Product{}, err
	}

	l.notifier.StockChanged(notify.StockChange{
		ProductID:   updated.ID.Hex(),
		ProductName: updated.Name,
		OldStock:    updated.Stock - qty,
		NewStock:    updated.Stock,
		Delta:       qty,
		Direction:   notify.DirectionIn,
	})
	return updated, nil
}

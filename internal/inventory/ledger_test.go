package inventory

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"coffeeshop/internal/models"
	"coffeeshop/internal/notify"
)

type fakeProducts struct {
	updateResult *mongo.SingleResult
	findResult   *mongo.SingleResult

	updateFilter bson.M
	findFilter   bson.M
	findCalls    int
}

func (f *fakeProducts) FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}, opts ...*options.FindOneAndUpdateOptions) *mongo.SingleResult {
	f.updateFilter, _ = filter.(bson.M)
	return f.updateResult
}

func (f *fakeProducts) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult {
	f.findFilter, _ = filter.(bson.M)
	f.findCalls++
	return f.findResult
}

type recordingNotifier struct {
	events []notify.StockChange
}

func (n *recordingNotifier) StockChanged(event notify.StockChange) {
	n.events = append(n.events, event)
}

func resultWith(doc interface{}) *mongo.SingleResult {
	return mongo.NewSingleResultFromDocument(doc, nil, nil)
}

func resultNoDocuments() *mongo.SingleResult {
	return mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil)
}

func TestDecrementFilterGuardsAvailableStock(t *testing.T) {
	id := primitive.NewObjectID()
	filter := decrementFilter("_id", id, 3)

	if filter["_id"] != id {
		t.Fatalf("expected _id %v in filter, got %v", id, filter["_id"])
	}
	stockCond, ok := filter["stock"].(bson.M)
	if !ok {
		t.Fatalf("expected stock condition, got %v", filter["stock"])
	}
	if stockCond["$gte"] != 3 {
		t.Fatalf("expected stock $gte 3, got %v", stockCond["$gte"])
	}
}

func TestDecrementUpdateIsSingleConditionalInc(t *testing.T) {
	update := decrementUpdate(2)

	inc, ok := update["$inc"].(bson.M)
	if !ok {
		t.Fatalf("expected $inc update, got %v", update)
	}
	if inc["stock"] != -2 {
		t.Fatalf("expected stock -2, got %v", inc["stock"])
	}
	if inc["salesCount"] != 2 {
		t.Fatalf("expected salesCount +2, got %v", inc["salesCount"])
	}
}

func TestChangeEventReportsOldAndNewStock(t *testing.T) {
	updated := models.Product{
		ID:    primitive.NewObjectID(),
		Name:  "Americano",
		Stock: 8,
	}

	event := changeEvent(updated, 2)
	if event.OldStock != 10 || event.NewStock != 8 {
		t.Fatalf("expected stock 10 -> 8, got %d -> %d", event.OldStock, event.NewStock)
	}
	if event.Delta != -2 {
		t.Fatalf("expected delta -2, got %d", event.Delta)
	}
	if event.Direction != notify.DirectionOut {
		t.Fatalf("expected direction %q, got %q", notify.DirectionOut, event.Direction)
	}
	if event.ProductName != "Americano" {
		t.Fatalf("expected product name in event, got %q", event.ProductName)
	}
}

func TestDecrementRejectsNonPositiveQuantity(t *testing.T) {
	ledger := &Ledger{products: &fakeProducts{}, notifier: notify.LogNotifier{}}
	if _, err := ledger.Decrement(context.Background(), models.Product{Name: "Latte"}, 0); err == nil {
		t.Fatal("expected error for zero quantity")
	}
	if _, err := ledger.Decrement(context.Background(), models.Product{Name: "Latte"}, -1); err == nil {
		t.Fatal("expected error for negative quantity")
	}
}

func TestDecrementEmitsEventWithUpdatedStock(t *testing.T) {
	id := primitive.NewObjectID()
	products := &fakeProducts{
		updateResult: resultWith(models.Product{ID: id, Name: "Latte", Stock: 7}),
	}
	notifier := &recordingNotifier{}
	ledger := &Ledger{products: products, notifier: notifier}

	updated, err := ledger.Decrement(context.Background(), models.Product{ID: id, Name: "Latte", Stock: 9}, 2)
	if err != nil {
		t.Fatalf("expected decrement to succeed, got %v", err)
	}
	if updated.Stock != 7 {
		t.Fatalf("expected post-update stock 7, got %d", updated.Stock)
	}
	if products.updateFilter["_id"] != id {
		t.Fatalf("expected conditional update by _id, got filter %v", products.updateFilter)
	}
	if len(notifier.events) != 1 {
		t.Fatalf("expected one stock event, got %d", len(notifier.events))
	}
	event := notifier.events[0]
	if event.OldStock != 9 || event.NewStock != 7 || event.Delta != -2 {
		t.Fatalf("unexpected event %+v", event)
	}
}

func TestDecrementDurableMissIsInsufficientStock(t *testing.T) {
	products := &fakeProducts{updateResult: resultNoDocuments()}
	notifier := &recordingNotifier{}
	ledger := &Ledger{products: products, notifier: notifier}

	product := models.Product{ID: primitive.NewObjectID(), Name: "Latte", Stock: 1}
	_, err := ledger.Decrement(context.Background(), product, 5)

	var stockErr InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if stockErr.ProductName != "Latte" || stockErr.Requested != 5 {
		t.Fatalf("unexpected error detail %+v", stockErr)
	}
	if len(notifier.events) != 0 {
		t.Fatalf("expected no event on refused decrement, got %d", len(notifier.events))
	}
	if products.findCalls != 0 {
		t.Fatal("durable miss must not trigger a by-name lookup")
	}
}

func TestDecrementFallbackWithoutCounterpartIsSkipped(t *testing.T) {
	products := &fakeProducts{
		updateResult: resultNoDocuments(),
		findResult:   resultNoDocuments(),
	}
	notifier := &recordingNotifier{}
	ledger := &Ledger{products: products, notifier: notifier}

	fallback := models.Product{Name: "Seasonal Special", Stock: 99, Fallback: true}
	got, err := ledger.Decrement(context.Background(), fallback, 1)
	if err != nil {
		t.Fatalf("expected skipped decrement, got %v", err)
	}
	if got.Name != "Seasonal Special" {
		t.Fatalf("expected the input product back, got %+v", got)
	}
	if products.updateFilter["name"] != "Seasonal Special" {
		t.Fatalf("expected by-name conditional update, got filter %v", products.updateFilter)
	}
	if products.findFilter["name"] != "Seasonal Special" {
		t.Fatalf("expected by-name reconciliation lookup, got filter %v", products.findFilter)
	}
	if len(notifier.events) != 0 {
		t.Fatalf("expected no event on skipped decrement, got %d", len(notifier.events))
	}
}

func TestDecrementFallbackWithDurableCounterpartIsShortage(t *testing.T) {
	products := &fakeProducts{
		updateResult: resultNoDocuments(),
		findResult:   resultWith(models.Product{ID: primitive.NewObjectID(), Name: "Latte", Stock: 1}),
	}
	ledger := &Ledger{products: products, notifier: &recordingNotifier{}}

	_, err := ledger.Decrement(context.Background(), models.Product{Name: "Latte", Fallback: true}, 5)

	var stockErr InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError when a durable counterpart exists, got %v", err)
	}
}

func TestIncrementEmitsRestockEvent(t *testing.T) {
	id := primitive.NewObjectID()
	products := &fakeProducts{
		updateResult: resultWith(models.Product{ID: id, Name: "Mocha", Stock: 12}),
	}
	notifier := &recordingNotifier{}
	ledger := &Ledger{products: products, notifier: notifier}

	updated, err := ledger.Increment(context.Background(), id, 4)
	if err != nil {
		t.Fatalf("expected restock to succeed, got %v", err)
	}
	if updated.Stock != 12 {
		t.Fatalf("expected post-restock stock 12, got %d", updated.Stock)
	}
	if len(notifier.events) != 1 {
		t.Fatalf("expected one stock event, got %d", len(notifier.events))
	}
	event := notifier.events[0]
	if event.Direction != notify.DirectionIn || event.Delta != 4 {
		t.Fatalf("unexpected event %+v", event)
	}
	if event.OldStock != 8 || event.NewStock != 12 {
		t.Fatalf("expected stock 8 -> 12, got %d -> %d", event.OldStock, event.NewStock)
	}
}

func TestIncrementUnknownProduct(t *testing.T) {
	ledger := &Ledger{
		products: &fakeProducts{updateResult: resultNoDocuments()},
		notifier: &recordingNotifier{},
	}

	_, err := ledger.Increment(context.Background(), primitive.NewObjectID(), 3)
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"coffeeshop/internal/config"
	"coffeeshop/internal/metrics"
	"coffeeshop/internal/models"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrNotCompleted guards deletion: only terminal-success orders may go.
	ErrNotCompleted = errors.New("order is not completed")
)

// Writer abstracts the durable insert so the retry machinery can be tested
// without a live database.
type Writer interface {
	Insert(ctx context.Context, order models.Order) (primitive.ObjectID, error)
}

type mongoWriter struct {
	db *mongo.Database
}

func (w mongoWriter) Insert(ctx context.Context, order models.Order) (primitive.ObjectID, error) {
	res, err := w.db.Collection("orders").InsertOne(ctx, order)
	if err != nil {
		return primitive.NilObjectID, err
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return id, nil
}

// Store persists orders without ever failing the customer-facing checkout.
// In fast mode every write is deferred; in safe mode a few synchronous
// attempts run first.
type Store struct {
	db      *mongo.Database
	writer  Writer
	mode    string
	metrics *metrics.StoreMetrics

	background RetryPolicy
	sync       RetryPolicy
}

func NewStore(db *mongo.Database, mode string, m *metrics.StoreMetrics) *Store {
	return &Store{
		db:         db,
		writer:     mongoWriter{db: db},
		mode:       mode,
		metrics:    m,
		background: backgroundRetry,
		sync:       synchronousRetry,
	}
}

// Persist writes the order durably when it can, and otherwise answers with
// a synthetic placeholder while a detached retry loop keeps trying. The
// caller is never blocked on store health.
func (s *Store) Persist(ctx context.Context, order models.Order) (models.Order, error) {
	now := time.Now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	if s.mode == config.ModeSafe {
		var id primitive.ObjectID
		err := s.sync.Run(ctx, func() error {
			insertCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			var insertErr error
			id, insertErr = s.writer.Insert(insertCtx, order)
			return insertErr
		})
		if err == nil {
			order.ID = id
			s.metrics.Persisted.Inc()
			return order, nil
		}
		log.Printf("[ORDER] [WARN] synchronous persist failed, deferring: %v", err)
	}

	return s.deferPersist(order), nil
}

// deferPersist hands the order to a detached background loop and returns a
// synthetic record immediately.
func (s *Store) deferPersist(order models.Order) models.Order {
	placeholder := "local-" + uuid.NewString()
	s.metrics.Deferred.Inc()

	go s.retryInsert(order, placeholder)

	order.Synthetic = true
	order.PlaceholderID = placeholder
	return order
}

// retryInsert runs detached from the originating request. It has its own
// context so it survives the request completing.
func (s *Store) retryInsert(order models.Order, placeholder string) {
	ctx := context.Background()

	err := s.background.Run(ctx, func() error {
		insertCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		_, insertErr := s.writer.Insert(insertCtx, order)
		return insertErr
	})
	if err != nil {
		// The order is lost past this point; surface it loudly for manual
		// remediation.
		s.metrics.Lost.Inc()
		log.Printf("[ORDER] [ERROR] order %s (placeholder %s) lost after %d attempts: %v",
			order.OrderNumber, placeholder, s.background.MaxAttempts, err)
		return
	}

	s.metrics.Persisted.Inc()
	log.Printf("[ORDER] [INFO] deferred order %s (placeholder %s) persisted", order.OrderNumber, placeholder)
}

func (s *Store) FindByOrderNumber(ctx context.Context, orderNumber string) (models.Order, error) {
	findCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var order models.Order
	err := s.db.Collection("orders").
		FindOne(findCtx, bson.M{"orderNumber": orderNumber}).
		Decode(&order)
	if err == mongo.ErrNoDocuments {
		return models.Order{}, ErrOrderNotFound
	}
	if err != nil {
		return models.Order{}, err
	}
	return order, nil
}

// MarkPaid transitions paymentStatus pending -> paid and writes the system
// annotation into notes. The filter on the current state makes repeated
// callbacks a no-op, and the update never touches specialRequest.
func (s *Store) MarkPaid(ctx context.Context, orderNumber, note string) (bool, error) {
	return s.transitionPayment(ctx, orderNumber, models.PaymentPaid, note)
}

// MarkFailed transitions paymentStatus pending -> failed without touching
// notes or specialRequest.
func (s *Store) MarkFailed(ctx context.Context, orderNumber string) (bool, error) {
	return s.transitionPayment(ctx, orderNumber, models.PaymentFailed, "")
}

func (s *Store) transitionPayment(ctx context.Context, orderNumber, target, note string) (bool, error) {
	updateCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	set := bson.M{
		"paymentStatus": target,
		"updatedAt":     time.Now(),
	}
	if note != "" {
		set["notes"] = note
	}

	res, err := s.db.Collection("orders").UpdateOne(updateCtx,
		bson.M{"orderNumber": orderNumber, "paymentStatus": models.PaymentPending},
		bson.M{"$set": set},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// UpdateStatus advances the fulfillment state. Staff-driven, independent of
// payment outcome.
func (s *Store) UpdateStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	updateCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := s.db.Collection("orders").UpdateOne(updateCtx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// Delete removes a completed order. Non-terminal orders are refused.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	deleteCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := s.db.Collection("orders").DeleteOne(deleteCtx, bson.M{
		"_id":    id,
		"status": models.StatusCompleted,
	})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		var order models.Order
		err := s.db.Collection("orders").FindOne(deleteCtx, bson.M{"_id": id}).Decode(&order)
		if err == mongo.ErrNoDocuments {
			return ErrOrderNotFound
		}
		if err != nil {
			return err
		}
		return ErrNotCompleted
	}
	return nil
}

// Recent returns the newest orders. A store outage degrades to an empty
// slice plus an error the caller can translate into a status indicator.
func (s *Store) Recent(ctx context.Context, limit int64) ([]models.Order, error) {
	findCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.db.Collection("orders").Find(findCtx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(findCtx)

	orders := make([]models.Order, 0)
	if err := cursor.All(findCtx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

package orders

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"coffeeshop/internal/config"
	"coffeeshop/internal/metrics"
	"coffeeshop/internal/models"
)

// Registered once per test binary; prometheus rejects duplicate collectors.
var storeTestMetrics = metrics.NewStoreMetrics()

type fakeWriter struct {
	mu           sync.Mutex
	failures     int
	attempts     int
	insertedDone chan struct{}
}

func newFakeWriter(failures int) *fakeWriter {
	return &fakeWriter{failures: failures, insertedDone: make(chan struct{})}
}

func (w *fakeWriter) Insert(ctx context.Context, order models.Order) (primitive.ObjectID, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.attempts++
	if w.attempts <= w.failures {
		return primitive.NilObjectID, errors.New("store unreachable")
	}
	close(w.insertedDone)
	return primitive.NewObjectID(), nil
}

func (w *fakeWriter) attemptCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.attempts
}

func testStore(writer Writer, mode string) *Store {
	return &Store{
		writer:     writer,
		mode:       mode,
		metrics:    storeTestMetrics,
		background: RetryPolicy{MaxAttempts: 5, Initial: time.Millisecond, Cap: 4 * time.Millisecond, Exponential: true},
		sync:       RetryPolicy{MaxAttempts: 3, Initial: time.Millisecond},
	}
}

func TestSafeModePersistsSynchronously(t *testing.T) {
	writer := newFakeWriter(0)
	store := testStore(writer, config.ModeSafe)

	order, err := store.Persist(context.Background(), models.Order{OrderNumber: "C1"})
	if err != nil {
		t.Fatalf("Persist returned error: %v", err)
	}
	if order.Synthetic {
		t.Fatal("expected a durable order, got a synthetic one")
	}
	if order.ID.IsZero() {
		t.Fatal("expected assigned order id")
	}
	if order.CreatedAt.IsZero() || order.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}
}

func TestSafeModeRetriesThenSucceeds(t *testing.T) {
	writer := newFakeWriter(2)
	store := testStore(writer, config.ModeSafe)

	order, err := store.Persist(context.Background(), models.Order{OrderNumber: "C2"})
	if err != nil {
		t.Fatalf("Persist returned error: %v", err)
	}
	if order.Synthetic {
		t.Fatal("expected synchronous retries to succeed")
	}
	if got := writer.attemptCount(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestSafeModeFallsBackToDeferredPersist(t *testing.T) {
	writer := newFakeWriter(4)
	store := testStore(writer, config.ModeSafe)

	order, err := store.Persist(context.Background(), models.Order{OrderNumber: "C3"})
	if err != nil {
		t.Fatalf("Persist must not fail the checkout: %v", err)
	}
	if !order.Synthetic {
		t.Fatal("expected a synthetic order after synchronous budget ran out")
	}
	if !strings.HasPrefix(order.PlaceholderID, "local-") {
		t.Fatalf("expected local placeholder id, got %q", order.PlaceholderID)
	}

	select {
	case <-writer.insertedDone:
	case <-time.After(2 * time.Second):
		t.Fatal("background retry never persisted the order")
	}
}

func TestFastModeAnswersImmediatelyAndPersistsInBackground(t *testing.T) {
	writer := newFakeWriter(1)
	store := testStore(writer, config.ModeFast)

	start := time.Now()
	order, err := store.Persist(context.Background(), models.Order{OrderNumber: "C4"})
	if err != nil {
		t.Fatalf("Persist returned error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("fast mode answered in %v, must not block on the store", elapsed)
	}
	if !order.Synthetic || order.PlaceholderID == "" {
		t.Fatalf("expected synthetic placeholder order, got %+v", order)
	}

	select {
	case <-writer.insertedDone:
	case <-time.After(2 * time.Second):
		t.Fatal("background retry never persisted the order")
	}
}

func TestBackgroundRetryGivesUpAndCountsLoss(t *testing.T) {
	writer := newFakeWriter(1000)
	store := testStore(writer, config.ModeFast)

	lostBefore := testutil.ToFloat64(storeTestMetrics.Lost)

	if _, err := store.Persist(context.Background(), models.Order{OrderNumber: "C5"}); err != nil {
		t.Fatalf("Persist returned error: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		if testutil.ToFloat64(storeTestMetrics.Lost) > lostBefore {
			break
		}
		select {
		case <-deadline:
			t.Fatal("lost order was never counted")
		case <-time.After(5 * time.Millisecond):
		}
	}
	if got := writer.attemptCount(); got != store.background.MaxAttempts {
		t.Fatalf("expected %d background attempts, got %d", store.background.MaxAttempts, got)
	}
}

package catalog

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"coffeeshop/internal/config"
	"coffeeshop/internal/models"
)

// ErrProductNotFound means neither the durable store nor the snapshot holds
// the base name. Fatal to order assembly, never retried.
var ErrProductNotFound = errors.New("product not found")

// Store abstracts the durable product lookup so resolver behavior can be
// tested against slow or failing backends.
type Store interface {
	FindByName(ctx context.Context, name string) (models.Product, error)
}

// MongoStore reads products from the durable catalog collection.
type MongoStore struct {
	DB *mongo.Database
}

func (s *MongoStore) FindByName(ctx context.Context, name string) (models.Product, error) {
	var product models.Product
	err := s.DB.Collection("products").FindOne(ctx, bson.M{"name": name}).Decode(&product)
	if err == mongo.ErrNoDocuments {
		return models.Product{}, ErrProductNotFound
	}
	if err != nil {
		return models.Product{}, err
	}
	return product, nil
}

// Resolver maps raw line-item names to catalog products. The mode decides
// whether the snapshot or the durable store is consulted first.
type Resolver struct {
	store    Store
	cache    *Cache
	snapshot *Snapshot
	mode     string
	timeout  time.Duration
}

func NewResolver(store Store, cache *Cache, snapshot *Snapshot, mode string, timeout time.Duration) *Resolver {
	return &Resolver{
		store:    store,
		cache:    cache,
		snapshot: snapshot,
		mode:     mode,
		timeout:  timeout,
	}
}

// BaseName strips customization text from a raw line-item name: anything in
// parentheses (half or full width) and anything after a "+".
func BaseName(raw string) string {
	name := raw
	for _, sep := range []string{"(", "（", "+"} {
		if idx := strings.Index(name, sep); idx >= 0 {
			name = name[:idx]
		}
	}
	return strings.TrimSpace(name)
}

// Resolve returns the catalog product for a raw line-item name. In fast
// mode a slow store is replaced by a generic fallback record so checkout is
// never blocked on a cold read; in safe mode the snapshot only covers store
// failures.
func (r *Resolver) Resolve(ctx context.Context, rawName string) (models.Product, error) {
	base := BaseName(rawName)
	if base == "" {
		return models.Product{}, ErrProductNotFound
	}

	if cached, ok := r.cache.Get(base); ok {
		return cached, nil
	}

	if r.mode == config.ModeFast {
		return r.resolveFast(ctx, base)
	}
	return r.resolveSafe(ctx, base)
}

func (r *Resolver) resolveFast(ctx context.Context, base string) (models.Product, error) {
	if p, ok := r.snapshot.Get(base); ok {
		return p, nil
	}

	p, err := r.lookupStore(ctx, base)
	if err == ErrProductNotFound {
		return models.Product{}, ErrProductNotFound
	}
	if err != nil {
		log.Printf("[CATALOG] [WARN] store lookup for %q failed, using generic fallback: %v", base, err)
		return genericFallback(base), nil
	}
	return p, nil
}

func (r *Resolver) resolveSafe(ctx context.Context, base string) (models.Product, error) {
	p, err := r.lookupStore(ctx, base)
	if err == nil {
		return p, nil
	}
	if err != ErrProductNotFound {
		log.Printf("[CATALOG] [WARN] store lookup for %q failed, trying snapshot: %v", base, err)
	}

	if snap, ok := r.snapshot.Get(base); ok {
		return snap, nil
	}
	return models.Product{}, ErrProductNotFound
}

func (r *Resolver) lookupStore(ctx context.Context, base string) (models.Product, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	p, err := r.store.FindByName(lookupCtx, base)
	if err != nil {
		return models.Product{}, err
	}

	r.cache.Set(base, p)
	return p, nil
}

// genericFallback synthesizes a sellable record so a slow store does not
// block checkout. It has no durable identity; the stock ledger reconciles
// it by name later.
func genericFallback(base string) models.Product {
	return models.Product{
		Name:        base,
		Stock:       99,
		IsAvailable: true,
		Fallback:    true,
	}
}

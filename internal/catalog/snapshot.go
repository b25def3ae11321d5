package catalog

import "coffeeshop/internal/models"

// Snapshot is a static in-process catalog used when the durable store is
// slow or unreachable. Prices mirror the deployed menu; stock values are
// nominal and only gate availability checks, the ledger still reconciles
// against the durable store by name.
type Snapshot struct {
	byName map[string]models.Product
}

func NewSnapshot(products []models.Product) *Snapshot {
	byName := make(map[string]models.Product, len(products))
	for _, p := range products {
		p.Fallback = true
		byName[p.Name] = p
	}
	return &Snapshot{byName: byName}
}

func (s *Snapshot) Get(name string) (models.Product, bool) {
	p, ok := s.byName[name]
	return p, ok
}

// DefaultSnapshot returns the built-in menu snapshot.
func DefaultSnapshot() *Snapshot {
	return NewSnapshot([]models.Product{
		{Name: "Americano", Price: 45, Stock: 100, IsAvailable: true, Category: "coffee"},
		{Name: "Latte", Price: 55, Stock: 100, IsAvailable: true, Category: "coffee"},
		{Name: "Cappuccino", Price: 55, Stock: 100, IsAvailable: true, Category: "coffee"},
		{Name: "Mocha", Price: 60, Stock: 100, IsAvailable: true, Category: "coffee"},
		{Name: "Espresso", Price: 40, Stock: 100, IsAvailable: true, Category: "coffee"},
		{Name: "Black Tea", Price: 35, Stock: 100, IsAvailable: true, Category: "tea"},
		{Name: "Green Tea", Price: 35, Stock: 100, IsAvailable: true, Category: "tea"},
		{Name: "Cheesecake", Price: 80, Stock: 30, IsAvailable: true, Category: "dessert"},
		{Name: "Croissant", Price: 50, Stock: 30, IsAvailable: true, Category: "bakery"},
	})
}

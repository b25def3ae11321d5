package notify

import "log"

// StockChange is the event fanned out to observers after every successful
// stock mutation. Delivery is best-effort, no guarantee.
type StockChange struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	OldStock    int    `json:"oldStock"`
	NewStock    int    `json:"newStock"`
	Delta       int    `json:"delta"`
	Direction   string `json:"direction"`
}

const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// Notifier fans a stock change out to whoever is listening. Implementations
// must not block the caller for long and must swallow their own failures.
type Notifier interface {
	StockChanged(event StockChange)
}

// LogNotifier writes events to the server log. Used when no broker is
// configured.
type LogNotifier struct{}

func (LogNotifier) StockChanged(event StockChange) {
	log.Printf("[STOCK] [INFO] %s %s: %d -> %d (delta %d)",
		event.ProductName, event.Direction, event.OldStock, event.NewStock, event.Delta)
}

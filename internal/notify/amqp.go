package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const stockExchange = "stock_changes_fanout"

// AMQPNotifier publishes stock-change events to a fanout exchange so the
// admin dashboard and other observers can subscribe without coupling to
// this process.
type AMQPNotifier struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
}

func NewAMQPNotifier(url string) (*AMQPNotifier, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := channel.ExchangeDeclare(stockExchange, "fanout", false, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	return &AMQPNotifier{conn: conn, channel: channel}, nil
}

// StockChanged publishes the event fire-and-forget; broker errors are
// logged and swallowed.
func (n *AMQPNotifier) StockChanged(event StockChange) {
	body, err := json.Marshal(event)
	if err != nil {
		log.Println("[STOCK] [ERROR] event marshal failed:", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err = n.channel.PublishWithContext(ctx, stockExchange, "", false, false, amqp091.Publishing{
		ContentType: "application/json",
		Timestamp:   time.Now(),
		Body:        body,
	})
	if err != nil {
		log.Println("[STOCK] [ERROR] event publish failed:", err)
	}
}

func (n *AMQPNotifier) Close() {
	if n.channel != nil {
		n.channel.Close()
	}
	if n.conn != nil {
		n.conn.Close()
	}
}

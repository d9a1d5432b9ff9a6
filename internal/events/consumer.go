package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
)

// readErrorBackoff is how long the consumer sits out after a failed read so a
// broker outage does not turn the loop into a busy spin.
const readErrorBackoff = time.Second

// CartClearer is what the consumer needs from the cart side.
type CartClearer interface {
	ClearCart(ctx context.Context, userID string) error
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer drains checkout-completed events and empties the paying user's
// cart. Kept separate from the request path so a kafka outage never blocks
// checkout itself.
type Consumer struct {
	reader  messageReader
	backoff time.Duration
	clearer CartClearer
}

func NewConsumer(clearer CartClearer, brokers ...string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    Topic,
		GroupID:  "storefront-cart-clear",
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader, backoff: readErrorBackoff, clearer: clearer}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.consumeOne(ctx)
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		log.WithError(err).Error("error closing kafka reader")
	}
}

func (c *Consumer) consumeOne(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.WithError(err).Error("error reading checkout-completed message")
			select {
			case <-ctx.Done():
			case <-time.After(c.backoff):
			}
		}
		return
	}
	c.handleMessage(ctx, m.Value)
}

func (c *Consumer) handleMessage(ctx context.Context, value []byte) {
	var evt OrderPaidEvent
	if err := json.Unmarshal(value, &evt); err != nil {
		log.WithError(err).Error("error parsing checkout-completed message")
		return
	}
	if evt.UserID == "" {
		log.Warn("checkout-completed message missing user_id")
		return
	}

	if err := c.clearer.ClearCart(ctx, evt.UserID); err != nil {
		log.WithError(err).WithField("user_id", evt.UserID).Error("failed to clear cart after payment")
	}
}

package kafka

import (
	"context"       // carries cancellation into the broker write
	"encoding/json" // events travel as JSON
	"time"          // batch timeout

	"github.com/segmentio/kafka-go" // Kafka client

	interfaces "github.com/sheikh-saqib/org-finance-ledger/internal/interfaces" // interface EventPublisher
)

// MessageWriter is the part of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher sends ledger events to Kafka.
type Publisher struct {
	writer MessageWriter // usually a *kafka.Writer, a fake in tests
}

// NewPublisher writes to brokers. The topic comes from each Publish call, so the
// writer itself has none.
func NewPublisher(brokers []string) *Publisher {
	return NewPublisherWithWriter(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},         // same key, same partition
		RequiredAcks:           kafka.RequireAll,      // wait for every in-sync replica
		AllowAutoTopicCreation: true,                  // topics appear on first publish
		BatchTimeout:           10 * time.Millisecond, // flush single events quickly
	})
}

func NewPublisherWithWriter(w MessageWriter) *Publisher {
	return &Publisher{writer: w}
}

// Publish sends event as JSON. Messages sharing a key land on the same partition,
// which keeps the per-key order the ledger committed them in.
func (p *Publisher) Publish(ctx context.Context, topic string, key string, event any) error {
	data, err := json.Marshal(event) // encode the event payload
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,       // one topic per event type
		Key:   []byte(key), // record index or admin address
		Value: data,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
		},
	})
}

// Close flushes pending messages and releases the connection.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// Compile-time check: Publisher implements EventPublisher
var _ interfaces.EventPublisher = (*Publisher)(nil)

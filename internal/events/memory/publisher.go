package memory

import (
	"context" // request-scoped context passed through from the ledger
	"sync"    // mutex guarding the retained messages

	"go.uber.org/zap" // structured logging of every event

	interfaces "github.com/sheikh-saqib/org-finance-ledger/internal/interfaces" // interface EventPublisher
)

// DefaultRetention is how many recent messages a Publisher keeps when no other
// limit is given.
const DefaultRetention = 1024

type Message struct {
	Topic string
	Key   string
	Event any
}

// Publisher logs every event and keeps only the most recent ones in memory.
// It is the default when no brokers are configured, so its buffer is bounded.
type Publisher struct {
	mu        sync.Mutex  // protects messages and dropped
	messages  []Message   // ring of retained messages, oldest first once full
	start     int         // position of the oldest message once the ring is full
	retention int         // maximum number of retained messages
	dropped   int         // messages evicted to stay within retention
	logger    *zap.Logger // receives one entry per published event
}

type Option func(*Publisher)

// WithRetention caps how many messages are kept. Values below 1 are ignored.
func WithRetention(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.retention = n
		}
	}
}

// NewPublisher creates a Publisher; a nil logger discards the event log.
func NewPublisher(logger *zap.Logger, opts ...Option) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Publisher{logger: logger, retention: DefaultRetention}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish records the event and never fails.
func (p *Publisher) Publish(ctx context.Context, topic string, key string, event any) error {
	p.mu.Lock()         // serialize with other publishers and readers
	defer p.mu.Unlock() // released even if logging panics

	msg := Message{Topic: topic, Key: key, Event: event}
	if len(p.messages) < p.retention {
		p.messages = append(p.messages, msg) // still room, grow the ring
	} else {
		p.messages[p.start] = msg // overwrite the oldest message
		p.start = (p.start + 1) % p.retention
		p.dropped++
	}

	p.logger.Info("ledger event", zap.String("topic", topic), zap.String("key", key), zap.Any("event", event))
	return nil
}

// Messages returns a copy of the retained messages, oldest first.
func (p *Publisher) Messages() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Message, 0, len(p.messages))
	out = append(out, p.messages[p.start:]...) // oldest part of the ring
	out = append(out, p.messages[:p.start]...) // wrapped-around newest part
	return out
}

// Dropped reports how many messages were evicted to stay within retention.
func (p *Publisher) Dropped() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}

// Compile-time check: Publisher implements EventPublisher
var _ interfaces.EventPublisher = (*Publisher)(nil)

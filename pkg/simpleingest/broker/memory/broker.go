// Package memory provides an in-memory simpleingest.Broker for tests and
// development.
package memory

import (
	"context"
	"sync"

	"github.com/tendant/simple-ingest/pkg/simpleingest"
)

// Message is one published record.
type Message struct {
	Topic   string
	Key     string
	Payload []byte
}

// Broker implements simpleingest.Broker by recording messages per topic.
type Broker struct {
	mu       sync.RWMutex
	messages map[string][]Message

	// FailNext makes the next n publishes fail with ErrBrokerUnavailable
	// (tests).
	failNext int
}

// New creates a new in-memory broker.
func New() *Broker {
	return &Broker{messages: make(map[string][]Message)}
}

func (b *Broker) Publish(ctx context.Context, topic, key string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failNext > 0 {
		b.failNext--
		return simpleingest.ErrBrokerUnavailable
	}

	buf := make([]byte, len(payload))
	copy(buf, payload)
	b.messages[topic] = append(b.messages[topic], Message{Topic: topic, Key: key, Payload: buf})
	return nil
}

// Messages returns all records published to a topic, in order.
func (b *Broker) Messages(topic string) []Message {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Message, len(b.messages[topic]))
	copy(out, b.messages[topic])
	return out
}

// FailNext makes the next n publishes fail (tests).
func (b *Broker) FailNext(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failNext = n
}

var _ simpleingest.Broker = (*Broker)(nil)

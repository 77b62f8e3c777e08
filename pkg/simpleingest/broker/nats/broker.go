// Package nats provides a JetStream-backed simpleingest.Broker. Each logical
// topic maps to a subject; the partition key travels as a message header so
// consumers can shard without re-parsing payloads.
package nats

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/tendant/simple-ingest/pkg/simpleingest"
)

// KeyHeader carries the publish key on each message.
const KeyHeader = "Ingest-Key"

// Broker implements simpleingest.Broker over NATS JetStream.
type Broker struct {
	nc *nats.Conn
	js jetstream.JetStream
}

// New connects to the NATS server at url and prepares a JetStream context.
func New(url string, opts ...nats.Option) (*Broker, error) {
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create jetstream context: %w", err)
	}
	return &Broker{nc: nc, js: js}, nil
}

func (b *Broker) Publish(ctx context.Context, topic, key string, payload []byte) error {
	msg := &nats.Msg{
		Subject: topic,
		Data:    payload,
		Header:  nats.Header{KeyHeader: []string{key}},
	}

	if _, err := b.js.PublishMsg(ctx, msg); err != nil {
		if errors.Is(err, nats.ErrAuthorization) {
			return &simpleingest.NonRetryableError{Err: err}
		}
		return fmt.Errorf("jetstream publish to %s: %w", topic, err)
	}
	return nil
}

// Close drains the underlying connection.
func (b *Broker) Close() error {
	return b.nc.Drain()
}

var _ simpleingest.Broker = (*Broker)(nil)

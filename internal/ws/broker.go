package ws

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

// Broker carries hub envelopes between server instances
type Broker interface {
	Publish(ctx context.Context, data []byte) error
	// Subscribe calls handler for every envelope until ctx is done
	Subscribe(ctx context.Context, handler func([]byte)) error
	Close() error
}

// RedisBroker fans out over a redis pub/sub channel
type RedisBroker struct {
	client  *redis.Client
	channel string
}

// NewRedisBroker creates a Broker on a redis channel
func NewRedisBroker(client *redis.Client, channel string) *RedisBroker {
	return &RedisBroker{client: client, channel: channel}
}

func (b *RedisBroker) Publish(ctx context.Context, data []byte) error {
	return b.client.Publish(ctx, b.channel, data).Err()
}

func (b *RedisBroker) Subscribe(ctx context.Context, handler func([]byte)) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	// wait for the subscription to be confirmed
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe: %w", err)
	}

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			handler([]byte(msg.Payload))
		case <-ctx.Done():
			return nil
		}
	}
}

// Close is a no-op; the redis client is owned by the caller
func (b *RedisBroker) Close() error {
	return nil
}

// NATSBroker fans out over a core NATS subject
type NATSBroker struct {
	nc      *nats.Conn
	subject string
}

// NewNATSBroker connects to url and publishes on subject
func NewNATSBroker(url, subject string) (*NATSBroker, error) {
	nc, err := nats.Connect(url, nats.Name("blackbox-backend"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSBroker{nc: nc, subject: subject}, nil
}

func (b *NATSBroker) Publish(_ context.Context, data []byte) error {
	return b.nc.Publish(b.subject, data)
}

func (b *NATSBroker) Subscribe(ctx context.Context, handler func([]byte)) error {
	sub, err := b.nc.Subscribe(b.subject, func(m *nats.Msg) {
		handler(m.Data)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe to '%s': %w", b.subject, err)
	}
	defer sub.Unsubscribe() //nolint:errcheck

	<-ctx.Done()
	return nil
}

func (b *NATSBroker) Close() error {
	b.nc.Close()
	return nil
}

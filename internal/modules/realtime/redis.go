package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const channelPrefix = "classhub:room:"

// RedisBroker relays events through redis pub/sub so every server instance sees them.
type RedisBroker struct {
	client *redis.Client
}

func NewRedisBroker(client *redis.Client) *RedisBroker {
	return &RedisBroker{client: client}
}

// NewBroker picks redis when a client is available and the in-process hub otherwise.
func NewBroker(client *redis.Client) Broker {
	if client != nil {
		return NewRedisBroker(client)
	}
	return NewMemoryBroker()
}

func (b *RedisBroker) Publish(ctx context.Context, room string, event Event) error {
	event.Room = room
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, channelPrefix+room, data).Err()
}

func (b *RedisBroker) Subscribe(ctx context.Context, room string) (*Subscription, error) {
	pubsub := b.client.Subscribe(ctx, channelPrefix+room)

	// Wait for confirmation that subscription is created
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", room, err)
	}

	out := make(chan []byte, subscriptionBuffer)
	done := make(chan struct{})
	in := pubsub.Channel()

	go func() {
		defer close(out)
		for {
			select {
			case msg, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				default:
				}
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	sub := &Subscription{C: out}
	sub.closeFn = func() {
		close(done)
		_ = pubsub.Close()
	}
	return sub, nil
}

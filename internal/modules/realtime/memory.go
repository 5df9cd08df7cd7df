package realtime

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryBroker fans events out inside a single process.
type MemoryBroker struct {
	mu    sync.RWMutex
	rooms map[string]map[chan []byte]struct{}
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{rooms: make(map[string]map[chan []byte]struct{})}
}

func (b *MemoryBroker) Publish(ctx context.Context, room string, event Event) error {
	event.Room = room
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.rooms[room] {
		select {
		case ch <- data:
		default:
			// slow subscriber, drop
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, room string) (*Subscription, error) {
	ch := make(chan []byte, subscriptionBuffer)
	done := make(chan struct{})

	b.mu.Lock()
	if b.rooms[room] == nil {
		b.rooms[room] = make(map[chan []byte]struct{})
	}
	b.rooms[room][ch] = struct{}{}
	b.mu.Unlock()

	sub := &Subscription{C: ch}
	sub.closeFn = func() {
		close(done)
		b.mu.Lock()
		delete(b.rooms[room], ch)
		if len(b.rooms[room]) == 0 {
			delete(b.rooms, room)
		}
		close(ch)
		b.mu.Unlock()
	}

	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-done:
		}
	}()

	return sub, nil
}

// Subscribers returns the number of live subscriptions to room.
func (b *MemoryBroker) Subscribers(room string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.rooms[room])
}

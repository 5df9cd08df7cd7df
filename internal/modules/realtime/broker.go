// Package realtime delivers events to live websocket connections. Delivery is best effort;
// clients reconcile through the fetch-since endpoints.
package realtime

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"
)

const (
	EventMessageCreated = "message.created"
	EventUnreadUpdated  = "unread.updated"
	EventChatCreated    = "chat.created"
	EventPollCreated    = "poll.created"
	EventPollVoted      = "poll.voted"
	EventPostCreated    = "post.created"
)

// subscriber buffer; a full buffer drops events for that subscriber.
const subscriptionBuffer = 32

type Event struct {
	Type    string `json:"type"`
	Room    string `json:"room"`
	Payload any    `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, room string, event Event) error
}

type Broker interface {
	Publisher
	// Subscribe returns a subscription that receives the JSON encoding of every event
	// published to room until Close is called or ctx is done.
	Subscribe(ctx context.Context, room string) (*Subscription, error)
}

type Subscription struct {
	C <-chan []byte

	once    sync.Once
	closeFn func()
}

func (s *Subscription) Close() {
	s.once.Do(s.closeFn)
}

// DirectRoom is symmetric in its arguments.
func DirectRoom(a, b uuid.UUID) string {
	x, y := a.String(), b.String()
	if y < x {
		x, y = y, x
	}
	return "dm_" + x + "_" + y
}

func ClassRoomRoom(classroomID uuid.UUID) string {
	return "class_" + classroomID.String()
}

func UserRoom(userID uuid.UUID) string {
	return "user_" + userID.String()
}

// Notify publishes and logs failures. A nil publisher is a no-op.
func Notify(ctx context.Context, pub Publisher, room, eventType string, payload any) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, room, Event{Type: eventType, Payload: payload}); err != nil {
		log.Printf("realtime: failed to publish %s to %s: %v", eventType, room, err)
	}
}

package message

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"anoa.com/classhub/internal/entity"
	messageRepo "anoa.com/classhub/internal/modules/message/repository"
	"anoa.com/classhub/internal/modules/realtime"
	userRepo "anoa.com/classhub/internal/modules/user/repository"
	"anoa.com/classhub/internal/testutil"
	"anoa.com/classhub/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, room string, event realtime.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	event.Room = room
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) rooms() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var rooms []string
	for _, ev := range p.events {
		rooms = append(rooms, ev.Type+"@"+ev.Room)
	}
	return rooms
}

type fixture struct {
	db  *gorm.DB
	svc Service
	pub *recordingPublisher
	a   *entity.User
	b   *entity.User
}

func setup(t *testing.T) *fixture {
	db := testutil.NewTestDB(t)
	pub := &recordingPublisher{}
	svc := NewService(messageRepo.NewMessageRepository(db), userRepo.NewUserRepository(db), pub)
	return &fixture{
		db:  db,
		svc: svc,
		pub: pub,
		a:   testutil.CreateUser(t, db, "Alice", entity.RoleStudent),
		b:   testutil.CreateUser(t, db, "Bob", entity.RoleStudent),
	}
}

func TestSendDirectThenFetchSince(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	sent, err := f.svc.SendDirect(ctx, f.a.ID, f.b.ID, "  hi  ")
	require.NoError(t, err)
	assert.Equal(t, "hi", sent.Content)
	assert.NotEmpty(t, sent.Timestamp)

	msgs, err := f.svc.FetchSince(ctx, f.a.ID, f.b.ID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.False(t, msgs[0].IsRead)
	assert.Equal(t, f.a.ID, msgs[0].SenderID)
	assert.Equal(t, f.b.ID, msgs[0].ReceiverID)

	// same conversation from the other side
	msgs, err = f.svc.FetchSince(ctx, f.b.ID, f.a.ID, 0)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)

	assert.Equal(t, []string{
		realtime.EventMessageCreated + "@" + realtime.DirectRoom(f.a.ID, f.b.ID),
		realtime.EventUnreadUpdated + "@" + realtime.UserRoom(f.b.ID),
	}, f.pub.rooms())
}

func TestSendDirectValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.SendDirect(ctx, f.a.ID, f.b.ID, "   ")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = f.svc.SendDirect(ctx, f.a.ID, f.a.ID, "me")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = f.svc.SendDirect(ctx, f.a.ID, uuid.New(), "hello?")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	assert.Empty(t, f.pub.rooms())
}

func TestUnknownPartner(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	ghost := uuid.New()

	_, err := f.svc.FetchSince(ctx, f.a.ID, ghost, 0)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = f.svc.FetchConversation(ctx, f.a.ID, ghost, 0)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = f.svc.MarkRead(ctx, f.a.ID, ghost)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	assert.Empty(t, f.pub.rooms())
}

func TestMarkReadDecrementsAndIsIdempotent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.SendDirect(ctx, f.a.ID, f.b.ID, "hi")
	require.NoError(t, err)

	before, err := f.svc.UnreadSummary(ctx, f.b.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, before.Total)
	assert.EqualValues(t, 1, before.PerSender[f.a.ID.String()])

	remaining, err := f.svc.MarkRead(ctx, f.b.ID, f.a.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, remaining)

	after, err := f.svc.UnreadSummary(ctx, f.b.ID)
	require.NoError(t, err)
	assert.Equal(t, before.Total-1, after.Total)

	msgs, err := f.svc.FetchSince(ctx, f.a.ID, f.b.ID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].IsRead)

	published := len(f.pub.rooms())
	remaining, err = f.svc.MarkRead(ctx, f.b.ID, f.a.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, remaining)
	assert.Len(t, f.pub.rooms(), published, "second mark read changes nothing")

	again, err := f.svc.FetchSince(ctx, f.a.ID, f.b.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, msgs, again)
}

func TestMarkReadOnlyTouchesOneSender(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := testutil.CreateUser(t, f.db, "Carol", entity.RoleTeacher)

	_, err := f.svc.SendDirect(ctx, f.a.ID, f.b.ID, "from alice")
	require.NoError(t, err)
	_, err = f.svc.SendDirect(ctx, c.ID, f.b.ID, "from carol")
	require.NoError(t, err)
	_, err = f.svc.SendDirect(ctx, c.ID, f.b.ID, "again")
	require.NoError(t, err)

	// the sender cannot clear the receiver's unread state
	remaining, err := f.svc.MarkRead(ctx, f.a.ID, f.b.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, remaining)

	remaining, err = f.svc.MarkRead(ctx, f.b.ID, c.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, remaining)

	summary, err := f.svc.UnreadSummary(ctx, f.b.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{f.a.ID.String(): 1}, summary.PerSender)
}

func TestFetchConversationWindow(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		from, to := f.a.ID, f.b.ID
		if i%2 == 1 {
			from, to = to, from
		}
		_, err := f.svc.SendDirect(ctx, from, to, fmt.Sprintf("m%d", i))
		require.NoError(t, err)
	}

	msgs, err := f.svc.FetchConversation(ctx, f.a.ID, f.b.ID, 3)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "m2", msgs[0].Content)
	assert.Equal(t, "m4", msgs[2].Content)
	assert.Less(t, msgs[0].ID, msgs[1].ID)

	all, err := f.svc.FetchConversation(ctx, f.b.ID, f.a.ID, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestFetchSinceCursor(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := testutil.CreateUser(t, f.db, "Carol", entity.RoleStudent)

	var ids []uint
	for i := 0; i < 6; i++ {
		m, err := f.svc.SendDirect(ctx, f.a.ID, f.b.ID, fmt.Sprintf("m%d", i))
		require.NoError(t, err)
		ids = append(ids, m.ID)
		// noise in another conversation
		_, err = f.svc.SendDirect(ctx, f.a.ID, c.ID, "other")
		require.NoError(t, err)
	}

	cursor := ids[2]
	msgs, err := f.svc.FetchSince(ctx, f.b.ID, f.a.ID, cursor)
	require.NoError(t, err)
	require.Len(t, msgs, 3)

	prev := cursor
	for _, m := range msgs {
		assert.Greater(t, m.ID, prev)
		prev = m.ID
	}
	assert.Equal(t, ids[3:], []uint{msgs[0].ID, msgs[1].ID, msgs[2].ID})

	empty, err := f.svc.FetchSince(ctx, f.a.ID, f.b.ID, ids[5])
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestOpenConversationMarksRead(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.SendDirect(ctx, f.a.ID, f.b.ID, "one")
	require.NoError(t, err)
	_, err = f.svc.SendDirect(ctx, f.b.ID, f.a.ID, "two")
	require.NoError(t, err)

	conv, err := f.svc.OpenConversation(ctx, f.b.ID, f.a.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, "Alice", conv.Partner.FirstName)
	assert.EqualValues(t, 0, conv.Unread)
	require.Len(t, conv.Messages, 2)
	assert.True(t, conv.Messages[0].IsRead)
	assert.False(t, conv.Messages[1].IsRead, "alice has not opened the conversation")

	aliceUnread, err := f.svc.UnreadSummary(ctx, f.a.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, aliceUnread.Total)

	_, err = f.svc.OpenConversation(ctx, f.b.ID, uuid.New(), 0)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestListContacts(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	testutil.CreateUser(t, f.db, "Zed", entity.RoleStudent)

	_, err := f.svc.SendDirect(ctx, f.b.ID, f.a.ID, "ping")
	require.NoError(t, err)

	contacts, err := f.svc.ListContacts(ctx, f.a.ID)
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	assert.Equal(t, "Bob", contacts[0].FirstName)
	assert.EqualValues(t, 1, contacts[0].Unread)
	assert.Equal(t, "Zed", contacts[1].FirstName)
	assert.EqualValues(t, 0, contacts[1].Unread)
}

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"anoa.com/classhub/internal/modules/realtime"
	"anoa.com/classhub/pkg/apperror"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAccess struct{ allowed uuid.UUID }

func (s stubAccess) CheckAccess(ctx context.Context, classroomID, userID uuid.UUID) error {
	if userID != s.allowed {
		return apperror.ErrAccessDenied
	}
	return nil
}

func setup(t *testing.T, userID, allowed uuid.UUID) (*realtime.MemoryBroker, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	broker := realtime.NewMemoryBroker()
	h := NewSocketServer(broker, stubAccess{allowed: allowed})

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", userID.String())
		c.Next()
	})
	r.GET("/ws/me", h.ServeMe)
	r.GET("/ws/messages/:user_id", h.ServeDirect)
	r.GET("/ws/classes/:class_id", h.ServeClass)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return broker, srv
}

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

func TestServeDirectForwardsEvents(t *testing.T) {
	me, partner := uuid.New(), uuid.New()
	broker, srv := setup(t, me, me)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/messages/"+partner.String()), nil)
	require.NoError(t, err)
	defer conn.Close()

	room := realtime.DirectRoom(partner, me)
	require.NoError(t, broker.Publish(context.Background(), room, realtime.Event{
		Type:    realtime.EventMessageCreated,
		Payload: map[string]any{"content": "hi"},
	}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev realtime.Event
	require.NoError(t, json.Unmarshal(data, &ev))
	assert.Equal(t, realtime.EventMessageCreated, ev.Type)
	assert.Equal(t, room, ev.Room)
}

func TestServeMeUnsubscribesOnDisconnect(t *testing.T) {
	me := uuid.New()
	broker, srv := setup(t, me, me)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/me"), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, broker.Subscribers(realtime.UserRoom(me)))

	conn.Close()
	assert.Eventually(t, func() bool {
		return broker.Subscribers(realtime.UserRoom(me)) == 0
	}, 2*time.Second, 20*time.Millisecond)
}

func TestServeClassRequiresAccess(t *testing.T) {
	me := uuid.New()
	_, srv := setup(t, me, uuid.New())

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/classes/"+uuid.NewString()), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestServeDirectRejectsBadID(t *testing.T) {
	me := uuid.New()
	_, srv := setup(t, me, me)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/messages/not-a-uuid"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

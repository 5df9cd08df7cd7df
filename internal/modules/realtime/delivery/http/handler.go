package handler

import (
	"context"
	"log"
	"net/http"

	"anoa.com/classhub/internal/modules/realtime"
	"anoa.com/classhub/pkg/apperror"
	"anoa.com/classhub/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ClassroomAccessChecker returns apperror.ErrAccessDenied or ErrNotFound when userID may not
// follow the classroom.
type ClassroomAccessChecker interface {
	CheckAccess(ctx context.Context, classroomID, userID uuid.UUID) error
}

type SocketServer struct {
	broker     realtime.Broker
	classrooms ClassroomAccessChecker
	upgrader   websocket.Upgrader
}

func NewSocketServer(broker realtime.Broker, classrooms ClassroomAccessChecker) *SocketServer {
	return &SocketServer{
		broker:     broker,
		classrooms: classrooms,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// ServeMe streams the caller's own room (unread counters).
func (h *SocketServer) ServeMe(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	h.ServeRoom(c, realtime.UserRoom(userID))
}

// ServeDirect streams the conversation between the caller and :user_id.
func (h *SocketServer) ServeDirect(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	partnerID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, "invalid user id", apperror.ErrValidation))
		return
	}

	h.ServeRoom(c, realtime.DirectRoom(userID, partnerID))
}

// ServeClass streams the chat, poll and post events of :class_id.
func (h *SocketServer) ServeClass(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	classID, err := uuid.Parse(c.Param("class_id"))
	if err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, "invalid class id", apperror.ErrValidation))
		return
	}

	if err := h.classrooms.CheckAccess(c.Request.Context(), classID, userID); err != nil {
		response.ResponseError(c, err)
		return
	}

	h.ServeRoom(c, realtime.ClassRoomRoom(classID))
}

// ServeRoom subscribes to room, upgrades the connection and forwards every event until the
// client goes away.
func (h *SocketServer) ServeRoom(c *gin.Context, room string) {
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// Subscribe before upgrading so nothing published after the handshake is missed.
	sub, err := h.broker.Subscribe(ctx, room)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	defer sub.Close()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade websocket: %v", err)
		return
	}
	defer conn.Close()

	clientClosed := make(chan struct{})
	go func() {
		defer close(clientClosed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-sub.C:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Printf("Failed to write message to websocket: %v", err)
				return
			}
		case <-clientClosed:
			return
		case <-ctx.Done():
			return
		}
	}
}

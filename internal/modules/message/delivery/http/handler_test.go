package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"anoa.com/classhub/internal/entity"
	"anoa.com/classhub/internal/modules/message/dto"
	messageRepo "anoa.com/classhub/internal/modules/message/repository"
	message "anoa.com/classhub/internal/modules/message/service"
	"anoa.com/classhub/internal/modules/realtime"
	userRepo "anoa.com/classhub/internal/modules/user/repository"
	"anoa.com/classhub/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T) (*gin.Engine, *entity.User, *entity.User) {
	gin.SetMode(gin.TestMode)
	db := testutil.NewTestDB(t)
	alice := testutil.CreateUser(t, db, "Alice", entity.RoleStudent)
	bob := testutil.CreateUser(t, db, "Bob", entity.RoleStudent)

	svc := message.NewService(messageRepo.NewMessageRepository(db), userRepo.NewUserRepository(db), realtime.NewMemoryBroker())
	h := NewMessageHandler(svc)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", c.GetHeader("X-Test-User"))
		c.Next()
	})
	r.GET("/messages/unread-summary", h.UnreadSummary)
	r.GET("/messages/:user_id", h.OpenConversation)
	r.POST("/messages/:user_id", h.Send)
	r.GET("/messages/:user_id/feed", h.Feed)
	r.POST("/messages/:user_id/read", h.MarkRead)
	return r, alice, bob
}

func call(r *gin.Engine, method, path string, as uuid.UUID, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User", as.String())
	r.ServeHTTP(w, req)
	return w
}

func TestMessageFlow(t *testing.T) {
	r, alice, bob := newRouter(t)

	w := call(r, http.MethodPost, "/messages/"+bob.ID.String(), alice.ID, `{"content":"hello bob"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = call(r, http.MethodGet, "/messages/unread-summary", bob.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	var summary dto.UnreadSummaryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.EqualValues(t, 1, summary.Total)

	w = call(r, http.MethodGet, "/messages/"+alice.ID.String()+"/feed?after=0", bob.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	var feed []dto.MessageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &feed))
	require.Len(t, feed, 1)
	assert.False(t, feed[0].IsRead)

	w = call(r, http.MethodPost, "/messages/"+alice.ID.String()+"/read", bob.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"unread":0}`, w.Body.String())
}

func TestMessageErrors(t *testing.T) {
	r, alice, bob := newRouter(t)

	w := call(r, http.MethodPost, "/messages/"+bob.ID.String(), alice.ID, `{"content":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = call(r, http.MethodPost, "/messages/"+bob.ID.String(), alice.ID, `{"content":"   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = call(r, http.MethodPost, "/messages/nope", alice.ID, `{"content":"hi"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	ghost := uuid.NewString()
	w = call(r, http.MethodGet, "/messages/"+ghost, alice.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = call(r, http.MethodGet, "/messages/"+ghost+"/feed", alice.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = call(r, http.MethodPost, "/messages/"+ghost+"/read", alice.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = call(r, http.MethodGet, "/messages/"+bob.ID.String()+"?limit=500", alice.ID, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

package handler

import (
	"net/http"

	"anoa.com/classhub/internal/modules/chat/dto"
	chat "anoa.com/classhub/internal/modules/chat/service"
	"anoa.com/classhub/pkg/apperror"
	"anoa.com/classhub/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ChatHandler struct {
	service chat.Service
}

func NewChatHandler(service chat.Service) *ChatHandler {
	return &ChatHandler{service: service}
}

func classAndUser(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	classID, err := uuid.Parse(c.Param("class_id"))
	if err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, "invalid class id", apperror.ErrValidation))
		return uuid.Nil, uuid.Nil, false
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return uuid.Nil, uuid.Nil, false
	}

	return classID, userID, true
}

func (h *ChatHandler) History(c *gin.Context) {
	classID, userID, ok := classAndUser(c)
	if !ok {
		return
	}

	msgs, err := h.service.FetchChat(c.Request.Context(), classID, userID, chat.HistoryLimit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, msgs)
}

func (h *ChatHandler) Send(c *gin.Context) {
	classID, userID, ok := classAndUser(c)
	if !ok {
		return
	}

	var req dto.SendChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, response.BindError(err))
		return
	}

	msg, err := h.service.SendChat(c.Request.Context(), classID, userID, req.Content)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

func (h *ChatHandler) Feed(c *gin.Context) {
	classID, userID, ok := classAndUser(c)
	if !ok {
		return
	}

	var query dto.FeedQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ResponseError(c, response.BindError(err))
		return
	}

	msgs, err := h.service.FetchChatSince(c.Request.Context(), classID, userID, query.After)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, msgs)
}

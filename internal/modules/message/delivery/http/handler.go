package handler

import (
	"net/http"

	"anoa.com/classhub/internal/modules/message/dto"
	message "anoa.com/classhub/internal/modules/message/service"
	"anoa.com/classhub/pkg/apperror"
	"anoa.com/classhub/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MessageHandler struct {
	service message.Service
}

func NewMessageHandler(service message.Service) *MessageHandler {
	return &MessageHandler{service: service}
}

// participants resolves the caller and the :user_id partner.
func participants(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return uuid.Nil, uuid.Nil, false
	}

	partnerID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, "invalid user id", apperror.ErrValidation))
		return uuid.Nil, uuid.Nil, false
	}

	return userID, partnerID, true
}

func (h *MessageHandler) ListContacts(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	contacts, err := h.service.ListContacts(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": contacts})
}

func (h *MessageHandler) UnreadSummary(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	summary, err := h.service.UnreadSummary(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *MessageHandler) OpenConversation(c *gin.Context) {
	userID, partnerID, ok := participants(c)
	if !ok {
		return
	}

	var query dto.ConversationQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ResponseError(c, response.BindError(err))
		return
	}

	conv, err := h.service.OpenConversation(c.Request.Context(), userID, partnerID, query.Limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, conv)
}

func (h *MessageHandler) Send(c *gin.Context) {
	userID, partnerID, ok := participants(c)
	if !ok {
		return
	}

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, response.BindError(err))
		return
	}

	msg, err := h.service.SendDirect(c.Request.Context(), userID, partnerID, req.Content)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

func (h *MessageHandler) Feed(c *gin.Context) {
	userID, partnerID, ok := participants(c)
	if !ok {
		return
	}

	var query dto.FeedQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ResponseError(c, response.BindError(err))
		return
	}

	msgs, err := h.service.FetchSince(c.Request.Context(), userID, partnerID, query.After)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, msgs)
}

func (h *MessageHandler) MarkRead(c *gin.Context) {
	userID, partnerID, ok := participants(c)
	if !ok {
		return
	}

	unread, err := h.service.MarkRead(c.Request.Context(), userID, partnerID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MarkReadResponse{Unread: unread})
}

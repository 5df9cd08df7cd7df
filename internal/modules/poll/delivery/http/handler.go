package handler

import (
	"net/http"
	"strconv"

	"anoa.com/classhub/internal/modules/poll/dto"
	poll "anoa.com/classhub/internal/modules/poll/service"
	"anoa.com/classhub/pkg/apperror"
	"anoa.com/classhub/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PollHandler struct {
	service poll.Service
}

func NewPollHandler(service poll.Service) *PollHandler {
	return &PollHandler{service: service}
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

func (h *PollHandler) List(c *gin.Context) {
	classID, userID, ok := classAndUser(c)
	if !ok {
		return
	}

	polls, err := h.service.ListPolls(c.Request.Context(), userID, classID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": polls})
}

func (h *PollHandler) Create(c *gin.Context) {
	classID, userID, ok := classAndUser(c)
	if !ok {
		return
	}

	var req dto.CreatePollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, response.BindError(err))
		return
	}

	p, err := h.service.CreatePoll(c.Request.Context(), userID, classID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"poll_id": p.ID, "data": p})
}

func (h *PollHandler) Vote(c *gin.Context) {
	classID, userID, ok := classAndUser(c)
	if !ok {
		return
	}

	pollID, err := strconv.ParseUint(c.Param("poll_id"), 10, 64)
	if err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, "invalid poll id", apperror.ErrValidation))
		return
	}

	var req dto.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, response.BindError(err))
		return
	}

	result, err := h.service.CastVote(c.Request.Context(), userID, classID, uint(pollID), req.OptionID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

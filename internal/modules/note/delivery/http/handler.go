package handler

import (
	"net/http"

	"anoa.com/classhub/internal/modules/note/dto"
	note "anoa.com/classhub/internal/modules/note/service"
	"anoa.com/classhub/pkg/apperror"
	"anoa.com/classhub/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type NoteHandler struct {
	service note.Service
}

func NewNoteHandler(service note.Service) *NoteHandler {
	return &NoteHandler{service: service}
}

func noteAndUser(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	noteID, err := uuid.Parse(c.Param("note_id"))
	if err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, "invalid note id", apperror.ErrValidation))
		return uuid.Nil, uuid.Nil, false
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return uuid.Nil, uuid.Nil, false
	}

	return noteID, userID, true
}

func (h *NoteHandler) Create(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, response.BindError(err))
		return
	}

	n, err := h.service.CreateNote(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": n})
}

func (h *NoteHandler) List(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	notes, err := h.service.ListMyNotes(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": notes})
}

func (h *NoteHandler) Search(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var query dto.SearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ResponseError(c, response.BindError(err))
		return
	}

	notes, err := h.service.SearchNotes(c.Request.Context(), userID, query.Q)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": notes})
}

func (h *NoteHandler) Get(c *gin.Context) {
	noteID, userID, ok := noteAndUser(c)
	if !ok {
		return
	}

	n, err := h.service.GetNote(c.Request.Context(), userID, noteID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": n})
}

func (h *NoteHandler) Update(c *gin.Context) {
	noteID, userID, ok := noteAndUser(c)
	if !ok {
		return
	}

	var req dto.UpdateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, response.BindError(err))
		return
	}

	n, err := h.service.UpdateNote(c.Request.Context(), userID, noteID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": n})
}

func (h *NoteHandler) Delete(c *gin.Context) {
	noteID, userID, ok := noteAndUser(c)
	if !ok {
		return
	}

	if err := h.service.DeleteNote(c.Request.Context(), userID, noteID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Note deleted successfully"})
}

func (h *NoteHandler) History(c *gin.Context) {
	noteID, userID, ok := noteAndUser(c)
	if !ok {
		return
	}

	history, err := h.service.GetHistory(c.Request.Context(), userID, noteID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": history})
}

func (h *NoteHandler) AddComment(c *gin.Context) {
	noteID, userID, ok := noteAndUser(c)
	if !ok {
		return
	}

	var req dto.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, response.BindError(err))
		return
	}

	comment, err := h.service.AddComment(c.Request.Context(), userID, noteID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": comment})
}

func (h *NoteHandler) React(c *gin.Context) {
	noteID, userID, ok := noteAndUser(c)
	if !ok {
		return
	}

	var req dto.ReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, response.BindError(err))
		return
	}

	counts, err := h.service.React(c.Request.Context(), userID, noteID, req.Type)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, counts)
}

package handler

import (
	"net/http"

	"anoa.com/classhub/internal/modules/classroom/dto"
	classroom "anoa.com/classhub/internal/modules/classroom/service"
	"anoa.com/classhub/pkg/apperror"
	"anoa.com/classhub/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ClassroomHandler struct {
	service classroom.Service
}

func NewClassroomHandler(service classroom.Service) *ClassroomHandler {
	return &ClassroomHandler{service: service}
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, "invalid "+name, apperror.ErrValidation))
		return uuid.Nil, false
	}
	return id, true
}

func (h *ClassroomHandler) Create(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.CreateClassroomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, response.BindError(err))
		return
	}

	room, err := h.service.CreateClassroom(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": room})
}

func (h *ClassroomHandler) List(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	rooms, err := h.service.ListMyClassrooms(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, rooms)
}

func (h *ClassroomHandler) Join(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.JoinClassroomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, response.BindError(err))
		return
	}

	room, err := h.service.JoinByCode(c.Request.Context(), userID, req.Code)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": room})
}

func (h *ClassroomHandler) HomeFeed(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	posts, err := h.service.HomeFeed(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": posts})
}

func (h *ClassroomHandler) Get(c *gin.Context) {
	classID, ok := parseUUIDParam(c, "class_id")
	if !ok {
		return
	}
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	detail, err := h.service.GetFeed(c.Request.Context(), userID, classID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

func (h *ClassroomHandler) Delete(c *gin.Context) {
	classID, ok := parseUUIDParam(c, "class_id")
	if !ok {
		return
	}
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.service.DeleteClassroom(c.Request.Context(), userID, classID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Classroom deleted successfully"})
}

func (h *ClassroomHandler) CreatePost(c *gin.Context) {
	classID, ok := parseUUIDParam(c, "class_id")
	if !ok {
		return
	}
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, response.BindError(err))
		return
	}

	post, err := h.service.CreatePost(c.Request.Context(), userID, classID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": post})
}

func (h *ClassroomHandler) RemoveStudent(c *gin.Context) {
	classID, ok := parseUUIDParam(c, "class_id")
	if !ok {
		return
	}
	studentID, ok := parseUUIDParam(c, "user_id")
	if !ok {
		return
	}
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.service.RemoveStudent(c.Request.Context(), userID, classID, studentID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Student removed"})
}

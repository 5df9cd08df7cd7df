package handler

import (
	"net/http"
	"strconv"

	attachment "anoa.com/classhub/internal/modules/attachment/service"
	"anoa.com/classhub/pkg/apperror"
	"anoa.com/classhub/pkg/response"
	"github.com/gin-gonic/gin"
)

type AttachmentHandler struct {
	service attachment.Service
}

func NewAttachmentHandler(service attachment.Service) *AttachmentHandler {
	return &AttachmentHandler{service: service}
}

func (h *AttachmentHandler) UploadAttachment(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, "file is required", apperror.ErrValidation))
		return
	}

	f, err := file.Open()
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	defer f.Close()

	resp, err := h.service.UploadAttachment(c.Request.Context(), userID, attachment.Upload{
		FileName: file.Filename,
		MimeType: file.Header.Get("Content-Type"),
		Size:     file.Size,
		Body:     f,
	})
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (h *AttachmentHandler) GetAttachment(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, "invalid attachment id", apperror.ErrValidation))
		return
	}

	resp, err := h.service.GetAttachment(c.Request.Context(), userID, uint(id))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

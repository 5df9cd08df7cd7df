package dto

import (
	"anoa.com/classhub/internal/entity"
	"github.com/google/uuid"
)

type AttachmentResponse struct {
	ID        uint       `json:"id"`
	NoteID    *uuid.UUID `json:"note_id,omitempty"`
	FileName  string     `json:"file_name"`
	FileURL   string     `json:"file_url"`
	MimeType  string     `json:"mime_type"`
	Size      int64      `json:"size"`
	CreatedAt string     `json:"created_at"`
}

func ToAttachmentResponse(a *entity.NoteAttachment) AttachmentResponse {
	return AttachmentResponse{
		ID:        a.ID,
		NoteID:    a.NoteID,
		FileName:  a.FileName,
		FileURL:   a.FileURL,
		MimeType:  a.MimeType,
		Size:      a.Size,
		CreatedAt: a.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
	}
}

func ToAttachmentResponses(items []entity.NoteAttachment) []AttachmentResponse {
	result := make([]AttachmentResponse, 0, len(items))
	for i := range items {
		result = append(result, ToAttachmentResponse(&items[i]))
	}
	return result
}

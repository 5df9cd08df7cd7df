package dto

import (
	"strings"
	"time"

	"anoa.com/classhub/internal/entity"
	attachmentDto "anoa.com/classhub/internal/modules/attachment/dto"
	"github.com/google/uuid"
)

const TimestampLayout = "2006-01-02 15:04:05"

type CreateNoteRequest struct {
	Title         string `json:"title" binding:"max=200"`
	Content       string `json:"content" binding:"required"`
	Tags          string `json:"tags" binding:"max=500"`
	IsPublic      bool   `json:"is_public"`
	Pinned        bool   `json:"pinned"`
	AttachmentIDs []uint `json:"attachment_ids"`
}

// UpdateNoteRequest leaves tags untouched when Tags is omitted.
type UpdateNoteRequest struct {
	Title         string  `json:"title" binding:"max=200"`
	Content       string  `json:"content" binding:"required"`
	Tags          *string `json:"tags" binding:"omitempty,max=500"`
	IsPublic      bool    `json:"is_public"`
	Pinned        bool    `json:"pinned"`
	AttachmentIDs []uint  `json:"attachment_ids"`
}

type CreateCommentRequest struct {
	Content  string `json:"content" binding:"required"`
	ParentID *uint  `json:"parent_id"`
}

type ReactionRequest struct {
	Type string `json:"type" binding:"required"`
}

type SearchQuery struct {
	Q string `form:"q"`
}

type NoteResponse struct {
	ID          uuid.UUID                          `json:"id"`
	UserID      uuid.UUID                          `json:"user_id"`
	Author      string                             `json:"author"`
	Title       string                             `json:"title"`
	Content     string                             `json:"content"`
	Pinned      bool                               `json:"pinned"`
	IsPublic    bool                               `json:"is_public"`
	ShareLink   string                             `json:"share_link"`
	Tags        []string                           `json:"tags"`
	Attachments []attachmentDto.AttachmentResponse `json:"attachments"`
	CreatedAt   string                             `json:"created_at"`
	UpdatedAt   string                             `json:"updated_at"`
}

type ReactionCounts struct {
	Likes    int64 `json:"likes"`
	Dislikes int64 `json:"dislikes"`
}

type CommentResponse struct {
	ID        uint      `json:"id"`
	NoteID    uuid.UUID `json:"note_id"`
	UserID    uuid.UUID `json:"user_id"`
	Author    string    `json:"author"`
	ParentID  *uint     `json:"parent_id,omitempty"`
	Content   string    `json:"content"`
	Timestamp string    `json:"timestamp"`
}

type CommentNode struct {
	CommentResponse
	Replies []CommentNode `json:"replies"`
}

type NoteDetailResponse struct {
	NoteResponse
	Reactions ReactionCounts `json:"reactions"`
	Comments  []CommentNode  `json:"comments"`
}

type HistoryResponse struct {
	ID        uint   `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// ParseTags splits a comma separated tag list, dropping blanks.
func ParseTags(raw string) []string {
	tags := []string{}
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func formatTime(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

func displayName(u *entity.User) string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Email
}

func ToNoteResponse(n *entity.Note) NoteResponse {
	tags := make([]string, 0, len(n.Tags))
	for _, t := range n.Tags {
		tags = append(tags, t.Name)
	}
	return NoteResponse{
		ID:          n.ID,
		UserID:      n.UserID,
		Author:      displayName(&n.User),
		Title:       n.Title,
		Content:     n.Content,
		Pinned:      n.Pinned,
		IsPublic:    n.IsPublic,
		ShareLink:   n.ShareLink,
		Tags:        tags,
		Attachments: attachmentDto.ToAttachmentResponses(n.Attachments),
		CreatedAt:   formatTime(n.CreatedAt),
		UpdatedAt:   formatTime(n.UpdatedAt),
	}
}

func ToNoteResponses(notes []entity.Note) []NoteResponse {
	result := make([]NoteResponse, 0, len(notes))
	for i := range notes {
		result = append(result, ToNoteResponse(&notes[i]))
	}
	return result
}

func ToCommentResponse(c *entity.Comment) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		NoteID:    c.NoteID,
		UserID:    c.UserID,
		Author:    displayName(&c.User),
		ParentID:  c.ParentID,
		Content:   c.Content,
		Timestamp: formatTime(c.CreatedAt),
	}
}

func ToHistoryResponses(items []entity.NoteHistory) []HistoryResponse {
	result := make([]HistoryResponse, 0, len(items))
	for _, h := range items {
		result = append(result, HistoryResponse{
			ID:        h.ID,
			Title:     h.Title,
			Content:   h.Content,
			Timestamp: formatTime(h.CreatedAt),
		})
	}
	return result
}

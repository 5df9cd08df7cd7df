package dto

import (
	"time"

	"anoa.com/classhub/internal/entity"
	"github.com/google/uuid"
)

const TimestampLayout = "2006-01-02 15:04:05"

type SendMessageRequest struct {
	Content string `json:"content" binding:"required,max=5000"`
}

type ConversationQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=200"`
}

type FeedQuery struct {
	After uint `form:"after"`
}

type MessageResponse struct {
	ID         uint      `json:"id"`
	SenderID   uuid.UUID `json:"sender_id"`
	ReceiverID uuid.UUID `json:"receiver_id"`
	Content    string    `json:"content"`
	IsRead     bool      `json:"is_read"`
	Timestamp  string    `json:"timestamp"`
}

type UnreadSummaryResponse struct {
	Total     int64            `json:"total"`
	PerSender map[string]int64 `json:"per_sender"`
}

type MarkReadResponse struct {
	Unread int64 `json:"unread"`
}

type PartnerResponse struct {
	ID        uuid.UUID   `json:"id"`
	FirstName string      `json:"first_name"`
	Role      entity.Role `json:"role"`
}

type ConversationResponse struct {
	Partner  PartnerResponse   `json:"partner"`
	Messages []MessageResponse `json:"messages"`
	Unread   int64             `json:"unread"`
}

type ContactResponse struct {
	ID        uuid.UUID   `json:"id"`
	FirstName string      `json:"first_name"`
	Email     string      `json:"email"`
	Role      entity.Role `json:"role"`
	Unread    int64       `json:"unread"`
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

func ToMessageResponse(m *entity.Message) MessageResponse {
	return MessageResponse{
		ID:         m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Content:    m.Content,
		IsRead:     m.IsRead,
		Timestamp:  FormatTimestamp(m.CreatedAt),
	}
}

func ToMessageResponses(messages []entity.Message) []MessageResponse {
	result := make([]MessageResponse, 0, len(messages))
	for i := range messages {
		result = append(result, ToMessageResponse(&messages[i]))
	}
	return result
}

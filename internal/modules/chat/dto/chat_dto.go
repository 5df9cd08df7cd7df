package dto

import (
	"anoa.com/classhub/internal/entity"
	"github.com/google/uuid"
)

const TimestampLayout = "2006-01-02 15:04:05"

type SendChatRequest struct {
	Content string `json:"content" binding:"required,max=2000"`
}

type FeedQuery struct {
	After uint `form:"after"`
}

type ChatMessageResponse struct {
	ID        uint      `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	Timestamp string    `json:"timestamp"`
}

func ToChatMessageResponse(m *entity.ClassChatMessage) ChatMessageResponse {
	author := m.User.FirstName
	if author == "" {
		author = m.User.Email
	}
	return ChatMessageResponse{
		ID:        m.ID,
		UserID:    m.UserID,
		Author:    author,
		Content:   m.Content,
		Timestamp: m.CreatedAt.UTC().Format(TimestampLayout),
	}
}

func ToChatMessageResponses(messages []entity.ClassChatMessage) []ChatMessageResponse {
	result := make([]ChatMessageResponse, 0, len(messages))
	for i := range messages {
		result = append(result, ToChatMessageResponse(&messages[i]))
	}
	return result
}

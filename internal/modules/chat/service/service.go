package chat

import (
	"context"
	"fmt"
	"strings"

	"anoa.com/classhub/internal/entity"
	"anoa.com/classhub/internal/modules/access"
	"anoa.com/classhub/internal/modules/chat/dto"
	chatRepo "anoa.com/classhub/internal/modules/chat/repository"
	classroom "anoa.com/classhub/internal/modules/classroom/service"
	"anoa.com/classhub/internal/modules/realtime"
	"anoa.com/classhub/pkg/apperror"
	"github.com/google/uuid"
)

const (
	// HistoryLimit is the window loaded when a member opens the chat.
	HistoryLimit = 200
	FeedPageSize = 200
)

type Service interface {
	SendChat(ctx context.Context, classroomID, authorID uuid.UUID, content string) (*dto.ChatMessageResponse, error)
	FetchChat(ctx context.Context, classroomID, viewerID uuid.UUID, limit int) ([]dto.ChatMessageResponse, error)
	FetchChatSince(ctx context.Context, classroomID, viewerID uuid.UUID, afterID uint) ([]dto.ChatMessageResponse, error)
}

type service struct {
	repo      chatRepo.ChatRepository
	guard     *classroom.Guard
	publisher realtime.Publisher
}

func NewService(repo chatRepo.ChatRepository, guard *classroom.Guard, publisher realtime.Publisher) Service {
	return &service{
		repo:      repo,
		guard:     guard,
		publisher: publisher,
	}
}

func (s *service) SendChat(ctx context.Context, classroomID, authorID uuid.UUID, content string) (*dto.ChatMessageResponse, error) {
	room, author, err := s.guard.Authorize(ctx, classroomID, authorID, access.CanAccessClassroom)
	if err != nil {
		return nil, err
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: message is empty", apperror.ErrValidation)
	}

	msg := &entity.ClassChatMessage{
		ClassRoomID: room.ID,
		UserID:      author.ID,
		Content:     content,
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, err
	}
	msg.User = *author

	resp := dto.ToChatMessageResponse(msg)
	realtime.Notify(ctx, s.publisher, realtime.ClassRoomRoom(room.ID), realtime.EventChatCreated, resp)
	return &resp, nil
}

func (s *service) FetchChat(ctx context.Context, classroomID, viewerID uuid.UUID, limit int) ([]dto.ChatMessageResponse, error) {
	if _, _, err := s.guard.Authorize(ctx, classroomID, viewerID, access.CanAccessClassroom); err != nil {
		return nil, err
	}

	if limit <= 0 || limit > HistoryLimit {
		limit = HistoryLimit
	}

	messages, err := s.repo.FindLatest(ctx, classroomID, limit)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return dto.ToChatMessageResponses(messages), nil
}

func (s *service) FetchChatSince(ctx context.Context, classroomID, viewerID uuid.UUID, afterID uint) ([]dto.ChatMessageResponse, error) {
	if _, _, err := s.guard.Authorize(ctx, classroomID, viewerID, access.CanAccessClassroom); err != nil {
		return nil, err
	}

	messages, err := s.repo.FindAfter(ctx, classroomID, afterID, FeedPageSize)
	if err != nil {
		return nil, err
	}
	return dto.ToChatMessageResponses(messages), nil
}

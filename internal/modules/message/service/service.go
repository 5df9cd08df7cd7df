package message

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"anoa.com/classhub/internal/entity"
	"anoa.com/classhub/internal/modules/message/dto"
	messageRepo "anoa.com/classhub/internal/modules/message/repository"
	"anoa.com/classhub/internal/modules/realtime"
	userRepo "anoa.com/classhub/internal/modules/user/repository"
	"anoa.com/classhub/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultConversationLimit = 50
	MaxConversationLimit     = 200
	// FeedPageSize bounds one FetchSince call; clients continue from the last id.
	FeedPageSize = 200
)

type Service interface {
	SendDirect(ctx context.Context, senderID, receiverID uuid.UUID, content string) (*dto.MessageResponse, error)
	FetchConversation(ctx context.Context, userA, userB uuid.UUID, limit int) ([]dto.MessageResponse, error)
	FetchSince(ctx context.Context, userA, userB uuid.UUID, afterID uint) ([]dto.MessageResponse, error)
	MarkRead(ctx context.Context, receiverID, senderID uuid.UUID) (int64, error)
	UnreadSummary(ctx context.Context, userID uuid.UUID) (*dto.UnreadSummaryResponse, error)
	OpenConversation(ctx context.Context, viewerID, partnerID uuid.UUID, limit int) (*dto.ConversationResponse, error)
	ListContacts(ctx context.Context, userID uuid.UUID) ([]dto.ContactResponse, error)
}

type service struct {
	repo      messageRepo.MessageRepository
	userRepo  userRepo.UserRepository
	publisher realtime.Publisher
}

func NewService(repo messageRepo.MessageRepository, userRepo userRepo.UserRepository, publisher realtime.Publisher) Service {
	return &service{
		repo:      repo,
		userRepo:  userRepo,
		publisher: publisher,
	}
}

func (s *service) findUser(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user not found: %w", apperror.ErrNotFound)
		}
		return nil, err
	}
	return user, nil
}

func (s *service) SendDirect(ctx context.Context, senderID, receiverID uuid.UUID, content string) (*dto.MessageResponse, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: message is empty", apperror.ErrValidation)
	}
	if senderID == receiverID {
		return nil, fmt.Errorf("%w: cannot send a message to yourself", apperror.ErrValidation)
	}

	if _, err := s.findUser(ctx, receiverID); err != nil {
		return nil, err
	}

	msg := &entity.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		IsRead:     false,
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, err
	}

	resp := dto.ToMessageResponse(msg)

	realtime.Notify(ctx, s.publisher, realtime.DirectRoom(senderID, receiverID), realtime.EventMessageCreated, resp)
	s.publishUnread(ctx, receiverID)

	return &resp, nil
}

// publishUnread pushes the receiver's fresh summary to their personal room.
func (s *service) publishUnread(ctx context.Context, userID uuid.UUID) {
	if s.publisher == nil {
		return
	}
	summary, err := s.UnreadSummary(ctx, userID)
	if err != nil {
		return
	}
	realtime.Notify(ctx, s.publisher, realtime.UserRoom(userID), realtime.EventUnreadUpdated, summary)
}

// FetchConversation, FetchSince and MarkRead take the caller first and the partner second.
func (s *service) FetchConversation(ctx context.Context, userA, userB uuid.UUID, limit int) ([]dto.MessageResponse, error) {
	if _, err := s.findUser(ctx, userB); err != nil {
		return nil, err
	}
	return s.fetchConversation(ctx, userA, userB, limit)
}

func (s *service) fetchConversation(ctx context.Context, userA, userB uuid.UUID, limit int) ([]dto.MessageResponse, error) {
	if limit <= 0 {
		limit = DefaultConversationLimit
	}
	if limit > MaxConversationLimit {
		limit = MaxConversationLimit
	}

	messages, err := s.repo.FindLatest(ctx, userA, userB, limit)
	if err != nil {
		return nil, err
	}

	// newest window, oldest first on screen
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return dto.ToMessageResponses(messages), nil
}

func (s *service) FetchSince(ctx context.Context, userA, userB uuid.UUID, afterID uint) ([]dto.MessageResponse, error) {
	if _, err := s.findUser(ctx, userB); err != nil {
		return nil, err
	}

	messages, err := s.repo.FindAfter(ctx, userA, userB, afterID, FeedPageSize)
	if err != nil {
		return nil, err
	}
	return dto.ToMessageResponses(messages), nil
}

func (s *service) MarkRead(ctx context.Context, receiverID, senderID uuid.UUID) (int64, error) {
	if _, err := s.findUser(ctx, senderID); err != nil {
		return 0, err
	}
	return s.markRead(ctx, receiverID, senderID)
}

func (s *service) markRead(ctx context.Context, receiverID, senderID uuid.UUID) (int64, error) {
	changed, remaining, err := s.repo.MarkRead(ctx, receiverID, senderID)
	if err != nil {
		return 0, err
	}

	if changed > 0 {
		s.publishUnread(ctx, receiverID)
	}

	return remaining, nil
}

func (s *service) UnreadSummary(ctx context.Context, userID uuid.UUID) (*dto.UnreadSummaryResponse, error) {
	counts, err := s.repo.CountUnreadBySender(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &dto.UnreadSummaryResponse{PerSender: make(map[string]int64, len(counts))}
	for senderID, n := range counts {
		summary.PerSender[senderID.String()] = n
		summary.Total += n
	}
	return summary, nil
}

func (s *service) OpenConversation(ctx context.Context, viewerID, partnerID uuid.UUID, limit int) (*dto.ConversationResponse, error) {
	partner, err := s.findUser(ctx, partnerID)
	if err != nil {
		return nil, err
	}

	messages, err := s.fetchConversation(ctx, viewerID, partnerID, limit)
	if err != nil {
		return nil, err
	}

	unread, err := s.markRead(ctx, viewerID, partnerID)
	if err != nil {
		return nil, err
	}

	// reflect the read state the viewer just produced
	for i := range messages {
		if messages[i].ReceiverID == viewerID {
			messages[i].IsRead = true
		}
	}

	return &dto.ConversationResponse{
		Partner: dto.PartnerResponse{
			ID:        partner.ID,
			FirstName: partner.FirstName,
			Role:      partner.Role,
		},
		Messages: messages,
		Unread:   unread,
	}, nil
}

func (s *service) ListContacts(ctx context.Context, userID uuid.UUID) ([]dto.ContactResponse, error) {
	users, err := s.userRepo.FindAllExcept(ctx, userID)
	if err != nil {
		return nil, err
	}

	unread, err := s.repo.CountUnreadBySender(ctx, userID)
	if err != nil {
		return nil, err
	}

	contacts := make([]dto.ContactResponse, 0, len(users))
	for _, u := range users {
		contacts = append(contacts, dto.ContactResponse{
			ID:        u.ID,
			FirstName: u.FirstName,
			Email:     u.Email,
			Role:      u.Role,
			Unread:    unread[u.ID],
		})
	}
	return contacts, nil
}

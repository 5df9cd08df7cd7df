package poll

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"anoa.com/classhub/internal/entity"
	"anoa.com/classhub/internal/modules/access"
	classroom "anoa.com/classhub/internal/modules/classroom/service"
	"anoa.com/classhub/internal/modules/poll/dto"
	pollRepo "anoa.com/classhub/internal/modules/poll/repository"
	"anoa.com/classhub/internal/modules/realtime"
	"anoa.com/classhub/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MinOptions = 2
	MaxOptions = 6
	// recentPolls is how many polls the chat page shows.
	recentPolls = 10
)

type Service interface {
	CreatePoll(ctx context.Context, actorID, classroomID uuid.UUID, req dto.CreatePollRequest) (*dto.PollResponse, error)
	CastVote(ctx context.Context, actorID, classroomID uuid.UUID, pollID, optionID uint) (*dto.VoteResponse, error)
	ListPolls(ctx context.Context, actorID, classroomID uuid.UUID) ([]dto.PollResponse, error)
}

type service struct {
	repo      pollRepo.PollRepository
	guard     *classroom.Guard
	publisher realtime.Publisher
}

func NewService(repo pollRepo.PollRepository, guard *classroom.Guard, publisher realtime.Publisher) Service {
	return &service{
		repo:      repo,
		guard:     guard,
		publisher: publisher,
	}
}

// NormalizePoll trims the question and options and drops blank options. More than
// MaxOptions is rejected rather than truncated.
func NormalizePoll(question string, options []string) (string, []string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", nil, fmt.Errorf("%w: question is required", apperror.ErrValidation)
	}

	cleaned := make([]string, 0, len(options))
	for _, o := range options {
		if o = strings.TrimSpace(o); o != "" {
			cleaned = append(cleaned, o)
		}
	}

	if len(cleaned) < MinOptions {
		return "", nil, fmt.Errorf("%w: at least %d options are required", apperror.ErrValidation, MinOptions)
	}
	if len(cleaned) > MaxOptions {
		return "", nil, fmt.Errorf("%w: at most %d options are allowed", apperror.ErrValidation, MaxOptions)
	}

	return question, cleaned, nil
}

func (s *service) CreatePoll(ctx context.Context, actorID, classroomID uuid.UUID, req dto.CreatePollRequest) (*dto.PollResponse, error) {
	room, actor, err := s.guard.Authorize(ctx, classroomID, actorID, access.CanManageClassroom)
	if err != nil {
		return nil, err
	}

	question, options, err := NormalizePoll(req.Question, req.Options)
	if err != nil {
		return nil, err
	}

	poll := &entity.Poll{
		ClassRoomID: room.ID,
		CreatedBy:   actor.ID,
		Question:    question,
	}
	for _, text := range options {
		poll.Options = append(poll.Options, entity.PollOption{Text: text})
	}

	if err := s.repo.Create(ctx, poll); err != nil {
		return nil, err
	}

	resp := dto.ToPollResponse(poll, nil, nil)
	realtime.Notify(ctx, s.publisher, realtime.ClassRoomRoom(room.ID), realtime.EventPollCreated, resp)
	return &resp, nil
}

func (s *service) CastVote(ctx context.Context, actorID, classroomID uuid.UUID, pollID, optionID uint) (*dto.VoteResponse, error) {
	room, actor, err := s.guard.Authorize(ctx, classroomID, actorID, access.CanAccessClassroom)
	if err != nil {
		return nil, err
	}

	poll, err := s.repo.FindInClassroom(ctx, pollID, room.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("poll not found: %w", apperror.ErrNotFound)
		}
		return nil, err
	}

	if !hasOption(poll, optionID) {
		return nil, fmt.Errorf("%w: option %d does not belong to poll %d", apperror.ErrInvalidOption, optionID, poll.ID)
	}

	counts, err := s.repo.CastVote(ctx, poll.ID, optionID, actor.ID)
	if err != nil {
		return nil, err
	}

	resp := &dto.VoteResponse{PollID: poll.ID, Counts: counts}
	realtime.Notify(ctx, s.publisher, realtime.ClassRoomRoom(room.ID), realtime.EventPollVoted, resp)
	return resp, nil
}

func hasOption(poll *entity.Poll, optionID uint) bool {
	for _, o := range poll.Options {
		if o.ID == optionID {
			return true
		}
	}
	return false
}

func (s *service) ListPolls(ctx context.Context, actorID, classroomID uuid.UUID) ([]dto.PollResponse, error) {
	room, actor, err := s.guard.Authorize(ctx, classroomID, actorID, access.CanAccessClassroom)
	if err != nil {
		return nil, err
	}

	polls, err := s.repo.FindRecent(ctx, room.ID, recentPolls)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(polls))
	for _, p := range polls {
		ids = append(ids, p.ID)
	}

	counts, err := s.repo.CountVotes(ctx, ids)
	if err != nil {
		return nil, err
	}
	choices, err := s.repo.UserChoices(ctx, actor.ID, ids)
	if err != nil {
		return nil, err
	}

	result := make([]dto.PollResponse, 0, len(polls))
	for i := range polls {
		var mine *uint
		if opt, ok := choices[polls[i].ID]; ok {
			mine = &opt
		}
		result = append(result, dto.ToPollResponse(&polls[i], counts, mine))
	}
	return result, nil
}

package classroom

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"anoa.com/classhub/internal/entity"
	"anoa.com/classhub/internal/modules/access"
	"anoa.com/classhub/internal/modules/classroom/dto"
	classroomRepo "anoa.com/classhub/internal/modules/classroom/repository"
	"anoa.com/classhub/internal/modules/realtime"
	userRepo "anoa.com/classhub/internal/modules/user/repository"
	"anoa.com/classhub/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	codeLength    = 8
	codeAttempts  = 5
	homeFeedLimit = 100
)

type Service interface {
	CreateClassroom(ctx context.Context, actorID uuid.UUID, req dto.CreateClassroomRequest) (*dto.ClassroomResponse, error)
	JoinByCode(ctx context.Context, actorID uuid.UUID, code string) (*dto.ClassroomResponse, error)
	RemoveStudent(ctx context.Context, actorID, classroomID, studentID uuid.UUID) error
	ListMyClassrooms(ctx context.Context, actorID uuid.UUID) (*dto.MyClassroomsResponse, error)
	GetFeed(ctx context.Context, actorID, classroomID uuid.UUID) (*dto.ClassroomDetailResponse, error)
	CreatePost(ctx context.Context, actorID, classroomID uuid.UUID, req dto.CreatePostRequest) (*dto.PostResponse, error)
	HomeFeed(ctx context.Context, actorID uuid.UUID) ([]dto.PostResponse, error)
	DeleteClassroom(ctx context.Context, actorID, classroomID uuid.UUID) error
	CheckAccess(ctx context.Context, classroomID, userID uuid.UUID) error
}

type service struct {
	repo      classroomRepo.ClassroomRepository
	userRepo  userRepo.UserRepository
	guard     *Guard
	publisher realtime.Publisher
}

func NewService(repo classroomRepo.ClassroomRepository, userRepo userRepo.UserRepository, guard *Guard, publisher realtime.Publisher) Service {
	return &service{
		repo:      repo,
		userRepo:  userRepo,
		guard:     guard,
		publisher: publisher,
	}
}

func (s *service) findActor(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user not found: %w", apperror.ErrUnauthorized)
		}
		return nil, err
	}
	return user, nil
}

func newCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:codeLength])
}

func (s *service) generateUniqueCode(ctx context.Context) (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code := newCode()
		exists, err := s.repo.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w: could not generate a unique class code", apperror.ErrConflict)
}

func (s *service) CreateClassroom(ctx context.Context, actorID uuid.UUID, req dto.CreateClassroomRequest) (*dto.ClassroomResponse, error) {
	actor, err := s.findActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.Role.CanTeach() {
		return nil, fmt.Errorf("only teachers can create classrooms: %w", apperror.ErrAccessDenied)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: classroom name is required", apperror.ErrValidation)
	}

	code, err := s.generateUniqueCode(ctx)
	if err != nil {
		return nil, err
	}

	room := &entity.ClassRoom{
		Name:      name,
		Code:      code,
		TeacherID: actor.ID,
	}
	if err := s.repo.Create(ctx, room); err != nil {
		return nil, err
	}
	room.Teacher = *actor

	resp := dto.ToClassroomResponse(room, true)
	return &resp, nil
}

func (s *service) JoinByCode(ctx context.Context, actorID uuid.UUID, code string) (*dto.ClassroomResponse, error) {
	actor, err := s.findActor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	room, err := s.repo.FindByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("invalid class code: %w", apperror.ErrNotFound)
		}
		return nil, err
	}

	// already in the class (or teaching it): nothing to do
	if room.TeacherID != actor.ID && !room.HasStudent(actor.ID) {
		if err := s.repo.AddStudent(ctx, room.ID, actor.ID); err != nil {
			return nil, err
		}
	}

	resp := dto.ToClassroomResponse(room, access.CanManageClassroom(room, actor))
	return &resp, nil
}

func (s *service) RemoveStudent(ctx context.Context, actorID, classroomID, studentID uuid.UUID) error {
	if _, _, err := s.guard.Authorize(ctx, classroomID, actorID, access.CanManageClassroom); err != nil {
		return err
	}

	removed, err := s.repo.RemoveStudent(ctx, classroomID, studentID)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("student is not in this classroom: %w", apperror.ErrNotFound)
	}
	return nil
}

func (s *service) ListMyClassrooms(ctx context.Context, actorID uuid.UUID) (*dto.MyClassroomsResponse, error) {
	joined, err := s.repo.FindJoined(ctx, actorID)
	if err != nil {
		return nil, err
	}
	taught, err := s.repo.FindTaught(ctx, actorID)
	if err != nil {
		return nil, err
	}

	resp := &dto.MyClassroomsResponse{
		Joined:   make([]dto.ClassroomResponse, 0, len(joined)),
		Teaching: make([]dto.ClassroomResponse, 0, len(taught)),
	}
	for i := range joined {
		resp.Joined = append(resp.Joined, dto.ToClassroomResponse(&joined[i], false))
	}
	for i := range taught {
		resp.Teaching = append(resp.Teaching, dto.ToClassroomResponse(&taught[i], true))
	}
	return resp, nil
}

func (s *service) GetFeed(ctx context.Context, actorID, classroomID uuid.UUID) (*dto.ClassroomDetailResponse, error) {
	room, actor, err := s.guard.Authorize(ctx, classroomID, actorID, access.CanAccessClassroom)
	if err != nil {
		return nil, err
	}

	posts, err := s.repo.FindPosts(ctx, room.ID)
	if err != nil {
		return nil, err
	}

	canManage := access.CanManageClassroom(room, actor)
	students := make([]dto.MemberResponse, 0, len(room.Students))
	for _, st := range room.Students {
		students = append(students, dto.MemberResponse{
			ID:        st.ID,
			FirstName: st.FirstName,
			Email:     st.Email,
			Role:      st.Role,
		})
	}

	return &dto.ClassroomDetailResponse{
		ClassroomResponse: dto.ToClassroomResponse(room, canManage),
		Students:          students,
		CanManage:         canManage,
		Posts:             dto.ToPostResponses(posts),
	}, nil
}

func (s *service) CreatePost(ctx context.Context, actorID, classroomID uuid.UUID, req dto.CreatePostRequest) (*dto.PostResponse, error) {
	room, actor, err := s.guard.Authorize(ctx, classroomID, actorID, access.CanPostToClassroom)
	if err != nil {
		return nil, err
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: post content is required", apperror.ErrValidation)
	}

	post := &entity.ClassPost{
		ClassRoomID: room.ID,
		UserID:      actor.ID,
		Content:     content,
	}
	if title := strings.TrimSpace(req.Title); title != "" {
		post.Title = &title
	}

	if err := s.repo.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	post.User = *actor

	resp := dto.ToPostResponse(post)
	realtime.Notify(ctx, s.publisher, realtime.ClassRoomRoom(room.ID), realtime.EventPostCreated, resp)
	return &resp, nil
}

func (s *service) HomeFeed(ctx context.Context, actorID uuid.UUID) ([]dto.PostResponse, error) {
	posts, err := s.repo.FindHomePosts(ctx, actorID, homeFeedLimit)
	if err != nil {
		return nil, err
	}
	return dto.ToPostResponses(posts), nil
}

func (s *service) DeleteClassroom(ctx context.Context, actorID, classroomID uuid.UUID) error {
	if _, _, err := s.guard.Authorize(ctx, classroomID, actorID, access.CanManageClassroom); err != nil {
		return err
	}
	return s.repo.Delete(ctx, classroomID)
}

func (s *service) CheckAccess(ctx context.Context, classroomID, userID uuid.UUID) error {
	return s.guard.CheckAccess(ctx, classroomID, userID)
}

package admin

import (
	"context"
	"errors"
	"fmt"
	"log"

	"anoa.com/classhub/internal/modules/access"
	"anoa.com/classhub/internal/modules/admin/dto"
	noteRepo "anoa.com/classhub/internal/modules/note/repository"
	userDto "anoa.com/classhub/internal/modules/user/dto"
	userRepo "anoa.com/classhub/internal/modules/user/repository"
	"anoa.com/classhub/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AdminService interface {
	Dashboard(ctx context.Context) (*dto.DashboardResponse, error)
	DeleteUser(ctx context.Context, actorID, userID uuid.UUID) error
	ListJobs(ctx context.Context) []string
	RunJob(ctx context.Context, name string) error
}

// JobRunner is the background job scheduler.
type JobRunner interface {
	Names() []string
	RunByName(ctx context.Context, name string) error
}

type adminService struct {
	userRepo userRepo.UserRepository
	noteRepo noteRepo.NoteRepository
	jobs     JobRunner
}

func NewAdminService(userRepo userRepo.UserRepository, noteRepo noteRepo.NoteRepository, jobs JobRunner) AdminService {
	return &adminService{
		userRepo: userRepo,
		noteRepo: noteRepo,
		jobs:     jobs,
	}
}

func (s *adminService) Dashboard(ctx context.Context) (*dto.DashboardResponse, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	notes, err := s.noteRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	resp := &dto.DashboardResponse{
		Users:      make([]userDto.UserResponse, 0, len(users)),
		TotalUsers: len(users),
		TotalNotes: notes,
	}
	for i := range users {
		resp.Users = append(resp.Users, userDto.ToUserResponse(&users[i]))
	}
	return resp, nil
}

// DeleteUser removes a non-admin account together with everything it owns.
func (s *adminService) DeleteUser(ctx context.Context, actorID, userID uuid.UUID) error {
	actor, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.ErrUnauthorized
		}
		return err
	}

	target, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("user not found: %w", apperror.ErrNotFound)
		}
		return err
	}

	if !access.CanDeleteUser(actor, target) {
		return fmt.Errorf("administrator accounts cannot be deleted: %w", apperror.ErrAccessDenied)
	}

	return s.userRepo.Delete(ctx, target.ID)
}

func (s *adminService) ListJobs(ctx context.Context) []string {
	if s.jobs == nil {
		return []string{}
	}
	return s.jobs.Names()
}

// RunJob triggers a registered job now, e.g. the orphan attachment cleanup.
func (s *adminService) RunJob(ctx context.Context, name string) error {
	if s.jobs == nil {
		return fmt.Errorf("job %q is not registered: %w", name, apperror.ErrNotFound)
	}
	if err := s.jobs.RunByName(ctx, name); err != nil {
		return err
	}
	log.Printf("job %s triggered manually", name)
	return nil
}

package classroom

import (
	"context"
	"errors"
	"fmt"

	"anoa.com/classhub/internal/entity"
	"anoa.com/classhub/internal/modules/access"
	classroomRepo "anoa.com/classhub/internal/modules/classroom/repository"
	userRepo "anoa.com/classhub/internal/modules/user/repository"
	"anoa.com/classhub/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Predicate is one of the classroom rules of the access package.
type Predicate func(room *entity.ClassRoom, user *entity.User) bool

// Guard loads a classroom and its actor and applies an access predicate. It is shared by the
// chat, poll and realtime modules.
type Guard struct {
	repo     classroomRepo.ClassroomRepository
	userRepo userRepo.UserRepository
}

func NewGuard(repo classroomRepo.ClassroomRepository, userRepo userRepo.UserRepository) *Guard {
	return &Guard{repo: repo, userRepo: userRepo}
}

// Authorize returns ErrNotFound for an unknown classroom and ErrAccessDenied when allowed
// rejects the actor.
func (g *Guard) Authorize(ctx context.Context, classroomID, userID uuid.UUID, allowed Predicate) (*entity.ClassRoom, *entity.User, error) {
	room, err := g.repo.FindByID(ctx, classroomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("classroom not found: %w", apperror.ErrNotFound)
		}
		return nil, nil, err
	}

	user, err := g.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("user not found: %w", apperror.ErrUnauthorized)
		}
		return nil, nil, err
	}

	if !allowed(room, user) {
		return nil, nil, fmt.Errorf("classroom %s: %w", room.Name, apperror.ErrAccessDenied)
	}

	return room, user, nil
}

func (g *Guard) CheckAccess(ctx context.Context, classroomID, userID uuid.UUID) error {
	_, _, err := g.Authorize(ctx, classroomID, userID, access.CanAccessClassroom)
	return err
}

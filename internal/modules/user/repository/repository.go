package repository

import (
	"context"
	"strings"

	"anoa.com/classhub/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	SearchByFirstName(ctx context.Context, query string, excludeID uuid.UUID, limit int) ([]entity.User, error)
	FindAllExcept(ctx context.Context, excludeID uuid.UUID) ([]entity.User, error)
	FindAll(ctx context.Context) ([]entity.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) SearchByFirstName(ctx context.Context, query string, excludeID uuid.UUID, limit int) ([]entity.User, error) {
	var users []entity.User
	err := r.db.WithContext(ctx).
		Where("LOWER(first_name) LIKE ? AND id <> ?", "%"+strings.ToLower(query)+"%", excludeID).
		Order("first_name asc").
		Limit(limit).
		Find(&users).Error
	return users, err
}

func (r *userRepository) FindAllExcept(ctx context.Context, excludeID uuid.UUID) ([]entity.User, error) {
	var users []entity.User
	err := r.db.WithContext(ctx).
		Where("id <> ?", excludeID).
		Order("first_name asc").
		Find(&users).Error
	return users, err
}

func (r *userRepository) FindAll(ctx context.Context) ([]entity.User, error) {
	var users []entity.User
	err := r.db.WithContext(ctx).Order("created_at desc").Find(&users).Error
	return users, err
}

// Delete removes the user with every row they own, taught classrooms included. Admin
// accounts are never passed here.
func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taught := tx.Model(&entity.ClassRoom{}).Select("id").Where("teacher_id = ?", id)
		polls := tx.Model(&entity.Poll{}).Select("id").Where("class_room_id IN (?) OR created_by = ?", taught, id)
		options := tx.Model(&entity.PollOption{}).Select("id").Where("poll_id IN (?)", polls)
		notes := tx.Model(&entity.Note{}).Select("id").Where("user_id = ?", id)

		steps := []struct {
			model any
			query string
			args  []any
		}{
			{&entity.PollVote{}, "option_id IN (?) OR user_id = ?", []any{options, id}},
			{&entity.PollOption{}, "poll_id IN (?)", []any{polls}},
			{&entity.Poll{}, "class_room_id IN (?) OR created_by = ?", []any{taught, id}},
			{&entity.ClassChatMessage{}, "class_room_id IN (?) OR user_id = ?", []any{taught, id}},
			{&entity.ClassPost{}, "class_room_id IN (?) OR user_id = ?", []any{taught, id}},
			{&entity.Comment{}, "note_id IN (?) OR user_id = ?", []any{notes, id}},
			{&entity.Reaction{}, "note_id IN (?) OR user_id = ?", []any{notes, id}},
			{&entity.NoteHistory{}, "note_id IN (?)", []any{notes}},
			{&entity.NoteAttachment{}, "note_id IN (?) OR user_id = ?", []any{notes, id}},
			{&entity.Message{}, "sender_id = ? OR receiver_id = ?", []any{id, id}},
		}

		if err := tx.Exec("DELETE FROM classroom_students WHERE user_id = ? OR class_room_id IN (?)", id, taught).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM note_tags WHERE note_id IN (?)", notes).Error; err != nil {
			return err
		}
		for _, step := range steps {
			if err := tx.Where(step.query, step.args...).Delete(step.model).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("user_id = ?", id).Delete(&entity.Note{}).Error; err != nil {
			return err
		}
		if err := tx.Where("teacher_id = ?", id).Delete(&entity.ClassRoom{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&entity.User{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.User{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

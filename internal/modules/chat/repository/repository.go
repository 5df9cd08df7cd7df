package repository

import (
	"context"

	"anoa.com/classhub/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatRepository interface {
	Create(ctx context.Context, message *entity.ClassChatMessage) error
	// FindLatest returns the limit newest messages, newest first.
	FindLatest(ctx context.Context, classroomID uuid.UUID, limit int) ([]entity.ClassChatMessage, error)
	FindAfter(ctx context.Context, classroomID uuid.UUID, afterID uint, limit int) ([]entity.ClassChatMessage, error)
}

type chatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) Create(ctx context.Context, message *entity.ClassChatMessage) error {
	return r.db.WithContext(ctx).Omit("User").Create(message).Error
}

func (r *chatRepository) FindLatest(ctx context.Context, classroomID uuid.UUID, limit int) ([]entity.ClassChatMessage, error) {
	var messages []entity.ClassChatMessage
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("class_room_id = ?", classroomID).
		Order("id desc").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

func (r *chatRepository) FindAfter(ctx context.Context, classroomID uuid.UUID, afterID uint, limit int) ([]entity.ClassChatMessage, error) {
	var messages []entity.ClassChatMessage
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("class_room_id = ? AND id > ?", classroomID, afterID).
		Order("id asc").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

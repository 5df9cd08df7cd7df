package repository

import (
	"context"
	"time"

	"anoa.com/classhub/internal/entity"
	"gorm.io/gorm"
)

type AttachmentRepository interface {
	Create(ctx context.Context, attachment *entity.NoteAttachment) error
	FindByID(ctx context.Context, id uint) (*entity.NoteAttachment, error)
	FindOrphans(ctx context.Context, cutoffTime time.Time) ([]entity.NoteAttachment, error)
	Delete(ctx context.Context, id uint) error
}

type attachmentRepository struct {
	db *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &attachmentRepository{db: db}
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *entity.NoteAttachment) error {
	return r.db.WithContext(ctx).Omit("User").Create(attachment).Error
}

func (r *attachmentRepository) FindByID(ctx context.Context, id uint) (*entity.NoteAttachment, error) {
	var attachment entity.NoteAttachment
	if err := r.db.WithContext(ctx).First(&attachment, id).Error; err != nil {
		return nil, err
	}
	return &attachment, nil
}

func (r *attachmentRepository) FindOrphans(ctx context.Context, cutoffTime time.Time) ([]entity.NoteAttachment, error) {
	var attachments []entity.NoteAttachment
	err := r.db.WithContext(ctx).
		Where("note_id IS NULL AND created_at < ?", cutoffTime).
		Find(&attachments).Error
	return attachments, err
}

func (r *attachmentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&entity.NoteAttachment{}, id).Error
}

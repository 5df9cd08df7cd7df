package repository

import (
	"context"

	"anoa.com/classhub/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	// FindLatest returns the limit newest messages of the pair, newest first.
	FindLatest(ctx context.Context, userA, userB uuid.UUID, limit int) ([]entity.Message, error)
	// FindAfter returns messages of the pair with id > afterID in ascending id order.
	FindAfter(ctx context.Context, userA, userB uuid.UUID, afterID uint, limit int) ([]entity.Message, error)
	// MarkRead flips every unread message sender -> receiver and returns the number of rows
	// changed and the receiver's remaining unread total, both read in the same transaction.
	MarkRead(ctx context.Context, receiverID, senderID uuid.UUID) (int64, int64, error)
	CountUnreadBySender(ctx context.Context, receiverID uuid.UUID) (map[uuid.UUID]int64, error)
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func pair(db *gorm.DB, userA, userB uuid.UUID) *gorm.DB {
	return db.Where("((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))",
		userA, userB, userB, userA)
}

func (r *messageRepository) Create(ctx context.Context, message *entity.Message) error {
	return r.db.WithContext(ctx).Omit("Sender", "Receiver").Create(message).Error
}

func (r *messageRepository) FindLatest(ctx context.Context, userA, userB uuid.UUID, limit int) ([]entity.Message, error) {
	var messages []entity.Message
	err := pair(r.db.WithContext(ctx), userA, userB).
		Order("id desc").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

func (r *messageRepository) FindAfter(ctx context.Context, userA, userB uuid.UUID, afterID uint, limit int) ([]entity.Message, error) {
	var messages []entity.Message
	err := pair(r.db.WithContext(ctx), userA, userB).
		Where("id > ?", afterID).
		Order("id asc").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

func (r *messageRepository) MarkRead(ctx context.Context, receiverID, senderID uuid.UUID) (int64, int64, error) {
	var changed, remaining int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entity.Message{}).
			Where("sender_id = ? AND receiver_id = ? AND is_read = ?", senderID, receiverID, false).
			Update("is_read", true)
		if result.Error != nil {
			return result.Error
		}
		changed = result.RowsAffected

		return tx.Model(&entity.Message{}).
			Where("receiver_id = ? AND is_read = ?", receiverID, false).
			Count(&remaining).Error
	})
	if err != nil {
		return 0, 0, err
	}
	return changed, remaining, nil
}

func (r *messageRepository) CountUnreadBySender(ctx context.Context, receiverID uuid.UUID) (map[uuid.UUID]int64, error) {
	type row struct {
		SenderID uuid.UUID
		Count    int64
	}
	var rows []row

	err := r.db.WithContext(ctx).Model(&entity.Message{}).
		Select("sender_id, count(*) as count").
		Where("receiver_id = ? AND is_read = ?", receiverID, false).
		Group("sender_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[uuid.UUID]int64, len(rows))
	for _, r := range rows {
		counts[r.SenderID] = r.Count
	}
	return counts, nil
}

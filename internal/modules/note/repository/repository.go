package repository

import (
	"context"
	"errors"
	"strings"

	"anoa.com/classhub/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NoteRepository interface {
	Create(ctx context.Context, note *entity.Note, tagNames []string, attachmentIDs []uint) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Note, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]entity.Note, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Note, error)
	SearchLike(ctx context.Context, userID uuid.UUID, query string, limit int) ([]entity.Note, error)
	Update(ctx context.Context, note *entity.Note, previous *entity.NoteHistory, tagNames []string, attachmentIDs []uint) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindHistory(ctx context.Context, noteID uuid.UUID) ([]entity.NoteHistory, error)
	ShareLinkExists(ctx context.Context, link string) (bool, error)
	Count(ctx context.Context) (int64, error)

	CreateComment(ctx context.Context, comment *entity.Comment) error
	FindComment(ctx context.Context, id uint) (*entity.Comment, error)
	FindComments(ctx context.Context, noteID uuid.UUID) ([]entity.Comment, error)

	SetReaction(ctx context.Context, noteID, userID uuid.UUID, reactionType string) (likes, dislikes int64, err error)
	CountReactions(ctx context.Context, noteID uuid.UUID) (likes, dislikes int64, err error)
}

type noteRepository struct {
	db *gorm.DB
}

func NewNoteRepository(db *gorm.DB) NoteRepository {
	return &noteRepository{db: db}
}

// resolveTags finds or creates one tag per distinct name.
func resolveTags(tx *gorm.DB, names []string) ([]entity.Tag, error) {
	tags := make([]entity.Tag, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		var tag entity.Tag
		if err := tx.Where(entity.Tag{Name: name}).FirstOrCreate(&tag).Error; err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// linkAttachments only claims uploads owned by the note's author that are not linked to a
// different note.
func linkAttachments(tx *gorm.DB, note *entity.Note, attachmentIDs []uint) error {
	if len(attachmentIDs) == 0 {
		return nil
	}
	return tx.Model(&entity.NoteAttachment{}).
		Where("id IN ? AND user_id = ?", attachmentIDs, note.UserID).
		Where("(note_id IS NULL OR note_id = ?)", note.ID).
		Update("note_id", note.ID).Error
}

func (r *noteRepository) Create(ctx context.Context, note *entity.Note, tagNames []string, attachmentIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, err := resolveTags(tx, tagNames)
		if err != nil {
			return err
		}
		note.Tags = tags
		if err := tx.Omit("User", "Tags.*").Create(note).Error; err != nil {
			return err
		}
		return linkAttachments(tx, note, attachmentIDs)
	})
}

func (r *noteRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Note, error) {
	var note entity.Note
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Tags").
		Preload("Attachments").
		Where("id = ?", id).
		First(&note).Error
	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *noteRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]entity.Note, error) {
	var notes []entity.Note
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Tags").
		Where("user_id = ?", userID).
		Order("pinned desc, created_at desc").
		Find(&notes).Error
	return notes, err
}

func (r *noteRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Note, error) {
	var notes []entity.Note
	if len(ids) == 0 {
		return notes, nil
	}
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Tags").
		Where("id IN ?", ids).
		Find(&notes).Error
	return notes, err
}

func (r *noteRepository) SearchLike(ctx context.Context, userID uuid.UUID, query string, limit int) ([]entity.Note, error) {
	pattern := "%" + strings.ToLower(query) + "%"

	var notes []entity.Note
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Tags").
		Where("(is_public = ? OR user_id = ?)", true, userID).
		Where("(LOWER(title) LIKE ? OR LOWER(content) LIKE ?)", pattern, pattern).
		Order("updated_at desc").
		Limit(limit).
		Find(&notes).Error
	return notes, err
}

// Update snapshots the previous version and writes the new fields. A nil tagNames leaves the
// tags untouched.
func (r *noteRepository) Update(ctx context.Context, note *entity.Note, previous *entity.NoteHistory, tagNames []string, attachmentIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(previous).Error; err != nil {
			return err
		}

		if err := tx.Model(note).
			Select("title", "content", "is_public", "pinned", "updated_at").
			Updates(note).Error; err != nil {
			return err
		}
		if err := linkAttachments(tx, note, attachmentIDs); err != nil {
			return err
		}

		if tagNames == nil {
			return nil
		}
		tags, err := resolveTags(tx, tagNames)
		if err != nil {
			return err
		}
		if err := tx.Model(note).Association("Tags").Replace(tags); err != nil {
			return err
		}
		note.Tags = tags
		return nil
	})
}

func (r *noteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&entity.Comment{}, &entity.Reaction{}, &entity.NoteHistory{}, &entity.NoteAttachment{}} {
			if err := tx.Where("note_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		if err := tx.Exec("DELETE FROM note_tags WHERE note_id = ?", id).Error; err != nil {
			return err
		}

		result := tx.Delete(&entity.Note{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *noteRepository) FindHistory(ctx context.Context, noteID uuid.UUID) ([]entity.NoteHistory, error) {
	var history []entity.NoteHistory
	err := r.db.WithContext(ctx).
		Where("note_id = ?", noteID).
		Order("id desc").
		Find(&history).Error
	return history, err
}

func (r *noteRepository) ShareLinkExists(ctx context.Context, link string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Note{}).Where("share_link = ?", link).Count(&count).Error
	return count > 0, err
}

func (r *noteRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Note{}).Count(&count).Error
	return count, err
}

func (r *noteRepository) CreateComment(ctx context.Context, comment *entity.Comment) error {
	return r.db.WithContext(ctx).Omit("User").Create(comment).Error
}

func (r *noteRepository) FindComment(ctx context.Context, id uint) (*entity.Comment, error) {
	var comment entity.Comment
	if err := r.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *noteRepository) FindComments(ctx context.Context, noteID uuid.UUID) ([]entity.Comment, error) {
	var comments []entity.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("note_id = ?", noteID).
		Order("id asc").
		Find(&comments).Error
	return comments, err
}

// SetReaction keeps a single row per (user, note): an existing reaction has its type
// overwritten.
func (r *noteRepository) SetReaction(ctx context.Context, noteID, userID uuid.UUID, reactionType string) (int64, int64, error) {
	var likes, dislikes int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing entity.Reaction
		err := tx.Where("user_id = ? AND note_id = ?", userID, noteID).First(&existing).Error
		switch {
		case err == nil:
			if existing.Type != reactionType {
				if err := tx.Model(&existing).Update("type", reactionType).Error; err != nil {
					return err
				}
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Omit("User").Create(&entity.Reaction{UserID: userID, NoteID: noteID, Type: reactionType}).Error; err != nil {
				return err
			}
		default:
			return err
		}

		likes, dislikes, err = countReactions(tx, noteID)
		return err
	})
	return likes, dislikes, err
}

func (r *noteRepository) CountReactions(ctx context.Context, noteID uuid.UUID) (int64, int64, error) {
	return countReactions(r.db.WithContext(ctx), noteID)
}

func countReactions(db *gorm.DB, noteID uuid.UUID) (int64, int64, error) {
	var rows []struct {
		Type  string
		Total int64
	}
	err := db.Model(&entity.Reaction{}).
		Select("type, COUNT(*) AS total").
		Where("note_id = ?", noteID).
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return 0, 0, err
	}

	var likes, dislikes int64
	for _, row := range rows {
		switch row.Type {
		case entity.ReactionLike:
			likes = row.Total
		case entity.ReactionDislike:
			dislikes = row.Total
		}
	}
	return likes, dislikes, nil
}

package repository

import (
	"context"
	"errors"

	"anoa.com/classhub/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PollRepository interface {
	// Create stores the poll and its options in one transaction.
	Create(ctx context.Context, poll *entity.Poll) error
	FindInClassroom(ctx context.Context, pollID uint, classroomID uuid.UUID) (*entity.Poll, error)
	FindRecent(ctx context.Context, classroomID uuid.UUID, limit int) ([]entity.Poll, error)
	// CastVote moves the user's existing vote in the poll to optionID, or creates one, and
	// returns the vote count of every option. Runs in one transaction.
	CastVote(ctx context.Context, pollID, optionID uint, userID uuid.UUID) (map[uint]int64, error)
	CountVotes(ctx context.Context, pollIDs []uint) (map[uint]int64, error)
	// UserChoices maps poll id to the option the user picked.
	UserChoices(ctx context.Context, userID uuid.UUID, pollIDs []uint) (map[uint]uint, error)
}

type pollRepository struct {
	db *gorm.DB
}

func NewPollRepository(db *gorm.DB) PollRepository {
	return &pollRepository{db: db}
}

func (r *pollRepository) Create(ctx context.Context, poll *entity.Poll) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		options := poll.Options
		poll.Options = nil
		if err := tx.Omit("Creator", "Options").Create(poll).Error; err != nil {
			return err
		}

		for i := range options {
			options[i].PollID = poll.ID
		}
		if err := tx.Create(&options).Error; err != nil {
			return err
		}
		poll.Options = options
		return nil
	})
}

func (r *pollRepository) FindInClassroom(ctx context.Context, pollID uint, classroomID uuid.UUID) (*entity.Poll, error) {
	var poll entity.Poll
	err := r.db.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("id asc")
		}).
		Where("id = ? AND class_room_id = ?", pollID, classroomID).
		First(&poll).Error
	if err != nil {
		return nil, err
	}
	return &poll, nil
}

func (r *pollRepository) FindRecent(ctx context.Context, classroomID uuid.UUID, limit int) ([]entity.Poll, error) {
	var polls []entity.Poll
	err := r.db.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("id asc")
		}).
		Where("class_room_id = ?", classroomID).
		Order("id desc").
		Limit(limit).
		Find(&polls).Error
	return polls, err
}

func (r *pollRepository) CastVote(ctx context.Context, pollID, optionID uint, userID uuid.UUID) (map[uint]int64, error) {
	var counts map[uint]int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing entity.PollVote
		err := tx.
			Joins("JOIN poll_options ON poll_options.id = poll_votes.option_id").
			Where("poll_options.poll_id = ? AND poll_votes.user_id = ?", pollID, userID).
			First(&existing).Error
		switch {
		case err == nil:
			if existing.OptionID != optionID {
				if err := tx.Model(&existing).Update("option_id", optionID).Error; err != nil {
					return err
				}
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Omit("User").Create(&entity.PollVote{OptionID: optionID, UserID: userID}).Error; err != nil {
				return err
			}
		default:
			return err
		}

		counts, err = countVotes(tx, []uint{pollID})
		return err
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *pollRepository) CountVotes(ctx context.Context, pollIDs []uint) (map[uint]int64, error) {
	return countVotes(r.db.WithContext(ctx), pollIDs)
}

// countVotes keys by option id and includes options without votes.
func countVotes(db *gorm.DB, pollIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64)
	if len(pollIDs) == 0 {
		return counts, nil
	}

	var optionIDs []uint
	if err := db.Model(&entity.PollOption{}).Where("poll_id IN ?", pollIDs).Pluck("id", &optionIDs).Error; err != nil {
		return nil, err
	}
	for _, id := range optionIDs {
		counts[id] = 0
	}

	type row struct {
		OptionID uint
		Count    int64
	}
	var rows []row
	err := db.Model(&entity.PollVote{}).
		Select("option_id, count(*) as count").
		Where("option_id IN (?)", db.Model(&entity.PollOption{}).Select("id").Where("poll_id IN ?", pollIDs)).
		Group("option_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		counts[r.OptionID] = r.Count
	}
	return counts, nil
}

func (r *pollRepository) UserChoices(ctx context.Context, userID uuid.UUID, pollIDs []uint) (map[uint]uint, error) {
	choices := make(map[uint]uint)
	if len(pollIDs) == 0 {
		return choices, nil
	}

	type row struct {
		PollID   uint
		OptionID uint
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&entity.PollVote{}).
		Select("poll_options.poll_id, poll_votes.option_id").
		Joins("JOIN poll_options ON poll_options.id = poll_votes.option_id").
		Where("poll_votes.user_id = ? AND poll_options.poll_id IN ?", userID, pollIDs).
		Order("poll_votes.id desc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		choices[r.PollID] = r.OptionID
	}
	return choices, nil
}

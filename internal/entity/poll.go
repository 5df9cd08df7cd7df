package entity

import (
	"time"

	"github.com/google/uuid"
)

type Poll struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	ClassRoomID uuid.UUID    `gorm:"type:uuid;not null;index" json:"class_room_id"`
	CreatedBy   uuid.UUID    `gorm:"type:uuid;not null" json:"created_by"`
	Creator     User         `gorm:"foreignKey:CreatedBy;constraint:OnDelete:CASCADE" json:"-"`
	Question    string       `gorm:"size:300;not null" json:"question"`
	Options     []PollOption `gorm:"foreignKey:PollID;constraint:OnDelete:CASCADE" json:"options"`
	CreatedAt   time.Time    `gorm:"autoCreateTime" json:"created_at"`
}

type PollOption struct {
	ID     uint       `gorm:"primaryKey" json:"id"`
	PollID uint       `gorm:"not null;index" json:"poll_id"`
	Text   string     `gorm:"size:200;not null" json:"text"`
	Votes  []PollVote `gorm:"foreignKey:OptionID;constraint:OnDelete:CASCADE" json:"-"`
}

// PollVote has no unique key on (poll, user); the poll service keeps one row per pair.
type PollVote struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	OptionID uint      `gorm:"not null;index" json:"option_id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User     User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

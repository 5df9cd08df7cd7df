package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClassRoom struct {
	ID           uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string             `gorm:"size:100;not null" json:"name"`
	Code         string             `gorm:"size:8;uniqueIndex;not null" json:"code"`
	TeacherID    uuid.UUID          `gorm:"type:uuid;not null;index" json:"teacher_id"`
	Teacher      User               `gorm:"foreignKey:TeacherID;constraint:OnDelete:CASCADE" json:"-"`
	Students     []User             `gorm:"many2many:classroom_students;constraint:OnDelete:CASCADE" json:"-"`
	Posts        []ClassPost        `gorm:"foreignKey:ClassRoomID;constraint:OnDelete:CASCADE" json:"-"`
	ChatMessages []ClassChatMessage `gorm:"foreignKey:ClassRoomID;constraint:OnDelete:CASCADE" json:"-"`
	Polls        []Poll             `gorm:"foreignKey:ClassRoomID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt    time.Time          `gorm:"autoCreateTime" json:"created_at"`
}

func (c *ClassRoom) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID, err = uuid.NewV7()
	}
	return
}

// HasStudent reports whether userID is in the loaded Students set.
func (c *ClassRoom) HasStudent(userID uuid.UUID) bool {
	for _, s := range c.Students {
		if s.ID == userID {
			return true
		}
	}
	return false
}

type ClassPost struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClassRoomID uuid.UUID `gorm:"type:uuid;not null;index:idx_class_posts_feed,priority:1" json:"class_room_id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null" json:"user_id"`
	User        User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Title       *string   `gorm:"size:200" json:"title,omitempty"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index:idx_class_posts_feed,priority:2" json:"created_at"`
}

func (p *ClassPost) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID, err = uuid.NewV7()
	}
	return
}

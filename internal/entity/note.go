package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const DefaultNoteTitle = "Untitled"

type Tag struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:50;uniqueIndex;not null" json:"name"`
}

type Note struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	User        User             `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Title       string           `gorm:"size:200;not null;default:Untitled" json:"title"`
	Content     string           `gorm:"type:text;not null" json:"content"`
	Pinned      bool             `gorm:"not null;default:false" json:"pinned"`
	IsPublic    bool             `gorm:"not null;default:false" json:"is_public"`
	ShareLink   string           `gorm:"size:8;uniqueIndex;not null" json:"share_link"`
	Tags        []Tag            `gorm:"many2many:note_tags;constraint:OnDelete:CASCADE" json:"tags"`
	Comments    []Comment        `gorm:"foreignKey:NoteID;constraint:OnDelete:CASCADE" json:"-"`
	Reactions   []Reaction       `gorm:"foreignKey:NoteID;constraint:OnDelete:CASCADE" json:"-"`
	Attachments []NoteAttachment `gorm:"foreignKey:NoteID;constraint:OnDelete:CASCADE" json:"attachments"`
	History     []NoteHistory    `gorm:"foreignKey:NoteID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (n *Note) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID, err = uuid.NewV7()
	}
	return
}

// NoteHistory keeps the content a note had before an update.
type NoteHistory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	NoteID    uuid.UUID `gorm:"type:uuid;not null;index" json:"note_id"`
	Title     string    `gorm:"size:200" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// NoteAttachment stays unlinked (NoteID nil) between upload and note creation.
type NoteAttachment struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	User      User       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	NoteID    *uuid.UUID `gorm:"type:uuid;index" json:"note_id,omitempty"`
	FileName  string     `gorm:"size:255;not null" json:"file_name"`
	FileURL   string     `gorm:"type:text;not null" json:"file_url"`
	MimeType  string     `gorm:"size:100" json:"mime_type"`
	Size      int64      `json:"size"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}

type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	NoteID    uuid.UUID `gorm:"type:uuid;not null;index" json:"note_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null" json:"user_id"`
	User      User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ParentID  *uint     `gorm:"index" json:"parent_id,omitempty"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

const (
	ReactionLike    = "like"
	ReactionDislike = "dislike"
)

// Reaction has no unique key on (user, note); the note service keeps one row per pair.
type Reaction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_reactions_lookup,priority:2" json:"user_id"`
	User      User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	NoteID    uuid.UUID `gorm:"type:uuid;not null;index:idx_reactions_lookup,priority:1" json:"note_id"`
	Type      string    `gorm:"size:10;not null" json:"type"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

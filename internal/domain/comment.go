package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const MaxCommentLength = 1000

type Comment struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	UserID    uuid.UUID `json:"userId" gorm:"type:uuid;not null"`
	ImageID   uuid.UUID `json:"imageId" gorm:"type:uuid;not null;index"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`

	// Relations
	Author *User `json:"author,omitempty" gorm:"foreignKey:UserID"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func ValidateCommentContent(content string) error {
	switch n := utf8.RuneCountInString(strings.TrimSpace(content)); {
	case n == 0:
		return ErrContentRequired
	case n > MaxCommentLength:
		return ErrContentTooLong
	}
	return nil
}

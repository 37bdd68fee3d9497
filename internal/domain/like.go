package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Like is unique per (user, image); the composite index is what keeps two
// concurrent toggles from both inserting.
type Like struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	UserID    uuid.UUID `json:"userId" gorm:"type:uuid;not null;uniqueIndex:idx_likes_user_image"`
	ImageID   uuid.UUID `json:"imageId" gorm:"type:uuid;not null;uniqueIndex:idx_likes_user_image;index"`
	CreatedAt time.Time `json:"createdAt"`
}

func (l *Like) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const MaxCaptionLength = 255

// ImageMeta holds details about the stored blobs that are not needed for
// listing but are useful when auditing the bucket.
type ImageMeta struct {
	Format               string `json:"format"`
	ContentType          string `json:"contentType"`
	Size                 int64  `json:"size"`
	ThumbnailContentType string `json:"thumbnailContentType"`
	ThumbnailSize        int64  `json:"thumbnailSize"`
}

type Image struct {
	ID            uuid.UUID                     `json:"id" gorm:"type:uuid;primary_key"`
	Caption       string                        `json:"caption" gorm:"size:255;not null"`
	Name          string                        `json:"name" gorm:"not null"`
	Path          string                        `json:"path" gorm:"not null"`
	ThumbnailPath string                        `json:"thumbnailPath" gorm:"not null"`
	Width         int                           `json:"width" gorm:"not null;default:1"`
	Height        int                           `json:"height" gorm:"not null;default:1"`
	Meta          datatypes.JSONType[ImageMeta] `json:"meta"`
	UserID        uuid.UUID                     `json:"userId" gorm:"type:uuid;not null;index"`
	CreatedAt     time.Time                     `json:"createdAt" gorm:"index"`

	// Computed by gallery queries, never persisted
	LikeCount    int64 `json:"likes" gorm:"->;-:migration"`
	CommentCount int64 `json:"comments" gorm:"->;-:migration"`
	IsLiked      bool  `json:"isLiked" gorm:"->;-:migration"`

	// Relations
	Owner *User `json:"owner,omitempty" gorm:"foreignKey:UserID"`
}

func (i *Image) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Ratio is width over height. Width and height are stored as at least 1.
func (i *Image) Ratio() float64 {
	if i.Height == 0 {
		return float64(i.Width)
	}
	return float64(i.Width) / float64(i.Height)
}

func ValidateCaption(caption string) error {
	switch n := utf8.RuneCountInString(strings.TrimSpace(caption)); {
	case n == 0:
		return ErrCaptionRequired
	case n > MaxCaptionLength:
		return ErrCaptionTooLong
	}
	return nil
}

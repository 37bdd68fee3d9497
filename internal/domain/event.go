package domain

import "github.com/google/uuid"

type GalleryEventType string

const (
	EventImageUploaded  GalleryEventType = "IMAGE_UPLOADED"
	EventImageDeleted   GalleryEventType = "IMAGE_DELETED"
	EventLikeToggled    GalleryEventType = "LIKE_TOGGLED"
	EventCommentAdded   GalleryEventType = "COMMENT_ADDED"
	EventCommentDeleted GalleryEventType = "COMMENT_DELETED"
)

// GalleryEvent describes a change that connected clients may want to
// reflect without refetching the whole gallery.
type GalleryEvent struct {
	Type      GalleryEventType `json:"-"`
	ImageID   uuid.UUID        `json:"imageId"`
	UserID    uuid.UUID        `json:"userId"`
	CommentID *uuid.UUID       `json:"commentId,omitempty"`
	Liked     *bool            `json:"liked,omitempty"`
	Likes     *int64           `json:"likes,omitempty"`
}

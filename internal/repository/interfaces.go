package repository

import (
	"context"

	"github.com/dom/photo-gallery/internal/domain"
	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

type ImageRepository interface {
	Create(ctx context.Context, image *domain.Image) error
	// GetByID preloads the owner.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Image, error)
	// Delete removes the image together with its likes and comments.
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
	// ListPage returns images newest first with like/comment counts and
	// IsLiked computed for viewerID. uuid.Nil matches no likes.
	ListPage(ctx context.Context, viewerID uuid.UUID, limit, offset int) ([]*domain.Image, error)
}

type LikeRepository interface {
	Create(ctx context.Context, like *domain.Like) error
	GetByUserAndImage(ctx context.Context, userID, imageID uuid.UUID) (*domain.Like, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountByImage(ctx context.Context, imageID uuid.UUID) (int64, error)
}

type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	// GetByID preloads the author.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountByImage(ctx context.Context, imageID uuid.UUID) (int64, error)
	ListByImage(ctx context.Context, imageID uuid.UUID, limit, offset int) ([]*domain.Comment, error)
}

type Repositories struct {
	User    UserRepository
	Image   ImageRepository
	Like    LikeRepository
	Comment CommentRepository
}

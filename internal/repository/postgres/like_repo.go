package postgres

import (
	"context"

	"github.com/dom/photo-gallery/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type likeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(db *gorm.DB) *likeRepository {
	return &likeRepository{db: db}
}

// Create returns gorm.ErrDuplicatedKey when the user already likes the image.
func (r *likeRepository) Create(ctx context.Context, like *domain.Like) error {
	return r.db.WithContext(ctx).Create(like).Error
}

func (r *likeRepository) GetByUserAndImage(ctx context.Context, userID, imageID uuid.UUID) (*domain.Like, error) {
	var like domain.Like
	err := r.db.WithContext(ctx).
		First(&like, "user_id = ? AND image_id = ?", userID, imageID).Error
	if err != nil {
		return nil, err
	}
	return &like, nil
}

func (r *likeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Like{}, "id = ?", id).Error
}

func (r *likeRepository) CountByImage(ctx context.Context, imageID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Like{}).Where("image_id = ?", imageID).Count(&count).Error
	return count, err
}

package postgres

import (
	"context"

	"github.com/dom/photo-gallery/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const galleryColumns = `images.*,
	(SELECT COUNT(*) FROM likes WHERE likes.image_id = images.id) AS like_count,
	(SELECT COUNT(*) FROM comments WHERE comments.image_id = images.id) AS comment_count,
	EXISTS (SELECT 1 FROM likes WHERE likes.image_id = images.id AND likes.user_id = ?) AS is_liked`

type imageRepository struct {
	db *gorm.DB
}

func NewImageRepository(db *gorm.DB) *imageRepository {
	return &imageRepository{db: db}
}

func (r *imageRepository) Create(ctx context.Context, image *domain.Image) error {
	return r.db.WithContext(ctx).Create(image).Error
}

func (r *imageRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Image, error) {
	var image domain.Image
	err := r.db.WithContext(ctx).
		Preload("Owner").
		First(&image, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &image, nil
}

func (r *imageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&domain.Like{}, "image_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&domain.Comment{}, "image_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&domain.Image{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *imageRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Image{}).Count(&count).Error
	return count, err
}

func (r *imageRepository) ListPage(ctx context.Context, viewerID uuid.UUID, limit, offset int) ([]*domain.Image, error) {
	var images []*domain.Image
	err := r.db.WithContext(ctx).
		Select(galleryColumns, viewerID).
		Preload("Owner").
		Order("images.created_at DESC").
		Order("images.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&images).Error
	if err != nil {
		return nil, err
	}
	return images, nil
}

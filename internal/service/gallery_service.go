package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"strings"
	"time"

	"github.com/dom/photo-gallery/internal/clock"
	"github.com/dom/photo-gallery/internal/domain"
	"github.com/dom/photo-gallery/internal/imageproc"
	"github.com/dom/photo-gallery/internal/repository"
	"github.com/dom/photo-gallery/internal/storage"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ImagesPerPage   = 20
	CommentsPerPage = 10

	ThumbnailWidth = 450

	OriginalsFolder  = "originals"
	ThumbnailsFolder = "thumbnails"

	thumbnailContentType = "image/webp"
)

var (
	ErrImageNotFound    = errors.New("image not found")
	ErrCommentNotFound  = errors.New("comment not found")
	ErrNotImageOwner    = errors.New("you are not the owner of this image")
	ErrNotCommentAuthor = errors.New("you are not the owner of this comment")
)

// Notifier receives gallery changes after they are committed.
type Notifier interface {
	Notify(event domain.GalleryEvent)
}

type GalleryService struct {
	imageRepo   repository.ImageRepository
	likeRepo    repository.LikeRepository
	commentRepo repository.CommentRepository
	store       storage.ObjectStore
	processor   imageproc.Processor
	clock       clock.Clock
	bucket      string
	notifier    Notifier
}

func NewGalleryService(
	repos *repository.Repositories,
	store storage.ObjectStore,
	processor imageproc.Processor,
	clk clock.Clock,
	bucket string,
) *GalleryService {
	return &GalleryService{
		imageRepo:   repos.Image,
		likeRepo:    repos.Like,
		commentRepo: repos.Comment,
		store:       store,
		processor:   processor,
		clock:       clk,
		bucket:      bucket,
	}
}

// SetNotifier registers the receiver of gallery events.
func (s *GalleryService) SetNotifier(n Notifier) {
	s.notifier = n
}

func (s *GalleryService) notify(event domain.GalleryEvent) {
	if s.notifier != nil {
		s.notifier.Notify(event)
	}
}

func (s *GalleryService) Bucket() string {
	return s.bucket
}

type Author struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

type GalleryImage struct {
	ID           uuid.UUID `json:"id"`
	Caption      string    `json:"caption"`
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	Ratio        float64   `json:"ratio"`
	IsLiked      bool      `json:"isLiked"`
	Likes        int64     `json:"likes"`
	Comments     int64     `json:"comments"`
	Owner        Author    `json:"owner"`
	CreatedAt    time.Time `json:"createdAt"`
}

type GalleryPage struct {
	Total  int64
	Limit  int
	Page   int
	Images []GalleryImage
}

type CommentView struct {
	ID        uuid.UUID `json:"id"`
	Content   string    `json:"content"`
	Author    Author    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}

type CommentPage struct {
	Total    int64
	Limit    int
	Page     int
	Comments []CommentView
}

type LikeResult struct {
	Liked bool  `json:"liked"`
	Likes int64 `json:"likes"`
}

type UploadInput struct {
	Data        []byte
	FileName    string
	ContentType string
	Caption     string
	OwnerID     uuid.UUID
}

func (s *GalleryService) Upload(ctx context.Context, input UploadInput) (*GalleryImage, error) {
	if err := domain.ValidateCaption(input.Caption); err != nil {
		return nil, err
	}

	if err := s.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}

	name := s.objectName(input.FileName)
	owner := input.OwnerID.String()
	originalPath := path.Join(owner, OriginalsFolder, name)
	thumbnailPath := path.Join(owner, ThumbnailsFolder, name)

	var thumbnailSize int64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.store.PutObject(gctx, s.bucket, originalPath, input.Data, input.ContentType); err != nil {
			return fmt.Errorf("store original: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		thumb, err := s.thumbnail(input.Data)
		if err != nil {
			return err
		}
		thumbnailSize = int64(len(thumb))
		if err := s.store.PutObject(gctx, s.bucket, thumbnailPath, thumb, thumbnailContentType); err != nil {
			return fmt.Errorf("store thumbnail: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Printf("ERROR [gallery.Upload] owner=%s name=%s: %v (blobs already written are left in place)", owner, name, err)
		return nil, err
	}

	meta, err := s.processor.Metadata(input.Data)
	if err != nil {
		return nil, fmt.Errorf("read image metadata: %w", err)
	}

	image := &domain.Image{
		ID:            uuid.New(),
		Caption:       strings.TrimSpace(input.Caption),
		Name:          name,
		Path:          originalPath,
		ThumbnailPath: thumbnailPath,
		Width:         atLeastOne(meta.Width),
		Height:        atLeastOne(meta.Height),
		Meta: datatypes.NewJSONType(domain.ImageMeta{
			Format:               meta.Format,
			ContentType:          input.ContentType,
			Size:                 int64(len(input.Data)),
			ThumbnailContentType: thumbnailContentType,
			ThumbnailSize:        thumbnailSize,
		}),
		UserID:    input.OwnerID,
		CreatedAt: s.clock.Now(),
	}

	if err := s.imageRepo.Create(ctx, image); err != nil {
		log.Printf("ERROR [gallery.Upload] persisting image, orphaned blobs %s and %s: %v", originalPath, thumbnailPath, err)
		return nil, err
	}

	created, err := s.imageRepo.GetByID(ctx, image.ID)
	if err != nil {
		return nil, err
	}

	view, err := s.toGalleryImage(created)
	if err != nil {
		return nil, err
	}

	s.notify(domain.GalleryEvent{Type: domain.EventImageUploaded, ImageID: image.ID, UserID: input.OwnerID})

	return view, nil
}

func (s *GalleryService) thumbnail(data []byte) ([]byte, error) {
	resized, err := s.processor.Resize(data, ThumbnailWidth, 0)
	if err != nil {
		return nil, fmt.Errorf("resize thumbnail: %w", err)
	}
	webp, err := s.processor.ToWebP(resized)
	if err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return webp, nil
}

// ensureBucket runs on every upload; creating a bucket that a concurrent
// upload just created is not an error.
func (s *GalleryService) ensureBucket(ctx context.Context) error {
	exists, err := s.store.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if err := s.store.MakeBucket(ctx, s.bucket); err != nil {
		return err
	}
	return s.store.SetBucketPolicy(ctx, s.bucket, storage.PublicBucketPolicy(s.bucket))
}

func (s *GalleryService) objectName(fileName string) string {
	base := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	ext := path.Ext(base)
	stem := slug.Make(strings.TrimSuffix(base, ext))
	return fmt.Sprintf("%d-%s%s", s.clock.Now().UnixMilli(), stem, ext)
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func (s *GalleryService) Gallery(ctx context.Context, page int, viewerID uuid.UUID) (*GalleryPage, error) {
	total, err := s.imageRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	images, err := s.imageRepo.ListPage(ctx, viewerID, ImagesPerPage, (page-1)*ImagesPerPage)
	if err != nil {
		return nil, err
	}

	result := &GalleryPage{
		Total:  total,
		Limit:  ImagesPerPage,
		Page:   page,
		Images: make([]GalleryImage, 0, len(images)),
	}
	for _, image := range images {
		view, err := s.toGalleryImage(image)
		if err != nil {
			return nil, err
		}
		result.Images = append(result.Images, *view)
	}

	return result, nil
}

func (s *GalleryService) toGalleryImage(image *domain.Image) (*GalleryImage, error) {
	publicURL := s.store.PublicURL()
	url, err := storage.ObjectURL(publicURL, s.bucket, image.Path)
	if err != nil {
		return nil, err
	}
	thumbnailURL, err := storage.ObjectURL(publicURL, s.bucket, image.ThumbnailPath)
	if err != nil {
		return nil, err
	}

	view := &GalleryImage{
		ID:           image.ID,
		Caption:      image.Caption,
		URL:          url,
		ThumbnailURL: thumbnailURL,
		Ratio:        image.Ratio(),
		IsLiked:      image.IsLiked,
		Likes:        image.LikeCount,
		Comments:     image.CommentCount,
		Owner:        Author{ID: image.UserID},
		CreatedAt:    image.CreatedAt,
	}
	if image.Owner != nil {
		view.Owner.Username = image.Owner.Username
	}
	return view, nil
}

func (s *GalleryService) getImage(ctx context.Context, imageID uuid.UUID) (*domain.Image, error) {
	image, err := s.imageRepo.GetByID(ctx, imageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrImageNotFound
		}
		return nil, err
	}
	return image, nil
}

func (s *GalleryService) ToggleLike(ctx context.Context, imageID, userID uuid.UUID) (*LikeResult, error) {
	if _, err := s.getImage(ctx, imageID); err != nil {
		return nil, err
	}

	liked := true
	like, err := s.likeRepo.GetByUserAndImage(ctx, userID, imageID)
	switch {
	case err == nil:
		if err := s.likeRepo.Delete(ctx, like.ID); err != nil {
			return nil, err
		}
		liked = false
	case errors.Is(err, gorm.ErrRecordNotFound):
		err := s.likeRepo.Create(ctx, &domain.Like{
			ID:        uuid.New(),
			UserID:    userID,
			ImageID:   imageID,
			CreatedAt: s.clock.Now(),
		})
		// A concurrent toggle inserted first; the unique index kept one row.
		if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
	default:
		return nil, err
	}

	likes, err := s.likeRepo.CountByImage(ctx, imageID)
	if err != nil {
		return nil, err
	}

	s.notify(domain.GalleryEvent{
		Type:    domain.EventLikeToggled,
		ImageID: imageID,
		UserID:  userID,
		Liked:   &liked,
		Likes:   &likes,
	})

	return &LikeResult{Liked: liked, Likes: likes}, nil
}

func (s *GalleryService) Comment(ctx context.Context, imageID, userID uuid.UUID, content string) (*CommentView, error) {
	if err := domain.ValidateCommentContent(content); err != nil {
		return nil, err
	}
	if _, err := s.getImage(ctx, imageID); err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		ID:        uuid.New(),
		Content:   strings.TrimSpace(content),
		UserID:    userID,
		ImageID:   imageID,
		CreatedAt: s.clock.Now(),
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	created, err := s.commentRepo.GetByID(ctx, comment.ID)
	if err != nil {
		return nil, err
	}

	s.notify(domain.GalleryEvent{
		Type:      domain.EventCommentAdded,
		ImageID:   imageID,
		UserID:    userID,
		CommentID: &comment.ID,
	})

	view := toCommentView(created)
	return &view, nil
}

func (s *GalleryService) Comments(ctx context.Context, page int, imageID uuid.UUID) (*CommentPage, error) {
	total, err := s.commentRepo.CountByImage(ctx, imageID)
	if err != nil {
		return nil, err
	}

	comments, err := s.commentRepo.ListByImage(ctx, imageID, CommentsPerPage, (page-1)*CommentsPerPage)
	if err != nil {
		return nil, err
	}

	result := &CommentPage{
		Total:    total,
		Limit:    CommentsPerPage,
		Page:     page,
		Comments: make([]CommentView, 0, len(comments)),
	}
	for _, c := range comments {
		result.Comments = append(result.Comments, toCommentView(c))
	}
	return result, nil
}

func toCommentView(c *domain.Comment) CommentView {
	view := CommentView{
		ID:        c.ID,
		Content:   c.Content,
		Author:    Author{ID: c.UserID},
		CreatedAt: c.CreatedAt,
	}
	if c.Author != nil {
		view.Author.Username = c.Author.Username
	}
	return view
}

func (s *GalleryService) DeleteComment(ctx context.Context, commentID, userID uuid.UUID) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return err
	}
	if comment.UserID != userID {
		return ErrNotCommentAuthor
	}

	if err := s.commentRepo.Delete(ctx, commentID); err != nil {
		return err
	}

	s.notify(domain.GalleryEvent{
		Type:      domain.EventCommentDeleted,
		ImageID:   comment.ImageID,
		UserID:    userID,
		CommentID: &commentID,
	})
	return nil
}

// DeleteImage removes the row and both blobs concurrently. A blob that fails
// to delete is left behind and only logged.
func (s *GalleryService) DeleteImage(ctx context.Context, imageID, userID uuid.UUID) error {
	image, err := s.getImage(ctx, imageID)
	if err != nil {
		return err
	}
	if image.UserID != userID {
		return ErrNotImageOwner
	}

	// A failed blob removal must not cancel the row delete; orphan blobs are
	// tolerated, rows pointing at missing blobs are not.
	var g errgroup.Group
	g.Go(func() error {
		return s.imageRepo.Delete(ctx, imageID)
	})
	for _, p := range []string{image.Path, image.ThumbnailPath} {
		p := p
		g.Go(func() error {
			if err := s.store.RemoveObject(ctx, s.bucket, p); err != nil {
				return fmt.Errorf("remove %s: %w", p, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Printf("ERROR [gallery.DeleteImage] imageID=%s: %v", imageID, err)
		return err
	}

	s.notify(domain.GalleryEvent{Type: domain.EventImageDeleted, ImageID: imageID, UserID: userID})
	return nil
}

package service

import (
	"github.com/dom/photo-gallery/internal/cache"
	"github.com/dom/photo-gallery/internal/clock"
	"github.com/dom/photo-gallery/internal/config"
	"github.com/dom/photo-gallery/internal/imageproc"
	"github.com/dom/photo-gallery/internal/repository"
	"github.com/dom/photo-gallery/internal/storage"
)

type Services struct {
	Auth    *AuthService
	Gallery *GalleryService
}

type Deps struct {
	Repos     *repository.Repositories
	Sessions  cache.Store
	Store     storage.ObjectStore
	Processor imageproc.Processor
	Clock     clock.Clock
}

func NewServices(deps Deps, cfg *config.Config) *Services {
	return &Services{
		Auth:    NewAuthService(deps.Repos.User, deps.Sessions),
		Gallery: NewGalleryService(deps.Repos, deps.Store, deps.Processor, deps.Clock, cfg.Bucket),
	}
}

package api

import (
	"net/http"

	"github.com/dom/photo-gallery/internal/api/handlers"
	"github.com/dom/photo-gallery/internal/api/middleware"
	"github.com/dom/photo-gallery/internal/config"
	"github.com/dom/photo-gallery/internal/service"
	"github.com/dom/photo-gallery/internal/websocket"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(services *service.Services, hub *websocket.Hub, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	cookies := middleware.NewCookieOptions(cfg.HTTPS)

	// Global middleware
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.AppURL},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.ResolveSession(services.Auth, cookies))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(services.Auth, cookies)
	galleryHandler := handlers.NewGalleryHandler(services.Gallery, cfg.MaxUploadBytes)
	wsHandler := handlers.NewWebSocketHandler(hub, cfg.AppURL)

	authLimiter := middleware.NewRateLimiter(cfg.AuthRateLimitPerMinute)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(authLimiter.Handler).Post("/register", authHandler.Register)
			r.With(authLimiter.Handler).Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.Get("/me", authHandler.Me)
		})

		r.Route("/gallery", func(r chi.Router) {
			r.Use(middleware.RequireSession)

			r.Get("/", galleryHandler.List)
			r.Post("/upload", galleryHandler.Upload)
			r.Get("/live", wsHandler.Handle)
			r.Delete("/comments/{commentId}", galleryHandler.DeleteComment)
			r.Delete("/{imageId}", galleryHandler.Delete)
			r.Post("/{imageId}/like", galleryHandler.ToggleLike)
			r.Get("/{imageId}/comments", galleryHandler.Comments)
			r.Post("/{imageId}/comments", galleryHandler.Comment)
		})
	})

	return r
}

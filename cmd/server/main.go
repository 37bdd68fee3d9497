package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dom/photo-gallery/internal/api"
	"github.com/dom/photo-gallery/internal/cache"
	"github.com/dom/photo-gallery/internal/clock"
	"github.com/dom/photo-gallery/internal/config"
	"github.com/dom/photo-gallery/internal/imageproc"
	"github.com/dom/photo-gallery/internal/repository/postgres"
	"github.com/dom/photo-gallery/internal/service"
	"github.com/dom/photo-gallery/internal/storage"
	"github.com/dom/photo-gallery/internal/websocket"
	"gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Initialize database
	logLevel := logger.Info
	if cfg.IsProduction() {
		logLevel = logger.Warn
	}
	db, err := postgres.NewConnection(cfg.DatabaseURL, logLevel)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	// Initialize session cache
	startCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	redisClient, err := cache.NewRedisClient(startCtx, cfg.RedisURL)
	cancel()
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	// Initialize object store
	store, err := storage.NewMinioStore(storage.MinioConfig{
		Endpoint:  cfg.MinioEndpoint,
		Port:      cfg.MinioPort,
		UseSSL:    cfg.MinioSSL,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		PublicURL: cfg.MinioPublicURL,
	})
	if err != nil {
		log.Fatalf("failed to create object store: %v", err)
	}

	// Initialize services
	services := service.NewServices(service.Deps{
		Repos:     postgres.NewRepositories(db),
		Sessions:  cache.NewRedisStore(redisClient, cfg.CacheNamespace),
		Store:     store,
		Processor: imageproc.NewImaging(),
		Clock:     clock.Real{},
	}, cfg)

	// Initialize WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()
	services.Gallery.SetNotifier(hub)

	// Initialize router
	router := api.NewRouter(services, hub, cfg)

	// Uploads can take a while on slow links
	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Session refreshes run detached from requests and are not awaited here;
	// one in flight at exit is dropped and the entry keeps its previous TTL.
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}
	hub.Stop()

	log.Println("Server stopped")
}

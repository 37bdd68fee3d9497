package testutil

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dom/photo-gallery/internal/api"
	"github.com/dom/photo-gallery/internal/cache"
	"github.com/dom/photo-gallery/internal/clock"
	"github.com/dom/photo-gallery/internal/config"
	"github.com/dom/photo-gallery/internal/imageproc"
	"github.com/dom/photo-gallery/internal/repository"
	repoPostgres "github.com/dom/photo-gallery/internal/repository/postgres"
	"github.com/dom/photo-gallery/internal/service"
	"github.com/dom/photo-gallery/internal/storage"
	"github.com/dom/photo-gallery/internal/websocket"
	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Epoch is the time the stub clock starts at in tests
var Epoch = time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

// TestDB wraps a migrated database, either in-memory SQLite or a
// testcontainers PostgreSQL instance
type TestDB struct {
	Container testcontainers.Container
	DB        *gorm.DB
	DSN       string
}

// NewTestDB opens a private in-memory SQLite database with the schema applied
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// One connection keeps the in-memory database alive and serializes writers
	sqlDB.SetMaxOpenConns(1)

	if err := repoPostgres.Migrate(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	testDB := &TestDB{DB: db, DSN: dsn}
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return testDB
}

// NewPostgresDB starts a PostgreSQL testcontainer and returns a migrated
// connection. It is skipped in short mode.
func NewPostgresDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}

	ctx := context.Background()

	container, err := tcPostgres.Run(ctx,
		"postgres:15-alpine",
		tcPostgres.WithDatabase("test_gallery"),
		tcPostgres.WithUsername("test"),
		tcPostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	db, err := repoPostgres.NewConnection(dsn, logger.Silent)
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}

	testDB := &TestDB{
		Container: container,
		DB:        db,
		DSN:       dsn,
	}

	t.Cleanup(func() {
		testDB.Cleanup()
	})

	return testDB
}

// Cleanup terminates the container, if any
func (tdb *TestDB) Cleanup() {
	if tdb.Container != nil {
		tdb.Container.Terminate(context.Background())
	}
}

// Truncate clears all tables for test isolation
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()

	for _, table := range []string{"comments", "likes", "images", "users"} {
		if err := tdb.DB.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
			t.Logf("warning: failed to truncate %s: %v", table, err)
		}
	}
}

// TestConfig returns a configuration suitable for testing
func TestConfig() *config.Config {
	return &config.Config{
		Port:                   "0",
		Environment:            "test",
		AppURL:                 "http://localhost:5173",
		MinioPublicURL:         "http://localhost:9000",
		Bucket:                 "gallery",
		MaxUploadBytes:         1 << 20,
		AuthRateLimitPerMinute: 1000,
	}
}

// TestServer holds all components for integration testing
type TestServer struct {
	Server    *httptest.Server
	DB        *TestDB
	Repos     *repository.Repositories
	Services  *service.Services
	Hub       *websocket.Hub
	Config    *config.Config
	Sessions  *cache.MemoryStore
	Store     *storage.MemoryStore
	Processor *imageproc.Stub
	Clock     *clock.Stub
}

// NewTestServer creates a complete test server backed by SQLite and
// in-memory session and object stores
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	return NewTestServerWithConfig(t, TestConfig())
}

func NewTestServerWithConfig(t *testing.T, cfg *config.Config) *TestServer {
	t.Helper()

	testDB := NewTestDB(t)
	repos := repoPostgres.NewRepositories(testDB.DB)

	clk := clock.NewStub(Epoch)
	sessions := cache.NewMemoryStore()
	store := storage.NewMemoryStore(cfg.MinioPublicURL)
	processor := &imageproc.Stub{Width: 900, Height: 600, Format: "png"}

	services := service.NewServices(service.Deps{
		Repos:     repos,
		Sessions:  sessions,
		Store:     store,
		Processor: processor,
		Clock:     clk,
	}, cfg)

	hub := websocket.NewHub()
	go hub.Run()
	services.Gallery.SetNotifier(hub)

	router := api.NewRouter(services, hub, cfg)
	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:    server,
		DB:        testDB,
		Repos:     repos,
		Services:  services,
		Hub:       hub,
		Config:    cfg,
		Sessions:  sessions,
		Store:     store,
		Processor: processor,
		Clock:     clk,
	}

	t.Cleanup(func() {
		server.Close()
		hub.Stop()
	})

	return ts
}

// BaseURL returns the test server's base URL
func (ts *TestServer) BaseURL() string {
	return ts.Server.URL
}

// APIURL returns the full API URL for a given path
func (ts *TestServer) APIURL(path string) string {
	return fmt.Sprintf("%s/v1%s", ts.Server.URL, path)
}

// LiveURL returns the WebSocket URL of the live gallery feed
func (ts *TestServer) LiveURL() string {
	return "ws" + strings.TrimPrefix(ts.Server.URL, "http") + "/v1/gallery/live"
}

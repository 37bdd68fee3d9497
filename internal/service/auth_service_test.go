package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dom/photo-gallery/internal/cache"
	"github.com/dom/photo-gallery/internal/domain"
	"github.com/dom/photo-gallery/internal/repository/postgres"
	"github.com/dom/photo-gallery/internal/service"
	"github.com/dom/photo-gallery/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) (*service.AuthService, *testutil.TestDB, *cache.MemoryStore) {
	t.Helper()
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	sessions := cache.NewMemoryStore()
	return service.NewAuthService(repos.User, sessions), testDB, sessions
}

func TestAuthService_Register(t *testing.T) {
	authService, testDB, sessions := newAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		input   service.RegisterInput
		setup   func()
		wantErr error
	}{
		{
			name: "successful registration",
			input: service.RegisterInput{
				Username: "newuser",
				Password: "password123",
			},
		},
		{
			name: "duplicate username",
			input: service.RegisterInput{
				Username: "existinguser",
				Password: "password123",
			},
			setup: func() {
				testutil.NewUserBuilder().
					WithUsername("existinguser").
					Build(t, testDB.DB)
			},
			wantErr: service.ErrUsernameTaken,
		},
		{
			name: "password longer than 72 bytes",
			input: service.RegisterInput{
				Username: "longpassword",
				Password: strings.Repeat("p", 73),
			},
			wantErr: domain.ErrPasswordTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testDB.Truncate(t)

			if tt.setup != nil {
				tt.setup()
			}

			result, err := authService.Register(ctx, tt.input)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.input.Username, result.User.Username)
			assert.NotEmpty(t, result.SessionID)

			var cached domain.SessionUser
			ok, err := sessions.Get(ctx, service.SessionKey(result.SessionID), &cached)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, result.User, cached)
		})
	}
}

func TestAuthService_RegisterStoresHash(t *testing.T) {
	authService, testDB, _ := newAuthService(t)
	ctx := context.Background()

	_, err := authService.Register(ctx, service.RegisterInput{Username: "hashme", Password: "plaintext"})
	require.NoError(t, err)

	var user domain.User
	require.NoError(t, testDB.DB.Where("username = ?", "hashme").First(&user).Error)
	assert.NotEqual(t, "plaintext", user.PasswordHash)
	assert.Contains(t, user.PasswordHash, "$2a$10$")
}

func TestAuthService_Login(t *testing.T) {
	authService, testDB, sessions := newAuthService(t)
	ctx := context.Background()

	_, password := testutil.NewUserBuilder().
		WithUsername("loginuser").
		WithPassword("correctpassword").
		Build(t, testDB.DB)

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{name: "successful login", username: "loginuser", password: password},
		{name: "wrong password", username: "loginuser", password: "wrongpassword", wantErr: service.ErrInvalidCredentials},
		{name: "unknown user", username: "nobody", password: "whatever", wantErr: service.ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := authService.Login(ctx, service.LoginInput{
				Username: tt.username,
				Password: tt.password,
			})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, result)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "loginuser", result.User.Username)
			assert.InDelta(t, service.SessionTTL.Seconds(), sessions.TTL(service.SessionKey(result.SessionID)).Seconds(), 5)
		})
	}
}

func TestAuthService_LoginCreatesDistinctSessions(t *testing.T) {
	authService, testDB, _ := newAuthService(t)
	ctx := context.Background()

	user, password := testutil.NewUserBuilder().Build(t, testDB.DB)

	first, err := authService.Login(ctx, service.LoginInput{Username: user.Username, Password: password})
	require.NoError(t, err)
	second, err := authService.Login(ctx, service.LoginInput{Username: user.Username, Password: password})
	require.NoError(t, err)

	assert.NotEqual(t, first.SessionID, second.SessionID)
}

func TestAuthService_GetUserAndLogout(t *testing.T) {
	authService, testDB, _ := newAuthService(t)
	ctx := context.Background()

	user, password := testutil.NewUserBuilder().Build(t, testDB.DB)
	result, err := authService.Login(ctx, service.LoginInput{Username: user.Username, Password: password})
	require.NoError(t, err)

	got, err := authService.GetUser(ctx, result.SessionID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, user.Username, got.Username)

	require.NoError(t, authService.Logout(ctx, result.SessionID))

	got, err = authService.GetUser(ctx, result.SessionID)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Logging out twice is not an error
	require.NoError(t, authService.Logout(ctx, result.SessionID))
}

func TestAuthService_RefreshSession(t *testing.T) {
	authService, testDB, sessions := newAuthService(t)
	ctx := context.Background()

	now := testutil.Epoch
	sessions.WithClock(func() time.Time { return now })

	user, password := testutil.NewUserBuilder().Build(t, testDB.DB)
	result, err := authService.Login(ctx, service.LoginInput{Username: user.Username, Password: password})
	require.NoError(t, err)

	now = now.Add(6 * 24 * time.Hour)
	assert.Equal(t, 24*time.Hour, sessions.TTL(service.SessionKey(result.SessionID)))

	refreshed, err := authService.RefreshSession(ctx, result.SessionID)
	require.NoError(t, err)
	assert.Equal(t, result.User, refreshed.User)
	assert.Equal(t, service.SessionTTL, sessions.TTL(service.SessionKey(result.SessionID)))

	_, err = authService.RefreshSession(ctx, "missing")
	assert.ErrorIs(t, err, service.ErrInvalidSession)
}

func TestAuthService_SessionExpires(t *testing.T) {
	authService, testDB, sessions := newAuthService(t)
	ctx := context.Background()

	now := testutil.Epoch
	sessions.WithClock(func() time.Time { return now })

	user, password := testutil.NewUserBuilder().Build(t, testDB.DB)
	result, err := authService.Login(ctx, service.LoginInput{Username: user.Username, Password: password})
	require.NoError(t, err)

	now = now.Add(service.SessionTTL)

	got, err := authService.GetUser(ctx, result.SessionID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

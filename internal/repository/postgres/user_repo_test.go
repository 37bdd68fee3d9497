package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/dom/photo-gallery/internal/domain"
	"github.com/dom/photo-gallery/internal/repository/postgres"
	"github.com/dom/photo-gallery/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestUserRepository_Create(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(testDB.DB)
	ctx := context.Background()

	tests := []struct {
		name    string
		user    *domain.User
		wantErr error
	}{
		{
			name: "successful creation",
			user: &domain.User{
				ID:           uuid.New(),
				Username:     "testuser",
				PasswordHash: "hashedpassword",
				CreatedAt:    time.Now(),
			},
		},
		{
			name: "duplicate username",
			user: &domain.User{
				ID:           uuid.New(),
				Username:     "testuser", // Same as above
				PasswordHash: "hashedpassword2",
				CreatedAt:    time.Now(),
			},
			wantErr: gorm.ErrDuplicatedKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Create(ctx, tt.user)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestUserRepository_CreateAssignsID(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(testDB.DB)

	user := &domain.User{Username: "noid", PasswordHash: "hash"}
	require.NoError(t, repo.Create(context.Background(), user))
	assert.NotEqual(t, uuid.Nil, user.ID)
}

func TestUserRepository_GetByID(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().
		WithUsername("getbyid_user").
		Build(t, testDB.DB)

	tests := []struct {
		name    string
		id      uuid.UUID
		want    *domain.User
		wantErr bool
	}{
		{
			name: "existing user",
			id:   user.ID,
			want: user,
		},
		{
			name:    "non-existent user",
			id:      uuid.New(),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.GetByID(ctx, tt.id)
			if tt.wantErr {
				assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want.ID, got.ID)
			assert.Equal(t, tt.want.Username, got.Username)
		})
	}
}

func TestUserRepository_GetByUsername(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().
		WithUsername("username_user").
		Build(t, testDB.DB)

	tests := []struct {
		name     string
		username string
		want     *domain.User
		wantErr  bool
	}{
		{
			name:     "existing user",
			username: "username_user",
			want:     user,
		},
		{
			name:     "non-existent user",
			username: "nonexistent",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.GetByUsername(ctx, tt.username)
			if tt.wantErr {
				assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want.ID, got.ID)
			assert.Equal(t, tt.want.PasswordHash, got.PasswordHash)
		})
	}
}

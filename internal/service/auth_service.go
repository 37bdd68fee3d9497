package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dom/photo-gallery/internal/cache"
	"github.com/dom/photo-gallery/internal/domain"
	"github.com/dom/photo-gallery/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SessionTTL is the lifetime of a session entry. Every authenticated request
// restarts it.
const SessionTTL = 7 * 24 * time.Hour

const passwordCost = 10

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidSession     = errors.New("invalid session")
)

func SessionKey(sessionID string) string {
	return "session:" + sessionID
}

type AuthService struct {
	userRepo repository.UserRepository
	sessions cache.Store
}

func NewAuthService(userRepo repository.UserRepository, sessions cache.Store) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		sessions: sessions,
	}
}

type RegisterInput struct {
	Username string
	Password string
}

type LoginInput struct {
	Username string
	Password string
}

type AuthResult struct {
	SessionID string
	User      domain.SessionUser
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	_, err := s.userRepo.GetByUsername(ctx, input.Username)
	if err == nil {
		return nil, ErrUsernameTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), passwordCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, domain.ErrPasswordTooLong
		}
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.New(),
		Username:     input.Username,
		PasswordHash: string(hashedPassword),
		CreatedAt:    time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// Lost a race against a concurrent registration
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	return s.Login(ctx, LoginInput(input))
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	user, err := s.userRepo.GetByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	sessionID := uuid.New().String()
	sessionUser := user.SessionUser()

	if err := s.sessions.Set(ctx, SessionKey(sessionID), sessionUser, SessionTTL); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	return &AuthResult{SessionID: sessionID, User: sessionUser}, nil
}

// GetUser returns the identity cached for sessionID, or nil when the session
// does not exist.
func (s *AuthService) GetUser(ctx context.Context, sessionID string) (*domain.SessionUser, error) {
	var user domain.SessionUser
	ok, err := s.sessions.Get(ctx, SessionKey(sessionID), &user)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Del(ctx, SessionKey(sessionID))
}

// RefreshSession rewrites the session entry with a full TTL.
func (s *AuthService) RefreshSession(ctx context.Context, sessionID string) (*AuthResult, error) {
	key := SessionKey(sessionID)

	var user domain.SessionUser
	ok, err := s.sessions.Get(ctx, key, &user)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidSession
	}

	if err := s.sessions.Del(ctx, key); err != nil {
		return nil, err
	}
	if err := s.sessions.Set(ctx, key, user, SessionTTL); err != nil {
		return nil, err
	}

	return &AuthResult{SessionID: sessionID, User: user}, nil
}

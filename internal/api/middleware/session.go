package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/dom/photo-gallery/internal/domain"
	"github.com/dom/photo-gallery/internal/service"
)

type contextKey string

const (
	SessionKey contextKey = "session"

	SessionCookieName = "sessionId"

	refreshTimeout = 5 * time.Second
)

// Session is the identity resolved from the session cookie.
type Session struct {
	ID   string
	User domain.SessionUser
}

// CookieOptions controls the attributes of the session cookie.
type CookieOptions struct {
	Secure bool
}

func NewCookieOptions(https bool) CookieOptions {
	return CookieOptions{Secure: https}
}

func (o CookieOptions) cookie(value string, maxAge int) *http.Cookie {
	c := &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if o.Secure {
		c.Secure = true
		c.SameSite = http.SameSiteNoneMode
	}
	return c
}

func SetSessionCookie(w http.ResponseWriter, opts CookieOptions, sessionID string) {
	http.SetCookie(w, opts.cookie(sessionID, int(service.SessionTTL/time.Second)))
}

func ClearSessionCookie(w http.ResponseWriter, opts CookieOptions) {
	http.SetCookie(w, opts.cookie("", -1))
}

// SessionResolver is the part of the auth service the middleware needs.
type SessionResolver interface {
	GetUser(ctx context.Context, sessionID string) (*domain.SessionUser, error)
	RefreshSession(ctx context.Context, sessionID string) (*service.AuthResult, error)
}

// ResolveSession attaches the cookie's session to the request context when
// the cache still knows it. Requests without a valid session pass through
// unauthenticated. After the handler returns the session TTL is restarted in
// the background.
func ResolveSession(auth SessionResolver, opts CookieOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := auth.GetUser(r.Context(), cookie.Value)
			if err != nil {
				log.Printf("ERROR [middleware.ResolveSession] session lookup failed: %v", err)
				WriteError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			if user == nil {
				next.ServeHTTP(w, r)
				return
			}

			sessionID := cookie.Value
			SetSessionCookie(w, opts, sessionID)

			ctx := context.WithValue(r.Context(), SessionKey, &Session{ID: sessionID, User: *user})
			next.ServeHTTP(w, r.WithContext(ctx))

			go refresh(context.WithoutCancel(r.Context()), auth, sessionID)
		})
	}
}

func refresh(parent context.Context, auth SessionResolver, sessionID string) {
	ctx, cancel := context.WithTimeout(parent, refreshTimeout)
	defer cancel()

	// A missing entry means the handler logged the session out.
	if _, err := auth.RefreshSession(ctx, sessionID); err != nil && !errors.Is(err, service.ErrInvalidSession) {
		log.Printf("ERROR [middleware.refresh] failed to refresh session: %v", err)
	}
}

// RequireSession rejects requests that carry no resolved session.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetSession(r.Context()); !ok {
			log.Printf("WARN [middleware.RequireSession] unauthenticated request to %s", r.URL.String())
			WriteError(w, http.StatusForbidden, "Forbidden resource")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func GetSession(ctx context.Context) (*Session, bool) {
	session, ok := ctx.Value(SessionKey).(*Session)
	return session, ok && session != nil
}

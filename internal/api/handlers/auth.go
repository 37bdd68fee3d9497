package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/dom/photo-gallery/internal/api/middleware"
	"github.com/dom/photo-gallery/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
	cookies     middleware.CookieOptions
}

func NewAuthHandler(authService *service.AuthService, cookies middleware.CookieOptions) *AuthHandler {
	return &AuthHandler{authService: authService, cookies: cookies}
}

type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (CredentialsRequest, bool) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return req, false
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Username and password are required")
		return req, false
	}
	return req, true
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	result, err := h.authService.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, "handler.Register", err)
		return
	}

	middleware.SetSessionCookie(w, h.cookies, result.SessionID)
	writeJSON(w, http.StatusOK, dataResponse{Data: result.User})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	result, err := h.authService.Login(r.Context(), service.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, "handler.Login", err)
		return
	}

	middleware.SetSessionCookie(w, h.cookies, result.SessionID)
	writeJSON(w, http.StatusOK, dataResponse{Data: result.User})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		middleware.WriteError(w, http.StatusBadRequest, "No session found")
		return
	}

	if err := h.authService.Logout(r.Context(), session.ID); err != nil {
		log.Printf("ERROR [handler.Logout] session=%s: %v", session.ID, err)
		middleware.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	middleware.ClearSessionCookie(w, h.cookies)
	w.WriteHeader(http.StatusNoContent)
}

// Me reports the current user, or null when the request has no session.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, dataResponse{Data: nil})
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: session.User})
}

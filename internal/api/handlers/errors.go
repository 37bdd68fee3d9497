package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/dom/photo-gallery/internal/api/middleware"
	"github.com/dom/photo-gallery/internal/domain"
	"github.com/dom/photo-gallery/internal/imageproc"
	"github.com/dom/photo-gallery/internal/service"
)

type dataResponse struct {
	Data interface{} `json:"data"`
}

type pageResponse struct {
	Total int64       `json:"total"`
	Limit int         `json:"limit"`
	Page  int         `json:"page"`
	Data  interface{} `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

var errorStatus = []struct {
	err    error
	status int
}{
	{service.ErrImageNotFound, http.StatusNotFound},
	{service.ErrCommentNotFound, http.StatusNotFound},
	{service.ErrUserNotFound, http.StatusNotFound},
	{service.ErrUsernameTaken, http.StatusConflict},
	{service.ErrNotImageOwner, http.StatusUnauthorized},
	{service.ErrNotCommentAuthor, http.StatusUnauthorized},
	{service.ErrInvalidCredentials, http.StatusUnauthorized},
	{service.ErrInvalidSession, http.StatusBadRequest},
	{domain.ErrCaptionRequired, http.StatusBadRequest},
	{domain.ErrCaptionTooLong, http.StatusBadRequest},
	{domain.ErrContentRequired, http.StatusBadRequest},
	{domain.ErrContentTooLong, http.StatusBadRequest},
	{domain.ErrNotAnImage, http.StatusBadRequest},
	{domain.ErrPasswordTooLong, http.StatusBadRequest},
	{imageproc.ErrUnsupportedImage, http.StatusBadRequest},
}

// writeServiceError maps known errors to their status and message. Anything
// else is logged under op and reported as a 500.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			middleware.WriteError(w, e.status, e.err.Error())
			return
		}
	}

	log.Printf("ERROR [%s]: %v", op, err)
	middleware.WriteError(w, http.StatusInternalServerError, "Internal server error")
}

package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/dom/photo-gallery/internal/api/middleware"
	"github.com/dom/photo-gallery/internal/domain"
	"github.com/dom/photo-gallery/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const multipartMemory = 8 << 20

type GalleryHandler struct {
	galleryService *service.GalleryService
	maxUploadBytes int64
}

func NewGalleryHandler(galleryService *service.GalleryService, maxUploadBytes int64) *GalleryHandler {
	return &GalleryHandler{
		galleryService: galleryService,
		maxUploadBytes: maxUploadBytes,
	}
}

// parsePage reads ?page, defaulting to 1.
func parsePage(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 1, true
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, false
	}
	return page, true
}

func parseID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid "+param)
		return uuid.Nil, false
	}
	return id, true
}

func (h *GalleryHandler) List(w http.ResponseWriter, r *http.Request) {
	session, _ := middleware.GetSession(r.Context())

	page, ok := parsePage(r)
	if !ok {
		middleware.WriteError(w, http.StatusBadRequest, "page must be a positive integer")
		return
	}

	result, err := h.galleryService.Gallery(r.Context(), page, session.User.ID)
	if err != nil {
		writeServiceError(w, "handler.GalleryList", err)
		return
	}

	writeJSON(w, http.StatusOK, pageResponse{
		Total: result.Total,
		Limit: result.Limit,
		Page:  result.Page,
		Data:  result.Images,
	})
}

func (h *GalleryHandler) Upload(w http.ResponseWriter, r *http.Request) {
	session, _ := middleware.GetSession(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.WriteError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		middleware.WriteError(w, http.StatusBadRequest, "Invalid multipart body")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			middleware.WriteError(w, http.StatusBadRequest, "No file found")
			return
		}
		middleware.WriteError(w, http.StatusBadRequest, "Invalid file")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		writeServiceError(w, "handler.Upload", domain.ErrNotAnImage)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		log.Printf("ERROR [handler.Upload] reading file: %v", err)
		middleware.WriteError(w, http.StatusBadRequest, "Invalid file")
		return
	}

	image, err := h.galleryService.Upload(r.Context(), service.UploadInput{
		Data:        data,
		FileName:    header.Filename,
		ContentType: contentType,
		Caption:     r.FormValue("caption"),
		OwnerID:     session.User.ID,
	})
	if err != nil {
		writeServiceError(w, "handler.Upload", err)
		return
	}

	writeJSON(w, http.StatusOK, image)
}

func (h *GalleryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	session, _ := middleware.GetSession(r.Context())

	imageID, ok := parseID(w, r, "imageId")
	if !ok {
		return
	}

	if err := h.galleryService.DeleteImage(r.Context(), imageID, session.User.ID); err != nil {
		writeServiceError(w, "handler.DeleteImage", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *GalleryHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	session, _ := middleware.GetSession(r.Context())

	imageID, ok := parseID(w, r, "imageId")
	if !ok {
		return
	}

	result, err := h.galleryService.ToggleLike(r.Context(), imageID, session.User.ID)
	if err != nil {
		writeServiceError(w, "handler.ToggleLike", err)
		return
	}

	writeJSON(w, http.StatusOK, dataResponse{Data: result})
}

func (h *GalleryHandler) Comments(w http.ResponseWriter, r *http.Request) {
	imageID, ok := parseID(w, r, "imageId")
	if !ok {
		return
	}

	page, ok := parsePage(r)
	if !ok {
		middleware.WriteError(w, http.StatusBadRequest, "page must be a positive integer")
		return
	}

	result, err := h.galleryService.Comments(r.Context(), page, imageID)
	if err != nil {
		writeServiceError(w, "handler.Comments", err)
		return
	}

	writeJSON(w, http.StatusOK, pageResponse{
		Total: result.Total,
		Limit: result.Limit,
		Page:  result.Page,
		Data:  result.Comments,
	})
}

type CommentRequest struct {
	Content string `json:"content"`
}

func (h *GalleryHandler) Comment(w http.ResponseWriter, r *http.Request) {
	session, _ := middleware.GetSession(r.Context())

	imageID, ok := parseID(w, r, "imageId")
	if !ok {
		return
	}

	var req CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	comment, err := h.galleryService.Comment(r.Context(), imageID, session.User.ID, req.Content)
	if err != nil {
		writeServiceError(w, "handler.Comment", err)
		return
	}

	writeJSON(w, http.StatusCreated, dataResponse{Data: comment})
}

func (h *GalleryHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	session, _ := middleware.GetSession(r.Context())

	commentID, ok := parseID(w, r, "commentId")
	if !ok {
		return
	}

	if err := h.galleryService.DeleteComment(r.Context(), commentID, session.User.ID); err != nil {
		writeServiceError(w, "handler.DeleteComment", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

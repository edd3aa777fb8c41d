package handler

import (
	"errors"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"homefinder-client/internal/cache"
	"homefinder-client/pkg/apierror"
	"homefinder-client/pkg/response"
	"homefinder-client/pkg/uid"
)

const (
	// DefaultMaxUploadBytes limits one uploaded image.
	DefaultMaxUploadBytes = 5 << 20

	uploadTTL       = 24 * time.Hour
	uploadKeyPrefix = "upload:"
)

// UploadHandler stores uploaded images in the cache and serves them back.
type UploadHandler struct {
	cache    cache.Cache
	maxBytes int64
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(c cache.Cache, maxBytes int64) *UploadHandler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &UploadHandler{cache: c, maxBytes: maxBytes}
}

// Upload handles POST /api/upload with the file in the "image" field.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+1<<10)
	file, header, err := r.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(w, &apierror.Error{StatusCode: http.StatusRequestEntityTooLarge, Code: "PAYLOAD_TOO_LARGE", Message: "Image is too large"})
			return
		}
		response.Error(w, apierror.BadRequest("No image file provided"))
		return
	}
	defer file.Close()
	if header.Filename == "" {
		response.Error(w, apierror.BadRequest("No selected file"))
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		response.Error(w, apierror.BadRequest("failed to read image"))
		return
	}
	if int64(len(data)) > h.maxBytes {
		response.Error(w, &apierror.Error{StatusCode: http.StatusRequestEntityTooLarge, Code: "PAYLOAD_TOO_LARGE", Message: "Image is too large"})
		return
	}
	if !strings.HasPrefix(http.DetectContentType(data), "image/") {
		response.Error(w, apierror.BadRequest("File is not an image"))
		return
	}

	name := uid.New() + strings.ToLower(path.Ext(header.Filename))
	if err := h.cache.Set(r.Context(), uploadKeyPrefix+name, data, uploadTTL); err != nil {
		response.Error(w, apierror.InternalError("failed to store image"))
		return
	}
	response.OK(w, map[string]string{"secure_url": publicURL(r, "/uploads/"+name)})
}

// Serve handles GET /uploads/{name}
func (h *UploadHandler) Serve(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !uid.IsValid(strings.TrimSuffix(name, path.Ext(name))) {
		response.Error(w, apierror.NotFound("Image not found"))
		return
	}
	data, err := h.cache.Get(r.Context(), uploadKeyPrefix+name)
	if err != nil {
		response.Error(w, apierror.NotFound("Image not found"))
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(data)
}

func publicURL(r *http.Request, p string) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host + p
}

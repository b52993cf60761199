package api

import (
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/starford/daybook/internal/images"
	"github.com/starford/daybook/internal/journal"
)

const maxUploadBytes = images.MaxSize + 1<<20

// ImageHandler serves and accepts journal images.
type ImageHandler struct {
	svc *journal.Service
}

// NewImageHandler creates a handler backed by the journal's image store.
func NewImageHandler(svc *journal.Service) *ImageHandler {
	return &ImageHandler{svc: svc}
}

// ServeFile handles GET /images/{name}.
func (h *ImageHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	abs, err := h.svc.ImagePath(chi.URLParam(r, "name"))
	if err != nil {
		http.Error(w, "invalid image name", http.StatusBadRequest)
		return
	}
	if _, statErr := os.Stat(abs); os.IsNotExist(statErr) {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, abs)
}

// Upload handles POST /api/images (multipart/form-data, field "file").
//
//	@Summary		Upload an image
//	@Tags			images
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"Image file"
//	@Success		201		{object}	ImageUploadResponse
//	@Failure		400		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/images [post]
func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read upload"))
		return
	}

	name, err := h.svc.UploadImage(r.Context(), header.Filename, data)
	if err != nil {
		writeError(w, r, "upload image", err)
		return
	}
	writeJSON(w, http.StatusCreated, ImageUploadResponse{
		Filename: name,
		Size:     int64(len(data)),
		URL:      "/images/" + name,
	})
}

// Import handles POST /api/images/import.
//
//	@Summary		Copy a local image file into the journal
//	@Tags			images
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ImportImageRequest	true	"Source path"
//	@Success		201		{object}	ImageUploadResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/images/import [post]
func (h *ImageHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req ImportImageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	managed, err := h.svc.ImportImage(r.Context(), req.Path)
	if err != nil {
		writeError(w, r, "import image", err)
		return
	}
	name := filepath.Base(managed)
	writeJSON(w, http.StatusCreated, ImageUploadResponse{
		Filename: name,
		URL:      "/images/" + name,
		Path:     managed,
	})
}

// Reclaim handles DELETE /api/images/{name}. Orphan clean-up is not
// implemented yet, so this always answers 501.
//
//	@Summary		Reclaim an unreferenced image
//	@Tags			images
//	@Param			name	path	string	true	"Image name"
//	@Failure		501		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/images/{name} [delete]
func (h *ImageHandler) Reclaim(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ReclaimImage(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeError(w, r, "reclaim image", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

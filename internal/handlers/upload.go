package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/lehigh-university-libraries/scanlate/internal/images"
	"github.com/lehigh-university-libraries/scanlate/internal/models"
)

type rejection struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

type uploadResponse struct {
	Message  string      `json:"message"`
	Images   []string    `json:"images"`
	Rejected []rejection `json:"rejected,omitempty"`
	Source   string      `json:"source,omitempty"`
}

func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Check if this is a JSON request with image URL
	contentType := r.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		h.handleURLUpload(w, r)
		return
	}

	// Handle file upload
	h.handleFileUpload(w, r)
}

func (h *Handler) handleURLUpload(w http.ResponseWriter, r *http.Request) {
	var request struct {
		ImageURL string `json:"image_url"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	if request.ImageURL == "" {
		h.writeError(w, "image_url is required", http.StatusBadRequest)
		return
	}

	upload, err := h.fetcher.Fetch(r.Context(), request.ImageURL)
	if err != nil {
		h.writeError(w, "Failed to process image URL: "+err.Error(), http.StatusBadRequest)
		return
	}

	ids := h.store.AddImages(upload)
	h.writeJSON(w, uploadResponse{
		Message: "Successfully processed image from URL",
		Images:  ids,
		Source:  "url",
	})
}

func (h *Handler) handleFileUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, images.MaxFiles*(images.MaxFileSize+1<<20))
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.writeError(w, "Failed to read upload: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		files = r.MultipartForm.File["file"]
	}
	if len(files) == 0 {
		h.writeError(w, "No files uploaded", http.StatusBadRequest)
		return
	}
	if len(files) > images.MaxFiles {
		h.writeError(w, fmt.Sprintf("Too many files (max %d)", images.MaxFiles), http.StatusBadRequest)
		return
	}

	var uploads []models.Upload
	var rejected []rejection
	for _, header := range files {
		upload, err := readUpload(header)
		if err != nil {
			slog.Warn("Rejected upload", "name", header.Filename, "err", err)
			rejected = append(rejected, rejection{Name: header.Filename, Error: err.Error()})
			continue
		}
		uploads = append(uploads, upload)
	}

	if len(uploads) == 0 {
		messages := make([]string, 0, len(rejected))
		for _, rej := range rejected {
			messages = append(messages, rej.Error)
		}
		h.writeError(w, "Unable to add files: "+strings.Join(messages, "; "), http.StatusBadRequest)
		return
	}

	ids := h.store.AddImages(uploads...)
	slog.Info("Images uploaded", "count", len(ids), "rejected", len(rejected))

	h.writeJSON(w, uploadResponse{
		Message:  fmt.Sprintf("Successfully uploaded %d images", len(ids)),
		Images:   ids,
		Rejected: rejected,
	})
}

func readUpload(header *multipart.FileHeader) (models.Upload, error) {
	if header.Size > images.MaxFileSize {
		return models.Upload{}, images.Validate(header.Filename, "", header.Size)
	}

	file, err := header.Open()
	if err != nil {
		return models.Upload{}, fmt.Errorf("failed to open %s: %w", header.Filename, err)
	}
	defer file.Close()

	fileData, err := io.ReadAll(io.LimitReader(file, images.MaxFileSize+1))
	if err != nil {
		return models.Upload{}, fmt.Errorf("failed to read %s: %w", header.Filename, err)
	}

	return images.NewUpload(header.Filename, header.Header.Get("Content-Type"), fileData)
}

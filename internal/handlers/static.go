package handlers

import (
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
)

func (h *Handler) HandleStatic(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/")
	path = strings.TrimPrefix(path, "static/")

	// Extract the file path after /static/
	if path == "" {
		path = "index.html"
	}

	// /?image=<url> downloads the image into the workspace and selects it
	imageURL := r.URL.Query().Get("image")
	if imageURL != "" {
		upload, err := h.fetcher.Fetch(r.Context(), imageURL)
		if err != nil {
			slog.Error("Failed to add image from URL", "url", imageURL, "error", err)
			http.Error(w, "Failed to process image URL: "+err.Error(), http.StatusBadRequest)
			return
		}
		h.store.AddImages(upload)
		h.store.Select(upload.Name)

		// Redirect to the homepage
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	// Prevent directory traversal attacks
	if strings.Contains(path, "..") {
		http.Error(w, "Invalid file path", http.StatusBadRequest)
		return
	}

	// Set appropriate content type based on file extension
	switch {
	case strings.HasSuffix(path, ".css"):
		w.Header().Set("Content-Type", "text/css")
	case strings.HasSuffix(path, ".js"):
		w.Header().Set("Content-Type", "application/javascript")
	case strings.HasSuffix(path, ".html"):
		w.Header().Set("Content-Type", "text/html")
	}

	// Serve files from the static directory
	http.ServeFile(w, r, filepath.Join(h.staticDir, path))
}

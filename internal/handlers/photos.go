package handlers

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/flyerscan/prestations/internal/images"
)

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type photoResponse struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// HandlePhotoUpload stores one "photo" file under its content hash and
// returns the URL to put in a prestation's photos.
func (h *Handler) HandlePhotoUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		h.writeError(w, "Failed to read form: "+err.Error(), http.StatusBadRequest)
		return
	}
	files := r.MultipartForm.File["photo"]
	if len(files) == 0 {
		h.writeError(w, "photo is required", http.StatusBadRequest)
		return
	}

	img, err := readPart(files[0])
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	name, err := h.savePhoto(img)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSONStatus(w, http.StatusCreated, photoResponse{
		URL:    "/static/uploads/" + name,
		Width:  img.Width,
		Height: img.Height,
	})
}

func (h *Handler) savePhoto(img images.Image) (string, error) {
	if err := os.MkdirAll(h.uploadsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create uploads directory: %w", err)
	}

	sum := md5.Sum(img.Data)
	name := hex.EncodeToString(sum[:]) + extensions[img.MIMEType]
	path := filepath.Join(h.uploadsDir, name)
	if err := os.WriteFile(path, img.Data, 0644); err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}

	slog.Info("Image saved", "filename", name, "width", img.Width, "height", img.Height)
	return name, nil
}

// HandleStatic serves uploaded photos from /static/uploads/.
func (h *Handler) HandleStatic(w http.ResponseWriter, r *http.Request) {
	name, ok := strings.CutPrefix(r.URL.Path, "/static/uploads/")
	if !ok || name == "" || strings.Contains(name, "/") || strings.Contains(name, "..") {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, filepath.Join(h.uploadsDir, name))
}

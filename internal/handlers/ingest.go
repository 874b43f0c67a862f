package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/flyerscan/prestations/internal/i18n"
	"github.com/flyerscan/prestations/internal/images"
	"github.com/flyerscan/prestations/internal/ingest"
	"github.com/flyerscan/prestations/internal/models"
)

const maxUploadMemory = 32 << 20

type outcomeResponse struct {
	Name      string `json:"name"`
	Committed bool   `json:"committed"`
	ID        string `json:"id,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

type ingestResponse struct {
	Message     string              `json:"message"`
	Strategy    string              `json:"strategy"`
	Prestations []models.Prestation `json:"prestations"`
	Outcomes    []outcomeResponse   `json:"outcomes"`
}

// HandleIngest accepts multipart "photos" files with an optional "prompt",
// or JSON {"image_urls": [...], "prompt": "..."}.
func (h *Handler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var (
		imgs   []images.Image
		prompt string
		err    error
	)
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		imgs, prompt, err = h.readURLRequest(r)
	} else {
		imgs, prompt, err = readMultipart(r)
	}
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	report, err := h.orchestrator.IngestDetailed(r.Context(), imgs, prompt)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	resp := ingestResponse{
		Message:     i18n.Extracted(i18n.Match(r.Header.Get("Accept-Language")), len(report.Committed), report.Skipped()),
		Strategy:    report.Strategy,
		Prestations: report.Committed,
		Outcomes:    make([]outcomeResponse, 0, len(report.Outcomes)),
	}
	for _, out := range report.Outcomes {
		o := outcomeResponse{Name: out.Candidate.Name, Committed: out.Committed, Reason: out.Reason}
		if out.Prestation != nil {
			o.ID = out.Prestation.ID
		}
		resp.Outcomes = append(resp.Outcomes, o)
	}
	h.writeJSON(w, resp)
}

func (h *Handler) readURLRequest(r *http.Request) ([]images.Image, string, error) {
	var request struct {
		ImageURLs []string `json:"image_urls"`
		Prompt    string   `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		return nil, "", fmt.Errorf("%w: invalid JSON: %v", errBadRequest, err)
	}
	if len(request.ImageURLs) == 0 {
		return nil, "", ingest.ErrNoImages
	}
	imgs, err := h.fetcher.FetchAll(r.Context(), request.ImageURLs)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return imgs, request.Prompt, nil
}

func readMultipart(r *http.Request) ([]images.Image, string, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return nil, "", fmt.Errorf("%w: %v", errBadRequest, err)
	}
	files := r.MultipartForm.File["photos"]
	if len(files) == 0 {
		return nil, "", ingest.ErrNoImages
	}

	imgs := make([]images.Image, 0, len(files))
	for _, fh := range files {
		img, err := readPart(fh)
		if err != nil {
			return nil, "", err
		}
		imgs = append(imgs, img)
	}
	return imgs, r.FormValue("prompt"), nil
}

func readPart(fh *multipart.FileHeader) (images.Image, error) {
	if fh.Size > images.MaxSize {
		return images.Image{}, fmt.Errorf("%w: %s", images.ErrTooLarge, fh.Filename)
	}
	file, err := fh.Open()
	if err != nil {
		return images.Image{}, fmt.Errorf("failed to read file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, images.MaxSize+1))
	if err != nil {
		return images.Image{}, fmt.Errorf("failed to read file contents: %w", err)
	}
	return images.FromBytes(fh.Filename, data)
}

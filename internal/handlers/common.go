package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/flyerscan/prestations/internal/catalog"
	"github.com/flyerscan/prestations/internal/i18n"
	"github.com/flyerscan/prestations/internal/images"
	"github.com/flyerscan/prestations/internal/ingest"
)

var errBadRequest = errors.New("bad request")

type Handler struct {
	store        *catalog.Store
	orchestrator *ingest.Orchestrator
	fetcher      *images.Fetcher
	uploadsDir   string

	done      chan struct{}
	closeOnce sync.Once
}

func New(store *catalog.Store, orchestrator *ingest.Orchestrator, uploadsDir string) *Handler {
	return &Handler{
		store:        store,
		orchestrator: orchestrator,
		fetcher:      images.NewFetcher(),
		uploadsDir:   uploadsDir,
		done:         make(chan struct{}),
	}
}

// Close ends every open event stream. Register it with
// http.Server.RegisterOnShutdown so Shutdown does not wait on them.
func (h *Handler) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// Routes registers every endpoint on a new mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/prestations", h.HandlePrestations)
	mux.HandleFunc("/api/prestations/", h.HandlePrestationDetail)
	mux.HandleFunc("/api/ingest", h.HandleIngest)
	mux.HandleFunc("/api/photos", h.HandlePhotoUpload)
	mux.HandleFunc("/api/events", h.HandleEvents)
	mux.HandleFunc("/static/", h.HandleStatic)
	mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
	return mux
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	h.writeJSONStatus(w, http.StatusOK, data)
}

func (h *Handler) writeJSONStatus(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	h.writeJSONStatus(w, code, map[string]string{"error": message})
}

// writeFailure answers with the localized message for err and a status code
// derived from its kind.
func (h *Handler) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	tag := i18n.Match(r.Header.Get("Accept-Language"))
	if code >= http.StatusInternalServerError {
		slog.Error("Request failed", "path", r.URL.Path, "err", err)
	} else {
		slog.Warn("Request rejected", "path", r.URL.Path, "err", err)
	}
	h.writeJSONStatus(w, code, map[string]string{
		"error":  i18n.Message(err, tag),
		"detail": err.Error(),
	})
}

func statusFor(err error) int {
	var upstream *ingest.UpstreamError
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, catalog.ErrInvalidFields), errors.Is(err, ingest.ErrNoImages),
		errors.Is(err, images.ErrNotAnImage), errors.Is(err, images.ErrEmptyUpload):
		return http.StatusBadRequest
	case errors.Is(err, images.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &upstream):
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case errors.Is(err, ingest.ErrUnparseableResponse):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

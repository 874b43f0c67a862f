package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
)

// HandleEvents streams one server-sent "changed" event per catalog change.
// Clients re-read the collection on each event.
func (h *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeError(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	// Bursts of changes collapse into a single pending event.
	changed := make(chan struct{}, 1)
	unsubscribe := h.store.OnChange(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "retry: 3000\n\n")
	flusher.Flush()

	slog.Debug("Event stream opened", "remote", r.RemoteAddr)
	for {
		select {
		case <-r.Context().Done():
			slog.Debug("Event stream closed", "remote", r.RemoteAddr)
			return
		case <-h.done:
			slog.Debug("Event stream closed by shutdown", "remote", r.RemoteAddr)
			return
		case <-changed:
			if _, err := fmt.Fprint(w, "event: changed\ndata: {}\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

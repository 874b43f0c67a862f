package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/flyerscan/prestations/internal/catalog"
	"github.com/flyerscan/prestations/internal/models"
)

type createRequest struct {
	models.Fields
	Source string `json:"source"`
}

type updateRequest struct {
	models.Fields
	Status string `json:"status"`
}

func (h *Handler) HandlePrestations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		list, err := h.list(r)
		if err != nil {
			h.writeFailure(w, r, err)
			return
		}
		h.writeJSON(w, list)
	case "POST":
		var req createRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := canonicalize(&req.Fields); err != nil {
			h.writeFailure(w, r, err)
			return
		}
		source := models.SourceManual
		if req.Source != "" {
			parsed, err := models.ParseSource(req.Source)
			if err != nil {
				h.writeFailure(w, r, fmt.Errorf("%w: %v", catalog.ErrInvalidFields, err))
				return
			}
			source = parsed
		}

		p, err := h.store.Create(r.Context(), req.Fields, source)
		if err != nil {
			h.writeFailure(w, r, err)
			return
		}
		h.writeJSONStatus(w, http.StatusCreated, p)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) list(r *http.Request) ([]models.Prestation, error) {
	status := r.URL.Query().Get("status")
	if status == "" {
		return h.store.List(r.Context())
	}
	parsed, err := models.ParseStatus(status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", catalog.ErrInvalidFields, err)
	}
	return h.store.ListStatus(r.Context(), parsed)
}

// HandlePrestationDetail serves /api/prestations/{id} and the
// /api/prestations/{id}/validate and /reject actions.
func (h *Handler) HandlePrestationDetail(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/prestations/"), "/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		h.writeError(w, "Missing prestation id", http.StatusBadRequest)
		return
	}

	switch action {
	case "":
	case "validate", "reject":
		if r.Method != "POST" {
			h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if action == "validate" {
			p, err := h.store.Validate(r.Context(), id)
			if err != nil {
				h.writeFailure(w, r, err)
				return
			}
			h.writeJSON(w, p)
			return
		}
		if err := h.store.Reject(r.Context(), id); err != nil {
			h.writeFailure(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	default:
		h.writeError(w, "Unknown action: "+action, http.StatusNotFound)
		return
	}

	switch r.Method {
	case "GET":
		p, err := h.store.Get(r.Context(), id)
		if err != nil {
			h.writeFailure(w, r, err)
			return
		}
		h.writeJSON(w, p)
	case "PUT":
		var req updateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := canonicalize(&req.Fields); err != nil {
			h.writeFailure(w, r, err)
			return
		}
		p := models.Prestation{ID: id, Fields: req.Fields}
		if req.Status != "" {
			status, err := models.ParseStatus(req.Status)
			if err != nil {
				h.writeFailure(w, r, fmt.Errorf("%w: %v", catalog.ErrInvalidTransition, err))
				return
			}
			p.Status = status
		}
		updated, err := h.store.Update(r.Context(), p)
		if err != nil {
			h.writeFailure(w, r, err)
			return
		}
		h.writeJSON(w, updated)
	case "DELETE":
		if err := h.store.Delete(r.Context(), id); err != nil {
			h.writeFailure(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// canonicalize maps French or differently cased enum values onto the
// canonical ones, so "Femmes" and "forfait" are accepted from clients.
func canonicalize(f *models.Fields) error {
	if !f.Category.Valid() {
		c, err := models.ParseCategory(string(f.Category))
		if err != nil {
			return fmt.Errorf("%w: %v", catalog.ErrInvalidFields, err)
		}
		f.Category = c
	}
	if !f.Kind.Valid() {
		k, err := models.ParseKind(string(f.Kind))
		if err != nil {
			return fmt.Errorf("%w: %v", catalog.ErrInvalidFields, err)
		}
		f.Kind = k
	}
	return nil
}

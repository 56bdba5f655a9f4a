package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/arroyoseco/abate/internal/apperr"
	"github.com/arroyoseco/abate/internal/catalog"
	"github.com/arroyoseco/abate/internal/inspection"
	"github.com/arroyoseco/abate/internal/models"
)

// Handler holds API route handlers.
type Handler struct {
	svc *inspection.Service
	cat *catalog.Catalog
}

// NewHandler creates a new Handler.
func NewHandler(svc *inspection.Service, cat *catalog.Catalog) *Handler {
	return &Handler{svc: svc, cat: cat}
}

// writeErr maps domain sentinel errors to HTTP status codes.
func writeErr(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, errorBody("invalid status transition"))
	case errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody("conflict"))
	case errors.Is(err, apperr.ErrInvalid):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// GetCatalog handles GET /api/catalog: the violation database, the checklist
// groupings, and the areas-inspected options in one response.
func (h *Handler) GetCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"violations": h.cat.Entries(),
		"checklist":  catalog.Checklist(),
		"areas":      catalog.Areas(),
	})
}

// CreateSession handles POST /api/sessions.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.svc.CreateSession(r.Context())
	if err != nil {
		writeErr(w, "create session", err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

// ListSessions handles GET /api/sessions.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListSessions(r.Context())
	if err != nil {
		writeErr(w, "list sessions", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": items,
		"total":    len(items),
	})
}

// GetSession handles GET /api/sessions/{sessionID}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.svc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeErr(w, "get session", err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// DeleteSession handles DELETE /api/sessions/{sessionID}.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		writeErr(w, "delete session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateForm handles PUT /api/sessions/{sessionID}/form.
func (h *Handler) UpdateForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var form models.FormContext
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.svc.UpdateForm(r.Context(), chi.URLParam(r, "sessionID"), form); err != nil {
		writeErr(w, "update form", err)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

// ToggleViolation handles POST /api/sessions/{sessionID}/violations/toggle.
func (h *Handler) ToggleViolation(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.svc.ToggleViolation, "checked_violations")
}

// ToggleArea handles POST /api/sessions/{sessionID}/areas/toggle.
func (h *Handler) ToggleArea(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.svc.ToggleArea, "checked_areas")
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, sessionID, id string) ([]string, error), key string) {
	var req ToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}
	set, err := fn(r.Context(), chi.URLParam(r, "sessionID"), req.ID)
	if err != nil {
		writeErr(w, "toggle", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{key: set})
}

// GetPayload handles GET /api/sessions/{sessionID}/payload.
func (h *Handler) GetPayload(w http.ResponseWriter, r *http.Request) {
	payload, err := h.svc.BuildPayload(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeErr(w, "build payload", err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// GenerateReport handles POST /api/sessions/{sessionID}/report.
func (h *Handler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	text, err := h.svc.GenerateReport(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeErr(w, "generate report", err)
		return
	}
	writeJSON(w, http.StatusOK, ReportResponse{Report: text})
}

// AddTag handles POST /api/sessions/{sessionID}/photos/{photoID}/tags.
func (h *Handler) AddTag(w http.ResponseWriter, r *http.Request) {
	var req TagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	photo, err := h.svc.AddTag(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "photoID"), req.Tag)
	if err != nil {
		writeErr(w, "add tag", err)
		return
	}
	writeJSON(w, http.StatusOK, photo)
}

// RemoveTag handles DELETE /api/sessions/{sessionID}/photos/{photoID}/tags/{tag}.
// The tag is URL-encoded in the path (e.g. Rodent%20Burrows).
func (h *Handler) RemoveTag(w http.ResponseWriter, r *http.Request) {
	tag := chi.URLParam(r, "tag")
	if decoded, err := url.PathUnescape(tag); err == nil {
		tag = decoded
	}
	photo, err := h.svc.RemoveTag(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "photoID"), tag)
	if err != nil {
		writeErr(w, "remove tag", err)
		return
	}
	writeJSON(w, http.StatusOK, photo)
}

// SetDescription handles PUT /api/sessions/{sessionID}/photos/{photoID}/description.
func (h *Handler) SetDescription(w http.ResponseWriter, r *http.Request) {
	var req DescriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	photo, err := h.svc.SetDescription(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "photoID"), req.Text)
	if err != nil {
		writeErr(w, "set description", err)
		return
	}
	writeJSON(w, http.StatusOK, photo)
}

// AddHighlight handles POST /api/sessions/{sessionID}/photos/{photoID}/highlights.
func (h *Handler) AddHighlight(w http.ResponseWriter, r *http.Request) {
	var req HighlightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	photo, err := h.svc.AddHighlight(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "photoID"), req.X, req.Y)
	if err != nil {
		writeErr(w, "add highlight", err)
		return
	}
	writeJSON(w, http.StatusOK, photo)
}

// RemoveHighlight handles DELETE /api/sessions/{sessionID}/photos/{photoID}/highlights/{highlightID}.
func (h *Handler) RemoveHighlight(w http.ResponseWriter, r *http.Request) {
	photo, err := h.svc.RemoveHighlight(r.Context(),
		chi.URLParam(r, "sessionID"), chi.URLParam(r, "photoID"), chi.URLParam(r, "highlightID"))
	if err != nil {
		writeErr(w, "remove highlight", err)
		return
	}
	writeJSON(w, http.StatusOK, photo)
}

// VerifyPhoto handles POST /api/sessions/{sessionID}/photos/{photoID}/verify.
func (h *Handler) VerifyPhoto(w http.ResponseWriter, r *http.Request) {
	next, err := h.svc.VerifyPhoto(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "photoID"))
	if err != nil {
		writeErr(w, "verify photo", err)
		return
	}
	writeJSON(w, http.StatusOK, VerifyResponse{NextPhotoID: next})
}

// Suggestions handles GET /api/sessions/{sessionID}/photos/{photoID}/suggestions.
func (h *Handler) Suggestions(w http.ResponseWriter, r *http.Request) {
	tags, err := h.svc.Suggestions(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "photoID"))
	if err != nil {
		writeErr(w, "suggestions", err)
		return
	}
	writeJSON(w, http.StatusOK, SuggestionsResponse{Suggestions: tags})
}

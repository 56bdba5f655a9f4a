package api

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/arroyoseco/abate/internal/checksum"
)

const maxUploadBytes = 50 << 20 // 50 MB

// UploadPhoto handles POST /api/sessions/{sessionID}/photos
// (multipart/form-data, field "file"). The photo enters the analyzing state;
// the tagging result arrives later over SSE.
func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
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

	content, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}

	photo, err := h.svc.AddPhoto(r.Context(),
		chi.URLParam(r, "sessionID"), header.Filename, header.Header.Get("Content-Type"), content)
	if err != nil {
		writeErr(w, "upload photo", err)
		return
	}
	writeJSON(w, http.StatusCreated, photo)
}

// DeletePhoto handles DELETE /api/sessions/{sessionID}/photos/{photoID}.
// Deleting an unknown photo id is a no-op and still returns 204.
func (h *Handler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RemovePhoto(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "photoID")); err != nil {
		writeErr(w, "delete photo", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PhotoImage handles GET /api/sessions/{sessionID}/photos/{photoID}/image.
// The ETag is the checksum recorded at upload time.
func (h *Handler) PhotoImage(w http.ResponseWriter, r *http.Request) {
	data, mimeType, sum, err := h.svc.PhotoImage(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "photoID"))
	if err != nil {
		writeErr(w, "photo image", err)
		return
	}
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Header().Set("ETag", checksum.ETag(sum))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/arroyoseco/abate/internal/catalog"
	"github.com/arroyoseco/abate/internal/checksum"
	"github.com/arroyoseco/abate/internal/inspection"
	"github.com/arroyoseco/abate/internal/media"
	"github.com/arroyoseco/abate/internal/models"
	"github.com/arroyoseco/abate/internal/store"
)

// stubTagger returns canned tags without calling any external service.
type stubTagger struct {
	mu   sync.Mutex
	tags []string
}

func (s *stubTagger) DetectTags(context.Context, []byte, string, string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.tags...), nil
}

type stubNarrator struct {
	text string
	err  error
}

func (s *stubNarrator) GenerateNarrative(context.Context, string) (string, error) {
	return s.text, s.err
}

// testEnv sets up a temp store, media dir, engine, and router.
// authToken="" means auth disabled.
func testEnv(t *testing.T, authToken string, tagger inspection.Tagger, narrator inspection.Narrator) (*inspection.Service, http.Handler) {
	t.Helper()

	db, err := store.Open(filepath.Join(t.TempDir(), "abate.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	med, err := media.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("media.NewFS: %v", err)
	}

	if tagger == nil {
		tagger = &stubTagger{}
	}
	if narrator == nil {
		narrator = &stubNarrator{}
	}
	svc := inspection.NewService(db, med, catalog.New(), tagger, narrator, nil, nil)
	t.Cleanup(func() { svc.Close() })

	router := NewRouter(svc, catalog.New(), authToken != "", authToken, nil)
	return svc, router
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createSession(t *testing.T, router http.Handler) SessionDetail {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/sessions", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create session = %d, body = %s", w.Code, w.Body.String())
	}
	var sess SessionDetail
	if err := json.Unmarshal(w.Body.Bytes(), &sess); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return sess
}

func uploadPhoto(t *testing.T, router http.Handler, sessionID, filename string, content []byte) models.PhotoEvidence {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write(content)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/sessions/"+sessionID+"/photos", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("upload = %d, body = %s", w.Code, w.Body.String())
	}
	var photo models.PhotoEvidence
	if err := json.Unmarshal(w.Body.Bytes(), &photo); err != nil {
		t.Fatalf("decode photo: %v", err)
	}
	return photo
}

// waitForReview polls until the photo leaves the analyzing state.
func waitForReview(t *testing.T, router http.Handler, sessionID, photoID string) models.PhotoEvidence {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		w := doJSON(t, router, http.MethodGet, "/sessions/"+sessionID, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("get session = %d", w.Code)
		}
		var sess SessionDetail
		_ = json.Unmarshal(w.Body.Bytes(), &sess)
		for _, p := range sess.Photos {
			if p.ID == photoID && p.Status == models.StatusNeedsReview {
				return *p
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("photo never reached needs_review")
	return models.PhotoEvidence{}
}

func TestCreateAndGetSession(t *testing.T) {
	_, router := testEnv(t, "", nil, nil)

	sess := createSession(t, router)
	if sess.ID == "" {
		t.Fatal("session id empty")
	}

	w := doJSON(t, router, http.MethodGet, "/sessions/"+sess.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get = %d", w.Code)
	}
	var got SessionDetail
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.ID != sess.ID {
		t.Errorf("id = %q", got.ID)
	}
	if got.Vocabulary == nil || got.Vocabulary.Len() == 0 {
		t.Error("new session should carry the seed vocabulary")
	}
}

func TestGetSession_NotFound(t *testing.T) {
	_, router := testEnv(t, "", nil, nil)
	w := doJSON(t, router, http.MethodGet, "/sessions/nope", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing session = %d, want 404", w.Code)
	}
}

func TestPhotoUploadAndTagFlow(t *testing.T) {
	tagger := &stubTagger{tags: []string{"Rodent", "Mold"}}
	_, router := testEnv(t, "", tagger, nil)
	sess := createSession(t, router)

	photo := uploadPhoto(t, router, sess.ID, "yard.jpg", []byte{0xff, 0xd8, 0xff})
	if photo.Status != models.StatusAnalyzing {
		t.Errorf("status at upload = %s", photo.Status)
	}

	reviewed := waitForReview(t, router, sess.ID, photo.ID)
	if reviewed.Description != "Observed Rodent, Mold at this location." {
		t.Errorf("description = %q", reviewed.Description)
	}

	// Remove a tag; the description re-derives.
	path := "/sessions/" + sess.ID + "/photos/" + photo.ID + "/tags/" + url.PathEscape("Mold")
	w := doJSON(t, router, http.MethodDelete, path, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("remove tag = %d, body = %s", w.Code, w.Body.String())
	}
	var updated models.PhotoEvidence
	_ = json.Unmarshal(w.Body.Bytes(), &updated)
	if updated.Description != "Observed Rodent at this location." {
		t.Errorf("description = %q", updated.Description)
	}

	// Verify; no second photo, so review is complete.
	w = doJSON(t, router, http.MethodPost, "/sessions/"+sess.ID+"/photos/"+photo.ID+"/verify", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("verify = %d, body = %s", w.Code, w.Body.String())
	}
	var vr VerifyResponse
	_ = json.Unmarshal(w.Body.Bytes(), &vr)
	if vr.NextPhotoID != "" {
		t.Errorf("next = %q, want none", vr.NextPhotoID)
	}
}

func TestVerifyAnalyzingPhotoConflicts(t *testing.T) {
	gateTagger := &stubTagger{} // resolves quickly, but we verify before waiting
	_, router := testEnv(t, "", gateTagger, nil)
	sess := createSession(t, router)
	photo := uploadPhoto(t, router, sess.ID, "a.jpg", []byte("img"))

	w := doJSON(t, router, http.MethodPost, "/sessions/"+sess.ID+"/photos/"+photo.ID+"/verify", nil)
	// Either the analysis already landed (200) or verify is rejected (409);
	// an analyzing photo must never silently verify.
	if w.Code != http.StatusOK && w.Code != http.StatusConflict {
		t.Errorf("verify while analyzing = %d", w.Code)
	}
}

func TestAddTagAndSuggestions(t *testing.T) {
	_, router := testEnv(t, "", nil, nil)
	sess := createSession(t, router)
	photo := uploadPhoto(t, router, sess.ID, "a.jpg", []byte("img"))
	waitForReview(t, router, sess.ID, photo.ID)

	w := doJSON(t, router, http.MethodPost,
		"/sessions/"+sess.ID+"/photos/"+photo.ID+"/tags", TagRequest{Tag: "Rodent"})
	if w.Code != http.StatusOK {
		t.Fatalf("add tag = %d, body = %s", w.Code, w.Body.String())
	}
	var updated models.PhotoEvidence
	_ = json.Unmarshal(w.Body.Bytes(), &updated)
	if !updated.HasTag("Rodent") {
		t.Errorf("tags = %v", updated.Tags)
	}

	w = doJSON(t, router, http.MethodGet,
		"/sessions/"+sess.ID+"/photos/"+photo.ID+"/suggestions", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("suggestions = %d", w.Code)
	}
	var sr SuggestionsResponse
	_ = json.Unmarshal(w.Body.Bytes(), &sr)
	for _, s := range sr.Suggestions {
		if s == "Rodent" {
			t.Error("suggestions include an already-present tag")
		}
	}
}

func TestHighlightEndpoints(t *testing.T) {
	_, router := testEnv(t, "", nil, nil)
	sess := createSession(t, router)
	photo := uploadPhoto(t, router, sess.ID, "a.jpg", []byte("img"))
	waitForReview(t, router, sess.ID, photo.ID)

	base := "/sessions/" + sess.ID + "/photos/" + photo.ID
	w := doJSON(t, router, http.MethodPost, base+"/highlights", HighlightRequest{X: 42.5, Y: 61})
	if w.Code != http.StatusOK {
		t.Fatalf("add highlight = %d, body = %s", w.Code, w.Body.String())
	}
	var updated models.PhotoEvidence
	_ = json.Unmarshal(w.Body.Bytes(), &updated)
	if len(updated.Highlights) != 1 {
		t.Fatalf("highlights = %d, want 1", len(updated.Highlights))
	}

	w = doJSON(t, router, http.MethodDelete, base+"/highlights/"+updated.Highlights[0].ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("remove highlight = %d", w.Code)
	}
	_ = json.Unmarshal(w.Body.Bytes(), &updated)
	if len(updated.Highlights) != 0 {
		t.Errorf("highlights = %d, want 0", len(updated.Highlights))
	}
}

func TestDeletePhotoIsIdempotent(t *testing.T) {
	_, router := testEnv(t, "", nil, nil)
	sess := createSession(t, router)
	photo := uploadPhoto(t, router, sess.ID, "a.jpg", []byte("img"))

	path := "/sessions/" + sess.ID + "/photos/" + photo.ID
	w := doJSON(t, router, http.MethodDelete, path, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", w.Code)
	}
	// Unknown id is a no-op, not an error.
	w = doJSON(t, router, http.MethodDelete, path, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("second delete = %d, want 204", w.Code)
	}
}

func TestPhotoImageRoundTrip(t *testing.T) {
	_, router := testEnv(t, "", nil, nil)
	sess := createSession(t, router)
	content := []byte{0x89, 0x50, 0x4e, 0x47}
	photo := uploadPhoto(t, router, sess.ID, "wall.png", content)

	w := doJSON(t, router, http.MethodGet, "/sessions/"+sess.ID+"/photos/"+photo.ID+"/image", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("image = %d", w.Code)
	}
	if !bytes.Equal(w.Body.Bytes(), content) {
		t.Error("image bytes mismatch")
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %q", ct)
	}
	if etag := w.Header().Get("ETag"); etag != checksum.ETag(checksum.Sum(content)) {
		t.Errorf("etag = %q, want upload checksum", etag)
	}
}

func TestToggleAndPayload(t *testing.T) {
	_, router := testEnv(t, "", &stubTagger{tags: []string{"Cockroach"}}, nil)
	sess := createSession(t, router)

	for _, id := range []string{"rodent", "mold"} {
		w := doJSON(t, router, http.MethodPost,
			"/sessions/"+sess.ID+"/violations/toggle", ToggleRequest{ID: id})
		if w.Code != http.StatusOK {
			t.Fatalf("toggle %s = %d", id, w.Code)
		}
	}
	photo := uploadPhoto(t, router, sess.ID, "k.jpg", []byte("img"))
	waitForReview(t, router, sess.ID, photo.ID)

	w := doJSON(t, router, http.MethodGet, "/sessions/"+sess.ID+"/payload", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("payload = %d", w.Code)
	}
	var payload PayloadResponse
	_ = json.Unmarshal(w.Body.Bytes(), &payload)
	if len(payload.Violations) != 2 {
		t.Errorf("violations = %d, want 2", len(payload.Violations))
	}
	if len(payload.PhotoEvidence) != 1 || payload.PhotoEvidence[0].Source != "Photo #1" {
		t.Errorf("photo evidence = %+v", payload.PhotoEvidence)
	}
}

func TestToggleTwiceRestores(t *testing.T) {
	_, router := testEnv(t, "", nil, nil)
	sess := createSession(t, router)

	var resp map[string][]string
	for i := 0; i < 2; i++ {
		w := doJSON(t, router, http.MethodPost,
			"/sessions/"+sess.ID+"/areas/toggle", ToggleRequest{ID: "Basement"})
		if w.Code != http.StatusOK {
			t.Fatalf("toggle = %d", w.Code)
		}
		resp = map[string][]string{}
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
	}
	if len(resp["checked_areas"]) != 0 {
		t.Errorf("areas after double toggle = %v", resp["checked_areas"])
	}
}

func TestGenerateReport(t *testing.T) {
	narrator := &stubNarrator{text: "The following Items Represent Health Code Violations..."}
	_, router := testEnv(t, "", nil, narrator)
	sess := createSession(t, router)

	w := doJSON(t, router, http.MethodPut, "/sessions/"+sess.ID+"/form", models.FormContext{
		Address:        "350 Jones St",
		CorrectionDate: "2026-09-15",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("form = %d", w.Code)
	}

	w = doJSON(t, router, http.MethodPost, "/sessions/"+sess.ID+"/report", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("report = %d, body = %s", w.Code, w.Body.String())
	}
	var rr ReportResponse
	_ = json.Unmarshal(w.Body.Bytes(), &rr)
	if rr.Report != narrator.text {
		t.Errorf("report = %q", rr.Report)
	}
}

func TestGenerateReportFailure(t *testing.T) {
	_, router := testEnv(t, "", nil, &stubNarrator{err: errors.New("model overloaded")})
	sess := createSession(t, router)

	w := doJSON(t, router, http.MethodPost, "/sessions/"+sess.ID+"/report", nil)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("report failure = %d, want 500", w.Code)
	}
}

func TestCatalogEndpoint(t *testing.T) {
	_, router := testEnv(t, "", nil, nil)

	w := doJSON(t, router, http.MethodGet, "/catalog", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("catalog = %d", w.Code)
	}
	var resp struct {
		Violations map[string]catalog.Entry `json:"violations"`
		Checklist  []catalog.ChecklistGroup `json:"checklist"`
		Areas      []string                 `json:"areas"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if _, ok := resp.Violations["rodent"]; !ok {
		t.Error("catalog missing rodent entry")
	}
	if len(resp.Checklist) != 3 || len(resp.Areas) == 0 {
		t.Errorf("checklist groups = %d, areas = %d", len(resp.Checklist), len(resp.Areas))
	}
}

func TestDeleteSession(t *testing.T) {
	_, router := testEnv(t, "", nil, nil)
	sess := createSession(t, router)
	uploadPhoto(t, router, sess.ID, "a.jpg", []byte("img"))

	w := doJSON(t, router, http.MethodDelete, "/sessions/"+sess.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", w.Code)
	}
	w = doJSON(t, router, http.MethodGet, "/sessions/"+sess.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router := testEnv(t, "secret123", nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/sessions", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Errorf("authed create = %d, want 201", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router := testEnv(t, "secret123", nil, nil)

	w := doJSON(t, router, http.MethodGet, "/sessions", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router := testEnv(t, "secret123", nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/sessions", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestUploadMissingFileField(t *testing.T) {
	_, router := testEnv(t, "", nil, nil)
	sess := createSession(t, router)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("wrong", "data")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/sessions/"+sess.ID+"/photos", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing field = %d, want 400", w.Code)
	}
}

package inspection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arroyoseco/abate/internal/apperr"
	"github.com/arroyoseco/abate/internal/catalog"
	"github.com/arroyoseco/abate/internal/checksum"
	"github.com/arroyoseco/abate/internal/media"
	"github.com/arroyoseco/abate/internal/models"
	"github.com/arroyoseco/abate/internal/store"
)

// Tagger is the vision collaborator: given image bytes and an instruction
// listing the current vocabulary, it returns the detected tags. A transport
// or parse failure surfaces as an error; the engine degrades it to an empty
// tag list.
type Tagger interface {
	DetectTags(ctx context.Context, image []byte, mimeType, prompt string) ([]string, error)
}

// Narrator is the text-generation collaborator: given the instruction
// embedding the aggregated payload, it returns the notice narrative.
type Narrator interface {
	GenerateNarrative(ctx context.Context, instruction string) (string, error)
}

// Publisher receives session events for fan-out to connected clients.
type Publisher interface {
	Publish(event string, data any)
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, any) {}

// SessionSummary is a lightweight item in a session list.
type SessionSummary struct {
	ID         string    `json:"id"`
	Address    string    `json:"address"`
	PhotoCount int       `json:"photo_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Service coordinates sessions, persistence, media storage, and the two
// external collaborators. All session state is accessed under its lock;
// collaborator calls happen outside it.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	analyses map[string]context.CancelFunc // in-flight vision calls by photo id

	db       *store.DB
	media    media.Provider
	catalog  *catalog.Catalog
	tagger   Tagger
	narrator Narrator
	events   Publisher
	logger   *slog.Logger
}

// NewService creates the engine. events and logger may be nil.
func NewService(db *store.DB, med media.Provider, cat *catalog.Catalog, tagger Tagger, narrator Narrator, events Publisher, logger *slog.Logger) *Service {
	if events == nil {
		events = noopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		sessions: make(map[string]*Session),
		analyses: make(map[string]context.CancelFunc),
		db:       db,
		media:    med,
		catalog:  cat,
		tagger:   tagger,
		narrator: narrator,
		events:   events,
		logger:   logger,
	}
}

// Load restores persisted sessions into memory. Rows that fail to decode are
// skipped with a warning rather than aborting startup.
func (s *Service) Load() error {
	rows, err := s.db.ListSessions()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range rows {
		var sess Session
		if err := json.Unmarshal(row.State, &sess); err != nil {
			s.logger.Warn("skipping undecodable session",
				slog.String("id", row.ID), slog.String("error", err.Error()))
			continue
		}
		if sess.Vocabulary == nil {
			sess.Vocabulary = NewVocabulary(catalog.InitialTags())
		}
		s.sessions[sess.ID] = &sess
	}
	s.logger.Info("sessions loaded", slog.Int("count", len(s.sessions)))
	return nil
}

// SweepOrphans deletes stored media whose owning session no longer exists.
// Run once at startup, after Load.
func (s *Service) SweepOrphans() {
	paths, err := s.media.List("")
	if err != nil {
		s.logger.Warn("orphan sweep: list failed", slog.String("error", err.Error()))
		return
	}
	s.mu.RLock()
	owned := make(map[string]struct{})
	for _, sess := range s.sessions {
		for _, p := range sess.Photos {
			owned[p.MediaPath] = struct{}{}
		}
	}
	s.mu.RUnlock()

	removed := 0
	for _, p := range paths {
		if _, ok := owned[p]; ok {
			continue
		}
		if err := s.media.Delete(p); err != nil {
			s.logger.Warn("orphan sweep: delete failed",
				slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		removed++
	}
	if removed > 0 {
		s.logger.Info("orphan media removed", slog.Int("count", removed))
	}
}

// CreateSession starts a new inspection session.
func (s *Service) CreateSession(_ context.Context) (*Session, error) {
	sess := NewSession(uuid.NewString())
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	if err := s.persistLocked(sess); err != nil {
		delete(s.sessions, sess.ID)
		return nil, err
	}
	s.events.Publish("session.created", map[string]string{"session_id": sess.ID})
	return cloneSession(sess), nil
}

// GetSession returns a point-in-time copy of a session.
func (s *Service) GetSession(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, err := s.sessionLocked(id)
	if err != nil {
		return nil, err
	}
	return cloneSession(sess), nil
}

// ListSessions returns summaries of all sessions, most recently updated first.
func (s *Service) ListSessions(_ context.Context) ([]SessionSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]SessionSummary, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, SessionSummary{
			ID:         sess.ID,
			Address:    sess.Form.Address,
			PhotoCount: len(sess.Photos),
			CreatedAt:  sess.CreatedAt,
			UpdatedAt:  sess.UpdatedAt,
		})
	}
	// Newest first, stable for equal timestamps.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].UpdatedAt.After(out[j-1].UpdatedAt); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

// DeleteSession tears a session down: every outstanding media handle is
// released exactly once, in-flight analyses are cancelled, and the persisted
// snapshot is removed.
func (s *Service) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.sessionLocked(id)
	if err != nil {
		return err
	}
	for _, p := range sess.Photos {
		if cancel, ok := s.analyses[p.ID]; ok {
			cancel()
			delete(s.analyses, p.ID)
		}
		if err := s.media.Delete(p.MediaPath); err != nil {
			s.logger.Warn("teardown: release failed",
				slog.String("path", p.MediaPath), slog.String("error", err.Error()))
		}
	}
	delete(s.sessions, id)
	if err := s.db.DeleteSession(id); err != nil {
		return err
	}
	s.events.Publish("session.deleted", map[string]string{"session_id": id})
	return nil
}

// AddPhoto stores the image bytes, creates the evidence record in the
// analyzing state, and dispatches the asynchronous vision call. The returned
// record is the state at upload time; tagging lands later.
func (s *Service) AddPhoto(_ context.Context, sessionID, filename, mimeType string, content []byte) (*models.PhotoEvidence, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("empty upload: %w", apperr.ErrInvalid)
	}
	if mimeType == "" {
		mimeType = mime.TypeByExtension(path.Ext(filename))
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	photoID := uuid.NewString()
	mediaPath := sessionID + "/" + photoID + extensionFor(filename, mimeType)

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.sessionLocked(sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.media.Write(mediaPath, content); err != nil {
		return nil, err
	}
	p := &models.PhotoEvidence{
		ID:          photoID,
		MediaPath:   mediaPath,
		MimeType:    mimeType,
		Checksum:    checksum.Sum(content),
		Tags:        []string{},
		Highlights:  []models.Highlight{},
		Status:      models.StatusAnalyzing,
		UploadedAt:  time.Now().UTC(),
	}
	sess.AddPhoto(p)
	if err := s.persistLocked(sess); err != nil {
		// Roll the record back so a retried upload does not duplicate it.
		sess.RemovePhoto(photoID)
		if derr := s.media.Delete(mediaPath); derr != nil {
			s.logger.Warn("release media after failed persist",
				slog.String("path", mediaPath), slog.String("error", derr.Error()))
		}
		return nil, err
	}
	s.events.Publish("photo.added", map[string]string{
		"session_id": sessionID, "photo_id": photoID,
	})

	prompt := VisionPrompt(sess.Vocabulary.Tags())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	s.analyses[photoID] = cancel
	go s.analyze(ctx, sessionID, photoID, p.Version, content, mimeType, prompt)

	return clonePhoto(p), nil
}

// analyze runs the vision call and applies the result. A failure degrades to
// an empty tag list; a result arriving after the photo was deleted is dropped
// silently, and one arriving after a user edit is dropped while the photo
// still advances to needs_review.
func (s *Service) analyze(ctx context.Context, sessionID, photoID string, version uint64, image []byte, mimeType, prompt string) {
	tags, err := s.tagger.DetectTags(ctx, image, mimeType, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return // cancelled: the photo or session is gone
		}
		s.logger.Warn("auto-tagging failed",
			slog.String("photo_id", photoID), slog.String("error", err.Error()))
		tags = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cancel, ok := s.analyses[photoID]; ok {
		cancel()
		delete(s.analyses, photoID)
	}
	sess, ok := s.sessions[sessionID]
	if !ok {
		return
	}
	if err := sess.ApplyAnalysis(photoID, version, tags); err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			s.logger.Debug("analysis result for deleted photo dropped",
				slog.String("photo_id", photoID))
		case errors.Is(err, apperr.ErrStaleAnalysis):
			// The edited record kept its tags but still left analyzing;
			// persist and announce the status change.
			s.logger.Debug("stale analysis result dropped",
				slog.String("photo_id", photoID))
			if perr := s.persistLocked(sess); perr != nil {
				s.logger.Warn("persist after analysis failed",
					slog.String("session_id", sessionID), slog.String("error", perr.Error()))
			}
			s.events.Publish("photo.analyzed", map[string]any{
				"session_id": sessionID, "photo_id": photoID,
			})
		default:
			s.logger.Warn("apply analysis failed",
				slog.String("photo_id", photoID), slog.String("error", err.Error()))
		}
		return
	}
	if err := s.persistLocked(sess); err != nil {
		s.logger.Warn("persist after analysis failed",
			slog.String("session_id", sessionID), slog.String("error", err.Error()))
	}
	s.events.Publish("photo.analyzed", map[string]any{
		"session_id": sessionID, "photo_id": photoID, "tags": tags,
	})
}

// RemovePhoto deletes the evidence record and releases its media handle.
// Removing an unknown photo id is a no-op.
func (s *Service) RemovePhoto(_ context.Context, sessionID, photoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.sessionLocked(sessionID)
	if err != nil {
		return err
	}
	p, ok := sess.RemovePhoto(photoID)
	if !ok {
		return nil
	}
	if cancel, found := s.analyses[photoID]; found {
		cancel()
		delete(s.analyses, photoID)
	}
	// The detached record is the only owner of the handle, so this runs at
	// most once per photo.
	if err := s.media.Delete(p.MediaPath); err != nil {
		s.logger.Warn("release media failed",
			slog.String("path", p.MediaPath), slog.String("error", err.Error()))
	}
	if err := s.persistLocked(sess); err != nil {
		return err
	}
	s.events.Publish("photo.removed", map[string]string{
		"session_id": sessionID, "photo_id": photoID,
	})
	return nil
}

// PhotoImage returns the stored image bytes, MIME type, and the checksum
// recorded at upload time.
func (s *Service) PhotoImage(_ context.Context, sessionID, photoID string) ([]byte, string, string, error) {
	s.mu.RLock()
	sess, err := s.sessionLocked(sessionID)
	if err != nil {
		s.mu.RUnlock()
		return nil, "", "", err
	}
	p, err := sess.Photo(photoID)
	if err != nil {
		s.mu.RUnlock()
		return nil, "", "", err
	}
	mediaPath, mimeType, sum := p.MediaPath, p.MimeType, p.Checksum
	s.mu.RUnlock()

	data, err := s.media.Read(mediaPath)
	if err != nil {
		return nil, "", "", err
	}
	return data, mimeType, sum, nil
}

// AddTag attaches a tag to a photo and absorbs it into the vocabulary.
func (s *Service) AddTag(_ context.Context, sessionID, photoID, tag string) (*models.PhotoEvidence, error) {
	return s.mutatePhoto(sessionID, photoID, "photo.updated", func(sess *Session) error {
		return sess.AddTag(photoID, tag)
	})
}

// RemoveTag removes a tag and re-derives the description.
func (s *Service) RemoveTag(_ context.Context, sessionID, photoID, tag string) (*models.PhotoEvidence, error) {
	return s.mutatePhoto(sessionID, photoID, "photo.updated", func(sess *Session) error {
		return sess.RemoveTag(photoID, tag)
	})
}

// SetDescription overwrites a photo's description.
func (s *Service) SetDescription(_ context.Context, sessionID, photoID, text string) (*models.PhotoEvidence, error) {
	return s.mutatePhoto(sessionID, photoID, "photo.updated", func(sess *Session) error {
		return sess.SetDescription(photoID, text)
	})
}

// AddHighlight places a marker on a photo.
func (s *Service) AddHighlight(_ context.Context, sessionID, photoID string, x, y float64) (*models.PhotoEvidence, error) {
	return s.mutatePhoto(sessionID, photoID, "photo.updated", func(sess *Session) error {
		_, err := sess.AddHighlight(photoID, x, y)
		return err
	})
}

// RemoveHighlight removes a marker by id.
func (s *Service) RemoveHighlight(_ context.Context, sessionID, photoID, highlightID string) (*models.PhotoEvidence, error) {
	return s.mutatePhoto(sessionID, photoID, "photo.updated", func(sess *Session) error {
		return sess.RemoveHighlight(photoID, highlightID)
	})
}

// VerifyPhoto marks a photo reviewed and returns the id of the next photo
// awaiting review, or "" when review is complete.
func (s *Service) VerifyPhoto(_ context.Context, sessionID, photoID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.sessionLocked(sessionID)
	if err != nil {
		return "", err
	}
	next, err := sess.Verify(photoID)
	if err != nil {
		return "", err
	}
	if err := s.persistLocked(sess); err != nil {
		return "", err
	}
	s.events.Publish("photo.verified", map[string]string{
		"session_id": sessionID, "photo_id": photoID, "next_photo_id": next,
	})
	return next, nil
}

// Suggestions returns the vocabulary entries not yet on the photo.
func (s *Service) Suggestions(_ context.Context, sessionID, photoID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, err := s.sessionLocked(sessionID)
	if err != nil {
		return nil, err
	}
	p, err := sess.Photo(photoID)
	if err != nil {
		return nil, err
	}
	return sess.Vocabulary.SuggestionsFor(p), nil
}

// ToggleViolation flips a checklist violation selection.
func (s *Service) ToggleViolation(_ context.Context, sessionID, id string) ([]string, error) {
	return s.toggleSet(sessionID, func(sess *Session) []string {
		sess.ToggleViolation(id)
		return sess.CheckedViolations
	})
}

// ToggleArea flips an inspected-area selection.
func (s *Service) ToggleArea(_ context.Context, sessionID, id string) ([]string, error) {
	return s.toggleSet(sessionID, func(sess *Session) []string {
		sess.ToggleArea(id)
		return sess.CheckedAreas
	})
}

// UpdateForm replaces the notice form fields.
func (s *Service) UpdateForm(_ context.Context, sessionID string, form models.FormContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.sessionLocked(sessionID)
	if err != nil {
		return err
	}
	sess.SetForm(form)
	if err := s.persistLocked(sess); err != nil {
		return err
	}
	s.events.Publish("session.updated", map[string]string{"session_id": sessionID})
	return nil
}

// BuildPayload aggregates the session's findings into a report payload.
func (s *Service) BuildPayload(_ context.Context, sessionID string) (models.ReportPayload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, err := s.sessionLocked(sessionID)
	if err != nil {
		return models.ReportPayload{}, err
	}
	return BuildPayload(sess, s.catalog), nil
}

// GenerateReport builds the payload, asks the narrator for the notice body,
// and stores the returned text verbatim as the session's report content.
func (s *Service) GenerateReport(ctx context.Context, sessionID string) (string, error) {
	s.mu.RLock()
	sess, err := s.sessionLocked(sessionID)
	if err != nil {
		s.mu.RUnlock()
		return "", err
	}
	payload := BuildPayload(sess, s.catalog)
	s.mu.RUnlock()

	// The collaborator call runs outside the lock; edits made meanwhile do
	// not affect the already-built payload.
	text, err := s.narrator.GenerateNarrative(ctx, NarrativeInstruction(payload))
	if err != nil {
		return "", fmt.Errorf("generate narrative: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err = s.sessionLocked(sessionID)
	if err != nil {
		return "", err
	}
	sess.Form.ReportContent = text
	sess.touch()
	if err := s.persistLocked(sess); err != nil {
		return "", err
	}
	s.events.Publish("report.generated", map[string]string{"session_id": sessionID})
	return text, nil
}

// SetPublisher swaps the event sink. Call before serving traffic.
func (s *Service) SetPublisher(events Publisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if events == nil {
		events = noopPublisher{}
	}
	s.events = events
}

// Close cancels outstanding analyses and persists every session.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, cancel := range s.analyses {
		cancel()
		delete(s.analyses, id)
	}
	var firstErr error
	for _, sess := range s.sessions {
		if err := s.persistLocked(sess); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Service) sessionLocked(id string) (*Session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, apperr.ErrNotFound)
	}
	return sess, nil
}

func (s *Service) persistLocked(sess *Session) error {
	state, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sess.ID, err)
	}
	return s.db.UpsertSession(store.SessionRow{
		ID:        sess.ID,
		State:     state,
		CreatedAt: sess.CreatedAt,
		UpdatedAt: sess.UpdatedAt,
	})
}

// mutatePhoto applies fn under the lock, persists, publishes, and returns a
// copy of the updated photo.
func (s *Service) mutatePhoto(sessionID, photoID, event string, fn func(*Session) error) (*models.PhotoEvidence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.sessionLocked(sessionID)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	p, err := sess.Photo(photoID)
	if err != nil {
		return nil, err
	}
	if err := s.persistLocked(sess); err != nil {
		return nil, err
	}
	s.events.Publish(event, map[string]string{
		"session_id": sessionID, "photo_id": photoID,
	})
	return clonePhoto(p), nil
}

func (s *Service) toggleSet(sessionID string, fn func(*Session) []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.sessionLocked(sessionID)
	if err != nil {
		return nil, err
	}
	set := fn(sess)
	if err := s.persistLocked(sess); err != nil {
		return nil, err
	}
	s.events.Publish("session.updated", map[string]string{"session_id": sessionID})
	out := make([]string, len(set))
	copy(out, set)
	return out, nil
}

func clonePhoto(p *models.PhotoEvidence) *models.PhotoEvidence {
	out := *p
	out.Tags = append([]string{}, p.Tags...)
	out.Highlights = append([]models.Highlight{}, p.Highlights...)
	return &out
}

func cloneSession(sess *Session) *Session {
	out := *sess
	out.CheckedViolations = append([]string{}, sess.CheckedViolations...)
	out.CheckedAreas = append([]string{}, sess.CheckedAreas...)
	out.Photos = make([]*models.PhotoEvidence, len(sess.Photos))
	for i, p := range sess.Photos {
		out.Photos[i] = clonePhoto(p)
	}
	out.Vocabulary = NewVocabulary(sess.Vocabulary.Tags())
	return &out
}

func extensionFor(filename, mimeType string) string {
	if ext := path.Ext(filename); ext != "" {
		return strings.ToLower(ext)
	}
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".jpg"
	}
}

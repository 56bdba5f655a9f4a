// Package inspection implements the evidence tag and narrative engine: the
// per-session photo records, the tag vocabulary, the description derivation
// rule, and the report payload aggregation.
package inspection

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arroyoseco/abate/internal/apperr"
	"github.com/arroyoseco/abate/internal/catalog"
	"github.com/arroyoseco/abate/internal/models"
)

// Session is one inspection in progress: the notice form, the checklist
// selections, the photo evidence, and the session-scoped tag vocabulary.
// Sessions are plain state; the Service serializes access to them.
type Session struct {
	ID                string                  `json:"id"`
	Form              models.FormContext      `json:"form"`
	CheckedViolations []string                `json:"checked_violations"`
	CheckedAreas      []string                `json:"checked_areas"`
	Photos            []*models.PhotoEvidence `json:"photos"`
	Vocabulary        *Vocabulary             `json:"vocabulary"`
	CreatedAt         time.Time               `json:"created_at"`
	UpdatedAt         time.Time               `json:"updated_at"`
}

// NewSession creates an empty session with the seed vocabulary.
func NewSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:                id,
		CheckedViolations: []string{},
		CheckedAreas:      []string{},
		Photos:            []*models.PhotoEvidence{},
		Vocabulary:        NewVocabulary(catalog.InitialTags()),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Photo returns the evidence record with the given id.
func (s *Session) Photo(photoID string) (*models.PhotoEvidence, error) {
	for _, p := range s.Photos {
		if p.ID == photoID {
			return p, nil
		}
	}
	return nil, fmt.Errorf("photo %s: %w", photoID, apperr.ErrNotFound)
}

// AddPhoto appends a new evidence record in the analyzing state.
func (s *Session) AddPhoto(p *models.PhotoEvidence) {
	s.Photos = append(s.Photos, p)
	s.touch()
}

// RemovePhoto detaches the evidence record and returns it so the caller can
// release its media handle. Unknown ids return (nil, false): removal is a
// no-op, not an error.
func (s *Session) RemovePhoto(photoID string) (*models.PhotoEvidence, bool) {
	for i, p := range s.Photos {
		if p.ID == photoID {
			s.Photos = append(s.Photos[:i], s.Photos[i+1:]...)
			s.touch()
			return p, true
		}
	}
	return nil, false
}

// describe is the derivation rule that keeps a photo's description in sync
// with its tag set. An empty tag set derives an empty description.
func describe(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return "Observed " + strings.Join(tags, ", ") + " at this location."
}

// AddTag attaches a tag to a photo. The input is trimmed; empty input is a
// no-op. A case-insensitive duplicate is not appended, but the vocabulary
// still absorbs the tag either way. Any actual change re-derives the
// description from the full tag sequence.
func (s *Session) AddTag(photoID, tagText string) error {
	tag := strings.TrimSpace(tagText)
	if tag == "" {
		return nil
	}
	p, err := s.Photo(photoID)
	if err != nil {
		return err
	}
	s.Vocabulary.Add(tag)
	if p.HasTag(tag) {
		return nil
	}
	p.Tags = append(p.Tags, tag)
	p.Description = describe(p.Tags)
	p.Version++
	s.touch()
	return nil
}

// RemoveTag removes an exact-match tag and re-derives the description from
// the remaining tags. Removing the last tag leaves the description empty.
func (s *Session) RemoveTag(photoID, tag string) error {
	p, err := s.Photo(photoID)
	if err != nil {
		return err
	}
	for i, t := range p.Tags {
		if t == tag {
			p.Tags = append(p.Tags[:i], p.Tags[i+1:]...)
			p.Description = describe(p.Tags)
			p.Version++
			s.touch()
			return nil
		}
	}
	return nil
}

// SetDescription overwrites the description unconditionally. The auto
// derivation link is broken until the next tag mutation re-derives it.
func (s *Session) SetDescription(photoID, text string) error {
	p, err := s.Photo(photoID)
	if err != nil {
		return err
	}
	p.Description = text
	p.Version++
	s.touch()
	return nil
}

// AddHighlight places a point marker on the photo. Coordinates are
// percentage-of-image; out-of-range values are accepted as-is.
func (s *Session) AddHighlight(photoID string, x, y float64) (models.Highlight, error) {
	p, err := s.Photo(photoID)
	if err != nil {
		return models.Highlight{}, err
	}
	h := models.Highlight{ID: uuid.NewString(), X: x, Y: y}
	p.Highlights = append(p.Highlights, h)
	p.Version++
	s.touch()
	return h, nil
}

// RemoveHighlight removes a marker by id. Unknown ids are a no-op.
func (s *Session) RemoveHighlight(photoID, highlightID string) error {
	p, err := s.Photo(photoID)
	if err != nil {
		return err
	}
	for i, h := range p.Highlights {
		if h.ID == highlightID {
			p.Highlights = append(p.Highlights[:i], p.Highlights[i+1:]...)
			p.Version++
			s.touch()
			return nil
		}
	}
	return nil
}

// Verify marks the photo as reviewed and returns the id of the next photo
// still awaiting review, or "" when none remains. Only a photo in
// needs_review can be verified.
func (s *Session) Verify(photoID string) (string, error) {
	p, err := s.Photo(photoID)
	if err != nil {
		return "", err
	}
	if !p.Status.CanTransition(models.StatusVerified) {
		return "", fmt.Errorf("photo %s: %s -> %s: %w",
			photoID, p.Status, models.StatusVerified, apperr.ErrInvalidTransition)
	}
	p.Status = models.StatusVerified
	p.Version++
	s.touch()
	for _, next := range s.Photos {
		if next.Status != models.StatusVerified {
			return next.ID, nil
		}
	}
	return "", nil
}

// ApplyAnalysis records the outcome of the asynchronous vision call. The
// caller passes the photo version captured when the call was dispatched; if
// the record has been edited since, the detected tags are stale and rejected
// with ErrStaleAnalysis — the user's tags and description win — but the
// photo still leaves analyzing so it can be reviewed. On success the
// detected tags replace the photo's tags, the description is re-derived
// (with a fixed sentence for an empty result), and the photo moves to
// needs_review.
func (s *Session) ApplyAnalysis(photoID string, version uint64, detected []string) error {
	p, err := s.Photo(photoID)
	if err != nil {
		return err
	}
	if p.Version != version {
		err := fmt.Errorf("photo %s: version %d now %d: %w",
			photoID, version, p.Version, apperr.ErrStaleAnalysis)
		if p.Status.CanTransition(models.StatusNeedsReview) {
			p.Status = models.StatusNeedsReview
			p.Version++
			s.touch()
		}
		return err
	}

	tags := []string{}
	for _, t := range detected {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		dup := false
		for _, have := range tags {
			if strings.EqualFold(have, t) {
				dup = true
				break
			}
		}
		if !dup {
			tags = append(tags, t)
		}
	}

	p.Tags = tags
	if len(tags) > 0 {
		p.Description = describe(tags)
	} else {
		p.Description = "No specific violations detected."
	}
	if p.Status.CanTransition(models.StatusNeedsReview) {
		p.Status = models.StatusNeedsReview
	}
	p.Version++
	s.touch()
	return nil
}

// ToggleViolation flips membership of id in the checked-violation set.
func (s *Session) ToggleViolation(id string) {
	s.CheckedViolations = toggle(s.CheckedViolations, id)
	s.touch()
}

// ToggleArea flips membership of id in the checked-area set.
func (s *Session) ToggleArea(id string) {
	s.CheckedAreas = toggle(s.CheckedAreas, id)
	s.touch()
}

// SetForm replaces the notice form fields. They are echoed into the report
// payload verbatim; no validation happens here.
func (s *Session) SetForm(form models.FormContext) {
	s.Form = form
	s.touch()
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now().UTC()
}

// toggle flips membership of id in an ordered set. Toggling twice restores
// the original membership.
func toggle(set []string, id string) []string {
	for i, v := range set {
		if v == id {
			return append(set[:i], set[i+1:]...)
		}
	}
	return append(set, id)
}

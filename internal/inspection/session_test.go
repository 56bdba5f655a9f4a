package inspection

import (
	"errors"
	"testing"

	"github.com/arroyoseco/abate/internal/apperr"
	"github.com/arroyoseco/abate/internal/catalog"
	"github.com/arroyoseco/abate/internal/models"
)

func newPhoto(id string) *models.PhotoEvidence {
	return &models.PhotoEvidence{
		ID:         id,
		MediaPath:  "sess/" + id + ".jpg",
		MimeType:   "image/jpeg",
		Tags:       []string{},
		Highlights: []models.Highlight{},
		Status:     models.StatusAnalyzing,
	}
}

func TestAddTagDerivesDescription(t *testing.T) {
	s := NewSession("s1")
	p := newPhoto("p1")
	p.Status = models.StatusNeedsReview
	s.AddPhoto(p)

	if err := s.AddTag("p1", "Rodent"); err != nil {
		t.Fatalf("AddTag: %v", err)
	}
	if p.Description != "Observed Rodent at this location." {
		t.Errorf("description = %q", p.Description)
	}
	if err := s.AddTag("p1", "Mold"); err != nil {
		t.Fatalf("AddTag: %v", err)
	}
	if p.Description != "Observed Rodent, Mold at this location." {
		t.Errorf("description = %q", p.Description)
	}
}

func TestAddTagCaseInsensitiveDedup(t *testing.T) {
	s := NewSession("s1")
	p := newPhoto("p1")
	s.AddPhoto(p)

	_ = s.AddTag("p1", "Rodent")
	_ = s.AddTag("p1", "rodent")
	_ = s.AddTag("p1", "RODENT")
	if len(p.Tags) != 1 {
		t.Errorf("tags = %v, want exactly one", p.Tags)
	}
}

func TestAddTagTrimsAndIgnoresEmpty(t *testing.T) {
	s := NewSession("s1")
	p := newPhoto("p1")
	s.AddPhoto(p)

	_ = s.AddTag("p1", "   ")
	if len(p.Tags) != 0 {
		t.Errorf("blank tag added: %v", p.Tags)
	}
	_ = s.AddTag("p1", "  Frass  ")
	if len(p.Tags) != 1 || p.Tags[0] != "Frass" {
		t.Errorf("tags = %v, want trimmed Frass", p.Tags)
	}
}

func TestVocabularyAbsorbsEvenOnPhotoDuplicate(t *testing.T) {
	s := NewSession("s1")
	p := newPhoto("p1")
	p.Tags = []string{"Standing Water"}
	s.AddPhoto(p)

	before := s.Vocabulary.Len()
	// Duplicate for the photo, but new to the vocabulary.
	_ = s.AddTag("p1", "Standing Water")
	if len(p.Tags) != 1 {
		t.Errorf("photo tags = %v", p.Tags)
	}
	if s.Vocabulary.Len() != before+1 {
		t.Errorf("vocabulary len = %d, want %d", s.Vocabulary.Len(), before+1)
	}
	// Absorbing again changes nothing.
	_ = s.AddTag("p1", "standing water")
	if s.Vocabulary.Len() != before+1 {
		t.Errorf("vocabulary grew on case-insensitive duplicate")
	}
}

func TestRemoveTagRederivesOrEmpties(t *testing.T) {
	s := NewSession("s1")
	p := newPhoto("p1")
	s.AddPhoto(p)
	_ = s.AddTag("p1", "Rodent")
	_ = s.AddTag("p1", "Mold")

	if err := s.RemoveTag("p1", "Mold"); err != nil {
		t.Fatalf("RemoveTag: %v", err)
	}
	if p.Description != "Observed Rodent at this location." {
		t.Errorf("description = %q", p.Description)
	}
	if err := s.RemoveTag("p1", "Rodent"); err != nil {
		t.Fatalf("RemoveTag: %v", err)
	}
	if p.Description != "" {
		t.Errorf("description = %q, want empty after last tag removed", p.Description)
	}
	// Removing an absent tag is a no-op.
	if err := s.RemoveTag("p1", "Ghost"); err != nil {
		t.Errorf("RemoveTag absent: %v", err)
	}
}

func TestSetDescriptionBreaksDerivationUntilNextTagMutation(t *testing.T) {
	s := NewSession("s1")
	p := newPhoto("p1")
	s.AddPhoto(p)
	_ = s.AddTag("p1", "Rodent")

	_ = s.SetDescription("p1", "Burrow next to the garbage enclosure.")
	if p.Description != "Burrow next to the garbage enclosure." {
		t.Errorf("description = %q", p.Description)
	}
	// The next tag mutation re-derives.
	_ = s.AddTag("p1", "Frass")
	if p.Description != "Observed Rodent, Frass at this location." {
		t.Errorf("description = %q", p.Description)
	}
}

func TestHighlightsAddAndRemove(t *testing.T) {
	s := NewSession("s1")
	p := newPhoto("p1")
	s.AddPhoto(p)

	h1, err := s.AddHighlight("p1", 10.5, 20.25)
	if err != nil {
		t.Fatalf("AddHighlight: %v", err)
	}
	h2, _ := s.AddHighlight("p1", 80, 90)
	// Out-of-range coordinates are accepted as-is.
	h3, _ := s.AddHighlight("p1", -5, 240)
	if h3.X != -5 || h3.Y != 240 {
		t.Errorf("out-of-range highlight altered: %+v", h3)
	}

	if err := s.RemoveHighlight("p1", h2.ID); err != nil {
		t.Fatalf("RemoveHighlight: %v", err)
	}
	if len(p.Highlights) != 2 {
		t.Fatalf("highlights = %d, want 2", len(p.Highlights))
	}
	if p.Highlights[0].ID != h1.ID || p.Highlights[0].X != 10.5 {
		t.Errorf("surviving highlight changed: %+v", p.Highlights[0])
	}
	// Unknown id is a no-op.
	if err := s.RemoveHighlight("p1", "missing"); err != nil {
		t.Errorf("RemoveHighlight unknown: %v", err)
	}
	if len(p.Highlights) != 2 {
		t.Errorf("no-op removal changed highlights: %d", len(p.Highlights))
	}
}

func TestVerifyAdvancesToNextUnverified(t *testing.T) {
	s := NewSession("s1")
	p1, p2 := newPhoto("p1"), newPhoto("p2")
	p1.Status = models.StatusNeedsReview
	p2.Status = models.StatusNeedsReview
	s.AddPhoto(p1)
	s.AddPhoto(p2)

	next, err := s.Verify("p1")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if next != "p2" {
		t.Errorf("next = %q, want p2", next)
	}
	if p1.Status != models.StatusVerified {
		t.Errorf("status = %s", p1.Status)
	}

	next, err = s.Verify("p2")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if next != "" {
		t.Errorf("next = %q, want none", next)
	}
}

func TestVerifyRejectsIllegalTransition(t *testing.T) {
	s := NewSession("s1")
	p := newPhoto("p1") // still analyzing
	s.AddPhoto(p)

	if _, err := s.Verify("p1"); !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Errorf("err = %v, want ErrInvalidTransition", err)
	}
	p.Status = models.StatusNeedsReview
	if _, err := s.Verify("p1"); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	// Verified is terminal.
	if _, err := s.Verify("p1"); !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Errorf("re-verify err = %v, want ErrInvalidTransition", err)
	}
}

func TestApplyAnalysis(t *testing.T) {
	s := NewSession("s1")
	p := newPhoto("p1")
	s.AddPhoto(p)

	if err := s.ApplyAnalysis("p1", p.Version, []string{"Rodent", "Mold", "rodent"}); err != nil {
		t.Fatalf("ApplyAnalysis: %v", err)
	}
	if len(p.Tags) != 2 {
		t.Errorf("tags = %v, want deduped pair", p.Tags)
	}
	if p.Description != "Observed Rodent, Mold at this location." {
		t.Errorf("description = %q", p.Description)
	}
	if p.Status != models.StatusNeedsReview {
		t.Errorf("status = %s", p.Status)
	}
}

func TestApplyAnalysisEmptyResult(t *testing.T) {
	s := NewSession("s1")
	p := newPhoto("p1")
	s.AddPhoto(p)

	if err := s.ApplyAnalysis("p1", p.Version, nil); err != nil {
		t.Fatalf("ApplyAnalysis: %v", err)
	}
	if p.Description != "No specific violations detected." {
		t.Errorf("description = %q", p.Description)
	}
	if p.Status != models.StatusNeedsReview {
		t.Errorf("status = %s, empty result still ends analysis", p.Status)
	}
}

func TestApplyAnalysisRejectsStaleVersion(t *testing.T) {
	s := NewSession("s1")
	p := newPhoto("p1")
	s.AddPhoto(p)
	dispatched := p.Version

	// A user edit lands before the analysis result.
	_ = s.AddTag("p1", "Broken Window")

	err := s.ApplyAnalysis("p1", dispatched, []string{"Rodent"})
	if !errors.Is(err, apperr.ErrStaleAnalysis) {
		t.Fatalf("err = %v, want ErrStaleAnalysis", err)
	}
	if !p.HasTag("Broken Window") || p.HasTag("Rodent") {
		t.Errorf("user edit clobbered: tags = %v", p.Tags)
	}
	if p.Description != "Observed Broken Window at this location." {
		t.Errorf("description clobbered: %q", p.Description)
	}

	// The rejected result still completes the lifecycle: the photo must not
	// be stuck in analyzing, and verification must succeed.
	if p.Status != models.StatusNeedsReview {
		t.Fatalf("status = %s, want needs_review", p.Status)
	}
	if _, err := s.Verify("p1"); err != nil {
		t.Errorf("Verify after stale rejection: %v", err)
	}
}

func TestToggleTwiceRestoresMembership(t *testing.T) {
	s := NewSession("s1")
	s.ToggleViolation("rodent")
	s.ToggleViolation("mold")
	s.ToggleViolation("rodent")
	s.ToggleViolation("rodent")

	want := map[string]bool{"rodent": true, "mold": true}
	if len(s.CheckedViolations) != 2 {
		t.Fatalf("checked = %v", s.CheckedViolations)
	}
	for _, id := range s.CheckedViolations {
		if !want[id] {
			t.Errorf("unexpected member %q", id)
		}
	}
	s.ToggleViolation("mold")
	s.ToggleViolation("rodent")
	s.ToggleViolation("rodent")
	if len(s.CheckedViolations) != 1 || s.CheckedViolations[0] != "mold" {
		t.Errorf("checked = %v, want [mold]", s.CheckedViolations)
	}
}

func TestSuggestionsExcludeExactMatchesOnly(t *testing.T) {
	v := NewVocabulary([]string{"Rodent", "Mold", "Frass"})
	p := newPhoto("p1")
	p.Tags = []string{"Mold", "rodent"} // lower-case does not match "Rodent"

	got := v.SuggestionsFor(p)
	want := []string{"Rodent", "Frass"}
	if len(got) != len(want) {
		t.Fatalf("suggestions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("suggestions[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRemovePhotoUnknownIsNoop(t *testing.T) {
	s := NewSession("s1")
	s.AddPhoto(newPhoto("p1"))

	if _, ok := s.RemovePhoto("nope"); ok {
		t.Error("unknown id reported as removed")
	}
	p, ok := s.RemovePhoto("p1")
	if !ok || p.ID != "p1" {
		t.Fatalf("RemovePhoto: ok=%v p=%+v", ok, p)
	}
	if _, ok := s.RemovePhoto("p1"); ok {
		t.Error("second removal reported as removed")
	}
}

func TestBuildPayload(t *testing.T) {
	cat := catalog.New()
	s := NewSession("s1")
	s.Form = models.FormContext{
		Date:           "2026-08-28",
		Address:        "350 Jones St",
		InspectionType: "Complaint",
		CorrectionDate: "2026-09-15",
	}
	s.ToggleViolation("rodent")
	s.ToggleViolation("mold")

	p1 := newPhoto("p1") // no tags, excluded but still counted for numbering
	p2 := newPhoto("p2")
	p2.Status = models.StatusNeedsReview
	s.AddPhoto(p1)
	s.AddPhoto(p2)
	_ = s.AddTag("p2", "Cockroach")

	payload := BuildPayload(s, cat)

	if len(payload.Violations) != 2 {
		t.Fatalf("violations = %d, want 2", len(payload.Violations))
	}
	rodent := payload.Violations[0]
	if rodent.Name != "rodent" || rodent.Code != "Sec 581(b)(13)" {
		t.Errorf("rodent finding = %+v", rodent)
	}
	if rodent.Importance == "" || rodent.Abatement == "" {
		t.Errorf("rodent finding missing catalog fields: %+v", rodent)
	}

	if len(payload.PhotoEvidence) != 1 {
		t.Fatalf("photo findings = %d, want 1", len(payload.PhotoEvidence))
	}
	pf := payload.PhotoEvidence[0]
	if pf.Source != "Photo #2" {
		t.Errorf("source = %q, want position in full photo list", pf.Source)
	}
	if pf.Description != "Observed Cockroach at this location." {
		t.Errorf("description = %q", pf.Description)
	}
	if payload.Address != "350 Jones St" || payload.CorrectionDate != "2026-09-15" {
		t.Errorf("form context not echoed: %+v", payload)
	}
}

func TestBuildPayloadGracefulCatalogMiss(t *testing.T) {
	cat := catalog.New()
	s := NewSession("s1")
	s.ToggleViolation("not-in-catalog")

	payload := BuildPayload(s, cat)
	if len(payload.Violations) != 1 {
		t.Fatalf("violations = %d, want 1", len(payload.Violations))
	}
	f := payload.Violations[0]
	if f.Name != "not-in-catalog" {
		t.Errorf("name = %q", f.Name)
	}
	if f.Code != "" || f.Importance != "" || f.Abatement != "" {
		t.Errorf("miss should leave fields empty: %+v", f)
	}
}

func TestBuildPayloadDefaultsEmptyDescription(t *testing.T) {
	cat := catalog.New()
	s := NewSession("s1")
	p := newPhoto("p1")
	p.Tags = []string{"Rodent"}
	p.Description = ""
	s.AddPhoto(p)

	payload := BuildPayload(s, cat)
	if payload.PhotoEvidence[0].Description != "Observed on property." {
		t.Errorf("description = %q", payload.PhotoEvidence[0].Description)
	}
}

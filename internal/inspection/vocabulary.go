package inspection

import (
	"encoding/json"
	"strings"

	"github.com/arroyoseco/abate/internal/models"
)

// Vocabulary is the growable set of known violation tags offered as
// quick-pick suggestions. Entries are unique ignoring case and keep
// insertion order for display. The set only ever grows.
type Vocabulary struct {
	tags []string
}

// NewVocabulary returns a vocabulary seeded with the given tags.
func NewVocabulary(seed []string) *Vocabulary {
	v := &Vocabulary{}
	for _, t := range seed {
		v.Add(t)
	}
	return v
}

// Add absorbs a tag into the vocabulary. The candidate is trimmed; empty
// input and case-insensitive duplicates are no-ops.
func (v *Vocabulary) Add(candidate string) {
	tag := strings.TrimSpace(candidate)
	if tag == "" {
		return
	}
	for _, existing := range v.tags {
		if strings.EqualFold(existing, tag) {
			return
		}
	}
	v.tags = append(v.tags, tag)
}

// Tags returns a copy of the vocabulary in insertion order.
func (v *Vocabulary) Tags() []string {
	out := make([]string, len(v.tags))
	copy(out, v.tags)
	return out
}

// Len returns the number of entries.
func (v *Vocabulary) Len() int {
	return len(v.tags)
}

// SuggestionsFor returns the vocabulary entries not already on the photo.
// The exclusion is exact-match; a photo tagged "rodent" still gets the
// "Rodent" suggestion. Recomputed on every call.
func (v *Vocabulary) SuggestionsFor(p *models.PhotoEvidence) []string {
	present := make(map[string]struct{}, len(p.Tags))
	for _, t := range p.Tags {
		present[t] = struct{}{}
	}
	out := []string{}
	for _, t := range v.tags {
		if _, ok := present[t]; !ok {
			out = append(out, t)
		}
	}
	return out
}

// MarshalJSON encodes the vocabulary as a plain JSON array.
func (v *Vocabulary) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.tags)
}

// UnmarshalJSON decodes a plain JSON array, re-applying the dedup rule.
func (v *Vocabulary) UnmarshalJSON(data []byte) error {
	var tags []string
	if err := json.Unmarshal(data, &tags); err != nil {
		return err
	}
	v.tags = nil
	for _, t := range tags {
		v.Add(t)
	}
	return nil
}

// Package models defines the domain types for Abate.
package models

import (
	"strings"
	"time"
)

// PhotoStatus is the review state of a piece of photo evidence.
type PhotoStatus string

const (
	// StatusAnalyzing means the photo was uploaded and the vision call is in flight.
	StatusAnalyzing PhotoStatus = "analyzing"
	// StatusNeedsReview means auto-tagging finished and an inspector must confirm.
	StatusNeedsReview PhotoStatus = "needs_review"
	// StatusVerified is terminal for the session.
	StatusVerified PhotoStatus = "verified"
)

// transitions is the validated table of legal status moves. The progression
// is strictly linear; there is no backward transition.
var transitions = map[PhotoStatus]PhotoStatus{
	StatusAnalyzing:   StatusNeedsReview,
	StatusNeedsReview: StatusVerified,
}

// CanTransition reports whether moving from s to next is legal.
func (s PhotoStatus) CanTransition(next PhotoStatus) bool {
	return transitions[s] == next
}

// Highlight is a point marker placed on a photo, in percentage-of-image
// coordinates. Values outside [0,100] are accepted as-is; the caller derives
// them from click positions and the engine does not second-guess geometry.
type Highlight struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// PhotoEvidence is one uploaded inspection photo and everything attached to it.
//
// MediaPath is the owned handle to the stored image bytes: the record is
// responsible for releasing it exactly once when it is removed or the
// session is torn down.
//
// Version increases on every user-initiated mutation of the record. An
// asynchronous tagging result carries the version captured at dispatch time
// and is rejected if the record has moved on since.
type PhotoEvidence struct {
	ID          string      `json:"id"`
	MediaPath   string      `json:"media_path"`
	MimeType    string      `json:"mime_type"`
	Checksum    string      `json:"checksum"`
	Tags        []string    `json:"tags"`
	Description string      `json:"description"`
	Highlights  []Highlight `json:"highlights"`
	Status      PhotoStatus `json:"status"`
	Version     uint64      `json:"version"`
	UploadedAt  time.Time   `json:"uploaded_at"`
}

// HasTag reports whether tag is present on the photo, comparing
// case-insensitively.
func (p *PhotoEvidence) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// FormContext carries the notice form fields. The engine echoes these
// verbatim into the report payload; it performs no validation on them.
type FormContext struct {
	Date           string `json:"date"`
	TimeIn         string `json:"time_in"`
	TimeOut        string `json:"time_out"`
	Address        string `json:"address"`
	DBA            string `json:"dba"`
	Owner          string `json:"owner"`
	Management     string `json:"management"`
	CaseNumber     string `json:"case_number"`
	Inspector      string `json:"inspector"`
	FacilityType   string `json:"facility_type"`
	InspectionType string `json:"inspection_type"`
	CorrectionDate string `json:"correction_date"`
	LocationID     string `json:"location_id"`
	ComplaintID    string `json:"complaint_id"`
	ReportContent  string `json:"report_content"`
}

// Finding is one checklist violation resolved against the catalog.
// Fields stay empty when the id has no catalog entry.
type Finding struct {
	Name       string `json:"name"`
	Abatement  string `json:"abatement"`
	Importance string `json:"importance"`
	Code       string `json:"code"`
}

// PhotoFinding is one tagged photo's contribution to the report payload.
type PhotoFinding struct {
	Source      string      `json:"source"`
	Tags        []string    `json:"tags"`
	Description string      `json:"description"`
	Status      PhotoStatus `json:"status"`
}

// ReportPayload is the aggregation handed to the narrative generator.
// It is built fresh per request and never mutated afterwards.
type ReportPayload struct {
	Violations     []Finding      `json:"violations"`
	PhotoEvidence  []PhotoFinding `json:"photo_evidence"`
	Date           string         `json:"date"`
	Address        string         `json:"address"`
	InspectionType string         `json:"inspection_type"`
	CorrectionDate string         `json:"correction_date"`
}

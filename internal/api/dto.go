package api

import (
	"github.com/arroyoseco/abate/internal/inspection"
	"github.com/arroyoseco/abate/internal/models"
)

// SessionDetail is the full session response type (aliased from the domain layer).
type SessionDetail = inspection.Session

// SessionSummary is a lightweight item in a session list (aliased from the domain layer).
type SessionSummary = inspection.SessionSummary

// ToggleRequest is the request body for checklist and area toggles.
type ToggleRequest struct {
	ID string `json:"id" example:"rodent" validate:"required"`
}

// TagRequest is the request body for adding a tag to a photo.
type TagRequest struct {
	Tag string `json:"tag" example:"Rodent Burrows" validate:"required"`
}

// DescriptionRequest is the request body for overwriting a photo description.
type DescriptionRequest struct {
	Text string `json:"text" example:"Burrow next to the garbage enclosure."`
}

// HighlightRequest is the request body for placing a highlight marker.
type HighlightRequest struct {
	X float64 `json:"x" example:"42.5" validate:"required"`
	Y float64 `json:"y" example:"61.0" validate:"required"`
}

// VerifyResponse reports the next photo awaiting review after a verify.
type VerifyResponse struct {
	NextPhotoID string `json:"next_photo_id" example:"6f1e..."`
}

// ReportResponse wraps the generated notice narrative.
type ReportResponse struct {
	Report string `json:"report" validate:"required"`
}

// PayloadResponse wraps the aggregated report payload.
type PayloadResponse = models.ReportPayload

// SuggestionsResponse wraps quick-pick tag suggestions for a photo.
type SuggestionsResponse struct {
	Suggestions []string `json:"suggestions" validate:"required"`
}

package inspection

import (
	"fmt"

	"github.com/arroyoseco/abate/internal/catalog"
	"github.com/arroyoseco/abate/internal/models"
)

// BuildPayload assembles the report payload: every checked violation
// resolved against the catalog, every photo carrying at least one tag, and
// the echoed form context. The payload is built fresh on each call and never
// mutated afterwards.
//
// Photo sources are numbered by position in the full photo list before the
// tag filter is applied, so "Photo #3" still names the third uploaded photo
// even when earlier photos carry no tags.
func BuildPayload(s *Session, cat *catalog.Catalog) models.ReportPayload {
	findings := []models.Finding{}
	for _, id := range s.CheckedViolations {
		e, _ := cat.Lookup(id) // graceful miss: fields stay empty
		findings = append(findings, models.Finding{
			Name:       id,
			Abatement:  e.Action,
			Importance: e.Importance,
			Code:       e.Code,
		})
	}

	photoFindings := []models.PhotoFinding{}
	for i, p := range s.Photos {
		if len(p.Tags) == 0 {
			continue
		}
		desc := p.Description
		if desc == "" {
			desc = "Observed on property."
		}
		tags := make([]string, len(p.Tags))
		copy(tags, p.Tags)
		photoFindings = append(photoFindings, models.PhotoFinding{
			Source:      fmt.Sprintf("Photo #%d", i+1),
			Tags:        tags,
			Description: desc,
			Status:      p.Status,
		})
	}

	return models.ReportPayload{
		Violations:     findings,
		PhotoEvidence:  photoFindings,
		Date:           s.Form.Date,
		Address:        s.Form.Address,
		InspectionType: s.Form.InspectionType,
		CorrectionDate: s.Form.CorrectionDate,
	}
}

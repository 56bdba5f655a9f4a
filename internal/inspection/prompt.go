package inspection

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/arroyoseco/abate/internal/models"
)

// VisionPrompt builds the instruction sent alongside an uploaded photo. The
// current vocabulary is listed so the model answers with known tag spellings.
func VisionPrompt(vocabulary []string) string {
	return fmt.Sprintf(`Analyze this inspection photo.
Identify if any of the following conditions are present: %s.
Return a JSON object with a key "tags" containing an array of strings matching the identified conditions.
Example: {"tags": ["Rodent Burrows", "Uncontainerized Garbage"]}`,
		strings.Join(vocabulary, ", "))
}

// NarrativeInstruction embeds the aggregated payload in the fixed notice
// template instruction for the text-generation service. The returned
// narrative is stored verbatim; nothing here parses it.
func NarrativeInstruction(payload models.ReportPayload) string {
	violations, _ := json.Marshal(payload.Violations)
	photos, _ := json.Marshal(payload.PhotoEvidence)

	return fmt.Sprintf(`You are generating the COMPLETE narrative body text for an official San Francisco DPH Notice of Violation.

CONTEXT:
- Date: %s
- Property: %s
- Inspection Type: %s
- Correction Deadline: %s

INPUT DATA:
1. Violations Identified (Checklist): %s
2. Photo Evidence (User Reviewed): %s

INSTRUCTIONS:
1. Start with the EXACT sentence: "The following Items Represent Health Code Violations and Must Be Corrected By the Indicated Date(s): %s"

2. Write a brief "Observations" narrative paragraph summarizing the inspection (reason, access, general findings).

3. Generate a "Corrective Actions" section. For each violation type found (consolidating checklist & photos), use this EXACT format:

VIOLATION #[N]: [Title] - [Code Section]
Location: [Specific location from photo description or general area]
Condition Observed: [Description of observation. Explain why it is a health hazard using the "Importance" data provided.]
Required Correction: [Specific actionable steps using the "Abatement" data provided.]

4. End with the standard enforcement notice: "Failure to comply with this Notice of Violation will result in a citation to a Director's Hearing pursuant to Section 596(e)(3)..." (and the rest of the standard legal text regarding fees and fines).

Do not use markdown code blocks. Use plain text suitable for a textarea.`,
		payload.Date, payload.Address, payload.InspectionType, payload.CorrectionDate,
		violations, photos, payload.CorrectionDate)
}

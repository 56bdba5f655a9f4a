package mcpserver

// ReportFormatContract describes the report payload shape and the narrative
// template LLM consumers should follow when drafting violation notices.
const ReportFormatContract = `# Abate Report Format Contract

Every violation notice produced from an Abate inspection session follows this
contract. The payload is the single input to the narrative generator; the
notice body is derived from it and nothing else.

## Payload shape

` + "```" + `json
{
  "violations": [
    {
      "name": "rodent",
      "abatement": "Eliminate rodent harborage and seal entry points.",
      "importance": "High",
      "code": "Sec 581(b)(13)"
    }
  ],
  "photo_evidence": [
    {
      "source": "Photo #1",
      "tags": ["Rodent Burrows"],
      "description": "Observed Rodent Burrows at this location.",
      "status": "verified"
    }
  ],
  "date": "2026-08-31",
  "address": "350 Jones St, San Francisco, CA",
  "inspection_type": "Routine",
  "correction_date": "2026-09-14"
}
` + "```" + `

## Rules

1. **Findings come from the checklist.** Each checked violation contributes one
   finding; the catalog supplies its abatement text, importance, and code.
   Unknown identifiers degrade to empty fields, never to an error.
2. **Only tagged photos appear.** A photo with no tags is omitted from
   ` + "`" + `photo_evidence` + "`" + `; its number still reflects its position in the
   session's full photo list, so sources stay stable as tags change.
3. **Descriptions are evidence statements.** A photo without a description is
   reported as "Observed on property."
4. **Dates are echoed verbatim** from the form; the generator must not
   reformat or invent them.

## Narrative template

The notice body opens with the inspection framing sentence, then one block per
finding:

` + "```" + `
VIOLATION #[N]: [CODE] - [TITLE]
OBSERVATION: ...
CORRECTIVE ACTION: ...
` + "```" + `

It closes with the enforcement notice naming the correction date. Plain text
only; no markdown code fences in the output.

## Workflow

- Attach evidence with the ` + "`" + `add_photo` + "`" + ` tool; detected tags arrive
  asynchronously (poll ` + "`" + `get_session` + "`" + ` until the photo's status is
  ` + "`" + `needs_review` + "`" + `).
- Adjust tags with ` + "`" + `add_photo_tag` + "`" + ` / ` + "`" + `remove_photo_tag` + "`" + `, then confirm with
  ` + "`" + `verify_photo` + "`" + `.
- Select checklist findings with ` + "`" + `toggle_violation` + "`" + `.
- Inspect the exact generator input with ` + "`" + `build_payload` + "`" + `, then call
  ` + "`" + `generate_report` + "`" + `.
`

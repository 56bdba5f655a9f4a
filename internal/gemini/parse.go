package gemini

import (
	"encoding/json"
	"fmt"
	"strings"
)

// tagResponse is the JSON shape the vision prompt asks for.
type tagResponse struct {
	Tags []string `json:"tags"`
}

// ParseTags extracts the tag list from a model answer. The model sometimes
// wraps JSON in a markdown code fence despite being told not to, so fences
// are stripped before decoding. A missing "tags" key yields an empty list.
func ParseTags(raw string) ([]string, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return nil, fmt.Errorf("gemini: empty tagging response")
	}
	var resp tagResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return nil, fmt.Errorf("gemini: decode tagging response: %w", err)
	}
	if resp.Tags == nil {
		return []string{}, nil
	}
	return resp.Tags, nil
}

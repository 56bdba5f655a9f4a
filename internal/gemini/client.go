// Package gemini implements the vision tagging and narrative generation
// collaborators on top of the Google GenAI API.
package gemini

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"
)

const defaultModel = "gemini-2.5-flash"

// Client talks to the Gemini API. It satisfies both inspection.Tagger and
// inspection.Narrator.
type Client struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// New creates a Gemini client. model may be empty to use the default.
func New(ctx context.Context, apiKey, model string, logger *slog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if model == "" {
		model = defaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Client{client: client, model: model, logger: logger}, nil
}

// DetectTags sends the photo and the vocabulary prompt to the vision model
// and parses the {"tags": [...]} answer. A malformed answer degrades to an
// empty list rather than an error; only transport failures propagate.
func (c *Client) DetectTags(ctx context.Context, image []byte, mimeType, prompt string) ([]string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(prompt),
			genai.NewPartFromBytes(image, mimeType),
		}, genai.RoleUser),
	}
	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: generate content: %w", err)
	}

	tags, err := ParseTags(result.Text())
	if err != nil {
		c.logger.Warn("unparseable tagging response", slog.String("error", err.Error()))
		return []string{}, nil
	}
	return tags, nil
}

// GenerateNarrative sends the report instruction to the text model and
// returns the narrative verbatim.
func (c *Client) GenerateNarrative(ctx context.Context, instruction string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(instruction, genai.RoleUser),
	}
	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}
	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("gemini: empty narrative response")
	}
	return text, nil
}

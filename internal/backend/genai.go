package backend

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"
)

// GenAI is the Gemini implementation of Generator.
type GenAI struct {
	client  *genai.Client
	timeout time.Duration
}

// NewGenAI creates a Gemini client. A zero timeout leaves calls bounded only
// by the caller's context.
func NewGenAI(ctx context.Context, apiKey string, timeout time.Duration) (*GenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAI{client: client, timeout: timeout}, nil
}

// Generate sends one user turn made of parts and returns the response text.
func (g *GenAI) Generate(ctx context.Context, model string, parts []Part) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	contents := []*genai.Content{genai.NewContentFromParts(toGenAIParts(parts), genai.RoleUser)}
	resp, err := g.client.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)
	}
	text := resp.Text()
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// ListModels walks every page of the model listing.
func (g *GenAI) ListModels(ctx context.Context) ([]ModelInfo, error) {
	var out []ModelInfo
	for m, err := range g.client.Models.All(ctx) {
		if err != nil {
			return out, fmt.Errorf("GenAI list models failed: %w", err)
		}
		out = append(out, ModelInfo{
			Name:        m.Name,
			DisplayName: m.DisplayName,
			Actions:     m.SupportedActions,
		})
	}
	return out, nil
}

func toGenAIParts(parts []Part) []*genai.Part {
	out := make([]*genai.Part, 0, len(parts))
	for _, p := range parts {
		switch p.Kind {
		case PartImage:
			out = append(out, genai.NewPartFromBytes(p.Data, p.MediaType))
		default:
			out = append(out, genai.NewPartFromText(p.Text))
		}
	}
	return out
}

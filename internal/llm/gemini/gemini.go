// Package gemini implements the LLM interface on Google Gemini.
package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/newthinker/stockscan/internal/llm"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// Provider implements the LLM interface for Gemini.
type Provider struct {
	client *genai.Client
	model  string
}

var _ llm.Provider = (*Provider)(nil)

// New creates a Gemini provider using the Gemini API backend.
func New(ctx context.Context, apiKey, model string) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key required")
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Provider{client: client, model: model}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "gemini"
}

func (p *Provider) contents(req llm.ChatRequest) ([]*genai.Content, *genai.GenerateContentConfig) {
	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := genai.Role(genai.RoleUser)
		if m.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(req.MaxTokensOrDefault()),
	}
	if req.Temperature > 0 {
		t := float32(req.Temperature)
		cfg.Temperature = &t
	}
	if req.SystemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	return contents, cfg
}

// Chat sends a generate request to the Gemini API.
func (p *Provider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	contents, cfg := p.contents(req)
	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini API request failed: %w", err)
	}

	out := &llm.ChatResponse{Content: resp.Text()}
	if resp.UsageMetadata != nil {
		out.Usage = llm.Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	if len(resp.Candidates) > 0 {
		out.FinishReason = string(resp.Candidates[0].FinishReason)
	}
	return out, nil
}

// Stream forwards each streamed response's text.
func (p *Provider) Stream(ctx context.Context, req llm.ChatRequest, fn llm.ChunkFunc) error {
	contents, cfg := p.contents(req)
	for resp, err := range p.client.Models.GenerateContentStream(ctx, p.model, contents, cfg) {
		if err != nil {
			return fmt.Errorf("gemini stream failed: %w", err)
		}
		if text := resp.Text(); text != "" {
			if err := fn(text); err != nil {
				return err
			}
		}
	}
	return nil
}

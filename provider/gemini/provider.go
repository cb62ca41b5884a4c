package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/casualjim/pitwall/provider"
	"google.golang.org/genai"
)

const (
	Name         = "gemini"
	DefaultModel = "gemini-1.5-pro"
)

// ErrAPIKeyRequired is returned by New without an API key.
var ErrAPIKeyRequired = errors.New("gemini api key is required")

var _ provider.Provider = (*Provider)(nil)

func init() {
	provider.Register(Name, func(ctx context.Context, s provider.Settings) (provider.Provider, error) {
		return New(ctx, s.APIKey, s.BaseURL)
	})
}

type Provider struct {
	client *genai.Client
}

// New creates a Gemini API client. baseURL overrides the public endpoint and
// may be empty.
func New(ctx context.Context, apiKey, baseURL string) (*Provider, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyRequired
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Provider{client: client}, nil
}

func modelName(name string) string {
	name = strings.TrimPrefix(strings.TrimSpace(name), "models/")
	if name == "" {
		return DefaultModel
	}
	return name
}

func generationConfig(req provider.Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if strings.TrimSpace(req.SystemInstruction) != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(req.SystemInstruction)},
		}
	}
	gc := req.Config
	if gc.Temperature > 0 {
		cfg.Temperature = &gc.Temperature
	}
	if gc.TopP > 0 {
		cfg.TopP = &gc.TopP
	}
	if gc.TopK > 0 {
		topK := float32(gc.TopK)
		cfg.TopK = &topK
	}
	if gc.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = gc.MaxOutputTokens
	}
	return cfg
}

func (p *Provider) Generate(ctx context.Context, req provider.Request) (*provider.Response, error) {
	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{genai.NewPartFromText(req.Prompt)},
	}}

	res, err := p.client.Models.GenerateContent(ctx, modelName(req.Model), contents, generationConfig(req))
	if err != nil {
		return nil, fmt.Errorf("gemini generate content failed: %w", err)
	}

	resp := &provider.Response{
		Candidates: make([]provider.Candidate, 0, len(res.Candidates)),
	}
	for _, c := range res.Candidates {
		cand := provider.Candidate{FinishReason: string(c.FinishReason)}
		if c.Content != nil {
			for _, part := range c.Content.Parts {
				if part != nil && part.Text != "" {
					cand.Parts = append(cand.Parts, part.Text)
				}
			}
		}
		resp.Candidates = append(resp.Candidates, cand)
	}
	return resp, nil
}

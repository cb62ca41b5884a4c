package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/casualjim/pitwall/provider"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	Name         = "openai"
	DefaultModel = openai.ChatModelGPT4oMini
)

var _ provider.Provider = (*Provider)(nil)

func init() {
	provider.Register(Name, func(_ context.Context, s provider.Settings) (provider.Provider, error) {
		var options []option.RequestOption
		if s.APIKey != "" {
			options = append(options, option.WithAPIKey(s.APIKey))
		}
		if s.BaseURL != "" {
			options = append(options, option.WithBaseURL(s.BaseURL))
		}
		return New(options...), nil
	})
}

type Provider struct {
	client *openai.Client
}

func New(options ...option.RequestOption) *Provider {
	client := openai.NewClient(options...)
	return &Provider{
		client: client,
	}
}

func (p *Provider) buildRequest(req provider.Request) openai.ChatCompletionNewParams {
	var msgs []openai.ChatCompletionMessageParamUnion
	if strings.TrimSpace(req.SystemInstruction) != "" {
		msgs = append(msgs, openai.SystemMessage(req.SystemInstruction))
	}
	msgs = append(msgs, openai.UserMessage(req.Prompt))

	model := req.Model
	if model == "" {
		model = DefaultModel
	}

	params := openai.ChatCompletionNewParams{
		Messages: openai.F(msgs),
		Model:    openai.F(model),
		N:        openai.Int(1),
	}
	if req.Config.Temperature > 0 {
		params.Temperature = openai.Float(float64(req.Config.Temperature))
	}
	if req.Config.TopP > 0 {
		params.TopP = openai.Float(float64(req.Config.TopP))
	}
	if req.Config.MaxOutputTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.Config.MaxOutputTokens))
	}
	return params
}

func (p *Provider) Generate(ctx context.Context, req provider.Request) (*provider.Response, error) {
	chat, err := p.client.Chat.Completions.New(ctx, p.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("openai chat completion failed: %w", err)
	}

	resp := &provider.Response{
		Candidates: make([]provider.Candidate, 0, len(chat.Choices)),
	}
	for _, choice := range chat.Choices {
		cand := provider.Candidate{FinishReason: string(choice.FinishReason)}
		if choice.Message.Content != "" {
			cand.Parts = []string{choice.Message.Content}
		}
		resp.Candidates = append(resp.Candidates, cand)
	}
	return resp, nil
}

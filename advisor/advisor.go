package advisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/casualjim/pitwall/pkg/slogx"
	"github.com/casualjim/pitwall/provider"
	"github.com/fogfish/opts"
)

const (
	DefaultSystemInstruction = "You are an expert Formula 1 race strategist. Be concise, factual, and actionable. " +
		"Use bullet points, include assumptions, and highlight uncertainties."
	DefaultTemperature     float32 = 0.4
	DefaultTopP            float32 = 0.95
	DefaultTopK            int32   = 32
	DefaultMaxOutputTokens int32   = 2048
)

// ErrNotConfigured is returned by every call on an Advisor without a provider.
var ErrNotConfigured = errors.New("no language model provider configured")

type Option = opts.Option[Advisor]

var (
	WithModel             = opts.ForName[Advisor, string]("model")
	WithSystemInstruction = opts.ForName[Advisor, string]("systemInstruction")
	WithTemperature       = opts.ForName[Advisor, float32]("temperature")
	WithTopP              = opts.ForName[Advisor, float32]("topP")
	WithTopK              = opts.ForName[Advisor, int32]("topK")
	WithMaxOutputTokens   = opts.ForName[Advisor, int32]("maxOutputTokens")
)

// WithProvider sets the backend. Without one every call fails with
// ErrNotConfigured.
func WithProvider(p provider.Provider) Option {
	return opts.Type[Advisor](func(a *Advisor) error {
		a.provider = p
		return nil
	})
}

type Advisor struct {
	provider          provider.Provider
	model             string
	systemInstruction string
	temperature       float32
	topP              float32
	topK              int32
	maxOutputTokens   int32
	log               *slog.Logger
}

func New(options ...Option) (*Advisor, error) {
	a := &Advisor{
		systemInstruction: DefaultSystemInstruction,
		temperature:       DefaultTemperature,
		topP:              DefaultTopP,
		topK:              DefaultTopK,
		maxOutputTokens:   DefaultMaxOutputTokens,
		log:               slogx.Named("advisor"),
	}
	if err := opts.Apply(a, options); err != nil {
		return nil, fmt.Errorf("invalid advisor option: %w", err)
	}
	return a, nil
}

// Configured reports whether the advisor has a provider to talk to.
func (a *Advisor) Configured() bool {
	return a.provider != nil
}

// Ask sends a prompt built from the task, context, input and requirements and
// returns the normalized answer.
func (a *Advisor) Ask(ctx context.Context, task string, raceContext, input any, requirements ...string) (string, error) {
	if a.provider == nil {
		return "", ErrNotConfigured
	}

	prompt := BuildPrompt(task, a.systemInstruction, raceContext, input, requirements)
	a.log.Debug("sending prompt", slog.String("task", task), slog.Int("length", len(prompt)))

	resp, err := a.provider.Generate(ctx, a.request(prompt))
	if err != nil {
		return "", fmt.Errorf("%s: %w", strings.ToLower(task), err)
	}
	return Normalize(resp), nil
}

func (a *Advisor) request(prompt string) provider.Request {
	return provider.Request{
		Model:             a.model,
		SystemInstruction: a.systemInstruction,
		Prompt:            prompt,
		Config: provider.GenerationConfig{
			Temperature:     a.temperature,
			TopP:            a.topP,
			TopK:            a.topK,
			MaxOutputTokens: a.maxOutputTokens,
		},
	}
}

// Normalize extracts the answer text: every part of the first candidate, or
// when that is empty the first part of each candidate on its own line.
func Normalize(resp *provider.Response) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	if text := strings.TrimSpace(strings.Join(resp.Candidates[0].Parts, "")); text != "" {
		return text
	}

	var lines []string
	for _, c := range resp.Candidates {
		if len(c.Parts) > 0 && strings.TrimSpace(c.Parts[0]) != "" {
			lines = append(lines, c.Parts[0])
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

package advisor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/casualjim/pitwall/agent"
	"github.com/casualjim/pitwall/provider"
	"github.com/casualjim/pitwall/race"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ agent.Explainer = (*Advisor)(nil)

type fakeProvider struct {
	requests []provider.Request
	resp     *provider.Response
	err      error
}

func (f *fakeProvider) Generate(_ context.Context, req provider.Request) (*provider.Response, error) {
	f.requests = append(f.requests, req)
	return f.resp, f.err
}

func answer(parts ...string) *provider.Response {
	return &provider.Response{Candidates: []provider.Candidate{{Parts: parts}}}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("Analyze tire strategy", "Be brief.",
		NewFields("lap", 12, "track", "Monza"),
		map[string]any{"stops": 1},
		[]string{"first", "second"},
	)

	want := "Task: Analyze tire strategy\n" +
		"System: Be brief.\n" +
		"\n" +
		"Context:\n" +
		"{\n  \"lap\": 12,\n  \"track\": \"Monza\"\n}\n" +
		"\n" +
		"Input:\n" +
		"{\n  \"stops\": 1\n}\n" +
		"\n" +
		"Requirements:\n" +
		"- first\n" +
		"- second\n" +
		"\n" +
		"Return clear, structured text with bullet points where appropriate."
	assert.Equal(t, want, prompt)
}

func TestBuildPromptDefaults(t *testing.T) {
	prompt := BuildPrompt("Task", "Sys", nil, "<fast> & loud", nil)
	assert.Contains(t, prompt, "Context:\nnull\n\n")
	assert.Contains(t, prompt, "Input:\n\"<fast> & loud\"\n\n")
	assert.Contains(t, prompt, "Requirements:\n- Be concise and actionable.\n\n")
}

func TestBuildPromptKeepsFieldOrder(t *testing.T) {
	prompt := BuildPrompt("Task", "Sys", NewFields("zeta", 1, "alpha", 2, "mid", 3), nil, nil)
	assert.Contains(t, prompt, "{\n  \"zeta\": 1,\n  \"alpha\": 2,\n  \"mid\": 3\n}")
}

func TestBuildPromptUnencodable(t *testing.T) {
	prompt := BuildPrompt("Task", "Sys", map[string]any{"ch": make(chan int)}, nil, nil)
	assert.Contains(t, prompt, "Context:\nmap[ch:")
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		resp *provider.Response
		want string
	}{
		{"nil response", nil, ""},
		{"no candidates", &provider.Response{}, ""},
		{"joins first candidate parts", answer("- Box ", "in 2 laps"), "- Box in 2 laps"},
		{
			"falls back to first part of each candidate",
			&provider.Response{Candidates: []provider.Candidate{
				{},
				{Parts: []string{"- Stay out", "ignored"}},
				{Parts: []string{"- Push"}},
			}},
			"- Stay out\n- Push",
		},
		{"all empty", &provider.Response{Candidates: []provider.Candidate{{}, {Parts: []string{""}}}}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.resp))
		})
	}
}

func TestNotConfigured(t *testing.T) {
	a, err := New()
	require.NoError(t, err)
	assert.False(t, a.Configured())

	ctx := context.Background()
	_, err = a.AnalyzeTireStrategy(ctx, nil, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = a.PredictRaceOutcome(ctx, nil, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = a.ExplainStrategyDecision(ctx, nil, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = a.ExplainInsight(ctx, race.TelemetrySample{}, race.WeatherSample{}, race.StrategyInsight{})
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.False(t, a.TestConnection(ctx))
}

func TestRequestSettings(t *testing.T) {
	fp := &fakeProvider{resp: answer("ok")}

	a, err := New(WithProvider(fp))
	require.NoError(t, err)
	_, err = a.PredictRaceOutcome(context.Background(), NewFields("lap", 40), []string{"VER", "LEC"})
	require.NoError(t, err)

	require.Len(t, fp.requests, 1)
	req := fp.requests[0]
	assert.Empty(t, req.Model)
	assert.Equal(t, DefaultSystemInstruction, req.SystemInstruction)
	assert.Equal(t, provider.GenerationConfig{Temperature: 0.4, TopP: 0.95, TopK: 32, MaxOutputTokens: 2048}, req.Config)
	assert.Contains(t, req.Prompt, "Task: Predict Race Outcome\nSystem: "+DefaultSystemInstruction+"\n\n")
	assert.Contains(t, req.Prompt, "Input:\n{\n  \"competitors\": [\n    \"VER\",\n    \"LEC\"\n  ]\n}")

	b, err := New(
		WithProvider(fp),
		WithModel("gemini-2.0-flash"),
		WithSystemInstruction("Terse."),
		WithTemperature(0.1),
		WithTopP(0.5),
		WithTopK(8),
		WithMaxOutputTokens(256),
	)
	require.NoError(t, err)
	_, err = b.AnalyzeTireStrategy(context.Background(), nil, nil)
	require.NoError(t, err)

	req = fp.requests[1]
	assert.Equal(t, "gemini-2.0-flash", req.Model)
	assert.Equal(t, "Terse.", req.SystemInstruction)
	assert.Equal(t, provider.GenerationConfig{Temperature: 0.1, TopP: 0.5, TopK: 8, MaxOutputTokens: 256}, req.Config)
	assert.Contains(t, req.Prompt, "System: Terse.\n")
}

func wantPrompt(task, raceContext, input string, requirements ...string) string {
	var b strings.Builder
	b.WriteString("Task: " + task + "\n")
	b.WriteString("System: " + DefaultSystemInstruction + "\n\n")
	b.WriteString("Context:\n" + raceContext + "\n\n")
	b.WriteString("Input:\n" + input + "\n\n")
	b.WriteString("Requirements:\n")
	for _, r := range requirements {
		b.WriteString("- " + r + "\n")
	}
	b.WriteString("\nReturn clear, structured text with bullet points where appropriate.")
	return b.String()
}

func TestStrategyMethods(t *testing.T) {
	tests := []struct {
		name string
		call func(*Advisor) (string, error)
		want string
	}{
		{
			"analyze",
			func(a *Advisor) (string, error) {
				return a.AnalyzeTireStrategy(context.Background(), NewFields("lap", 20), NewFields("stops", 2))
			},
			wantPrompt("Analyze Tire Strategy",
				"{\n  \"lap\": 20\n}",
				"{\n  \"plan\": {\n    \"stops\": 2\n  }\n}",
				"Assess stint lengths vs. expected degradation and undercut/overcut windows",
				"Consider safety car/VSC likelihood and optimal pit windows",
				"Quantify pit loss, warmup characteristics, and traffic risk",
				"Provide 2-3 actionable recommendations with rationale",
			),
		},
		{
			"predict",
			func(a *Advisor) (string, error) {
				return a.PredictRaceOutcome(context.Background(), NewFields("lap", 20), []string{"HAM"})
			},
			wantPrompt("Predict Race Outcome",
				"{\n  \"lap\": 20\n}",
				"{\n  \"competitors\": [\n    \"HAM\"\n  ]\n}",
				"Provide finishing position range for top 5 targets",
				"Call out decisive moments: pit windows, tire offset, safety car",
				"Include probability-style language (e.g., likely/unlikely, 60-70%)",
			),
		},
		{
			"explain decision",
			func(a *Advisor) (string, error) {
				return a.ExplainStrategyDecision(context.Background(), "box now", NewFields("wear", 41))
			},
			wantPrompt("Explain Strategy Decision",
				"{\n  \"decision\": \"box now\"\n}",
				"{\n  \"evidence\": {\n    \"wear\": 41\n  }\n}",
				"Bullet points with clear rationale",
				"List trade-offs and risks",
				"Add a brief counterfactual: what if we did not make this choice?",
			),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := &fakeProvider{resp: answer("- answer")}
			a, err := New(WithProvider(fp))
			require.NoError(t, err)

			text, err := tt.call(a)
			require.NoError(t, err)
			assert.Equal(t, "- answer", text)
			require.Len(t, fp.requests, 1)
			assert.Equal(t, tt.want, fp.requests[0].Prompt)
		})
	}
}

func TestProviderErrorsAreWrapped(t *testing.T) {
	boom := errors.New("quota exceeded")
	a, err := New(WithProvider(&fakeProvider{err: boom}))
	require.NoError(t, err)

	_, err = a.ExplainStrategyDecision(context.Background(), "stay out", nil)
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "explain strategy decision: quota exceeded")
}

func TestExplainInsight(t *testing.T) {
	fp := &fakeProvider{resp: answer("- Box in 2 laps")}
	a, err := New(WithProvider(fp))
	require.NoError(t, err)

	tel := race.TelemetrySample{CarID: "44", Lap: 30, SectorTimes: []float64{30, 31, 29}, TyreCompound: race.Medium, TyreWearPct: 36, Position: 3}
	wx := race.WeatherSample{RainProb: 0.2}
	insight := race.ComputeInsight(tel, wx)

	text, err := a.ExplainInsight(context.Background(), tel, wx, insight)
	require.NoError(t, err)
	assert.Equal(t, "- Box in 2 laps", text)

	prompt := fp.requests[0].Prompt
	assert.Contains(t, prompt, "Task: Explain Strategy Insight\n")
	assert.Contains(t, prompt, "Context:\n{\n  \"telemetry\": {\n    \"car_id\": \"44\"")
	assert.Contains(t, prompt, "\"recommended_pit_in_laps\": 2")
	assert.Less(t, strings.Index(prompt, "\"telemetry\""), strings.Index(prompt, "\"weather\""))
}

func TestTestConnection(t *testing.T) {
	fp := &fakeProvider{resp: answer("OK")}
	a, err := New(WithProvider(fp))
	require.NoError(t, err)
	assert.True(t, a.TestConnection(context.Background()))
	require.Len(t, fp.requests, 1)
	assert.Equal(t, "Test", fp.requests[0].Prompt)
	assert.Equal(t, DefaultSystemInstruction, fp.requests[0].SystemInstruction)

	// a candidate without text still proves the model answered
	a, err = New(WithProvider(&fakeProvider{resp: &provider.Response{Candidates: []provider.Candidate{{FinishReason: "SAFETY"}}}}))
	require.NoError(t, err)
	assert.True(t, a.TestConnection(context.Background()))

	a, err = New(WithProvider(&fakeProvider{resp: &provider.Response{}}))
	require.NoError(t, err)
	assert.False(t, a.TestConnection(context.Background()))

	a, err = New(WithProvider(&fakeProvider{}))
	require.NoError(t, err)
	assert.False(t, a.TestConnection(context.Background()))

	a, err = New(WithProvider(&fakeProvider{err: errors.New("unauthorized")}))
	require.NoError(t, err)
	assert.False(t, a.TestConnection(context.Background()))
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/casualjim/pitwall/advisor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate keeps the developer's own config and keys out of the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, name := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY", "OPENAI_API_KEY", "PITWALL_LLM_API_KEY"} {
		t.Setenv(name, "")
	}
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "RD01", cfg.CarID)
	assert.Equal(t, time.Second, cfg.Telemetry.Interval)
	assert.Equal(t, 5*time.Second, cfg.Weather.Interval)
	assert.Equal(t, 2*time.Second, cfg.Strategy.Interval)
	assert.Equal(t, BusLocal, cfg.Bus.Kind)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, advisor.DefaultSystemInstruction, cfg.LLM.SystemInstruction)
	assert.InDelta(t, 0.4, cfg.LLM.Temperature, 1e-6)
	assert.InDelta(t, 0.95, cfg.LLM.TopP, 1e-6)
	assert.Equal(t, int32(32), cfg.LLM.TopK)
	assert.Equal(t, int32(2048), cfg.LLM.MaxOutputTokens)
	assert.Empty(t, cfg.Validate())
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	v, err := New("")
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "pitwall.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
car_id: "44"
seed: 7
strategy:
  interval: 500ms
  queue_size: 8
  explain: true
bus:
  kind: nats
  nats_url: nats://paddock:4222
llm:
  provider: openai
  model: gpt-4o
  temperature: 0.2
logging:
  level: debug
  format: json
`), 0o600))

	v, err := New(path)
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "44", cfg.CarID)
	assert.Equal(t, uint64(7), cfg.Seed)
	assert.Equal(t, 500*time.Millisecond, cfg.Strategy.Interval)
	assert.Equal(t, 8, cfg.Strategy.QueueSize)
	assert.True(t, cfg.Strategy.Explain)
	assert.Equal(t, BusNATS, cfg.Bus.Kind)
	assert.Equal(t, "nats://paddock:4222", cfg.Bus.NATSURL)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.InDelta(t, 0.2, cfg.LLM.Temperature, 1e-6)
	assert.Equal(t, "json", cfg.Logging.Format)

	// untouched keys keep their defaults
	assert.Equal(t, time.Second, cfg.Telemetry.Interval)
	assert.Equal(t, int32(32), cfg.LLM.TopK)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolate(t)

	_, err := New(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestEnvironmentOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("PITWALL_CAR_ID", "16")
	t.Setenv("PITWALL_WEATHER_INTERVAL", "250ms")
	t.Setenv("PITWALL_BUS_KIND", "buffered")
	t.Setenv("PITWALL_LLM_TOP_K", "16")

	v, err := New("")
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "16", cfg.CarID)
	assert.Equal(t, 250*time.Millisecond, cfg.Weather.Interval)
	assert.Equal(t, BusBuffered, cfg.Bus.Kind)
	assert.Equal(t, int32(16), cfg.LLM.TopK)
}

func TestResolveAPIKey(t *testing.T) {
	isolate(t)

	assert.Empty(t, LLMConfig{Provider: "gemini"}.ResolveAPIKey())

	t.Setenv("GOOGLE_API_KEY", "google")
	assert.Equal(t, "google", LLMConfig{Provider: "gemini"}.ResolveAPIKey())

	t.Setenv("GEMINI_API_KEY", "gemini")
	assert.Equal(t, "gemini", LLMConfig{Provider: "gemini"}.ResolveAPIKey())
	assert.Equal(t, "explicit", LLMConfig{Provider: "gemini", APIKey: "explicit"}.ResolveAPIKey())

	assert.Empty(t, LLMConfig{Provider: "openai"}.ResolveAPIKey())
	t.Setenv("OPENAI_API_KEY", "openai")
	assert.Equal(t, "openai", LLMConfig{Provider: "openai"}.ResolveAPIKey())

	v, err := New("")
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.LLM.APIKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"empty car", func(c *Config) { c.CarID = " " }, "car_id"},
		{"zero telemetry interval", func(c *Config) { c.Telemetry.Interval = 0 }, "telemetry.interval"},
		{"negative weather interval", func(c *Config) { c.Weather.Interval = -time.Second }, "weather.interval"},
		{"zero strategy interval", func(c *Config) { c.Strategy.Interval = 0 }, "strategy.interval"},
		{"empty queue", func(c *Config) { c.Strategy.QueueSize = 0 }, "strategy.queue_size"},
		{"zero explain timeout", func(c *Config) { c.Strategy.ExplainTimeout = 0 }, "strategy.explain_timeout"},
		{"unknown bus", func(c *Config) { c.Bus.Kind = "kafka" }, "bus.kind"},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "pigeon" }, "llm.provider"},
		{"hot temperature", func(c *Config) { c.LLM.Temperature = 3 }, "llm.temperature"},
		{"top p above one", func(c *Config) { c.LLM.TopP = 1.5 }, "llm.top_p"},
		{"negative top k", func(c *Config) { c.LLM.TopK = -1 }, "llm.top_k"},
		{"explain without provider", func(c *Config) { c.LLM.Provider = ""; c.Strategy.Explain = true }, "strategy.explain"},
		{"bad level", func(c *Config) { c.Logging.Level = "chatty" }, "logging.level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			errs := cfg.Validate()
			require.Len(t, errs, 1)
			assert.Equal(t, tt.field, errs[0].Field)
		})
	}
}

func TestValidationErrorsMessage(t *testing.T) {
	cfg := Default()
	cfg.CarID = ""
	cfg.Bus.Kind = "kafka"

	errs := cfg.Validate()
	require.Len(t, errs, 2)
	assert.Contains(t, errs.Error(), "2 validation errors:")
	assert.Contains(t, errs.Error(), "1. car_id: must not be empty")
	assert.Contains(t, errs.Error(), "bus.kind: must be one of local, buffered, nats (got: kafka)")
	assert.Empty(t, ValidationErrors(nil).Error())
}

package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/casualjim/pitwall/pkg/slogx"
)

// ValidationError is a single invalid config value.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

func ValidBusKinds() []string {
	return []string{BusLocal, BusBuffered, BusNATS}
}

func ValidProviders() []string {
	return []string{"gemini", "openai"}
}

func ValidLogFormats() []string {
	return []string{slogx.FormatConsole, slogx.FormatJSON}
}

// Validate reports every invalid value; nil means the config is usable.
func (c *Config) Validate() ValidationErrors {
	var errs ValidationErrors
	add := func(field string, value any, msg string) {
		errs = append(errs, ValidationError{Field: field, Value: value, Message: msg})
	}

	if strings.TrimSpace(c.CarID) == "" {
		add("car_id", c.CarID, "must not be empty")
	}
	if c.Telemetry.Interval <= 0 {
		add("telemetry.interval", c.Telemetry.Interval, "must be positive")
	}
	if c.Weather.Interval <= 0 {
		add("weather.interval", c.Weather.Interval, "must be positive")
	}
	if c.Strategy.Interval <= 0 {
		add("strategy.interval", c.Strategy.Interval, "must be positive")
	}
	if c.Strategy.QueueSize < 1 {
		add("strategy.queue_size", c.Strategy.QueueSize, "must be at least 1")
	}
	if c.Strategy.ExplainTimeout <= 0 {
		add("strategy.explain_timeout", c.Strategy.ExplainTimeout, "must be positive")
	}

	if !slices.Contains(ValidBusKinds(), c.Bus.Kind) {
		add("bus.kind", c.Bus.Kind, "must be one of "+strings.Join(ValidBusKinds(), ", "))
	}
	if c.Bus.SlowSubscriberTimeout < 0 {
		add("bus.slow_subscriber_timeout", c.Bus.SlowSubscriberTimeout, "must not be negative")
	}

	if c.LLM.Provider != "" && !slices.Contains(ValidProviders(), c.LLM.Provider) {
		add("llm.provider", c.LLM.Provider, "must be one of "+strings.Join(ValidProviders(), ", "))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		add("llm.temperature", c.LLM.Temperature, "must be between 0 and 2")
	}
	if c.LLM.TopP < 0 || c.LLM.TopP > 1 {
		add("llm.top_p", c.LLM.TopP, "must be between 0 and 1")
	}
	if c.LLM.TopK < 0 {
		add("llm.top_k", c.LLM.TopK, "must not be negative")
	}
	if c.LLM.MaxOutputTokens < 0 {
		add("llm.max_output_tokens", c.LLM.MaxOutputTokens, "must not be negative")
	}
	if c.Strategy.Explain && c.LLM.Provider == "" {
		add("strategy.explain", c.Strategy.Explain, "requires llm.provider")
	}

	if _, err := slogx.ParseLevel(c.Logging.Level); err != nil {
		add("logging.level", c.Logging.Level, "must be one of debug, info, warn, error")
	}
	if !slices.Contains(ValidLogFormats(), strings.ToLower(c.Logging.Format)) {
		add("logging.format", c.Logging.Format, "must be one of "+strings.Join(ValidLogFormats(), ", "))
	}
	return errs
}

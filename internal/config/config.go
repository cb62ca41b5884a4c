package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/casualjim/pitwall"
	"github.com/casualjim/pitwall/advisor"
	"github.com/casualjim/pitwall/agent"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces the environment variables that override config keys,
// e.g. PITWALL_STRATEGY_INTERVAL for strategy.interval.
const EnvPrefix = "PITWALL"

const (
	BusLocal    = "local"
	BusBuffered = "buffered"
	BusNATS     = "nats"
)

// Config is the full pitwall configuration.
type Config struct {
	CarID     string         `mapstructure:"car_id"`
	Seed      uint64         `mapstructure:"seed"`
	Telemetry ProducerConfig `mapstructure:"telemetry"`
	Weather   ProducerConfig `mapstructure:"weather"`
	Strategy  StrategyConfig `mapstructure:"strategy"`
	Bus       BusConfig      `mapstructure:"bus"`
	LLM       LLMConfig      `mapstructure:"llm"`
	Logging   LoggingConfig  `mapstructure:"logging"`
}

type ProducerConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type StrategyConfig struct {
	Interval  time.Duration `mapstructure:"interval"`
	QueueSize int           `mapstructure:"queue_size"`
	// Explain asks the configured language model to narrate every insight.
	Explain        bool          `mapstructure:"explain"`
	ExplainTimeout time.Duration `mapstructure:"explain_timeout"`
}

type BusConfig struct {
	Kind                  string        `mapstructure:"kind"`
	NATSURL               string        `mapstructure:"nats_url"`
	SlowSubscriberTimeout time.Duration `mapstructure:"slow_subscriber_timeout"`
}

type LLMConfig struct {
	Provider          string  `mapstructure:"provider"`
	Model             string  `mapstructure:"model"`
	APIKey            string  `mapstructure:"api_key"`
	BaseURL           string  `mapstructure:"base_url"`
	SystemInstruction string  `mapstructure:"system_instruction"`
	Temperature       float32 `mapstructure:"temperature"`
	TopP              float32 `mapstructure:"top_p"`
	TopK              int32   `mapstructure:"top_k"`
	MaxOutputTokens   int32   `mapstructure:"max_output_tokens"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		CarID: pitwall.DefaultCarID,
		Telemetry: ProducerConfig{
			Interval: agent.DefaultTelemetryInterval,
		},
		Weather: ProducerConfig{
			Interval: agent.DefaultWeatherInterval,
		},
		Strategy: StrategyConfig{
			Interval:       agent.DefaultStrategyInterval,
			QueueSize:      agent.DefaultQueueSize,
			ExplainTimeout: agent.DefaultExplainTimeout,
		},
		Bus: BusConfig{
			Kind:                  BusLocal,
			SlowSubscriberTimeout: 100 * time.Millisecond,
		},
		LLM: LLMConfig{
			Provider:          "gemini",
			SystemInstruction: advisor.DefaultSystemInstruction,
			Temperature:       advisor.DefaultTemperature,
			TopP:              advisor.DefaultTopP,
			TopK:              advisor.DefaultTopK,
			MaxOutputTokens:   advisor.DefaultMaxOutputTokens,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// SetDefaults registers every key with its default so that environment
// overrides apply even without a config file.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("car_id", d.CarID)
	v.SetDefault("seed", d.Seed)

	v.SetDefault("telemetry.interval", d.Telemetry.Interval)
	v.SetDefault("weather.interval", d.Weather.Interval)

	v.SetDefault("strategy.interval", d.Strategy.Interval)
	v.SetDefault("strategy.queue_size", d.Strategy.QueueSize)
	v.SetDefault("strategy.explain", d.Strategy.Explain)
	v.SetDefault("strategy.explain_timeout", d.Strategy.ExplainTimeout)

	v.SetDefault("bus.kind", d.Bus.Kind)
	v.SetDefault("bus.nats_url", d.Bus.NATSURL)
	v.SetDefault("bus.slow_subscriber_timeout", d.Bus.SlowSubscriberTimeout)

	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.api_key", d.LLM.APIKey)
	v.SetDefault("llm.base_url", d.LLM.BaseURL)
	v.SetDefault("llm.system_instruction", d.LLM.SystemInstruction)
	v.SetDefault("llm.temperature", d.LLM.Temperature)
	v.SetDefault("llm.top_p", d.LLM.TopP)
	v.SetDefault("llm.top_k", d.LLM.TopK)
	v.SetDefault("llm.max_output_tokens", d.LLM.MaxOutputTokens)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// New prepares a viper instance with defaults, the environment and the
// config file. An explicit cfgFile must exist; otherwise config.yaml is looked
// up in ConfigDir and the working directory and may be absent.
func New(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return v, nil
}

// Load decodes v into a Config, fills in the API key from the provider's
// conventional environment variables and validates the result.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.LLM.APIKey = cfg.LLM.ResolveAPIKey()

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errs
	}
	return &cfg, nil
}

// apiKeyEnv lists the environment variables consulted, in order, when no
// api_key is configured.
var apiKeyEnv = map[string][]string{
	"gemini": {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"openai": {"OPENAI_API_KEY"},
}

// ResolveAPIKey returns the configured key or the first non-empty provider
// specific environment variable.
func (c LLMConfig) ResolveAPIKey() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	for _, name := range apiKeyEnv[c.Provider] {
		if key := strings.TrimSpace(os.Getenv(name)); key != "" {
			return key
		}
	}
	return ""
}

// ConfigDir returns the directory holding the user's config file.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "pitwall")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pitwall"
	}
	return filepath.Join(home, ".config", "pitwall")
}

package cmd

import (
	"context"
	"os"

	"github.com/casualjim/pitwall/internal/config"
	"github.com/casualjim/pitwall/pkg/slogx"
	"github.com/spf13/cobra"
)

type configKey struct{}

// flagKeys maps command line flags onto config keys. A flag only wins over
// the config file and environment when it was set explicitly.
var flagKeys = map[string]string{
	"log-level":  "logging.level",
	"log-format": "logging.format",
	"provider":   "llm.provider",
	"model":      "llm.model",
	"car":        "car_id",
	"seed":       "seed",
	"bus":        "bus.kind",
	"nats-url":   "bus.nats_url",
	"explain":    "strategy.explain",
}

// Execute runs the pitwall command line.
func Execute() error {
	return NewRootCommand().ExecuteContext(context.Background())
}

// NewRootCommand assembles the command tree.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "pitwall",
		Short: "Race strategy assistant for the pit wall",
		Long: `Pitwall fuses live car telemetry and track weather into pit stop
recommendations, and can ask a language model to explain them.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			v, err := config.New(cfgFile)
			if err != nil {
				return err
			}
			for name, key := range flagKeys {
				if f := cmd.Flags().Lookup(name); f != nil {
					if err := v.BindPFlag(key, f); err != nil {
						return err
					}
				}
			}
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			if err := slogx.Setup(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format); err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "config file (default is $XDG_CONFIG_HOME/pitwall/config.yaml)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: console, json")
	pf.String("provider", "", "language model provider: gemini, openai")
	pf.String("model", "", "language model name")

	root.AddCommand(
		newRunCommand(),
		newAnalyzeCommand(),
		newPredictCommand(),
		newExplainCommand(),
		newPingCommand(),
		newSchemaCommand(),
	)
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	return root
}

// configFrom returns the configuration loaded by the root command.
func configFrom(cmd *cobra.Command) *config.Config {
	if cfg, ok := cmd.Context().Value(configKey{}).(*config.Config); ok {
		return cfg
	}
	return config.Default()
}

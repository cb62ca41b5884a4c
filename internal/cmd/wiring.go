package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/casualjim/pitwall/advisor"
	"github.com/casualjim/pitwall/internal/config"
	"github.com/casualjim/pitwall/pkg/natsx"
	"github.com/casualjim/pitwall/pkg/slogx"
	"github.com/casualjim/pitwall/provider"
	"github.com/casualjim/pitwall/pubsub"

	_ "github.com/casualjim/pitwall/provider/gemini"
	_ "github.com/casualjim/pitwall/provider/openai"
)

// buildBroker returns the bus selected by cfg and a function releasing any
// connection it holds.
func buildBroker(cfg config.BusConfig) (pubsub.Broker, func(), error) {
	switch cfg.Kind {
	case "", config.BusLocal:
		return pubsub.Local(), func() {}, nil
	case config.BusBuffered:
		return pubsub.Buffered(cfg.SlowSubscriberTimeout), func() {}, nil
	case config.BusNATS:
		url := natsx.ResolveURL(cfg.NATSURL)
		conn, err := natsx.NewClient(url)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to nats at %s: %w", url, err)
		}
		slog.Info("connected to nats", slog.String("url", conn.ConnectedUrl()))
		return pubsub.NATS(conn), func() {
			if err := conn.Drain(); err != nil {
				slog.Warn("failed to drain nats connection", slogx.Error(err))
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown bus kind %q", cfg.Kind)
	}
}

// buildAdvisor opens the configured language model provider. With no provider
// configured the advisor is returned unconfigured and every question fails
// with advisor.ErrNotConfigured.
func buildAdvisor(ctx context.Context, cfg config.LLMConfig) (*advisor.Advisor, error) {
	options := []advisor.Option{
		advisor.WithModel(cfg.Model),
		advisor.WithSystemInstruction(cfg.SystemInstruction),
		advisor.WithTemperature(cfg.Temperature),
		advisor.WithTopP(cfg.TopP),
		advisor.WithTopK(cfg.TopK),
		advisor.WithMaxOutputTokens(cfg.MaxOutputTokens),
	}
	if cfg.Provider != "" {
		p, err := provider.Open(ctx, cfg.Provider, provider.Settings{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
		})
		if err != nil {
			return nil, err
		}
		options = append(options, advisor.WithProvider(p))
	}
	return advisor.New(options...)
}

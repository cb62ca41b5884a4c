package events

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/casualjim/pitwall/pkg/slogx"
	"github.com/casualjim/pitwall/race"
	json "github.com/goccy/go-json"
)

// Hook receives the events delivered to a subscription. There is no no-op
// base type, every subscriber implements all four methods.
type Hook interface {
	OnTelemetry(context.Context, Sample[race.TelemetrySample])

	OnWeather(context.Context, Sample[race.WeatherSample])

	OnInsight(context.Context, Sample[race.StrategyInsight])

	OnError(context.Context, error)
}

// Dispatch routes event to the hook method for its type.
func Dispatch(ctx context.Context, hook Hook, event Event) error {
	switch event := event.(type) {
	case Sample[race.TelemetrySample]:
		hook.OnTelemetry(ctx, event)
	case Sample[race.WeatherSample]:
		hook.OnWeather(ctx, event)
	case Sample[race.StrategyInsight]:
		hook.OnInsight(ctx, event)
	case Error:
		hook.OnError(ctx, event)
	default:
		return fmt.Errorf("unknown event type: %T", event)
	}
	return nil
}

// LoggingHook logs every event it receives at debug level on log.
func LoggingHook(log *slog.Logger) Hook {
	return &loggingHook{log: log}
}

type loggingHook struct {
	log *slog.Logger
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}

func (h *loggingHook) event(ctx context.Context, msg string, id fmt.Stringer, sender string, payload any) {
	if !h.log.Enabled(ctx, slog.LevelDebug) {
		return
	}
	h.log.DebugContext(ctx, msg,
		slogx.Stringer("id", id),
		slog.String("sender", sender),
		slog.String("payload", mustJSON(payload)),
	)
}

func (h *loggingHook) OnTelemetry(ctx context.Context, ev Sample[race.TelemetrySample]) {
	h.event(ctx, "telemetry sample", ev.ID, ev.Sender, ev.Payload)
}

func (h *loggingHook) OnWeather(ctx context.Context, ev Sample[race.WeatherSample]) {
	h.event(ctx, "weather sample", ev.ID, ev.Sender, ev.Payload)
}

func (h *loggingHook) OnInsight(ctx context.Context, ev Sample[race.StrategyInsight]) {
	h.event(ctx, "strategy insight", ev.ID, ev.Sender, ev.Payload)
}

func (h *loggingHook) OnError(ctx context.Context, err error) {
	h.log.ErrorContext(ctx, "agent error", slogx.Error(err))
}

func NewCompositeHook(hooks ...Hook) Hook {
	return CompositeHook(hooks)
}

// CompositeHook fans every event out to each of its hooks in order.
type CompositeHook []Hook

func (c CompositeHook) OnTelemetry(ctx context.Context, ev Sample[race.TelemetrySample]) {
	for h := range slices.Values(c) {
		h.OnTelemetry(ctx, ev)
	}
}

func (c CompositeHook) OnWeather(ctx context.Context, ev Sample[race.WeatherSample]) {
	for h := range slices.Values(c) {
		h.OnWeather(ctx, ev)
	}
}

func (c CompositeHook) OnInsight(ctx context.Context, ev Sample[race.StrategyInsight]) {
	for h := range slices.Values(c) {
		h.OnInsight(ctx, ev)
	}
}

func (c CompositeHook) OnError(ctx context.Context, err error) {
	for h := range slices.Values(c) {
		h.OnError(ctx, err)
	}
}

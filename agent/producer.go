package agent

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/casualjim/pitwall/events"
	"github.com/casualjim/pitwall/feed"
	"github.com/casualjim/pitwall/pkg/slogx"
	"github.com/casualjim/pitwall/pubsub"
)

var (
	_ Agent = (*Telemetry)(nil)
	_ Agent = (*Weather)(nil)
)

// ErrSourceRequired is returned when a producer is built without a feed.
var ErrSourceRequired = errors.New("source is required")

type TelemetryConfig struct {
	CarID    string
	Interval time.Duration
	Source   feed.TelemetrySource
}

// Telemetry publishes one car's telemetry on events.TopicTelemetry. Laps are
// numbered from 1 every time the agent starts.
type Telemetry struct {
	*loop
	carID  string
	source feed.TelemetrySource
	topic  pubsub.Topic
	lap    int
	log    *slog.Logger
}

func NewTelemetry(ctx context.Context, broker pubsub.Broker, cfg TelemetryConfig) (*Telemetry, error) {
	if cfg.Source == nil {
		return nil, ErrSourceRequired
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultTelemetryInterval
	}

	t := &Telemetry{
		carID:  cfg.CarID,
		source: cfg.Source,
		topic:  broker.Topic(ctx, events.TopicTelemetry),
		log:    slogx.Named("agent.telemetry"),
	}
	t.loop = newLoop(cfg.Interval, t.publish)
	t.loop.reset = func() { t.lap = 0 }
	return t, nil
}

func (t *Telemetry) Name() string { return "telemetry" }

func (t *Telemetry) Start(ctx context.Context) error { return t.start(ctx) }

func (t *Telemetry) Stop(ctx context.Context) error { return t.stop(ctx) }

func (t *Telemetry) publish(ctx context.Context) {
	sample, err := t.source.NextTelemetry(ctx, t.carID, t.lap+1)
	if err != nil {
		publishFailure(ctx, t.log, t.topic, events.TopicTelemetry, t.Name(), err)
		return
	}
	t.lap++
	if err := t.topic.Publish(ctx, events.NewSample(events.TopicTelemetry, t.Name(), sample)); err != nil && ctx.Err() == nil {
		t.log.Error("failed to publish telemetry", slogx.Error(err), slog.Int("lap", sample.Lap))
	}
}

type WeatherConfig struct {
	Interval time.Duration
	Source   feed.WeatherSource
}

// Weather publishes track conditions on events.TopicWeather.
type Weather struct {
	*loop
	source feed.WeatherSource
	topic  pubsub.Topic
	log    *slog.Logger
}

func NewWeather(ctx context.Context, broker pubsub.Broker, cfg WeatherConfig) (*Weather, error) {
	if cfg.Source == nil {
		return nil, ErrSourceRequired
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultWeatherInterval
	}

	w := &Weather{
		source: cfg.Source,
		topic:  broker.Topic(ctx, events.TopicWeather),
		log:    slogx.Named("agent.weather"),
	}
	w.loop = newLoop(cfg.Interval, w.publish)
	return w, nil
}

func (w *Weather) Name() string { return "weather" }

func (w *Weather) Start(ctx context.Context) error { return w.start(ctx) }

func (w *Weather) Stop(ctx context.Context) error { return w.stop(ctx) }

func (w *Weather) publish(ctx context.Context) {
	sample, err := w.source.NextWeather(ctx)
	if err != nil {
		publishFailure(ctx, w.log, w.topic, events.TopicWeather, w.Name(), err)
		return
	}
	if err := w.topic.Publish(ctx, events.NewSample(events.TopicWeather, w.Name(), sample)); err != nil && ctx.Err() == nil {
		w.log.Error("failed to publish weather", slogx.Error(err))
	}
}

// publishFailure reports a feed error to subscribers. Errors caused by the
// agent shutting down are not reported.
func publishFailure(ctx context.Context, log *slog.Logger, topic pubsub.Topic, name, sender string, err error) {
	if ctx.Err() != nil {
		return
	}
	log.Warn("feed failed", slogx.Error(err))
	if perr := topic.Publish(ctx, events.NewError(name, sender, err)); perr != nil && ctx.Err() == nil {
		log.Error("failed to publish feed error", slogx.Error(perr))
	}
}

package pitwall

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/casualjim/pitwall/agent"
	"github.com/casualjim/pitwall/events"
	"github.com/casualjim/pitwall/feed"
	"github.com/casualjim/pitwall/pkg/slogx"
	"github.com/casualjim/pitwall/pubsub"
	"github.com/casualjim/pitwall/race"
	"github.com/fogfish/opts"
	json "github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
)

// Orchestrator owns the bus and the three agents that share it.
type Orchestrator struct {
	broker    pubsub.Broker
	telemetry *agent.Telemetry
	weather   *agent.Weather
	strategy  *agent.Strategy
	agents    []agent.Agent

	subs      []pubsub.Subscription
	closeOnce sync.Once
	log       *slog.Logger
}

// New wires the agents onto the bus. Nothing runs until Start is called.
func New(options ...Option) (*Orchestrator, error) {
	s := settings{
		carID:             DefaultCarID,
		telemetryInterval: agent.DefaultTelemetryInterval,
		weatherInterval:   agent.DefaultWeatherInterval,
		strategyInterval:  agent.DefaultStrategyInterval,
		queueSize:         agent.DefaultQueueSize,
	}
	if err := opts.Apply(&s, options); err != nil {
		return nil, fmt.Errorf("invalid orchestrator option: %w", err)
	}
	if s.broker == nil {
		s.broker = pubsub.Local()
	}
	if s.seed == 0 {
		s.seed = rand.Uint64()
	}
	if s.telemetrySource == nil || s.weatherSource == nil {
		random := feed.NewRandom(s.seed)
		if s.telemetrySource == nil {
			s.telemetrySource = random
		}
		if s.weatherSource == nil {
			s.weatherSource = random
		}
	}

	// Subscriptions outlive any single Start/Stop cycle; Close ends them.
	ctx := context.Background()
	o := &Orchestrator{
		broker: s.broker,
		log:    slogx.Named("orchestrator"),
	}

	if len(s.observers) > 0 {
		observer := events.NewCompositeHook(s.observers...)
		for _, topic := range []string{events.TopicTelemetry, events.TopicWeather, events.TopicInsight} {
			sub, err := s.broker.Topic(ctx, topic).Subscribe(ctx, observer)
			if err != nil {
				o.Close()
				return nil, fmt.Errorf("failed to subscribe observers to %s: %w", topic, err)
			}
			o.subs = append(o.subs, sub)
		}
	}

	var err error
	o.strategy, err = agent.NewStrategy(ctx, s.broker, agent.StrategyConfig{
		Interval:       s.strategyInterval,
		QueueSize:      s.queueSize,
		Explainer:      s.explainer,
		ExplainTimeout: s.explainTimeout,
	})
	if err != nil {
		o.Close()
		return nil, fmt.Errorf("failed to create strategy agent: %w", err)
	}
	o.telemetry, err = agent.NewTelemetry(ctx, s.broker, agent.TelemetryConfig{
		CarID:    s.carID,
		Interval: s.telemetryInterval,
		Source:   s.telemetrySource,
	})
	if err != nil {
		o.Close()
		return nil, fmt.Errorf("failed to create telemetry agent: %w", err)
	}
	o.weather, err = agent.NewWeather(ctx, s.broker, agent.WeatherConfig{
		Interval: s.weatherInterval,
		Source:   s.weatherSource,
	})
	if err != nil {
		o.Close()
		return nil, fmt.Errorf("failed to create weather agent: %w", err)
	}

	o.agents = []agent.Agent{o.strategy, o.telemetry, o.weather}
	return o, nil
}

// Broker returns the bus the agents publish on.
func (o *Orchestrator) Broker() pubsub.Broker {
	return o.broker
}

// Strategy returns the fusion agent, for callers that want its latest insight.
func (o *Orchestrator) Strategy() *agent.Strategy {
	return o.strategy
}

// Start launches every agent. The agents run until Stop is called or ctx is
// done. Starting a running orchestrator is a no-op.
func (o *Orchestrator) Start(ctx context.Context) error {
	var g errgroup.Group
	for _, a := range o.agents {
		g.Go(func() error {
			if err := a.Start(ctx); err != nil {
				return fmt.Errorf("failed to start %s agent: %w", a.Name(), err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	o.log.Info("agents started", slog.Int("count", len(o.agents)))
	return nil
}

// Stop halts every agent and waits for in-flight ticks, bounded by ctx.
func (o *Orchestrator) Stop(ctx context.Context) error {
	var g errgroup.Group
	for _, a := range o.agents {
		g.Go(func() error {
			if err := a.Stop(ctx); err != nil {
				return fmt.Errorf("failed to stop %s agent: %w", a.Name(), err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	o.log.Info("agents stopped")
	return nil
}

// Close stops the agents and releases the bus subscriptions.
func (o *Orchestrator) Close() error {
	var err error
	o.closeOnce.Do(func() {
		if len(o.agents) > 0 {
			err = o.Stop(context.Background())
		}
		if o.strategy != nil {
			o.strategy.Close()
		}
		for _, sub := range o.subs {
			sub.Unsubscribe()
		}
	})
	return err
}

// Insights yields strategy insights as they are computed, until ctx is done.
func (o *Orchestrator) Insights(ctx context.Context) iter.Seq[race.StrategyInsight] {
	return o.strategy.Insights(ctx)
}

// InsightsJSON is Insights with every insight encoded as JSON.
func (o *Orchestrator) InsightsJSON(ctx context.Context) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		for insight := range o.strategy.Insights(ctx) {
			b, err := json.Marshal(insight)
			if !yield(b, err) {
				return
			}
		}
	}
}

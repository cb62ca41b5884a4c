package agent

import (
	"context"
	"iter"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alphadose/haxmap"
	"github.com/casualjim/pitwall/events"
	"github.com/casualjim/pitwall/pkg/slogx"
	"github.com/casualjim/pitwall/pubsub"
	"github.com/casualjim/pitwall/race"
)

const (
	DefaultQueueSize      = 256
	DefaultExplainTimeout = 20 * time.Second
)

var (
	_ Agent       = (*Strategy)(nil)
	_ events.Hook = (*Strategy)(nil)
)

// Explainer turns an insight into a short narrative for the pit wall.
type Explainer interface {
	ExplainInsight(ctx context.Context, tel race.TelemetrySample, wx race.WeatherSample, insight race.StrategyInsight) (string, error)
}

type StrategyConfig struct {
	Interval time.Duration
	// QueueSize bounds the insight queue; when it is full the oldest insight
	// is discarded.
	QueueSize      int
	Explainer      Explainer
	ExplainTimeout time.Duration
}

// Strategy fuses the newest telemetry and weather samples into insights.
type Strategy struct {
	*loop
	explainer      Explainer
	explainTimeout time.Duration
	topic          pubsub.Topic
	subs           []pubsub.Subscription
	latest         *haxmap.Map[string, race.Payload]
	last           atomic.Pointer[race.StrategyInsight]
	log            *slog.Logger

	queueMu sync.Mutex
	queue   chan race.StrategyInsight
	dropped atomic.Uint64
}

// NewStrategy subscribes to the producer topics of broker. The subscriptions
// live until ctx is done or Close is called, independent of Start and Stop.
func NewStrategy(ctx context.Context, broker pubsub.Broker, cfg StrategyConfig) (*Strategy, error) {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultStrategyInterval
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.ExplainTimeout <= 0 {
		cfg.ExplainTimeout = DefaultExplainTimeout
	}

	s := &Strategy{
		explainer:      cfg.Explainer,
		explainTimeout: cfg.ExplainTimeout,
		topic:          broker.Topic(ctx, events.TopicInsight),
		latest:         haxmap.New[string, race.Payload](),
		queue:          make(chan race.StrategyInsight, cfg.QueueSize),
		log:            slogx.Named("agent.strategy"),
	}
	s.loop = newLoop(cfg.Interval, s.fuse)

	for _, name := range []string{events.TopicTelemetry, events.TopicWeather} {
		sub, err := broker.Topic(ctx, name).Subscribe(ctx, s)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.subs = append(s.subs, sub)
	}
	return s, nil
}

func (s *Strategy) Name() string { return "strategy" }

func (s *Strategy) Start(ctx context.Context) error { return s.start(ctx) }

func (s *Strategy) Stop(ctx context.Context) error { return s.stop(ctx) }

// Close removes the bus subscriptions. It does not stop the agent.
func (s *Strategy) Close() {
	for _, sub := range s.subs {
		sub.Unsubscribe()
	}
}

func (s *Strategy) OnTelemetry(_ context.Context, ev events.Sample[race.TelemetrySample]) {
	if err := ev.Payload.Validate(); err != nil {
		s.log.Warn("dropping invalid telemetry", slogx.Error(err), slog.String("sender", ev.Sender))
		return
	}
	s.latest.Set(events.TopicTelemetry, ev.Payload)
}

func (s *Strategy) OnWeather(_ context.Context, ev events.Sample[race.WeatherSample]) {
	if err := ev.Payload.Validate(); err != nil {
		s.log.Warn("dropping invalid weather", slogx.Error(err), slog.String("sender", ev.Sender))
		return
	}
	s.latest.Set(events.TopicWeather, ev.Payload)
}

func (s *Strategy) OnInsight(context.Context, events.Sample[race.StrategyInsight]) {}

func (s *Strategy) OnError(_ context.Context, err error) {
	s.log.Warn("producer reported an error", slogx.Error(err))
}

// Samples returns the newest telemetry and weather seen on the bus. ok is
// false until both have arrived.
func (s *Strategy) Samples() (tel race.TelemetrySample, wx race.WeatherSample, ok bool) {
	tp, tok := s.latest.Get(events.TopicTelemetry)
	wp, wok := s.latest.Get(events.TopicWeather)
	if !tok || !wok {
		return tel, wx, false
	}
	return tp.(race.TelemetrySample), wp.(race.WeatherSample), true
}

// Latest returns the most recently computed insight.
func (s *Strategy) Latest() (race.StrategyInsight, bool) {
	p := s.last.Load()
	if p == nil {
		return race.StrategyInsight{}, false
	}
	return *p, true
}

// Dropped counts the insights discarded because the queue was full.
func (s *Strategy) Dropped() uint64 {
	return s.dropped.Load()
}

// Insights yields queued insights in the order they were computed until ctx
// is done or the consumer stops iterating.
func (s *Strategy) Insights(ctx context.Context) iter.Seq[race.StrategyInsight] {
	return func(yield func(race.StrategyInsight) bool) {
		for {
			select {
			case <-ctx.Done():
				return
			case insight := <-s.queue:
				if !yield(insight) {
					return
				}
			}
		}
	}
}

func (s *Strategy) fuse(ctx context.Context) {
	tel, wx, ok := s.Samples()
	if !ok {
		s.log.Debug("waiting for telemetry and weather")
		return
	}

	insight := race.ComputeInsight(tel, wx)
	if s.explainer != nil {
		insight.Explanation = s.explain(ctx, tel, wx, insight)
	}
	if ctx.Err() != nil {
		return
	}

	s.last.Store(&insight)
	s.enqueue(insight)
	if err := s.topic.Publish(ctx, events.NewSample(events.TopicInsight, s.Name(), insight)); err != nil && ctx.Err() == nil {
		s.log.Error("failed to publish insight", slogx.Error(err))
	}
}

func (s *Strategy) explain(ctx context.Context, tel race.TelemetrySample, wx race.WeatherSample, insight race.StrategyInsight) string {
	ctx, cancel := context.WithTimeout(ctx, s.explainTimeout)
	defer cancel()

	text, err := s.explainer.ExplainInsight(ctx, tel, wx, insight)
	if err != nil {
		s.log.Warn("failed to explain insight", slogx.Error(err))
		return ""
	}
	return text
}

func (s *Strategy) enqueue(insight race.StrategyInsight) {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()

	for {
		select {
		case s.queue <- insight:
			return
		default:
		}
		select {
		case <-s.queue:
			s.dropped.Add(1)
		default:
		}
	}
}

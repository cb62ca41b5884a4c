package pitwall

import (
	"errors"
	"time"

	"github.com/casualjim/pitwall/agent"
	"github.com/casualjim/pitwall/events"
	"github.com/casualjim/pitwall/feed"
	"github.com/casualjim/pitwall/pubsub"
	"github.com/fogfish/opts"
)

// DefaultCarID identifies the car followed when no car is configured.
const DefaultCarID = "RD01"

type Option = opts.Option[settings]

type settings struct {
	broker            pubsub.Broker
	carID             string
	seed              uint64
	telemetryInterval time.Duration
	weatherInterval   time.Duration
	strategyInterval  time.Duration
	telemetrySource   feed.TelemetrySource
	weatherSource     feed.WeatherSource
	explainer         agent.Explainer
	explainTimeout    time.Duration
	queueSize         int
	observers         []events.Hook
}

var (
	WithCarID             = opts.ForName[settings, string]("carID")
	WithSeed              = opts.ForName[settings, uint64]("seed")
	WithTelemetryInterval = opts.ForName[settings, time.Duration]("telemetryInterval")
	WithWeatherInterval   = opts.ForName[settings, time.Duration]("weatherInterval")
	WithStrategyInterval  = opts.ForName[settings, time.Duration]("strategyInterval")
	WithExplainTimeout    = opts.ForName[settings, time.Duration]("explainTimeout")
	WithQueueSize         = opts.ForName[settings, int]("queueSize")
)

// WithBroker replaces the default in-process bus.
func WithBroker(broker pubsub.Broker) Option {
	return opts.Type[settings](func(s *settings) error {
		if broker == nil {
			return errors.New("broker must not be nil")
		}
		s.broker = broker
		return nil
	})
}

// WithTelemetrySource replaces the random telemetry feed.
func WithTelemetrySource(source feed.TelemetrySource) Option {
	return opts.Type[settings](func(s *settings) error {
		s.telemetrySource = source
		return nil
	})
}

// WithWeatherSource replaces the random weather feed.
func WithWeatherSource(source feed.WeatherSource) Option {
	return opts.Type[settings](func(s *settings) error {
		s.weatherSource = source
		return nil
	})
}

// WithExplainer attaches a narrative to every insight.
func WithExplainer(explainer agent.Explainer) Option {
	return opts.Type[settings](func(s *settings) error {
		s.explainer = explainer
		return nil
	})
}

// WithObserver subscribes hook to every topic on the bus. Observers see each
// event in the order they were added.
func WithObserver(hook events.Hook, extra ...events.Hook) Option {
	return opts.Type[settings](func(s *settings) error {
		s.observers = append(s.observers, hook)
		s.observers = append(s.observers, extra...)
		return nil
	})
}

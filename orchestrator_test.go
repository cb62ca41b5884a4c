package pitwall

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/casualjim/pitwall/events"
	"github.com/casualjim/pitwall/feed"
	"github.com/casualjim/pitwall/pubsub"
	"github.com/casualjim/pitwall/race"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type countingHook struct {
	mu      sync.Mutex
	byTopic map[string]int
}

func newCountingHook() *countingHook {
	return &countingHook{byTopic: map[string]int{}}
}

func (c *countingHook) inc(topic string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byTopic[topic]++
}

func (c *countingHook) get(topic string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.byTopic[topic]
}

func (c *countingHook) OnTelemetry(_ context.Context, ev events.Sample[race.TelemetrySample]) {
	c.inc(ev.Topic)
}

func (c *countingHook) OnWeather(_ context.Context, ev events.Sample[race.WeatherSample]) {
	c.inc(ev.Topic)
}

func (c *countingHook) OnInsight(_ context.Context, ev events.Sample[race.StrategyInsight]) {
	c.inc(ev.Topic)
}

func (c *countingHook) OnError(context.Context, error) {
	c.inc("error")
}

func wornTyres() feed.TelemetrySource {
	return feed.TelemetryFunc(func(_ context.Context, carID string, lap int) (race.TelemetrySample, error) {
		return race.TelemetrySample{
			CarID:        carID,
			Lap:          lap,
			SectorTimes:  []float64{31, 32, 30},
			Speed:        290,
			TyreCompound: race.Soft,
			TyreWearPct:  39,
			FuelKg:       30,
			Position:     6,
		}, nil
	})
}

func dryTrack() feed.WeatherSource {
	return feed.WeatherFunc(func(context.Context) (race.WeatherSample, error) {
		return race.WeatherSample{TempC: 28, TrackTempC: 44, RainProb: 0.1, WindKph: 8}, nil
	})
}

func fastOptions(extra ...Option) []Option {
	return append([]Option{
		WithTelemetryInterval(5 * time.Millisecond),
		WithWeatherInterval(5 * time.Millisecond),
		WithStrategyInterval(5 * time.Millisecond),
	}, extra...)
}

func TestOrchestratorProducesInsights(t *testing.T) {
	observer := newCountingHook()
	o, err := New(fastOptions(
		WithCarID("44"),
		WithTelemetrySource(wornTyres()),
		WithWeatherSource(dryTrack()),
		WithObserver(observer),
	)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = o.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, o.Start(ctx))

	var got []race.StrategyInsight
	for insight := range o.Insights(ctx) {
		got = append(got, insight)
		if len(got) == 3 {
			break
		}
	}
	require.Len(t, got, 3)
	require.NoError(t, o.Stop(context.Background()))

	for _, insight := range got {
		require.True(t, insight.PitCall())
		assert.Equal(t, 1, *insight.RecommendedPitInLaps)
		assert.Equal(t, race.Hard, *insight.TargetCompound)
	}

	assert.Positive(t, observer.get(events.TopicTelemetry))
	assert.Positive(t, observer.get(events.TopicWeather))
	assert.Positive(t, observer.get(events.TopicInsight))
	assert.Zero(t, observer.get("error"))

	latest, ok := o.Strategy().Latest()
	require.True(t, ok)
	assert.InDelta(t, 0.1, latest.RiskRain, 1e-9)
}

func TestOrchestratorInsightsJSON(t *testing.T) {
	o, err := New(fastOptions(
		WithTelemetrySource(wornTyres()),
		WithWeatherSource(dryTrack()),
	)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = o.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, o.Start(ctx))

	var payload []byte
	for b, err := range o.InsightsJSON(ctx) {
		require.NoError(t, err)
		payload = b
		break
	}
	require.NotEmpty(t, payload)

	res := gjson.ParseBytes(payload)
	assert.Equal(t, int64(1), res.Get("recommended_pit_in_laps").Int())
	assert.Equal(t, "HARD", res.Get("target_compound").String())
	assert.True(t, res.Get("pace_delta_s").Exists())
	assert.True(t, res.Get("confidence").Exists())
	assert.False(t, res.Get("explanation").Exists())
}

func TestOrchestratorLifecycle(t *testing.T) {
	o, err := New(WithSeed(11), WithBroker(pubsub.Buffered(0)))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, o.Start(ctx))
	require.NoError(t, o.Start(ctx))
	require.NoError(t, o.Stop(ctx))
	require.NoError(t, o.Stop(ctx))

	// restartable
	require.NoError(t, o.Start(ctx))
	require.NoError(t, o.Close())
	require.NoError(t, o.Close())
}

func TestOrchestratorExplainer(t *testing.T) {
	explainer := explainerFunc(func(context.Context, race.TelemetrySample, race.WeatherSample, race.StrategyInsight) (string, error) {
		return "box now", nil
	})
	o, err := New(fastOptions(
		WithTelemetrySource(wornTyres()),
		WithWeatherSource(dryTrack()),
		WithExplainer(explainer),
	)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = o.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, o.Start(ctx))

	for insight := range o.Insights(ctx) {
		assert.Equal(t, "box now", insight.Explanation)
		break
	}
}

func TestOrchestratorRejectsNilBroker(t *testing.T) {
	_, err := New(WithBroker(nil))
	assert.ErrorContains(t, err, "broker must not be nil")
}

type explainerFunc func(context.Context, race.TelemetrySample, race.WeatherSample, race.StrategyInsight) (string, error)

func (f explainerFunc) ExplainInsight(ctx context.Context, tel race.TelemetrySample, wx race.WeatherSample, insight race.StrategyInsight) (string, error) {
	return f(ctx, tel, wx, insight)
}

type sequenceHook struct {
	name string
	mu   *sync.Mutex
	seen *[]string
}

func (h sequenceHook) record() {
	h.mu.Lock()
	defer h.mu.Unlock()
	*h.seen = append(*h.seen, h.name)
}

func (h sequenceHook) OnTelemetry(context.Context, events.Sample[race.TelemetrySample]) { h.record() }

func (h sequenceHook) OnWeather(context.Context, events.Sample[race.WeatherSample]) {}

func (h sequenceHook) OnInsight(context.Context, events.Sample[race.StrategyInsight]) {}

func (h sequenceHook) OnError(context.Context, error) {}

func TestOrchestratorObserversShareOneSubscription(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	first := sequenceHook{name: "first", mu: &mu, seen: &seen}
	second := sequenceHook{name: "second", mu: &mu, seen: &seen}

	var carIDs []string
	o, err := New(
		WithObserver(first, second),
		WithTelemetrySource(feed.TelemetryFunc(func(ctx context.Context, carID string, lap int) (race.TelemetrySample, error) {
			carIDs = append(carIDs, carID)
			return wornTyres().NextTelemetry(ctx, carID, lap)
		})),
		WithWeatherSource(dryTrack()),
	)
	require.NoError(t, err)
	assert.Len(t, o.subs, 3)

	ctx := context.Background()
	require.NoError(t, o.Start(ctx))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) >= 2
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, o.Close())

	mu.Lock()
	assert.Equal(t, []string{"first", "second"}, seen[:2])
	mu.Unlock()
	assert.Equal(t, DefaultCarID, carIDs[0])
	assert.Equal(t, "RD01", DefaultCarID)
}

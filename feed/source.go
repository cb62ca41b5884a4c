package feed

import (
	"context"

	"github.com/casualjim/pitwall/race"
)

type TelemetrySource interface {
	NextTelemetry(ctx context.Context, carID string, lap int) (race.TelemetrySample, error)
}

type WeatherSource interface {
	NextWeather(ctx context.Context) (race.WeatherSample, error)
}

// TelemetryFunc adapts a plain function to TelemetrySource.
type TelemetryFunc func(ctx context.Context, carID string, lap int) (race.TelemetrySample, error)

func (f TelemetryFunc) NextTelemetry(ctx context.Context, carID string, lap int) (race.TelemetrySample, error) {
	return f(ctx, carID, lap)
}

// WeatherFunc adapts a plain function to WeatherSource.
type WeatherFunc func(ctx context.Context) (race.WeatherSample, error)

func (f WeatherFunc) NextWeather(ctx context.Context) (race.WeatherSample, error) {
	return f(ctx)
}

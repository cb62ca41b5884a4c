package feed

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/casualjim/pitwall/race"
)

var (
	_ TelemetrySource = (*Random)(nil)
	_ WeatherSource   = (*Random)(nil)
)

// Random draws every field uniformly from a plausible racing range. Two
// sources built with the same seed produce the same sequence.
type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandom(seed uint64) *Random {
	return &Random{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (r *Random) NextTelemetry(ctx context.Context, carID string, lap int) (race.TelemetrySample, error) {
	if err := ctx.Err(); err != nil {
		return race.TelemetrySample{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	sectors := make([]float64, race.SectorCount)
	for i := range sectors {
		sectors[i] = r.uniform(25, 35, 3)
	}
	return race.TelemetrySample{
		CarID:        carID,
		Lap:          lap,
		SectorTimes:  sectors,
		Speed:        r.uniform(250, 335, 1),
		TyreCompound: race.SlickCompounds[r.rng.IntN(len(race.SlickCompounds))],
		TyreWearPct:  r.uniform(2, 40, 1),
		FuelKg:       r.uniform(15, 110, 1),
		Position:     1 + r.rng.IntN(20),
	}, nil
}

func (r *Random) NextWeather(ctx context.Context) (race.WeatherSample, error) {
	if err := ctx.Err(); err != nil {
		return race.WeatherSample{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	return race.WeatherSample{
		TempC:      r.uniform(18, 35, 1),
		TrackTempC: r.uniform(22, 55, 1),
		RainProb:   r.uniform(0, 0.6, 2),
		WindKph:    r.uniform(2, 35, 1),
	}, nil
}

func (r *Random) uniform(lo, hi float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round((lo+r.rng.Float64()*(hi-lo))*p) / p
}

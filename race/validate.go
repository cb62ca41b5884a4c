package race

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidSample is wrapped by every validation failure.
var ErrInvalidSample = errors.New("invalid sample")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidSample, fmt.Sprintf(format, args...))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Validate checks that the sample describes a physically possible car state.
func (t TelemetrySample) Validate() error {
	var errs []error
	if t.Lap < 1 {
		errs = append(errs, invalid("lap %d must be at least 1", t.Lap))
	}
	if t.Position < 1 {
		errs = append(errs, invalid("position %d must be at least 1", t.Position))
	}
	if len(t.SectorTimes) != SectorCount {
		errs = append(errs, invalid("expected %d sector times, got %d", SectorCount, len(t.SectorTimes)))
	}
	for i, s := range t.SectorTimes {
		if !finite(s) || s <= 0 {
			errs = append(errs, invalid("sector %d time %v must be positive", i+1, s))
		}
	}
	if !finite(t.Speed) || t.Speed < 0 {
		errs = append(errs, invalid("speed %v must not be negative", t.Speed))
	}
	if !t.TyreCompound.Valid() {
		errs = append(errs, invalid("unknown tyre compound %q", t.TyreCompound))
	}
	if !finite(t.TyreWearPct) || t.TyreWearPct < 0 || t.TyreWearPct > 100 {
		errs = append(errs, invalid("tyre wear %v%% out of range", t.TyreWearPct))
	}
	if !finite(t.FuelKg) || t.FuelKg < 0 {
		errs = append(errs, invalid("fuel %vkg must not be negative", t.FuelKg))
	}
	return errors.Join(errs...)
}

// Validate checks the weather reading for impossible values.
func (w WeatherSample) Validate() error {
	var errs []error
	if !finite(w.TempC) {
		errs = append(errs, invalid("air temperature %v is not a number", w.TempC))
	}
	if !finite(w.TrackTempC) {
		errs = append(errs, invalid("track temperature %v is not a number", w.TrackTempC))
	}
	if !finite(w.RainProb) || w.RainProb < 0 || w.RainProb > 1 {
		errs = append(errs, invalid("rain probability %v out of range", w.RainProb))
	}
	if !finite(w.WindKph) || w.WindKph < 0 {
		errs = append(errs, invalid("wind %vkph must not be negative", w.WindKph))
	}
	return errors.Join(errs...)
}

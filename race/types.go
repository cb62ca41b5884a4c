package race

import (
	"fmt"
	"strings"
)

// Kind discriminates the payloads carried on the event bus.
type Kind string

const (
	KindTelemetry Kind = "telemetry"
	KindWeather   Kind = "weather"
	KindInsight   Kind = "insight"
)

// Payload is implemented by every value that can be published on the bus.
type Payload interface {
	Kind() Kind
}

var (
	_ Payload = TelemetrySample{}
	_ Payload = WeatherSample{}
	_ Payload = StrategyInsight{}
)

// Compound is a tyre compound as reported by the team radio.
type Compound string

const (
	Soft   Compound = "SOFT"
	Medium Compound = "MEDIUM"
	Hard   Compound = "HARD"
	Inters Compound = "INTERS"
	Wet    Compound = "WET"
)

// SlickCompounds lists the dry-weather compounds in order of increasing hardness.
var SlickCompounds = []Compound{Soft, Medium, Hard}

// Valid reports whether c is a known compound.
func (c Compound) Valid() bool {
	switch c {
	case Soft, Medium, Hard, Inters, Wet:
		return true
	}
	return false
}

// ParseCompound parses a compound name case-insensitively.
func ParseCompound(s string) (Compound, error) {
	c := Compound(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown tyre compound %q", s)
	}
	return c, nil
}

// SectorCount is the number of timing sectors on every circuit.
const SectorCount = 3

// TelemetrySample is a single reading of car state, one per lap.
type TelemetrySample struct {
	CarID        string    `json:"car_id" jsonschema:"description=Car identifier"`
	Lap          int       `json:"lap" jsonschema:"minimum=1"`
	SectorTimes  []float64 `json:"sector_times" jsonschema:"minItems=3,maxItems=3,description=Sector times in seconds"`
	Speed        float64   `json:"speed" jsonschema:"description=Speed trap reading in km/h"`
	TyreCompound Compound  `json:"tyre_compound" jsonschema:"enum=SOFT,enum=MEDIUM,enum=HARD,enum=INTERS,enum=WET"`
	TyreWearPct  float64   `json:"tyre_wear_pct" jsonschema:"minimum=0,maximum=100"`
	FuelKg       float64   `json:"fuel_kg" jsonschema:"minimum=0"`
	Position     int       `json:"position" jsonschema:"minimum=1"`
}

func (TelemetrySample) Kind() Kind { return KindTelemetry }

// LapTime is the sum of the sector times.
func (t TelemetrySample) LapTime() float64 {
	var total float64
	for _, s := range t.SectorTimes {
		total += s
	}
	return total
}

// WeatherSample is a single reading of track-side weather.
type WeatherSample struct {
	TempC      float64 `json:"temp_c" jsonschema:"description=Air temperature in Celsius"`
	TrackTempC float64 `json:"track_temp_c" jsonschema:"description=Track surface temperature in Celsius"`
	RainProb   float64 `json:"rain_prob" jsonschema:"minimum=0,maximum=1"`
	WindKph    float64 `json:"wind_kph" jsonschema:"minimum=0"`
}

func (WeatherSample) Kind() Kind { return KindWeather }

// StrategyInsight is the fused recommendation produced by the strategy agent.
// RecommendedPitInLaps and TargetCompound are nil when the car should stay out.
type StrategyInsight struct {
	RecommendedPitInLaps *int      `json:"recommended_pit_in_laps" jsonschema:"oneof_type=integer;null"`
	TargetCompound       *Compound `json:"target_compound" jsonschema:"oneof_type=string;null"`
	PaceDeltaS           float64   `json:"pace_delta_s"`
	RiskRain             float64   `json:"risk_rain" jsonschema:"minimum=0,maximum=1"`
	Confidence           float64   `json:"confidence" jsonschema:"minimum=0.1,maximum=0.95"`
	Explanation          string    `json:"explanation,omitempty"`
}

func (StrategyInsight) Kind() Kind { return KindInsight }

// PitCall reports whether the insight recommends a pit stop.
func (s StrategyInsight) PitCall() bool {
	return s.RecommendedPitInLaps != nil
}

// Summary renders the decision as a short radio call.
func (s StrategyInsight) Summary() string {
	if !s.PitCall() {
		return fmt.Sprintf("Stay out, pace delta %.3fs", s.PaceDeltaS)
	}
	laps := *s.RecommendedPitInLaps
	unit := "laps"
	if laps == 1 {
		unit = "lap"
	}
	if s.TargetCompound == nil {
		return fmt.Sprintf("Box in %d %s", laps, unit)
	}
	return fmt.Sprintf("Box in %d %s for %s", laps, unit, *s.TargetCompound)
}

package race

import (
	"math"

	"github.com/go-openapi/swag"
)

const (
	wearPitThreshold      = 35.0
	wearCriticalThreshold = 38.0
	rainSlickThreshold    = 0.45
	rainIntersThreshold   = 0.5
)

// ComputeInsight fuses the latest telemetry and weather into a strategy insight.
// The result only depends on its inputs.
func ComputeInsight(tel TelemetrySample, wx WeatherSample) StrategyInsight {
	wear := tel.TyreWearPct
	rain := wx.RainProb

	paceDelta := math.Max(0, (wear-10)*0.05) + rain*0.2

	insight := StrategyInsight{
		PaceDeltaS: round(paceDelta, 3),
		RiskRain:   rain,
		Confidence: round(confidence(wear, rain), 2),
	}

	onDrySlick := tel.TyreCompound == Soft || tel.TyreCompound == Medium
	if wear > wearPitThreshold || (rain > rainSlickThreshold && onDrySlick) {
		insight.RecommendedPitInLaps = swag.Int(pitWindow(wear, rain))
		target := targetCompound(tel.TyreCompound, rain)
		insight.TargetCompound = &target
	}
	return insight
}

// pitWindow maps how urgent the stop is to the number of laps until the car boxes.
func pitWindow(wear, rain float64) int {
	switch {
	case rain > rainIntersThreshold, wear > wearCriticalThreshold:
		return 1
	case wear > wearPitThreshold:
		return 2
	default:
		return 3
	}
}

func targetCompound(current Compound, rain float64) Compound {
	if rain > rainIntersThreshold {
		return Inters
	}
	if current != Hard {
		return Hard
	}
	return Medium
}

// confidence peaks when rain probability sits around 30% and degrades with tyre wear.
func confidence(wear, rain float64) float64 {
	c := 0.6 + (0.4 - math.Min(0.4, math.Abs(0.3-rain))) - math.Min(0.3, wear/100)
	return math.Max(0.1, math.Min(0.95, c))
}

func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}

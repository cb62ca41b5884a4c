package race

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTelemetrySample_Validate(t *testing.T) {
	require.NoError(t, telemetry(Soft, 12).Validate())

	tests := []struct {
		name   string
		mutate func(*TelemetrySample)
		want   string
	}{
		{"lap zero", func(s *TelemetrySample) { s.Lap = 0 }, "lap 0"},
		{"position zero", func(s *TelemetrySample) { s.Position = 0 }, "position 0"},
		{"missing sector", func(s *TelemetrySample) { s.SectorTimes = s.SectorTimes[:2] }, "expected 3 sector times"},
		{"negative sector", func(s *TelemetrySample) { s.SectorTimes[1] = -1 }, "sector 2"},
		{"unknown compound", func(s *TelemetrySample) { s.TyreCompound = "ULTRA" }, "ULTRA"},
		{"wear above 100", func(s *TelemetrySample) { s.TyreWearPct = 101 }, "tyre wear"},
		{"negative fuel", func(s *TelemetrySample) { s.FuelKg = -3 }, "fuel"},
		{"nan speed", func(s *TelemetrySample) { s.Speed = math.NaN() }, "speed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := telemetry(Medium, 12)
			tt.mutate(&s)
			err := s.Validate()
			require.ErrorIs(t, err, ErrInvalidSample)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestWeatherSample_Validate(t *testing.T) {
	require.NoError(t, weather(0.2).Validate())

	err := weather(1.2).Validate()
	require.ErrorIs(t, err, ErrInvalidSample)
	assert.Contains(t, err.Error(), "rain probability")

	wx := weather(0.2)
	wx.WindKph = -1
	wx.TrackTempC = math.Inf(1)
	err = wx.Validate()
	require.ErrorIs(t, err, ErrInvalidSample)
	assert.Contains(t, err.Error(), "wind")
	assert.Contains(t, err.Error(), "track temperature")
}

// Package synth generates feed channels for simulations that have no
// recorded data. Every curve is a closed form of the timestamp, so the
// same horizon always yields identical samples.
package synth

import (
	"time"

	"gridsim/internal/series"
)

// Curve maps a timestamp to a sample value.
type Curve func(t time.Time) float64

// Fill samples a curve at every horizon timestamp into the named channel.
func Fill(s *series.Series, channel string, idx series.Index, curve Curve) {
	for i := 0; i < idx.Len(); i++ {
		t := idx.At(i)
		s.Add(channel, t, curve(t))
	}
}

// fractionalHour returns the hour of day including minutes and seconds,
// e.g. 13.5 for 13:30:00.
func fractionalHour(t time.Time) float64 {
	return float64(t.Hour()) + float64(t.Minute())/60 + float64(t.Second())/3600
}

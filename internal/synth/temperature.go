package synth

import (
	"math"
	"time"
)

// Temperature is an outdoor temperature curve in °C: an annual sinusoid
// peaking on WarmestDay stacked with a daily sinusoid peaking at
// WarmestHour.
type Temperature struct {
	// MeanC is the annual average.
	MeanC float64
	// SeasonalAmplitudeC is half the summer-winter spread.
	SeasonalAmplitudeC float64
	// DiurnalAmplitudeC is half the day-night spread.
	DiurnalAmplitudeC float64
	// WarmestDay is the day of year of the seasonal maximum.
	WarmestDay int
	// WarmestHour is the fractional hour of the daily maximum.
	WarmestHour float64
}

// DefaultTemperature returns a temperate-climate curve.
func DefaultTemperature() Temperature {
	return Temperature{
		MeanC:              9.5,
		SeasonalAmplitudeC: 9,
		DiurnalAmplitudeC:  4,
		WarmestDay:         205,
		WarmestHour:        14.5,
	}
}

// At returns the temperature in °C at t.
func (c Temperature) At(t time.Time) float64 {
	dayAngle := 2 * math.Pi * float64(t.YearDay()-c.WarmestDay) / 365.0
	hourAngle := 2 * math.Pi * (fractionalHour(t) - c.WarmestHour) / 24.0
	return c.MeanC + c.SeasonalAmplitudeC*math.Cos(dayAngle) + c.DiurnalAmplitudeC*math.Cos(hourAngle)
}

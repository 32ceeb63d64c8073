package synth

import (
	"math"
	"time"
)

// Irradiance is a clear-sky irradiance curve emitted as a fraction of
// rated peak in [0, 1]. The daily shape is a bell around PeakHour whose
// height follows the season: full on the summer peak day, reduced by
// WinterDrop half a year away.
type Irradiance struct {
	// PeakHour is the fractional hour of maximum sun.
	PeakHour float64
	// Width spreads the daily bell, in hours.
	Width float64
	// SummerPeakDay is the day of year with the strongest sun.
	SummerPeakDay int
	// WinterDrop is the share of the peak lost in midwinter [0, 1].
	WinterDrop float64
}

// DefaultIrradiance returns a south-facing curve for a temperate site.
func DefaultIrradiance() Irradiance {
	return Irradiance{
		PeakHour:      12.5,
		Width:         3.0,
		SummerPeakDay: 172,
		WinterDrop:    0.65,
	}
}

// At returns the irradiance fraction at t.
func (c Irradiance) At(t time.Time) float64 {
	dist := fractionalHour(t) - c.PeakHour
	daily := math.Exp(-dist * dist / (2 * c.Width * c.Width))
	if daily < 0.01 {
		return 0
	}

	dayAngle := 2 * math.Pi * float64(t.YearDay()-c.SummerPeakDay) / 365.0
	seasonal := 1 - c.WinterDrop*(1-math.Cos(dayAngle))/2
	return daily * seasonal
}

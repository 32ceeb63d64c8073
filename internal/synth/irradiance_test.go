package synth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIrradiance_DailyShape(t *testing.T) {
	c := DefaultIrradiance()
	day := time.Date(2025, time.June, 21, 0, 0, 0, 0, time.UTC)

	peak := c.At(day.Add(12*time.Hour + 30*time.Minute))
	assert.InDelta(t, 1.0, peak, 1e-9, "summer noon should hit the rated peak")

	assert.Zero(t, c.At(day), "midnight should produce nothing")
	assert.Zero(t, c.At(day.Add(23*time.Hour)), "late evening should produce nothing")

	morning := c.At(day.Add(9*time.Hour + 30*time.Minute))
	afternoon := c.At(day.Add(15*time.Hour + 30*time.Minute))
	assert.InDelta(t, 0.6065, morning, 0.001)
	assert.InDelta(t, morning, afternoon, 1e-9, "bell should be symmetric around the peak hour")
}

func TestIrradiance_SeasonalSwing(t *testing.T) {
	c := DefaultIrradiance()
	noon := 12*time.Hour + 30*time.Minute

	summer := c.At(time.Date(2025, time.June, 21, 0, 0, 0, 0, time.UTC).Add(noon))
	winter := c.At(time.Date(2025, time.December, 21, 0, 0, 0, 0, time.UTC).Add(noon))

	assert.Less(t, winter, summer)
	assert.InDelta(t, 0.35, winter, 0.01, "midwinter noon should keep 1-WinterDrop of the peak")
}

func TestIrradiance_StaysWithinUnitRange(t *testing.T) {
	c := DefaultIrradiance()
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	for ts := start; ts.Before(end); ts = ts.Add(time.Hour) {
		v := c.At(ts)
		assert.GreaterOrEqual(t, v, 0.0, "at %s", ts)
		assert.LessOrEqual(t, v, 1.0, "at %s", ts)
	}
}

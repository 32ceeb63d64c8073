// Package ingest reads external feed samples from CSV sources. It sits on
// the data-provider side of the simulation: parsed samples become the
// series a run resolves its external references against.
package ingest

import (
	"io"

	"gridsim/internal/series"
)

// FeedParser reads feed samples from a source, keyed by channel name.
type FeedParser interface {
	Parse(r io.Reader) (map[string][]series.Point, error)
}

// IntoSeries collects parsed samples into a lookup series.
func IntoSeries(samples map[string][]series.Point) *series.Series {
	s := series.New()
	for channel, points := range samples {
		s.AddPoints(channel, points)
	}
	return s
}

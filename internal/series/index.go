// Package series holds the simulation horizon and the external data feeds
// assets read from. Lookups are exact-match: aligning or interpolating a
// feed onto the horizon is the data provider's job, not the engine's.
package series

import (
	"errors"
	"fmt"
	"time"
)

// Index is the simulation horizon: a strictly increasing sequence of
// timestamps shared read-only once fixed.
type Index struct {
	stamps []time.Time
}

// NewIndex builds an index from explicit stamps. The sequence must be
// non-empty and strictly increasing.
func NewIndex(stamps []time.Time) (Index, error) {
	if len(stamps) == 0 {
		return Index{}, errors.New("series: index needs at least one timestamp")
	}
	for i := 1; i < len(stamps); i++ {
		if !stamps[i].After(stamps[i-1]) {
			return Index{}, fmt.Errorf("series: index timestamps must be strictly increasing at position %d", i)
		}
	}
	return Index{stamps: append([]time.Time(nil), stamps...)}, nil
}

// Range builds an index covering [start, end) at the given step.
func Range(start, end time.Time, step time.Duration) (Index, error) {
	if step <= 0 {
		return Index{}, errors.New("series: step must be positive")
	}
	if !end.After(start) {
		return Index{}, errors.New("series: end must be after start")
	}
	var stamps []time.Time
	for t := start; t.Before(end); t = t.Add(step) {
		stamps = append(stamps, t)
	}
	return Index{stamps: stamps}, nil
}

// Len returns the number of steps in the horizon.
func (ix Index) Len() int { return len(ix.stamps) }

// At returns the timestamp at position i.
func (ix Index) At(i int) time.Time { return ix.stamps[i] }

// Start returns the first timestamp.
func (ix Index) Start() time.Time { return ix.stamps[0] }

// End returns the last timestamp.
func (ix Index) End() time.Time { return ix.stamps[len(ix.stamps)-1] }

// Stamps returns a copy of the full sequence.
func (ix Index) Stamps() []time.Time {
	return append([]time.Time(nil), ix.stamps...)
}

package series

import (
	"fmt"
	"sort"
	"time"
)

// Point is one sample of a feed channel.
type Point struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// MissingDataError reports a lookup the supplied feed does not cover.
type MissingDataError struct {
	Timestamp time.Time
	Channel   string
}

func (e *MissingDataError) Error() string {
	return fmt.Sprintf("no %q value at %s", e.Channel, e.Timestamp.Format(time.RFC3339))
}

// Series holds named feed channels as timestamp-sorted samples. Build it
// up front, then read; it is not safe for concurrent mutation.
type Series struct {
	channels map[string][]Point
}

// New returns an empty series.
func New() *Series {
	return &Series{channels: make(map[string][]Point)}
}

// Add inserts one sample, keeping the channel sorted. Adding at an
// existing timestamp replaces the value.
func (s *Series) Add(channel string, t time.Time, v float64) {
	ps := s.channels[channel]
	i := sort.Search(len(ps), func(i int) bool { return !ps[i].Timestamp.Before(t) })
	if i < len(ps) && ps[i].Timestamp.Equal(t) {
		ps[i].Value = v
		return
	}
	ps = append(ps, Point{})
	copy(ps[i+1:], ps[i:])
	ps[i] = Point{Timestamp: t, Value: v}
	s.channels[channel] = ps
}

// AddPoints bulk-loads samples into a channel; input order does not
// matter.
func (s *Series) AddPoints(channel string, points []Point) {
	for _, p := range points {
		s.Add(channel, p.Timestamp, p.Value)
	}
}

// ValueAt returns the channel's value at exactly t. Anything else,
// including timestamps between samples, is a *MissingDataError.
func (s *Series) ValueAt(t time.Time, channel string) (float64, error) {
	ps := s.channels[channel]
	i := sort.Search(len(ps), func(i int) bool { return !ps[i].Timestamp.Before(t) })
	if i < len(ps) && ps[i].Timestamp.Equal(t) {
		return ps[i].Value, nil
	}
	return 0, &MissingDataError{Timestamp: t, Channel: channel}
}

// Covers verifies every horizon timestamp has a sample on every listed
// channel, reporting the first gap. Run it at load time so a feed hole
// fails before the simulation starts instead of halfway through.
func (s *Series) Covers(idx Index, channels []string) error {
	for _, ch := range channels {
		for i := 0; i < idx.Len(); i++ {
			if _, err := s.ValueAt(idx.At(i), ch); err != nil {
				return err
			}
		}
	}
	return nil
}

// Channels returns the channel names, sorted.
func (s *Series) Channels() []string {
	names := make([]string, 0, len(s.channels))
	for ch := range s.channels {
		names = append(names, ch)
	}
	sort.Strings(names)
	return names
}

// Len returns the sample count of a channel.
func (s *Series) Len(channel string) int {
	return len(s.channels[channel])
}

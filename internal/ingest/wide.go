package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"gridsim/internal/series"
)

// WideParser reads a multi-channel CSV whose header names the channels:
// the first column is "timestamp", every further column is one channel.
// Blank cells are skipped, leaving that channel without a sample at the
// stamp.
type WideParser struct{}

func (p *WideParser) Parse(r io.Reader) (map[string][]series.Point, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("ingest: read header: %w", err)
	}
	if len(header) < 2 || strings.TrimSpace(header[0]) != "timestamp" {
		return nil, fmt.Errorf("ingest: first header column must be \"timestamp\", got %q", strings.Join(header, ","))
	}

	channels := make([]string, len(header)-1)
	seen := make(map[string]bool, len(channels))
	for i, name := range header[1:] {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("ingest: header column %d is empty", i+2)
		}
		if seen[name] {
			return nil, fmt.Errorf("ingest: duplicate channel %q in header", name)
		}
		seen[name] = true
		channels[i] = name
	}

	samples := make(map[string][]series.Point, len(channels))
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("ingest: %w", err)
		}

		ts, err := time.Parse(time.RFC3339, strings.TrimSpace(record[0]))
		if err != nil {
			return nil, fmt.Errorf("ingest: line %d: parse timestamp: %w", line, err)
		}

		for i, channel := range channels {
			raw := strings.TrimSpace(record[i+1])
			if raw == "" {
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("ingest: line %d: channel %q: parse value: %w", line, channel, err)
			}
			samples[channel] = append(samples[channel], series.Point{Timestamp: ts, Value: v})
		}
	}

	return samples, nil
}

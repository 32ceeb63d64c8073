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

// ChannelParser reads a single-channel CSV with a "timestamp,value"
// header. Rows with a blank value are skipped; the stamp simply has no
// sample, which a run surfaces as missing data if it is ever needed.
type ChannelParser struct {
	channel string
}

func NewChannelParser(channel string) *ChannelParser {
	return &ChannelParser{channel: channel}
}

func (p *ChannelParser) Parse(r io.Reader) (map[string][]series.Point, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("ingest: read header: %w", err)
	}
	if len(header) < 2 || strings.TrimSpace(header[0]) != "timestamp" || strings.TrimSpace(header[1]) != "value" {
		return nil, fmt.Errorf("ingest: header must be \"timestamp,value\", got %q", strings.Join(header, ","))
	}

	var points []series.Point
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

		raw := strings.TrimSpace(record[1])
		if raw == "" {
			continue
		}

		ts, err := time.Parse(time.RFC3339, strings.TrimSpace(record[0]))
		if err != nil {
			return nil, fmt.Errorf("ingest: line %d: parse timestamp: %w", line, err)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("ingest: line %d: parse value: %w", line, err)
		}

		points = append(points, series.Point{Timestamp: ts, Value: v})
	}

	return map[string][]series.Point{p.channel: points}, nil
}

package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gridsim/internal/api"
	"gridsim/internal/graph"
	"gridsim/internal/ingest"
	"gridsim/internal/schema"
	"gridsim/internal/series"
	"gridsim/internal/simulator"
	"gridsim/internal/synth"
	"gridsim/internal/ws"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	feedDir := flag.String("feed-dir", "", "directory of wide-format feed CSVs (empty: synthesize feeds)")
	start := flag.String("start", "2025-06-21", "horizon start date (YYYY-MM-DD)")
	steps := flag.Int("steps", 48, "number of horizon steps")
	step := flag.Duration("step", time.Hour, "horizon step size")
	flag.Parse()

	// Build the scenario
	specs, err := schema.ValidateAll(demoScenario())
	if err != nil {
		log.Fatalf("Invalid scenario: %v", err)
	}
	g, err := graph.Build(specs)
	if err != nil {
		log.Fatalf("Failed to build asset graph: %v", err)
	}

	startAt, err := time.Parse("2006-01-02", *start)
	if err != nil {
		log.Fatalf("Invalid -start: %v", err)
	}
	idx, err := series.Range(startAt, startAt.Add(time.Duration(*steps)*(*step)), *step)
	if err != nil {
		log.Fatalf("Failed to build horizon: %v", err)
	}

	// Load or synthesize the external feeds
	var feed *series.Series
	if *feedDir != "" {
		feed, err = loadFeedCSVs(*feedDir)
		if err != nil {
			log.Fatalf("Failed to load feed data: %v", err)
		}
	} else {
		log.Printf("No feed directory given, synthesizing feeds")
		feed = synthesizeFeed(idx)
	}
	if err := feed.Covers(idx, g.ExternalChannels()); err != nil {
		log.Fatalf("Feed does not cover the horizon: %v", err)
	}
	log.Printf("Horizon: %s to %s, %d steps",
		idx.Start().Format("2006-01-02 15:04"), idx.End().Format("2006-01-02 15:04"), idx.Len())

	// Set up WebSocket hub and simulation engine
	hub := ws.NewHub()
	engine, err := simulator.New(g, idx, feed)
	if err != nil {
		log.Fatalf("Failed to initialize simulation engine: %v", err)
	}
	engine.SetCallback(ws.NewBridge(hub))

	handler := ws.NewHandler(hub, engine)

	log.Printf("Starting server on %s", *addr)
	if err := http.ListenAndServe(*addr, api.Router(engine, handler)); err != nil {
		log.Fatal(err)
	}
}

// demoScenario wires a small household: rooftop PV and two loads balanced
// by a battery, settled against a grid connection with an evening peak
// tariff. A demand response program rewards battery output over the same
// window.
func demoScenario() []schema.RawAsset {
	return []schema.RawAsset{
		{
			ID:       "pv",
			Kind:     "solar",
			Params:   map[string]any{"peak_power_w": 6500},
			Upstream: []string{"external:irradiance"},
		},
		{
			ID:     "house",
			Kind:   "fixed_load",
			Params: map[string]any{"power_w": 450},
		},
		{
			ID:   "heating",
			Kind: "variable_load",
			Params: map[string]any{
				"base_power_w":             200,
				"reference_temp_c":         16,
				"temp_coefficient_w_per_c": 120,
			},
			Upstream: []string{"external:temperature_c"},
		},
		{
			ID:   "bat",
			Kind: "battery",
			Params: map[string]any{
				"capacity_wh":       10000,
				"max_charge_w":      5000,
				"max_discharge_w":   5000,
				"efficiency_in":     0.95,
				"efficiency_out":    0.95,
				"initial_energy_wh": 5000,
			},
			Upstream: []string{"pv", "house", "heating"},
		},
		{
			ID:   "grid",
			Kind: "grid",
			Params: map[string]any{
				"import_rate_per_kwh": 0.32,
				"export_rate_per_kwh": 0.08,
				"peak_rate_per_kwh":   0.45,
				"peak_start_hour":     17,
				"peak_end_hour":       20,
			},
			Upstream: []string{"bat"},
		},
		{
			ID:   "dr",
			Kind: "demand_response",
			Params: map[string]any{
				"rate_per_kwh":      0.10,
				"window_start_hour": 17,
				"window_end_hour":   20,
			},
			Upstream: []string{"bat"},
		},
	}
}

// loadFeedCSVs loads wide-format CSV files from dir into a single feed.
// Every .csv file contributes its channels.
func loadFeedCSVs(dir string) (*series.Series, error) {
	feed := series.New()
	parser := &ingest.WideParser{}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading feed directory: %w", err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		log.Printf("Loading %s...", path)

		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
		channels, err := parser.Parse(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}

		for ch, points := range channels {
			feed.AddPoints(ch, points)
			log.Printf("  Loaded %d samples into %q from %s", len(points), ch, entry.Name())
		}
		loaded++
	}

	if loaded == 0 {
		return nil, fmt.Errorf("no CSV files in %s", dir)
	}
	return feed, nil
}

// synthesizeFeed generates the demo channels over the horizon.
func synthesizeFeed(idx series.Index) *series.Series {
	feed := series.New()
	synth.Fill(feed, "irradiance", idx, synth.DefaultIrradiance().At)
	synth.Fill(feed, "temperature_c", idx, synth.DefaultTemperature().At)
	return feed
}

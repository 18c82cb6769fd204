package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cleberrangel/clickup-timeline-api/internal/timeline"
)

func env(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{"TOKEN_API": "secret"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" || cfg.GinMode != "debug" || cfg.LogLevel != "info" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Location != time.Local {
		t.Errorf("expected local timezone, got %v", cfg.Location)
	}
	if cfg.Timeline.Scale != timeline.DefaultBounds() {
		t.Errorf("expected default bounds, got %+v", cfg.Timeline.Scale)
	}
}

func TestFromEnvRequiresTokens(t *testing.T) {
	if _, err := FromEnv(env(nil)); !errors.Is(err, ErrMissingToken) {
		t.Errorf("expected ErrMissingToken without TOKEN_API, got %v", err)
	}

	_, err := FromEnv(env(map[string]string{
		"TOKEN_API":        "secret",
		"CLICKUP_LIST_IDS": "901",
	}))
	if !errors.Is(err, ErrMissingToken) {
		t.Errorf("expected ErrMissingToken when lists are set without TOKEN_CLICKUP, got %v", err)
	}
}

func TestFromEnvLists(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"TOKEN_API":        "secret",
		"TOKEN_CLICKUP":    "pk",
		"CLICKUP_LIST_IDS": " 901, 902 ,,",
		"ICS_URLS":         "https://example.com/a.ics",
		"LOG_JSON":         "true",
		"TIMEZONE":         "UTC",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.ListIDs) != 2 || cfg.ListIDs[0] != "901" || cfg.ListIDs[1] != "902" {
		t.Errorf("unexpected list ids %v", cfg.ListIDs)
	}
	if len(cfg.ICSURLs) != 1 {
		t.Errorf("unexpected ics urls %v", cfg.ICSURLs)
	}
	if !cfg.LogJSON {
		t.Error("expected LOG_JSON to be parsed")
	}
	if cfg.Location != time.UTC {
		t.Errorf("expected UTC, got %v", cfg.Location)
	}
}

func TestFromEnvBadTimezone(t *testing.T) {
	_, err := FromEnv(env(map[string]string{"TOKEN_API": "secret", "TIMEZONE": "Mars/Olympus"}))
	if err == nil {
		t.Error("expected error for unknown timezone")
	}
}

func TestParseTimeline(t *testing.T) {
	cfg, err := ParseTimeline([]byte(`
scale:
  min: 30
  max: 120
  initial: 60
header_offset: 0
readout:
  epsilon: 5
settle_duration: 400ms
cache_ttl: 2m
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Scale != (timeline.Bounds{Min: 30, Max: 120, Initial: 60}) {
		t.Errorf("unexpected bounds %+v", cfg.Scale)
	}
	if cfg.HeaderOffset == nil || *cfg.HeaderOffset != 0 {
		t.Errorf("explicit zero header offset should be kept, got %v", cfg.HeaderOffset)
	}
	if cfg.Readout.Epsilon != 5 || cfg.Readout.PerSecond != timeline.DefaultReadoutRate {
		t.Errorf("unexpected readout %+v", cfg.Readout)
	}
	if cfg.SettleDuration != 400*time.Millisecond || cfg.CacheTTL != 2*time.Minute {
		t.Errorf("unexpected durations %v %v", cfg.SettleDuration, cfg.CacheTTL)
	}
}

func TestParseTimelineInvalidBoundsFallBack(t *testing.T) {
	cfg, err := ParseTimeline([]byte("scale:\n  min: 80\n  max: 20\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Scale != timeline.DefaultBounds() {
		t.Errorf("expected default bounds, got %+v", cfg.Scale)
	}
}

func TestParseTimelineInitialOutsideRange(t *testing.T) {
	cfg, err := ParseTimeline([]byte("scale:\n  min: 50\n  max: 100\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Scale.Initial != 75 {
		t.Errorf("expected midpoint 75, got %v", cfg.Scale.Initial)
	}
}

func TestLoadTimelineMissingFile(t *testing.T) {
	cfg, err := LoadTimeline(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("missing file should yield defaults, got %v", err)
	}
	if cfg.Scale != timeline.DefaultBounds() {
		t.Errorf("expected defaults, got %+v", cfg.Scale)
	}
}

func TestLoadTimelineFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timeline.yaml")
	if err := os.WriteFile(path, []byte("row_pixels: 5\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadTimeline(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RowPixels != 5 {
		t.Errorf("expected row pixels 5, got %v", cfg.RowPixels)
	}
}

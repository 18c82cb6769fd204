package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/cleberrangel/clickup-timeline-api/internal/timeline"
	"gopkg.in/yaml.v3"
)

// TimelineConfig holds the tuning knobs of the day view.
type TimelineConfig struct {
	Scale timeline.Bounds `yaml:"scale"`

	// HeaderOffset is the height of the chrome above the grid, in px.
	HeaderOffset *float64 `yaml:"header_offset,omitempty"`

	Readout ReadoutConfig `yaml:"readout"`

	// SettleDuration is how long the readout eases after a pinch ends.
	SettleDuration time.Duration `yaml:"settle_duration"`

	// CacheTTL bounds how long a resolved day is served without refetching.
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// RowPixels is how many grid pixels one text row covers in the terminal
	// preview.
	RowPixels float64 `yaml:"row_pixels"`
}

// ReadoutConfig tunes the secondary scale readout.
type ReadoutConfig struct {
	Epsilon   float64 `yaml:"epsilon"`
	PerSecond int     `yaml:"per_second"`
}

// DefaultTimelineConfig returns the built-in tuning.
func DefaultTimelineConfig() *TimelineConfig {
	header := timeline.DefaultHeaderOffset
	return &TimelineConfig{
		Scale:        timeline.DefaultBounds(),
		HeaderOffset: &header,
		Readout: ReadoutConfig{
			Epsilon:   timeline.DefaultReadoutEpsilon,
			PerSecond: timeline.DefaultReadoutRate,
		},
		SettleDuration: 250 * time.Millisecond,
		CacheTTL:       time.Minute,
		RowPixels:      10,
	}
}

// Normalize fills zero or invalid fields with defaults.
func (c *TimelineConfig) Normalize() {
	def := DefaultTimelineConfig()

	if c.Scale == (timeline.Bounds{}) || !c.Scale.Valid() {
		c.Scale = def.Scale
	}
	if c.Scale.Initial < c.Scale.Min || c.Scale.Initial > c.Scale.Max {
		c.Scale.Initial = timeline.DefaultScale
		if c.Scale.Initial < c.Scale.Min || c.Scale.Initial > c.Scale.Max {
			c.Scale.Initial = (c.Scale.Min + c.Scale.Max) / 2
		}
	}
	if c.HeaderOffset == nil {
		c.HeaderOffset = def.HeaderOffset
	}
	if c.Readout.Epsilon <= 0 {
		c.Readout.Epsilon = def.Readout.Epsilon
	}
	if c.Readout.PerSecond == 0 {
		c.Readout.PerSecond = def.Readout.PerSecond
	}
	if c.SettleDuration <= 0 {
		c.SettleDuration = def.SettleDuration
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = def.CacheTTL
	}
	if c.RowPixels <= 0 {
		c.RowPixels = def.RowPixels
	}
}

// Options converts the tuning into engine options.
func (c *TimelineConfig) Options() timeline.Options {
	return timeline.Options{
		Bounds:         c.Scale,
		HeaderOffset:   c.HeaderOffset,
		ReadoutEpsilon: c.Readout.Epsilon,
		ReadoutRate:    c.Readout.PerSecond,
	}
}

// LoadTimeline reads tuning from a YAML file. An empty path or a missing
// file yields the defaults.
func LoadTimeline(path string) (*TimelineConfig, error) {
	if path == "" {
		return DefaultTimelineConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultTimelineConfig(), nil
		}
		return nil, err
	}
	return ParseTimeline(data)
}

// ParseTimeline decodes YAML tuning and normalizes it.
func ParseTimeline(data []byte) (*TimelineConfig, error) {
	var cfg TimelineConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return &cfg, nil
}

// Package timeline implements the zoomable 24-hour day grid: the scale model,
// the pinch gesture state machine, focal-point scroll correction, and the
// geometry of hour rows and time-boxed items.
//
// Everything in this package is pure in-memory state owned by a single
// goroutine. Nothing here blocks, logs or returns errors: out-of-range input
// is clamped and malformed items are skipped.
package timeline

import "math"

const (
	// MinScale is the smallest allowed pixels-per-hour value.
	MinScale = 20.0
	// MaxScale is the largest allowed pixels-per-hour value.
	MaxScale = 80.0
	// DefaultScale is the pixels-per-hour value of a fresh view.
	DefaultScale = 40.0

	// HoursPerDay is the number of hour bands on the grid.
	HoursPerDay = 24
	// MinutesPerDay is the size of the minute-of-day domain.
	MinutesPerDay = HoursPerDay * 60
)

// Bounds is the valid pixels-per-hour range and the initial value.
type Bounds struct {
	Min     float64 `yaml:"min" json:"min"`
	Max     float64 `yaml:"max" json:"max"`
	Initial float64 `yaml:"initial" json:"initial"`
}

// DefaultBounds returns the 20..80 px/h range starting at 40.
func DefaultBounds() Bounds {
	return Bounds{Min: MinScale, Max: MaxScale, Initial: DefaultScale}
}

// Valid reports whether b describes a usable, non-empty range.
func (b Bounds) Valid() bool {
	if isBad(b.Min) || isBad(b.Max) || isBad(b.Initial) {
		return false
	}
	return b.Min > 0 && b.Min < b.Max
}

// ScaleModel owns the current pixels-per-hour value.
type ScaleModel struct {
	pixelsPerHour float64
	min           float64
	max           float64
}

// NewScaleModel creates a scale model. Invalid bounds fall back to
// DefaultBounds; the initial value is clamped into range.
func NewScaleModel(b Bounds) *ScaleModel {
	if !b.Valid() {
		b = DefaultBounds()
	}
	s := &ScaleModel{min: b.Min, max: b.Max, pixelsPerHour: b.Min}
	s.SetScale(b.Initial)
	return s
}

// SetScale clamps target into [min, max], stores it and returns the applied
// value. Callers must use the returned value for any dependent math. A NaN
// target leaves the scale unchanged.
func (s *ScaleModel) SetScale(target float64) float64 {
	if math.IsNaN(target) {
		return s.pixelsPerHour
	}
	s.pixelsPerHour = clamp(target, s.min, s.max)
	return s.pixelsPerHour
}

// PixelsPerHour returns the current scale.
func (s *ScaleModel) PixelsPerHour() float64 {
	return s.pixelsPerHour
}

// Bounds returns the range this model clamps to, with the current value as
// Initial.
func (s *ScaleModel) Bounds() Bounds {
	return Bounds{Min: s.min, Max: s.max, Initial: s.pixelsPerHour}
}

// Project maps a minute of the day to a vertical content coordinate.
func (s *ScaleModel) Project(minuteOfDay float64) float64 {
	return project(minuteOfDay, s.pixelsPerHour)
}

// TotalHeight is the height of the whole 24-hour grid.
func (s *ScaleModel) TotalHeight() float64 {
	return HoursPerDay * s.pixelsPerHour
}

func project(minuteOfDay, pixelsPerHour float64) float64 {
	return minuteOfDay / 60 * pixelsPerHour
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func isBad(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

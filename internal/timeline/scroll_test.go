package timeline

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestFocalScrollOffset(t *testing.T) {
	tests := []struct {
		name       string
		initial    float64
		focalY     float64
		scroll     float64
		current    float64
		wantOffset float64
	}{
		{"zoom in keeps focal content", 40, 100, 200, 60, 350},
		{"zoom out clamps at top", 40, 500, 0, 20, 0},
		{"no change", 40, 100, 200, 40, 200},
		{"zoom out partial", 40, 100, 500, 20, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := NewPinchSession(tt.initial, tt.focalY, tt.scroll)
			got := FocalScrollOffset(session, tt.current)
			if !approx(got, tt.wantOffset) {
				t.Errorf("FocalScrollOffset = %v, want %v", got, tt.wantOffset)
			}
		})
	}
}

func TestScrollSynchronizerInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	// The content coordinate under the focal point is the same before and
	// after the rescale, measured in hours.
	properties.Property("focal content point stays under the focal point", prop.ForAll(
		func(initial, current, focalY, scroll float64) bool {
			session := NewPinchSession(initial, focalY, scroll)
			offset := FocalScrollOffset(session, current)

			raw := (scroll+focalY)*(current/initial) - focalY
			if raw < 0 {
				return offset == 0
			}
			before := (scroll + focalY) / initial
			after := (offset + focalY) / current
			return absDiff(before, after) < 1e-6
		},
		gen.Float64Range(MinScale, MaxScale),
		gen.Float64Range(MinScale, MaxScale),
		gen.Float64Range(0, 2000),
		gen.Float64Range(0, 4000),
	))

	properties.Property("scroll offset is never negative", prop.ForAll(
		func(initial, current, focalY, scroll float64) bool {
			return FocalScrollOffset(NewPinchSession(initial, focalY, scroll), current) >= 0
		},
		gen.Float64Range(MinScale, MaxScale),
		gen.Float64Range(MinScale, MaxScale),
		gen.Float64Range(-500, 2000),
		gen.Float64Range(0, 4000),
	))

	properties.TestingRun(t)
}

func TestScrollSynchronizerOutsideSession(t *testing.T) {
	s := &ScrollSynchronizer{}
	s.SetOffset(120)

	if got := s.OnScaleChanged(nil, 60); got != 120 {
		t.Errorf("nil session should leave offset at 120, got %v", got)
	}

	session := NewPinchSession(40, 100, 120)
	session.release()
	if got := s.OnScaleChanged(session, 60); got != 120 {
		t.Errorf("inactive session should leave offset at 120, got %v", got)
	}
}

func TestScrollSynchronizerSetOffsetClampsNegative(t *testing.T) {
	s := &ScrollSynchronizer{}
	s.SetOffset(-30)
	if s.Offset() != 0 {
		t.Errorf("expected 0, got %v", s.Offset())
	}
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}

package timeline

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

const epsilon = 1e-9

func approx(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestScaleModelClamping(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	// Any requested scale lands inside [20, 80]
	properties.Property("applied scale is always within bounds", prop.ForAll(
		func(target float64) bool {
			s := NewScaleModel(DefaultBounds())
			applied := s.SetScale(target)
			return applied >= MinScale && applied <= MaxScale && applied == s.PixelsPerHour()
		},
		gen.Float64(),
	))

	// In-range requests are applied verbatim
	properties.Property("in-range scale is applied unchanged", prop.ForAll(
		func(target float64) bool {
			s := NewScaleModel(DefaultBounds())
			return s.SetScale(target) == target
		},
		gen.Float64Range(MinScale, MaxScale),
	))

	properties.TestingRun(t)
}

func TestScaleModelDefaults(t *testing.T) {
	s := NewScaleModel(DefaultBounds())
	if s.PixelsPerHour() != DefaultScale {
		t.Fatalf("expected default scale %v, got %v", DefaultScale, s.PixelsPerHour())
	}
	if s.TotalHeight() != 24*DefaultScale {
		t.Errorf("expected total height %v, got %v", 24*DefaultScale, s.TotalHeight())
	}
}

func TestScaleModelEdgeValues(t *testing.T) {
	tests := []struct {
		name   string
		target float64
		want   float64
	}{
		{"below min", 5, MinScale},
		{"above max", 500, MaxScale},
		{"negative", -40, MinScale},
		{"positive infinity", math.Inf(1), MaxScale},
		{"negative infinity", math.Inf(-1), MinScale},
		{"exact min", MinScale, MinScale},
		{"exact max", MaxScale, MaxScale},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScaleModel(DefaultBounds())
			if got := s.SetScale(tt.target); got != tt.want {
				t.Errorf("SetScale(%v) = %v, want %v", tt.target, got, tt.want)
			}
		})
	}
}

func TestScaleModelIgnoresNaN(t *testing.T) {
	s := NewScaleModel(DefaultBounds())
	s.SetScale(55)
	if got := s.SetScale(math.NaN()); got != 55 {
		t.Errorf("expected NaN to leave scale at 55, got %v", got)
	}
}

func TestScaleModelInvalidBoundsFallBack(t *testing.T) {
	for _, b := range []Bounds{
		{Min: 80, Max: 20, Initial: 40},
		{Min: 0, Max: 80, Initial: 40},
		{Min: math.NaN(), Max: 80, Initial: 40},
		{},
	} {
		s := NewScaleModel(b)
		if got := s.Bounds(); got.Min != MinScale || got.Max != MaxScale {
			t.Errorf("bounds %+v: expected fallback to defaults, got %+v", b, got)
		}
	}
}

func TestScaleModelInitialIsClamped(t *testing.T) {
	s := NewScaleModel(Bounds{Min: 10, Max: 30, Initial: 90})
	if s.PixelsPerHour() != 30 {
		t.Errorf("expected initial clamp to 30, got %v", s.PixelsPerHour())
	}
}

func TestProject(t *testing.T) {
	s := NewScaleModel(DefaultBounds())
	if got := s.Project(90); !approx(got, 60) {
		t.Errorf("Project(90) at 40px/h = %v, want 60", got)
	}
	s.SetScale(60)
	if got := s.Project(10*60 + 15); !approx(got, 615) {
		t.Errorf("Project(10:15) at 60px/h = %v, want 615", got)
	}
}

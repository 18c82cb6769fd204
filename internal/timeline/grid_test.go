package timeline

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestFormatHour(t *testing.T) {
	tests := map[int]string{
		0:  "12 AM",
		1:  "1 AM",
		11: "11 AM",
		12: "12 PM",
		13: "1 PM",
		23: "11 PM",
		24: "12 AM",
		-1: "11 PM",
	}
	for hour, want := range tests {
		if got := FormatHour(hour); got != want {
			t.Errorf("FormatHour(%d) = %q, want %q", hour, got, want)
		}
	}
}

func TestGridGeometry(t *testing.T) {
	s := NewScaleModel(DefaultBounds())
	g := GetGridGeometry(s)

	if len(g.Labels) != HoursPerDay || len(g.Gridlines) != HoursPerDay {
		t.Fatalf("expected 24 labels and gridlines, got %d/%d", len(g.Labels), len(g.Gridlines))
	}
	if g.TotalHeight != 960 {
		t.Errorf("expected total height 960, got %v", g.TotalHeight)
	}
	if g.Labels[10].Y != 400 || g.Labels[10].Text != "10 AM" {
		t.Errorf("unexpected label for hour 10: %+v", g.Labels[10])
	}
	if g.Gridlines[10].Y != 420 {
		t.Errorf("expected gridline at 420, got %v", g.Gridlines[10].Y)
	}
}

func TestGridLabelsMonotonic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("labels and gridlines strictly increase", prop.ForAll(
		func(target float64) bool {
			s := NewScaleModel(DefaultBounds())
			s.SetScale(target)
			g := GetGridGeometry(s)
			for h := 1; h < HoursPerDay; h++ {
				if g.Labels[h].Y <= g.Labels[h-1].Y {
					return false
				}
				if g.Gridlines[h].Y <= g.Gridlines[h-1].Y {
					return false
				}
			}
			return g.Labels[HoursPerDay-1].Y < g.TotalHeight
		},
		gen.Float64Range(0, 200),
	))

	properties.TestingRun(t)
}

func TestCurrentTimeMarker(t *testing.T) {
	loc := time.UTC
	day := time.Date(2024, 3, 14, 0, 0, 0, 0, loc)
	now := time.Date(2024, 3, 14, 14, 30, 45, 0, loc)

	s := NewScaleModel(DefaultBounds())
	m := CurrentTimeMarker(s, day, now, loc)
	if !m.Visible {
		t.Fatal("marker should be visible on the same day")
	}
	if m.HourBucket != 14 || m.Minute != 30 {
		t.Errorf("unexpected bucket %d minute %d", m.HourBucket, m.Minute)
	}
	if m.Offset != 20 {
		t.Errorf("expected offset 20 at 40px/h, got %v", m.Offset)
	}
	if m.Y != 580 {
		t.Errorf("expected y 580, got %v", m.Y)
	}

	other := CurrentTimeMarker(s, day.AddDate(0, 0, 1), now, loc)
	if other.Visible {
		t.Error("marker should be hidden on another day")
	}
}

func TestSameDayUsesLocation(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("timezone data unavailable")
	}
	// 02:00 UTC on the 15th is still the 14th in New York.
	a := time.Date(2024, 3, 15, 2, 0, 0, 0, time.UTC)
	b := time.Date(2024, 3, 14, 12, 0, 0, 0, ny)
	if !SameDay(a, b, ny) {
		t.Error("expected same day in New York")
	}
	if SameDay(a, b, time.UTC) {
		t.Error("expected different days in UTC")
	}
}

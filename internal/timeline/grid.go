package timeline

import (
	"strconv"
	"time"
)

// Label is an hour label on the time axis.
type Label struct {
	Hour int     `json:"hour"`
	Y    float64 `json:"y"`
	Text string  `json:"text"`
}

// Gridline is a horizontal rule drawn through the middle of an hour band.
type Gridline struct {
	Hour int     `json:"hour"`
	Y    float64 `json:"y"`
}

// GridGeometry is the static part of the day grid at one scale.
type GridGeometry struct {
	PixelsPerHour float64    `json:"pixels_per_hour"`
	TotalHeight   float64    `json:"total_height"`
	Labels        []Label    `json:"labels"`
	Gridlines     []Gridline `json:"gridlines"`
}

// GetGridGeometry lays out the 24 hour labels and gridlines. Labels sit at
// the top of their band; gridlines run through the middle of it.
func GetGridGeometry(scale *ScaleModel) GridGeometry {
	return gridAt(scale.PixelsPerHour())
}

func gridAt(pph float64) GridGeometry {
	g := GridGeometry{
		PixelsPerHour: pph,
		TotalHeight:   HoursPerDay * pph,
		Labels:        make([]Label, 0, HoursPerDay),
		Gridlines:     make([]Gridline, 0, HoursPerDay),
	}
	for hour := 0; hour < HoursPerDay; hour++ {
		top := float64(hour) * pph
		g.Labels = append(g.Labels, Label{Hour: hour, Y: top, Text: FormatHour(hour)})
		g.Gridlines = append(g.Gridlines, Gridline{Hour: hour, Y: top + pph/2})
	}
	return g
}

// FormatHour renders an hour of the day on a 12-hour clock: "12 AM",
// "1 AM", ..., "12 PM", "1 PM", ...
func FormatHour(hour int) string {
	hour = ((hour % HoursPerDay) + HoursPerDay) % HoursPerDay
	suffix := " AM"
	if hour >= 12 {
		suffix = " PM"
	}
	h := hour % 12
	if h == 0 {
		h = 12
	}
	return strconv.Itoa(h) + suffix
}

// TimeMarker is the "now" indicator.
type TimeMarker struct {
	Visible    bool    `json:"visible"`
	HourBucket int     `json:"hour_bucket"`
	Minute     int     `json:"minute"`
	Offset     float64 `json:"offset"`
	Y          float64 `json:"y"`
}

// CurrentTimeMarker positions the "now" indicator inside its hour band. It
// is only visible when day and now fall on the same date in loc. A nil loc
// means time.Local.
func CurrentTimeMarker(scale *ScaleModel, day, now time.Time, loc *time.Location) TimeMarker {
	return markerAt(scale.PixelsPerHour(), day, now, loc)
}

func markerAt(pph float64, day, now time.Time, loc *time.Location) TimeMarker {
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)
	m := TimeMarker{
		Visible:    SameDay(day, now, loc),
		HourBucket: now.Hour(),
		Minute:     now.Minute(),
	}
	m.Offset = float64(m.Minute) / 60 * pph
	m.Y = float64(m.HourBucket)*pph + m.Offset
	return m
}

// SameDay reports whether a and b share a calendar date in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

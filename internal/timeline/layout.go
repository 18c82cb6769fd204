package timeline

import (
	"math"
	"time"
)

const (
	// MinDurationHours keeps short items from collapsing into slivers.
	MinDurationHours = 0.5
	// MaxDurationHours keeps one item from covering the whole day.
	MaxDurationHours = 8.0
	// DefaultDurationHours is used when an item has no usable end.
	DefaultDurationHours = 1.0
	// HeightFactor shrinks rendered heights so stacked bands stay apart.
	HeightFactor = 0.85
)

// Source is a task or event as handed over by the task store: already
// filtered to one calendar day, with an optional start and an optional end
// (the deadline).
type Source struct {
	ID      string     `json:"id"`
	Content string     `json:"content"`
	Start   *time.Time `json:"start,omitempty"`
	End     *time.Time `json:"end,omitempty"`
	// Target is where opening the item should navigate to.
	Target string `json:"target,omitempty"`
	// Origin names the feed the item came from.
	Origin string `json:"origin,omitempty"`
}

// Item is a Source projected onto the day: where it starts and how long it
// runs.
type Item struct {
	ID               string  `json:"id"`
	Label            string  `json:"label"`
	StartMinuteOfDay int     `json:"start_minute_of_day"`
	DurationMinutes  float64 `json:"duration_minutes"`
	DeadlineOnly     bool    `json:"deadline_only"`
	Target           string  `json:"target,omitempty"`
}

// HourBucket is the hour band the item is drawn in.
func (i Item) HourBucket() int {
	return i.StartMinuteOfDay / 60
}

// MinuteOffset is the minute within the hour band.
func (i Item) MinuteOffset() int {
	return i.StartMinuteOfDay % 60
}

// ItemGeometry is an item's pixel geometry. Top is relative to the top of
// its hour band; Y is the absolute content coordinate.
type ItemGeometry struct {
	ItemID        string  `json:"item_id"`
	Label         string  `json:"label"`
	HourBucket    int     `json:"hour_bucket"`
	MinuteOffset  int     `json:"minute_offset"`
	DurationHours float64 `json:"duration_hours"`
	Top           float64 `json:"top"`
	Height        float64 `json:"height"`
	Y             float64 `json:"y"`
	DeadlineOnly  bool    `json:"deadline_only"`
}

// Project places a source on the day in loc. With both a start and an end
// the duration is the span clamped to [0.5h, 8h]; with only a start, or only
// a deadline, it is one hour. Sources with neither are unscheduled and
// return false. A nil loc means time.Local.
func Project(src Source, loc *time.Location) (Item, bool) {
	if loc == nil {
		loc = time.Local
	}

	var anchor time.Time
	duration := DefaultDurationHours
	deadlineOnly := false

	switch {
	case src.Start != nil:
		anchor = *src.Start
		if src.End != nil {
			duration = ClampDuration(src.End.Sub(*src.Start).Hours())
		}
	case src.End != nil:
		anchor = *src.End
		deadlineOnly = true
	default:
		return Item{}, false
	}

	anchor = anchor.In(loc)
	return Item{
		ID:               src.ID,
		Label:            src.Content,
		StartMinuteOfDay: anchor.Hour()*60 + anchor.Minute(),
		DurationMinutes:  duration * 60,
		DeadlineOnly:     deadlineOnly,
		Target:           src.Target,
	}, true
}

// ClampDuration applies the [0.5h, 8h] duration policy.
func ClampDuration(hours float64) float64 {
	if math.IsNaN(hours) {
		return MinDurationHours
	}
	return clamp(hours, MinDurationHours, MaxDurationHours)
}

// Partition splits sources into grid items and the unscheduled rest,
// keeping input order.
func Partition(sources []Source, loc *time.Location) (scheduled []Item, unscheduled []Source) {
	scheduled = make([]Item, 0, len(sources))
	for _, src := range sources {
		item, ok := Project(src, loc)
		if !ok {
			unscheduled = append(unscheduled, src)
			continue
		}
		scheduled = append(scheduled, item)
	}
	return scheduled, unscheduled
}

// GetLayout computes pixel geometry for items at the current scale. Items
// with no id or a start outside the day are skipped. Items sharing an hour
// keep their input order; overlaps are not resolved.
func GetLayout(items []Item, scale *ScaleModel) []ItemGeometry {
	return layoutAt(items, scale.PixelsPerHour())
}

func layoutAt(items []Item, pph float64) []ItemGeometry {
	out := make([]ItemGeometry, 0, len(items))
	for _, item := range items {
		if item.ID == "" || item.StartMinuteOfDay < 0 || item.StartMinuteOfDay >= MinutesPerDay {
			continue
		}
		durationHours := item.DurationMinutes / 60
		if durationHours <= 0 || isBad(durationHours) {
			durationHours = DefaultDurationHours
		}

		minute := item.MinuteOffset()
		top := float64(minute) / 60 * pph
		hour := item.HourBucket()
		out = append(out, ItemGeometry{
			ItemID:        item.ID,
			Label:         item.Label,
			HourBucket:    hour,
			MinuteOffset:  minute,
			DurationHours: durationHours,
			Top:           top,
			Height:        durationHours * pph * HeightFactor,
			Y:             float64(hour)*pph + top,
			DeadlineOnly:  item.DeadlineOnly,
		})
	}
	return out
}

// GroupByHour buckets geometry by hour band, preserving order.
func GroupByHour(geoms []ItemGeometry) [HoursPerDay][]ItemGeometry {
	var bands [HoursPerDay][]ItemGeometry
	for _, g := range geoms {
		if g.HourBucket < 0 || g.HourBucket >= HoursPerDay {
			continue
		}
		bands[g.HourBucket] = append(bands[g.HourBucket], g)
	}
	return bands
}

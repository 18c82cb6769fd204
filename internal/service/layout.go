package service

import (
	"time"

	"github.com/cleberrangel/clickup-timeline-api/internal/model"
	"github.com/cleberrangel/clickup-timeline-api/internal/timeline"
)

// BuildDayLayout monta o layout de um dia resolvido na escala de snap.
func BuildDayLayout(day *model.DayItems, snap timeline.Snapshot, now time.Time, loc *time.Location) *model.DayLayout {
	if loc == nil {
		loc = time.Local
	}
	unscheduled := day.Unscheduled
	if unscheduled == nil {
		unscheduled = []model.DayItem{}
	}
	return &model.DayLayout{
		Date:        day.Date.Format(DateLayout),
		Timezone:    loc.String(),
		Grid:        snap.Grid(),
		Items:       snap.Layout(day.Items),
		Unscheduled: unscheduled,
		Marker:      snap.Marker(day.Date, now, loc),
	}
}

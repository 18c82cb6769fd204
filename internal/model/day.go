package model

import (
	"time"

	"github.com/cleberrangel/clickup-timeline-api/internal/timeline"
)

// Origens de itens
const (
	SourceClickUp = "clickup"
	SourceICS     = "ics"
)

// DayItem é uma tarefa ou evento candidato a aparecer na grade de um dia.
// Start e End são opcionais; End funciona como prazo quando Start falta.
type DayItem struct {
	ID      string     `json:"id"`
	Content string     `json:"content"`
	Start   *time.Time `json:"start,omitempty"`
	End     *time.Time `json:"end,omitempty"`
	URL     string     `json:"url,omitempty"`
	Source  string     `json:"source"`
	AllDay  bool       `json:"all_day,omitempty"`
}

// Anchor is the time that decides which day the item belongs to: the start,
// or the deadline when there is no start.
func (d DayItem) Anchor() (time.Time, bool) {
	switch {
	case d.Start != nil:
		return *d.Start, true
	case d.End != nil:
		return *d.End, true
	default:
		return time.Time{}, false
	}
}

// TimelineSource converts the item for the layout projector. All-day items
// carry no time of day and are handed over without start or end.
func (d DayItem) TimelineSource() timeline.Source {
	src := timeline.Source{
		ID:      d.ID,
		Content: d.Content,
		Target:  d.URL,
		Origin:  d.Source,
	}
	if !d.AllDay {
		src.Start = d.Start
		src.End = d.End
	}
	return src
}

// DayItems is the result of resolving one calendar day.
type DayItems struct {
	Date        time.Time       `json:"date"`
	Items       []timeline.Item `json:"items"`
	Unscheduled []DayItem       `json:"unscheduled"`
	// Stale is set when a refresh failed and a previous result was served.
	Stale     bool      `json:"stale,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}

package ics

import (
	"time"

	"github.com/teambition/rrule-go"

	"github.com/cleberrangel/clickup-timeline-api/internal/logger"
	"github.com/cleberrangel/clickup-timeline-api/internal/model"
)

// maxOccurrencesPerDay guards against rules like FREQ=SECONDLY.
const maxOccurrencesPerDay = 500

// ExpandDay returns the occurrences of events that start on day in loc.
// Timed occurrences keep their start and end. All-day occurrences are
// returned with AllDay set and belong to every date they cover. A nil loc
// means time.Local.
func ExpandDay(events []Event, day time.Time, loc *time.Location) []model.DayItem {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := day.In(loc).Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	// Instances replaced by a RECURRENCE-ID override are dropped from the
	// base series; the override is expanded on its own.
	overridden := make(map[string][]time.Time)
	for _, ev := range events {
		if ev.RecurrenceID != nil {
			overridden[ev.UID] = append(overridden[ev.UID], *ev.RecurrenceID)
		}
	}

	var out []model.DayItem
	for _, ev := range events {
		if ev.RawRRule == "" || ev.RecurrenceID != nil {
			if item, ok := single(ev, ev.UID, ev.Start, dayStart, dayEnd, loc); ok {
				out = append(out, item)
			}
			continue
		}
		out = append(out, recurring(ev, overridden[ev.UID], dayStart, loc)...)
	}
	return out
}

func recurring(ev Event, overridden []time.Time, dayStart time.Time, loc *time.Location) []model.DayItem {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		logger.Global().Warn().Err(err).Str("uid", ev.UID).Str("rrule", ev.RawRRule).Msg("RRULE inválida")
		return nil
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	// Search in the event's own zone; an all-day series is anchored to dates,
	// not instants.
	evLoc := ev.Start.Location()
	from := dayStart
	if ev.AllDay {
		from = time.Date(dayStart.Year(), dayStart.Month(), dayStart.Day(), 0, 0, 0, 0, evLoc)
	}
	// Reach back far enough to catch an all-day span that began earlier.
	searchFrom := from
	if ev.AllDay && ev.End != nil {
		searchFrom = from.Add(-ev.End.Sub(ev.Start))
	}
	to := from.AddDate(0, 0, 1).Add(-time.Nanosecond)

	var out []model.DayItem
	for i, occ := range set.Between(searchFrom.In(evLoc), to.In(evLoc), true) {
		if i >= maxOccurrencesPerDay {
			logger.Global().Warn().Str("uid", ev.UID).Int("cap", maxOccurrencesPerDay).Msg("Ocorrências truncadas")
			break
		}
		if isOverridden(occ, overridden) {
			continue
		}
		inst := ev
		inst.Start = occ
		if ev.End != nil {
			end := occ.Add(ev.End.Sub(ev.Start))
			inst.End = &end
		}
		id := ev.UID + "/" + occ.UTC().Format("20060102T150405Z")
		if item, ok := single(inst, id, occ, dayStart, dayStart.AddDate(0, 0, 1), loc); ok {
			out = append(out, item)
		}
	}
	return out
}

func isOverridden(occ time.Time, overridden []time.Time) bool {
	for _, rid := range overridden {
		if rid.Equal(occ) {
			return true
		}
	}
	return false
}

// single returns ev as an item of [dayStart, dayEnd) if it belongs there.
func single(ev Event, id string, start, dayStart, dayEnd time.Time, loc *time.Location) (model.DayItem, bool) {
	item := model.DayItem{
		ID:      id,
		Content: ev.Summary,
		URL:     ev.URL,
		Source:  model.SourceICS,
		AllDay:  ev.AllDay,
	}

	if ev.AllDay {
		if !coversDate(ev, dayStart) {
			return item, false
		}
		s := start
		item.Start = &s
		item.End = ev.End
		return item, true
	}

	local := start.In(loc)
	if local.Before(dayStart) || !local.Before(dayEnd) {
		return item, false
	}
	item.Start = &local
	if ev.End != nil {
		end := ev.End.In(loc)
		item.End = &end
	}
	return item, true
}

// coversDate compares calendar dates only: an all-day event on March 14
// belongs to March 14 in every zone. DTEND is exclusive.
func coversDate(ev Event, day time.Time) bool {
	target := dateOf(day)
	first := dateOf(ev.Start)
	last := first
	if ev.End != nil {
		if end := dateOf(*ev.End).AddDate(0, 0, -1); end.After(first) {
			last = end
		}
	}
	return !target.Before(first) && !target.After(last)
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

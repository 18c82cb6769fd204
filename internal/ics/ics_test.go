package ics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cleberrangel/clickup-timeline-api/internal/model"
)

const sampleCalendar = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//timeline//test//EN
BEGIN:VEVENT
UID:standup
DTSTAMP:20240301T000000Z
DTSTART:20240314T101500Z
DTEND:20240314T111500Z
SUMMARY:Standup
URL:https://calendar.example.com/standup
END:VEVENT
BEGIN:VEVENT
UID:holiday
DTSTAMP:20240301T000000Z
DTSTART;VALUE=DATE:20240314
DTEND;VALUE=DATE:20240315
SUMMARY:Holiday
END:VEVENT
BEGIN:VEVENT
UID:daily
DTSTAMP:20240301T000000Z
DTSTART:20240310T090000Z
DTEND:20240310T093000Z
RRULE:FREQ=DAILY;COUNT=10
EXDATE:20240313T090000Z
SUMMARY:Daily sync
END:VEVENT
BEGIN:VEVENT
UID:daily
DTSTAMP:20240301T000000Z
RECURRENCE-ID:20240314T090000Z
DTSTART:20240314T140000Z
DTEND:20240314T143000Z
SUMMARY:Daily sync (moved)
END:VEVENT
BEGIN:VEVENT
UID:tomorrow
DTSTAMP:20240301T000000Z
DTSTART:20240315T100000Z
SUMMARY:Tomorrow
END:VEVENT
END:VCALENDAR
`

func crlf(s string) []byte {
	return []byte(strings.ReplaceAll(s, "\n", "\r\n"))
}

func parseSample(t *testing.T) []Event {
	t.Helper()
	events, err := Parse(crlf(sampleCalendar))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return events
}

func byID(items []model.DayItem) map[string]model.DayItem {
	out := make(map[string]model.DayItem, len(items))
	for _, it := range items {
		out[it.ID] = it
	}
	return out
}

func TestParse(t *testing.T) {
	events := parseSample(t)
	if len(events) != 5 {
		t.Fatalf("expected 5 events, got %d", len(events))
	}

	standup := events[0]
	if standup.Summary != "Standup" || standup.URL != "https://calendar.example.com/standup" {
		t.Errorf("unexpected standup %+v", standup)
	}
	if standup.AllDay || standup.End == nil || standup.End.Sub(standup.Start) != time.Hour {
		t.Errorf("unexpected standup times %+v", standup)
	}

	if !events[1].AllDay {
		t.Error("holiday should be all-day")
	}
	if events[2].RawRRule == "" || len(events[2].ExDates) != 1 {
		t.Errorf("unexpected recurrence data %+v", events[2])
	}
	if events[3].RecurrenceID == nil {
		t.Error("override should carry RECURRENCE-ID")
	}
	if events[4].End != nil {
		t.Error("event without DTEND should have no end")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse(nil); !errors.Is(err, model.ErrInvalidCalendar) {
		t.Errorf("expected ErrInvalidCalendar for empty body, got %v", err)
	}
}

func TestExpandDay(t *testing.T) {
	events := parseSample(t)
	day := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)

	items := byID(ExpandDay(events, day, time.UTC))
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d: %+v", len(items), items)
	}

	standup, ok := items["standup"]
	if !ok || standup.Start.Hour() != 10 || standup.Start.Minute() != 15 {
		t.Errorf("unexpected standup %+v", standup)
	}
	if standup.Source != model.SourceICS {
		t.Errorf("expected ics source, got %q", standup.Source)
	}

	holiday, ok := items["holiday"]
	if !ok || !holiday.AllDay {
		t.Errorf("expected all-day holiday, got %+v", holiday)
	}

	moved, ok := items["daily"]
	if !ok || moved.Content != "Daily sync (moved)" || moved.Start.Hour() != 14 {
		t.Errorf("expected override to replace the 09:00 instance, got %+v", moved)
	}
	if _, ok := items["daily/20240314T090000Z"]; ok {
		t.Error("overridden instance should be dropped")
	}
}

func TestExpandDayRecurrence(t *testing.T) {
	events := parseSample(t)

	day12 := byID(ExpandDay(events, time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC), time.UTC))
	inst, ok := day12["daily/20240312T090000Z"]
	if !ok {
		t.Fatalf("expected daily instance on the 12th, got %+v", day12)
	}
	if inst.End == nil || inst.End.Sub(*inst.Start) != 30*time.Minute {
		t.Errorf("instance should keep the 30 minute duration, got %+v", inst)
	}

	day13 := ExpandDay(events, time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC), time.UTC)
	if len(day13) != 0 {
		t.Errorf("EXDATE should remove the 13th, got %+v", day13)
	}

	day25 := ExpandDay(events, time.Date(2024, 3, 25, 0, 0, 0, 0, time.UTC), time.UTC)
	if len(day25) != 0 {
		t.Errorf("COUNT should end the series, got %+v", day25)
	}
}

func TestExpandDayUsesLocation(t *testing.T) {
	events := parseSample(t)
	tokyo := time.FixedZone("JST", 9*3600)

	// 10:00Z on the 15th is 19:00 on the 15th in Tokyo; 10:15Z on the 14th is
	// 19:15 on the 14th.
	items := byID(ExpandDay(events, time.Date(2024, 3, 14, 12, 0, 0, 0, tokyo), tokyo))
	if s, ok := items["standup"]; !ok || s.Start.Hour() != 19 {
		t.Errorf("expected standup at 19:15 JST, got %+v", s)
	}
	if _, ok := items["tomorrow"]; ok {
		t.Error("event on the 15th should not appear on the 14th")
	}
}

func TestFetchUsesETag(t *testing.T) {
	var calls, conditional int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			atomic.AddInt32(&conditional, 1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Write(crlf(sampleCalendar))
	}))
	defer srv.Close()

	f := NewFetcher()
	first, err := f.Fetch(context.Background(), srv.URL+"/cal.ics")
	if err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}
	second, err := f.Fetch(context.Background(), srv.URL+"/cal.ics")
	if err != nil {
		t.Fatalf("second fetch failed: %v", err)
	}
	if string(first) != string(second) {
		t.Error("304 should return the cached body")
	}
	if calls != 2 || conditional != 1 {
		t.Errorf("expected one conditional request, got calls=%d conditional=%d", calls, conditional)
	}
}

func TestFetchFallsBackToCacheOnError(t *testing.T) {
	var fail int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.LoadInt32(&fail) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write(crlf(sampleCalendar))
	}))
	defer srv.Close()

	f := NewFetcher()
	if _, err := f.Fetch(context.Background(), srv.URL); err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}
	atomic.StoreInt32(&fail, 1)
	body, err := f.Fetch(context.Background(), srv.URL)
	if err != nil || len(body) == 0 {
		t.Errorf("expected cached body on server error, got %v", err)
	}

	if _, err := NewFetcher().Fetch(context.Background(), srv.URL); err == nil {
		t.Error("expected error without a cached body")
	}
}

func TestRedactURL(t *testing.T) {
	got := redactURL("https://calendar.example.com/private/abc.ics?token=secret")
	if got != "https://calendar.example.com/...(redacted)" {
		t.Errorf("unexpected redaction %q", got)
	}
	if redactURL("not a url") != "ics://...(redacted)" {
		t.Error("unexpected redaction for bad url")
	}
}

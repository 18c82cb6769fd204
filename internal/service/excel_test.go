package service

import (
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/cleberrangel/clickup-timeline-api/internal/model"
	"github.com/cleberrangel/clickup-timeline-api/internal/timeline"
)

func TestParseEpochMs(t *testing.T) {
	e := NewExtractor(time.UTC)

	for _, empty := range []string{"", " ", "null"} {
		got, err := e.ParseEpochMs(empty)
		if got != nil || err != nil {
			t.Errorf("ParseEpochMs(%q) = %v, %v; want nil, nil", empty, got, err)
		}
	}

	got, err := e.ParseEpochMs("1710411300000")
	if err != nil || got == nil || !got.Equal(testDay.Add(10*time.Hour+15*time.Minute)) {
		t.Errorf("unexpected parse %v %v", got, err)
	}

	if _, err := e.ParseEpochMs("abc"); !errors.Is(err, model.ErrInvalidResponse) {
		t.Errorf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestExtractorDayItem(t *testing.T) {
	sp := time.FixedZone("BRT", -3*3600)
	e := NewExtractor(sp)

	item, err := e.DayItem(model.Task{
		ID:      "x1",
		Name:    "Deploy",
		DueDate: "1710411300000",
		URL:     "https://app.clickup.com/t/x1",
	})
	if err != nil {
		t.Fatal(err)
	}
	if item.Start != nil || item.End == nil || item.End.Hour() != 7 {
		t.Errorf("expected deadline at 07:15 BRT, got %+v", item)
	}
	if item.Source != model.SourceClickUp || item.URL == "" {
		t.Errorf("unexpected item %+v", item)
	}
	if e.FormatClock(item.End) != "07:15" || e.FormatDate(item.End) != "14/03/2024" {
		t.Errorf("unexpected formatting %q %q", e.FormatClock(item.End), e.FormatDate(item.End))
	}

	if _, err := e.DayItem(model.Task{ID: "x2", StartDate: "oops"}); err == nil {
		t.Error("expected error for unreadable start date")
	}
}

func TestExportDay(t *testing.T) {
	start := testDay.Add(10*time.Hour + 15*time.Minute)
	end := start.Add(2 * time.Hour)
	day := &model.DayItems{
		Date: testDay,
		Items: []timeline.Item{
			{ID: "a", Label: "Write report", StartMinuteOfDay: 615, DurationMinutes: 120},
		},
		Unscheduled: []model.DayItem{
			{ID: "holiday", Content: "Holiday", Start: &start, End: &end, Source: model.SourceICS, AllDay: true},
		},
	}
	layout := BuildDayLayout(day, timeline.SnapshotAt(timeline.DefaultBounds(), 40), testDay.Add(14*time.Hour), time.UTC)

	buf, err := NewExcelGenerator(NewExtractor(time.UTC)).ExportDay(layout)
	if err != nil {
		t.Fatalf("ExportDay failed: %v", err)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("generated file unreadable: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != timelineSheet || sheets[1] != unscheduledSheet {
		t.Fatalf("unexpected sheets %v", sheets)
	}

	cells := map[string]string{
		"A1":  "Hora",
		"B2":  "12 AM",
		"B12": "10 AM",
		"C12": "400",
		"D12": "420",
		"A27": "Item",
		"A28": "a",
		"C28": "10 AM",
		"D28": "15",
		"E28": "10",
		"F28": "68",
	}
	for cell, want := range cells {
		got, err := f.GetCellValue(timelineSheet, cell)
		if err != nil || got != want {
			t.Errorf("%s = %q (%v), want %q", cell, got, err, want)
		}
	}

	if got, _ := f.GetCellValue(unscheduledSheet, "A2"); got != "holiday" {
		t.Errorf("unscheduled A2 = %q", got)
	}
	if got, _ := f.GetCellValue(unscheduledSheet, "D2"); got != "14/03/2024" {
		t.Errorf("unscheduled D2 = %q", got)
	}
}

func TestBuildDayLayout(t *testing.T) {
	day := &model.DayItems{
		Date:  testDay,
		Items: []timeline.Item{{ID: "a", Label: "A", StartMinuteOfDay: 615, DurationMinutes: 60}},
	}
	layout := BuildDayLayout(day, timeline.SnapshotAt(timeline.DefaultBounds(), 60), testDay.Add(14*time.Hour+30*time.Minute), time.UTC)

	if layout.Date != "2024-03-14" || layout.Timezone != "UTC" {
		t.Errorf("unexpected header %q %q", layout.Date, layout.Timezone)
	}
	if layout.Grid.PixelsPerHour != 60 || len(layout.Items) != 1 || layout.Items[0].Y != 615 {
		t.Errorf("unexpected geometry %+v", layout.Items)
	}
	if !layout.Marker.Visible || layout.Marker.Y != 870 {
		t.Errorf("unexpected marker %+v", layout.Marker)
	}
	if layout.Unscheduled == nil {
		t.Error("unscheduled should encode as an empty list")
	}
}

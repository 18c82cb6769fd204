package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cleberrangel/clickup-timeline-api/internal/model"
	"github.com/cleberrangel/clickup-timeline-api/internal/timeline"
)

const labelWidth = 6

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Border(lipgloss.RoundedBorder()).Padding(0, 2)
	labelStyle  = lipgloss.NewStyle().Faint(true).Width(labelWidth).Align(lipgloss.Right)
	gridStyle   = lipgloss.NewStyle().Faint(true)
	itemStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#366092"))
	bodyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#366092"))
	markerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E5484D"))
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

// renderDay draws the day one text row per rowPx grid pixels: hour labels
// at the top of their band, a faint gridline through the middle, items
// spanning their height and the now marker.
func renderDay(layout *model.DayLayout, rowPx float64, width int) string {
	if rowPx <= 0 {
		rowPx = 10
	}
	if width < 10 {
		width = 10
	}
	grid := layout.Grid
	rows := int(math.Ceil(grid.TotalHeight / rowPx))

	labels := make(map[int]string, len(grid.Labels))
	for _, l := range grid.Labels {
		labels[rowOf(l.Y, rowPx)] = l.Text
	}
	gridlines := make(map[int]bool, len(grid.Gridlines))
	for _, g := range grid.Gridlines {
		gridlines[rowOf(g.Y, rowPx)] = true
	}

	// Sem empacotamento de sobreposições: itens que dividem uma linha são
	// concatenados.
	heads := make(map[int][]string)
	bodies := make(map[int]int)
	for _, item := range layout.Items {
		first := rowOf(item.Y, rowPx)
		last := rowOf(item.Y+item.Height-1e-9, rowPx)
		if last < first {
			last = first
		}
		heads[first] = append(heads[first], itemText(item))
		for r := first + 1; r <= last; r++ {
			bodies[r]++
		}
	}

	markerRow := -1
	if layout.Marker.Visible {
		markerRow = rowOf(layout.Marker.Y, rowPx)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s  %s  %.0f px/h", layout.Date, layout.Timezone, grid.PixelsPerHour)))
	b.WriteString("\n")

	for r := 0; r < rows; r++ {
		b.WriteString(labelStyle.Render(labels[r]))
		b.WriteString(" ")
		b.WriteString(rowBody(r, markerRow, layout.Marker, heads[r], bodies[r], gridlines[r], width))
		b.WriteString("\n")
	}

	if len(layout.Unscheduled) > 0 {
		b.WriteString("\n")
		b.WriteString(headerStyle.Render("Sem horário"))
		b.WriteString("\n")
		for _, item := range layout.Unscheduled {
			b.WriteString(fmt.Sprintf("  • %s", truncate(item.Content, width)))
			if item.Source != "" {
				b.WriteString(gridStyle.Render(" (" + item.Source + ")"))
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

func rowBody(r, markerRow int, marker timeline.TimeMarker, heads []string, bodies int, gridline bool, width int) string {
	switch {
	case r == markerRow:
		text := fmt.Sprintf("── agora %02d:%02d ", marker.HourBucket, marker.Minute)
		if len(heads) > 0 {
			text += strings.Join(heads, " | ")
		}
		return markerStyle.Render(pad(text, width))
	case len(heads) > 0:
		return itemStyle.Render(pad(strings.Join(heads, " | "), width))
	case bodies > 0:
		return bodyStyle.Render(strings.Repeat("│ ", bodies))
	case gridline:
		return gridStyle.Render(strings.Repeat("┈", width))
	default:
		return ""
	}
}

func itemText(g timeline.ItemGeometry) string {
	text := fmt.Sprintf("%02d:%02d %s", g.HourBucket, g.MinuteOffset, g.Label)
	if g.DeadlineOnly {
		text += " ⚑"
	}
	return text
}

func rowOf(y, rowPx float64) int {
	return int(math.Floor(y / rowPx))
}

func pad(s string, width int) string {
	s = truncate(s, width)
	if n := len([]rune(s)); n < width {
		s += strings.Repeat(" ", width-n)
	}
	return s
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}

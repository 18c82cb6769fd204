package service

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/cleberrangel/clickup-timeline-api/internal/model"
	"github.com/cleberrangel/clickup-timeline-api/internal/timeline"
)

const (
	timelineSheet    = "Timeline"
	unscheduledSheet = "Unscheduled"
)

var (
	gridHeaders        = []string{"Hora", "Rótulo", "Y", "Linha Y"}
	itemHeaders        = []string{"Item", "Título", "Hora", "Minuto", "Topo", "Altura", "Duração (h)", "Y", "Só prazo"}
	unscheduledHeaders = []string{"Item", "Título", "Origem", "Data", "Link"}
)

// ExcelGenerator gera a planilha de um dia
type ExcelGenerator struct {
	extractor *Extractor
}

// NewExcelGenerator cria um novo gerador de Excel
func NewExcelGenerator(extractor *Extractor) *ExcelGenerator {
	if extractor == nil {
		extractor = NewExtractor(nil)
	}
	return &ExcelGenerator{extractor: extractor}
}

type sheetStyles struct {
	header, odd, even int
}

// ExportDay gera um arquivo Excel com a grade do dia, a geometria dos itens
// e os itens sem horário.
func (g *ExcelGenerator) ExportDay(layout *model.DayLayout) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	// Renomeia a sheet padrão
	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, timelineSheet); err != nil {
		return nil, fmt.Errorf("renomear sheet: %w", err)
	}
	if _, err := f.NewSheet(unscheduledSheet); err != nil {
		return nil, fmt.Errorf("criar sheet: %w", err)
	}

	styles, err := g.newStyles(f)
	if err != nil {
		return nil, fmt.Errorf("criar estilos: %w", err)
	}

	// Grade: uma linha por hora
	if err := g.writeHeaders(f, timelineSheet, 1, gridHeaders, styles.header); err != nil {
		return nil, fmt.Errorf("escrever headers: %w", err)
	}
	for i, label := range layout.Grid.Labels {
		gridY := 0.0
		if i < len(layout.Grid.Gridlines) {
			gridY = layout.Grid.Gridlines[i].Y
		}
		row := []interface{}{label.Hour, label.Text, label.Y, gridY}
		if err := g.writeRow(f, timelineSheet, i+2, row, styles.rowStyle(i)); err != nil {
			return nil, fmt.Errorf("escrever grade: %w", err)
		}
	}

	// Itens logo abaixo da grade, separados por uma linha em branco
	itemsStart := len(layout.Grid.Labels) + 3
	if err := g.writeHeaders(f, timelineSheet, itemsStart, itemHeaders, styles.header); err != nil {
		return nil, fmt.Errorf("escrever headers: %w", err)
	}
	for i, geom := range layout.Items {
		row := []interface{}{
			geom.ItemID,
			geom.Label,
			timeline.FormatHour(geom.HourBucket),
			geom.MinuteOffset,
			geom.Top,
			geom.Height,
			geom.DurationHours,
			geom.Y,
			yesNo(geom.DeadlineOnly),
		}
		if err := g.writeRow(f, timelineSheet, itemsStart+1+i, row, styles.rowStyle(i)); err != nil {
			return nil, fmt.Errorf("escrever itens: %w", err)
		}
	}

	if err := g.writeHeaders(f, unscheduledSheet, 1, unscheduledHeaders, styles.header); err != nil {
		return nil, fmt.Errorf("escrever headers: %w", err)
	}
	for i, item := range layout.Unscheduled {
		anchor := item.Start
		if anchor == nil {
			anchor = item.End
		}
		row := []interface{}{item.ID, item.Content, item.Source, g.extractor.FormatDate(anchor), item.URL}
		if err := g.writeRow(f, unscheduledSheet, i+2, row, styles.rowStyle(i)); err != nil {
			return nil, fmt.Errorf("escrever sem horário: %w", err)
		}
	}

	if err := g.autoFitColumns(f, timelineSheet, len(itemHeaders)); err != nil {
		return nil, fmt.Errorf("ajustar colunas: %w", err)
	}
	if err := g.autoFitColumns(f, unscheduledSheet, len(unscheduledHeaders)); err != nil {
		return nil, fmt.Errorf("ajustar colunas: %w", err)
	}

	// Escreve para buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("escrever buffer: %w", err)
	}

	return buf, nil
}

func yesNo(b bool) string {
	if b {
		return "Sim"
	}
	return "Não"
}

func (s sheetStyles) rowStyle(i int) int {
	if i%2 == 1 {
		return s.odd
	}
	return s.even
}

func (g *ExcelGenerator) newStyles(f *excelize.File) (sheetStyles, error) {
	var s sheetStyles
	var err error

	// Estilo do cabeçalho
	s.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:  true,
			Size:  11,
			Color: "FFFFFF",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"4472C4"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: borders("000000"),
	})
	if err != nil {
		return s, err
	}

	// Estilo alternado para linhas
	s.odd, err = f.NewStyle(&excelize.Style{
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"F2F2F2"}, Pattern: 1},
		Border: borders("D9D9D9"),
	})
	if err != nil {
		return s, err
	}
	s.even, err = f.NewStyle(&excelize.Style{
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"FFFFFF"}, Pattern: 1},
		Border: borders("D9D9D9"),
	})
	return s, err
}

func borders(color string) []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: color, Style: 1},
		{Type: "top", Color: color, Style: 1},
		{Type: "bottom", Color: color, Style: 1},
		{Type: "right", Color: color, Style: 1},
	}
}

// writeHeaders escreve uma linha de cabeçalho
func (g *ExcelGenerator) writeHeaders(f *excelize.File, sheet string, row int, headers []string, style int) error {
	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return err
		}
	}
	return nil
}

func (g *ExcelGenerator) writeRow(f *excelize.File, sheet string, row int, values []interface{}, style int) error {
	for col, value := range values {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return err
		}
	}
	return nil
}

// autoFitColumns ajusta a largura das colunas
func (g *ExcelGenerator) autoFitColumns(f *excelize.File, sheet string, numCols int) error {
	for col := 1; col <= numCols; col++ {
		colName, _ := excelize.ColumnNumberToName(col)
		if err := f.SetColWidth(sheet, colName, colName, 20); err != nil {
			return err
		}
	}
	return nil
}

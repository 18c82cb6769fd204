package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cleberrangel/clickup-timeline-api/internal/model"
)

// Extractor converte campos de tarefas do ClickUp para o fuso de exibição
type Extractor struct {
	location *time.Location
}

// NewExtractor cria um novo extrator. loc nil usa o fuso local.
func NewExtractor(loc *time.Location) *Extractor {
	if loc == nil {
		loc = time.Local
	}
	return &Extractor{location: loc}
}

// Location retorna o fuso de exibição
func (e *Extractor) Location() *time.Location {
	return e.location
}

// ParseEpochMs converte um timestamp em milissegundos (string) para horário
// local. String vazia significa data ausente.
func (e *Extractor) ParseEpochMs(epochStr string) (*time.Time, error) {
	epochStr = strings.TrimSpace(epochStr)
	if epochStr == "" || epochStr == "null" {
		return nil, nil
	}

	epochMs, err := strconv.ParseInt(epochStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: epoch %q", model.ErrInvalidResponse, epochStr)
	}

	t := time.UnixMilli(epochMs).In(e.location)
	return &t, nil
}

// DayItem converte uma tarefa em item de dia. Datas ilegíveis são tratadas
// como ausentes; o erro é retornado para log.
func (e *Extractor) DayItem(task model.Task) (model.DayItem, error) {
	item := model.DayItem{
		ID:      task.ID,
		Content: task.Name,
		URL:     task.URL,
		Source:  model.SourceClickUp,
	}

	start, startErr := e.ParseEpochMs(task.StartDate)
	due, dueErr := e.ParseEpochMs(task.DueDate)
	item.Start = start
	item.End = due

	if startErr != nil {
		return item, startErr
	}
	return item, dueErr
}

// FormatClock formata um horário como HH:MM no fuso de exibição
func (e *Extractor) FormatClock(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.In(e.location).Format("15:04")
}

// FormatDate formata uma data como DD/MM/AAAA no fuso de exibição
func (e *Extractor) FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.In(e.location).Format("02/01/2006")
}

package model

import "github.com/cleberrangel/clickup-timeline-api/internal/timeline"

// Response representa a resposta padrão da API
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
	Errors  []string    `json:"errors,omitempty"`
}

// Meta contém metadados da resposta
type Meta struct {
	TotalItems       int  `json:"total_items"`
	TotalUnscheduled int  `json:"total_unscheduled"`
	Stale            bool `json:"stale,omitempty"`
}

// ErrorResponse representa uma resposta de erro
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// DayLayout is the payload of the day layout endpoint.
type DayLayout struct {
	Date        string                  `json:"date"`
	Timezone    string                  `json:"timezone"`
	Grid        timeline.GridGeometry   `json:"grid"`
	Items       []timeline.ItemGeometry `json:"items"`
	Unscheduled []DayItem               `json:"unscheduled"`
	Marker      timeline.TimeMarker     `json:"marker"`
}

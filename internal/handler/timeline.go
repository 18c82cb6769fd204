package handler

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cleberrangel/clickup-timeline-api/internal/logger"
	"github.com/cleberrangel/clickup-timeline-api/internal/metrics"
	"github.com/cleberrangel/clickup-timeline-api/internal/model"
	"github.com/cleberrangel/clickup-timeline-api/internal/service"
	"github.com/cleberrangel/clickup-timeline-api/internal/timeline"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DaySource resolves days for the timeline endpoints
type DaySource interface {
	ItemsForDay(ctx context.Context, day time.Time) (*model.DayItems, error)
	ParseDate(value string) (time.Time, error)
	Location() *time.Location
}

// TimelineHandler serve a grade e o layout de um dia
type TimelineHandler struct {
	days    DaySource
	bounds  timeline.Bounds
	excel   *service.ExcelGenerator
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewTimelineHandler cria o handler da linha do tempo
func NewTimelineHandler(days DaySource, bounds timeline.Bounds, excel *service.ExcelGenerator) *TimelineHandler {
	if !bounds.Valid() {
		bounds = timeline.DefaultBounds()
	}
	if excel == nil {
		excel = service.NewExcelGenerator(service.NewExtractor(days.Location()))
	}
	return &TimelineHandler{
		days:    days,
		bounds:  bounds,
		excel:   excel,
		metrics: metrics.Get(),
		now:     time.Now,
	}
}

// WithClock troca o relógio usado pelo marcador de hora atual
func (h *TimelineHandler) WithClock(now func() time.Time) *TimelineHandler {
	h.now = now
	return h
}

// WithMetrics troca o coletor de métricas
func (h *TimelineHandler) WithMetrics(m *metrics.Metrics) *TimelineHandler {
	h.metrics = m
	return h
}

// GetGrid retorna a geometria da grade de 24 horas
// @Summary      Grade do dia
// @Description  Rótulos e linhas das 24 faixas horárias na escala pedida (limitada ao intervalo configurado)
// @Tags         timeline
// @Produce      json
// @Security     BearerAuth
// @Param        scale query number false "pixels por hora"
// @Success      200 {object} model.Response
// @Failure      400 {object} model.ErrorResponse
// @Router       /api/v1/grid [get]
func (h *TimelineHandler) GetGrid(c *gin.Context) {
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	h.metrics.IncrementGrid()

	c.JSON(http.StatusOK, model.Response{
		Success: true,
		Data:    snap.Grid(),
	})
}

// GetDayLayout retorna grade, itens posicionados e marcador de um dia
// @Summary      Layout do dia
// @Tags         timeline
// @Produce      json
// @Security     BearerAuth
// @Param        date path string true "dia no formato YYYY-MM-DD"
// @Param        scale query number false "pixels por hora"
// @Success      200 {object} model.Response
// @Failure      400 {object} model.ErrorResponse
// @Failure      502 {object} model.ErrorResponse
// @Router       /api/v1/days/{date}/layout [get]
func (h *TimelineHandler) GetDayLayout(c *gin.Context) {
	layout, day, ok := h.resolve(c)
	if !ok {
		return
	}
	h.metrics.IncrementLayout(len(layout.Items))

	c.JSON(http.StatusOK, model.Response{
		Success: true,
		Data:    layout,
		Meta: &model.Meta{
			TotalItems:       len(layout.Items),
			TotalUnscheduled: len(layout.Unscheduled),
			Stale:            day.Stale,
		},
	})
}

// ExportDay gera a planilha do layout de um dia
// @Summary      Exporta o dia em Excel
// @Tags         timeline
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        date path string true "dia no formato YYYY-MM-DD"
// @Param        scale query number false "pixels por hora"
// @Success      200 {file} binary
// @Failure      400 {object} model.ErrorResponse
// @Router       /api/v1/days/{date}/export [get]
func (h *TimelineHandler) ExportDay(c *gin.Context) {
	layout, day, ok := h.resolve(c)
	if !ok {
		return
	}

	buf, err := h.excel.ExportDay(layout)
	if err != nil {
		h.metrics.IncrementExport(false)
		logger.FromGin(c).Error().Err(err).Str("date", layout.Date).Msg("Falha ao gerar planilha")
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false,
			Error:   "erro ao gerar planilha",
			Details: err.Error(),
		})
		return
	}
	h.metrics.IncrementExport(true)

	logger.Audit(c.Request.Context(), logger.AuditEvent{
		Action:     logger.AuditActionDayExport,
		Resource:   "day",
		ResourceID: layout.Date,
		ClientIP:   c.ClientIP(),
		Success:    true,
		Details: map[string]interface{}{
			"items":       len(layout.Items),
			"unscheduled": len(layout.Unscheduled),
			"scale":       layout.Grid.PixelsPerHour,
		},
	})

	filename := fmt.Sprintf("timeline_%s.xlsx", layout.Date)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Header("Content-Length", strconv.Itoa(buf.Len()))
	c.Header("X-Total-Items", strconv.Itoa(len(layout.Items)))
	if day.Stale {
		c.Header("X-Stale-Data", "true")
	}
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// resolve busca o dia da rota e o renderiza na escala pedida
func (h *TimelineHandler) resolve(c *gin.Context) (*model.DayLayout, *model.DayItems, bool) {
	snap, ok := h.snapshot(c)
	if !ok {
		return nil, nil, false
	}

	date, err := h.days.ParseDate(c.Param("date"))
	if err != nil {
		h.handleError(c, err)
		return nil, nil, false
	}

	day, err := h.days.ItemsForDay(c.Request.Context(), date)
	if err != nil {
		h.handleError(c, err)
		return nil, nil, false
	}

	return service.BuildDayLayout(day, snap, h.now(), h.days.Location()), day, true
}

// snapshot lê ?scale=. Ausente ou NaN usa a escala inicial; fora do
// intervalo é limitado.
func (h *TimelineHandler) snapshot(c *gin.Context) (timeline.Snapshot, bool) {
	raw := c.Query("scale")
	if raw == "" {
		return timeline.SnapshotAt(h.bounds, h.bounds.Initial), true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Error:   "scale inválido",
			Details: "informe pixels por hora, ex.: scale=40",
		})
		return timeline.Snapshot{}, false
	}
	if math.IsNaN(v) {
		v = h.bounds.Initial
	}
	return timeline.SnapshotAt(h.bounds, v), true
}

// handleError trata erros e retorna resposta apropriada
func (h *TimelineHandler) handleError(c *gin.Context, err error) {
	logger.FromGin(c).Warn().Err(err).Str("date", c.Param("date")).Msg("Falha ao resolver dia")

	switch {
	case errors.Is(err, model.ErrInvalidDate):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Error:   "data inválida",
			Details: "use o formato YYYY-MM-DD",
		})
	case errors.Is(err, model.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, model.ErrorResponse{
			Success: false,
			Error:   "rate limit excedido",
			Details: "aguarde alguns segundos e tente novamente",
		})
	case errors.Is(err, model.ErrUnauthorized):
		c.JSON(http.StatusBadGateway, model.ErrorResponse{
			Success: false,
			Error:   "token do ClickUp inválido",
			Details: "verifique a variável TOKEN_CLICKUP",
		})
	case errors.Is(err, model.ErrNotFound):
		c.JSON(http.StatusBadGateway, model.ErrorResponse{
			Success: false,
			Error:   "lista não encontrada",
			Details: "verifique CLICKUP_LIST_IDS",
		})
	case errors.Is(err, model.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, model.ErrorResponse{
			Success: false,
			Error:   "timeout na requisição",
			Details: "as fontes do dia demoraram muito para responder",
		})
	case errors.Is(err, model.ErrInvalidCalendar), errors.Is(err, model.ErrInvalidResponse):
		c.JSON(http.StatusBadGateway, model.ErrorResponse{
			Success: false,
			Error:   "fonte do dia retornou dados inválidos",
			Details: err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false,
			Error:   "erro interno",
			Details: err.Error(),
		})
	}
}

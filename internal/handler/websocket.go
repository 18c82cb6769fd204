package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cleberrangel/clickup-timeline-api/internal/model"
	"github.com/cleberrangel/clickup-timeline-api/internal/websocket"
)

// DayInvalidator drops cached days before the views reload them
type DayInvalidator interface {
	ParseDate(value string) (time.Time, error)
	Invalidate(day time.Time)
	InvalidateAll()
}

// WebSocketHandler handles WebSocket-related HTTP requests
type WebSocketHandler struct {
	hub  *websocket.Hub
	days DayInvalidator
}

// NewWebSocketHandler creates a new WebSocket handler. days may be nil.
func NewWebSocketHandler(hub *websocket.Hub, days DayInvalidator) *WebSocketHandler {
	return &WebSocketHandler{
		hub:  hub,
		days: days,
	}
}

// HandleConnection handles WebSocket connection upgrades
// @Summary      Sessão de visualização do dia
// @Description  Abre uma sessão websocket que recebe gestos de pinça e envia frames
// @Tags         websocket
// @Security     BearerAuth
// @Router       /api/v1/ws [get]
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	h.hub.ServeWS(c)
}

// GetConnectionStats returns WebSocket session statistics
func (h *WebSocketHandler) GetConnectionStats(c *gin.Context) {
	c.JSON(http.StatusOK, model.Response{
		Success: true,
		Data: map[string]interface{}{
			"total_sessions": h.hub.GetConnectionCount(),
			"session_ids":    h.hub.GetSessionIDs(),
		},
	})
}

// RefreshDay descarta o cache de um dia e recarrega as sessões que o exibem.
// Sem ?date todos os dias são recarregados.
// @Summary      Recarrega um dia
// @Tags         websocket
// @Security     BearerAuth
// @Param        date query string false "dia no formato YYYY-MM-DD"
// @Success      200 {object} model.Response
// @Failure      400 {object} model.ErrorResponse
// @Router       /api/v1/refresh [post]
func (h *WebSocketHandler) RefreshDay(c *gin.Context) {
	date := c.Query("date")

	if h.days != nil {
		if date == "" {
			h.days.InvalidateAll()
		} else {
			day, err := h.days.ParseDate(date)
			if err != nil {
				c.JSON(http.StatusBadRequest, model.ErrorResponse{
					Success: false,
					Error:   "data inválida",
					Details: "use o formato YYYY-MM-DD",
				})
				return
			}
			h.days.Invalidate(day)
		}
	}

	h.hub.BroadcastRefresh(date)

	c.JSON(http.StatusOK, model.Response{
		Success: true,
		Data: map[string]interface{}{
			"date":     date,
			"sessions": h.hub.GetConnectionCount(),
		},
	})
}

package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cleberrangel/clickup-timeline-api/internal/metrics"
	"github.com/cleberrangel/clickup-timeline-api/internal/websocket"
)

// maxSessions is the session count above which the hub reports degraded
const maxSessions = 100

// SourceHealth reports the state of the day sources
type SourceHealth interface {
	Health() metrics.HealthStatus
}

// HealthHandler handles health check and metrics endpoints
type HealthHandler struct {
	sources   SourceHealth
	wsHub     *websocket.Hub
	metrics   *metrics.Metrics
	version   string
	startTime time.Time
}

// NewHealthHandler creates a new health handler. hub may be nil.
func NewHealthHandler(sources SourceHealth, hub *websocket.Hub, version string) *HealthHandler {
	return &HealthHandler{
		sources:   sources,
		wsHub:     hub,
		metrics:   metrics.Get(),
		version:   version,
		startTime: time.Now(),
	}
}

// LivenessCheck returns basic liveness status
// @Summary Liveness check
// @Description Returns basic liveness status for Kubernetes probes
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health/live [get]
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// DetailedHealthCheck returns comprehensive health information
// @Summary Detailed health check
// @Description Returns health of the day sources, memory and websocket sessions
// @Tags health
// @Produce json
// @Success 200 {object} metrics.HealthCheck
// @Failure 503 {object} metrics.HealthCheck
// @Router /health [get]
func (h *HealthHandler) DetailedHealthCheck(c *gin.Context) {
	components := make(map[string]metrics.HealthStatus)

	if h.sources != nil {
		components["sources"] = h.sources.Health()
	}

	// Check memory
	components["memory"] = metrics.CheckMemoryHealth(512)

	// Check WebSocket hub if available
	if h.wsHub != nil {
		components["websocket"] = h.checkWebSocketHealth()
	}

	// Determine overall status
	overallStatus := metrics.DetermineOverallStatus(components)

	healthCheck := metrics.HealthCheck{
		Status:     overallStatus,
		Version:    h.version,
		Uptime:     time.Since(h.startTime).String(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Components: components,
	}

	statusCode := http.StatusOK
	if overallStatus == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, healthCheck)
}

// checkWebSocketHealth checks WebSocket hub health
func (h *HealthHandler) checkWebSocketHealth() metrics.HealthStatus {
	if h.wsHub.GetConnectionCount() > maxSessions {
		return metrics.HealthStatus{
			Status:  "degraded",
			Message: "WebSocket sessions near limit",
		}
	}

	return metrics.HealthStatus{
		Status: "healthy",
	}
}

// GetMetrics returns application metrics
// @Summary Get application metrics
// @Description Returns all application metrics including pinch sessions, layouts and sources
// @Tags metrics
// @Produce json
// @Success 200 {object} metrics.MetricsSnapshot
// @Router /metrics [get]
func (h *HealthHandler) GetMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}

// GetMetricsSummary returns a summary of key metrics
// @Summary Get metrics summary
// @Tags metrics
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /metrics/summary [get]
func (h *HealthHandler) GetMetricsSummary(c *gin.Context) {
	snapshot := h.metrics.Snapshot()

	// Calculate success rates
	requestSuccessRate := float64(0)
	if snapshot.Requests.Total > 0 {
		requestSuccessRate = float64(snapshot.Requests.Successful) / float64(snapshot.Requests.Total) * 100
	}

	fetchSuccessRate := float64(0)
	if snapshot.Sources.Fetches > 0 {
		fetchSuccessRate = float64(snapshot.Sources.Fetches-snapshot.Sources.Errors) / float64(snapshot.Sources.Fetches) * 100
	}

	summary := gin.H{
		"uptime_seconds": snapshot.UptimeSeconds,
		"version":        h.version,
		"requests": gin.H{
			"total":        snapshot.Requests.Total,
			"success_rate": requestSuccessRate,
			"avg_latency":  snapshot.Requests.AvgLatencyMs,
		},
		"pinch": gin.H{
			"started":   snapshot.Pinch.Started,
			"ended":     snapshot.Pinch.Ended,
			"cancelled": snapshot.Pinch.Cancelled,
		},
		"sources": gin.H{
			"fetches":      snapshot.Sources.Fetches,
			"success_rate": fetchSuccessRate,
			"stale_served": snapshot.Sources.Stale,
		},
		"websocket": gin.H{
			"connections": snapshot.WebSocket.Connections,
		},
		"system": gin.H{
			"goroutines":  snapshot.System.Goroutines,
			"heap_mb":     snapshot.System.HeapAllocMB,
			"heap_use_mb": snapshot.System.HeapInUseMB,
		},
	}

	c.JSON(http.StatusOK, summary)
}

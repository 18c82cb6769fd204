package metrics

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// EndpointMetrics tracks metrics for a specific endpoint
type EndpointMetrics struct {
	Requests     int64
	Errors       int64
	TotalLatency int64
}

// Metrics holds all application metrics
type Metrics struct {
	mu sync.RWMutex

	// Request metrics
	TotalRequests      int64
	SuccessfulRequests int64
	FailedRequests     int64

	// Request latency (in milliseconds)
	TotalLatency int64
	RequestCount int64

	// Layout metrics
	LayoutsServed int64
	GridsServed   int64
	ItemsLaidOut  int64

	// Pinch gesture metrics
	PinchStarted   int64
	PinchEnded     int64
	PinchCancelled int64
	FramesEmitted  int64

	// Readout metrics
	ReadoutsPublished int64
	ReadoutsDropped   int64

	// Day source metrics
	DayFetches     int64
	DayFetchErrors int64
	StaleServed    int64

	// WebSocket metrics
	WSConnections int64
	WSMessagesIn  int64
	WSMessagesOut int64

	// Export metrics
	ExportsGenerated int64
	ExportErrors     int64

	// Endpoint-specific metrics
	EndpointMetrics map[string]*EndpointMetrics

	// Start time for uptime calculation
	StartTime time.Time
}

// global metrics instance
var globalMetrics *Metrics
var once sync.Once

// Init initializes the global metrics instance
func Init() {
	once.Do(func() {
		globalMetrics = New()
	})
}

// New creates an independent metrics instance
func New() *Metrics {
	return &Metrics{
		StartTime:       time.Now(),
		EndpointMetrics: make(map[string]*EndpointMetrics),
	}
}

// Get returns the global metrics instance
func Get() *Metrics {
	Init()
	return globalMetrics
}

// IncrementRequests increments request counters
func (m *Metrics) IncrementRequests(success bool, latencyMs int64) {
	atomic.AddInt64(&m.TotalRequests, 1)
	atomic.AddInt64(&m.TotalLatency, latencyMs)
	atomic.AddInt64(&m.RequestCount, 1)

	if success {
		atomic.AddInt64(&m.SuccessfulRequests, 1)
	} else {
		atomic.AddInt64(&m.FailedRequests, 1)
	}
}

// IncrementLayout counts a served day layout and its items
func (m *Metrics) IncrementLayout(items int) {
	atomic.AddInt64(&m.LayoutsServed, 1)
	atomic.AddInt64(&m.ItemsLaidOut, int64(items))
}

// IncrementGrid counts a served grid geometry
func (m *Metrics) IncrementGrid() {
	atomic.AddInt64(&m.GridsServed, 1)
}

// IncrementPinchStarted counts a pinch session start
func (m *Metrics) IncrementPinchStarted() {
	atomic.AddInt64(&m.PinchStarted, 1)
}

// IncrementPinchEnded counts a pinch session that settled
func (m *Metrics) IncrementPinchEnded() {
	atomic.AddInt64(&m.PinchEnded, 1)
}

// IncrementPinchCancelled counts a cancelled pinch session
func (m *Metrics) IncrementPinchCancelled() {
	atomic.AddInt64(&m.PinchCancelled, 1)
}

// IncrementFrame counts a frame sent to a view
func (m *Metrics) IncrementFrame() {
	atomic.AddInt64(&m.FramesEmitted, 1)
}

// IncrementReadout counts readouts handed to the application side
func (m *Metrics) IncrementReadout(delivered bool) {
	if delivered {
		atomic.AddInt64(&m.ReadoutsPublished, 1)
	} else {
		atomic.AddInt64(&m.ReadoutsDropped, 1)
	}
}

// IncrementDayFetch counts a day resolution against the sources
func (m *Metrics) IncrementDayFetch(success bool) {
	atomic.AddInt64(&m.DayFetches, 1)
	if !success {
		atomic.AddInt64(&m.DayFetchErrors, 1)
	}
}

// IncrementStaleServed counts a stale day served after a failed refresh
func (m *Metrics) IncrementStaleServed() {
	atomic.AddInt64(&m.StaleServed, 1)
}

// IncrementWSConnection increments WebSocket connection counter
func (m *Metrics) IncrementWSConnection() {
	atomic.AddInt64(&m.WSConnections, 1)
}

// DecrementWSConnection decrements WebSocket connection counter
func (m *Metrics) DecrementWSConnection() {
	atomic.AddInt64(&m.WSConnections, -1)
}

// IncrementWSMessageIn increments incoming WebSocket message counter
func (m *Metrics) IncrementWSMessageIn() {
	atomic.AddInt64(&m.WSMessagesIn, 1)
}

// IncrementWSMessageOut increments outgoing WebSocket message counter
func (m *Metrics) IncrementWSMessageOut() {
	atomic.AddInt64(&m.WSMessagesOut, 1)
}

// IncrementExport counts an xlsx day export
func (m *Metrics) IncrementExport(success bool) {
	if success {
		atomic.AddInt64(&m.ExportsGenerated, 1)
	} else {
		atomic.AddInt64(&m.ExportErrors, 1)
	}
}

// TrackEndpoint tracks metrics for a specific endpoint
func (m *Metrics) TrackEndpoint(path, method string, statusCode int, latencyMs int64) {
	key := method + " " + path

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.EndpointMetrics == nil {
		m.EndpointMetrics = make(map[string]*EndpointMetrics)
	}

	em, exists := m.EndpointMetrics[key]
	if !exists {
		em = &EndpointMetrics{}
		m.EndpointMetrics[key] = em
	}

	atomic.AddInt64(&em.Requests, 1)
	atomic.AddInt64(&em.TotalLatency, latencyMs)
	if statusCode >= 400 {
		atomic.AddInt64(&em.Errors, 1)
	}
}

// GetEndpointMetrics returns a copy of endpoint metrics
func (m *Metrics) GetEndpointMetrics() map[string]EndpointMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]EndpointMetrics)
	for k, v := range m.EndpointMetrics {
		result[k] = EndpointMetrics{
			Requests:     atomic.LoadInt64(&v.Requests),
			Errors:       atomic.LoadInt64(&v.Errors),
			TotalLatency: atomic.LoadInt64(&v.TotalLatency),
		}
	}
	return result
}

// GetAverageLatency returns average request latency in milliseconds
func (m *Metrics) GetAverageLatency() float64 {
	count := atomic.LoadInt64(&m.RequestCount)
	if count == 0 {
		return 0
	}
	total := atomic.LoadInt64(&m.TotalLatency)
	return float64(total) / float64(count)
}

// GetUptime returns the application uptime
func (m *Metrics) GetUptime() time.Duration {
	return time.Since(m.StartTime)
}

// EndpointMetricsSnapshot represents endpoint metrics in a snapshot
type EndpointMetricsSnapshot struct {
	Requests     int64   `json:"requests"`
	Errors       int64   `json:"errors"`
	ErrorRate    float64 `json:"error_rate"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
}

// MetricsSnapshot represents a point-in-time snapshot of all metrics
type MetricsSnapshot struct {
	UptimeSeconds float64 `json:"uptime_seconds"`
	StartTime     string  `json:"start_time"`

	Requests struct {
		Total        int64   `json:"total"`
		Successful   int64   `json:"successful"`
		Failed       int64   `json:"failed"`
		AvgLatencyMs float64 `json:"avg_latency_ms"`
	} `json:"requests"`

	Layout struct {
		Layouts int64 `json:"layouts"`
		Grids   int64 `json:"grids"`
		Items   int64 `json:"items"`
	} `json:"layout"`

	Pinch struct {
		Started   int64 `json:"started"`
		Ended     int64 `json:"ended"`
		Cancelled int64 `json:"cancelled"`
		Frames    int64 `json:"frames"`
	} `json:"pinch"`

	Readout struct {
		Published int64 `json:"published"`
		Dropped   int64 `json:"dropped"`
	} `json:"readout"`

	Sources struct {
		Fetches int64 `json:"fetches"`
		Errors  int64 `json:"errors"`
		Stale   int64 `json:"stale"`
	} `json:"sources"`

	WebSocket struct {
		Connections int64 `json:"connections"`
		MessagesIn  int64 `json:"messages_in"`
		MessagesOut int64 `json:"messages_out"`
	} `json:"websocket"`

	Exports struct {
		Generated int64 `json:"generated"`
		Errors    int64 `json:"errors"`
	} `json:"exports"`

	System struct {
		Goroutines   int    `json:"goroutines"`
		HeapAllocMB  uint64 `json:"heap_alloc_mb"`
		HeapInUseMB  uint64 `json:"heap_inuse_mb"`
		StackInUseMB uint64 `json:"stack_inuse_mb"`
		NumGC        uint32 `json:"num_gc"`
	} `json:"system"`

	Endpoints map[string]EndpointMetricsSnapshot `json:"endpoints,omitempty"`
}

// Snapshot returns a point-in-time snapshot of all metrics
func (m *Metrics) Snapshot() MetricsSnapshot {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	snapshot := MetricsSnapshot{}

	snapshot.UptimeSeconds = m.GetUptime().Seconds()
	snapshot.StartTime = m.StartTime.Format(time.RFC3339)

	snapshot.Requests.Total = atomic.LoadInt64(&m.TotalRequests)
	snapshot.Requests.Successful = atomic.LoadInt64(&m.SuccessfulRequests)
	snapshot.Requests.Failed = atomic.LoadInt64(&m.FailedRequests)
	snapshot.Requests.AvgLatencyMs = m.GetAverageLatency()

	snapshot.Layout.Layouts = atomic.LoadInt64(&m.LayoutsServed)
	snapshot.Layout.Grids = atomic.LoadInt64(&m.GridsServed)
	snapshot.Layout.Items = atomic.LoadInt64(&m.ItemsLaidOut)

	snapshot.Pinch.Started = atomic.LoadInt64(&m.PinchStarted)
	snapshot.Pinch.Ended = atomic.LoadInt64(&m.PinchEnded)
	snapshot.Pinch.Cancelled = atomic.LoadInt64(&m.PinchCancelled)
	snapshot.Pinch.Frames = atomic.LoadInt64(&m.FramesEmitted)

	snapshot.Readout.Published = atomic.LoadInt64(&m.ReadoutsPublished)
	snapshot.Readout.Dropped = atomic.LoadInt64(&m.ReadoutsDropped)

	snapshot.Sources.Fetches = atomic.LoadInt64(&m.DayFetches)
	snapshot.Sources.Errors = atomic.LoadInt64(&m.DayFetchErrors)
	snapshot.Sources.Stale = atomic.LoadInt64(&m.StaleServed)

	snapshot.WebSocket.Connections = atomic.LoadInt64(&m.WSConnections)
	snapshot.WebSocket.MessagesIn = atomic.LoadInt64(&m.WSMessagesIn)
	snapshot.WebSocket.MessagesOut = atomic.LoadInt64(&m.WSMessagesOut)

	snapshot.Exports.Generated = atomic.LoadInt64(&m.ExportsGenerated)
	snapshot.Exports.Errors = atomic.LoadInt64(&m.ExportErrors)

	snapshot.System.Goroutines = runtime.NumGoroutine()
	snapshot.System.HeapAllocMB = memStats.HeapAlloc / 1024 / 1024
	snapshot.System.HeapInUseMB = memStats.HeapInuse / 1024 / 1024
	snapshot.System.StackInUseMB = memStats.StackInuse / 1024 / 1024
	snapshot.System.NumGC = memStats.NumGC

	endpointMetrics := m.GetEndpointMetrics()
	if len(endpointMetrics) > 0 {
		snapshot.Endpoints = make(map[string]EndpointMetricsSnapshot)
		for k, v := range endpointMetrics {
			em := EndpointMetricsSnapshot{
				Requests: v.Requests,
				Errors:   v.Errors,
			}
			if v.Requests > 0 {
				em.ErrorRate = float64(v.Errors) / float64(v.Requests) * 100
				em.AvgLatencyMs = float64(v.TotalLatency) / float64(v.Requests)
			}
			snapshot.Endpoints[k] = em
		}
	}

	return snapshot
}

// HealthStatus represents the health status of a component
type HealthStatus struct {
	Status  string `json:"status"` // "healthy", "degraded", "unhealthy"
	Message string `json:"message,omitempty"`
	Latency int64  `json:"latency_ms,omitempty"`
}

// HealthCheck represents the overall health check response
type HealthCheck struct {
	Status     string                  `json:"status"`
	Version    string                  `json:"version"`
	Uptime     string                  `json:"uptime"`
	Timestamp  string                  `json:"timestamp"`
	Components map[string]HealthStatus `json:"components"`
}

// CheckSourceHealth grades the day sources by their last refresh outcome.
// A failure is degraded while a previous success is younger than maxAge.
func CheckSourceHealth(lastSuccess time.Time, lastErr error, maxAge time.Duration) HealthStatus {
	if lastErr == nil {
		return HealthStatus{Status: "healthy"}
	}
	if !lastSuccess.IsZero() && time.Since(lastSuccess) < maxAge {
		return HealthStatus{
			Status:  "degraded",
			Message: lastErr.Error(),
		}
	}
	return HealthStatus{
		Status:  "unhealthy",
		Message: lastErr.Error(),
	}
}

// CheckMemoryHealth checks memory usage
func CheckMemoryHealth(maxHeapMB uint64) HealthStatus {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	heapMB := memStats.HeapAlloc / 1024 / 1024

	if heapMB > maxHeapMB {
		return HealthStatus{
			Status:  "unhealthy",
			Message: "heap memory exceeds limit",
		}
	}

	// Warn if using more than 80% of limit
	if heapMB > (maxHeapMB * 80 / 100) {
		return HealthStatus{
			Status:  "degraded",
			Message: "heap memory usage high",
		}
	}

	return HealthStatus{
		Status: "healthy",
	}
}

// DetermineOverallStatus determines overall health from component statuses
func DetermineOverallStatus(components map[string]HealthStatus) string {
	hasUnhealthy := false
	hasDegraded := false

	for _, status := range components {
		switch status.Status {
		case "unhealthy":
			hasUnhealthy = true
		case "degraded":
			hasDegraded = true
		}
	}

	if hasUnhealthy {
		return "unhealthy"
	}
	if hasDegraded {
		return "degraded"
	}
	return "healthy"
}

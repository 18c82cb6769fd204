package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// AuditAction represents the type of action being audited
type AuditAction string

const (
	// View session actions
	AuditActionWSConnect    AuditAction = "WS_CONNECT"
	AuditActionWSDisconnect AuditAction = "WS_DISCONNECT"
	AuditActionOpenItem     AuditAction = "OPEN_ITEM"

	// Export actions
	AuditActionDayExport AuditAction = "DAY_EXPORT"

	// API operations
	AuditActionAPIRequest AuditAction = "API_REQUEST"
	AuditActionAPIError   AuditAction = "API_ERROR"
)

// AuditEvent represents an audit log entry
type AuditEvent struct {
	Action     AuditAction
	Resource   string
	ResourceID string
	Details    map[string]interface{}
	ClientIP   string
	RequestID  string
	SessionID  string
	Success    bool
	Error      string
	Duration   int64 // ms
	Method     string
	Path       string
	StatusCode int
}

var auditLogger = zerolog.Nop()

// InitAudit initializes the audit logger
func InitAudit() {
	auditLogger = globalLogger.With().Str("log_type", "audit").Logger()
}

// Audit logs an audit event
func Audit(ctx context.Context, event AuditEvent) {
	if event.RequestID == "" {
		event.RequestID = GetRequestID(ctx)
	}
	if event.SessionID == "" {
		event.SessionID = GetSessionID(ctx)
	}

	logEvent := auditLogger.Info()
	if !event.Success {
		logEvent = auditLogger.Warn()
	}

	logEvent.
		Str("action", string(event.Action)).
		Str("resource", event.Resource).
		Str("resource_id", event.ResourceID).
		Str("client_ip", event.ClientIP).
		Str("request_id", event.RequestID).
		Bool("success", event.Success).
		Time("timestamp", time.Now().UTC())

	if event.SessionID != "" {
		logEvent.Str("session_id", event.SessionID)
	}
	if event.Error != "" {
		logEvent.Str("error", event.Error)
	}
	if event.Duration > 0 {
		logEvent.Int64("duration_ms", event.Duration)
	}
	if event.Method != "" {
		logEvent.Str("method", event.Method)
	}
	if event.Path != "" {
		logEvent.Str("path", event.Path)
	}
	if event.StatusCode > 0 {
		logEvent.Int("status_code", event.StatusCode)
	}
	if len(event.Details) > 0 {
		logEvent.Interface("details", event.Details)
	}

	logEvent.Msg("Audit event")
}

// AuditRequest logs an API request audit event
func AuditRequest(ctx context.Context, method, path string, statusCode int, duration int64, clientIP string) {
	success := statusCode < 400
	action := AuditActionAPIRequest
	if !success {
		action = AuditActionAPIError
	}

	Audit(ctx, AuditEvent{
		Action:     action,
		Resource:   "api",
		ResourceID: path,
		Method:     method,
		Path:       path,
		StatusCode: statusCode,
		Duration:   duration,
		ClientIP:   clientIP,
		Success:    success,
	})
}

// AuditWebSocket logs view session connection events
func AuditWebSocket(ctx context.Context, action AuditAction, clientIP string, details map[string]interface{}) {
	Audit(ctx, AuditEvent{
		Action:   action,
		Resource: "websocket",
		ClientIP: clientIP,
		Success:  true,
		Details:  details,
	})
}

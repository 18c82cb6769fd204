package websocket

import (
	"encoding/json"
	"time"
)

// Mensagens enviadas pelo cliente
const (
	MessagePinchStart  = "pinch_start"
	MessagePinchUpdate = "pinch_update"
	MessagePinchEnd    = "pinch_end"
	MessagePinchCancel = "pinch_cancel"
	MessageScroll      = "scroll"
	MessageSetDay      = "set_day"
	MessageOpenItem    = "open_item"
	MessagePing        = "ping"
)

// Mensagens enviadas pelo servidor
const (
	MessageConnection   = "connection"
	MessageFrame        = "frame"
	MessageReadout      = "readout"
	MessageMarker       = "marker"
	MessageItems        = "items"
	MessageItemsRefresh = "items_refresh"
	MessageError        = "error"
	MessagePong         = "pong"
)

// Códigos de erro enviados ao cliente
const (
	ErrCodeBadMessage  = "BAD_MESSAGE"
	ErrCodeUnknownType = "UNKNOWN_TYPE"
	ErrCodeInvalidDate = "INVALID_DATE"
	ErrCodeUnknownItem = "UNKNOWN_ITEM"
)

// Message represents a server to client WebSocket message
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// IncomingMessage is a client message; Data is decoded per Type.
type IncomingMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// PinchStartData carries the focal point in screen space and the scroll
// offset at the start of the pinch.
type PinchStartData struct {
	FocalY       float64 `json:"focal_y"`
	ScrollOffset float64 `json:"scroll_offset"`
}

// PinchUpdateData carries the factor relative to the pinch start.
type PinchUpdateData struct {
	Factor float64 `json:"factor"`
}

// ScrollData reports the container scroll offset.
type ScrollData struct {
	Offset float64 `json:"offset"`
}

// SetDayData selects the day to show, as YYYY-MM-DD.
type SetDayData struct {
	Date string `json:"date"`
}

// OpenItemData asks for the navigation target of an item.
type OpenItemData struct {
	ID string `json:"id"`
}

// OpenItemResult is the resolved navigation target. Routing is up to the
// client.
type OpenItemResult struct {
	ID     string `json:"id"`
	Target string `json:"target"`
}

// ConnectionData is sent once when a session opens.
type ConnectionData struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id"`
}

// RefreshData tells sessions that the items of a day changed. An empty date
// means every day.
type RefreshData struct {
	Date string `json:"date,omitempty"`
}

// ErrorData describes a rejected client message.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newMessage(kind string, data interface{}) Message {
	return Message{Type: kind, Data: data, Timestamp: time.Now()}
}

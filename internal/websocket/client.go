package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/cleberrangel/clickup-timeline-api/internal/logger"
	"github.com/cleberrangel/clickup-timeline-api/internal/model"
	"github.com/cleberrangel/clickup-timeline-api/internal/timeline"
	"github.com/cleberrangel/clickup-timeline-api/internal/viewport"
)

// Client is one view session: a websocket connection and the view it drives
type Client struct {
	// The websocket connection
	conn *websocket.Conn

	// Buffered channel of outbound messages
	Send chan []byte

	// Session identification
	ID string

	// Hub reference
	Hub *Hub

	view *viewport.View
	ctx  context.Context
	log  zerolog.Logger

	// Connection metadata
	ConnectedAt time.Time
	LastPing    time.Time

	sendMu sync.Mutex
	closed bool
}

func newClient(h *Hub, conn *websocket.Conn, id, requestID string) *Client {
	ctx := h.ctx
	if requestID != "" {
		ctx = logger.WithRequestID(ctx, requestID)
	}
	ctx = logger.WithSessionID(ctx, id)
	return &Client{
		conn:        conn,
		Send:        make(chan []byte, sendBuffer),
		ID:          id,
		Hub:         h,
		ctx:         ctx,
		log:         *logger.Get(ctx),
		ConnectedAt: time.Now(),
		LastPing:    time.Now(),
	}
}

// ServeWS upgrades the request and opens a view session
func (h *Hub) ServeWS(c *gin.Context) {
	if h.cfg.NewView == nil {
		c.JSON(http.StatusServiceUnavailable, model.ErrorResponse{
			Success: false,
			Error:   "sessões de visualização indisponíveis",
		})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.FromGin(c).Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	client := newClient(h, conn, uuid.New().String(), logger.GetRequestID(c.Request.Context()))
	client.SendMessage(newMessage(MessageConnection, ConnectionData{Status: "connected", SessionID: client.ID}))

	view, err := h.cfg.NewView(client.ctx, client, client.ID)
	if err != nil {
		client.log.Error().Err(err).Msg("Failed to start view")
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		conn.WriteJSON(newMessage(MessageError, ErrorData{Code: ErrCodeBadMessage, Message: "não foi possível iniciar a visualização"}))
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseInternalServerErr, ""))
		conn.Close()
		return
	}
	client.view = view

	select {
	case h.register <- client:
	case <-h.ctx.Done():
		view.Stop()
		conn.Close()
		return
	}

	logger.AuditWebSocket(client.ctx, logger.AuditActionWSConnect, c.ClientIP(), map[string]interface{}{
		"session_id": client.ID,
	})

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines
	go client.writePump()
	go client.readPump(c.ClientIP())
}

// readPump pumps messages from the websocket connection to the view
//
// The application runs readPump in a per-connection goroutine. The application
// ensures that there is at most one reader on a connection by executing all
// reads from this goroutine.
func (c *Client) readPump(clientIP string) {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.ctx.Done():
		}
		c.conn.Close()
		logger.AuditWebSocket(c.ctx, logger.AuditActionWSDisconnect, clientIP, map[string]interface{}{
			"session_id": c.ID,
			"duration_s": time.Since(c.ConnectedAt).Seconds(),
		})
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.LastPing = time.Now()
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Error().Err(err).Msg("WebSocket connection closed unexpectedly")
			}
			break
		}

		c.Hub.metrics.IncrementWSMessageIn()
		c.handleMessage(message)
	}
}

// writePump pumps messages from the session queue to the websocket connection
//
// A goroutine running writePump is started for each connection. The
// application ensures that there is at most one writer to a connection by
// executing all writes from this goroutine.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Queued messages go out in the same frame, one per line
			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage decodes one client message and forwards it to the view
func (c *Client) handleMessage(data []byte) {
	var msg IncomingMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.log.Debug().Err(err).Msg("Failed to unmarshal client message")
		c.sendError(ErrCodeBadMessage, "mensagem inválida")
		return
	}

	if err := c.dispatch(msg); err != nil {
		c.log.Debug().Err(err).Str("message_type", msg.Type).Msg("Client message rejected")
	}
}

var errRejected = errors.New("message rejected")

func (c *Client) dispatch(msg IncomingMessage) error {
	switch msg.Type {
	case MessagePing:
		c.SendMessage(newMessage(MessagePong, nil))

	case MessagePinchStart:
		var d PinchStartData
		if !c.decode(msg, &d) {
			return errRejected
		}
		c.view.PinchStart(d.FocalY, d.ScrollOffset)

	case MessagePinchUpdate:
		var d PinchUpdateData
		if !c.decode(msg, &d) {
			return errRejected
		}
		c.view.PinchUpdate(d.Factor)

	case MessagePinchEnd:
		c.view.PinchEnd()

	case MessagePinchCancel:
		c.view.PinchCancel()

	case MessageScroll:
		var d ScrollData
		if !c.decode(msg, &d) {
			return errRejected
		}
		c.view.ReportScroll(d.Offset)

	case MessageSetDay:
		var d SetDayData
		if !c.decode(msg, &d) {
			return errRejected
		}
		if c.Hub.cfg.ParseDate == nil {
			c.sendError(ErrCodeInvalidDate, "troca de dia indisponível")
			return errRejected
		}
		day, err := c.Hub.cfg.ParseDate(d.Date)
		if err != nil {
			c.sendError(ErrCodeInvalidDate, err.Error())
			return err
		}
		c.view.SetDay(day)

	case MessageOpenItem:
		var d OpenItemData
		if !c.decode(msg, &d) {
			return errRejected
		}
		target, ok := c.view.OpenItem(d.ID)
		if !ok {
			c.sendError(ErrCodeUnknownItem, "item sem destino: "+d.ID)
			return errRejected
		}
		logger.Audit(c.ctx, logger.AuditEvent{
			Action:     logger.AuditActionOpenItem,
			Resource:   "item",
			ResourceID: d.ID,
			Success:    true,
		})
		c.SendMessage(newMessage(MessageOpenItem, OpenItemResult{ID: d.ID, Target: target}))

	default:
		c.sendError(ErrCodeUnknownType, "tipo desconhecido: "+msg.Type)
		return errRejected
	}
	return nil
}

func (c *Client) decode(msg IncomingMessage, v interface{}) bool {
	if len(msg.Data) == 0 {
		c.sendError(ErrCodeBadMessage, msg.Type+" sem dados")
		return false
	}
	if err := json.Unmarshal(msg.Data, v); err != nil {
		c.sendError(ErrCodeBadMessage, msg.Type+": "+err.Error())
		return false
	}
	return true
}

func (c *Client) sendError(code, message string) {
	c.SendMessage(newMessage(MessageError, ErrorData{Code: code, Message: message}))
}

// SendMessage sends a message to this specific session
func (c *Client) SendMessage(message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		c.log.Error().Err(err).Msg("Failed to marshal message for client")
		return
	}
	c.queue(data)
}

// queue enqueues without blocking. A full queue drops the message: the next
// frame supersedes it.
func (c *Client) queue(data []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return false
	}

	select {
	case c.Send <- data:
		c.Hub.metrics.IncrementWSMessageOut()
		return true
	default:
		c.log.Warn().Msg("Client send queue is full, dropping message")
		return false
	}
}

func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// Frame implements viewport.Output
func (c *Client) Frame(f viewport.Frame) {
	c.SendMessage(newMessage(MessageFrame, f))
}

// Readout implements viewport.Output
func (c *Client) Readout(r viewport.Readout) {
	c.SendMessage(newMessage(MessageReadout, r))
}

// Marker implements viewport.Output
func (c *Client) Marker(m timeline.TimeMarker) {
	c.SendMessage(newMessage(MessageMarker, m))
}

// Items implements viewport.Output
func (c *Client) Items(n viewport.ItemsNotice) {
	c.SendMessage(newMessage(MessageItems, n))
}

// GetConnectionInfo returns information about this session
func (c *Client) GetConnectionInfo() map[string]interface{} {
	return map[string]interface{}{
		"session_id":   c.ID,
		"connected_at": c.ConnectedAt,
		"last_ping":    c.LastPing,
	}
}

package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"fxdesk/internal/domain"
	"fxdesk/internal/metrics"
	"fxdesk/internal/realtime"
	"fxdesk/pkg/logger"
)

const (
	streamWriteTimeout = 10 * time.Second
	streamPongTimeout  = 60 * time.Second
	streamPingInterval = 50 * time.Second
)

// StreamTables are the tables a client may watch
var StreamTables = domain.WatchedTables

// StreamHandler pushes change notifications to the app over a websocket.
// Events carry only the table and operation; the app refetches over the API.
type StreamHandler struct {
	feed     realtime.Feed
	upgrader websocket.Upgrader
	log      *logger.Logger
}

// NewStreamHandler creates a new StreamHandler
func NewStreamHandler(feed realtime.Feed) *StreamHandler {
	return &StreamHandler{
		feed: feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Mobile clients send no Origin header
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log: logger.Get().With("component", "stream"),
	}
}

// parseTables validates the tables query parameter. Empty means all tables.
func parseTables(raw string) ([]string, bool) {
	if strings.TrimSpace(raw) == "" {
		return StreamTables, true
	}

	allowed := make(map[string]bool, len(StreamTables))
	for _, t := range StreamTables {
		allowed[t] = true
	}

	var tables []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if !allowed[t] {
			return nil, false
		}
		tables = append(tables, t)
	}
	return tables, len(tables) > 0
}

// Stream upgrades the connection and relays change events until either side
// closes
// GET /api/stream?tables=trade_signals,trade_journal
func (h *StreamHandler) Stream(c echo.Context) error {
	tables, ok := parseTables(c.QueryParam("tables"))
	if !ok {
		return BadRequestResponse(c, "Unknown table in tables parameter")
	}

	ctx := c.Request().Context()
	sub, err := h.feed.Subscribe(ctx, tables...)
	if err != nil {
		return ServiceUnavailableResponse(c, "Change feed unavailable", err)
	}
	defer sub.Close()

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the error response
		h.log.Debugf("websocket upgrade failed: %v", err)
		return nil
	}
	defer conn.Close()

	metrics.WebSocketConnections.Inc()
	defer metrics.WebSocketConnections.Dec()

	// The read loop only handles control frames and notices the close
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		_ = conn.SetReadDeadline(time.Now().Add(streamPongTimeout))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(streamPongTimeout))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(streamPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return nil
		case <-ctx.Done():
			return nil
		case ev, ok := <-sub.Events():
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "feed closed"),
					time.Now().Add(streamWriteTimeout))
				return nil
			}
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				h.log.Debugf("websocket write failed: %v", err)
				return nil
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteTimeout)); err != nil {
				return nil
			}
		}
	}
}

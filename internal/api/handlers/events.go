package handlers

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pratik-mahalle/lexaudit/internal/events"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/logger"
)

const (
	streamBuffer    = 64
	streamWriteWait = 10 * time.Second
	streamPongWait  = 60 * time.Second
	streamPingEvery = streamPongWait * 9 / 10
)

// StreamMessage is the JSON frame sent to event stream clients
type StreamMessage struct {
	Type      string      `json:"type"`
	Event     string      `json:"event,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
	Dropped   uint64      `json:"dropped,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// EventsHandler streams engine events to websocket clients
type EventsHandler struct {
	bus      *events.Bus
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

// NewEventsHandler creates an events handler. Browser origins must be in
// allowedOrigins; "*" allows any origin.
func NewEventsHandler(bus *events.Bus, allowedOrigins []string, log *logger.Logger) *EventsHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return &EventsHandler{
		bus: bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
		logger: log,
	}
}

// Stream handles GET /api/v1/events/ws
// @Summary Stream compliance events
// @Description Upgrades to a websocket and forwards bus events. Filter with ?events=compliance.validated,compliance.predicted
// @Tags Events
// @Param events query string false "Comma separated event names"
// @Success 101
// @Security BearerAuth
// @Router /api/v1/events/ws [get]
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	wanted := make(map[string]bool)
	for _, name := range splitQuery(r.URL.Query().Get("events")) {
		wanted[name] = true
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	out := make(chan events.Event, streamBuffer)
	var dropped atomic.Uint64
	sub := h.bus.On(events.Wildcard, func(ev events.Event) {
		if len(wanted) > 0 && !wanted[ev.Name] {
			return
		}
		select {
		case out <- ev:
		default:
			dropped.Add(1)
		}
	})
	defer h.bus.Off(sub)

	log := h.logger.WithFields(map[string]interface{}{
		"remote": r.RemoteAddr,
		"filter": len(wanted),
	})
	log.Info("Event stream client connected")
	defer log.Info("Event stream client disconnected")

	// Clients only send control frames; reading keeps pong handling alive.
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := h.write(conn, StreamMessage{Type: "connected", Timestamp: time.Now().UTC()}); err != nil {
		return
	}

	ping := time.NewTicker(streamPingEvery)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Done():
			_ = h.write(conn, StreamMessage{Type: "closed", Timestamp: time.Now().UTC()})
			return
		case ev := <-out:
			msg := StreamMessage{
				Type:      "event",
				Event:     ev.Name,
				Payload:   ev.Payload,
				Dropped:   dropped.Swap(0),
				Timestamp: ev.Timestamp,
			}
			if err := h.write(conn, msg); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *EventsHandler) write(conn *websocket.Conn, msg StreamMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	return conn.WriteJSON(msg)
}

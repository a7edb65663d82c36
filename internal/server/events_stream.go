package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"

	"github.com/smasshh/finmate/internal/events"
	"github.com/smasshh/finmate/internal/requestctx"
	"github.com/smasshh/finmate/internal/utils"
)

const (
	streamBufferSize = 100
	streamHeartbeat  = 30 * time.Second
	streamWriteWait  = 10 * time.Second
)

// EventsStreamHandler streams bus events to websocket clients. A client only
// receives its own events plus broadcasts.
type EventsStreamHandler struct {
	eventBus       *events.Bus
	originPatterns []string
	log            zerolog.Logger
}

// NewEventsStreamHandler creates a new events stream handler. allowedOrigins are
// full origins ("http://localhost:5173"); "*" accepts any origin.
func NewEventsStreamHandler(eventBus *events.Bus, allowedOrigins []string, log zerolog.Logger) *EventsStreamHandler {
	return &EventsStreamHandler{
		eventBus:       eventBus,
		originPatterns: originPatterns(allowedOrigins),
		log:            log.With().Str("component", "events_stream").Logger(),
	}
}

// originPatterns converts origins into the host patterns websocket.Accept matches.
func originPatterns(origins []string) []string {
	var out []string
	for _, o := range origins {
		if o == "*" {
			return []string{"*"}
		}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			out = append(out, u.Host)
			continue
		}
		out = append(out, o)
	}
	return out
}

type streamMessage struct {
	Type      string      `json:"type"`
	ID        string      `json:"id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// ServeHTTP handles GET /api/events/ws
func (h *EventsStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := requestctx.UserID(r.Context())

	var allowedTypes map[string]bool
	if types := utils.ParseCSV(r.URL.Query().Get("types")); len(types) > 0 {
		allowedTypes = make(map[string]bool, len(types))
		for _, t := range types {
			allowedTypes[t] = true
		}
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	// Clients never send anything we act on; CloseRead handles control frames
	// and cancels ctx when the peer goes away.
	ctx := conn.CloseRead(r.Context())

	eventChan := make(chan events.Event, streamBufferSize)
	unsubscribe := h.eventBus.Subscribe(func(event events.Event) {
		if !event.Broadcast() && event.UserID != userID {
			return
		}
		if allowedTypes != nil && !allowedTypes[event.Type] {
			return
		}
		select {
		case eventChan <- event:
		default:
			h.log.Warn().
				Str("event_type", event.Type).
				Str("user_id", userID).
				Msg("Event channel full, dropping event")
		}
	})
	defer unsubscribe()

	h.log.Info().Str("user_id", userID).Msg("Client connected to event stream")

	if err := h.write(ctx, conn, streamMessage{Type: "connected", Timestamp: time.Now().UTC()}); err != nil {
		return
	}

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Info().Str("user_id", userID).Msg("Client disconnected from event stream")
			conn.Close(websocket.StatusNormalClosure, "")
			return

		case event := <-eventChan:
			msg := streamMessage{
				Type:      event.Type,
				ID:        event.ID,
				Timestamp: event.Timestamp,
				Data:      event.Data,
			}
			if err := h.write(ctx, conn, msg); err != nil {
				return
			}

		case <-heartbeat.C:
			if err := h.write(ctx, conn, streamMessage{Type: "heartbeat", Timestamp: time.Now().UTC()}); err != nil {
				return
			}
		}
	}
}

func (h *EventsStreamHandler) write(ctx context.Context, conn *websocket.Conn, msg streamMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error().Err(err).Str("event_type", msg.Type).Msg("Failed to marshal event")
		return nil
	}

	writeCtx, cancel := context.WithTimeout(ctx, streamWriteWait)
	defer cancel()
	if err := conn.Write(writeCtx, websocket.MessageText, data); err != nil {
		h.log.Debug().Err(err).Msg("Failed to write to event stream")
		return err
	}
	return nil
}

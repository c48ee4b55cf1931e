package api

import (
	"bufio"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"crewbox/models"
	"crewbox/utils"
)

// Event is a real-time push to connected UI clients
type Event struct {
	ID   string      `json:"id"`
	Type string      `json:"type"` // "record_update" or "mention"
	Data interface{} `json:"data"`
	Time time.Time   `json:"time"`
}

type subscriber struct {
	userID string
	ch     chan Event
}

// EventHub fans events out to SSE and WebSocket subscribers. Record updates
// go to everyone; mention events only to their recipient.
type EventHub struct {
	subscribers map[string]*subscriber
	mu          sync.RWMutex
	logger      *utils.Logger
}

// NewEventHub creates an event hub
func NewEventHub(logger *utils.Logger) *EventHub {
	return &EventHub{
		subscribers: make(map[string]*subscriber),
		logger:      logger,
	}
}

// HandleSSE streams events over Server-Sent Events
func (h *EventHub) HandleSSE(c *fiber.Ctx) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}

	// Set headers for SSE
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("Transfer-Encoding", "chunked")

	subscriberID := uuid.New().String()
	messageChan := h.subscribe(subscriberID, user.ID)

	h.logger.Info("SSE subscriber connected: %s", subscriberID)

	ctx := c.Context()
	ctx.SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer h.unsubscribe(subscriberID)

		// Keep-alive ticker
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case event := <-messageChan:
				data, _ := json.Marshal(event)
				w.WriteString("data: " + string(data) + "\n\n")
				if err := w.Flush(); err != nil {
					return
				}

			case <-ticker.C:
				// Send keep-alive comment
				w.WriteString(": keepalive\n\n")
				if err := w.Flush(); err != nil {
					return
				}

			case <-ctx.Done():
				return
			}
		}
	}))

	return nil
}

// Ping cadence matching the SSE keepalive; a vanished peer is noticed at
// the next ping even when no events flow.
const (
	wsPingInterval = 30 * time.Second
	wsWriteWait    = 10 * time.Second
)

// eventConn is the write surface of a WebSocket connection
type eventConn interface {
	WriteJSON(v interface{}) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
}

// HandleWebSocket streams events over a WebSocket connection. The user id is
// resolved by the upgrade middleware and stashed in Locals.
func (h *EventHub) HandleWebSocket(c *websocket.Conn) {
	userID, _ := c.Locals("userID").(string)

	subscriberID := uuid.New().String()
	messageChan := h.subscribe(subscriberID, userID)

	defer func() {
		h.unsubscribe(subscriberID)
		c.Close()
		h.logger.Info("WebSocket subscriber disconnected: %s", subscriberID)
	}()

	h.logger.Info("WebSocket subscriber connected: %s", subscriberID)

	h.writeEvents(c, messageChan, wsPingInterval)
}

// writeEvents pumps events to one connection until the channel closes or a
// write fails. Pings detect a dead peer between events.
func (h *EventHub) writeEvents(conn eventConn, events <-chan Event, pingInterval time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				h.logger.Error("Failed to send WebSocket event: %v", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}

// NotifyRecordUpdate pushes a changed record (with its live sync status) to
// every subscriber.
func (h *EventHub) NotifyRecordUpdate(rec models.EmailRecord) {
	h.broadcast(Event{Type: "record_update", Data: rec}, "")
}

// NotifyMention pushes a mention notification to its recipient only
func (h *EventHub) NotifyMention(n models.MentionNotification) {
	h.broadcast(Event{Type: "mention", Data: n}, n.UserID)
}

func (h *EventHub) subscribe(id, userID string) chan Event {
	ch := make(chan Event, 16)
	h.mu.Lock()
	h.subscribers[id] = &subscriber{userID: userID, ch: ch}
	h.mu.Unlock()
	return ch
}

func (h *EventHub) unsubscribe(id string) {
	h.mu.Lock()
	if sub, ok := h.subscribers[id]; ok {
		delete(h.subscribers, id)
		close(sub.ch)
	}
	h.mu.Unlock()
}

// broadcast sends an event to all subscribers, or to one user's subscribers
// when targetUserID is set.
func (h *EventHub) broadcast(event Event, targetUserID string) {
	event.ID = uuid.New().String()
	event.Time = time.Now()

	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, sub := range h.subscribers {
		if targetUserID != "" && sub.userID != targetUserID {
			continue
		}
		select {
		case sub.ch <- event:
			// Sent successfully
		default:
			// Channel full, skip this subscriber
			h.logger.Warn("Event channel full for subscriber %s", id)
		}
	}
}

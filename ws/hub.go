// Package ws pushes bookmark and discovery events to connected viewers over
// WebSocket, so every open gallery sees a bookmark the moment it is made.
package ws

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Topics and event types the service emits.
const (
	TopicBookmark  = "bookmark"
	TopicDiscovery = "discovery"
	TopicSync      = "sync"

	TypeBookmarkAdded   = "added"
	TypeBookmarkRemoved = "removed"
	TypeFound           = "found"
	TypeInitialState    = "initial_state"
)

// Per-viewer outbound buffer. A viewer that falls this far behind is cut.
const sendBuffer = 256

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Event is one message on the feed.
type Event struct {
	Topic string          `json:"topic"`
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
}

// command is what a viewer may send: subscribe, unsubscribe, request_sync.
type command struct {
	Type   string   `json:"type"`
	Topics []string `json:"topics,omitempty"`
}

// viewer is one open gallery connection.
type viewer struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	out  chan []byte

	mu     sync.RWMutex
	topics map[string]bool // nil: every topic
}

// Hub owns the set of viewers. Membership changes and fan-out happen on the
// Run goroutine; nothing slow runs there.
type Hub struct {
	viewers map[*viewer]struct{}
	mu      sync.RWMutex

	events  chan Event
	joins   chan *viewer
	leaves  chan *viewer
	stopped chan struct{}

	token string
	state func() interface{}
}

// NewHub creates a hub. A non-empty token is required from viewers as a
// bearer header or ?token= query parameter.
func NewHub(token string) *Hub {
	return &Hub{
		viewers: make(map[*viewer]struct{}),
		events:  make(chan Event, sendBuffer),
		joins:   make(chan *viewer),
		leaves:  make(chan *viewer),
		stopped: make(chan struct{}),
		token:   token,
	}
}

// Run serves membership changes and fans events out until ctx is done, then
// disconnects every viewer.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.stopped)
			h.mu.Lock()
			for v := range h.viewers {
				h.drop(v)
			}
			h.mu.Unlock()
			return

		case v := <-h.joins:
			h.mu.Lock()
			h.viewers[v] = struct{}{}
			n := len(h.viewers)
			h.mu.Unlock()
			log.Printf("[ws] viewer %s joined (%d open)", v.id, n)

		case v := <-h.leaves:
			h.mu.Lock()
			if _, ok := h.viewers[v]; ok {
				h.drop(v)
			}
			n := len(h.viewers)
			h.mu.Unlock()
			log.Printf("[ws] viewer %s left (%d open)", v.id, n)

		case ev := <-h.events:
			msg, err := json.Marshal(ev)
			if err != nil {
				log.Printf("[ws] encode %s/%s: %v", ev.Topic, ev.Type, err)
				continue
			}
			h.mu.Lock()
			for v := range h.viewers {
				if !v.wants(ev.Topic) {
					continue
				}
				select {
				case v.out <- msg:
				default:
					log.Printf("[ws] viewer %s is %d messages behind, disconnecting", v.id, sendBuffer)
					h.drop(v)
				}
			}
			h.mu.Unlock()
		}
	}
}

// drop removes v. h.mu must be held for writing.
func (h *Hub) drop(v *viewer) {
	delete(h.viewers, v)
	close(v.out)
}

// Broadcast queues ev for every subscribed viewer. It never blocks: when the
// queue is full the event is logged and discarded.
func (h *Hub) Broadcast(ev Event) {
	select {
	case h.events <- ev:
	default:
		log.Printf("[ws] queue full, discarding %s/%s", ev.Topic, ev.Type)
	}
}

// BroadcastRaw encodes data as the payload of a topic/type event.
func (h *Hub) BroadcastRaw(topic, eventType string, data interface{}) {
	raw, err := json.Marshal(data)
	if err != nil {
		log.Printf("[ws] encode %s/%s payload: %v", topic, eventType, err)
		return
	}
	h.Broadcast(Event{Topic: topic, Type: eventType, Data: raw})
}

// SetStateProvider sets the snapshot sent to each viewer on connect and on
// request_sync. It may be slow; it is never called from Run.
func (h *Hub) SetStateProvider(fn func() interface{}) {
	h.mu.Lock()
	h.state = fn
	h.mu.Unlock()
}

// ClientCount returns the number of connected viewers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.viewers)
}

// HandleWebSocket upgrades the request and joins the viewer. The snapshot is
// queued before the viewer joins, so it is always the first message.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade: %v", err)
		return
	}

	v := &viewer{
		id:   uuid.New().String()[:8],
		hub:  h,
		conn: conn,
		out:  make(chan []byte, sendBuffer),
	}
	if msg := h.snapshot(); msg != nil {
		v.out <- msg
	}

	select {
	case h.joins <- v:
	case <-h.stopped:
		conn.Close()
		return
	}

	go v.writeLoop()
	go v.readLoop()
}

func (h *Hub) authorized(r *http.Request) bool {
	if h.token == "" {
		return true
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		if subtle.ConstantTimeCompare([]byte(strings.TrimPrefix(auth, "Bearer ")), []byte(h.token)) == 1 {
			return true
		}
	}
	return subtle.ConstantTimeCompare([]byte(r.URL.Query().Get("token")), []byte(h.token)) == 1
}

// snapshot encodes the provider's state as an initial_state event, or
// returns nil when there is nothing to send.
func (h *Hub) snapshot() []byte {
	h.mu.RLock()
	provider := h.state
	h.mu.RUnlock()
	if provider == nil {
		return nil
	}

	state := provider()
	if state == nil {
		return nil
	}
	raw, err := json.Marshal(state)
	if err != nil {
		log.Printf("[ws] encode snapshot: %v", err)
		return nil
	}
	msg, err := json.Marshal(Event{Topic: TopicSync, Type: TypeInitialState, Data: raw})
	if err != nil {
		return nil
	}
	return msg
}

// resync sends a fresh snapshot to a viewer that is still connected.
func (h *Hub) resync(v *viewer) {
	msg := h.snapshot()
	if msg == nil {
		return
	}
	// Holding the read lock keeps Run from closing v.out mid-send.
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.viewers[v]; !ok {
		return
	}
	select {
	case v.out <- msg:
	default:
	}
}

func (v *viewer) wants(topic string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.topics == nil || v.topics[topic]
}

func (v *viewer) readLoop() {
	defer func() {
		select {
		case v.hub.leaves <- v:
		case <-v.hub.stopped:
		}
		v.conn.Close()
	}()
	for {
		_, msg, err := v.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[ws] viewer %s: %v", v.id, err)
			}
			return
		}
		v.handle(msg)
	}
}

func (v *viewer) writeLoop() {
	defer v.conn.Close()
	for msg := range v.out {
		if err := v.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// handle applies a viewer command. Malformed input is ignored.
func (v *viewer) handle(msg []byte) {
	var cmd command
	if err := json.Unmarshal(msg, &cmd); err != nil {
		return
	}
	switch cmd.Type {
	case "subscribe":
		v.mu.Lock()
		if v.topics == nil {
			v.topics = make(map[string]bool, len(cmd.Topics))
		}
		for _, t := range cmd.Topics {
			v.topics[t] = true
		}
		v.mu.Unlock()
	case "unsubscribe":
		v.mu.Lock()
		for _, t := range cmd.Topics {
			delete(v.topics, t)
		}
		v.mu.Unlock()
	case "request_sync":
		v.hub.resync(v)
	}
}

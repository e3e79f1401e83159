package checkin

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4 * 1024
)

type subscriber struct {
	eventID string
	userID  string
	conn    *websocket.Conn
	send    chan []byte
}

// Hub fans check-in events out to organizers watching an event. One organizer may hold
// several connections, e.g. one per door scanner.
type Hub struct {
	mu     sync.RWMutex
	events map[string]map[*subscriber]struct{}
}

func NewHub() *Hub {
	return &Hub{
		events: make(map[string]map[*subscriber]struct{}),
	}
}

func (h *Hub) register(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.events[s.eventID]
	if !ok {
		subs = make(map[*subscriber]struct{})
		h.events[s.eventID] = subs
	}
	subs[s] = struct{}{}
}

func (h *Hub) unregister(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.events[s.eventID]
	if !ok {
		return
	}
	if _, ok := subs[s]; !ok {
		return
	}
	delete(subs, s)
	close(s.send)
	if len(subs) == 0 {
		delete(h.events, s.eventID)
	}
}

// Broadcast queues ev for every subscriber of eventID and reports how many got it.
// Slow subscribers are skipped rather than blocking the caller.
func (h *Hub) Broadcast(eventID string, ev *FeedEvent) int {
	data, err := json.Marshal(ev)
	if err != nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for s := range h.events[eventID] {
		select {
		case s.send <- data:
			delivered++
		default:
		}
	}
	return delivered
}

func (h *Hub) SubscriberCount(eventID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.events[eventID])
}

// ServeWS attaches conn to eventID and blocks until the client goes away.
func (h *Hub) ServeWS(conn *websocket.Conn, eventID, userID string) {
	s := &subscriber{
		eventID: eventID,
		userID:  userID,
		conn:    conn,
		send:    make(chan []byte, 64),
	}
	h.register(s)

	go h.writePump(s)
	h.readPump(s)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for eventID, subs := range h.events {
		for s := range subs {
			close(s.send)
		}
		delete(h.events, eventID)
	}
}

// readPump only drains control frames; the feed is server to client.
func (h *Hub) readPump(s *subscriber) {
	defer func() {
		h.unregister(s)
		_ = s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMsgSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(s *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package ws

import (
	"encoding/json"
	"sync"

	"flip_royale/internal/domain"
	"flip_royale/internal/logger"
)

// Hub fans persisted records out to the sockets watching their address
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*Client]struct{})}
}

func (h *Hub) Subscribe(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[c.Address]
	if !ok {
		set = make(map[*Client]struct{})
		h.subs[c.Address] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) Unsubscribe(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[c.Address]
	if !ok {
		return
	}
	if _, ok := set[c]; ok {
		delete(set, c)
		if !c.closed {
			c.closed = true
			close(c.Send)
		}
	}
	if len(set) == 0 {
		delete(h.subs, c.Address)
	}
}

// Subscribers returns the number of sockets watching address
func (h *Hub) Subscribers(address string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[domain.NormalizeAddress(address)])
}

// Publish sends a record_updated event. Slow sockets are dropped rather than
// blocking the ledger.
func (h *Hub) Publish(rec *domain.UserRecord) {
	if rec == nil {
		return
	}
	msg, err := json.Marshal(Envelope{Type: MsgRecordUpdated, Data: rec})
	if err != nil {
		logger.Error("ws: marshal record", "error", err)
		return
	}

	h.mu.RLock()
	var slow []*Client
	for c := range h.subs[rec.ID] {
		select {
		case c.Send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		logger.Warn("ws: dropping slow subscriber", "address", c.Address)
		h.Unsubscribe(c)
	}
}

package ws

import (
	"encoding/json"
	"time"

	"flip_royale/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second
)

type Client struct {
	Address string
	Conn    *websocket.Conn
	Send    chan []byte

	Hub    *Hub
	closed bool // guarded by Hub.mu
}

func NewClient(address string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		Address: address,
		Conn:    conn,
		Send:    make(chan []byte, 64),
		Hub:     hub,
	}
}

// Run subscribes the client and pumps until the socket closes
func (c *Client) Run() {
	c.Hub.Subscribe(c)
	go c.writePump()

	ready, _ := json.Marshal(Envelope{Type: MsgReady, Data: map[string]string{"address": c.Address}})
	c.trySend(ready)

	c.readPump()
}

// trySend queues msg unless the client was dropped or its buffer is full
func (c *Client) trySend(msg []byte) bool {
	c.Hub.mu.RLock()
	defer c.Hub.mu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- msg:
		return true
	default:
		return false
	}
}

//read
func (c *Client) readPump() {
	defer func() {
		c.Hub.Unsubscribe(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(1024)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("ws read error", "address", c.Address, "error", err)
			}
			return
		}

		var in Envelope
		if json.Unmarshal(msg, &in) == nil && in.Type == MsgPing {
			pong, _ := json.Marshal(Envelope{Type: MsgPong})
			c.trySend(pong)
		}
	}
}

//write
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("ws write error", "address", c.Address, "error", err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package gateway

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second    // max time to flush one outbound frame
	pongWait       = 60 * time.Second    // read deadline, refreshed by pongs
	pingPeriod     = (pongWait * 9) / 10 // must fire before pongWait elapses
	maxMessageSize = 1 << 16
	sendBuffer     = 32
)

// envelope is the wire format: every frame is {"event": ..., "data": ...}.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client is one live socket connection. Its lifetime is exactly one
// physical connection; a reconnecting user always gets a fresh Client with
// a fresh id.
//
// The send channel is never closed: broadcasters may race with teardown,
// and writing to a closed channel panics. Teardown is signalled via done
// instead, and close() is idempotent.
type Client struct {
	ID     string
	UserID uint64

	conn      *websocket.Conn
	send      chan envelope
	done      chan struct{}
	closeOnce sync.Once
}

func newClient(id string, userID uint64, conn *websocket.Conn) *Client {
	return &Client{
		ID:     id,
		UserID: userID,
		conn:   conn,
		send:   make(chan envelope, sendBuffer),
		done:   make(chan struct{}),
	}
}

// close tears the connection down. Safe to call from any goroutine, any
// number of times.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

// enqueue hands a frame to the write pump without blocking. Frames for a
// slow or closing client are dropped; real-time events are worthless late.
func (c *Client) enqueue(ev envelope) {
	select {
	case <-c.done:
	case c.send <- ev:
	default:
		log.Printf("gateway: dropping frame for slow client socket=%s event=%s", c.ID, ev.Event)
	}
}

// writePump serialises all writes to the connection and keeps it alive
// with periodic pings. Exactly one writePump runs per Client.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()
	for {
		select {
		case <-c.done:
			return
		case ev := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads frames until the connection dies and feeds them to
// handle. It blocks the caller; when it returns the connection is gone.
func (c *Client) readPump(handle func(envelope)) {
	defer c.close()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var ev envelope
		if err := json.Unmarshal(raw, &ev); err != nil || ev.Event == "" {
			continue // malformed frames are ignored, not fatal
		}
		handle(ev)
	}
}

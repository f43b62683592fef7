package server

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"satoshi-drop/src/models"
)

// -----------------------------------------------------------------------------
// Constants
// -----------------------------------------------------------------------------

const (
	writeWait      = 2 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024 // commands are tiny
)

// -----------------------------------------------------------------------------
// Client Structure
// -----------------------------------------------------------------------------

type Client struct {
	hub    *DisplayServer
	conn   *websocket.Conn
	send   chan models.MDisplayData
	remote string

	mu     sync.RWMutex
	topics map[string]bool // empty means everything
}

// -----------------------------------------------------------------------------

func newClient(hub *DisplayServer, conn *websocket.Conn, remote string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan models.MDisplayData, hub.clientBuffer),
		remote: remote,
	}
}

// -----------------------------------------------------------------------------

// setTopics restricts pushes to the known topics listed. Unknown names are
// ignored; an empty list restores everything.
func (c *Client) setTopics(topics []string) {
	set := make(map[string]bool, len(topics))
	for _, t := range topics {
		if t == models.TopicCountdown || t == models.TopicPrice {
			set[t] = true
		}
	}
	c.mu.Lock()
	c.topics = set
	c.mu.Unlock()
}

// -----------------------------------------------------------------------------

// wants reports whether an update of the given type should reach the client.
func (c *Client) wants(kind string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.topics) == 0 {
		return true
	}
	switch kind {
	case models.DisplayCountdown:
		return c.topics[models.TopicCountdown]
	case models.DisplayPrice:
		return c.topics[models.TopicPrice]
	default:
		return true
	}
}

// -----------------------------------------------------------------------------
// readPump - handles incoming messages from client
// Act as a Watchdog for the connection
// -----------------------------------------------------------------------------

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.quit:
		}
		c.conn.Close()
		c.hub.Logger.Debug("Client %s disconnected", c.remote)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.Logger.Info("WebSocket error: %v", err)
			}
			break
		}
		c.hub.HandleClientMessage(c, message)
	}
}

// -----------------------------------------------------------------------------
// writePump - sends messages to client
// -----------------------------------------------------------------------------

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.hub.Logger.Info("Write error: %v", err)
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

package server

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"satoshi-drop/src/models"
)

// directMessage is a reply addressed to a single client.
type directMessage struct {
	client  *Client
	payload models.MDisplayData
}

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// run is the hub loop. It alone touches s.clients and closes client.send.
func (s *DisplayServer) run() {
	defer close(s.hubDone)

	for {
		select {
		case client := <-s.register:
			s.clients[client] = struct{}{}
			s.setClientCount()
			// Send initial state on connect
			s.deliver(client, s.snapshot())

		case client := <-s.unregister:
			s.drop(client)

		case msg := <-s.direct:
			if _, ok := s.clients[msg.client]; ok {
				s.deliver(msg.client, msg.payload)
			}

		case message := <-s.broadcast:
			for client := range s.clients {
				if client.wants(message.Type) {
					s.deliver(client, message)
				}
			}

		case <-s.quit:
			for client := range s.clients {
				s.drop(client)
			}
			return
		}
	}
}

// -----------------------------------------------------------------------------

// deliver queues payload for client, disconnecting it when its buffer is full.
func (s *DisplayServer) deliver(client *Client, payload models.MDisplayData) {
	select {
	case client.send <- payload:
	default:
		s.Logger.Warning("Client %s too slow, disconnecting", client.remote)
		s.drop(client)
	}
}

// -----------------------------------------------------------------------------

func (s *DisplayServer) drop(client *Client) {
	if _, ok := s.clients[client]; !ok {
		return
	}
	delete(s.clients, client)
	close(client.send)
	s.setClientCount()
}

// -----------------------------------------------------------------------------

func (s *DisplayServer) setClientCount() {
	s.clientCount.Store(int64(len(s.clients)))
	s.metrics.SetClients(len(s.clients))
}

// -----------------------------------------------------------------------------

func (s *DisplayServer) snapshot() models.MDisplayData {
	if s.store == nil {
		return models.MDisplayData{Type: models.DisplayInitial}
	}
	return s.store.Snapshot()
}

// -----------------------------------------------------------------------------
// Data Exchange Interface Implementation
// -----------------------------------------------------------------------------

// Broadcast queues an update for every subscribed client. It never blocks:
// when the queue is full the update is dropped, the next one supersedes it.
func (s *DisplayServer) Broadcast(update models.MDisplayData) {
	select {
	case s.broadcast <- update:
	case <-s.quit:
	default:
		s.Logger.Warning("Broadcast queue full, dropping %s update", update.Type)
	}
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

func newUpgrader(origins []string) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(origins),
	}
}

// -----------------------------------------------------------------------------

func (s *DisplayServer) handleWebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := newClient(s, conn, c.ClientIP())

	select {
	case s.register <- client:
	case <-s.quit:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

// HandleClientMessage applies a subscribe or snapshot command. Malformed JSON
// disconnects the client.
func (s *DisplayServer) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MClientCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	switch cmd.Command {
	case "subscribe":
		client.setTopics(cmd.Topics)
	case "snapshot":
	default:
		s.Logger.Debug("Ignoring unknown command %q", cmd.Command)
		return
	}

	select {
	case s.direct <- directMessage{client: client, payload: s.snapshot()}:
	case <-s.quit:
	}
}

package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"
)

const (
	sendBuffer   = 64
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

// Notifier delivers server messages to logged-in players. Delivery is fire
// and forget: a player without a live connection simply misses the message.
type Notifier interface {
	Notify(playerID int, msg ServerMessage)
	Broadcast(msg ServerMessage) int
}

// Client is one websocket connection. Writes go through a buffered channel
// drained by a single writer goroutine.
type Client struct {
	ID     string
	socket *websocket.Conn
	send   chan ServerMessage
	done   chan struct{}
	once   sync.Once
}

func NewClient(id string, socket *websocket.Conn) *Client {
	return &Client{
		ID:     id,
		socket: socket,
		send:   make(chan ServerMessage, sendBuffer),
		done:   make(chan struct{}),
	}
}

// Send queues msg without blocking. It reports false when the client is
// closed or its buffer is full.
func (c *Client) Send(msg ServerMessage) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- msg:
		return true
	case <-c.done:
		return false
	default:
		log.Warn().Str("conn", c.ID).Str("event", msg.Type).Msg("Send buffer full, dropping message")
		return false
	}
}

func (c *Client) Close() {
	c.once.Do(func() { close(c.done) })
}

// writePump writes queued messages and keeps the connection alive with
// pings until ctx ends or the client is closed.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.send:
			if err := c.write(ctx, msg); err != nil {
				log.Info().Str("conn", c.ID).Err(err).Msg("Write failed")
				c.Close()
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.socket.Ping(pingCtx)
			cancel()
			if err != nil {
				log.Info().Str("conn", c.ID).Err(err).Msg("Ping failed")
				c.Close()
				return
			}
		case <-c.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) write(ctx context.Context, msg ServerMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.socket.Write(ctx, websocket.MessageText, data)
}

type ConnectionManager struct {
	clients map[string]*Client // connectionID -> client
	players map[int]string     // playerID -> connectionID
	owners  map[string]int     // connectionID -> playerID
	mu      sync.RWMutex
}

func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		clients: make(map[string]*Client),
		players: make(map[int]string),
		owners:  make(map[string]int),
	}
}

func (cm *ConnectionManager) AddClient(c *Client) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.clients[c.ID] = c
}

// RemoveClient drops a connection and returns the player still bound to it,
// or 0.
func (cm *ConnectionManager) RemoveClient(connectionID string) int {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	delete(cm.clients, connectionID)
	playerID, bound := cm.owners[connectionID]
	if !bound {
		return 0
	}
	delete(cm.owners, connectionID)
	if cm.players[playerID] == connectionID {
		delete(cm.players, playerID)
	}
	return playerID
}

// Bind attaches a player to a connection. A connection previously bound to
// the same player is detached and returned so the caller can tell it.
func (cm *ConnectionManager) Bind(connectionID string, playerID int) (previous *Client) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if oldConn, exists := cm.players[playerID]; exists && oldConn != connectionID {
		delete(cm.owners, oldConn)
		previous = cm.clients[oldConn]
	}
	cm.players[playerID] = connectionID
	cm.owners[connectionID] = playerID
	return previous
}

func (cm *ConnectionManager) Unbind(connectionID string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	playerID, bound := cm.owners[connectionID]
	if !bound {
		return
	}
	delete(cm.owners, connectionID)
	if cm.players[playerID] == connectionID {
		delete(cm.players, playerID)
	}
}

// PlayerOf returns the player bound to a connection, or 0.
func (cm *ConnectionManager) PlayerOf(connectionID string) int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.owners[connectionID]
}

func (cm *ConnectionManager) GetClient(connectionID string) *Client {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.clients[connectionID]
}

func (cm *ConnectionManager) Count() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.clients)
}

func (cm *ConnectionManager) Notify(playerID int, msg ServerMessage) {
	cm.mu.RLock()
	client := cm.clients[cm.players[playerID]]
	cm.mu.RUnlock()

	if client != nil {
		client.Send(msg)
	}
}

// Broadcast queues msg on every open connection, logged in or not.
func (cm *ConnectionManager) Broadcast(msg ServerMessage) int {
	cm.mu.RLock()
	clients := make([]*Client, 0, len(cm.clients))
	for _, c := range cm.clients {
		clients = append(clients, c)
	}
	cm.mu.RUnlock()

	sent := 0
	for _, c := range clients {
		if c.Send(msg) {
			sent++
		}
	}
	return sent
}

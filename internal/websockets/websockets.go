// Package websockets pushes event bus traffic to connected admin clients.
package websockets

import (
	"context"
	"encoding/json"
	"sync"
	"testlab/internal/events"
	"testlab/internal/logger"
	"testlab/internal/metrics"
	. "testlab/internal/models"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeTimeout = 5 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = 50 * time.Second
	authTimeout  = 5 * time.Second

	TypeConnected = "connected"
)

// Conn is the part of a websocket connection the manager writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	SetWriteDeadline(t time.Time) error
	SetReadDeadline(t time.Time) error
	Close() error
}

// Authorizer re-checks a listener's role before each delivery.
type Authorizer interface {
	IsAdmin(ctx context.Context, caller Caller) (bool, error)
}

type Client struct {
	ID        string
	Principal string
	conn      Conn
	mu        sync.Mutex
}

func (c *Client) write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}

type Manager struct {
	clients      map[string]*Client
	mu           sync.RWMutex
	unsubscribes []func()
	authorizer   Authorizer
	metrics      *metrics.Metrics
	log          logger.Logger
}

func New(eventBus *events.EventBus, authorizer Authorizer, metrics *metrics.Metrics) *Manager {
	m := &Manager{
		clients:    make(map[string]*Client),
		authorizer: authorizer,
		metrics:    metrics,
		log:        logger.New("websockets"),
	}

	for _, channel := range []string{events.ChannelInvalidation, events.ChannelBroadcast} {
		m.unsubscribes = append(m.unsubscribes, eventBus.Subscribe(channel, m.Broadcast))
	}

	return m
}

// HandleWebSocket serves one connection until the peer goes away. principal
// has already been authorized by the upgrade route.
func (m *Manager) HandleWebSocket(conn *websocket.Conn) {
	principal, _ := conn.Locals("principal").(string)
	m.Serve(conn, principal)
}

func (m *Manager) Serve(conn Conn, principal string) {
	client := &Client{ID: uuid.NewString(), Principal: principal, conn: conn}
	log := m.log.Function("Serve").With("clientID", client.ID, "principal", principal)

	m.register(client)
	defer m.unregister(client)

	hello, _ := json.Marshal(events.Event{
		ID:        uuid.NewString(),
		Type:      TypeConnected,
		Data:      map[string]any{"clientId": client.ID},
		Timestamp: time.Now(),
	})
	if err := client.write(websocket.TextMessage, hello); err != nil {
		log.Warn("failed to greet client", "error", err)
		return
	}

	done := make(chan struct{})
	defer close(done)
	go m.ping(client, done)

	for {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		if _, _, err := conn.ReadMessage(); err != nil {
			log.Debug("client disconnected", "error", err)
			return
		}
	}
}

func (m *Manager) ping(client *Client, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := client.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Broadcast sends event to every client that is still an admin. Clients
// that lost the role or fail a write are dropped.
func (m *Manager) Broadcast(event events.Event) {
	log := m.log.Function("Broadcast")

	payload, err := json.Marshal(event)
	if err != nil {
		log.Er("failed to marshal event", err, "eventID", event.ID)
		return
	}

	m.mu.RLock()
	clients := make([]*Client, 0, len(m.clients))
	for _, client := range m.clients {
		clients = append(clients, client)
	}
	m.mu.RUnlock()

	for _, client := range clients {
		allowed, err := m.allowed(client)
		if err != nil {
			log.Warn("skipping client, role check failed", "clientID", client.ID, "error", err)
			continue
		}
		if !allowed {
			log.Info("Closing connection of former admin", "clientID", client.ID, "principal", client.Principal)
			m.unregister(client)
			continue
		}

		if err := client.write(websocket.TextMessage, payload); err != nil {
			log.Warn("dropping client after failed write", "clientID", client.ID, "error", err)
			m.unregister(client)
		}
	}
}

func (m *Manager) allowed(client *Client) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
	defer cancel()
	return m.authorizer.IsAdmin(ctx, NewCaller(client.Principal))
}

func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

func (m *Manager) Close() {
	for _, unsubscribe := range m.unsubscribes {
		unsubscribe()
	}

	m.mu.Lock()
	clients := m.clients
	m.clients = make(map[string]*Client)
	m.mu.Unlock()

	for _, client := range clients {
		_ = client.conn.Close()
	}
	m.metrics.SetWebSocketClients(0)
}

func (m *Manager) register(client *Client) {
	m.mu.Lock()
	m.clients[client.ID] = client
	count := len(m.clients)
	m.mu.Unlock()

	m.metrics.SetWebSocketClients(count)
	m.log.Function("register").Info("Client connected", "clientID", client.ID, "principal", client.Principal)
}

func (m *Manager) unregister(client *Client) {
	m.mu.Lock()
	_, ok := m.clients[client.ID]
	delete(m.clients, client.ID)
	count := len(m.clients)
	m.mu.Unlock()

	if ok {
		_ = client.conn.Close()
		m.metrics.SetWebSocketClients(count)
	}
}

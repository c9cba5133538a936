package services

import (
	"encoding/json"
	"sync"

	"github.com/bellapacxx/roulette-backend/utils/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Publisher is the fire-and-forget real-time channel the pipeline
// emits into. There is no acknowledgment or backpressure contract.
type Publisher interface {
	Broadcast(event string, payload interface{})
}

// Hub fans decoded pipeline events out to websocket clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

// Register attaches a new websocket connection and starts its pumps.
func (h *Hub) Register(conn *websocket.Conn) *Client {
	client := &Client{
		id:   uuid.NewString(),
		conn: conn,
		hub:  h,
		send: make(chan []byte, 32),
	}

	h.mu.Lock()
	h.clients[client.id] = client
	total := len(h.clients)
	h.mu.Unlock()

	go client.writePump()
	go client.readPump()

	logger.Infof("[Hub] client %s connected (total=%d)", client.id, total)
	return client
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	client, ok := h.clients[id]
	if ok {
		delete(h.clients, id)
	}
	h.mu.Unlock()

	if ok {
		client.Close()
		logger.Infof("[Hub] client %s disconnected", id)
	}
}

// ClientCount reports currently connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

type envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Broadcast sends one topic event to every connected client. Slow
// clients get dropped messages, never a blocked pipeline.
func (h *Hub) Broadcast(event string, payload interface{}) {
	b, err := json.Marshal(envelope{Event: event, Data: payload})
	if err != nil {
		logger.Errorf("[Hub] marshal %s event: %v", event, err)
		return
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if !c.trySend(b) {
			logger.Warnf("[Hub] dropping %s event to client %s", event, c.id)
		}
	}
}

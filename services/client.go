package services

import (
	"sync"

	"github.com/bellapacxx/roulette-backend/utils/logger"

	"github.com/gorilla/websocket"
)

// Client is one websocket subscriber. The feed is one-way; inbound
// messages are read only to keep the connection alive.
type Client struct {
	id   string
	conn *websocket.Conn
	hub  *Hub

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()

	c.conn.Close()
}

// trySend queues msg without blocking. It returns false when the
// client is already closed or its buffer is full; the send channel is
// only ever closed with mu held, so a send can never race the close.
func (c *Client) trySend(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) readPump() {
	defer c.hub.remove(c.id)

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debugf("[Client %s] disconnected normally", c.id)
			} else {
				logger.Debugf("[Client %s] read error: %v", c.id, err)
			}
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			logger.Debugf("[Client %s] write error: %v", c.id, err)
			return
		}
	}
}

package websocket

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/richxcame/busymap/pkg/logger"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024 // 64KB
)

// Message is the wire envelope for both directions. Data carries the
// type-specific payload and is decoded by the consumer.
type Message struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage builds an outbound message, marshaling the payload.
func NewMessage(msgType string, payload interface{}) (*Message, error) {
	var data json.RawMessage
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		data = raw
	}
	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}, nil
}

// Client owns one WebSocket connection. Inbound messages are delivered
// on the Inbound channel, which is closed when the peer goes away.
type Client struct {
	ID      string
	Conn    *websocket.Conn
	Send    chan *Message
	Inbound chan *Message
}

// NewClient wraps an upgraded connection
func NewClient(id string, conn *websocket.Conn) *Client {
	return &Client{
		ID:      id,
		Conn:    conn,
		Send:    make(chan *Message, 256),
		Inbound: make(chan *Message, 64),
	}
}

// ReadPump reads messages from the connection into Inbound until the
// peer disconnects or a read error occurs.
func (c *Client) ReadPump() {
	defer func() {
		close(c.Inbound)
		c.Conn.Close()
	}()

	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		err := c.Conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.Error("websocket read error",
					zap.String("client_id", c.ID),
					zap.Error(err),
				)
			}
			return
		}

		msg.Timestamp = time.Now().UTC()
		c.Inbound <- &msg
	}
}

// WritePump writes outbound messages and keepalive pings to the
// connection until Send is closed or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteJSON(message); err != nil {
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

// SendMessage queues a message for delivery. A full queue means the
// peer has stopped consuming, so the message is dropped rather than
// blocking the caller.
func (c *Client) SendMessage(msg *Message) bool {
	select {
	case c.Send <- msg:
		return true
	default:
		logger.Warn("websocket send queue full, dropping message",
			zap.String("client_id", c.ID),
			zap.String("type", msg.Type),
		)
		return false
	}
}

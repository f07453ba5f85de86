package server

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
)

type Client struct {
	id     string
	conn   *websocket.Conn
	server *RoomServer
	log    *log.Logger

	// outbox is unbounded and drained by Write.
	mu     sync.Mutex
	outbox []*ServerMessage
	ready  chan struct{}

	stop     chan struct{}
	stopOnce sync.Once
}

func NewClient(id string, conn *websocket.Conn, rs *RoomServer, l *log.Logger) *Client {
	return &Client{
		id:     id,
		conn:   conn,
		server: rs,
		log:    l,
		ready:  make(chan struct{}, 1),
		stop:   make(chan struct{}),
	}
}

func (c *Client) Id() string {
	return c.id
}

func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.ready:
			for _, msg := range c.takeQueued() {
				bytes, err := serializeMessage(msg)
				if err != nil {
					c.log.Println("failed to serialize message:", err)
					continue
				}

				if !c.sendMessage(websocket.TextMessage, bytes) {
					return
				}
			}
		case <-c.stop:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		case <-ticker.C:
			if !c.sendMessage(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *Client) Read() {
	defer func() {
		c.conn.Close()
		c.server.deregister(c)
		c.stopClient()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("ws: read: %v", err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil || msg.Event == "" {
			c.log.Printf("error parsing message from %q: %v", c.id, err)
			c.queueMessage(ErrInvalidMessage())
			continue
		}

		msg.client = c
		if !c.server.dispatch(&msg) {
			return
		}
	}
}

// queueMessage appends msg to the outbox without blocking and wakes the
// write pump.
func (c *Client) queueMessage(msg *ServerMessage) {
	c.mu.Lock()
	c.outbox = append(c.outbox, msg)
	c.mu.Unlock()

	select {
	case c.ready <- struct{}{}:
	default:
	}
}

// takeQueued empties the outbox and returns its messages in queue order.
func (c *Client) takeQueued() []*ServerMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	msgs := c.outbox
	c.outbox = nil
	return msgs
}

func (c *Client) sendMessage(msgType int, msg []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Printf("write message: %s", err)
		}
		return false
	}

	return true
}

func (c *Client) stopClient() {
	c.stopOnce.Do(func() { close(c.stop) })
}

package ws

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/gorilla/websocket"
)

// Common errors.
var (
	ErrClientClosed  = errors.New("client is closed")
	ErrSendQueueFull = errors.New("client send queue is full")
)

// Conn abstracts a WebSocket connection for testability.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client wraps one participant's transport channel. Outbound messages
// go through a buffered queue drained by a single writer goroutine, so
// each peer sees messages in the order they were enqueued and a slow
// peer never blocks a broadcast. A client whose queue overflows is
// closed rather than silently losing committed operations.
type Client struct {
	// SessionID is the server-minted connection identity. The
	// participant id is client-supplied and set at registration.
	SessionID string

	conn Conn
	send chan []byte
	done chan struct{}
	once sync.Once

	mu     sync.Mutex
	userID string
	name   string
	color  string
	roomID string
}

// NewClient creates a client wrapper and starts its writer goroutine.
func NewClient(sessionID string, conn Conn, queueSize int) *Client {
	if queueSize <= 0 {
		queueSize = 64
	}

	c := &Client{
		SessionID: sessionID,
		conn:      conn,
		send:      make(chan []byte, queueSize),
		done:      make(chan struct{}),
	}

	go c.writeLoop()

	return c
}

// writeLoop drains the send queue onto the transport.
func (c *Client) writeLoop() {
	for {
		select {
		case data := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				_ = c.Close()

				return
			}
		case <-c.done:
			return
		}
	}
}

// Send marshals a message and enqueues it for delivery.
func (c *Client) Send(msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return c.SendRaw(data)
}

// SendRaw enqueues pre-serialized bytes for delivery. It never blocks:
// if the queue is full the client is closed and ErrSendQueueFull is
// returned.
func (c *Client) SendRaw(data []byte) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return ErrClientClosed
	default:
		_ = c.Close()

		return ErrSendQueueFull
	}
}

// ReadMessage reads the next raw message from the transport.
func (c *Client) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()

	return data, err
}

// Close stops the writer goroutine and closes the transport.
// It is safe to call more than once.
func (c *Client) Close() error {
	var err error

	c.once.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})

	return err
}

// Closed reports whether the client has been closed.
func (c *Client) Closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// SetIdentity records the participant identity supplied at registration.
func (c *Client) SetIdentity(userID, name, color string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.userID = userID
	c.name = name
	c.color = color
}

// UserID returns the client-supplied participant id.
func (c *Client) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.userID
}

// User returns the roster entry for this client.
func (c *Client) User() User {
	c.mu.Lock()
	defer c.mu.Unlock()

	return User{UserID: c.userID, Name: c.name, Color: c.color}
}

// RoomID returns the room the client is currently a member of.
func (c *Client) RoomID() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.roomID
}

// SetRoomID sets the room the client is currently a member of.
func (c *Client) SetRoomID(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.roomID = roomID
}

package network

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"

	"tilecraft/server/messages"
)

// ErrConnectionClosed is returned by Send after Close
var ErrConnectionClosed = errors.New("connection closed")

// ErrSendBufferFull is returned by Send when the peer is not keeping up
var ErrSendBufferFull = errors.New("send buffer full")

// MaxFrameSize is the default read limit for one websocket frame
const MaxFrameSize = 32 << 20

// Peer is anything messages can be sent to
type Peer interface {
	ID() string
	Send(msg messages.Message) error
}

// Connection wraps the WebSocket connection with additional fields
type Connection struct {
	id        string
	ws        *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	readLimit int64
}

// NewConnection creates a new connection wrapper
func NewConnection(ws *websocket.Conn) *Connection {
	return &Connection{
		id:        ulid.Make().String(),
		ws:        ws,
		send:      make(chan []byte, 256), // Buffered channel for outgoing messages
		done:      make(chan struct{}),
		readLimit: MaxFrameSize,
	}
}

// Dial opens a client connection to a server
func Dial(ctx context.Context, url string) (*Connection, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return NewConnection(ws), nil
}

// ID returns the connection's unique identifier
func (c *Connection) ID() string {
	return c.id
}

// Done is closed once the connection is closed
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// SetReadLimit caps the size of inbound frames. A larger frame closes the
// connection. Call it before ReadPump.
func (c *Connection) SetReadLimit(limit int64) {
	c.readLimit = limit
}

// ReadPump reads binary frames from the WebSocket connection until it fails
func (c *Connection) ReadPump(h MessageHandler) {
	defer c.Close()
	c.ws.SetReadLimit(c.readLimit)

	for {
		kind, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Error reading message: %v", err)
			}
			return
		}
		if kind != websocket.BinaryMessage {
			continue
		}

		// Handle the incoming message
		h.HandleMessage(c, message)
	}
}

// WritePump writes queued frames to the WebSocket connection
func (c *Connection) WritePump() {
	defer c.ws.Close()

	for {
		select {
		case message := <-c.send:
			if err := c.ws.WriteMessage(websocket.BinaryMessage, message); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// Send queues a message for the write pump
func (c *Connection) Send(msg messages.Message) error {
	frame := messages.Encode(msg)

	select {
	case <-c.done:
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- frame:
		return nil
	default:
		// If the send channel is full, close the connection
		c.Close()
		return ErrSendBufferFull
	}
}

// Close stops both pumps. It is safe to call more than once.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// MessageHandler interface for handling messages
type MessageHandler interface {
	HandleMessage(conn *Connection, message []byte)
}

package network

import "sync"

// Envelope is one raw inbound frame and the peer it came from
type Envelope struct {
	From Peer
	Data []byte
}

// Inbox queues inbound frames from the read pumps until the tick loop drains them
type Inbox struct {
	mutex   sync.Mutex
	pending []Envelope
}

// NewInbox creates an empty inbox
func NewInbox() *Inbox {
	return &Inbox{}
}

// Push queues a frame
func (in *Inbox) Push(from Peer, data []byte) {
	in.mutex.Lock()
	in.pending = append(in.pending, Envelope{From: from, Data: data})
	in.mutex.Unlock()
}

// Drain returns every queued frame in arrival order and empties the inbox
func (in *Inbox) Drain() []Envelope {
	in.mutex.Lock()
	defer in.mutex.Unlock()

	out := in.pending
	in.pending = nil
	return out
}

// HandleMessage lets an Inbox serve directly as a connection's MessageHandler
func (in *Inbox) HandleMessage(conn *Connection, message []byte) {
	in.Push(conn, message)
}

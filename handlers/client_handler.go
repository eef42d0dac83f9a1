package handlers

import (
	"log"

	"github.com/gorilla/websocket"

	"tilecraft/server/network"
)

// maxRequestFrame caps inbound client frames. Requests carry at most one
// tile or one item record.
const maxRequestFrame = 64 << 10

// HandleClientConnection registers a new client and pumps its frames into
// inbox until the connection drops
func HandleClientConnection(wsConn *websocket.Conn, inbox *network.Inbox, clientManager *ClientManager) {
	conn := network.NewConnection(wsConn)
	conn.SetReadLimit(maxRequestFrame)
	log.Printf("New connection %s from %s", conn.ID(), wsConn.RemoteAddr())

	clientManager.AddClient(conn)

	// Start the write pump in a goroutine
	go conn.WritePump()

	// Handle the read pump in the current goroutine
	conn.ReadPump(inbox)

	// Clean up when the connection is closed
	clientManager.RemoveClient(conn.ID())
	log.Printf("Client %s disconnected", conn.ID())
}

package handlers

import (
	"log"
	"sync"

	"tilecraft/server/messages"
	"tilecraft/server/network"
)

// ClientManager manages connected clients
type ClientManager struct {
	clients map[string]network.Peer // Map connection ID to peer
	mutex   sync.RWMutex
}

// NewClientManager creates a new client manager
func NewClientManager() *ClientManager {
	return &ClientManager{
		clients: make(map[string]network.Peer),
	}
}

// AddClient adds a client to the manager
func (cm *ClientManager) AddClient(peer network.Peer) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	cm.clients[peer.ID()] = peer
}

// RemoveClient removes a client from the manager
func (cm *ClientManager) RemoveClient(id string) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	delete(cm.clients, id)
}

// Count returns the number of connected clients
func (cm *ClientManager) Count() int {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	return len(cm.clients)
}

// BroadcastToAll sends a message to all connected clients
func (cm *ClientManager) BroadcastToAll(msg messages.Message) {
	cm.ExecuteOnAllClients(func(client network.Peer) {
		if err := client.Send(msg); err != nil {
			log.Printf("Error broadcasting to client %s: %v", client.ID(), err)
		}
	})
}

// BroadcastToOthers sends a message to all connected clients except the specified one
func (cm *ClientManager) BroadcastToOthers(excludeID string, msg messages.Message) {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	for id, client := range cm.clients {
		if id == excludeID {
			continue
		}
		if err := client.Send(msg); err != nil {
			log.Printf("Error broadcasting to client %s: %v", id, err)
		}
	}
}

// ExecuteOnAllClients executes a function for each connected client
func (cm *ClientManager) ExecuteOnAllClients(action func(network.Peer)) {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	for _, client := range cm.clients {
		action(client)
	}
}

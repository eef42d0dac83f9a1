package handlers

import (
	"context"
	"log"
	"time"

	"tilecraft/server/messages"
	"tilecraft/server/models"
	"tilecraft/server/network"
	"tilecraft/server/services"
)

// Loop is the server's single tick goroutine. It is the only code that
// touches the world.
type Loop struct {
	world    *services.WorldService
	clients  *ClientManager
	inbox    *network.Inbox
	interval time.Duration
	autosave time.Duration
	logger   *log.Logger
}

// NewLoop creates a server loop. A nil logger logs to the standard logger.
func NewLoop(world *services.WorldService, clients *ClientManager, inbox *network.Inbox, interval, autosave time.Duration, logger *log.Logger) *Loop {
	if logger == nil {
		logger = log.Default()
	}
	return &Loop{
		world:    world,
		clients:  clients,
		inbox:    inbox,
		interval: interval,
		autosave: autosave,
		logger:   logger,
	}
}

// Run ticks until ctx is cancelled, then saves the world one last time
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	var autosave <-chan time.Time
	if l.autosave > 0 {
		t := time.NewTicker(l.autosave)
		defer t.Stop()
		autosave = t.C
	}

	for {
		select {
		case <-ctx.Done():
			l.Step()
			return l.world.Save()
		case <-ticker.C:
			l.Step()
		case <-autosave:
			if err := l.world.Save(); err != nil {
				l.logger.Printf("Autosave failed: %v", err)
			}
		}
	}
}

// Step handles every queued frame in arrival order, then advances the world
// and broadcasts tiles changed by nature
func (l *Loop) Step() {
	for _, env := range l.inbox.Drain() {
		l.dispatch(env)
	}
	for _, p := range l.world.Tick() {
		l.broadcastTile(p)
	}
}

func (l *Loop) dispatch(env network.Envelope) {
	msg, err := messages.Decode(env.Data)
	if err != nil {
		l.logger.Printf("Dropping frame from %s: %v", env.From.ID(), err)
		return
	}

	switch m := msg.(type) {
	case messages.RefreshRequest:
		l.handleRefresh(env.From)
	case messages.TileUpdateRequest:
		l.handleTileUpdate(env.From, m)
	case messages.NewItemRequest:
		l.handleNewItem(env.From, m)
	default:
		l.logger.Printf("Unexpected %s from %s", msg.Type(), env.From.ID())
	}
}

// handleRefresh sends the whole world to the requesting client
func (l *Loop) handleRefresh(from network.Peer) {
	if err := from.Send(messages.RefreshResponse{World: l.world.Snapshot()}); err != nil {
		l.logger.Printf("Error sending refresh to %s: %v", from.ID(), err)
	}
}

// handleTileUpdate applies a client's tile change and relays it to every
// client, the sender included
func (l *Loop) handleTileUpdate(from network.Peer, m messages.TileUpdateRequest) {
	if err := l.world.ApplyTileUpdate(int(m.X), int(m.Z), m.Tile); err != nil {
		l.logger.Printf("Rejected tile update from %s: %v", from.ID(), err)
		return
	}
	l.clients.BroadcastToAll(messages.TileUpdateResponse(m))
}

// handleNewItem places a client's item on the ground and relays it to the
// other clients. The sender already placed it locally.
func (l *Loop) handleNewItem(from network.Peer, m messages.NewItemRequest) {
	if m.Item == nil {
		return
	}
	l.world.AddItem(m.Item, m.X, m.Z)
	l.clients.BroadcastToOthers(from.ID(), messages.NewItemResponse(m))
}

func (l *Loop) broadcastTile(p models.Point) {
	t, ok := l.world.Tile(p.X, p.Z)
	if !ok {
		return
	}
	l.clients.BroadcastToAll(messages.TileUpdateResponse{X: int32(p.X), Z: int32(p.Z), Tile: t})
}

package client

import (
	"context"
	"errors"
	"log"
	"math/rand"

	"tilecraft/server/config"
	"tilecraft/server/messages"
	"tilecraft/server/models"
	"tilecraft/server/network"
	"tilecraft/server/services"
)

// State is the client's position in the connection and play lifecycle
type State int

const (
	StateConnecting State = iota
	StateConnectingLoading
	StateRunning
	StateRunningInventory
	StateUnfocused
	StateQuitting
	StateConnectionFailed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "Connecting"
	case StateConnectingLoading:
		return "ConnectingLoading"
	case StateRunning:
		return "Running"
	case StateRunningInventory:
		return "RunningInventory"
	case StateUnfocused:
		return "Unfocused"
	case StateQuitting:
		return "Quitting"
	case StateConnectionFailed:
		return "ConnectionFailed"
	}
	return "Unknown"
}

// ErrNoMenu is returned by Choose when no context menu is open
var ErrNoMenu = errors.New("no context menu open")

// Transport is an open link to the server
type Transport interface {
	Send(msg messages.Message) error
	Close()
	Done() <-chan struct{}
}

// DialFunc opens a transport whose inbound frames go to h
type DialFunc func(ctx context.Context, url string, h network.MessageHandler) (Transport, error)

// DialWebSocket connects to a server over a websocket and starts its pumps
func DialWebSocket(ctx context.Context, url string, h network.MessageHandler) (Transport, error) {
	conn, err := network.Dial(ctx, url)
	if err != nil {
		return nil, err
	}
	go conn.WritePump()
	go conn.ReadPump(h)
	return conn, nil
}

type dialResult struct {
	transport Transport
	err       error
}

// Session is one client's view of the shared world. Like the server loop it
// is driven from a single goroutine through Tick.
type Session struct {
	cfg     config.ClientConfig
	dial    DialFunc
	rng     *rand.Rand
	logger  *log.Logger
	actions *services.PlayerService

	state     State
	transport Transport
	inbox     *network.Inbox
	timer     int
	attempts  int
	refreshed bool
	dialing   chan dialResult
	stopDial  context.CancelFunc

	world         *models.World
	menu          *models.ContextMenu
	notifications []string
}

// NewSession creates a session in the Connecting state. A nil logger logs to
// the standard logger.
func NewSession(cfg config.ClientConfig, rules models.ActionRules, dial DialFunc, rng *rand.Rand, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.Default()
	}
	return &Session{
		cfg:     cfg,
		dial:    dial,
		rng:     rng,
		logger:  logger,
		actions: services.NewPlayerService(services.NewResolver(rules)),
		state:   StateConnecting,
		inbox:   network.NewInbox(),
	}
}

// State returns the current lifecycle state
func (s *Session) State() State {
	return s.state
}

// Attempts is the number of connection attempts made so far
func (s *Session) Attempts() int {
	return s.attempts
}

// World returns the local world, or nil before the first refresh
func (s *Session) World() *models.World {
	return s.world
}

// Pending returns the timed action in flight, if any
func (s *Session) Pending() *models.TimedAction {
	return s.actions.Pending()
}

// Menu returns the open context menu, if any
func (s *Session) Menu() *models.ContextMenu {
	return s.menu
}

// Notifications returns and clears the messages produced since the last call
func (s *Session) Notifications() []string {
	out := s.notifications
	s.notifications = nil
	return out
}

// Tick advances the session by one client frame
func (s *Session) Tick(ctx context.Context, in models.Input) {
	switch s.state {
	case StateConnecting:
		s.connect(ctx)
	case StateConnectingLoading:
		if s.lost() {
			return
		}
		s.processMessages()
		if s.refreshed {
			s.state = StateRunning
		}
	case StateRunning, StateRunningInventory:
		if s.lost() {
			return
		}
		s.processMessages()
		if s.state == StateRunningInventory {
			in.LookDX, in.LookDY = 0, 0
		}
		s.world.Update(s.rng, in)
		s.tickAction()
	case StateUnfocused:
		if s.lost() {
			return
		}
		s.processMessages()
	}
}

// connect counts ticks between attempts and starts a dial on every
// interval. The dial runs off the tick goroutine; its result is picked up on
// a later tick and only then counts as an attempt.
func (s *Session) connect(ctx context.Context) {
	if s.dialing != nil {
		select {
		case res := <-s.dialing:
			s.dialing, s.stopDial = nil, nil
			s.dialed(res)
		default:
		}
		return
	}
	if s.timer < s.cfg.ConnectIntervalTicks {
		s.timer++
		return
	}
	s.timer = 0

	s.logger.Printf("Attempting connection with server at %s (attempt %d/%d)", s.cfg.ServerURL, s.attempts+1, s.cfg.MaxAttempts)
	dctx, cancel := context.WithTimeout(ctx, s.cfg.DialTimeout)
	results := make(chan dialResult, 1)
	s.dialing, s.stopDial = results, cancel
	go func(dial DialFunc, url string) {
		defer cancel()
		t, err := dial(dctx, url, s.inbox)
		if err == nil && dctx.Err() != nil {
			// Abandoned by Quit while the handshake finished
			t.Close()
			err = dctx.Err()
		}
		results <- dialResult{transport: t, err: err}
	}(s.dial, s.cfg.ServerURL)
}

func (s *Session) dialed(res dialResult) {
	s.attempts++
	if res.err != nil {
		s.logger.Printf("Connection attempt failed: %v", res.err)
		if s.attempts >= s.cfg.MaxAttempts {
			s.logger.Printf("Connection failed after %d attempts", s.attempts)
			s.state = StateConnectionFailed
		}
		return
	}

	// The completed handshake is the readiness signal
	s.transport = res.transport
	s.refreshed = false
	s.state = StateConnectingLoading
	s.send(messages.RefreshRequest{})
}

// lost moves the session back to Connecting when the transport has closed.
// The world and player are kept until the next refresh replaces the grid.
func (s *Session) lost() bool {
	select {
	case <-s.transport.Done():
	default:
		return false
	}
	s.logger.Printf("Lost connection to %s", s.cfg.ServerURL)
	s.transport = nil
	s.menu = nil
	s.timer, s.attempts = 0, 0
	s.state = StateConnecting
	return true
}

func (s *Session) processMessages() {
	for _, env := range s.inbox.Drain() {
		msg, err := messages.Decode(env.Data)
		if err != nil {
			s.logger.Printf("Dropping frame: %v", err)
			continue
		}
		s.Apply(msg)
	}
}

// Apply updates the local world from one server message
func (s *Session) Apply(msg messages.Message) {
	switch m := msg.(type) {
	case messages.RefreshResponse:
		w, err := models.FromData(m.World)
		if err != nil {
			s.logger.Printf("Bad refresh: %v", err)
			return
		}
		// Keep the existing player across refreshes
		if s.world != nil {
			w.Player = s.world.Player
		}
		s.world = w
		s.refreshed = true
	case messages.TileUpdateResponse:
		if s.world == nil {
			return
		}
		if !s.world.SetTile(int(m.X), int(m.Z), m.Tile) {
			s.logger.Printf("Tile update outside the world: (%d, %d)", m.X, m.Z)
		}
	case messages.NewItemResponse:
		if s.world == nil || m.Item == nil {
			return
		}
		s.world.AddItem(m.Item, m.X, m.Z)
	default:
		s.logger.Printf("Unexpected %s from server", msg.Type())
	}
}

func (s *Session) tickAction() {
	out, done, err := s.actions.Tick(s.world, s.rng)
	if !done {
		return
	}
	s.notifications = append(s.notifications, out.Notifications...)
	if err != nil {
		s.logger.Printf("Action failed: %v", err)
	}
	for _, p := range out.Tiles {
		t, ok := s.world.Tile(p.X, p.Z)
		if !ok {
			continue
		}
		s.send(messages.TileUpdateRequest{X: int32(p.X), Z: int32(p.Z), Tile: *t})
	}
	for _, item := range out.Dropped {
		s.send(messages.NewItemRequest{X: item.X, Z: item.Z, Item: item})
	}
}

func (s *Session) send(msg messages.Message) {
	if s.transport == nil {
		return
	}
	if err := s.transport.Send(msg); err != nil {
		s.logger.Printf("Error sending %s: %v", msg.Type(), err)
	}
}

// Focus reports whether the client window is active. Losing focus pauses
// play; regaining it resumes.
func (s *Session) Focus(active bool) {
	switch {
	case !active && s.state == StateRunning:
		s.state = StateUnfocused
	case active && s.state == StateUnfocused:
		s.state = StateRunning
	}
}

// ToggleInventory switches between Running and RunningInventory
func (s *Session) ToggleInventory() {
	switch s.state {
	case StateRunning:
		s.state = StateRunningInventory
	case StateRunningInventory:
		s.state = StateRunning
	default:
		return
	}
	s.menu = nil
}

// Quit disconnects and moves to Quitting
func (s *Session) Quit() {
	if s.stopDial != nil {
		s.stopDial()
		s.dialing, s.stopDial = nil, nil
	}
	if s.transport != nil {
		s.transport.Close()
		s.transport = nil
	}
	s.state = StateQuitting
}

func (s *Session) playing() bool {
	return s.state == StateRunning || s.state == StateRunningInventory
}

// OpenTileMenu opens the context menu for the tile under the player's view
// ray. It reports false when no tile is selected.
func (s *Session) OpenTileMenu() (*models.ContextMenu, bool) {
	if !s.playing() {
		return nil, false
	}
	p := s.world.Player
	at, ok := s.world.SelectedTile(p.Ray())
	if !ok {
		return nil, false
	}
	menu, ok := s.actions.Rules().TileMenu(s.world, at, &p.Skills, p.Held)
	if !ok {
		return nil, false
	}
	s.menu = &menu
	return s.menu, true
}

// OpenItemMenu opens the context menu for an item
func (s *Session) OpenItemMenu(item *models.Item) (*models.ContextMenu, bool) {
	if !s.playing() || item == nil {
		return nil, false
	}
	menu := s.actions.Rules().ItemMenu(item, &s.world.Player.Skills)
	s.menu = &menu
	return s.menu, true
}

// CloseMenu closes the context menu without choosing
func (s *Session) CloseMenu() {
	s.menu = nil
}

// Choose starts entry i of the open menu. The menu stays open when another
// action is still running.
func (s *Session) Choose(i int) (*models.TimedAction, error) {
	if s.menu == nil {
		return nil, ErrNoMenu
	}
	if i < 0 || i >= len(s.menu.Actions) {
		return nil, errors.New("no such menu entry")
	}
	timed, err := s.actions.Begin(s.menu.Actions[i], &s.world.Player.Skills)
	if err != nil {
		return nil, err
	}
	s.menu = nil
	return timed, nil
}

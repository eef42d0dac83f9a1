package client

import (
	"bytes"
	"context"
	"errors"
	"log"
	"math/rand"
	"net"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tilecraft/server/config"
	"tilecraft/server/messages"
	"tilecraft/server/models"
	"tilecraft/server/network"
	"tilecraft/server/services"
)

type fakeTransport struct {
	sent      []messages.Message
	done      chan struct{}
	closeOnce sync.Once
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{done: make(chan struct{})}
}

func (f *fakeTransport) Send(msg messages.Message) error {
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeTransport) Close() {
	f.closeOnce.Do(func() { close(f.done) })
}

func (f *fakeTransport) Done() <-chan struct{} {
	return f.done
}

func testConfig() config.ClientConfig {
	var cfg config.ClientConfig
	cfg.ApplyDefaults()
	return cfg
}

func newTestSession(dial DialFunc) (*Session, *bytes.Buffer) {
	logs := &bytes.Buffer{}
	s := NewSession(testConfig(), models.DefaultActionRules(), dial, rand.New(rand.NewSource(1)), log.New(logs, "", 0))
	return s, logs
}

func dialTo(t *fakeTransport) DialFunc {
	return func(ctx context.Context, url string, h network.MessageHandler) (Transport, error) {
		return t, nil
	}
}

func flatData(width, height int, kind models.TileKind) *models.WorldData {
	d := &models.WorldData{Width: width, Height: height}
	for i := 0; i < width*height; i++ {
		d.Tiles = append(d.Tiles, models.TileFromCode(int32(kind), [4]int{}))
	}
	return d
}

func (s *Session) deliver(msgs ...messages.Message) {
	for _, m := range msgs {
		s.inbox.Push(nil, messages.Encode(m))
	}
}

// tickN ticks s n times. A dial in flight is allowed to report before each
// tick so that tick counts stay exact.
func tickN(s *Session, n int) {
	for i := 0; i < n; i++ {
		for s.dialing != nil && len(s.dialing) == 0 {
			runtime.Gosched()
		}
		s.Tick(context.Background(), models.Input{})
	}
}

// connectTicks is how many ticks the first successful connection takes: the
// interval, the tick that starts the dial and the tick that collects it.
const connectTicks = 72

// running connects s and applies a refresh of d.
func running(t *testing.T, s *Session, d *models.WorldData) {
	t.Helper()
	tickN(s, connectTicks)
	require.Equal(t, StateConnectingLoading, s.State())
	s.deliver(messages.RefreshResponse{World: d})
	tickN(s, 1)
	require.Equal(t, StateRunning, s.State())
}

func TestSession_ConnectionFailsAfterMaxAttempts(t *testing.T) {
	var dials atomic.Int32
	s, logs := newTestSession(func(ctx context.Context, url string, h network.MessageHandler) (Transport, error) {
		dials.Add(1)
		return nil, errors.New("connection refused")
	})

	tickN(s, 70)
	assert.Nil(t, s.dialing)
	tickN(s, 1)
	assert.NotNil(t, s.dialing)
	assert.Equal(t, 0, s.Attempts())
	tickN(s, 1)
	assert.Equal(t, 1, s.Attempts())
	assert.Equal(t, int32(1), dials.Load())

	tickN(s, connectTicks*8)
	assert.Equal(t, StateConnecting, s.State())
	assert.Equal(t, 9, s.Attempts())

	tickN(s, connectTicks)
	assert.Equal(t, StateConnectionFailed, s.State())
	assert.Equal(t, 10, s.Attempts())

	tickN(s, 500)
	assert.Equal(t, int32(10), dials.Load())
	assert.Contains(t, logs.String(), "Connection failed after 10 attempts")
}

func TestSession_SlowDialDoesNotBlockTicks(t *testing.T) {
	// Accepts TCP connections but never answers the websocket handshake
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		var held []net.Conn
		defer func() {
			for _, c := range held {
				c.Close()
			}
		}()
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			held = append(held, c)
		}
	}()

	cfg := testConfig()
	cfg.ServerURL = "ws://" + ln.Addr().String() + "/ws"
	cfg.DialTimeout = 200 * time.Millisecond
	s := NewSession(cfg, models.DefaultActionRules(), DialWebSocket, rand.New(rand.NewSource(1)), log.New(&bytes.Buffer{}, "", 0))

	start := time.Now()
	for i := 0; i < 71; i++ {
		s.Tick(context.Background(), models.Input{})
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.NotNil(t, s.dialing)
	assert.Equal(t, StateConnecting, s.State())
	assert.Equal(t, 0, s.Attempts())

	// The handshake times out and is then counted as a failed attempt
	require.Eventually(t, func() bool {
		s.Tick(context.Background(), models.Input{})
		return s.Attempts() == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, StateConnecting, s.State())
}

func TestSession_QuitAbandonsDial(t *testing.T) {
	release := make(chan struct{})
	tr := newFakeTransport()
	s, _ := newTestSession(func(ctx context.Context, url string, h network.MessageHandler) (Transport, error) {
		<-release
		return tr, nil
	})

	for i := 0; i < 71; i++ {
		s.Tick(context.Background(), models.Input{})
	}
	require.NotNil(t, s.dialing)

	s.Quit()
	close(release)
	assert.Equal(t, StateQuitting, s.State())
	select {
	case <-tr.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("abandoned transport left open")
	}
}

func TestSession_RefreshThenTwoUpdatesLastWins(t *testing.T) {
	tr := newFakeTransport()
	s, _ := newTestSession(dialTo(tr))

	tickN(s, connectTicks)
	require.Equal(t, StateConnectingLoading, s.State())
	require.Len(t, tr.sent, 1)
	assert.Equal(t, messages.RefreshRequest{}, tr.sent[0])

	// Nothing has arrived yet, so the session keeps waiting
	tickN(s, 5)
	assert.Equal(t, StateConnectingLoading, s.State())

	first := models.TileFromCode(int32(models.TileDirt), [4]int{1, 1, 1, 1})
	second := models.TileFromCode(int32(models.TileSand), [4]int{2, 2, 2, 2})
	s.deliver(
		messages.RefreshResponse{World: flatData(2, 2, models.TileGrass)},
		messages.TileUpdateResponse{X: 1, Z: 0, Tile: first},
		messages.TileUpdateResponse{X: 1, Z: 0, Tile: second},
	)
	tickN(s, 1)

	assert.Equal(t, StateRunning, s.State())
	got, ok := s.World().Tile(1, 0)
	require.True(t, ok)
	assert.Equal(t, second, *got)
}

func TestSession_RefreshKeepsPlayer(t *testing.T) {
	s, _ := newTestSession(dialTo(newFakeTransport()))
	running(t, s, flatData(4, 4, models.TileDirt))

	player := s.World().Player
	player.Skills.Digging.Level = 42

	s.deliver(messages.RefreshResponse{World: flatData(4, 4, models.TileSand)})
	tickN(s, 1)

	assert.Same(t, player, s.World().Player)
	tile, _ := s.World().Tile(0, 0)
	assert.Equal(t, models.TileSand, tile.Kind)
}

func TestSession_NewItemAndBadFrames(t *testing.T) {
	s, logs := newTestSession(dialTo(newFakeTransport()))
	running(t, s, flatData(2, 2, models.TileGrass))

	s.deliver(messages.NewItemResponse{X: 1, Z: 2, Item: models.NewItem(models.ItemPotato, models.MaterialNone, 10, 0)})
	s.inbox.Push(nil, []byte{7, 0, 0, 0})
	s.deliver(messages.TileUpdateResponse{X: 9, Z: 9, Tile: models.Tile{}})
	tickN(s, 1)

	require.Len(t, s.World().Items, 1)
	assert.Equal(t, float32(2), s.World().Items[0].Z)
	assert.Contains(t, logs.String(), "Dropping frame")
	assert.Contains(t, logs.String(), "Tile update outside the world: (9, 9)")
	assert.Equal(t, StateRunning, s.State())
}

func TestSession_DigSendsNeighbourhood(t *testing.T) {
	tr := newFakeTransport()
	s, _ := newTestSession(dialTo(tr))
	running(t, s, flatData(3, 3, models.TileDirt))

	p := s.World().Player
	p.Pitch = -45
	p.UpdateLookTarget()

	menu, ok := s.OpenTileMenu()
	require.True(t, ok)
	require.Len(t, menu.Actions, 2)
	assert.Equal(t, models.OpExamine, menu.Actions[0].Op)
	assert.Equal(t, models.OpDig, menu.Actions[1].Op)

	_, err := s.Choose(1)
	require.NoError(t, err)
	assert.Nil(t, s.Menu())

	// A second choice while digging is refused
	_, ok = s.OpenTileMenu()
	require.True(t, ok)
	_, err = s.Choose(0)
	assert.ErrorIs(t, err, services.ErrActionInProgress)
	s.CloseMenu()

	sentBefore := len(tr.sent)
	for i := 0; s.Pending() != nil; i++ {
		require.Less(t, i, 1000)
		tickN(s, 1)
	}

	var updates []messages.TileUpdateRequest
	for _, m := range tr.sent[sentBefore:] {
		if u, ok := m.(messages.TileUpdateRequest); ok {
			updates = append(updates, u)
		}
	}
	assert.Len(t, updates, 9)
	assert.Contains(t, s.Notifications(), "You excavate some dirt.")
	assert.Empty(t, s.Notifications())

	centre, _ := s.World().Tile(1, 1)
	assert.Equal(t, -1, centre.Height(models.BottomRight))
}

func TestSession_ChooseWithoutMenu(t *testing.T) {
	s, _ := newTestSession(dialTo(newFakeTransport()))
	_, err := s.Choose(0)
	assert.ErrorIs(t, err, ErrNoMenu)
}

func TestSession_FocusInventoryQuit(t *testing.T) {
	tr := newFakeTransport()
	s, _ := newTestSession(dialTo(tr))
	running(t, s, flatData(2, 2, models.TileGrass))

	s.Focus(false)
	assert.Equal(t, StateUnfocused, s.State())
	s.ToggleInventory()
	assert.Equal(t, StateUnfocused, s.State())
	s.Focus(true)
	assert.Equal(t, StateRunning, s.State())

	s.ToggleInventory()
	assert.Equal(t, StateRunningInventory, s.State())
	s.Focus(false)
	assert.Equal(t, StateRunningInventory, s.State())

	// Looking around is ignored while the inventory is open
	yaw := s.World().Player.Yaw
	s.Tick(context.Background(), models.Input{LookDX: 40})
	assert.Equal(t, yaw, s.World().Player.Yaw)

	s.ToggleInventory()
	assert.Equal(t, StateRunning, s.State())

	s.Quit()
	assert.Equal(t, StateQuitting, s.State())
	select {
	case <-tr.Done():
	default:
		t.Fatal("transport not closed")
	}
}

func TestSession_LostConnectionReconnects(t *testing.T) {
	tr := newFakeTransport()
	s, logs := newTestSession(dialTo(tr))
	running(t, s, flatData(2, 2, models.TileGrass))
	player := s.World().Player

	tr.Close()
	tickN(s, 1)
	assert.Equal(t, StateConnecting, s.State())
	assert.Equal(t, 0, s.Attempts())
	assert.Contains(t, logs.String(), "Lost connection")

	next := newFakeTransport()
	s.dial = dialTo(next)
	tickN(s, connectTicks)
	require.Equal(t, StateConnectingLoading, s.State())
	assert.Equal(t, []messages.Message{messages.RefreshRequest{}}, next.sent)

	s.deliver(messages.RefreshResponse{World: flatData(2, 2, models.TileDirt)})
	tickN(s, 1)
	assert.Equal(t, StateRunning, s.State())
	assert.Same(t, player, s.World().Player)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "ConnectingLoading", StateConnectingLoading.String())
	assert.Equal(t, "ConnectionFailed", StateConnectionFailed.String())
}

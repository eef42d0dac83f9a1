package services

import (
	"errors"
	"fmt"
	"log"
	"math/rand"

	"tilecraft/server/models"
	"tilecraft/server/persistence"
)

// WorldService owns the authoritative world on the server
type WorldService struct {
	world *models.World
	db    persistence.Storage
	name  string
	rng   *rand.Rand
}

// NewWorldService loads the named world from db, generating and saving a new
// one when it does not exist yet
func NewWorldService(db persistence.Storage, name string, gen GeneratorConfig, rng *rand.Rand) (*WorldService, error) {
	ws := &WorldService{db: db, name: name, rng: rng}

	data, err := db.LoadWorld(name)
	switch {
	case err == nil:
		w, err := models.FromData(data)
		if err != nil {
			return nil, fmt.Errorf("load world %s: %w", name, err)
		}
		w.Authoritative = true
		ws.world = w
		log.Printf("Loaded world %s (%dx%d, %d items)", name, w.Width, w.Height, len(w.Items))
	case errors.Is(err, persistence.ErrWorldNotFound):
		ws.world = Generate(gen, rng)
		log.Printf("Generated world %s (%dx%d)", name, gen.Width, gen.Height)
		if err := ws.Save(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("load world %s: %w", name, err)
	}
	return ws, nil
}

// World returns the live world. Only the tick goroutine may touch it.
func (ws *WorldService) World() *models.World {
	return ws.world
}

// Snapshot returns a copy of the world for a refresh response
func (ws *WorldService) Snapshot() *models.WorldData {
	return ws.world.Snapshot()
}

// Tile returns a copy of the tile at (x, z)
func (ws *WorldService) Tile(x, z int) (models.Tile, bool) {
	t, ok := ws.world.Tile(x, z)
	if !ok {
		return models.Tile{}, false
	}
	return *t, true
}

// ApplyTileUpdate overwrites the tile at (x, z). Later updates win.
func (ws *WorldService) ApplyTileUpdate(x, z int, t models.Tile) error {
	if !ws.world.SetTile(x, z, t) {
		return fmt.Errorf("tile (%d, %d): %w", x, z, ErrOutOfBounds)
	}
	return nil
}

// AddItem drops item on the ground at (x, z)
func (ws *WorldService) AddItem(item *models.Item, x, z float32) {
	ws.world.AddItem(item, x, z)
}

// Tick advances the world one step and returns the tiles nature changed
func (ws *WorldService) Tick() []models.Point {
	return ws.world.Update(ws.rng, models.Input{})
}

// Save writes the world to storage
func (ws *WorldService) Save() error {
	if err := ws.db.SaveWorld(ws.name, ws.world.Snapshot()); err != nil {
		return fmt.Errorf("save world %s: %w", ws.name, err)
	}
	return nil
}

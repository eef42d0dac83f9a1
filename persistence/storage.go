package persistence

import (
	"errors"

	"tilecraft/server/models"
)

// ErrWorldNotFound is returned by LoadWorld when no world has been saved under the name
var ErrWorldNotFound = errors.New("world not found")

// Storage defines the interface for world persistence
type Storage interface {
	SaveWorld(name string, world *models.WorldData) error
	LoadWorld(name string) (*models.WorldData, error)
	Close() error
}

package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"tilecraft/server/models"
)

// JSONStore handles world persistence using a local JSON file
type JSONStore struct {
	filePath string
	mutex    sync.RWMutex
	data     *JSONData
}

// JSONData represents the structure of the JSON database
type JSONData struct {
	Worlds map[string]*models.WorldData `json:"worlds"`
}

// NewJSONStore creates a new JSON storage manager
func NewJSONStore(filePath string) (*JSONStore, error) {
	store := &JSONStore{
		filePath: filePath,
		data: &JSONData{
			Worlds: make(map[string]*models.WorldData),
		},
	}

	// Load existing data if file exists
	if _, err := os.Stat(filePath); err == nil {
		if err := store.loadFromFile(); err != nil {
			return nil, fmt.Errorf("failed to load JSON store: %w", err)
		}
	} else {
		// Create file if it doesn't exist
		if err := store.saveToFile(); err != nil {
			return nil, fmt.Errorf("failed to create JSON store file: %w", err)
		}
	}

	return store, nil
}

// loadFromFile loads data from the JSON file
func (js *JSONStore) loadFromFile() error {
	js.mutex.Lock()
	defer js.mutex.Unlock()

	file, err := os.ReadFile(js.filePath)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(file, js.data); err != nil {
		return err
	}
	if js.data.Worlds == nil {
		js.data.Worlds = make(map[string]*models.WorldData)
	}
	return nil
}

// saveToFile saves data to the JSON file
func (js *JSONStore) saveToFile() error {
	js.mutex.RLock()
	data, err := json.MarshalIndent(js.data, "", "  ")
	js.mutex.RUnlock()
	if err != nil {
		return err
	}

	return os.WriteFile(js.filePath, data, 0644)
}

// SaveWorld saves a world to the store
func (js *JSONStore) SaveWorld(name string, world *models.WorldData) error {
	js.mutex.Lock()
	js.data.Worlds[name] = world
	js.mutex.Unlock()

	return js.saveToFile()
}

// LoadWorld loads a world by name
func (js *JSONStore) LoadWorld(name string) (*models.WorldData, error) {
	js.mutex.RLock()
	defer js.mutex.RUnlock()

	world, exists := js.data.Worlds[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrWorldNotFound, name)
	}

	return world, nil
}

// Close closes the store (no-op for JSON store)
func (js *JSONStore) Close() error {
	return nil
}

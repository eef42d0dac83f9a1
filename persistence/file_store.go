package persistence

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"tilecraft/server/models"
)

const (
	mainConfigFile = "main.cfg"
	tilesDir       = "tiles"
	itemsDir       = "items"
)

// FileStore keeps each world in its own directory: main.cfg holds the
// dimensions, tiles/t<hex>.dat one tile each and items/i<hex>.dat one
// ground item each.
type FileStore struct {
	root  string
	mutex sync.Mutex
}

// NewFileStore creates a file store rooted at dir
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileStore{root: dir}, nil
}

func (s *FileStore) worldDir(name string) string {
	return filepath.Join(s.root, name)
}

// SaveWorld writes every tile and item of the world to disk
func (s *FileStore) SaveWorld(name string, world *models.WorldData) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	dir := s.worldDir(name)
	// Items are rewritten wholesale since the list can shrink.
	if err := os.RemoveAll(filepath.Join(dir, itemsDir)); err != nil {
		return fmt.Errorf("failed to clear items: %w", err)
	}
	for _, sub := range []string{tilesDir, itemsDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			return fmt.Errorf("failed to create %s directory: %w", sub, err)
		}
	}

	cfg := fmt.Sprintf("%d\n%d\n", world.Width, world.Height)
	if err := os.WriteFile(filepath.Join(dir, mainConfigFile), []byte(cfg), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", mainConfigFile, err)
	}

	for i := range world.Tiles {
		path := filepath.Join(dir, tilesDir, fmt.Sprintf("t%x.dat", i))
		if err := os.WriteFile(path, EncodeTile(&world.Tiles[i]), 0644); err != nil {
			return fmt.Errorf("failed to write tile %d: %w", i, err)
		}
	}
	for i, item := range world.Items {
		path := filepath.Join(dir, itemsDir, fmt.Sprintf("i%x.dat", i))
		if err := os.WriteFile(path, EncodeItem(item), 0644); err != nil {
			return fmt.Errorf("failed to write item %d: %w", i, err)
		}
	}
	return nil
}

// LoadWorld reads a world written by SaveWorld
func (s *FileStore) LoadWorld(name string) (*models.WorldData, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	dir := s.worldDir(name)
	width, height, err := readMainConfig(filepath.Join(dir, mainConfigFile))
	if err != nil {
		return nil, err
	}

	world := &models.WorldData{Width: width, Height: height, Tiles: make([]models.Tile, width*height)}
	for i := range world.Tiles {
		data, err := os.ReadFile(filepath.Join(dir, tilesDir, fmt.Sprintf("t%x.dat", i)))
		if err != nil {
			return nil, fmt.Errorf("failed to read tile %d: %w", i, err)
		}
		if world.Tiles[i], err = DecodeTile(data); err != nil {
			return nil, fmt.Errorf("tile %d: %w", i, err)
		}
	}

	items, err := readItems(filepath.Join(dir, itemsDir))
	if err != nil {
		return nil, err
	}
	world.Items = items
	return world, nil
}

func readMainConfig(path string) (int, int, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, 0, ErrWorldNotFound
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read %s: %w", mainConfigFile, err)
	}
	lines := splitLines(data)
	if len(lines) < 2 {
		return 0, 0, fmt.Errorf("%s: expected width and height lines", mainConfigFile)
	}
	width, err := strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("%s width: %w", mainConfigFile, err)
	}
	height, err := strconv.Atoi(strings.TrimSpace(lines[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("%s height: %w", mainConfigFile, err)
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("%s: invalid size %dx%d", mainConfigFile, width, height)
	}
	return width, height, nil
}

func readItems(dir string) ([]*models.Item, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	type indexed struct {
		index int64
		item  *models.Item
	}
	var found []indexed
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "i") || !strings.HasSuffix(name, ".dat") {
			continue
		}
		index, err := strconv.ParseInt(strings.TrimSuffix(strings.TrimPrefix(name, "i"), ".dat"), 16, 64)
		if err != nil {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		item, err := DecodeItem(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		found = append(found, indexed{index, item})
	}

	sort.Slice(found, func(i, j int) bool { return found[i].index < found[j].index })
	items := make([]*models.Item, len(found))
	for i, f := range found {
		items[i] = f.item
	}
	return items, nil
}

// Close is a no-op for the file store
func (s *FileStore) Close() error {
	return nil
}

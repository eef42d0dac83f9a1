package persistence

import (
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tilecraft/server/models"
)

func sampleWorld(t *testing.T) *models.WorldData {
	t.Helper()
	rng := rand.New(rand.NewSource(6))
	w := models.NewWorld(4, 3)
	kinds := []models.TileKind{models.TileGrass, models.TileTree, models.TileDirt, models.TileFarmland, models.TileSand}
	for x := 0; x < 4; x++ {
		for z := 0; z < 3; z++ {
			w.ReplaceTile(x, z, kinds[(x+z)%len(kinds)], rng)
		}
	}
	w.ChangeHeight(1, 1, models.BottomRight, -2)
	w.ChangeHeight(2, 0, models.TopLeft, 3)

	barrel := models.NewItem(models.ItemSmallBarrel, models.MaterialOakWood, 44, 3)
	barrel.Storage.Store(models.NewItem(models.ItemPotato, models.MaterialNone, 12.5, 0))
	barrel.Storage.Store(models.NewItem(models.ItemShovel, models.MaterialRock, 30, 7))
	barrel.Rotation = 1.5
	w.AddItem(barrel, 2.5, 7.25)
	w.AddItem(models.NewItem(models.ItemCorn, models.MaterialNone, 60, 0), 0.5, 0.75)
	return w.Snapshot()
}

func TestRecords_TileRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, kind := range []models.TileKind{models.TileBlank, models.TileDirt, models.TileGrass, models.TileTree, models.TileFarmland, models.TileSand} {
		tile := models.NewTile(kind, rng)
		tile.Heights = [4]int{-3, 0, 8, 1}

		got, err := DecodeTile(EncodeTile(&tile))
		require.NoError(t, err, tile.Name())
		assert.Equal(t, tile, got, tile.Name())
	}
}

func TestRecords_TileLayout(t *testing.T) {
	tile := models.Tile{Kind: models.TileGrass, Heights: [4]int{1, 2, 3, 4}, Fruitful: true}
	assert.Equal(t, "2\n1\xff2\xff3\xff4\ntrue\n", string(EncodeTile(&tile)))
}

func TestRecords_ItemRoundTripWithContents(t *testing.T) {
	barrel := models.NewItem(models.ItemSmallBarrel, models.MaterialOakWood, 44, 3)
	barrel.Storage.Store(models.NewItem(models.ItemBranch, models.MaterialOakWood, 12.5, 0))
	barrel.X, barrel.Z, barrel.Rotation = 1.25, 9.5, 0.75

	got, err := DecodeItem(EncodeItem(barrel))
	require.NoError(t, err)
	assert.Equal(t, barrel, got)
}

func TestRecords_ItemErrors(t *testing.T) {
	_, err := DecodeItem([]byte("99\n1\n0\n1\n0\xff0\xff0\n"))
	assert.True(t, errors.Is(err, models.ErrUnknownItemKind))

	_, err = DecodeItem([]byte("8\n1\n0\n1\n"))
	assert.Error(t, err)

	_, err = DecodeTile([]byte("2\n1\xff2\n"))
	assert.Error(t, err)
}

func TestRecords_ItemNestingAndCapacity(t *testing.T) {
	barrelHead := "9\n10\n0\n5\n0\xff0\xff0\n0\n"
	deep := ""
	for i := 0; i < models.MaxItemDepth+2; i++ {
		deep += barrelHead + "1\n"
	}
	deep += barrelHead + "0\n"
	_, err := DecodeItem([]byte(deep))
	assert.True(t, errors.Is(err, models.ErrItemTooDeep))

	// Dirt is larger than a small barrel can hold
	overfull := barrelHead + "1\n" + "3\n5\n0\n20\n0\xff0\xff0\n"
	_, err = DecodeItem([]byte(overfull))
	assert.True(t, errors.Is(err, models.ErrContainerFull))
}

func TestFileStore_RoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	world := sampleWorld(t)

	require.NoError(t, store.SaveWorld("main", world))
	got, err := store.LoadWorld("main")
	require.NoError(t, err)

	assert.Equal(t, world.Width, got.Width)
	assert.Equal(t, world.Height, got.Height)
	assert.Equal(t, world.Tiles, got.Tiles)
	assert.Equal(t, world.Items, got.Items)
}

func TestFileStore_Layout(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.SaveWorld("main", sampleWorld(t)))

	cfg, err := os.ReadFile(filepath.Join(dir, "main", "main.cfg"))
	require.NoError(t, err)
	assert.Equal(t, "4\n3\n", string(cfg))
	assert.FileExists(t, filepath.Join(dir, "main", "tiles", "tb.dat"))
	assert.FileExists(t, filepath.Join(dir, "main", "items", "i1.dat"))
}

func TestFileStore_ShrinkingItemList(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	world := sampleWorld(t)
	require.NoError(t, store.SaveWorld("main", world))

	world.Items = world.Items[:1]
	require.NoError(t, store.SaveWorld("main", world))
	got, err := store.LoadWorld("main")
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)
}

func TestFileStore_MissingWorld(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.LoadWorld("nope")
	assert.True(t, errors.Is(err, ErrWorldNotFound))
}

func TestJSONStore_RoundTripAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	store, err := NewJSONStore(path)
	require.NoError(t, err)

	_, err = store.LoadWorld("main")
	assert.True(t, errors.Is(err, ErrWorldNotFound))

	world := sampleWorld(t)
	require.NoError(t, store.SaveWorld("main", world))
	require.NoError(t, store.Close())

	reopened, err := NewJSONStore(path)
	require.NoError(t, err)
	got, err := reopened.LoadWorld("main")
	require.NoError(t, err)
	assert.Equal(t, world.Tiles, got.Tiles)
	require.Len(t, got.Items, 2)
	assert.Equal(t, world.Items[0].Storage.Items, got.Items[0].Storage.Items)
}

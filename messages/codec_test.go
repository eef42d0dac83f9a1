package messages

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tilecraft/server/models"
)

func TestCodec_TileUpdateKeepsEveryVariant(t *testing.T) {
	rng := rand.New(rand.NewSource(12))
	kinds := []models.TileKind{models.TileBlank, models.TileDirt, models.TileGrass, models.TileTree, models.TileFarmland, models.TileSand}
	for _, kind := range kinds {
		tile := models.NewTile(kind, rng)
		tile.Heights = [4]int{3, -1, 0, 7}
		if kind == models.TileTree {
			tile.Growth = 4
		}

		msg, err := Decode(Encode(TileUpdateResponse{X: 5, Z: 9, Tile: tile}))
		require.NoError(t, err, tile.Name())
		got, ok := msg.(TileUpdateResponse)
		require.True(t, ok)
		assert.Equal(t, int32(5), got.X)
		assert.Equal(t, int32(9), got.Z)
		assert.Equal(t, tile, got.Tile, tile.Name())
	}
}

func TestCodec_NewItemKeepsEveryVariant(t *testing.T) {
	kinds := []models.ItemKind{
		models.ItemBranch, models.ItemCorn, models.ItemDirt, models.ItemHatchet, models.ItemPlank,
		models.ItemPotato, models.ItemSand, models.ItemShovel, models.ItemSmallBarrel, models.ItemStorage,
	}
	for _, kind := range kinds {
		item := models.NewItem(kind, models.MaterialRock, 33.5, 12.25)
		if item.Storage != nil {
			// A plain container holds nothing, so only the barrel keeps the potato
			item.Storage.Store(models.NewItem(models.ItemPotato, models.MaterialNone, 7, 1))
		}
		item.X, item.Z = 1.25, 6.5

		msg, err := Decode(Encode(NewItemRequest{X: 1.25, Z: 6.5, Item: item}))
		require.NoError(t, err, item.Name())
		got := msg.(NewItemRequest)
		assert.Equal(t, float32(1.25), got.X)
		assert.Equal(t, float32(6.5), got.Z)
		assert.Equal(t, item.Kind, got.Item.Kind)
		assert.Equal(t, item.Quality, got.Item.Quality)
		assert.Equal(t, item.Damage, got.Item.Damage)
		assert.Equal(t, item.Name(), got.Item.Name())
		assert.Equal(t, item.X, got.Item.X)
		if item.Storage != nil {
			require.NotNil(t, got.Item.Storage)
			require.Len(t, got.Item.Storage.Items, len(item.Storage.Items))
			for j, inner := range item.Storage.Items {
				assert.Equal(t, inner.Kind, got.Item.Storage.Items[j].Kind)
				assert.Equal(t, inner.Quality, got.Item.Storage.Items[j].Quality)
			}
		}
	}
}

func TestCodec_RefreshResponse(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	w := models.NewWorld(3, 2)
	w.ReplaceTile(0, 1, models.TileTree, rng)
	w.ReplaceTile(2, 0, models.TileGrass, rng)
	w.ChangeHeight(1, 1, models.TopLeft, 2)
	w.AddItem(models.NewItem(models.ItemCorn, models.MaterialNone, 20, 0), 3, 4)
	data := w.Snapshot()

	msg, err := Decode(Encode(RefreshResponse{World: data}))
	require.NoError(t, err)
	got := msg.(RefreshResponse).World
	assert.Equal(t, data.Width, got.Width)
	assert.Equal(t, data.Height, got.Height)
	assert.Equal(t, data.Tiles, got.Tiles)
	require.Len(t, got.Items, 1)
	assert.Equal(t, models.ItemCorn, got.Items[0].Kind)
	assert.Equal(t, float32(3), got.Items[0].X)
	assert.Equal(t, float32(4), got.Items[0].Z)
}

func TestCodec_TileRecordLayout(t *testing.T) {
	tile := models.Tile{Kind: models.TileGrass, Heights: [4]int{1, 2, 3, 4}, Fruitful: true}
	b := Encode(TileUpdateRequest{X: 1, Z: 2, Tile: tile})

	assert.Equal(t, []byte{
		2, 0, 0, 0,
		1, 0, 0, 0,
		2, 0, 0, 0,
		2, 0, 0, 0,
		1, 0, 0, 0, 2, 0, 0, 0, 3, 0, 0, 0, 4, 0, 0, 0,
		1,
	}, b)
}

func TestCodec_UnknownTileCodeBecomesBlank(t *testing.T) {
	w := &Writer{}
	w.WriteInt32(int32(MessageTypeTileUpdateResponse))
	w.WriteInt32(0)
	w.WriteInt32(0)
	w.WriteInt32(99)
	for i := 0; i < 4; i++ {
		w.WriteInt32(2)
	}

	msg, err := Decode(w.Bytes())
	require.NoError(t, err)
	tile := msg.(TileUpdateResponse).Tile
	assert.Equal(t, models.TileBlank, tile.Kind)
	assert.Equal(t, [4]int{2, 2, 2, 2}, tile.Heights)
}

func TestCodec_Errors(t *testing.T) {
	_, err := Decode([]byte{1, 2})
	assert.True(t, errors.Is(err, ErrShortMessage))

	_, err = Decode([]byte{9, 0, 0, 0})
	assert.True(t, errors.Is(err, ErrUnknownOpcode))

	full := Encode(TileUpdateRequest{X: 1, Z: 1, Tile: models.Tile{Kind: models.TileTree}})
	_, err = Decode(full[:len(full)-3])
	assert.True(t, errors.Is(err, ErrShortMessage))

	w := &Writer{}
	w.WriteInt32(int32(MessageTypeRefreshResponse))
	w.WriteInt32(100000)
	w.WriteInt32(100000)
	_, err = Decode(w.Bytes())
	assert.True(t, errors.Is(err, ErrShortMessage))

	w = &Writer{}
	w.WriteInt32(int32(MessageTypeNewItemResponse))
	w.WriteFloat32(0)
	w.WriteFloat32(0)
	w.WriteInt32(77)
	w.WriteFloat32(1)
	w.WriteFloat32(0)
	_, err = Decode(w.Bytes())
	assert.True(t, errors.Is(err, models.ErrUnknownItemKind))
}

// nestedBarrels writes a NEW_ITEM_REQUEST frame holding depth small barrels,
// each stored inside the previous one.
func nestedBarrels(depth int) []byte {
	w := &Writer{}
	w.WriteInt32(int32(MessageTypeNewItemRequest))
	w.WriteFloat32(0)
	w.WriteFloat32(0)
	for i := 0; i < depth; i++ {
		w.WriteInt32(int32(models.ItemSmallBarrel))
		w.WriteFloat32(10)
		w.WriteFloat32(0)
		w.WriteInt32(int32(models.MaterialOakWood))
		if i == depth-1 {
			w.WriteInt32(0)
		} else {
			w.WriteInt32(1)
		}
	}
	return w.Bytes()
}

func TestCodec_DeeplyNestedItemsAreRejected(t *testing.T) {
	_, err := Decode(nestedBarrels(models.MaxItemDepth + 2))
	assert.True(t, errors.Is(err, models.ErrItemTooDeep))

	_, err = Decode(nestedBarrels(100000))
	assert.True(t, errors.Is(err, models.ErrItemTooDeep))
}

func TestCodec_OverfullBarrelIsRejected(t *testing.T) {
	barrel := models.NewItem(models.ItemSmallBarrel, models.MaterialOakWood, 10, 0)
	// Bypass Store to build a barrel no container would accept
	barrel.Storage.Items = append(barrel.Storage.Items, models.NewItem(models.ItemDirt, models.MaterialNone, 5, 0))

	_, err := Decode(Encode(NewItemRequest{Item: barrel}))
	assert.True(t, errors.Is(err, models.ErrContainerFull))

	// A barrel inside a barrel exceeds the outer volume limit
	outer := models.NewItem(models.ItemSmallBarrel, models.MaterialOakWood, 10, 0)
	outer.Storage.Items = append(outer.Storage.Items, models.NewItem(models.ItemSmallBarrel, models.MaterialOakWood, 10, 0))
	_, err = Decode(Encode(NewItemRequest{Item: outer}))
	assert.True(t, errors.Is(err, models.ErrContainerFull))
}

func TestCodec_RefreshRequestIsOpcodeOnly(t *testing.T) {
	assert.Equal(t, []byte{0, 0, 0, 0}, Encode(RefreshRequest{}))
	msg, err := Decode([]byte{0, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, MessageTypeRefreshRequest, msg.Type())
}

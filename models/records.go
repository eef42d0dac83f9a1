package models

// WriteTile writes a full network tile record: code, the four corner
// heights, then the kind's extra fields.
func WriteTile(w FieldWriter, t *Tile) {
	w.WriteInt32(int32(t.Kind))
	for _, h := range t.Heights {
		w.WriteInt32(int32(h))
	}
	if k := kindOf(t.Kind); k.writeExtra != nil {
		k.writeExtra(t, w)
	}
}

// ReadTile reads a network tile record. An unknown code yields a blank tile
// with the transmitted heights.
func ReadTile(r FieldReader) (Tile, error) {
	t := baseTile(TileKind(r.ReadInt32()))
	for i := range t.Heights {
		t.Heights[i] = int(r.ReadInt32())
	}
	if k := kindOf(t.Kind); k.readExtra != nil {
		k.readExtra(&t, r)
	}
	if err := r.Err(); err != nil {
		return Tile{}, err
	}
	return t, nil
}

// FileExtra returns the kind's extra fields for the tile's file record.
func (t *Tile) FileExtra() []string {
	if k := kindOf(t.Kind); k.fileExtra != nil {
		return k.fileExtra(t)
	}
	return nil
}

// ParseFileExtra applies extra fields read from a tile file record.
func (t *Tile) ParseFileExtra(fields []string) error {
	if k := kindOf(t.Kind); k.parseExtra != nil {
		return k.parseExtra(t, fields)
	}
	return nil
}

// TileFromCode returns a tile of the kind with the given code and heights,
// without random sub-state. Unknown codes become blank.
func TileFromCode(code int32, heights [4]int) Tile {
	t := baseTile(TileKind(code))
	t.Heights = heights
	return t
}

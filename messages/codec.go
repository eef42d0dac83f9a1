package messages

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"tilecraft/server/models"
)

var (
	// ErrShortMessage is returned when a frame ends before its payload does.
	ErrShortMessage = errors.New("message too short")
	// ErrUnknownOpcode is returned for an opcode outside the protocol.
	ErrUnknownOpcode = errors.New("unknown opcode")
)

// minimum encoded sizes, used to reject absurd counts before allocating
const (
	minTileRecord = 5 * 4
	minItemRecord = 2*4 + 3*4
)

// Writer appends little-endian fields to a byte slice
type Writer struct {
	buf []byte
}

// Bytes returns the encoded message
func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) WriteInt32(v int32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, uint32(v))
}

func (w *Writer) WriteFloat32(v float32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, math.Float32bits(v))
}

func (w *Writer) WriteFloat64(v float64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, math.Float64bits(v))
}

func (w *Writer) WriteBool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

// Reader consumes little-endian fields. After the first short read every
// further read returns zero and Err reports ErrShortMessage.
type Reader struct {
	data []byte
	off  int
	err  error
}

// NewReader creates a reader over data
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if len(r.data)-r.off < n {
		r.err = ErrShortMessage
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *Reader) ReadInt32() int32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(b))
}

func (r *Reader) ReadFloat32() float32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func (r *Reader) ReadFloat64() float64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

func (r *Reader) ReadBool() bool {
	b := r.take(1)
	return b != nil && b[0] != 0
}

// Err returns the first read error
func (r *Reader) Err() error { return r.err }

// Remaining is the number of unread bytes
func (r *Reader) Remaining() int { return len(r.data) - r.off }

// Encode serializes msg as opcode followed by its payload
func Encode(msg Message) []byte {
	w := &Writer{}
	w.WriteInt32(int32(msg.Type()))

	switch m := msg.(type) {
	case RefreshRequest:
	case RefreshResponse:
		writeWorld(w, m.World)
	case TileUpdateRequest:
		writeTileUpdate(w, TileUpdate(m))
	case TileUpdateResponse:
		writeTileUpdate(w, TileUpdate(m))
	case NewItemRequest:
		writeNewItem(w, NewItem(m))
	case NewItemResponse:
		writeNewItem(w, NewItem(m))
	}
	return w.Bytes()
}

// Decode parses one message frame
func Decode(data []byte) (Message, error) {
	r := NewReader(data)
	t := MessageType(r.ReadInt32())
	if err := r.Err(); err != nil {
		return nil, err
	}

	switch t {
	case MessageTypeRefreshRequest:
		return RefreshRequest{}, nil
	case MessageTypeRefreshResponse:
		world, err := readWorld(r)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", t, err)
		}
		return RefreshResponse{World: world}, nil
	case MessageTypeTileUpdateRequest, MessageTypeTileUpdateResponse:
		u, err := readTileUpdate(r)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", t, err)
		}
		if t == MessageTypeTileUpdateRequest {
			return TileUpdateRequest(u), nil
		}
		return TileUpdateResponse(u), nil
	case MessageTypeNewItemRequest, MessageTypeNewItemResponse:
		n, err := readNewItem(r)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", t, err)
		}
		if t == MessageTypeNewItemRequest {
			return NewItemRequest(n), nil
		}
		return NewItemResponse(n), nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownOpcode, int32(t))
}

func writeWorld(w *Writer, d *models.WorldData) {
	w.WriteInt32(int32(d.Width))
	w.WriteInt32(int32(d.Height))
	for x := 0; x < d.Width; x++ {
		for z := 0; z < d.Height; z++ {
			models.WriteTile(w, &d.Tiles[d.Index(x, z)])
		}
	}
	w.WriteInt32(int32(len(d.Items)))
	for _, item := range d.Items {
		w.WriteFloat32(item.X)
		w.WriteFloat32(item.Z)
		models.WriteItem(w, item)
	}
}

func readWorld(r *Reader) (*models.WorldData, error) {
	width := int(r.ReadInt32())
	height := int(r.ReadInt32())
	if err := r.Err(); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid world size %dx%d", width, height)
	}
	if int64(width)*int64(height)*minTileRecord > int64(r.Remaining()) {
		return nil, ErrShortMessage
	}

	d := &models.WorldData{Width: width, Height: height, Tiles: make([]models.Tile, width*height)}
	for x := 0; x < width; x++ {
		for z := 0; z < height; z++ {
			t, err := models.ReadTile(r)
			if err != nil {
				return nil, fmt.Errorf("tile (%d,%d): %w", x, z, err)
			}
			d.Tiles[d.Index(x, z)] = t
		}
	}

	count := int(r.ReadInt32())
	if err := r.Err(); err != nil {
		return nil, err
	}
	if count < 0 || int64(count)*minItemRecord > int64(r.Remaining()) {
		return nil, fmt.Errorf("item count %d: %w", count, ErrShortMessage)
	}
	for i := 0; i < count; i++ {
		x := r.ReadFloat32()
		z := r.ReadFloat32()
		item, err := models.ReadItem(r)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		item.X, item.Z = x, z
		d.Items = append(d.Items, item)
	}
	return d, nil
}

func writeTileUpdate(w *Writer, u TileUpdate) {
	w.WriteInt32(u.X)
	w.WriteInt32(u.Z)
	models.WriteTile(w, &u.Tile)
}

func readTileUpdate(r *Reader) (TileUpdate, error) {
	u := TileUpdate{X: r.ReadInt32(), Z: r.ReadInt32()}
	t, err := models.ReadTile(r)
	if err != nil {
		return TileUpdate{}, err
	}
	u.Tile = t
	return u, nil
}

func writeNewItem(w *Writer, n NewItem) {
	w.WriteFloat32(n.X)
	w.WriteFloat32(n.Z)
	models.WriteItem(w, n.Item)
}

func readNewItem(r *Reader) (NewItem, error) {
	n := NewItem{X: r.ReadFloat32(), Z: r.ReadFloat32()}
	item, err := models.ReadItem(r)
	if err != nil {
		return NewItem{}, err
	}
	item.X, item.Z = n.X, n.Z
	n.Item = item
	return n, nil
}

package models

// FieldWriter is the sink used by tiles and items to write their network
// records. messages.Writer implements it.
type FieldWriter interface {
	WriteInt32(v int32)
	WriteFloat32(v float32)
	WriteFloat64(v float64)
	WriteBool(v bool)
}

// FieldReader is the source used by tiles and items to read their network
// records. Implementations keep the first error and return zero values after it.
type FieldReader interface {
	ReadInt32() int32
	ReadFloat32() float32
	ReadFloat64() float64
	ReadBool() bool
	Err() error
}

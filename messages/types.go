package messages

import "tilecraft/server/models"

// MessageType is the int32 opcode that prefixes every message
type MessageType int32

const (
	MessageTypeRefreshRequest     MessageType = 0
	MessageTypeRefreshResponse    MessageType = 1
	MessageTypeTileUpdateRequest  MessageType = 2
	MessageTypeTileUpdateResponse MessageType = 3
	MessageTypeNewItemRequest     MessageType = 4
	MessageTypeNewItemResponse    MessageType = 5
)

func (t MessageType) String() string {
	switch t {
	case MessageTypeRefreshRequest:
		return "REFRESH_REQUEST"
	case MessageTypeRefreshResponse:
		return "REFRESH_RESPONSE"
	case MessageTypeTileUpdateRequest:
		return "TILE_UPDATE_REQUEST"
	case MessageTypeTileUpdateResponse:
		return "TILE_UPDATE_RESPONSE"
	case MessageTypeNewItemRequest:
		return "NEW_ITEM_REQUEST"
	case MessageTypeNewItemResponse:
		return "NEW_ITEM_RESPONSE"
	}
	return "UNKNOWN"
}

// Message is implemented by every message body
type Message interface {
	Type() MessageType
}

// RefreshRequest asks the server for the whole world
type RefreshRequest struct{}

// RefreshResponse carries the whole world
type RefreshResponse struct {
	World *models.WorldData
}

// TileUpdate is the payload shared by the tile update request and response
type TileUpdate struct {
	X    int32
	Z    int32
	Tile models.Tile
}

// TileUpdateRequest is a client reporting a changed tile
type TileUpdateRequest TileUpdate

// TileUpdateResponse is the server relaying a changed tile
type TileUpdateResponse TileUpdate

// NewItem is the payload shared by the new item request and response
type NewItem struct {
	X    float32
	Z    float32
	Item *models.Item
}

// NewItemRequest is a client placing an item on the ground
type NewItemRequest NewItem

// NewItemResponse is the server relaying an item placed on the ground
type NewItemResponse NewItem

func (RefreshRequest) Type() MessageType     { return MessageTypeRefreshRequest }
func (RefreshResponse) Type() MessageType    { return MessageTypeRefreshResponse }
func (TileUpdateRequest) Type() MessageType  { return MessageTypeTileUpdateRequest }
func (TileUpdateResponse) Type() MessageType { return MessageTypeTileUpdateResponse }
func (NewItemRequest) Type() MessageType     { return MessageTypeNewItemRequest }
func (NewItemResponse) Type() MessageType    { return MessageTypeNewItemResponse }

package ws

import (
	"encoding/json"

	"github.com/openboard/openboard/internal/draw"
)

// MessageType identifies the kind of WebSocket message.
type MessageType string

const (
	// Client to Server messages.
	MessageTypeRegister     MessageType = "register"      // Join or create a room
	MessageTypeCursor       MessageType = "cursor"        // Ephemeral cursor position
	MessageTypeDrawSegment  MessageType = "draw-segment"  // Ephemeral freehand preview
	MessageTypeShapePreview MessageType = "shape-preview" // Ephemeral shape preview
	MessageTypeStroke       MessageType = "stroke"        // Commit a freehand stroke
	MessageTypeShape        MessageType = "shape"         // Commit a shape
	MessageTypeText         MessageType = "text"          // Commit a text label
	MessageTypeClear        MessageType = "clear"         // Commit a canvas clear
	MessageTypeUndo         MessageType = "undo"          // Revert the latest commit
	MessageTypeRedo         MessageType = "redo"          // Reapply the latest undo
	MessageTypeDisconnect   MessageType = "disconnect"    // Explicit room departure
	MessageTypePing         MessageType = "ping"          // Latency probe

	// Server to Client messages.
	MessageTypeNoRoom       MessageType = "no-room"       // Join rejected, room absent
	MessageTypeInit         MessageType = "init"          // Initial picture snapshot
	MessageTypeUpdateCanvas MessageType = "update-canvas" // Full snapshot replacement
	MessageTypeOnlineUsers  MessageType = "online-users"  // Presence roster
	MessageTypePong         MessageType = "pong"          // Latency probe echo
)

// User is a roster entry describing one room member.
type User struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Color  string `json:"color"`
}

// RegisterPayload is sent by a client to join or create a room.
type RegisterPayload struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Color  string `json:"color"`
	RoomID string `json:"roomId"`
	Create bool   `json:"create"`
}

// PingPayload carries the client timestamp echoed back in the pong.
type PingPayload struct {
	SentAt float64 `json:"sentAt"`
}

// NoRoomMessage rejects a join against an absent room.
type NoRoomMessage struct {
	Type   MessageType `json:"type"`
	RoomID string      `json:"roomId"`
}

// InitMessage delivers the visible picture snapshot to a joining client.
type InitMessage struct {
	Type    MessageType `json:"type"`
	History []draw.Op   `json:"history"`
}

// StrokeMessage fans a committed operation out to peers.
type StrokeMessage struct {
	Type   MessageType `json:"type"`
	Stroke draw.Op     `json:"stroke"`
}

// ClearMessage fans a committed clear out to peers.
type ClearMessage struct {
	Type MessageType `json:"type"`
}

// UpdateCanvasMessage replaces each peer's local picture wholesale
// after an undo or redo.
type UpdateCanvasMessage struct {
	Type    MessageType `json:"type"`
	History []draw.Op   `json:"history"`
}

// OnlineUsersMessage publishes the room roster.
type OnlineUsersMessage struct {
	Type  MessageType `json:"type"`
	Users []User      `json:"users"`
}

// PongMessage echoes a ping back to its sender.
type PongMessage struct {
	Type   MessageType `json:"type"`
	SentAt float64     `json:"sentAt"`
}

// DisconnectMessage notifies peers that a member left.
type DisconnectMessage struct {
	Type   MessageType `json:"type"`
	UserID string      `json:"userId"`
}

// Incoming is one parsed client message. Raw always holds the original
// bytes so ephemeral messages can be relayed verbatim; at most one of
// the typed payload fields is set, matching Type.
type Incoming struct {
	Type MessageType
	Raw  json.RawMessage

	Register *RegisterPayload
	Op       *draw.Op
	Ping     *PingPayload
}

// ParseIncoming decodes a client message envelope. The payload is
// parsed per message type; types the server only relays keep their raw
// bytes. An unknown type is not an error here - the caller decides to
// log and ignore it.
func ParseIncoming(data []byte) (Incoming, error) {
	var head struct {
		Type MessageType `json:"type"`
	}

	if err := json.Unmarshal(data, &head); err != nil {
		return Incoming{}, err
	}

	in := Incoming{Type: head.Type, Raw: data}

	switch head.Type {
	case MessageTypeRegister:
		var payload RegisterPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return Incoming{}, err
		}

		in.Register = &payload
	case MessageTypeStroke, MessageTypeShape, MessageTypeText, MessageTypeClear:
		var op draw.Op
		if err := json.Unmarshal(data, &op); err != nil {
			return Incoming{}, err
		}

		in.Op = &op
	case MessageTypePing:
		var payload PingPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return Incoming{}, err
		}

		in.Ping = &payload
	case MessageTypeCursor, MessageTypeDrawSegment, MessageTypeShapePreview,
		MessageTypeUndo, MessageTypeRedo, MessageTypeDisconnect:
		// Relayed or payload-free - raw bytes are enough.
	}

	return in, nil
}

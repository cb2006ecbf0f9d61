package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/openboard/openboard/internal/draw"
	"github.com/openboard/openboard/internal/room"
	"github.com/openboard/openboard/internal/ws"
)

// Register defaults applied when the client omits a field.
const (
	defaultRoomID = "default"
	defaultName   = "Anonymous"
	defaultColor  = "#000000"
)

// handleWebSocket handles GET /ws: upgrades the connection and runs
// the per-connection read loop until the transport drops.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)

		return
	}

	if s.readLimit > 0 {
		conn.SetReadLimit(s.readLimit)
	}

	client := ws.NewClient(uuid.New().String(), conn, s.sendQueueSize)

	defer s.teardown(client)

	s.readLoop(client)
}

// teardown detaches the client from its room, if any, and closes the
// transport. Disconnect is the only cancellation signal: nothing
// pending from this session is retried or replayed.
func (s *Server) teardown(client *ws.Client) {
	if roomID := client.RoomID(); roomID != "" {
		s.registry.Leave(roomID, client.UserID())
	}

	_ = client.Close()
}

// readLoop reads and dispatches messages until the connection fails.
// Malformed messages are dropped without closing the connection.
func (s *Server) readLoop(client *ws.Client) {
	for {
		data, err := client.ReadMessage()
		if err != nil {
			return
		}

		in, err := ws.ParseIncoming(data)
		if err != nil {
			log.Printf("dropping malformed message: %v", err)

			continue
		}

		s.dispatch(client, in)
	}
}

// dispatch routes one parsed message.
func (s *Server) dispatch(client *ws.Client, in ws.Incoming) {
	switch in.Type {
	case ws.MessageTypeRegister:
		s.handleRegister(client, in.Register)
	case ws.MessageTypeCursor, ws.MessageTypeDrawSegment, ws.MessageTypeShapePreview:
		s.relayEphemeral(client, in)
	case ws.MessageTypeStroke, ws.MessageTypeShape, ws.MessageTypeText:
		s.handleCommit(client, *in.Op)
	case ws.MessageTypeClear:
		s.handleCommit(client, draw.NewClear())
	case ws.MessageTypeUndo:
		s.handleUndo(client)
	case ws.MessageTypeRedo:
		s.handleRedo(client)
	case ws.MessageTypePing:
		_ = client.Send(ws.PongMessage{Type: ws.MessageTypePong, SentAt: in.Ping.SentAt})
	case ws.MessageTypeDisconnect:
		s.handleDisconnect(client)
	case ws.MessageTypeNoRoom, ws.MessageTypeInit, ws.MessageTypeUpdateCanvas,
		ws.MessageTypeOnlineUsers, ws.MessageTypePong:
		// Server-to-client types are never expected from a client.
		log.Printf("ignoring unexpected message type %q", in.Type)
	default:
		log.Printf("ignoring unknown message type %q", in.Type)
	}
}

// handleRegister joins or creates a room for the client.
func (s *Server) handleRegister(client *ws.Client, payload *ws.RegisterPayload) {
	roomID := payload.RoomID
	if roomID == "" {
		roomID = defaultRoomID
	}

	userID := payload.UserID
	if userID == "" {
		userID = client.SessionID
	}

	name := payload.Name
	if name == "" {
		name = defaultName
	}

	color := payload.Color
	if color == "" {
		color = defaultColor
	}

	// A participant belongs to at most one room at a time.
	if prev := client.RoomID(); prev != "" && prev != roomID {
		s.registry.Leave(prev, client.UserID())
		client.SetRoomID("")
	}

	client.SetIdentity(userID, name, color)

	rm, snapshot, err := s.registry.Join(roomID, client, payload.Create)
	if err != nil {
		if errors.Is(err, room.ErrNoRoom) {
			log.Printf("rejected join to non-existent room %s", roomID)
			_ = client.Send(ws.NoRoomMessage{Type: ws.MessageTypeNoRoom, RoomID: roomID})
		}

		return
	}

	log.Printf("%s joined room %s", name, roomID)

	_ = client.Send(ws.InitMessage{Type: ws.MessageTypeInit, History: snapshot})
	rm.PublishRoster()
}

// relayEphemeral forwards cursor and preview messages verbatim to the
// sender's peers. Nothing is logged to history; a momentarily absent
// peer simply misses them.
func (s *Server) relayEphemeral(client *ws.Client, in ws.Incoming) {
	rm := s.currentRoom(client)
	if rm == nil {
		return
	}

	rm.BroadcastRaw(in.Raw, client.UserID())
}

// handleCommit appends an operation to the room history and fans it
// out to the sender's peers.
func (s *Server) handleCommit(client *ws.Client, op draw.Op) {
	rm := s.currentRoom(client)
	if rm == nil {
		return
	}

	if op.AuthorID() == "" {
		op.SetAuthorID(client.UserID())
	}

	rm.CommitAndBroadcast(op, client.UserID())
}

// handleUndo reverts the room's most recent commit. An empty history
// is a silent no-op: no error, no broadcast.
func (s *Server) handleUndo(client *ws.Client) {
	if rm := s.currentRoom(client); rm != nil {
		rm.UndoAndBroadcast()
	}
}

// handleRedo reapplies the room's most recently undone operation. An
// empty undone stack is a silent no-op.
func (s *Server) handleRedo(client *ws.Client) {
	if rm := s.currentRoom(client); rm != nil {
		rm.RedoAndBroadcast()
	}
}

// handleDisconnect processes an explicit departure message.
func (s *Server) handleDisconnect(client *ws.Client) {
	if roomID := client.RoomID(); roomID != "" {
		s.registry.Leave(roomID, client.UserID())
		client.SetRoomID("")
	}
}

// currentRoom resolves the client's room, or nil when the client has
// not registered yet.
func (s *Server) currentRoom(client *ws.Client) *room.Room {
	roomID := client.RoomID()
	if roomID == "" {
		return nil
	}

	return s.registry.Get(roomID)
}

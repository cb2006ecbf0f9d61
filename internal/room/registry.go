// Package room implements the room synchronization engine: the
// registry owning room lifecycle, the per-room operation log, presence
// roster, and broadcast fan-out.
package room

import (
	"errors"
	"log"
	"sync"

	"github.com/openboard/openboard/internal/draw"
	"github.com/openboard/openboard/internal/ws"
)

// Common errors.
var (
	ErrNoRoom = errors.New("room does not exist")
)

// Registry maps room ids to live rooms. It is the sole writer of room
// lifecycle: rooms are created on explicit request and deleted the
// moment the last member leaves. State lives only in process memory.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
	}
}

// Join attaches a client to a room and returns the room together with
// the visible history snapshot for initial rendering.
//
// With create set, a missing room is created first; an existing room is
// silently joined instead of erroring (idempotent create). Without
// create, a missing room yields ErrNoRoom and the client is left
// attached to nothing.
func (g *Registry) Join(roomID string, c *ws.Client, create bool) (*Room, []draw.Op, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	r, ok := g.rooms[roomID]
	if !ok {
		if !create {
			return nil, nil, ErrNoRoom
		}

		r = newRoom(roomID)
		g.rooms[roomID] = r
		log.Printf("created room %s", roomID)
	}

	snapshot := r.join(c)
	c.SetRoomID(roomID)

	return r, snapshot, nil
}

// Leave removes a member from a room. The departure is announced to
// the remaining members and the roster republished; a room that
// empties is deleted immediately, discarding its history.
func (g *Registry) Leave(roomID, userID string) {
	g.mu.Lock()

	r, ok := g.rooms[roomID]
	if !ok {
		g.mu.Unlock()

		return
	}

	empty := r.remove(userID)
	if empty {
		delete(g.rooms, roomID)
		log.Printf("deleted empty room %s", roomID)
	}

	g.mu.Unlock()

	if !empty {
		r.Broadcast(ws.DisconnectMessage{
			Type:   ws.MessageTypeDisconnect,
			UserID: userID,
		}, "")
		r.PublishRoster()
	}
}

// Get returns a live room or nil.
func (g *Registry) Get(roomID string) *Room {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.rooms[roomID]
}

// Exists reports whether a room id is currently live. It backs the
// pre-join existence check.
func (g *Registry) Exists(roomID string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	_, ok := g.rooms[roomID]

	return ok
}

// RoomCount returns the number of live rooms.
func (g *Registry) RoomCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.rooms)
}

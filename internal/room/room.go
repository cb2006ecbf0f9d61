package room

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/openboard/openboard/internal/board"
	"github.com/openboard/openboard/internal/draw"
	"github.com/openboard/openboard/internal/ws"
	"github.com/samber/lo"
)

// Room is one isolated collaboration session: its members, its
// operation log, and the fan-out across them. All history and
// membership mutations go through the room mutex, so commits from
// concurrent participants are serialized per room while rooms stay
// independently schedulable.
type Room struct {
	ID string

	mu      sync.Mutex
	members map[string]*ws.Client
	log     *board.Log
}

func newRoom(id string) *Room {
	return &Room{
		ID:      id,
		members: make(map[string]*ws.Client),
		log:     board.NewLog(),
	}
}

// join attaches a client keyed by participant id, replacing any prior
// entry with the same id (reconnect support), and returns the visible
// snapshot for initial rendering.
func (r *Room) join(c *ws.Client) []draw.Op {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.members[c.UserID()] = c

	return r.log.Visible()
}

// remove detaches a member and reports whether the room is now empty.
func (r *Room) remove(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.members, userID)

	return len(r.members) == 0
}

// Commit appends an operation to the room's history, invalidating any
// redo history.
func (r *Room) Commit(op draw.Op) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.log.Commit(op)
}

// Undo reverts the most recent commit regardless of author (undo is
// global per room, not per participant). It returns the new visible
// snapshot, or false without a snapshot when the history is empty.
func (r *Room) Undo() ([]draw.Op, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.log.Undo() {
		return nil, false
	}

	return r.log.Visible(), true
}

// Redo reapplies the most recently undone operation. It returns the
// new visible snapshot, or false without a snapshot when the undone
// stack is empty.
func (r *Room) Redo() ([]draw.Op, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.log.Redo() {
		return nil, false
	}

	return r.log.Visible(), true
}

// CommitAndBroadcast appends an operation and fans it out to every
// member except excludeUserID in a single critical section, so peers
// receive commits in exactly the order they entered the history.
// Clears fan out as a clear notice, everything else as the full
// operation payload.
func (r *Room) CommitAndBroadcast(op draw.Op, excludeUserID string) {
	var msg any
	if op.IsClear() {
		msg = ws.ClearMessage{Type: ws.MessageTypeClear}
	} else {
		msg = ws.StrokeMessage{Type: ws.MessageTypeStroke, Stroke: op}
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.log.Commit(op)
	r.sendLocked(data, excludeUserID)
}

// UndoAndBroadcast reverts the latest commit and pushes the recomputed
// snapshot to every member. It reports false without broadcasting when
// the history is empty (state did not change).
func (r *Room) UndoAndBroadcast() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.log.Undo() {
		return false
	}

	r.broadcastSnapshotLocked()

	return true
}

// RedoAndBroadcast reapplies the latest undo and pushes the recomputed
// snapshot to every member. It reports false without broadcasting when
// the undone stack is empty.
func (r *Room) RedoAndBroadcast() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.log.Redo() {
		return false
	}

	r.broadcastSnapshotLocked()

	return true
}

// broadcastSnapshotLocked sends the full visible snapshot to all
// members. Caller holds r.mu.
func (r *Room) broadcastSnapshotLocked() {
	data, err := json.Marshal(ws.UpdateCanvasMessage{
		Type:    ws.MessageTypeUpdateCanvas,
		History: r.log.Visible(),
	})
	if err != nil {
		return
	}

	r.sendLocked(data, "")
}

// sendLocked enqueues data to every member except excludeUserID.
// Caller holds r.mu.
func (r *Room) sendLocked(data []byte, excludeUserID string) {
	for userID, member := range r.members {
		if userID == excludeUserID {
			continue
		}

		_ = member.SendRaw(data)
	}
}

// Visible returns the derived picture snapshot.
func (r *Room) Visible() []draw.Op {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.log.Visible()
}

// Broadcast serializes a message once and delivers it to every member
// except excludeUserID (empty string excludes nobody).
func (r *Room) Broadcast(msg any, excludeUserID string) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	r.BroadcastRaw(data, excludeUserID)
}

// BroadcastRaw delivers pre-serialized bytes to every member except
// excludeUserID. Delivery is fire-and-forget per member: a closed or
// backlogged peer does not affect the others or the caller.
func (r *Room) BroadcastRaw(data []byte, excludeUserID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sendLocked(data, excludeUserID)
}

// Roster returns the current member list ordered by participant id.
func (r *Room) Roster() []ws.User {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := lo.Map(lo.Values(r.members), func(c *ws.Client, _ int) ws.User {
		return c.User()
	})

	sort.Slice(users, func(i, j int) bool {
		return users[i].UserID < users[j].UserID
	})

	return users
}

// PublishRoster broadcasts the current roster to all members,
// including the one whose join or leave triggered the change.
func (r *Room) PublishRoster() {
	r.Broadcast(ws.OnlineUsersMessage{
		Type:  ws.MessageTypeOnlineUsers,
		Users: r.Roster(),
	}, "")
}

// MemberCount returns the number of attached members.
func (r *Room) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.members)
}

// HasMember reports whether a participant id is attached to the room.
func (r *Room) HasMember(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.members[userID]

	return ok
}

// HistoryLen returns the number of committed operations, clears included.
func (r *Room) HistoryLen() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.log.HistoryLen()
}

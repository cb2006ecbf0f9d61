package room_test

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/openboard/openboard/internal/draw"
	"github.com/openboard/openboard/internal/room"
	"github.com/openboard/openboard/internal/ws"
	"github.com/stretchr/testify/require"
)

// fakeConn records everything written to it.
type fakeConn struct {
	mu      sync.Mutex
	written [][]byte
	closed  bool
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	return 0, nil, errors.New("not used in tests")
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return errors.New("write on closed connection")
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	f.written = append(f.written, buf)

	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true

	return nil
}

func (f *fakeConn) messages(t *testing.T) []map[string]any {
	t.Helper()

	f.mu.Lock()
	defer f.mu.Unlock()

	result := make([]map[string]any, 0, len(f.written))

	for _, data := range f.written {
		var msg map[string]any
		require.NoError(t, json.Unmarshal(data, &msg))
		result = append(result, msg)
	}

	return result
}

// typesSeen returns the message type of everything written so far.
func (f *fakeConn) typesSeen(t *testing.T) []string {
	t.Helper()

	var types []string

	for _, msg := range f.messages(t) {
		if s, ok := msg["type"].(string); ok {
			types = append(types, s)
		}
	}

	return types
}

func (f *fakeConn) sawType(t *testing.T, want string) bool {
	t.Helper()

	for _, typ := range f.typesSeen(t) {
		if typ == want {
			return true
		}
	}

	return false
}

func newMember(id, name, color string) (*ws.Client, *fakeConn) {
	conn := &fakeConn{}
	client := ws.NewClient("session-"+id, conn, 32)
	client.SetIdentity(id, name, color)

	return client, conn
}

func stroke(author string, x float64) draw.Op {
	return draw.NewStroke(author, "#000000", 2, false, []draw.Point{{X: x, Y: 0}, {X: x, Y: 1}})
}

func TestRoom_FanOutExcludesSender(t *testing.T) {
	t.Parallel()

	reg := room.NewRegistry()

	alice, aliceConn := newMember("alice", "Alice", "#f00")
	bob, bobConn := newMember("bob", "Bob", "#00f")

	r, _, err := reg.Join("r1", alice, true)
	require.NoError(t, err)
	_, _, err = reg.Join("r1", bob, true)
	require.NoError(t, err)

	op := stroke("alice", 0.5)
	r.Commit(op)
	r.Broadcast(ws.StrokeMessage{Type: ws.MessageTypeStroke, Stroke: op}, "alice")

	require.Eventually(t, func() bool {
		return bobConn.sawType(t, "stroke")
	}, time.Second, 5*time.Millisecond)

	if aliceConn.sawType(t, "stroke") {
		t.Error("sender must not receive an echo of their own commit")
	}
}

func TestRoom_RosterOrderedByUserID(t *testing.T) {
	t.Parallel()

	reg := room.NewRegistry()

	zed, _ := newMember("zed", "Zed", "#111")
	amy, _ := newMember("amy", "Amy", "#222")

	r, _, err := reg.Join("r1", zed, true)
	require.NoError(t, err)
	_, _, err = reg.Join("r1", amy, true)
	require.NoError(t, err)

	roster := r.Roster()
	require.Equal(t, []ws.User{
		{UserID: "amy", Name: "Amy", Color: "#222"},
		{UserID: "zed", Name: "Zed", Color: "#111"},
	}, roster)
}

func TestRoom_UndoRedoSnapshots(t *testing.T) {
	t.Parallel()

	reg := room.NewRegistry()
	owner, _ := newMember("u1", "U1", "#000")

	r, _, err := reg.Join("r1", owner, true)
	require.NoError(t, err)

	a := stroke("u1", 0.1)
	b := stroke("u1", 0.2)
	r.Commit(a)
	r.Commit(b)

	snapshot, ok := r.Undo()
	require.True(t, ok)
	require.Len(t, snapshot, 1)

	snapshot, ok = r.Redo()
	require.True(t, ok)
	require.Len(t, snapshot, 2)
	require.Len(t, r.Visible(), 2)

	// Empty stacks are silent no-ops.
	_, ok = r.Redo()
	require.False(t, ok)

	r.Undo()
	r.Undo()

	_, ok = r.Undo()
	require.False(t, ok)
}

func TestRoom_BroadcastSurvivesClosedMember(t *testing.T) {
	t.Parallel()

	reg := room.NewRegistry()

	alice, _ := newMember("alice", "Alice", "#f00")
	bob, bobConn := newMember("bob", "Bob", "#00f")

	r, _, err := reg.Join("r1", alice, true)
	require.NoError(t, err)
	_, _, err = reg.Join("r1", bob, true)
	require.NoError(t, err)

	// A dead member must not abort delivery to the rest.
	require.NoError(t, alice.Close())

	r.Broadcast(ws.ClearMessage{Type: ws.MessageTypeClear}, "")

	require.Eventually(t, func() bool {
		return bobConn.sawType(t, "clear")
	}, time.Second, 5*time.Millisecond)
}

package ws_test

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/openboard/openboard/internal/ws"
	"github.com/stretchr/testify/require"
)

// mockConn is a test double for ws.Conn.
type mockConn struct {
	mu      sync.Mutex
	written [][]byte
	closed  bool

	// For ReadMessage simulation
	incoming chan []byte
}

func newMockConn() *mockConn {
	return &mockConn{
		incoming: make(chan []byte, 16),
	}
}

func (m *mockConn) ReadMessage() (int, []byte, error) {
	data, ok := <-m.incoming
	if !ok {
		return 0, nil, errors.New("connection closed")
	}

	return 1, data, nil
}

func (m *mockConn) WriteMessage(_ int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errors.New("write on closed connection")
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	m.written = append(m.written, buf)

	return nil
}

func (m *mockConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true

	return nil
}

func (m *mockConn) Written() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([][]byte, len(m.written))
	copy(result, m.written)

	return result
}

func (m *mockConn) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.closed
}

func TestClient_SendPreservesOrder(t *testing.T) {
	t.Parallel()

	conn := newMockConn()
	client := ws.NewClient("s1", conn, 16)

	defer client.Close()

	for _, payload := range []string{"a", "b", "c"} {
		require.NoError(t, client.Send(ws.NoRoomMessage{Type: ws.MessageTypeNoRoom, RoomID: payload}))
	}

	require.Eventually(t, func() bool {
		return len(conn.Written()) == 3
	}, time.Second, 5*time.Millisecond)

	var rooms []string

	for _, data := range conn.Written() {
		var msg ws.NoRoomMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		rooms = append(rooms, msg.RoomID)
	}

	require.Equal(t, []string{"a", "b", "c"}, rooms)
}

func TestClient_SendAfterClose(t *testing.T) {
	t.Parallel()

	conn := newMockConn()
	client := ws.NewClient("s1", conn, 16)

	require.NoError(t, client.Close())

	err := client.SendRaw([]byte(`{}`))
	require.ErrorIs(t, err, ws.ErrClientClosed)

	if !conn.IsClosed() {
		t.Error("expected underlying connection closed")
	}
}

func TestClient_QueueOverflowClosesClient(t *testing.T) {
	t.Parallel()

	conn := newMockConn()
	client := ws.NewClient("s1", conn, 1)

	defer client.Close()

	// Fill the queue faster than the writer can drain it. Eventually the
	// enqueue either succeeds or trips the overflow path; the client must
	// end up closed once overflow is reported.
	var overflowed bool

	for i := 0; i < 10_000 && !overflowed; i++ {
		err := client.SendRaw([]byte(`{}`))
		if errors.Is(err, ws.ErrSendQueueFull) {
			overflowed = true
		} else if errors.Is(err, ws.ErrClientClosed) {
			break
		}
	}

	if overflowed && !client.Closed() {
		t.Error("client should be closed after queue overflow")
	}
}

func TestClient_Identity(t *testing.T) {
	t.Parallel()

	conn := newMockConn()
	client := ws.NewClient("s1", conn, 4)

	defer client.Close()

	client.SetIdentity("u1", "Ada", "#ff00ff")
	client.SetRoomID("room-1")

	require.Equal(t, "u1", client.UserID())
	require.Equal(t, "room-1", client.RoomID())
	require.Equal(t, ws.User{UserID: "u1", Name: "Ada", Color: "#ff00ff"}, client.User())
}

func TestParseIncoming_Register(t *testing.T) {
	t.Parallel()

	in, err := ws.ParseIncoming([]byte(`{"type":"register","userId":"u1","name":"Ada","color":"#fff","roomId":"r1","create":true}`))
	require.NoError(t, err)

	require.Equal(t, ws.MessageTypeRegister, in.Type)
	require.NotNil(t, in.Register)
	require.Equal(t, "u1", in.Register.UserID)
	require.True(t, in.Register.Create)
}

func TestParseIncoming_Stroke(t *testing.T) {
	t.Parallel()

	in, err := ws.ParseIncoming([]byte(`{"type":"stroke","userId":"u1","color":"#000","width":3,"eraser":false,"points":[{"x":0,"y":0},{"x":1,"y":1}]}`))
	require.NoError(t, err)

	require.Equal(t, ws.MessageTypeStroke, in.Type)
	require.NotNil(t, in.Op)
	require.Equal(t, "u1", in.Op.AuthorID())
}

func TestParseIncoming_Malformed(t *testing.T) {
	t.Parallel()

	_, err := ws.ParseIncoming([]byte(`{not json`))
	require.Error(t, err)
}

func TestParseIncoming_EphemeralKeepsRaw(t *testing.T) {
	t.Parallel()

	raw := []byte(`{"type":"cursor","userId":"u1","x":0.5,"y":0.5,"color":"#000","name":"Ada"}`)

	in, err := ws.ParseIncoming(raw)
	require.NoError(t, err)

	require.Equal(t, ws.MessageTypeCursor, in.Type)
	require.JSONEq(t, string(raw), string(in.Raw))
	require.Nil(t, in.Op)
}

package hub

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// mockConn is a stand-in transport implementing Conn for tests.
type mockConn struct {
	mu      sync.Mutex
	written [][]byte
	closed  bool
}

func (m *mockConn) ReadMessage() (int, []byte, error) {
	return 0, nil, errors.New("mock transport has no inbound frames")
}

func (m *mockConn) WriteMessage(messageType int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errors.New("write on closed mock transport")
	}
	m.written = append(m.written, data)
	return nil
}

func (m *mockConn) SetReadLimit(int64) {}

func (m *mockConn) SetReadDeadline(time.Time) error { return nil }

func (m *mockConn) SetWriteDeadline(time.Time) error { return nil }

func (m *mockConn) SetPongHandler(func(string) error) {}

func (m *mockConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockConn) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *mockConn) writtenFrames() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.written...)
}

func newTestHub(opts Options) *Hub {
	return NewHub(nil, opts)
}

// addClient registers a mock-backed client and drains the connect ack so
// tests start from an empty delivery queue.
func addClient(t *testing.T, h *Hub, userID string) *Client {
	t.Helper()
	client := newClient(h, &mockConn{}, userID)
	h.handleRegister(client)

	ack := recvMessage(t, client.connection)
	require.Equal(t, MessageTypeConnect, ack.Type)
	return client
}

// recvMessage pops the next queued frame for the connection.
func recvMessage(t *testing.T, conn *Connection) *Message {
	t.Helper()
	select {
	case frame, ok := <-conn.send:
		require.True(t, ok, "delivery queue closed")
		var msg Message
		require.NoError(t, json.Unmarshal(frame, &msg))
		return &msg
	case <-time.After(time.Second):
		t.Fatal("no message queued")
		return nil
	}
}

// assertNoMessage asserts the connection's queue is empty.
func assertNoMessage(t *testing.T, conn *Connection) {
	t.Helper()
	select {
	case frame := <-conn.send:
		t.Fatalf("unexpected queued frame: %s", frame)
	default:
	}
}

// subscribeFrame builds an inbound subscribe/unsubscribe message the way
// it arrives off the wire, where JSON lists decode to []interface{}.
func subscribeFrame(msgType MessageType, channels ...string) *Message {
	raw := make([]interface{}, len(channels))
	for i, ch := range channels {
		raw[i] = ch
	}
	return &Message{
		Type: msgType,
		Data: map[string]interface{}{"channels": raw},
	}
}

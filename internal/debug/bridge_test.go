package debug

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialBridge(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestBridgeCommandTransitionsSession(t *testing.T) {
	session := NewSession("")
	bridge := NewBridge(session)
	srv := httptest.NewServer(bridge)
	defer srv.Close()

	conn := dialBridge(t, srv)
	require.NoError(t, conn.WriteJSON(Command{Type: CmdStep}))

	assert.Eventually(t, func() bool {
		return session.State() == Stepping
	}, time.Second, 10*time.Millisecond)
}

func TestBridgeEventReachesSubscribers(t *testing.T) {
	session := NewSession("")
	bridge := NewBridge(session)
	srv := httptest.NewServer(bridge)
	defer srv.Close()

	events, cancel := session.Subscribe()
	defer cancel()

	conn := dialBridge(t, srv)
	payload := map[string]any{"line": 12, "action": "click"}
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "step:before", "payload": payload}))

	select {
	case ev := <-events:
		assert.Equal(t, "step:before", ev.Type)
		var got map[string]any
		require.NoError(t, json.Unmarshal(ev.Payload, &got))
		assert.Equal(t, "click", got["action"])
	case <-time.After(time.Second):
		t.Fatal("event did not arrive")
	}
}

func TestBridgeRebroadcastsCommands(t *testing.T) {
	session := NewSession("")
	bridge := NewBridge(session)
	srv := httptest.NewServer(bridge)
	defer srv.Close()

	listener := dialBridge(t, srv)
	sender := dialBridge(t, srv)

	// both conns registered before the command goes out
	require.Eventually(t, func() bool {
		bridge.mu.Lock()
		defer bridge.mu.Unlock()
		return len(bridge.conns) == 2
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, sender.WriteJSON(Command{Type: CmdSetBreakpoints, Lines: []int{9}}))

	listener.SetReadDeadline(time.Now().Add(time.Second))
	var cmd Command
	require.NoError(t, listener.ReadJSON(&cmd))
	assert.Equal(t, CmdSetBreakpoints, cmd.Type)
	assert.Equal(t, []int{9}, cmd.Lines)
	assert.Equal(t, []int{9}, session.Breakpoints())
}

func TestBridgeSendCommand(t *testing.T) {
	session := NewSession("")
	bridge := NewBridge(session)
	srv := httptest.NewServer(bridge)
	defer srv.Close()

	conn := dialBridge(t, srv)
	require.Eventually(t, func() bool {
		bridge.mu.Lock()
		defer bridge.mu.Unlock()
		return len(bridge.conns) == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, bridge.SendCommand(Command{Type: CmdResume}))

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var cmd Command
	require.NoError(t, conn.ReadJSON(&cmd))
	assert.Equal(t, CmdResume, cmd.Type)
	assert.Equal(t, Running, session.State())
}

func TestBridgeSendCommandAfterStop(t *testing.T) {
	session := NewSession("")
	bridge := NewBridge(session)

	require.NoError(t, bridge.SendCommand(Command{Type: CmdStop}))
	require.Error(t, bridge.SendCommand(Command{Type: CmdStep}))
	assert.Equal(t, Stopped, session.State())
}

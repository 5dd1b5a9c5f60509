package debug

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// the bridge listens on loopback for the local test process
		return true
	},
}

// Bridge serves the WebSocket side of a session. The instrumented
// test process and any watching UI connect to the same endpoint:
// command envelopes transition the session and are rebroadcast so the
// process hears them; everything else is a runtime event fanned out
// through the session's subscribers.
type Bridge struct {
	session *Session

	mu    sync.Mutex
	conns map[*websocket.Conn]*sync.Mutex
}

func NewBridge(session *Session) *Bridge {
	return &Bridge{
		session: session,
		conns:   map[*websocket.Conn]*sync.Mutex{},
	}
}

// Session returns the session this bridge drives.
func (b *Bridge) Session() *Session { return b.session }

func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	b.register(conn)
	defer b.unregister(conn)
	b.readLoop(conn)
}

func (b *Bridge) register(conn *websocket.Conn) {
	b.mu.Lock()
	b.conns[conn] = &sync.Mutex{}
	b.mu.Unlock()
}

func (b *Bridge) unregister(conn *websocket.Conn) {
	b.mu.Lock()
	delete(b.conns, conn)
	b.mu.Unlock()
	conn.Close()
}

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Lines   []int           `json:"lines,omitempty"`
}

func (b *Bridge) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			continue
		}
		switch env.Type {
		case CmdResume, CmdStep, CmdStop, CmdSetBreakpoints:
			cmd := Command{Type: env.Type, Lines: env.Lines}
			if err := b.session.Dispatch(cmd); err != nil {
				continue
			}
			b.broadcast(raw, conn)
		default:
			b.session.Publish(Event{Type: env.Type, Payload: env.Payload})
		}
	}
}

// SendCommand pushes a host-initiated command to the session and to
// every connected process.
func (b *Bridge) SendCommand(cmd Command) error {
	if err := b.session.Dispatch(cmd); err != nil {
		return err
	}
	raw, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("encoding debug command: %w", err)
	}
	b.broadcast(raw, nil)
	return nil
}

// broadcast writes raw JSON to every connection except the origin.
// Dead connections are left for their read loops to reap.
func (b *Bridge) broadcast(raw []byte, origin *websocket.Conn) {
	b.mu.Lock()
	targets := make(map[*websocket.Conn]*sync.Mutex, len(b.conns))
	for conn, mu := range b.conns {
		if conn != origin {
			targets[conn] = mu
		}
	}
	b.mu.Unlock()
	for conn, mu := range targets {
		mu.Lock()
		_ = conn.WriteMessage(websocket.TextMessage, raw)
		mu.Unlock()
	}
}

// ListenAndServe runs the bridge on addr until the listener fails.
// Progress is reported on w so the CLI can show where to connect.
func (b *Bridge) ListenAndServe(addr string, w io.Writer) error {
	fmt.Fprintf(w, "debug bridge %s listening on ws://%s/debug\n", b.session.ID, addr)
	mux := http.NewServeMux()
	mux.Handle("/debug", b)
	return http.ListenAndServe(addr, mux)
}

package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sketchroom/internal/app/board"
	"sketchroom/internal/configs"
)

func newTestServer(t *testing.T) (*httptest.Server, *board.Manager) {
	t.Helper()

	cfg := &configs.AppConfig{
		Environment:     "development",
		Port:            8080,
		AllowedOrigins:  []string{},
		RoomIdleTimeout: time.Minute,
		WSRate:          1000,
		WSBurst:         1000,
	}

	manager := board.NewManager(cfg.RoomIdleTimeout)
	t.Cleanup(manager.Shutdown)

	srv := httptest.NewServer(Router(&AppDeps{Manager: manager, Config: cfg}))
	t.Cleanup(srv.Close)

	return srv, manager
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	return conn
}

type envelope struct {
	Type    board.MessageType `json:"type"`
	Payload json.RawMessage   `json:"payload"`
}

func readEnvelope(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func payloadAs[T any](t *testing.T, env envelope) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(env.Payload, &out))
	return out
}

func sendMessage(t *testing.T, conn *websocket.Conn, msgType board.MessageType, payload any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(board.Message{Type: msgType, Payload: payload}))
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	res, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)

	var body struct {
		Code int               `json:"code"`
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, 0, body.Code)
	assert.Equal(t, "ok", body.Data["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	res, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestRoomsEndpointListsJoinedRooms(t *testing.T) {
	srv, _ := newTestServer(t)

	conn := dialWS(t, srv)
	sendMessage(t, conn, board.TypeJoin, board.JoinPayload{Room: "r1", Name: "Alice"})
	readEnvelope(t, conn) // state:init

	require.Eventually(t, func() bool {
		res, err := http.Get(srv.URL + "/api/rooms")
		if err != nil {
			return false
		}
		defer res.Body.Close()

		var body struct {
			Data []board.RoomInfo `json:"data"`
		}
		if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
			return false
		}
		return len(body.Data) == 1 && body.Data[0].Name == "r1" && body.Data[0].Users == 1
	}, time.Second, 20*time.Millisecond)
}

// Full session script: join, commit, undo, redo, disconnect — checked from
// both the acting session and a peer.
func TestSyncScenario(t *testing.T) {
	srv, _ := newTestServer(t)

	alice := dialWS(t, srv)
	sendMessage(t, alice, board.TypeJoin, board.JoinPayload{Room: "r1", Name: "Alice"})

	env := readEnvelope(t, alice)
	require.Equal(t, board.TypeStateInit, env.Type)
	snap := payloadAs[board.Snapshot](t, env)
	assert.Empty(t, snap.Ops)
	require.Len(t, snap.Users, 1)
	require.Equal(t, "Alice", snap.Users[0].Name)
	aliceID := snap.Users[0].ID
	require.NotEmpty(t, aliceID)

	bob := dialWS(t, srv)
	sendMessage(t, bob, board.TypeJoin, board.JoinPayload{Room: "r1", Name: "Bob"})

	env = readEnvelope(t, bob)
	require.Equal(t, board.TypeStateInit, env.Type)
	assert.Len(t, payloadAs[board.Snapshot](t, env).Users, 2)

	env = readEnvelope(t, alice)
	require.Equal(t, board.TypeUserJoin, env.Type)

	sendMessage(t, alice, board.TypeStrokeCommit, board.StrokePayload{
		Tool:   "brush",
		Color:  "#111827",
		Width:  6,
		Points: []board.Point{{X: 0, Y: 0}, {X: 10, Y: 10}},
	})

	var opID string
	for _, conn := range []*websocket.Conn{alice, bob} {
		env = readEnvelope(t, conn)
		require.Equal(t, board.TypeOpCommit, env.Type)
		op := payloadAs[board.Op](t, env)
		assert.False(t, op.Retracted)
		assert.Equal(t, 6.0, op.Width)
		assert.Equal(t, "#111827", op.Color)
		assert.Equal(t, aliceID, op.Author.ID)
		require.NotEmpty(t, op.ID)
		opID = op.ID
	}

	sendMessage(t, alice, board.TypeUndo, nil)
	for _, conn := range []*websocket.Conn{alice, bob} {
		env = readEnvelope(t, conn)
		require.Equal(t, board.TypeOpRetract, env.Type)
		assert.Equal(t, opID, payloadAs[board.IDPayload](t, env).ID)
	}

	sendMessage(t, alice, board.TypeRedo, nil)
	for _, conn := range []*websocket.Conn{alice, bob} {
		env = readEnvelope(t, conn)
		require.Equal(t, board.TypeOpReinstate, env.Type)
		op := payloadAs[board.Op](t, env)
		assert.Equal(t, opID, op.ID)
		assert.False(t, op.Retracted)
	}

	require.NoError(t, alice.Close())

	env = readEnvelope(t, bob)
	require.Equal(t, board.TypeUserLeave, env.Type)
	assert.Equal(t, aliceID, payloadAs[board.IDPayload](t, env).ID)
}

func TestCursorRelayGoesToPeersOnly(t *testing.T) {
	srv, _ := newTestServer(t)

	alice := dialWS(t, srv)
	sendMessage(t, alice, board.TypeJoin, board.JoinPayload{Room: "r2", Name: "Alice"})
	readEnvelope(t, alice)

	bob := dialWS(t, srv)
	sendMessage(t, bob, board.TypeJoin, board.JoinPayload{Room: "r2", Name: "Bob"})
	readEnvelope(t, bob)   // state:init
	readEnvelope(t, alice) // user:join

	sendMessage(t, bob, board.TypeCursorMove, map[string]float64{"x": 4, "y": 9})

	env := readEnvelope(t, alice)
	require.Equal(t, board.TypeCursorUpdate, env.Type)
	cur := payloadAs[board.CursorUpdatePayload](t, env)
	assert.Equal(t, 4.0, cur.X)
	assert.Equal(t, 9.0, cur.Y)
}

func TestMalformedFramesAreSilentlyIgnored(t *testing.T) {
	srv, _ := newTestServer(t)

	alice := dialWS(t, srv)

	// pre-join traffic is dropped entirely
	sendMessage(t, alice, board.TypeStrokeCommit, board.StrokePayload{Points: []board.Point{{X: 1, Y: 1}}})
	sendMessage(t, alice, board.TypeUndo, nil)

	sendMessage(t, alice, board.TypeJoin, board.JoinPayload{Room: "r3", Name: "Alice"})
	env := readEnvelope(t, alice)
	require.Equal(t, board.TypeStateInit, env.Type)
	assert.Empty(t, payloadAs[board.Snapshot](t, env).Ops)

	// structural garbage: missing coordinate, empty points, unknown type
	sendMessage(t, alice, board.TypeCursorMove, map[string]float64{"x": 1})
	sendMessage(t, alice, board.TypeStrokeCommit, board.StrokePayload{Points: nil})
	sendMessage(t, alice, board.MessageType("shout"), nil)
	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte("not json")))

	// the session survives and the next valid commit goes through
	sendMessage(t, alice, board.TypeStrokeCommit, board.StrokePayload{
		Tool:   "eraser",
		Width:  2,
		Points: []board.Point{{X: 3, Y: 3}},
	})

	env = readEnvelope(t, alice)
	require.Equal(t, board.TypeOpCommit, env.Type)
	op := payloadAs[board.Op](t, env)
	assert.Equal(t, board.ToolEraser, op.Tool)
}

func TestBlankRoomNameFallsBackToDefault(t *testing.T) {
	srv, manager := newTestServer(t)

	conn := dialWS(t, srv)
	sendMessage(t, conn, board.TypeJoin, board.JoinPayload{Room: "   ", Name: "Alice"})
	readEnvelope(t, conn)

	require.Eventually(t, func() bool {
		for _, info := range manager.List() {
			if info.Name == board.DefaultRoomName && info.Users == 1 {
				return true
			}
		}
		return false
	}, time.Second, 20*time.Millisecond)
}

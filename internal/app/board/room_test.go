package board

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sketchroom/internal/app/user"
)

// frameEnv decodes outbound frames pulled straight off a client's send queue.
type frameEnv struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func recvFrame(t *testing.T, c *Client) frameEnv {
	t.Helper()

	select {
	case raw, ok := <-c.send:
		require.True(t, ok, "send queue closed unexpectedly")
		var env frameEnv
		require.NoError(t, json.Unmarshal(raw, &env))
		return env
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
		return frameEnv{}
	}
}

func decodePayload[T any](t *testing.T, env frameEnv) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(env.Payload, &out))
	return out
}

func startTestRoom(t *testing.T) *Room {
	t.Helper()

	cleanup := make(chan roomCleanupMsg, 1)
	room := newRoom("r1", DefaultPalette, time.Minute, cleanup)

	go room.Run()
	t.Cleanup(room.Stop)

	return room
}

// The connection is nil: these tests bypass the pumps and drive the room loop
// directly, reading fanout frames off the send queues.
func joinTestClient(t *testing.T, room *Room, sessionID, name string) *Client {
	t.Helper()

	c := NewClient(nil, nil, sessionID)
	c.room = room
	require.True(t, room.deliver(joinEvent{client: c, name: name}))
	return c
}

func TestJoinRepliesWithSnapshotAndNotifiesPeers(t *testing.T) {
	room := startTestRoom(t)

	alice := joinTestClient(t, room, "sa", "Alice")

	init := recvFrame(t, alice)
	require.Equal(t, TypeStateInit, init.Type)
	snap := decodePayload[Snapshot](t, init)
	assert.Empty(t, snap.Ops)
	require.Len(t, snap.Users, 1)
	assert.Equal(t, "Alice", snap.Users[0].Name)
	assert.Equal(t, "sa", snap.Users[0].ID)

	bob := joinTestClient(t, room, "sb", "Bob")

	// the joiner gets the full snapshot, peers get the roster notice
	binit := recvFrame(t, bob)
	require.Equal(t, TypeStateInit, binit.Type)
	bsnap := decodePayload[Snapshot](t, binit)
	assert.Len(t, bsnap.Users, 2)

	joined := recvFrame(t, alice)
	require.Equal(t, TypeUserJoin, joined.Type)
	u := decodePayload[user.User](t, joined)
	assert.Equal(t, "Bob", u.Name)
	assert.Equal(t, "sb", u.ID)
}

func TestCommitBroadcastsToAllIncludingSender(t *testing.T) {
	room := startTestRoom(t)

	alice := joinTestClient(t, room, "sa", "Alice")
	bob := joinTestClient(t, room, "sb", "Bob")
	recvFrame(t, alice) // state:init
	recvFrame(t, alice) // user:join Bob
	recvFrame(t, bob)   // state:init

	require.True(t, room.deliver(strokeCommitEvent{client: alice, payload: StrokePayload{
		Tool:   "brush",
		Color:  "#111827",
		Width:  500,
		Points: []Point{{X: 0, Y: 0}, {X: 10, Y: 10}},
	}}))

	for _, c := range []*Client{alice, bob} {
		env := recvFrame(t, c)
		require.Equal(t, TypeOpCommit, env.Type)
		op := decodePayload[Op](t, env)
		assert.NotEmpty(t, op.ID)
		assert.False(t, op.Retracted)
		assert.Equal(t, ToolBrush, op.Tool)
		assert.Equal(t, 64.0, op.Width, "width clamped at commit time")
		assert.Equal(t, "Alice", op.Author.Name)
	}
}

func TestUndoRedoCycleBroadcastsToAll(t *testing.T) {
	room := startTestRoom(t)

	alice := joinTestClient(t, room, "sa", "Alice")
	bob := joinTestClient(t, room, "sb", "Bob")
	recvFrame(t, alice)
	recvFrame(t, alice)
	recvFrame(t, bob)

	require.True(t, room.deliver(strokeCommitEvent{client: alice, payload: StrokePayload{
		Tool:   "brush",
		Width:  6,
		Points: []Point{{X: 1, Y: 1}},
	}}))
	committed := decodePayload[Op](t, recvFrame(t, alice))
	recvFrame(t, bob)

	// anyone may undo: Bob retracts Alice's stroke
	require.True(t, room.deliver(undoEvent{client: bob}))
	for _, c := range []*Client{alice, bob} {
		env := recvFrame(t, c)
		require.Equal(t, TypeOpRetract, env.Type)
		assert.Equal(t, committed.ID, decodePayload[IDPayload](t, env).ID)
	}

	require.True(t, room.deliver(redoEvent{client: alice}))
	for _, c := range []*Client{alice, bob} {
		env := recvFrame(t, c)
		require.Equal(t, TypeOpReinstate, env.Type)
		op := decodePayload[Op](t, env)
		assert.Equal(t, committed.ID, op.ID)
		assert.False(t, op.Retracted)
	}

	// nothing left on the redo stack: no frame goes out
	require.True(t, room.deliver(redoEvent{client: alice}))
	require.True(t, room.deliver(undoEvent{client: alice}))
	env := recvFrame(t, bob)
	assert.Equal(t, TypeOpRetract, env.Type, "redo with empty stack must not emit a frame")
}

func TestCursorAndSegmentRelayExcludeSender(t *testing.T) {
	room := startTestRoom(t)

	alice := joinTestClient(t, room, "sa", "Alice")
	bob := joinTestClient(t, room, "sb", "Bob")
	recvFrame(t, alice)
	recvFrame(t, alice)
	recvFrame(t, bob)

	require.True(t, room.deliver(cursorMoveEvent{client: bob, x: 5, y: 7}))

	env := recvFrame(t, alice)
	require.Equal(t, TypeCursorUpdate, env.Type)
	cur := decodePayload[CursorUpdatePayload](t, env)
	assert.Equal(t, "sb", cur.UserID)
	assert.Equal(t, 5.0, cur.X)
	assert.Equal(t, 7.0, cur.Y)

	require.True(t, room.deliver(strokeSegmentEvent{client: bob, payload: StrokePayload{
		Tool:   "eraser",
		Width:  3,
		Points: []Point{{X: 2, Y: 2}},
	}}))

	env = recvFrame(t, alice)
	require.Equal(t, TypeStrokeSegment, env.Type)
	seg := decodePayload[StrokePayload](t, env)
	assert.Equal(t, "sb", seg.AuthorID)

	// the sender saw neither relay
	assert.Empty(t, bob.send)
}

func TestSegmentIsNeverPersisted(t *testing.T) {
	room := startTestRoom(t)

	alice := joinTestClient(t, room, "sa", "Alice")
	bob := joinTestClient(t, room, "sb", "Bob")
	recvFrame(t, alice)
	recvFrame(t, alice)
	recvFrame(t, bob)

	require.True(t, room.deliver(strokeSegmentEvent{client: alice, payload: StrokePayload{
		Points: []Point{{X: 1, Y: 1}},
	}}))
	recvFrame(t, bob)

	carol := joinTestClient(t, room, "sc", "Carol")
	env := recvFrame(t, carol)
	require.Equal(t, TypeStateInit, env.Type)
	snap := decodePayload[Snapshot](t, env)
	assert.Empty(t, snap.Ops)
}

func TestLeaveNotifiesRemainingSessions(t *testing.T) {
	room := startTestRoom(t)

	alice := joinTestClient(t, room, "sa", "Alice")
	bob := joinTestClient(t, room, "sb", "Bob")
	recvFrame(t, alice)
	recvFrame(t, alice)
	recvFrame(t, bob)

	require.True(t, room.deliver(leaveEvent{client: alice}))

	env := recvFrame(t, bob)
	require.Equal(t, TypeUserLeave, env.Type)
	assert.Equal(t, "sa", decodePayload[IDPayload](t, env).ID)

	// repeated leave for the same session is a no-op
	require.True(t, room.deliver(leaveEvent{client: alice}))
	require.True(t, room.deliver(cursorMoveEvent{client: bob, x: 1, y: 1}))
	assert.Empty(t, bob.send)
}

func TestEventsFromUnjoinedSessionsAreIgnored(t *testing.T) {
	room := startTestRoom(t)

	alice := joinTestClient(t, room, "sa", "Alice")
	recvFrame(t, alice)

	ghost := NewClient(nil, nil, "ghost")
	require.True(t, room.deliver(strokeCommitEvent{client: ghost, payload: StrokePayload{
		Points: []Point{{X: 0, Y: 0}},
	}}))
	require.True(t, room.deliver(cursorMoveEvent{client: ghost, x: 1, y: 2}))

	// force a visible frame to prove the ghost events produced none
	require.True(t, room.deliver(undoEvent{client: alice}))
	require.True(t, room.deliver(strokeCommitEvent{client: alice, payload: StrokePayload{
		Points: []Point{{X: 0, Y: 0}},
	}}))
	env := recvFrame(t, alice)
	assert.Equal(t, TypeOpCommit, env.Type)
}

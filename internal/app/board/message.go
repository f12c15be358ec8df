/*
Package board contains the core logic of the room synchronization engine.

This file defines the wire protocol: the closed set of message types, the
envelope every frame travels in, and the typed payload structs. Message kinds
are matched exhaustively wherever they are dispatched; an unknown kind falls
into a single default arm and is dropped.
*/
package board

import "encoding/json"

// MessageType tags a protocol frame. The set is closed; adding a kind means
// adding a constant here and a case to every dispatch switch.
type MessageType string

// Inbound message types (client to server).
const (
	// TypeJoin binds the session to a room and assigns its User.
	TypeJoin MessageType = "join"

	// TypeCursorMove reports the sender's pointer position.
	TypeCursorMove MessageType = "cursor:move"

	// TypeStrokeSegment carries an in-progress stroke fragment for live
	// preview. Ephemeral: relayed, never stored.
	TypeStrokeSegment MessageType = "stroke:segment"

	// TypeStrokeCommit persists a finished stroke as an Op.
	TypeStrokeCommit MessageType = "stroke:commit"

	// TypeUndo retracts the room's most recent active Op.
	TypeUndo MessageType = "undo"

	// TypeRedo reinstates the room's most recent retraction.
	TypeRedo MessageType = "redo"
)

// Outbound message types (server to client).
const (
	// TypeStateInit delivers the full room snapshot to a joining session.
	TypeStateInit MessageType = "state:init"

	// TypeUserJoin and TypeUserLeave are roster change notices.
	TypeUserJoin  MessageType = "user:join"
	TypeUserLeave MessageType = "user:leave"

	// TypeCursorUpdate relays a peer's cursor position.
	TypeCursorUpdate MessageType = "cursor:update"

	// TypeOpCommit broadcasts a persisted Op to every session in the room,
	// the committer included.
	TypeOpCommit MessageType = "op:commit"

	// TypeOpRetract and TypeOpReinstate broadcast undo/redo outcomes.
	TypeOpRetract   MessageType = "op:retract"
	TypeOpReinstate MessageType = "op:reinstate"
)

// Message is the envelope every protocol frame travels in.
type Message struct {
	Type    MessageType `json:"type"`
	Payload any         `json:"payload,omitempty"`
}

// inboundMessage is the partially-decoded form of a client frame; the payload
// is decoded a second time once the type is known.
type inboundMessage struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// JoinPayload is the TypeJoin request. A blank or whitespace room resolves to
// DefaultRoomName; a blank name gets a generated default.
type JoinPayload struct {
	Room string `json:"room"`
	Name string `json:"name"`
}

// CursorMovePayload is the TypeCursorMove request. Pointer fields distinguish
// a missing coordinate from zero; frames with missing or non-finite
// coordinates are dropped.
type CursorMovePayload struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

// CursorUpdatePayload is the TypeCursorUpdate relay sent to peers.
type CursorUpdatePayload struct {
	UserID string  `json:"userId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// StrokePayload carries stroke data for both TypeStrokeSegment and
// TypeStrokeCommit. AuthorID is set by the server on segment relays.
type StrokePayload struct {
	Tool     string  `json:"tool"`
	Color    string  `json:"color"`
	Width    float64 `json:"width"`
	Points   []Point `json:"points"`
	AuthorID string  `json:"authorId,omitempty"`
}

// IDPayload carries a bare identifier, used by TypeUserLeave and
// TypeOpRetract.
type IDPayload struct {
	ID string `json:"id"`
}

// encodeMessage marshals one outbound frame.
func encodeMessage(t MessageType, payload any) ([]byte, error) {
	return json.Marshal(Message{Type: t, Payload: payload})
}

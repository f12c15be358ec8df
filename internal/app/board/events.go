/*
Package board contains the core logic of the room synchronization engine.

This file defines the closed set of events a room's Run loop consumes. All of
them — joins and leaves included — travel through one channel per room, so for
a single session the order events were sent is the order they are applied.
*/
package board

// roomEvent is the closed union of events applied by Room.Run. Only the types
// below implement it.
type roomEvent interface {
	isRoomEvent()
}

// joinEvent registers a session with the room and assigns its User.
type joinEvent struct {
	client *Client
	name   string
}

// leaveEvent removes a session from the room. Applying it for a session that
// was already removed is a no-op.
type leaveEvent struct {
	client *Client
}

// cursorMoveEvent updates the sender's cursor and relays it to peers.
type cursorMoveEvent struct {
	client *Client
	x, y   float64
}

// strokeSegmentEvent relays an in-progress stroke fragment to peers.
type strokeSegmentEvent struct {
	client  *Client
	payload StrokePayload
}

// strokeCommitEvent persists a finished stroke and broadcasts the Op.
type strokeCommitEvent struct {
	client  *Client
	payload StrokePayload
}

// undoEvent retracts the room's most recent active Op.
type undoEvent struct {
	client *Client
}

// redoEvent reinstates the room's most recent retraction.
type redoEvent struct {
	client *Client
}

func (joinEvent) isRoomEvent()          {}
func (leaveEvent) isRoomEvent()         {}
func (cursorMoveEvent) isRoomEvent()    {}
func (strokeSegmentEvent) isRoomEvent() {}
func (strokeCommitEvent) isRoomEvent()  {}
func (undoEvent) isRoomEvent()          {}
func (redoEvent) isRoomEvent()          {}

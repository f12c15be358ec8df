/*
Package board contains the core logic of the room synchronization engine.

This file defines State, the authoritative per-room drawing state: the ordered
operation log, the shared redo stack, the session-to-user roster, and the
latest-wins cursor table. State carries no locking of its own; it is owned and
mutated exclusively by its room's Run loop.
*/
package board

import (
	"time"

	"sketchroom/internal/app/user"
	"sketchroom/internal/pkg/randx"
)

// Cursor is the last reported pointer position for a user.
type Cursor struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`

	// Timestamp is the update time in Unix milliseconds.
	Timestamp int64 `json:"ts"`
}

// Snapshot is the full reconstructable state of a room, sent to a newly
// joined session. Ops include retracted ones so the receiver can resolve
// visibility per Op.
type Snapshot struct {
	Ops     []*Op             `json:"ops"`
	Users   []user.User       `json:"users"`
	Cursors map[string]Cursor `json:"cursors"`
}

// State is one room's authoritative drawing state.
type State struct {
	// ops is the operation log in commit order; never reordered, entries are
	// never removed, only flagged retracted.
	ops []*Op

	// redo holds the ids of currently-retracted Ops, most recent last.
	redo []string

	// users maps session id to the joined User.
	users map[string]user.User

	// cursors maps user id to the latest cursor position.
	cursors map[string]Cursor
}

// NewState returns an empty drawing state.
func NewState() *State {
	return &State{
		users:   make(map[string]user.User),
		cursors: make(map[string]Cursor),
	}
}

// AddUser records a user for the given session. The caller guarantees the
// user object; no validation happens here.
func (s *State) AddUser(sessionID string, u user.User) {
	s.users[sessionID] = u
}

// RemoveUser deletes the roster entry for the session, returning the removed
// user. The second return is false when the session was not joined, which
// makes disconnect processing idempotent. The user's committed Ops and its
// cursor entry are left in place; consumers stop rendering the cursor on the
// leave notice.
func (s *State) RemoveUser(sessionID string) (user.User, bool) {
	u, ok := s.users[sessionID]
	if !ok {
		return user.User{}, false
	}

	delete(s.users, sessionID)

	return u, true
}

// UserBySession looks up the joined user for a session.
func (s *State) UserBySession(sessionID string) (user.User, bool) {
	u, ok := s.users[sessionID]
	return u, ok
}

// SetCursor overwrites the cursor entry for the user with the given position
// and the current time. Latest wins; there is no history.
func (s *State) SetCursor(userID string, x, y float64) {
	s.cursors[userID] = Cursor{X: x, Y: y, Timestamp: time.Now().UnixMilli()}
}

// CommitOp appends a new Op with a fresh unique id and the current timestamp,
// and unconditionally clears the redo stack: redo history does not survive a
// new edit. The returned Op's id has never been issued before in this room.
func (s *State) CommitOp(tool Tool, color string, width float64, points []Point, author user.User) *Op {
	op := &Op{
		ID:        randx.OpID(),
		Tool:      tool,
		Color:     color,
		Width:     width,
		Points:    points,
		Author:    author,
		Retracted: false,
		Timestamp: time.Now().UnixMilli(),
	}

	s.ops = append(s.ops, op)
	s.redo = s.redo[:0]

	return op
}

// RetractLast flags the most recent non-retracted Op as retracted, pushes its
// id onto the redo stack, and returns it. Returns nil when every Op is
// already retracted (or the log is empty); that is a no-op, not an error.
//
// The tail scan is linear in the number of trailing retracted Ops. Rooms are
// small and short-lived; if that ever changes, keep an index to the last
// active Op instead.
func (s *State) RetractLast() *Op {
	for i := len(s.ops) - 1; i >= 0; i-- {
		if !s.ops[i].Retracted {
			s.ops[i].Retracted = true
			s.redo = append(s.redo, s.ops[i].ID)
			return s.ops[i]
		}
	}
	return nil
}

// ReinstateLastRedo pops the most recent id off the redo stack, clears that
// Op's retracted flag, and returns it. Returns nil when the redo stack is
// empty. Lookup is by id: a commit between retract and redo would already
// have cleared the stack, so this only ever reinstates the exact last
// retraction.
func (s *State) ReinstateLastRedo() *Op {
	if len(s.redo) == 0 {
		return nil
	}

	id := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]

	for _, op := range s.ops {
		if op.ID == id {
			op.Retracted = false
			return op
		}
	}

	return nil
}

// Snapshot returns the full op log (including retracted Ops), the current
// roster, and the cursor table. Read-only; the containers are copied so the
// result can be marshaled after the loop moves on.
func (s *State) Snapshot() Snapshot {
	ops := make([]*Op, len(s.ops))
	copy(ops, s.ops)

	users := make([]user.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}

	cursors := make(map[string]Cursor, len(s.cursors))
	for id, c := range s.cursors {
		cursors[id] = c
	}

	return Snapshot{Ops: ops, Users: users, Cursors: cursors}
}

// UserCount reports the number of joined sessions.
func (s *State) UserCount() int {
	return len(s.users)
}

// OpCount reports the length of the op log, retracted entries included.
func (s *State) OpCount() int {
	return len(s.ops)
}

// ActiveOpCount reports the number of non-retracted Ops.
func (s *State) ActiveOpCount() int {
	n := 0
	for _, op := range s.ops {
		if !op.Retracted {
			n++
		}
	}
	return n
}

/*
Package board contains the core logic of the room synchronization engine.

This file defines the Room struct, the serialization point for one canvas.
Its Run loop is the only goroutine that touches the room's State: every join,
leave, cursor move, stroke, undo, and redo arrives as a typed event on one
channel and is applied to completion — mutation first, then fanout — before
the next is processed. Two near-simultaneous commits from different sessions
are totally ordered by their arrival here.
*/
package board

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"sketchroom/internal/pkg/logx"
	"sketchroom/internal/pkg/metrics"
)

// eventQueueSize is the per-room inbound event buffer.
const eventQueueSize = 1024

// Room is a single isolated broadcast domain with its own drawing state.
type Room struct {
	// Name identifies the room; also the registry key.
	Name string

	// state is the authoritative drawing state, owned by Run.
	state *State

	// palette assigns user colors at join time.
	palette Palette

	// clients maps session id to the connected client, owned by Run.
	clients map[string]*Client

	// events carries every inbound event, joins and leaves included, so
	// per-session ordering is preserved end to end.
	events chan roomEvent

	// a write-only channel used to notify the manager to clean up this room.
	cleanupChan chan<- roomCleanupMsg

	// used to signal the Room to stop its Run loop immediately.
	stopChan chan struct{}

	// done is closed when the Run loop has exited; the manager uses it to
	// detect dead rooms.
	done chan struct{}

	// idleTimeout is how long the room may sit empty before shutting down.
	idleTimeout time.Duration

	// the timer used to track room emptiness.
	idleTimer *time.Timer

	// userTotal and opTotal mirror state counts for lock-free reads from the
	// HTTP surface.
	userTotal atomic.Int64
	opTotal   atomic.Int64

	// structured logger with room context.
	logger zerolog.Logger
}

// newRoom creates and initializes a new Room instance. The caller starts Run.
func newRoom(name string, palette Palette, idleTimeout time.Duration, cleanupChan chan<- roomCleanupMsg) *Room {
	roomLogger := logx.Logger().With().
		Str("room", name).
		Logger()

	return &Room{
		Name:        name,
		state:       NewState(),
		palette:     palette,
		clients:     make(map[string]*Client),
		events:      make(chan roomEvent, eventQueueSize),
		cleanupChan: cleanupChan,
		stopChan:    make(chan struct{}),
		done:        make(chan struct{}),
		idleTimeout: idleTimeout,
		idleTimer:   time.NewTimer(idleTimeout),
		logger:      roomLogger,
	}
}

// Stop sends a signal to immediately terminate the Room's Run loop.
func (r *Room) Stop() {
	select {
	case <-r.stopChan:
	default:
		close(r.stopChan)
	}
}

// Done is closed once the Run loop has exited.
func (r *Room) Done() <-chan struct{} {
	return r.done
}

// Run starts the main event loop for the Room. It applies events in arrival
// order and shuts down when the room has been empty for idleTimeout or when
// stopped by the manager.
func (r *Room) Run() {
	metrics.ActiveRooms.Inc()

	defer func() {
		r.logger.Info().Msg("Room loop finished. Notifying manager for cleanup.")

		metrics.ActiveRooms.Dec()
		r.idleTimer.Stop()
		close(r.done)

		// Clients still in the roster have not been through applyLeave, so
		// their send channels are still open.
		for _, client := range r.clients {
			close(client.send)
		}

		func() {
			// The manager may close the cleanup channel while a stopped room
			// is still unwinding; that notification is then moot.
			defer func() {
				if rec := recover(); rec != nil {
					r.logger.Debug().Msg("Manager cleanup channel closed during room teardown.")
				}
			}()

			select {
			case r.cleanupChan <- roomCleanupMsg{roomName: r.Name}:
			default:
				r.logger.Warn().Msg("Manager cleanup channel blocked. Skipping cleanup notification.")
			}
		}()
	}()

	for {
		select {
		case ev := <-r.events:
			r.apply(ev)

		case <-r.idleTimer.C:
			if len(r.clients) == 0 {
				r.logger.Info().Dur("idle_timeout", r.idleTimeout).Msg("Room idle timeout reached. Shutting down.")
				return
			}

		case <-r.stopChan:
			r.logger.Info().Msg("Room forced stop initiated.")
			return
		}
	}
}

// deliver queues an event for the Run loop. Events for a dead room, or
// overflowing a saturated room, are dropped with a warning; the room's state
// is never mutated outside its loop.
func (r *Room) deliver(ev roomEvent) bool {
	select {
	case <-r.done:
		r.logger.Warn().Msg("Event for stopped room dropped.")
		return false
	default:
	}

	select {
	case r.events <- ev:
		return true
	default:
		r.logger.Warn().Msg("Room event queue full, dropping event.")
		return false
	}
}

// apply executes one event against the room state and fans out the resulting
// frames. The switch is exhaustive over the roomEvent union.
func (r *Room) apply(ev roomEvent) {
	switch e := ev.(type) {
	case joinEvent:
		metrics.EventsTotal.WithLabelValues(string(TypeJoin)).Inc()
		r.applyJoin(e)

	case leaveEvent:
		metrics.EventsTotal.WithLabelValues(string(TypeUserLeave)).Inc()
		r.applyLeave(e)

	case cursorMoveEvent:
		metrics.EventsTotal.WithLabelValues(string(TypeCursorMove)).Inc()
		r.applyCursorMove(e)

	case strokeSegmentEvent:
		metrics.EventsTotal.WithLabelValues(string(TypeStrokeSegment)).Inc()
		r.applyStrokeSegment(e)

	case strokeCommitEvent:
		metrics.EventsTotal.WithLabelValues(string(TypeStrokeCommit)).Inc()
		r.applyStrokeCommit(e)

	case undoEvent:
		metrics.EventsTotal.WithLabelValues(string(TypeUndo)).Inc()
		r.applyUndo()

	case redoEvent:
		metrics.EventsTotal.WithLabelValues(string(TypeRedo)).Inc()
		r.applyRedo()
	}
}

// applyJoin assigns the joining session its User, replies with the full
// snapshot to that session only, and notifies the rest of the room.
func (r *Room) applyJoin(e joinEvent) {
	if r.idleTimer.Stop() {
		select {
		case <-r.idleTimer.C:
		default:
		}
	}

	u := r.palette.Assign(r.state, e.client.sessionID, e.name)
	r.clients[e.client.sessionID] = e.client
	r.userTotal.Store(int64(r.state.UserCount()))

	r.logger.Info().
		Str("session_id", e.client.sessionID).
		Str("user_name", u.Name).
		Int("total_users", len(r.clients)).
		Msg("Session joined room.")

	if err := e.client.sendMessage(TypeStateInit, r.state.Snapshot()); err != nil {
		r.logger.Warn().Err(err).Str("session_id", e.client.sessionID).Msg("Failed to deliver snapshot to joining session.")
	}

	r.broadcast(TypeUserJoin, u, e.client.sessionID)
}

// applyLeave removes the session and tells the remaining sessions. Stale or
// repeated leaves fall through the roster check and do nothing.
func (r *Room) applyLeave(e leaveEvent) {
	current, ok := r.clients[e.client.sessionID]
	if !ok || current != e.client {
		return
	}

	delete(r.clients, e.client.sessionID)
	close(e.client.send)

	u, removed := r.state.RemoveUser(e.client.sessionID)
	r.userTotal.Store(int64(r.state.UserCount()))

	r.logger.Info().
		Str("session_id", e.client.sessionID).
		Int("total_users", len(r.clients)).
		Msg("Session left room.")

	if removed {
		r.broadcast(TypeUserLeave, IDPayload{ID: u.ID}, "")
	}

	if len(r.clients) == 0 {
		if r.idleTimer.Stop() {
			select {
			case <-r.idleTimer.C:
			default:
			}
		}
		r.idleTimer.Reset(r.idleTimeout)
	}
}

// applyCursorMove overwrites the sender's cursor and relays it to peers; the
// sender already knows where its own pointer is.
func (r *Room) applyCursorMove(e cursorMoveEvent) {
	u, ok := r.state.UserBySession(e.client.sessionID)
	if !ok {
		return
	}

	r.state.SetCursor(u.ID, e.x, e.y)

	r.broadcast(TypeCursorUpdate, CursorUpdatePayload{UserID: u.ID, X: e.x, Y: e.y}, e.client.sessionID)
}

// applyStrokeSegment relays an in-progress stroke to peers for live preview.
// Nothing is written to state.
func (r *Room) applyStrokeSegment(e strokeSegmentEvent) {
	u, ok := r.state.UserBySession(e.client.sessionID)
	if !ok {
		return
	}

	payload := e.payload
	payload.AuthorID = u.ID

	r.broadcast(TypeStrokeSegment, payload, e.client.sessionID)
}

// applyStrokeCommit normalizes the stroke, persists it as an Op, and
// broadcasts the authoritative Op to every session including the committer,
// so the committer's state matches the server's rather than its own
// optimistic copy.
func (r *Room) applyStrokeCommit(e strokeCommitEvent) {
	u, ok := r.state.UserBySession(e.client.sessionID)
	if !ok {
		return
	}

	op := r.state.CommitOp(
		NormalizeTool(e.payload.Tool),
		NormalizeColor(e.payload.Color),
		ClampWidth(e.payload.Width),
		e.payload.Points,
		u,
	)
	r.opTotal.Store(int64(r.state.OpCount()))
	metrics.OpsCommitted.Inc()

	r.broadcast(TypeOpCommit, op, "")
}

// applyUndo retracts the most recent active Op, whoever drew it: the undo
// stack is shared by the whole room. Nothing is sent when there is nothing
// to retract.
func (r *Room) applyUndo() {
	op := r.state.RetractLast()
	if op == nil {
		return
	}

	r.broadcast(TypeOpRetract, IDPayload{ID: op.ID}, "")
}

// applyRedo reinstates the most recent retraction. Nothing is sent when the
// redo stack is empty.
func (r *Room) applyRedo() {
	op := r.state.ReinstateLastRedo()
	if op == nil {
		return
	}

	r.broadcast(TypeOpReinstate, op, "")
}

// broadcast marshals one frame and fans it out to every connected session,
// optionally skipping one sender. Per-client queues absorb slow receivers;
// a full queue drops the frame rather than stalling the loop, and state is
// never rolled back on delivery failure.
func (r *Room) broadcast(t MessageType, payload any, excludeSessionID string) {
	frame, err := encodeMessage(t, payload)
	if err != nil {
		r.logger.Error().Err(err).Str("msg_type", string(t)).Msg("Error marshaling message for broadcast.")
		return
	}

	for sessionID, client := range r.clients {
		if sessionID == excludeSessionID {
			continue
		}
		_ = client.sendFrame(frame)
	}
}

// Users reports the number of joined sessions; safe from any goroutine.
func (r *Room) Users() int {
	return int(r.userTotal.Load())
}

// Ops reports the op log length, retracted entries included; safe from any
// goroutine.
func (r *Room) Ops() int {
	return int(r.opTotal.Load())
}

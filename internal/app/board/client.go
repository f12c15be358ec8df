/*
Package board contains the core logic of the room synchronization engine.

This file defines the Client struct, representing one active WebSocket
session. It manages the session's lifecycle, the message communication loops
(ReadPump and WritePump), inbound validation, and the Unjoined/Joined state
machine that gates protocol messages.
*/
package board

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"sketchroom/internal/pkg/logx"
	"sketchroom/internal/pkg/metrics"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a message sent by the client.
	// Commits carry full point lists, so this is roomier than a chat frame.
	maxMessageSize = 1 << 20

	// sendQueueSize is the per-client outbound buffer. A session that stays
	// this far behind starts losing frames.
	sendQueueSize = 256
)

// DefaultRoomName is used when a join request names no room (or only
// whitespace).
const DefaultRoomName = "default"

// Client represents one active WebSocket session. A session is bound to at
// most one room: room is nil until a join message is accepted, after which
// every other message type becomes meaningful. Both fields are touched only
// from the read pump, so no locking is needed.
type Client struct {
	// manager resolves room names at join time.
	manager *Manager

	// room the session has joined, nil while Unjoined.
	room *Room

	// underlying WebSocket connection object.
	conn *websocket.Conn

	// sessionID is the server-generated identifier for this connection. It
	// doubles as the user id once joined.
	sessionID string

	// a buffered channel used to queue frames waiting to be sent to the client.
	send chan []byte

	// structured logger with session context.
	logger zerolog.Logger
}

// NewClient constructs and returns a new Client instance in the Unjoined state.
func NewClient(manager *Manager, wsConn *websocket.Conn, sessionID string) *Client {
	clientLogger := logx.Logger().With().
		Str("session_id", sessionID).
		Logger()

	return &Client{
		manager:   manager,
		conn:      wsConn,
		sessionID: sessionID,
		send:      make(chan []byte, sendQueueSize),
		logger:    clientLogger,
	}
}

// SessionID returns the server-generated identifier for this connection.
func (c *Client) SessionID() string {
	return c.sessionID
}

// ReadPump handles reading messages from the WebSocket connection.
// It handles heartbeats (Pong), message parsing, and performs cleanup upon
// connection closure.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (client close/going away)")
			}
			break
		}

		c.processInboundMessage(messageBytes)
	}
}

// cleanupOnDisconnect handles the necessary cleanup steps when the client's
// ReadPump terminates. The leave event is idempotent room-side, so running
// this for an already-removed session is harmless.
func (c *Client) cleanupOnDisconnect() {
	c.logger.Info().Msg("Session cleanup starting.")

	if c.room != nil {
		c.room.deliver(leaveEvent{client: c})
	}

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Session connection close error")
	}
}

// processInboundMessage decodes one client frame and dispatches on its type.
// Malformed or out-of-place frames are dropped silently: no state change, no
// notice to the sender. Well-behaved clients never hit these paths, and
// misbehaving ones get no diagnostic feedback.
func (c *Client) processInboundMessage(messageBytes []byte) {
	var inbound inboundMessage
	if err := json.Unmarshal(messageBytes, &inbound); err != nil {
		c.logger.Warn().Err(err).Msg("Session sent invalid JSON")
		return
	}

	switch inbound.Type {
	case TypeJoin:
		c.handleJoin(inbound.Payload)

	case TypeCursorMove:
		c.handleCursorMove(inbound.Payload)

	case TypeStrokeSegment:
		c.handleStroke(inbound.Payload, false)

	case TypeStrokeCommit:
		c.handleStroke(inbound.Payload, true)

	case TypeUndo:
		if c.room != nil {
			c.room.deliver(undoEvent{client: c})
		}

	case TypeRedo:
		if c.room != nil {
			c.room.deliver(redoEvent{client: c})
		}

	default:
		c.logger.Debug().Str("msg_type", string(inbound.Type)).Msg("Session sent unsupported message type")
	}
}

// handleJoin binds the session to a room. Joining twice is ignored; a session
// stays in its first room until it disconnects.
func (c *Client) handleJoin(payloadBytes json.RawMessage) {
	if c.room != nil {
		c.logger.Debug().Msg("Duplicate join ignored")
		return
	}

	var joinPayload JoinPayload
	if len(payloadBytes) > 0 {
		if err := json.Unmarshal(payloadBytes, &joinPayload); err != nil {
			c.logger.Warn().Err(err).Msg("Session sent invalid join payload")
			return
		}
	}

	roomName := strings.TrimSpace(joinPayload.Room)
	if roomName == "" {
		roomName = DefaultRoomName
	}

	room := c.manager.GetOrCreate(roomName)
	c.room = room
	c.logger = c.logger.With().Str("room", roomName).Logger()

	room.deliver(joinEvent{client: c, name: joinPayload.Name})
}

// handleCursorMove validates a cursor report. Missing or non-finite
// coordinates drop the frame.
func (c *Client) handleCursorMove(payloadBytes json.RawMessage) {
	if c.room == nil {
		return
	}

	var cursorPayload CursorMovePayload
	if err := json.Unmarshal(payloadBytes, &cursorPayload); err != nil {
		c.logger.Debug().Err(err).Msg("Session sent invalid cursor payload")
		return
	}

	if cursorPayload.X == nil || cursorPayload.Y == nil {
		return
	}

	x, y := *cursorPayload.X, *cursorPayload.Y
	if !isFinite(x) || !isFinite(y) {
		return
	}

	c.room.deliver(cursorMoveEvent{client: c, x: x, y: y})
}

// handleStroke validates segment and commit frames. Both require a non-empty
// point list; everything else is normalized room-side at apply time.
func (c *Client) handleStroke(payloadBytes json.RawMessage, commit bool) {
	if c.room == nil {
		return
	}

	var strokePayload StrokePayload
	if err := json.Unmarshal(payloadBytes, &strokePayload); err != nil {
		c.logger.Debug().Err(err).Msg("Session sent invalid stroke payload")
		return
	}

	if len(strokePayload.Points) == 0 {
		return
	}

	if commit {
		c.room.deliver(strokeCommitEvent{client: c, payload: strokePayload})
	} else {
		c.room.deliver(strokeSegmentEvent{client: c, payload: strokePayload})
	}
}

// WritePump handles writing frames from the Client.send channel to the
// WebSocket connection and keeps the ping heartbeat going.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		// ensure the connection is closed on exit
		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Session connection close error in WritePump")
		}
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !c.writeQueuedMessage(message, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedMessage handles frames pulled from the send channel, writing them
// to the WebSocket. Returns true if the WritePump loop should continue, false
// if it should terminate.
func (c *Client) writeQueuedMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			c.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		c.logger.Error().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

// writePingMessage sends a periodic WebSocket Ping message to maintain the
// connection heartbeat. Returns false if the WritePump loop should terminate
// due to write failure.
func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Error().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

// sendFrame queues a pre-marshaled frame for delivery. Frames are dropped
// rather than blocking the room loop when the session's queue is full.
func (c *Client) sendFrame(frame []byte) error {
	select {
	case c.send <- frame:
		return nil
	default:
		metrics.FramesDropped.Inc()
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Session send queue full, dropping frame")
		return fmt.Errorf("session send queue full")
	}
}

// sendMessage marshals and queues one outbound message for this session only.
func (c *Client) sendMessage(t MessageType, payload any) error {
	frame, err := encodeMessage(t, payload)
	if err != nil {
		c.logger.Error().Err(err).Str("msg_type", string(t)).Msg("Error marshaling message for session")
		return err
	}

	return c.sendFrame(frame)
}

// isFinite reports whether f is neither NaN nor an infinity.
func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

/*
Package board contains the core logic of the room synchronization engine.

This file defines the Manager struct, the explicitly owned room registry. It
creates rooms lazily on first reference, tracks them by name, and evicts a
room once its loop has shut down after sitting empty for the configured idle
timeout.
*/
package board

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"sketchroom/internal/pkg/logx"
)

// RoomInfo is one row of the active-rooms listing.
type RoomInfo struct {
	Name  string `json:"name"`
	Users int    `json:"users"`
	Ops   int    `json:"ops"`
}

// roomCleanupMsg asks the manager to drop a finished room from the registry.
type roomCleanupMsg struct {
	roomName string
}

// Manager coordinates all active rooms. It is constructed once at startup and
// injected into the connection handlers; there is no package-level singleton.
type Manager struct {
	// rooms stores all Room instances, keyed by room name.
	rooms map[string]*Room

	// palette is handed to each room for user color assignment.
	palette Palette

	// idleTimeout is the eviction policy applied to every room: how long an
	// empty room survives before its loop exits.
	idleTimeout time.Duration

	// mu protects concurrent access to the rooms map.
	mu sync.RWMutex

	// the channel used by rooms to notify the Manager to clean them up.
	cleanup chan roomCleanupMsg

	// wg is used to wait for the runCleanupLoop goroutine to finish during shutdown.
	wg sync.WaitGroup

	// structured logger with Manager context.
	logger zerolog.Logger
}

// NewManager constructs a Manager with the default palette and starts its
// cleanup loop.
func NewManager(idleTimeout time.Duration) *Manager {
	managerLogger := logx.Logger().With().Str("component", "Manager").Logger()

	m := &Manager{
		rooms:       make(map[string]*Room),
		palette:     DefaultPalette,
		idleTimeout: idleTimeout,
		cleanup:     make(chan roomCleanupMsg, 16),
		logger:      managerLogger,
	}

	m.wg.Add(1)

	go m.runCleanupLoop()

	return m
}

// runCleanupLoop is a blocking loop that listens on the cleanup channel.
// When a roomCleanupMsg is received, it removes the corresponding room.
func (m *Manager) runCleanupLoop() {
	defer m.wg.Done()

	m.logger.Info().Msg("Cleanup loop started.")

	for msg := range m.cleanup {
		m.deleteRoom(msg.roomName)
	}

	m.logger.Info().Msg("Cleanup loop stopped.")
}

// deleteRoom removes the named room from the registry, but only if the entry
// is actually finished — a new room may already have replaced a dead one
// under the same name.
func (m *Manager) deleteRoom(roomName string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[roomName]
	if !ok {
		return
	}

	select {
	case <-room.Done():
		delete(m.rooms, roomName)
		m.logger.Info().Str("room", roomName).Msg("Idle room evicted.")
	default:
	}
}

// GetOrCreate returns the room for the given name, creating it (and starting
// its Run loop) on first reference. Idempotent and never fails; any room name
// is accepted — there is deliberately no authorization layer. A room whose
// loop has already exited is transparently replaced.
func (m *Manager) GetOrCreate(name string) *Room {
	m.mu.RLock()
	room, ok := m.rooms[name]
	m.mu.RUnlock()

	if ok && alive(room) {
		return room
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok = m.rooms[name]
	if ok && alive(room) {
		return room
	}

	room = newRoom(name, m.palette, m.idleTimeout, m.cleanup)
	m.rooms[name] = room

	go room.Run()

	m.logger.Info().Str("room", name).Msg("Room created and started.")

	return room
}

// List returns a stable-ordered view of the live rooms for the rooms API.
func (m *Manager) List() []RoomInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]RoomInfo, 0, len(m.rooms))
	for _, room := range m.rooms {
		if !alive(room) {
			continue
		}
		infos = append(infos, RoomInfo{
			Name:  room.Name,
			Users: room.Users(),
			Ops:   room.Ops(),
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })

	return infos
}

// Shutdown gracefully shuts down the Manager and all managed rooms. It stops
// every room loop, closes the cleanup channel, and waits for the cleanup
// goroutine to exit.
func (m *Manager) Shutdown() {
	m.logger.Info().Msg("Shutting down manager...")

	m.mu.Lock()

	for _, room := range m.rooms {
		room.Stop()
	}
	m.rooms = make(map[string]*Room)

	m.mu.Unlock()

	close(m.cleanup)
	m.wg.Wait()

	m.logger.Info().Msg("Manager shutdown complete.")
}

// alive reports whether the room's Run loop is still accepting events.
func alive(r *Room) bool {
	select {
	case <-r.Done():
		return false
	default:
		return true
	}
}

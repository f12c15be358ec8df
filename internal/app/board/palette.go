/*
Package board contains the core logic of the room synchronization engine.

This file implements the palette assigner: the deterministic mapping from a
display name to a palette color, and the construction of the User identity
registered into room state on join.
*/
package board

import (
	"sketchroom/internal/app/user"
	"sketchroom/internal/pkg/randx"
)

// Palette is an ordered set of display colors assigned to users.
type Palette []string

// DefaultPalette holds the eight colors cycled through by name hash.
var DefaultPalette = Palette{
	"#ef4444", "#f59e0b", "#10b981", "#3b82f6",
	"#8b5cf6", "#ec4899", "#14b8a6", "#84cc16",
}

// Assign constructs the User for a joining session and registers it in the
// given state. The color is picked deterministically from the requested name
// (falling back to the session id when no name is given), so the same name
// always maps to the same color regardless of room or join order. A blank
// name is replaced with a generated "User-<shortid>" default.
func (p Palette) Assign(st *State, sessionID, requestedName string) user.User {
	key := requestedName
	if key == "" {
		key = sessionID
	}

	idx := int64(hashName(key))
	if idx < 0 {
		idx = -idx
	}

	name := requestedName
	if name == "" {
		name = "User-" + randx.ShortID(sessionID)
	}

	u := user.User{
		ID:    sessionID,
		Name:  name,
		Color: p[int(idx%int64(len(p)))],
	}

	st.AddUser(sessionID, u)

	return u
}

// hashName is a non-cryptographic 32-bit string hash (h*31 + c with int32
// wraparound). The wraparound is part of the determinism contract with
// existing clients, so the arithmetic stays on int32.
func hashName(s string) int32 {
	var h int32
	for _, c := range s {
		h = (h << 5) - h + int32(c)
	}
	return h
}

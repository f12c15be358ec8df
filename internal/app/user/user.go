/*
Package user contains the data structure representing a participant's identity.

A User is created when a session joins a room and destroyed when the session
disconnects; it is embedded in committed operations and roster notices.
*/
package user

// User represents the identity of a canvas participant within one room.
// Fields use JSON tags for serialization in WebSocket messages.
type User struct {

	// ID is the session-scoped unique identifier, generated server-side at
	// connection time.
	ID string `json:"id"`

	// Name is the display name shown next to the user's cursor and strokes.
	Name string `json:"name"`

	// Color is the palette entry assigned deterministically from the name.
	Color string `json:"color"`
}

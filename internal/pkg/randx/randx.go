/*
Package randx provides generation of the unique identifiers used by the server.

Session ids identify one live connection; op ids identify one committed stroke.
Both are standard UUID v4 strings.
*/
package randx

import "github.com/google/uuid"

// SessionID generates the unique identifier assigned to a connection at
// upgrade time. It doubles as the user id once the session joins a room.
func SessionID() string {
	return uuid.New().String()
}

// OpID generates the unique identifier for a committed stroke operation.
// Uniqueness within a room for the room's lifetime follows from UUID v4.
func OpID() string {
	return uuid.New().String()
}

// ShortID returns the first four characters of an identifier, used for
// generated display names like "User-3f9a".
func ShortID(id string) string {
	if len(id) <= 4 {
		return id
	}
	return id[:4]
}

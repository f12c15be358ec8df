/*
Package handler provides the HTTP handlers and routing setup for the sync server.

This file contains the rooms listing handler, a read-only observability
surface over the room registry. Rooms are never created here; creation happens
implicitly when a session joins over the socket.
*/
package handler

import (
	"net/http"

	"sketchroom/internal/pkg/resp"
)

// HandleListRooms returns the active rooms with their user and op counts.
func HandleListRooms(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, deps.Manager.List())
	}
}

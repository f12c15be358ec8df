/*
Package handler provides the HTTP handler function for WebSocket connection upgrading and initialization.

This file contains the HandleWebSocket function, which is responsible for rate
limiting, upgrading the HTTP connection to WebSocket, and initiating the
session lifecycle. Room binding happens afterwards, over the socket itself,
via the join message.
*/
package handler

import (
	"net"
	"net/http"

	"github.com/gorilla/websocket"

	"sketchroom/internal/app/board"
	"sketchroom/internal/pkg/errs"
	"sketchroom/internal/pkg/limiter"
	"sketchroom/internal/pkg/logx"
	"sketchroom/internal/pkg/metrics"
	"sketchroom/internal/pkg/randx"
	"sketchroom/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection requests.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if ip == "" {
			ip = "unknown_ip"
		}

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		sessionID := randx.SessionID()
		client := board.NewClient(deps.Manager, conn, sessionID)

		metrics.ActiveSessions.Inc()
		defer metrics.ActiveSessions.Dec()

		logx.Info("WebSocket session established", "session_id", sessionID)

		go client.WritePump()

		client.ReadPump()
	}
}

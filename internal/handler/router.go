/*
Package handler provides the HTTP handlers and routing setup for the sync server.

This file defines the main Router, applying necessary middleware like logging,
CORS, and IP-based rate limiting before delegating requests to the health,
metrics, rooms, static, and WebSocket handlers.
*/
package handler

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"sketchroom/internal/pkg/limiter"
	"sketchroom/internal/pkg/logx"
	"sketchroom/internal/pkg/resp"
)

// Router sets up the main HTTP routing table (chi.Router) for the application.
// It initializes the IP-based rate limiter for socket upgrades, configures
// CORS, and applies global middleware. It requires the board.Manager for the
// sync engine and the AppConfig for settings (like allowed origins).
func Router(deps *AppDeps) http.Handler {
	joinLimiter := limiter.NewIPRateLimiter(rate.Limit(deps.Config.WSRate), deps.Config.WSBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	var wsUpgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.Environment == "development" {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.Environment == "development" {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]string{
			"status":  "ok",
			"service": "Sketchroom Sync Server",
		}
		resp.RespondSuccess(w, r, data)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Get("/api/rooms", HandleListRooms(deps))

	r.Get("/ws", HandleWebSocket(wsUpgrader, joinLimiter, deps))

	if deps.Config.StaticDir != "" {
		mountStatic(r, deps.Config.StaticDir)
	}

	return r
}

// mountStatic serves the client assets at the root. Paths that do not match
// an existing file fall back to index.html so deep links into the single-page
// client work.
func mountStatic(r chi.Router, dir string) {
	fileServer := http.FileServer(http.Dir(dir))
	index := filepath.Join(dir, "index.html")

	r.Get("/*", func(w http.ResponseWriter, req *http.Request) {
		assetPath := filepath.Join(dir, filepath.Clean("/"+req.URL.Path))
		if info, err := os.Stat(assetPath); err == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, req)
			return
		}
		http.ServeFile(w, req, index)
	})
}

/*
Package configs is responsible for loading and parsing the application's configuration settings.

It configures server parameters by reading operating system environment
variables, including the running environment, port, CORS allowed origins, the
optional static client directory, and room lifecycle tuning.
*/
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig contains all configuration parameters required for the application to run.
// All configuration values are loaded from environment variables.
type AppConfig struct {
	// General Server Settings
	Environment string
	Port        int

	// Security Settings
	AllowedOrigins []string

	// StaticDir is an optional directory of client assets served at "/".
	// Empty disables static serving entirely.
	StaticDir string

	// RoomIdleTimeout is how long an empty room stays resident before its
	// run loop shuts down and the manager evicts it.
	RoomIdleTimeout time.Duration

	// WSRate and WSBurst tune the per-IP rate limit on WebSocket upgrades.
	WSRate  float64
	WSBurst int
}

// LoadConfig reads and parses the application configuration from environment variables.
// It provides default values for each configuration item and performs necessary type conversions and validation.
// It returns a pointer to the AppConfig struct and any error encountered.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}

	// --- General Server Settings ---
	// Environment
	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	// Port
	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT environment variable: %w", err)
	}
	cfg.Port = port

	if cfg.Port < 1024 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", cfg.Port, 1024, 65535)
	}

	// --- Security Settings ---
	// AllowedOrigins
	originsStr := os.Getenv("ALLOWED_ORIGINS")
	if originsStr != "" {
		origins := strings.Split(originsStr, ",")
		for _, origin := range origins {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
			}
		}
	} else {
		cfg.AllowedOrigins = []string{}
	}

	// --- Static Assets ---
	cfg.StaticDir = os.Getenv("STATIC_DIR")
	if cfg.StaticDir != "" {
		info, err := os.Stat(cfg.StaticDir)
		if err != nil || !info.IsDir() {
			return nil, fmt.Errorf("STATIC_DIR %q is not a readable directory", cfg.StaticDir)
		}
	}

	// --- Room Lifecycle ---
	idleStr := os.Getenv("ROOM_IDLE_TIMEOUT")
	if idleStr == "" {
		idleStr = "5m"
	}
	idle, err := time.ParseDuration(idleStr)
	if err != nil {
		return nil, fmt.Errorf("invalid ROOM_IDLE_TIMEOUT environment variable: %w", err)
	}
	if idle <= 0 {
		return nil, fmt.Errorf("ROOM_IDLE_TIMEOUT must be positive, got %s", idle)
	}
	cfg.RoomIdleTimeout = idle

	// --- Rate Limiting ---
	rateStr := os.Getenv("WS_RATE")
	if rateStr == "" {
		rateStr = "1"
	}
	wsRate, err := strconv.ParseFloat(rateStr, 64)
	if err != nil || wsRate <= 0 {
		return nil, fmt.Errorf("invalid WS_RATE environment variable: %q", rateStr)
	}
	cfg.WSRate = wsRate

	burstStr := os.Getenv("WS_BURST")
	if burstStr == "" {
		burstStr = "5"
	}
	wsBurst, err := strconv.Atoi(burstStr)
	if err != nil || wsBurst < 1 {
		return nil, fmt.Errorf("invalid WS_BURST environment variable: %q", burstStr)
	}
	cfg.WSBurst = wsBurst

	return cfg, nil
}

package config

import "time"

// Defaults
const (
	DefaultServerPort        = "8080"
	DefaultSerialPrefix      = "BUG"
	DefaultLeaderboardLimit  = 5
	DefaultLeaderboardWindow = "weekly"
	DefaultServiceName       = "feedback-board"
	DefaultCORSOrigin        = "http://localhost:3000"
)

// Timeout constants
const (
	// HTTP timeouts
	DefaultHTTPTimeout    = 60 * time.Second
	ServerShutdownTimeout = 30 * time.Second

	// Board refresher
	RefresherMaxHistory = 50

	// Database timeouts
	DatabaseConnMaxLifetime = 5 * time.Minute

	// Session timeouts
	SessionMaxAge = 7 * 24 * time.Hour // 7 days
)

// Session configuration constants
const (
	SessionPath     = "/"
	SessionHTTPOnly = true
	SessionSecure   = false // Set to true in production with HTTPS

	SessionName = "feedback-session"

	// Session keys written by the upstream identity provider
	SessionUserIDKey    = "user_id"
	SessionUserEmailKey = "user_email"
)

// Identity headers accepted when server.trust_identity_headers is set
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserEmail = "X-User-Email"
)

// Security configuration constants
const (
	// Content Security Policy
	DefaultCSP = "default-src 'self'; style-src 'self' 'unsafe-inline'; script-src 'self'; img-src 'self' data: https:;"
)

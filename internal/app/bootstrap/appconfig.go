// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS,
// logging, CORS). AppConfig is everything specific to Groupify: the
// MongoDB connection, session cookies, OAuth credentials, audit logging
// modes, and the bootstrap admin account.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions
	SessionDomain string        // Cookie domain (blank means current host)
	SessionTTL    time.Duration // Session lifetime

	// Base URL for OAuth callbacks and absolute links
	BaseURL string // e.g., "https://groupify.example.edu" or "http://localhost:3000"

	// Google OAuth configuration. Leave both blank to disable the
	// "Sign in with Google" flow.
	GoogleClientID     string
	GoogleClientSecret string

	// Audit logging modes: "all" (db+log), "db", "log", or "off"
	AuditLogAuth  string
	AuditLogAdmin string

	// Bootstrap admin account. When AdminEmail is set, Startup creates
	// (or promotes) an admin profile with these credentials.
	AdminEmail    string
	AdminName     string
	AdminPassword string
}

// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like HTTP/HTTPS
// ports, TLS, logging level and format, CORS, and request body limits.
// AppConfig is where everything specific to this application lives.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string `validate:"required"` // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string `validate:"required"` // Database name within MongoDB
	MongoMaxPoolSize uint64 // Maximum connections in pool (default: 100)
	MongoMinPoolSize uint64 // Minimum connections to keep warm (default: 10)

	// API key authentication for the catalog API.
	// Storefront callers present this as a Bearer token.
	APIKey string `validate:"required"`

	// DefaultShop is the shop domain assumed when a request carries no
	// X-Shop-Domain header. Useful for single-tenant deployments.
	DefaultShop string `validate:"required"`

	// Upload acceptance rules
	MaxFileSize      int64  `validate:"gt=0"`    // Maximum upload size in bytes (default: 50 MB)
	AllowedMimeTypes string `validate:"required"` // Comma-separated MIME type allow-list

	// Access control role lists (comma-separated role tags)
	WriteRoles string `validate:"required"` // Roles allowed to mutate catalogs
	ReadRoles  string `validate:"required"` // Roles allowed to browse catalogs

	// Content host connection (the external service holding file binaries)
	ContentHostURL     string        `validate:"required,url"` // Query API endpoint
	ContentHostToken   string        // Access token for the content host API
	ContentHostTimeout time.Duration // Per-call timeout (default: 30s)

	// Ledger configuration
	LedgerBodyPreview int           // Max request body chars captured per ledger entry (default: 500)
	LedgerRetention   time.Duration // How long ledger entries are kept (default: 720h)
}

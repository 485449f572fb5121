// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// EnvVarPrefix is the prefix for environment variables.
// Change this constant when forking stratadam for a new project.
const EnvVarPrefix = "STRATADAM"

// defaultAllowedMimeTypes is the stock allow-list of upload MIME types:
// common image, video, audio, document, spreadsheet, archive, and text
// formats. Override with the allowed_mime_types config key.
const defaultAllowedMimeTypes = "image/jpeg,image/png,image/gif,image/webp,image/svg+xml," +
	"video/mp4,video/webm,video/quicktime," +
	"audio/mpeg,audio/wav,audio/ogg," +
	"application/pdf," +
	"application/msword,application/vnd.openxmlformats-officedocument.wordprocessingml.document," +
	"application/vnd.ms-excel,application/vnd.openxmlformats-officedocument.spreadsheetml.sheet," +
	"application/vnd.ms-powerpoint,application/vnd.openxmlformats-officedocument.presentationml.presentation," +
	"application/zip,application/x-7z-compressed,application/gzip," +
	"text/plain,text/csv"

// appConfigKeys defines the configuration keys for this application.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, api_key, etc.
//   - Environment variables: STRATADAM_MONGO_URI, STRATADAM_API_KEY, etc.
//   - Command-line flags: --mongo_uri, --api_key, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "stratadam", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// API key configuration (storefront callers use Bearer token auth)
	{Name: "api_key", Default: "dev-only-change-me-0123456789ABCDEF", Desc: "API key required on every catalog API request (must be strong in production)"},

	// Shop resolution
	{Name: "default_shop", Default: "dev-shop.example.com", Desc: "Shop domain assumed when the request carries none"},

	// Upload acceptance rules
	{Name: "max_file_size", Default: 52428800, Desc: "Maximum upload size in bytes (default: 50 MB)"},
	{Name: "allowed_mime_types", Default: defaultAllowedMimeTypes, Desc: "Comma-separated MIME type allow-list for uploads"},

	// Access control role lists
	{Name: "write_roles", Default: "admin", Desc: "Comma-separated roles allowed to modify catalogs"},
	{Name: "read_roles", Default: "admin,affiliate", Desc: "Comma-separated roles allowed to browse catalogs"},

	// Content host connection
	{Name: "content_host_url", Default: "http://localhost:9090/api", Desc: "Content host query API endpoint"},
	{Name: "content_host_token", Default: "", Desc: "Access token for the content host API"},
	{Name: "content_host_timeout", Default: "30s", Desc: "Timeout per content host call (e.g., 30s, 2m)"},

	// Ledger configuration
	{Name: "ledger_body_preview", Default: 500, Desc: "Max request body chars captured per ledger entry"},
	{Name: "ledger_retention", Default: "720h", Desc: "How long ledger entries are kept (e.g., 720h for 30 days)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, STRATADAM_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvVarPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		APIKey:      appValues.String("api_key"),
		DefaultShop: appValues.String("default_shop"),

		MaxFileSize:      int64(appValues.Int("max_file_size")),
		AllowedMimeTypes: appValues.String("allowed_mime_types"),

		WriteRoles: appValues.String("write_roles"),
		ReadRoles:  appValues.String("read_roles"),

		ContentHostURL:     appValues.String("content_host_url"),
		ContentHostToken:   appValues.String("content_host_token"),
		ContentHostTimeout: appValues.Duration("content_host_timeout", 30*time.Second),

		LedgerBodyPreview: appValues.Int("ledger_body_preview"),
		LedgerRetention:   appValues.Duration("ledger_retention", 720*time.Hour),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(appCfg); err != nil {
		logger.Error("invalid app configuration", zap.Error(err))
		return fmt.Errorf("invalid app configuration: %w", err)
	}

	return nil
}

// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/dalemusser/stratadam/internal/app/dam"
	damapifeature "github.com/dalemusser/stratadam/internal/app/features/damapi"
	healthfeature "github.com/dalemusser/stratadam/internal/app/features/health"
	catalogstore "github.com/dalemusser/stratadam/internal/app/store/catalog"
	ledgerstore "github.com/dalemusser/stratadam/internal/app/store/ledger"
	"github.com/dalemusser/stratadam/internal/app/system/ledger"
	"github.com/dalemusser/stratadam/internal/app/system/normalize"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. The service is API-only: every route is
// either a catalog API endpoint or a health probe.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Assemble the catalog engine.
	access := dam.NewAccess(appCfg.ReadRoles, appCfg.WriteRoles)
	limits := dam.Limits{
		MaxFileSize:      appCfg.MaxFileSize,
		AllowedMimeTypes: mimeTypeSet(appCfg.AllowedMimeTypes),
	}
	svc := dam.NewService(
		catalogstore.New(deps.MongoDatabase),
		access,
		deps.ContentHost,
		limits,
		logger,
	)

	r := chi.NewRouter()

	// ─────────────────────────────────────────────────────────────────────
	// Global Middleware (applies to ALL routes)
	// ─────────────────────────────────────────────────────────────────────

	// Request timeout middleware: prevents requests from hanging indefinitely.
	r.Use(chimw.Timeout(60 * time.Second))

	// CORS middleware: must be early in the chain to handle preflight requests.
	r.Use(middleware.CORSFromConfig(coreCfg))

	// Security headers middleware: adds X-Frame-Options, X-Content-Type-Options, etc.
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))

	// ─────────────────────────────────────────────────────────────────────
	// API Error Ledger
	// Records failed API requests (status >= 400) for debugging storefront
	// integration issues.
	// ─────────────────────────────────────────────────────────────────────
	apiLedgerStore := ledgerstore.New(deps.MongoDatabase)
	apiLedgerConfig := ledger.DefaultConfig(apiLedgerStore, logger)
	if appCfg.LedgerBodyPreview > 0 {
		apiLedgerConfig.MaxBodyPreview = appCfg.LedgerBodyPreview
	}

	// ─────────────────────────────────────────────────────────────────────
	// Catalog API Routes
	// API key authentication, permissive CORS, failed requests ledgered.
	// ─────────────────────────────────────────────────────────────────────
	apiHandler := damapifeature.NewHandler(svc, logger, normalize.Shop(appCfg.DefaultShop), appCfg.MaxFileSize)
	r.Route("/api/dam", func(r chi.Router) {
		r.Use(ledger.Middleware(apiLedgerConfig))
		r.Mount("/", damapifeature.Routes(apiHandler, appCfg.APIKey, logger))
	})

	// Health check endpoints for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)

	return r, nil
}

// mimeTypeSet parses a comma-separated MIME type list into a lookup set.
func mimeTypeSet(list string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range normalize.MimeTypes(list) {
		set[t] = struct{}{}
	}
	return set
}

package damapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dalemusser/stratadam/internal/app/system/apicors"
	"github.com/dalemusser/stratadam/internal/app/system/auth"
)

// Routes returns a router with the catalog API endpoints.
//
// When mounted at /api/dam:
//   - GET /api/dam - read actions via query parameters
//   - POST /api/dam - catalog actions (JSON or form body)
//   - POST /api/dam/upload - multipart file upload
//
// Authentication is via API key (Bearer token in Authorization header).
// CORS is permissive (allows any origin) since API key auth is used.
func Routes(h *Handler, apiKey string, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// API CORS - permissive for API key auth
	r.Use(apicors.Middleware())

	// API key authentication
	r.Use(auth.APIKeyAuth(apiKey, logger))

	r.Get("/", h.ActionHandler)
	r.Post("/", h.ActionHandler)
	r.Post("/upload", h.UploadHandler)

	return r
}

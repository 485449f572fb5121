// Package health exposes liveness and readiness probes for the catalog
// service. Readiness requires a reachable MongoDB, since every catalog
// action starts with a load from it.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const pingTimeout = 5 * time.Second

// Handler serves the health probe endpoints.
type Handler struct {
	mongo  *mongo.Client
	logger *zap.Logger
}

// NewHandler creates a health Handler backed by the catalog database client.
func NewHandler(mongoClient *mongo.Client, logger *zap.Logger) *Handler {
	return &Handler{
		mongo:  mongoClient,
		logger: logger,
	}
}

// Response is the full health check payload.
type Response struct {
	Service string `json:"service"`
	Status  string `json:"status"`
	Mongo   string `json:"mongo,omitempty"`
}

// Routes returns the health router: / reports overall status including
// the catalog database, /ready and /live are the bare probes.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.Check)
	r.Get("/ready", h.Ready)
	r.Get("/live", h.Live)
	return r
}

// MountRootEndpoints adds the probe paths Kubernetes conventionally polls
// directly on the root router.
func MountRootEndpoints(r chi.Router, h *Handler) {
	r.Get("/ready", h.Ready)
	r.Get("/readyz", h.Ready)
	r.Get("/livez", h.Live)
}

// Check reports the service status along with catalog database reachability.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	resp := Response{Service: "stratadam", Status: "ok", Mongo: "ok"}

	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	if err := h.mongo.Ping(ctx, readpref.Primary()); err != nil {
		resp.Status = "degraded"
		resp.Mongo = "unavailable"
		h.logger.Warn("health check: catalog database unreachable", zap.Error(err))
	}

	w.Header().Set("Content-Type", "application/json")
	if resp.Status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(resp)
}

// Ready reports whether the service can serve catalog actions.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	if err := h.mongo.Ping(ctx, readpref.Primary()); err != nil {
		h.logger.Warn("readiness check: catalog database unreachable", zap.Error(err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"not ready"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ready"}`))
}

// Live reports process liveness.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"alive"}`))
}

// Package ledger records failed API requests so storefront integration
// problems can be diagnosed after the fact. Successful requests pass
// through untouched.
package ledger

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	ledgerstore "github.com/dalemusser/stratadam/internal/app/store/ledger"
)

type ctxKey int

const ctxKeyEntry ctxKey = iota

// Config holds configuration for the ledger middleware.
type Config struct {
	Store  *ledgerstore.Store
	Logger *zap.Logger

	// MaxBodyPreview is the maximum number of characters to capture from
	// the request body. Set to 0 to disable body preview capture.
	MaxBodyPreview int

	// ExcludePaths is a list of path prefixes never recorded.
	ExcludePaths []string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig(store *ledgerstore.Store, logger *zap.Logger) Config {
	return Config{
		Store:          store,
		Logger:         logger,
		MaxBodyPreview: 500,
		ExcludePaths: []string{
			"/health",
			"/ready",
			"/livez",
			"/favicon.ico",
		},
	}
}

// Middleware returns HTTP middleware that writes a ledger entry for every
// request that finishes with a 4xx or 5xx status.
func Middleware(cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			for _, prefix := range cfg.ExcludePaths {
				if strings.HasPrefix(path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			startTime := time.Now()

			var bodyPreview string
			var bodySize int64
			contentType := r.Header.Get("Content-Type")
			previewable := cfg.MaxBodyPreview > 0 &&
				r.Body != nil && r.ContentLength > 0 &&
				!strings.HasPrefix(contentType, "multipart/")
			if previewable {
				body, err := io.ReadAll(r.Body)
				if err == nil {
					bodySize = int64(len(body))
					preview := string(body)
					if len(preview) > cfg.MaxBodyPreview {
						preview = preview[:cfg.MaxBodyPreview] + "..."
					}
					bodyPreview = preview
					r.Body = io.NopCloser(bytes.NewReader(body))
				}
			} else if r.ContentLength > 0 {
				bodySize = r.ContentLength
			}

			entry := &ledgerstore.Entry{
				RequestID:          uuid.NewString(),
				ClientRequestID:    r.Header.Get("X-Request-ID"),
				Method:             r.Method,
				Path:               path,
				Query:              r.URL.RawQuery,
				RemoteIP:           extractIP(r),
				Shop:               r.Header.Get("X-Shop-Domain"),
				Actor:              r.Header.Get("X-Storefront-Roles"),
				RequestBodySize:    bodySize,
				RequestBodyPreview: bodyPreview,
				RequestContentType: contentType,
				StartedAt:          startTime,
			}

			r = r.WithContext(context.WithValue(r.Context(), ctxKeyEntry, entry))

			wrapped := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			if wrapped.statusCode < 400 {
				return
			}

			endTime := time.Now()
			entry.StatusCode = wrapped.statusCode
			entry.ResponseSize = wrapped.bytesWritten
			entry.CompletedAt = endTime
			entry.DurationMs = float64(endTime.Sub(startTime).Microseconds()) / 1000.0

			// Store without blocking the response.
			go func() {
				storeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := cfg.Store.Create(storeCtx, *entry); err != nil {
					cfg.Logger.Error("failed to store ledger entry",
						zap.String("request_id", entry.RequestID),
						zap.Error(err))
				}
			}()
		})
	}
}

// responseWrapper wraps http.ResponseWriter to capture status code and bytes written.
type responseWrapper struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWrapper) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

// Flush implements http.Flusher.
func (rw *responseWrapper) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// extractIP extracts the client IP from the request.
func extractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

// SetAction records the resolved catalog action on the ledger entry.
func SetAction(ctx context.Context, action string) {
	if entry, ok := ctx.Value(ctxKeyEntry).(*ledgerstore.Entry); ok {
		entry.Action = action
	}
}

// SetShop records the resolved shop on the ledger entry.
func SetShop(ctx context.Context, shop string) {
	if entry, ok := ctx.Value(ctxKeyEntry).(*ledgerstore.Entry); ok {
		entry.Shop = shop
	}
}

// SetErrorMessage records the caller-visible error on the ledger entry.
func SetErrorMessage(ctx context.Context, message string) {
	if entry, ok := ctx.Value(ctxKeyEntry).(*ledgerstore.Entry); ok {
		entry.ErrorMessage = message
	}
}

// GetRequestID returns the request ID for the current request, if the
// ledger middleware is active.
func GetRequestID(ctx context.Context) string {
	if entry, ok := ctx.Value(ctxKeyEntry).(*ledgerstore.Entry); ok {
		return entry.RequestID
	}
	return ""
}

// Package dam implements the digital asset manager catalog engine: the
// folder tree, the file catalog, search, deep copy, and the rules that keep
// a shop's catalog consistent.
package dam

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/dalemusser/stratadam/internal/app/store/catalog"
	"github.com/dalemusser/stratadam/internal/app/system/normalize"
	"github.com/dalemusser/stratadam/internal/domain/models"
)

// AssetUpload carries the binary payload and metadata for a file being
// published to the content host.
type AssetUpload struct {
	Filename string
	MimeType string
	Size     int64
	Content  io.Reader
}

// StagedAsset is the durable result of publishing an upload.
type StagedAsset struct {
	AssetID    string
	URL        string
	PreviewURL string
}

// AssetHost publishes and removes binary assets on the external content
// host. The production implementation lives in the uploads package.
type AssetHost interface {
	Publish(ctx context.Context, upload AssetUpload) (StagedAsset, error)
	Remove(ctx context.Context, externalAssetID string) error
}

// Limits holds the upload acceptance rules for the catalog.
type Limits struct {
	MaxFileSize      int64
	AllowedMimeTypes map[string]struct{}
}

// AllowsMimeType reports whether the given MIME type is on the allow-list.
func (l Limits) AllowsMimeType(mimeType string) bool {
	_, ok := l.AllowedMimeTypes[normalize.MimeType(mimeType)]
	return ok
}

// CatalogStore loads and saves per-shop catalogs. The production
// implementation lives in the store/catalog package.
type CatalogStore interface {
	Load(ctx context.Context, shop string) (*models.Catalog, error)
	Save(ctx context.Context, cat *models.Catalog) error
}

// Service runs catalog operations for storefront callers. Every operation
// loads the shop's catalog, mutates an in-memory copy, and saves it back
// under the store's version guard.
type Service struct {
	store  CatalogStore
	access *Access
	host   AssetHost
	limits Limits
	logger *zap.Logger
}

// NewService wires a catalog engine.
func NewService(store CatalogStore, access *Access, host AssetHost, limits Limits, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		access: access,
		host:   host,
		limits: limits,
		logger: logger,
	}
}

// Access exposes the service's access rules for transport-layer checks.
func (s *Service) Access() *Access { return s.access }

func (s *Service) load(ctx context.Context, actor Actor) (*models.Catalog, error) {
	cat, err := s.store.Load(ctx, actor.Shop)
	if err != nil {
		return nil, &Error{Kind: KindExternal, Message: "loading catalog failed", Err: err}
	}
	return cat, nil
}

func (s *Service) save(ctx context.Context, cat *models.Catalog) error {
	if err := s.store.Save(ctx, cat); err != nil {
		if errors.Is(err, catalog.ErrStaleCatalog) {
			return ErrConflict("catalog was modified concurrently, retry the operation")
		}
		return &Error{Kind: KindExternal, Message: "saving catalog failed", Err: err}
	}
	return nil
}

// removeAssets issues best-effort content host deletions for files whose
// records were removed by an already-persisted save. Deletions happen only
// after the save so a version conflict never strands a live record with a
// dead asset.
func (s *Service) removeAssets(ctx context.Context, shop string, files []models.File) {
	for _, f := range files {
		s.removeAsset(ctx, shop, f)
	}
}

// removeAsset issues a best-effort deletion on the content host. Failures
// are logged and do not fail the calling operation.
func (s *Service) removeAsset(ctx context.Context, shop string, f models.File) {
	if f.ExternalAssetID == "" {
		return
	}
	if err := s.host.Remove(ctx, f.ExternalAssetID); err != nil {
		s.logger.Warn("asset deletion on content host failed",
			zap.String("shop", shop),
			zap.String("file_id", f.ID),
			zap.String("asset_id", f.ExternalAssetID),
			zap.Error(err))
	}
}

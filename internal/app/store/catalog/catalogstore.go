// Package catalog provides storage for per-shop asset catalogs.
//
// Each shop's entire folder and file metadata lives in a single catalog
// document. Saves are guarded by a version stamp so that concurrent writers
// cannot silently clobber each other.
package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dalemusser/stratadam/internal/domain/models"
)

// ErrStaleCatalog is returned by Save when the catalog was modified by
// another writer since it was loaded.
var ErrStaleCatalog = errors.New("catalog version is stale")

// Store provides access to the catalogs collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new catalog store.
func New(db *mongo.Database) *Store {
	return &Store{
		c: db.Collection("catalogs"),
	}
}

// Load returns the catalog for a shop, creating and persisting an empty one
// with a root folder on first access.
func (s *Store) Load(ctx context.Context, shop string) (*models.Catalog, error) {
	var cat models.Catalog
	err := s.c.FindOne(ctx, bson.M{"shop": shop}).Decode(&cat)
	if err == nil {
		return &cat, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	cat = newCatalog(shop)
	if _, err := s.c.InsertOne(ctx, cat); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Another request initialized this shop first; use its document.
			if ferr := s.c.FindOne(ctx, bson.M{"shop": shop}).Decode(&cat); ferr != nil {
				return nil, ferr
			}
			return &cat, nil
		}
		return nil, err
	}
	return &cat, nil
}

// Save replaces the shop's catalog document, bumping the version stamp.
// The replace is filtered on the version the catalog was loaded with; if no
// document matches, another writer got there first and ErrStaleCatalog is
// returned. On success the catalog's Version field reflects the stored value.
func (s *Store) Save(ctx context.Context, cat *models.Catalog) error {
	loadedVersion := cat.Version
	cat.Version = loadedVersion + 1
	cat.UpdatedAt = time.Now()

	res, err := s.c.ReplaceOne(ctx, bson.M{
		"shop":    cat.Shop,
		"version": loadedVersion,
	}, cat)
	if err != nil {
		cat.Version = loadedVersion
		return err
	}
	if res.MatchedCount == 0 {
		cat.Version = loadedVersion
		return ErrStaleCatalog
	}
	return nil
}

func newCatalog(shop string) models.Catalog {
	now := time.Now()
	root := models.Folder{
		ID:        models.RootFolderID,
		Name:      models.RootFolderName,
		NameCI:    text.Fold(models.RootFolderName),
		ParentID:  nil,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return models.Catalog{
		ID:        primitive.NewObjectID(),
		Shop:      shop,
		Version:   1,
		Folders:   map[string]models.Folder{root.ID: root},
		Files:     map[string]models.File{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

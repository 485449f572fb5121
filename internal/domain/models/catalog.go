package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Catalog is the complete asset library of one shop: every folder and every
// file, stored and replaced as a single document. Version is an optimistic
// concurrency stamp bumped on every save; a save against a stale version is
// rejected so concurrent editors cannot silently overwrite each other.
type Catalog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Shop      string             `bson:"shop"`
	Version   int64              `bson:"version"`
	Folders   map[string]Folder  `bson:"folders"`
	Files     map[string]File    `bson:"files"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

// Folder returns the folder with the given id, if present.
func (c *Catalog) Folder(id string) (Folder, bool) {
	f, ok := c.Folders[id]
	return f, ok
}

// File returns the file with the given id, if present.
func (c *Catalog) File(id string) (File, bool) {
	f, ok := c.Files[id]
	return f, ok
}

// Root returns the catalog's root folder.
func (c *Catalog) Root() Folder {
	return c.Folders[RootFolderID]
}

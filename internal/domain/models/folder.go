package models

import "time"

// RootFolderID is the fixed id of the single root folder in every catalog.
const RootFolderID = "root"

// RootFolderName is the display name given to the root folder on first access.
const RootFolderName = "My Files"

// Folder represents a folder in the asset library.
type Folder struct {
	ID          string    `bson:"id" json:"id"`
	Name        string    `bson:"name" json:"name"`
	NameCI      string    `bson:"name_ci" json:"-"` // Case-insensitive for uniqueness/sorting
	ParentID    *string   `bson:"parent_id,omitempty" json:"parentId"` // nil = root folder
	Color       string    `bson:"color,omitempty" json:"color,omitempty"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	CreatedAt   time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updatedAt"`
	CreatedBy   string    `bson:"created_by,omitempty" json:"createdBy,omitempty"`
}

// IsRoot returns true if the folder is the catalog root.
func (f *Folder) IsRoot() bool {
	return f.ParentID == nil
}

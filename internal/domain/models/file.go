package models

import (
	"strings"
	"time"
)

// File represents a file in the asset library. The binary payload lives on
// the external content host; the record keeps the durable references to it.
type File struct {
	ID              string     `bson:"id" json:"id"`
	FolderID        string     `bson:"folder_id" json:"folderId"`
	Name            string     `bson:"name" json:"name"` // Original filename
	NameCI          string     `bson:"name_ci" json:"-"` // Case-insensitive for uniqueness/sorting
	MimeType        string     `bson:"mime_type" json:"mimeType"`
	Size            int64      `bson:"size" json:"size"` // File size in bytes
	Category        Category   `bson:"category" json:"category"`
	ExternalAssetID string     `bson:"external_asset_id" json:"externalAssetId"`
	URL             string     `bson:"url" json:"url"`
	PreviewURL      string     `bson:"preview_url,omitempty" json:"previewUrl,omitempty"`
	Description     string     `bson:"description,omitempty" json:"description,omitempty"`
	Tags            []string   `bson:"tags,omitempty" json:"tags,omitempty"`
	Downloads       int64      `bson:"downloads" json:"downloads"`
	LastDownloaded  *time.Time `bson:"last_downloaded,omitempty" json:"lastDownloaded,omitempty"`
	CreatedAt       time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time  `bson:"updated_at" json:"updatedAt"`
	CreatedBy       string     `bson:"created_by,omitempty" json:"createdBy,omitempty"`
}

// Category classifies a file by its MIME type for browsing and filtering.
type Category string

const (
	CategoryImage        Category = "image"
	CategoryVideo        Category = "video"
	CategoryAudio        Category = "audio"
	CategoryPDF          Category = "pdf"
	CategoryDocument     Category = "document"
	CategorySpreadsheet  Category = "spreadsheet"
	CategoryPresentation Category = "presentation"
	CategoryArchive      Category = "archive"
	CategoryOther        Category = "other"
)

// CategoryForMimeType derives the browse category for a MIME type.
func CategoryForMimeType(mimeType string) Category {
	mt := strings.ToLower(mimeType)
	switch {
	case strings.HasPrefix(mt, "image/"):
		return CategoryImage
	case strings.HasPrefix(mt, "video/"):
		return CategoryVideo
	case strings.HasPrefix(mt, "audio/"):
		return CategoryAudio
	case mt == "application/pdf":
		return CategoryPDF
	case strings.Contains(mt, "spreadsheet") || strings.Contains(mt, "excel") || mt == "text/csv":
		return CategorySpreadsheet
	case strings.Contains(mt, "presentation") || strings.Contains(mt, "powerpoint"):
		return CategoryPresentation
	case strings.Contains(mt, "zip") || strings.Contains(mt, "compressed") || strings.Contains(mt, "archive") || strings.Contains(mt, "tar"):
		return CategoryArchive
	case strings.Contains(mt, "document") || strings.Contains(mt, "word") || strings.HasPrefix(mt, "text/"):
		return CategoryDocument
	default:
		return CategoryOther
	}
}

package dam

import (
	"context"
	"io"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dalemusser/stratadam/internal/app/system/normalize"
	"github.com/dalemusser/stratadam/internal/app/system/sanitize"
	"github.com/dalemusser/stratadam/internal/domain/models"
)

// UploadFileInput contains the input for publishing and cataloging a file.
type UploadFileInput struct {
	FolderID    string
	Name        string
	MimeType    string
	Size        int64
	Content     io.Reader
	Description string
	Tags        []string
	CreatedBy   string
}

// UploadFile validates the payload, publishes it to the content host, and
// inserts the resulting file record. Size and MIME type are checked before
// any network call. A name collision in the destination folder is resolved
// by appending " (n)" before the extension.
func (s *Service) UploadFile(ctx context.Context, actor Actor, input UploadFileInput) (*models.File, error) {
	if err := s.access.RequireWrite(actor); err != nil {
		return nil, err
	}

	name := sanitize.Text(input.Name)
	if name == "" {
		return nil, ErrValidation("file name is required")
	}
	if input.Size <= 0 {
		return nil, ErrValidation("file is empty")
	}
	if input.Size > s.limits.MaxFileSize {
		return nil, ErrValidation("file exceeds the maximum size of %d bytes", s.limits.MaxFileSize)
	}
	if !s.limits.AllowsMimeType(input.MimeType) {
		return nil, ErrValidation("file type %q is not allowed", input.MimeType)
	}

	cat, err := s.load(ctx, actor)
	if err != nil {
		return nil, err
	}
	if _, ok := cat.Folder(input.FolderID); !ok {
		return nil, ErrNotFound("folder %q does not exist", input.FolderID)
	}

	name = uniqueFileName(cat, input.FolderID, name)

	asset, err := s.host.Publish(ctx, AssetUpload{
		Filename: name,
		MimeType: input.MimeType,
		Size:     input.Size,
		Content:  input.Content,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	file := models.File{
		ID:              uuid.NewString(),
		FolderID:        input.FolderID,
		Name:            name,
		NameCI:          text.Fold(name),
		MimeType:        input.MimeType,
		Size:            input.Size,
		Category:        models.CategoryForMimeType(input.MimeType),
		ExternalAssetID: asset.AssetID,
		URL:             asset.URL,
		PreviewURL:      asset.PreviewURL,
		Description:     sanitize.Text(input.Description),
		Tags:            normalize.Tags(sanitize.TextSlice(input.Tags)),
		CreatedAt:       now,
		UpdatedAt:       now,
		CreatedBy:       input.CreatedBy,
	}
	cat.Files[file.ID] = file

	if err := s.save(ctx, cat); err != nil {
		return nil, err
	}

	s.logger.Info("file uploaded",
		zap.String("shop", actor.Shop),
		zap.String("file_id", file.ID),
		zap.String("name", file.Name),
		zap.String("folder_id", file.FolderID),
		zap.Int64("size", file.Size))
	return &file, nil
}

// RenameFile changes a file's name within its folder.
func (s *Service) RenameFile(ctx context.Context, actor Actor, id, newName string) (*models.File, error) {
	if err := s.access.RequireWrite(actor); err != nil {
		return nil, err
	}

	name := sanitize.Text(newName)
	if name == "" {
		return nil, ErrValidation("file name is required")
	}

	cat, err := s.load(ctx, actor)
	if err != nil {
		return nil, err
	}

	file, ok := cat.File(id)
	if !ok {
		return nil, ErrNotFound("file %q does not exist", id)
	}
	if siblingFileExists(cat, file.FolderID, text.Fold(name), id) {
		return nil, ErrConflict("a file named %q already exists here", name)
	}

	file.Name = name
	file.NameCI = text.Fold(name)
	file.UpdatedAt = time.Now()
	cat.Files[id] = file

	if err := s.save(ctx, cat); err != nil {
		return nil, err
	}

	s.logger.Info("file renamed",
		zap.String("shop", actor.Shop),
		zap.String("file_id", id),
		zap.String("name", name))
	return &file, nil
}

// MoveFile relocates a file into another folder.
func (s *Service) MoveFile(ctx context.Context, actor Actor, id, newFolderID string) (*models.File, error) {
	if err := s.access.RequireWrite(actor); err != nil {
		return nil, err
	}

	cat, err := s.load(ctx, actor)
	if err != nil {
		return nil, err
	}

	file, err := s.moveFileInCatalog(cat, id, newFolderID)
	if err != nil {
		return nil, err
	}

	if err := s.save(ctx, cat); err != nil {
		return nil, err
	}

	s.logger.Info("file moved",
		zap.String("shop", actor.Shop),
		zap.String("file_id", id),
		zap.String("new_folder_id", newFolderID))
	return file, nil
}

// moveFileInCatalog applies a single file move to an in-memory catalog.
// Shared by MoveFile and BulkMoveFiles.
func (s *Service) moveFileInCatalog(cat *models.Catalog, id, newFolderID string) (*models.File, error) {
	file, ok := cat.File(id)
	if !ok {
		return nil, ErrNotFound("file %q does not exist", id)
	}
	if _, ok := cat.Folder(newFolderID); !ok {
		return nil, ErrNotFound("destination folder %q does not exist", newFolderID)
	}
	if siblingFileExists(cat, newFolderID, file.NameCI, id) {
		return nil, ErrConflict("a file named %q already exists in the destination", file.Name)
	}

	file.FolderID = newFolderID
	file.UpdatedAt = time.Now()
	cat.Files[id] = file
	return &file, nil
}

// UpdateFileInput contains the metadata fields a caller may change.
type UpdateFileInput struct {
	Description *string
	Tags        *[]string
}

// UpdateFile updates a file's description and tags.
func (s *Service) UpdateFile(ctx context.Context, actor Actor, id string, input UpdateFileInput) (*models.File, error) {
	if err := s.access.RequireWrite(actor); err != nil {
		return nil, err
	}

	cat, err := s.load(ctx, actor)
	if err != nil {
		return nil, err
	}

	file, ok := cat.File(id)
	if !ok {
		return nil, ErrNotFound("file %q does not exist", id)
	}

	if input.Description != nil {
		file.Description = sanitize.Text(*input.Description)
	}
	if input.Tags != nil {
		file.Tags = normalize.Tags(sanitize.TextSlice(*input.Tags))
	}
	file.UpdatedAt = time.Now()
	cat.Files[id] = file

	if err := s.save(ctx, cat); err != nil {
		return nil, err
	}

	s.logger.Info("file updated",
		zap.String("shop", actor.Shop),
		zap.String("file_id", id))
	return &file, nil
}

// DeleteFile removes a file record and issues a best-effort deletion of its
// asset on the content host.
func (s *Service) DeleteFile(ctx context.Context, actor Actor, id string) error {
	if err := s.access.RequireWrite(actor); err != nil {
		return err
	}

	cat, err := s.load(ctx, actor)
	if err != nil {
		return err
	}

	file, ok := cat.File(id)
	if !ok {
		return ErrNotFound("file %q does not exist", id)
	}

	delete(cat.Files, id)

	if err := s.save(ctx, cat); err != nil {
		return err
	}
	s.removeAsset(ctx, actor.Shop, file)

	s.logger.Info("file deleted",
		zap.String("shop", actor.Shop),
		zap.String("file_id", id))
	return nil
}

// RecordDownload increments a file's download counter. Read access is
// sufficient; the counter is tracking, not a catalog mutation by the caller.
func (s *Service) RecordDownload(ctx context.Context, actor Actor, id string) (*models.File, error) {
	if err := s.access.RequireRead(actor); err != nil {
		return nil, err
	}

	cat, err := s.load(ctx, actor)
	if err != nil {
		return nil, err
	}

	file, ok := cat.File(id)
	if !ok {
		return nil, ErrNotFound("file %q does not exist", id)
	}

	now := time.Now()
	file.Downloads++
	file.LastDownloaded = &now
	cat.Files[id] = file

	if err := s.save(ctx, cat); err != nil {
		return nil, err
	}
	return &file, nil
}

// BulkFailure describes one item that a bulk operation could not apply.
type BulkFailure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// BulkResult partitions a bulk operation's outcome per item.
type BulkResult struct {
	Succeeded []string      `json:"succeeded"`
	Failed    []BulkFailure `json:"failed"`
}

// BulkMoveFiles moves a set of files into one destination folder. Items
// fail independently; a single save persists the ones that applied.
func (s *Service) BulkMoveFiles(ctx context.Context, actor Actor, ids []string, newFolderID string) (*BulkResult, error) {
	if err := s.access.RequireWrite(actor); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, ErrValidation("no file ids given")
	}

	cat, err := s.load(ctx, actor)
	if err != nil {
		return nil, err
	}

	result := &BulkResult{Succeeded: []string{}, Failed: []BulkFailure{}}
	for _, id := range ids {
		if _, err := s.moveFileInCatalog(cat, id, newFolderID); err != nil {
			result.Failed = append(result.Failed, BulkFailure{ID: id, Error: err.Error()})
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}

	if len(result.Succeeded) > 0 {
		if err := s.save(ctx, cat); err != nil {
			return nil, err
		}
	}

	s.logger.Info("files bulk moved",
		zap.String("shop", actor.Shop),
		zap.String("new_folder_id", newFolderID),
		zap.Int("succeeded", len(result.Succeeded)),
		zap.Int("failed", len(result.Failed)))
	return result, nil
}

// BulkDeleteFiles deletes a set of files. Items fail independently; a
// single save persists the ones that applied.
func (s *Service) BulkDeleteFiles(ctx context.Context, actor Actor, ids []string) (*BulkResult, error) {
	if err := s.access.RequireWrite(actor); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, ErrValidation("no file ids given")
	}

	cat, err := s.load(ctx, actor)
	if err != nil {
		return nil, err
	}

	result := &BulkResult{Succeeded: []string{}, Failed: []BulkFailure{}}
	var doomed []models.File
	for _, id := range ids {
		file, ok := cat.File(id)
		if !ok {
			result.Failed = append(result.Failed, BulkFailure{ID: id, Error: ErrNotFound("file %q does not exist", id).Error()})
			continue
		}
		doomed = append(doomed, file)
		delete(cat.Files, id)
		result.Succeeded = append(result.Succeeded, id)
	}

	if len(result.Succeeded) > 0 {
		if err := s.save(ctx, cat); err != nil {
			return nil, err
		}
		s.removeAssets(ctx, actor.Shop, doomed)
	}

	s.logger.Info("files bulk deleted",
		zap.String("shop", actor.Shop),
		zap.Int("succeeded", len(result.Succeeded)),
		zap.Int("failed", len(result.Failed)))
	return result, nil
}

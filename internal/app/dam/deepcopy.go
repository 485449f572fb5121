package dam

import (
	"context"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dalemusser/stratadam/internal/domain/models"
)

// CopyResult lists the records a subtree copy created.
type CopyResult struct {
	Folders []models.Folder `json:"folders"`
	Files   []models.File   `json:"files"`
}

// CopyFolder clones a folder and everything below it under a destination
// folder. Cloned records get fresh ids; the copied top-level folder's name
// gets " (n)" appended if the destination already holds that name. File
// assets are not duplicated on the content host; clones share the source's
// asset references.
func (s *Service) CopyFolder(ctx context.Context, actor Actor, sourceID, destinationID string) (*CopyResult, error) {
	if err := s.access.RequireWrite(actor); err != nil {
		return nil, err
	}
	if sourceID == models.RootFolderID {
		return nil, ErrValidation("the root folder cannot be copied")
	}

	cat, err := s.load(ctx, actor)
	if err != nil {
		return nil, err
	}

	source, ok := cat.Folder(sourceID)
	if !ok {
		return nil, ErrNotFound("folder %q does not exist", sourceID)
	}
	if _, ok := cat.Folder(destinationID); !ok {
		return nil, ErrNotFound("destination folder %q does not exist", destinationID)
	}
	if destinationID == sourceID || descendantSet(cat, sourceID)[destinationID] {
		return nil, ErrConflict("cannot copy a folder into its own subfolder")
	}

	now := time.Now()
	result := &CopyResult{Folders: []models.Folder{}, Files: []models.File{}}

	// Breadth-first over the source subtree, recording old-id to new-id
	// mappings so each cloned child re-parents onto its cloned parent.
	idMap := map[string]string{}

	rootName := uniqueFolderName(cat, destinationID, source.Name)
	cloneFolder := func(src models.Folder, name, parentID string) models.Folder {
		clone := src
		clone.ID = uuid.NewString()
		clone.Name = name
		clone.NameCI = text.Fold(name)
		clone.ParentID = &parentID
		clone.CreatedAt = now
		clone.UpdatedAt = now
		idMap[src.ID] = clone.ID
		cat.Folders[clone.ID] = clone
		result.Folders = append(result.Folders, clone)
		return clone
	}

	cloneFolder(source, rootName, destinationID)

	queue := []string{sourceID}
	for len(queue) > 0 {
		oldParent := queue[0]
		queue = queue[1:]
		newParent := idMap[oldParent]

		for _, f := range childFolders(cat, oldParent) {
			cloneFolder(f, f.Name, newParent)
			queue = append(queue, f.ID)
		}
		for _, f := range childFiles(cat, oldParent) {
			clone := f
			clone.ID = uuid.NewString()
			clone.FolderID = newParent
			clone.Downloads = 0
			clone.LastDownloaded = nil
			clone.CreatedAt = now
			clone.UpdatedAt = now
			cat.Files[clone.ID] = clone
			result.Files = append(result.Files, clone)
		}
	}

	if err := s.save(ctx, cat); err != nil {
		return nil, err
	}

	s.logger.Info("folder copied",
		zap.String("shop", actor.Shop),
		zap.String("source_id", sourceID),
		zap.String("destination_id", destinationID),
		zap.Int("folders_created", len(result.Folders)),
		zap.Int("files_created", len(result.Files)))
	return result, nil
}

// childFolders snapshots the direct child folders of parentID. Clones are
// inserted under fresh parent ids, so a snapshot taken before cloning a
// level never picks up the clones themselves.
func childFolders(cat *models.Catalog, parentID string) []models.Folder {
	var out []models.Folder
	for _, f := range cat.Folders {
		if f.ParentID != nil && *f.ParentID == parentID {
			out = append(out, f)
		}
	}
	return out
}

func childFiles(cat *models.Catalog, folderID string) []models.File {
	var out []models.File
	for _, f := range cat.Files {
		if f.FolderID == folderID {
			out = append(out, f)
		}
	}
	return out
}

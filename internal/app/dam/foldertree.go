package dam

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dalemusser/stratadam/internal/app/system/sanitize"
	"github.com/dalemusser/stratadam/internal/domain/models"
)

// CreateFolderInput contains the input for creating a folder.
type CreateFolderInput struct {
	Name        string
	ParentID    string
	Color       string
	Description string
	CreatedBy   string
}

// CreateFolder inserts a new folder under an existing parent.
func (s *Service) CreateFolder(ctx context.Context, actor Actor, input CreateFolderInput) (*models.Folder, error) {
	if err := s.access.RequireWrite(actor); err != nil {
		return nil, err
	}

	name := sanitize.Text(input.Name)
	if name == "" {
		return nil, ErrValidation("folder name is required")
	}

	cat, err := s.load(ctx, actor)
	if err != nil {
		return nil, err
	}

	if _, ok := cat.Folder(input.ParentID); !ok {
		return nil, ErrNotFound("parent folder %q does not exist", input.ParentID)
	}
	if siblingFolderExists(cat, input.ParentID, text.Fold(name), "") {
		return nil, ErrConflict("a folder named %q already exists here", name)
	}

	now := time.Now()
	parentID := input.ParentID
	folder := models.Folder{
		ID:          uuid.NewString(),
		Name:        name,
		NameCI:      text.Fold(name),
		ParentID:    &parentID,
		Color:       sanitize.Text(input.Color),
		Description: sanitize.Text(input.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
		CreatedBy:   input.CreatedBy,
	}
	cat.Folders[folder.ID] = folder

	if err := s.save(ctx, cat); err != nil {
		return nil, err
	}

	s.logger.Info("folder created",
		zap.String("shop", actor.Shop),
		zap.String("folder_id", folder.ID),
		zap.String("name", folder.Name),
		zap.String("parent_id", input.ParentID))
	return &folder, nil
}

// RenameFolder changes a folder's name. The root folder cannot be renamed.
func (s *Service) RenameFolder(ctx context.Context, actor Actor, id, newName string) (*models.Folder, error) {
	if err := s.access.RequireWrite(actor); err != nil {
		return nil, err
	}

	name := sanitize.Text(newName)
	if name == "" {
		return nil, ErrValidation("folder name is required")
	}
	if id == models.RootFolderID {
		return nil, ErrValidation("the root folder cannot be renamed")
	}

	cat, err := s.load(ctx, actor)
	if err != nil {
		return nil, err
	}

	folder, ok := cat.Folder(id)
	if !ok {
		return nil, ErrNotFound("folder %q does not exist", id)
	}
	if siblingFolderExists(cat, *folder.ParentID, text.Fold(name), id) {
		return nil, ErrConflict("a folder named %q already exists here", name)
	}

	folder.Name = name
	folder.NameCI = text.Fold(name)
	folder.UpdatedAt = time.Now()
	cat.Folders[id] = folder

	if err := s.save(ctx, cat); err != nil {
		return nil, err
	}

	s.logger.Info("folder renamed",
		zap.String("shop", actor.Shop),
		zap.String("folder_id", id),
		zap.String("name", name))
	return &folder, nil
}

// MoveFolder re-parents a folder. Moving the root, moving into a missing
// destination, or moving a folder into its own subtree are rejected.
func (s *Service) MoveFolder(ctx context.Context, actor Actor, id, newParentID string) (*models.Folder, error) {
	if err := s.access.RequireWrite(actor); err != nil {
		return nil, err
	}
	if id == models.RootFolderID {
		return nil, ErrValidation("the root folder cannot be moved")
	}

	cat, err := s.load(ctx, actor)
	if err != nil {
		return nil, err
	}

	folder, ok := cat.Folder(id)
	if !ok {
		return nil, ErrNotFound("folder %q does not exist", id)
	}
	if _, ok := cat.Folder(newParentID); !ok {
		return nil, ErrNotFound("destination folder %q does not exist", newParentID)
	}
	if newParentID == id || descendantSet(cat, id)[newParentID] {
		return nil, ErrConflict("cannot move a folder into its own subfolder")
	}
	if siblingFolderExists(cat, newParentID, folder.NameCI, id) {
		return nil, ErrConflict("a folder named %q already exists in the destination", folder.Name)
	}

	folder.ParentID = &newParentID
	folder.UpdatedAt = time.Now()
	cat.Folders[id] = folder

	if err := s.save(ctx, cat); err != nil {
		return nil, err
	}

	s.logger.Info("folder moved",
		zap.String("shop", actor.Shop),
		zap.String("folder_id", id),
		zap.String("new_parent_id", newParentID))
	return &folder, nil
}

// DeleteResult reports what a cascading folder delete removed.
type DeleteResult struct {
	FoldersDeleted int `json:"foldersDeleted"`
	FilesDeleted   int `json:"filesDeleted"`
}

// DeleteFolder removes a folder, every descendant folder, and every file
// contained in any of them. Content host deletions are best-effort.
func (s *Service) DeleteFolder(ctx context.Context, actor Actor, id string) (*DeleteResult, error) {
	if err := s.access.RequireWrite(actor); err != nil {
		return nil, err
	}
	if id == models.RootFolderID {
		return nil, ErrValidation("the root folder cannot be deleted")
	}

	cat, err := s.load(ctx, actor)
	if err != nil {
		return nil, err
	}

	if _, ok := cat.Folder(id); !ok {
		return nil, ErrNotFound("folder %q does not exist", id)
	}

	doomed := descendantSet(cat, id)
	doomed[id] = true

	var result DeleteResult
	var doomedFiles []models.File
	for fileID, f := range cat.Files {
		if !doomed[f.FolderID] {
			continue
		}
		doomedFiles = append(doomedFiles, f)
		delete(cat.Files, fileID)
		result.FilesDeleted++
	}
	for folderID := range doomed {
		delete(cat.Folders, folderID)
		result.FoldersDeleted++
	}

	if err := s.save(ctx, cat); err != nil {
		return nil, err
	}
	s.removeAssets(ctx, actor.Shop, doomedFiles)

	s.logger.Info("folder deleted",
		zap.String("shop", actor.Shop),
		zap.String("folder_id", id),
		zap.Int("folders_deleted", result.FoldersDeleted),
		zap.Int("files_deleted", result.FilesDeleted))
	return &result, nil
}

// Breadcrumb is one step in a folder's ancestor path.
type Breadcrumb struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Breadcrumbs returns the ancestor path of a folder, root first, ending
// with the folder itself.
func (s *Service) Breadcrumbs(ctx context.Context, actor Actor, id string) ([]Breadcrumb, error) {
	if err := s.access.RequireRead(actor); err != nil {
		return nil, err
	}

	cat, err := s.load(ctx, actor)
	if err != nil {
		return nil, err
	}

	folder, ok := cat.Folder(id)
	if !ok {
		return nil, ErrNotFound("folder %q does not exist", id)
	}

	var crumbs []Breadcrumb
	seen := map[string]bool{}
	for {
		if seen[folder.ID] {
			return nil, ErrConflict("folder hierarchy contains a cycle at %q", folder.ID)
		}
		seen[folder.ID] = true
		crumbs = append([]Breadcrumb{{ID: folder.ID, Name: folder.Name}}, crumbs...)
		if folder.ParentID == nil {
			break
		}
		parent, ok := cat.Folder(*folder.ParentID)
		if !ok {
			return nil, ErrNotFound("ancestor folder %q does not exist", *folder.ParentID)
		}
		folder = parent
	}
	return crumbs, nil
}

// ContentsOptions controls filtering and ordering of a folder listing.
type ContentsOptions struct {
	SortBy    string // "name", "size", "date"
	SortOrder string // "asc", "desc"
	Search    string // case-insensitive substring filter
}

// Contents is a folder listing: direct child folders and files.
type Contents struct {
	Folders []models.Folder `json:"folders"`
	Files   []models.File   `json:"files"`
}

// Contents returns the direct children of a folder, filtered and sorted.
func (s *Service) Contents(ctx context.Context, actor Actor, folderID string, opts ContentsOptions) (*Contents, error) {
	if err := s.access.RequireRead(actor); err != nil {
		return nil, err
	}

	cat, err := s.load(ctx, actor)
	if err != nil {
		return nil, err
	}

	if _, ok := cat.Folder(folderID); !ok {
		return nil, ErrNotFound("folder %q does not exist", folderID)
	}

	needle := text.Fold(strings.TrimSpace(opts.Search))

	contents := &Contents{Folders: []models.Folder{}, Files: []models.File{}}
	for _, f := range cat.Folders {
		if f.ParentID == nil || *f.ParentID != folderID {
			continue
		}
		if needle != "" && !strings.Contains(f.NameCI, needle) {
			continue
		}
		contents.Folders = append(contents.Folders, f)
	}
	for _, f := range cat.Files {
		if f.FolderID != folderID {
			continue
		}
		if needle != "" && !fileMatches(f, needle) {
			continue
		}
		contents.Files = append(contents.Files, f)
	}

	sortFolders(contents.Folders, opts)
	sortFiles(contents.Files, opts)
	return contents, nil
}

// descendantSet returns the ids of every folder below id, by repeated
// parent-edge expansion.
func descendantSet(cat *models.Catalog, id string) map[string]bool {
	children := make(map[string][]string, len(cat.Folders))
	for _, f := range cat.Folders {
		if f.ParentID != nil {
			children[*f.ParentID] = append(children[*f.ParentID], f.ID)
		}
	}

	set := map[string]bool{}
	stack := []string{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range children[cur] {
			if !set[child] {
				set[child] = true
				stack = append(stack, child)
			}
		}
	}
	return set
}

func fileMatches(f models.File, needle string) bool {
	if strings.Contains(f.NameCI, needle) {
		return true
	}
	if strings.Contains(text.Fold(f.Description), needle) {
		return true
	}
	for _, tag := range f.Tags {
		if strings.Contains(text.Fold(tag), needle) {
			return true
		}
	}
	return false
}

// sortFolders orders folders by the requested key with a name tie-break.
// Folders have no size, so "size" falls back to name ordering.
func sortFolders(folders []models.Folder, opts ContentsOptions) {
	desc := opts.SortOrder == "desc"
	sort.SliceStable(folders, func(i, j int) bool {
		a, b := folders[i], folders[j]
		if opts.SortBy == "date" && !a.CreatedAt.Equal(b.CreatedAt) {
			if desc {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.CreatedAt.Before(b.CreatedAt)
		}
		if a.NameCI != b.NameCI && desc && opts.SortBy != "date" {
			return a.NameCI > b.NameCI
		}
		return a.NameCI < b.NameCI
	})
}

// sortFiles orders files by the requested key with a name tie-break.
func sortFiles(files []models.File, opts ContentsOptions) {
	desc := opts.SortOrder == "desc"
	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i], files[j]
		switch opts.SortBy {
		case "size":
			if a.Size != b.Size {
				if desc {
					return a.Size > b.Size
				}
				return a.Size < b.Size
			}
		case "date":
			if !a.CreatedAt.Equal(b.CreatedAt) {
				if desc {
					return a.CreatedAt.After(b.CreatedAt)
				}
				return a.CreatedAt.Before(b.CreatedAt)
			}
		default:
			if a.NameCI != b.NameCI {
				if desc {
					return a.NameCI > b.NameCI
				}
				return a.NameCI < b.NameCI
			}
		}
		return a.NameCI < b.NameCI
	})
}

package dam

import (
	"context"
	"sort"
	"strings"

	"github.com/dalemusser/waffle/pantry/text"

	"github.com/dalemusser/stratadam/internal/domain/models"
)

// DefaultSearchLimit caps results when the caller does not give a limit.
const DefaultSearchLimit = 50

// SearchOptions narrows and bounds a catalog search.
type SearchOptions struct {
	TagFilter   string // only files carrying this tag
	FolderScope string // restrict to this folder's subtree
	Limit       int
}

// SearchResults holds ranked folder and file matches.
type SearchResults struct {
	Folders []models.Folder `json:"folders"`
	Files   []models.File   `json:"files"`
}

// Result ordering tiers. Exact name matches rank above prefix matches,
// which rank above other substring matches.
const (
	rankExact = iota
	rankPrefix
	rankContains
)

// Search finds folders and files whose names contain the query,
// case-insensitively. Files also match on description and tags. The root
// folder is never returned.
func (s *Service) Search(ctx context.Context, actor Actor, query string, opts SearchOptions) (*SearchResults, error) {
	if err := s.access.RequireRead(actor); err != nil {
		return nil, err
	}

	needle := text.Fold(strings.TrimSpace(query))
	if needle == "" {
		return nil, ErrValidation("search query is required")
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	cat, err := s.load(ctx, actor)
	if err != nil {
		return nil, err
	}

	var scope map[string]bool
	if opts.FolderScope != "" {
		if _, ok := cat.Folder(opts.FolderScope); !ok {
			return nil, ErrNotFound("folder %q does not exist", opts.FolderScope)
		}
		scope = descendantSet(cat, opts.FolderScope)
		scope[opts.FolderScope] = true
	}
	tagFilter := text.Fold(strings.TrimSpace(opts.TagFilter))

	type rankedFolder struct {
		rank   int
		folder models.Folder
	}
	type rankedFile struct {
		rank int
		file models.File
	}

	var folders []rankedFolder
	for _, f := range cat.Folders {
		if f.IsRoot() {
			continue
		}
		if scope != nil && !scope[f.ID] {
			continue
		}
		rank, ok := rankName(f.NameCI, needle)
		if !ok {
			continue
		}
		folders = append(folders, rankedFolder{rank: rank, folder: f})
	}

	var files []rankedFile
	for _, f := range cat.Files {
		if scope != nil && !scope[f.FolderID] {
			continue
		}
		if tagFilter != "" && !hasTag(f, tagFilter) {
			continue
		}
		rank, ok := rankName(f.NameCI, needle)
		if !ok {
			if !fileMatches(f, needle) {
				continue
			}
			rank = rankContains
		}
		files = append(files, rankedFile{rank: rank, file: f})
	}

	sort.SliceStable(folders, func(i, j int) bool {
		if folders[i].rank != folders[j].rank {
			return folders[i].rank < folders[j].rank
		}
		return folders[i].folder.NameCI < folders[j].folder.NameCI
	})
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].rank != files[j].rank {
			return files[i].rank < files[j].rank
		}
		return files[i].file.NameCI < files[j].file.NameCI
	})

	// Fill the combined limit in rank order across both lists so a strong
	// file match is never pushed out by an overflow of weak folder matches.
	results := &SearchResults{Folders: []models.Folder{}, Files: []models.File{}}
	i, j := 0, 0
	for len(results.Folders)+len(results.Files) < limit && (i < len(folders) || j < len(files)) {
		takeFolder := j >= len(files)
		if !takeFolder && i < len(folders) {
			fo, fi := folders[i], files[j]
			if fo.rank < fi.rank || (fo.rank == fi.rank && fo.folder.NameCI <= fi.file.NameCI) {
				takeFolder = true
			}
		}
		if takeFolder {
			results.Folders = append(results.Folders, folders[i].folder)
			i++
		} else {
			results.Files = append(results.Files, files[j].file)
			j++
		}
	}
	return results, nil
}

// rankName classifies how nameCI matches the folded needle.
func rankName(nameCI, needle string) (int, bool) {
	switch {
	case nameCI == needle:
		return rankExact, true
	case strings.HasPrefix(nameCI, needle):
		return rankPrefix, true
	case strings.Contains(nameCI, needle):
		return rankContains, true
	default:
		return 0, false
	}
}

func hasTag(f models.File, tagCI string) bool {
	for _, t := range f.Tags {
		if text.Fold(t) == tagCI {
			return true
		}
	}
	return false
}

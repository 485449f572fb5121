package dam

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dalemusser/waffle/pantry/text"

	"github.com/dalemusser/stratadam/internal/domain/models"
)

// siblingFolderExists reports whether parentID already holds a folder whose
// name folds equal to nameCI, ignoring excludeID.
func siblingFolderExists(cat *models.Catalog, parentID, nameCI, excludeID string) bool {
	for _, f := range cat.Folders {
		if f.ID == excludeID || f.ParentID == nil || *f.ParentID != parentID {
			continue
		}
		if f.NameCI == nameCI {
			return true
		}
	}
	return false
}

// siblingFileExists reports whether folderID already holds a file whose
// name folds equal to nameCI, ignoring excludeID.
func siblingFileExists(cat *models.Catalog, folderID, nameCI, excludeID string) bool {
	for _, f := range cat.Files {
		if f.ID == excludeID || f.FolderID != folderID {
			continue
		}
		if f.NameCI == nameCI {
			return true
		}
	}
	return false
}

// uniqueFolderName returns name, or name with " (n)" appended, whichever is
// first not taken by a folder under parentID.
func uniqueFolderName(cat *models.Catalog, parentID, name string) string {
	candidate := name
	for n := 1; siblingFolderExists(cat, parentID, text.Fold(candidate), ""); n++ {
		candidate = fmt.Sprintf("%s (%d)", name, n)
	}
	return candidate
}

// uniqueFileName returns name, or name with " (n)" inserted before the
// extension, whichever is first not taken by a file in folderID.
func uniqueFileName(cat *models.Catalog, folderID, name string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	candidate := name
	for n := 1; siblingFileExists(cat, folderID, text.Fold(candidate), ""); n++ {
		candidate = fmt.Sprintf("%s (%d)%s", base, n, ext)
	}
	return candidate
}

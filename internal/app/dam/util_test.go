package dam

import (
	"testing"

	"github.com/dalemusser/waffle/pantry/text"

	"github.com/dalemusser/stratadam/internal/domain/models"
)

func catalogWithFiles(folderID string, names ...string) *models.Catalog {
	cat := &models.Catalog{
		Folders: map[string]models.Folder{},
		Files:   map[string]models.File{},
	}
	for i, name := range names {
		id := string(rune('a' + i))
		cat.Files[id] = models.File{ID: id, FolderID: folderID, Name: name, NameCI: text.Fold(name)}
	}
	return cat
}

func TestUniqueFileName(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		input    string
		want     string
	}{
		{"no collision", nil, "logo.png", "logo.png"},
		{"single collision", []string{"logo.png"}, "logo.png", "logo (1).png"},
		{"cascading collision", []string{"logo.png", "logo (1).png"}, "logo.png", "logo (2).png"},
		{"case insensitive", []string{"Logo.PNG"}, "logo.png", "logo (1).png"},
		{"no extension", []string{"readme"}, "readme", "readme (1)"},
		{"dotted name", []string{"archive.tar.gz"}, "archive.tar.gz", "archive.tar (1).gz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := catalogWithFiles("f1", tt.existing...)
			if got := uniqueFileName(cat, "f1", tt.input); got != tt.want {
				t.Errorf("uniqueFileName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestUniqueFileName_OtherFolderDoesNotCollide(t *testing.T) {
	cat := catalogWithFiles("f1", "logo.png")
	if got := uniqueFileName(cat, "f2", "logo.png"); got != "logo.png" {
		t.Errorf("uniqueFileName() = %q, want logo.png", got)
	}
}

func TestUniqueFolderName(t *testing.T) {
	parent := models.RootFolderID
	cat := &models.Catalog{
		Folders: map[string]models.Folder{},
		Files:   map[string]models.File{},
	}
	add := func(id, name string) {
		p := parent
		cat.Folders[id] = models.Folder{ID: id, Name: name, NameCI: text.Fold(name), ParentID: &p}
	}
	add("f1", "Assets")
	add("f2", "Assets (1)")

	if got := uniqueFolderName(cat, parent, "Assets"); got != "Assets (2)" {
		t.Errorf("uniqueFolderName() = %q, want Assets (2)", got)
	}
	if got := uniqueFolderName(cat, parent, "Fresh"); got != "Fresh" {
		t.Errorf("uniqueFolderName() = %q, want Fresh", got)
	}
}

package dam

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/dalemusser/stratadam/internal/app/store/catalog"
	"github.com/dalemusser/stratadam/internal/domain/models"
	"github.com/dalemusser/stratadam/internal/testutil"
)

// staleStore wraps a working store but refuses every save, as when another
// writer bumped the catalog version first.
type staleStore struct {
	CatalogStore
}

func (s staleStore) Save(ctx context.Context, cat *models.Catalog) error {
	return catalog.ErrStaleCatalog
}

func TestService_UploadFile(t *testing.T) {
	svc, host := newTestService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	file, err := svc.UploadFile(ctx, adminActor, UploadFileInput{
		FolderID:    models.RootFolderID,
		Name:        "price-list.pdf",
		MimeType:    "application/pdf",
		Size:        4096,
		Content:     strings.NewReader("pdf bytes"),
		Description: "Wholesale price list",
		Tags:        []string{"pricing", "wholesale"},
	})
	if err != nil {
		t.Fatalf("UploadFile() error = %v", err)
	}

	if file.ID == "" {
		t.Error("file ID is empty")
	}
	if file.ExternalAssetID == "" {
		t.Error("ExternalAssetID is empty")
	}
	if file.URL == "" {
		t.Error("URL is empty")
	}
	if file.Category != models.CategoryPDF {
		t.Errorf("Category = %v, want %v", file.Category, models.CategoryPDF)
	}
	if len(file.Tags) != 2 {
		t.Errorf("Tags = %v, want 2 entries", file.Tags)
	}
	if host.publishCalls != 1 {
		t.Errorf("publish calls = %v, want 1", host.publishCalls)
	}
}

func TestService_UploadFile_ValidatesBeforePublish(t *testing.T) {
	svc, host := newTestService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tests := []struct {
		name  string
		input UploadFileInput
		kind  Kind
	}{
		{
			name:  "oversized",
			input: UploadFileInput{FolderID: models.RootFolderID, Name: "huge.png", MimeType: "image/png", Size: 60 << 20},
			kind:  KindValidation,
		},
		{
			name:  "empty",
			input: UploadFileInput{FolderID: models.RootFolderID, Name: "empty.png", MimeType: "image/png", Size: 0},
			kind:  KindValidation,
		},
		{
			name:  "disallowed type",
			input: UploadFileInput{FolderID: models.RootFolderID, Name: "app.exe", MimeType: "application/x-msdownload", Size: 100},
			kind:  KindValidation,
		},
		{
			name:  "missing folder",
			input: UploadFileInput{FolderID: "no-such-folder", Name: "lost.png", MimeType: "image/png", Size: 100},
			kind:  KindNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UploadFile(ctx, adminActor, tt.input)
			if kindOf(t, err) != tt.kind {
				t.Errorf("UploadFile() error kind = %v, want %v", kindOf(t, err), tt.kind)
			}
		})
	}

	// None of the rejected uploads may have touched the content host.
	if host.publishCalls != 0 {
		t.Errorf("publish calls = %v, want 0", host.publishCalls)
	}
}

func TestService_UploadFile_NameCollision(t *testing.T) {
	svc, _ := newTestService(t)

	first := mustUploadFile(t, svc, models.RootFolderID, "logo.png")
	second := mustUploadFile(t, svc, models.RootFolderID, "logo.png")
	third := mustUploadFile(t, svc, models.RootFolderID, "LOGO.PNG")

	if first.Name != "logo.png" {
		t.Errorf("first Name = %v, want logo.png", first.Name)
	}
	if second.Name != "logo (1).png" {
		t.Errorf("second Name = %v, want logo (1).png", second.Name)
	}
	// Case-insensitive collision with both earlier names.
	if third.Name != "LOGO (2).PNG" {
		t.Errorf("third Name = %v, want LOGO (2).PNG", third.Name)
	}
}

func TestService_UploadFile_PublishFailure(t *testing.T) {
	svc, host := newTestService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	host.publishErr = ErrExternal("staging the upload failed", errors.New("boom"))

	_, err := svc.UploadFile(ctx, adminActor, UploadFileInput{
		FolderID: models.RootFolderID,
		Name:     "doomed.png",
		MimeType: "image/png",
		Size:     100,
		Content:  strings.NewReader("x"),
	})
	if kindOf(t, err) != KindExternal {
		t.Fatalf("UploadFile() error kind = %v, want KindExternal", kindOf(t, err))
	}

	// The failed upload must not leave a catalog record behind.
	contents, err := svc.Contents(ctx, adminActor, models.RootFolderID, ContentsOptions{})
	if err != nil {
		t.Fatalf("Contents() error = %v", err)
	}
	if len(contents.Files) != 0 {
		t.Errorf("files after failed upload = %v, want 0", len(contents.Files))
	}
}

func TestService_UploadFile_DedupesTags(t *testing.T) {
	svc, _ := newTestService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	file, err := svc.UploadFile(ctx, adminActor, UploadFileInput{
		FolderID: models.RootFolderID,
		Name:     "tagged.png",
		MimeType: "image/png",
		Size:     64,
		Content:  strings.NewReader("x"),
		Tags:     []string{"logo", "Logo", " banner ", ""},
	})
	if err != nil {
		t.Fatalf("UploadFile() error = %v", err)
	}

	want := []string{"logo", "banner"}
	if !reflect.DeepEqual(file.Tags, want) {
		t.Errorf("Tags = %v, want %v", file.Tags, want)
	}
}

func TestService_RenameFile(t *testing.T) {
	svc, _ := newTestService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	file := mustUploadFile(t, svc, models.RootFolderID, "draft.png")
	mustUploadFile(t, svc, models.RootFolderID, "final.png")

	renamed, err := svc.RenameFile(ctx, adminActor, file.ID, "approved.png")
	if err != nil {
		t.Fatalf("RenameFile() error = %v", err)
	}
	if renamed.Name != "approved.png" {
		t.Errorf("Name = %v, want approved.png", renamed.Name)
	}

	if _, err := svc.RenameFile(ctx, adminActor, file.ID, "FINAL.png"); kindOf(t, err) != KindConflict {
		t.Errorf("RenameFile() to taken name error kind = %v, want KindConflict", kindOf(t, err))
	}
}

func TestService_MoveFile(t *testing.T) {
	svc, _ := newTestService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	dest := mustCreateFolder(t, svc, models.RootFolderID, "Approved")
	file := mustUploadFile(t, svc, models.RootFolderID, "hero.png")
	mustUploadFile(t, svc, dest.ID, "taken.png")

	moved, err := svc.MoveFile(ctx, adminActor, file.ID, dest.ID)
	if err != nil {
		t.Fatalf("MoveFile() error = %v", err)
	}
	if moved.FolderID != dest.ID {
		t.Errorf("FolderID = %v, want %v", moved.FolderID, dest.ID)
	}

	taken := mustUploadFile(t, svc, models.RootFolderID, "taken.png")
	if _, err := svc.MoveFile(ctx, adminActor, taken.ID, dest.ID); kindOf(t, err) != KindConflict {
		t.Errorf("MoveFile() into taken name error kind = %v, want KindConflict", kindOf(t, err))
	}
	if _, err := svc.MoveFile(ctx, adminActor, file.ID, "no-such-folder"); kindOf(t, err) != KindNotFound {
		t.Errorf("MoveFile() to missing folder error kind = %v, want KindNotFound", kindOf(t, err))
	}
}

func TestService_UpdateFile(t *testing.T) {
	svc, _ := newTestService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	file := mustUploadFile(t, svc, models.RootFolderID, "price-list.pdf")

	desc := "Updated description"
	tags := []string{"q3", "print"}
	updated, err := svc.UpdateFile(ctx, adminActor, file.ID, UpdateFileInput{Description: &desc, Tags: &tags})
	if err != nil {
		t.Fatalf("UpdateFile() error = %v", err)
	}
	if updated.Description != desc {
		t.Errorf("Description = %v, want %v", updated.Description, desc)
	}
	if len(updated.Tags) != 2 {
		t.Errorf("Tags = %v, want 2 entries", updated.Tags)
	}

	// Nil fields leave existing values alone.
	unchanged, err := svc.UpdateFile(ctx, adminActor, file.ID, UpdateFileInput{})
	if err != nil {
		t.Fatalf("UpdateFile() error = %v", err)
	}
	if unchanged.Description != desc {
		t.Errorf("Description after no-op update = %v, want %v", unchanged.Description, desc)
	}
}

func TestService_UpdateFile_DedupesTags(t *testing.T) {
	svc, _ := newTestService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	file := mustUploadFile(t, svc, models.RootFolderID, "flyer.png")

	tags := []string{"Print", "print", "Q3"}
	updated, err := svc.UpdateFile(ctx, adminActor, file.ID, UpdateFileInput{Tags: &tags})
	if err != nil {
		t.Fatalf("UpdateFile() error = %v", err)
	}

	want := []string{"Print", "Q3"}
	if !reflect.DeepEqual(updated.Tags, want) {
		t.Errorf("Tags = %v, want %v", updated.Tags, want)
	}
}

func TestService_DeleteFile(t *testing.T) {
	svc, host := newTestService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	file := mustUploadFile(t, svc, models.RootFolderID, "old.png")

	if err := svc.DeleteFile(ctx, adminActor, file.ID); err != nil {
		t.Fatalf("DeleteFile() error = %v", err)
	}
	if len(host.removed) != 1 || host.removed[0] != file.ExternalAssetID {
		t.Errorf("host removals = %v, want [%v]", host.removed, file.ExternalAssetID)
	}

	if err := svc.DeleteFile(ctx, adminActor, file.ID); kindOf(t, err) != KindNotFound {
		t.Errorf("second DeleteFile() error kind = %v, want KindNotFound", kindOf(t, err))
	}
}

func TestService_DeleteFile_HostFailureIsBestEffort(t *testing.T) {
	svc, host := newTestService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	file := mustUploadFile(t, svc, models.RootFolderID, "stubborn.png")
	host.removeErr = errors.New("host unavailable")

	if err := svc.DeleteFile(ctx, adminActor, file.ID); err != nil {
		t.Fatalf("DeleteFile() error = %v, want nil despite host failure", err)
	}

	contents, err := svc.Contents(ctx, adminActor, models.RootFolderID, ContentsOptions{})
	if err != nil {
		t.Fatalf("Contents() error = %v", err)
	}
	if len(contents.Files) != 0 {
		t.Errorf("files after delete = %v, want 0", len(contents.Files))
	}
}

func TestService_DeleteFile_KeepsAssetOnStaleSave(t *testing.T) {
	svc, host := newTestService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	file := mustUploadFile(t, svc, models.RootFolderID, "contested.png")

	stale := NewService(staleStore{svc.store}, svc.access, host, svc.limits, svc.logger)
	if err := stale.DeleteFile(ctx, adminActor, file.ID); kindOf(t, err) != KindConflict {
		t.Fatalf("DeleteFile() error kind = %v, want KindConflict", kindOf(t, err))
	}

	// The record survived the failed save, so the asset must survive too.
	if len(host.removed) != 0 {
		t.Errorf("host removals = %v, want none", host.removed)
	}
	contents, err := svc.Contents(ctx, adminActor, models.RootFolderID, ContentsOptions{})
	if err != nil {
		t.Fatalf("Contents() error = %v", err)
	}
	if len(contents.Files) != 1 {
		t.Errorf("files after failed delete = %v, want 1", len(contents.Files))
	}
}

func TestService_DeleteFolder_KeepsAssetsOnStaleSave(t *testing.T) {
	svc, host := newTestService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	folder := mustCreateFolder(t, svc, models.RootFolderID, "Contested")
	mustUploadFile(t, svc, folder.ID, "inside.png")

	stale := NewService(staleStore{svc.store}, svc.access, host, svc.limits, svc.logger)
	if _, err := stale.DeleteFolder(ctx, adminActor, folder.ID); kindOf(t, err) != KindConflict {
		t.Fatalf("DeleteFolder() error kind = %v, want KindConflict", kindOf(t, err))
	}
	if len(host.removed) != 0 {
		t.Errorf("host removals = %v, want none", host.removed)
	}
}

func TestService_RecordDownload(t *testing.T) {
	svc, _ := newTestService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	file := mustUploadFile(t, svc, models.RootFolderID, "catalog.pdf")

	// Read access is enough to record a download.
	first, err := svc.RecordDownload(ctx, affiliateActor, file.ID)
	if err != nil {
		t.Fatalf("RecordDownload() error = %v", err)
	}
	if first.Downloads != 1 {
		t.Errorf("Downloads = %v, want 1", first.Downloads)
	}
	if first.LastDownloaded == nil {
		t.Error("LastDownloaded is nil")
	}

	second, err := svc.RecordDownload(ctx, affiliateActor, file.ID)
	if err != nil {
		t.Fatalf("second RecordDownload() error = %v", err)
	}
	if second.Downloads != 2 {
		t.Errorf("Downloads = %v, want 2", second.Downloads)
	}

	if _, err := svc.RecordDownload(ctx, guestActor, file.ID); kindOf(t, err) != KindAccessDenied {
		t.Errorf("guest RecordDownload() error kind = %v, want KindAccessDenied", kindOf(t, err))
	}
}

func TestService_BulkMoveFiles(t *testing.T) {
	svc, _ := newTestService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	dest := mustCreateFolder(t, svc, models.RootFolderID, "Sorted")
	a := mustUploadFile(t, svc, models.RootFolderID, "a.png")
	b := mustUploadFile(t, svc, models.RootFolderID, "b.png")
	mustUploadFile(t, svc, dest.ID, "b.png")

	result, err := svc.BulkMoveFiles(ctx, adminActor, []string{a.ID, b.ID, "missing"}, dest.ID)
	if err != nil {
		t.Fatalf("BulkMoveFiles() error = %v", err)
	}

	if len(result.Succeeded) != 1 || result.Succeeded[0] != a.ID {
		t.Errorf("Succeeded = %v, want [%v]", result.Succeeded, a.ID)
	}
	if len(result.Failed) != 2 {
		t.Fatalf("Failed = %v, want 2 entries", result.Failed)
	}

	// The partial outcome is persisted.
	contents, err := svc.Contents(ctx, adminActor, dest.ID, ContentsOptions{})
	if err != nil {
		t.Fatalf("Contents() error = %v", err)
	}
	if len(contents.Files) != 2 {
		t.Errorf("destination files = %v, want 2", len(contents.Files))
	}
}

func TestService_BulkDeleteFiles(t *testing.T) {
	svc, host := newTestService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := mustUploadFile(t, svc, models.RootFolderID, "a.png")
	b := mustUploadFile(t, svc, models.RootFolderID, "b.png")

	result, err := svc.BulkDeleteFiles(ctx, adminActor, []string{a.ID, "missing", b.ID})
	if err != nil {
		t.Fatalf("BulkDeleteFiles() error = %v", err)
	}

	if len(result.Succeeded) != 2 {
		t.Errorf("Succeeded = %v, want 2 entries", result.Succeeded)
	}
	if len(result.Failed) != 1 || result.Failed[0].ID != "missing" {
		t.Errorf("Failed = %v, want the missing id", result.Failed)
	}
	if len(host.removed) != 2 {
		t.Errorf("host removals = %v, want 2", len(host.removed))
	}
}

func TestService_BulkOps_EmptyIDs(t *testing.T) {
	svc, _ := newTestService(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := svc.BulkMoveFiles(ctx, adminActor, nil, models.RootFolderID); kindOf(t, err) != KindValidation {
		t.Errorf("BulkMoveFiles(nil) error kind = %v, want KindValidation", kindOf(t, err))
	}
	if _, err := svc.BulkDeleteFiles(ctx, adminActor, nil); kindOf(t, err) != KindValidation {
		t.Errorf("BulkDeleteFiles(nil) error kind = %v, want KindValidation", kindOf(t, err))
	}
}

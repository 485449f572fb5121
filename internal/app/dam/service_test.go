package dam

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/dalemusser/stratadam/internal/app/store/catalog"
	"github.com/dalemusser/stratadam/internal/domain/models"
	"github.com/dalemusser/stratadam/internal/testutil"
)

var (
	adminActor     = Actor{Shop: "test-shop.example.com", Roles: []string{"admin"}}
	affiliateActor = Actor{Shop: "test-shop.example.com", Roles: []string{"affiliate"}}
	guestActor     = Actor{Shop: "test-shop.example.com", Roles: []string{"guest"}}
)

// stubHost stands in for the content host. It records calls and can be
// primed to fail.
type stubHost struct {
	publishCalls int
	removed      []string
	publishErr   error
	removeErr    error
}

func (h *stubHost) Publish(ctx context.Context, upload AssetUpload) (StagedAsset, error) {
	h.publishCalls++
	if h.publishErr != nil {
		return StagedAsset{}, h.publishErr
	}
	return StagedAsset{
		AssetID:    fmt.Sprintf("gid://host/GenericFile/%d", h.publishCalls),
		URL:        fmt.Sprintf("https://cdn.example.com/%d/%s", h.publishCalls, upload.Filename),
		PreviewURL: fmt.Sprintf("https://cdn.example.com/%d/preview.png", h.publishCalls),
	}, nil
}

func (h *stubHost) Remove(ctx context.Context, externalAssetID string) error {
	h.removed = append(h.removed, externalAssetID)
	return h.removeErr
}

// kindOf asserts err is an engine error and returns its kind.
func kindOf(t *testing.T, err error) Kind {
	t.Helper()
	kind, ok := KindOf(err)
	if !ok {
		t.Fatalf("error %v is not an engine error", err)
	}
	return kind
}

func newTestService(t *testing.T) (*Service, *stubHost) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	host := &stubHost{}
	limits := Limits{
		MaxFileSize: 50 << 20,
		AllowedMimeTypes: map[string]struct{}{
			"image/png":       {},
			"image/jpeg":      {},
			"application/pdf": {},
			"video/mp4":       {},
		},
	}
	svc := NewService(catalog.New(db), NewAccess("admin,affiliate", "admin"), host, limits, zap.NewNop())
	return svc, host
}

func mustCreateFolder(t *testing.T, svc *Service, parentID, name string) *models.Folder {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	folder, err := svc.CreateFolder(ctx, adminActor, CreateFolderInput{Name: name, ParentID: parentID})
	if err != nil {
		t.Fatalf("CreateFolder(%q) error = %v", name, err)
	}
	return folder
}

func mustUploadFile(t *testing.T, svc *Service, folderID, name string) *models.File {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	file, err := svc.UploadFile(ctx, adminActor, UploadFileInput{
		FolderID: folderID,
		Name:     name,
		MimeType: "image/png",
		Size:     1024,
		Content:  strings.NewReader("png bytes"),
	})
	if err != nil {
		t.Fatalf("UploadFile(%q) error = %v", name, err)
	}
	return file
}

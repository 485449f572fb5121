package catalog

import (
	"errors"
	"testing"

	"github.com/dalemusser/stratadam/internal/domain/models"
	"github.com/dalemusser/stratadam/internal/testutil"
)

func TestStore_Load_InitializesRoot(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cat, err := store.Load(ctx, "shop-a.example.com")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cat.Shop != "shop-a.example.com" {
		t.Errorf("Shop = %v, want shop-a.example.com", cat.Shop)
	}
	if cat.Version != 1 {
		t.Errorf("Version = %v, want 1", cat.Version)
	}
	root, ok := cat.Folder(models.RootFolderID)
	if !ok {
		t.Fatal("new catalog is missing the root folder")
	}
	if root.Name != models.RootFolderName {
		t.Errorf("root Name = %v, want %v", root.Name, models.RootFolderName)
	}
	if root.ParentID != nil {
		t.Error("root ParentID should be nil")
	}
	if len(cat.Files) != 0 {
		t.Errorf("new catalog has %d files, want 0", len(cat.Files))
	}
}

func TestStore_Load_ReturnsExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	first, err := store.Load(ctx, "shop-b.example.com")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	second, err := store.Load(ctx, "shop-b.example.com")
	if err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second Load returned a different document: %v vs %v", second.ID, first.ID)
	}
}

func TestStore_Save_BumpsVersion(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cat, err := store.Load(ctx, "shop-c.example.com")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if err := store.Save(ctx, cat); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if cat.Version != 2 {
		t.Errorf("Version after save = %v, want 2", cat.Version)
	}

	reloaded, err := store.Load(ctx, "shop-c.example.com")
	if err != nil {
		t.Fatalf("reload error = %v", err)
	}
	if reloaded.Version != 2 {
		t.Errorf("stored Version = %v, want 2", reloaded.Version)
	}
}

func TestStore_Save_StaleVersion(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	first, err := store.Load(ctx, "shop-d.example.com")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	second, err := store.Load(ctx, "shop-d.example.com")
	if err != nil {
		t.Fatalf("second Load() error = %v", err)
	}

	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("first Save() error = %v", err)
	}

	err = store.Save(ctx, second)
	if !errors.Is(err, ErrStaleCatalog) {
		t.Errorf("stale Save() error = %v, want ErrStaleCatalog", err)
	}
	// A failed save must not advance the in-memory version.
	if second.Version != 1 {
		t.Errorf("Version after failed save = %v, want 1", second.Version)
	}
}

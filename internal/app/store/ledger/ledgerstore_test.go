package ledgerstore

import (
	"fmt"
	"testing"
	"time"

	"github.com/dalemusser/stratadam/internal/testutil"
)

func seedEntry(t *testing.T, store *Store, requestID, shop, action string, status int, startedAt time.Time) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := store.Create(ctx, Entry{
		RequestID:   requestID,
		Method:      "POST",
		Path:        "/api/dam",
		RemoteIP:    "203.0.113.7",
		Shop:        shop,
		Action:      action,
		StatusCode:  status,
		StartedAt:   startedAt,
		CompletedAt: startedAt.Add(25 * time.Millisecond),
	})
	if err != nil {
		t.Fatalf("Create(%q) error = %v", requestID, err)
	}
}

func TestStore_CreateAndGetByRequestID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	seedEntry(t, store, "req-1", "shop.example.com", "create_folder", 409, time.Now())

	entry, err := store.GetByRequestID(ctx, "req-1")
	if err != nil {
		t.Fatalf("GetByRequestID() error = %v", err)
	}
	if entry.Shop != "shop.example.com" {
		t.Errorf("Shop = %v", entry.Shop)
	}
	if entry.StatusCode != 409 {
		t.Errorf("StatusCode = %v, want 409", entry.StatusCode)
	}
}

func TestStore_List(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		status := 404
		if i%2 == 0 {
			status = 500
		}
		seedEntry(t, store, fmt.Sprintf("req-%d", i), "shop.example.com", "list", status, base.Add(time.Duration(i)*time.Minute))
	}

	result, err := store.List(ctx, ListFilter{}, 1, 3)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.TotalCount != 5 {
		t.Errorf("TotalCount = %v, want 5", result.TotalCount)
	}
	if len(result.Entries) != 3 {
		t.Errorf("page size = %v, want 3", len(result.Entries))
	}
	if result.TotalPages != 2 {
		t.Errorf("TotalPages = %v, want 2", result.TotalPages)
	}
	// Newest first.
	if result.Entries[0].RequestID != "req-4" {
		t.Errorf("first entry = %v, want req-4", result.Entries[0].RequestID)
	}

	min := 500
	serverErrors, err := store.List(ctx, ListFilter{StatusCodeMin: &min}, 1, 50)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if serverErrors.TotalCount != 3 {
		t.Errorf("filtered TotalCount = %v, want 3", serverErrors.TotalCount)
	}
}

func TestStore_DeleteOlderThan(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now()
	seedEntry(t, store, "old-1", "s", "list", 404, now.Add(-48*time.Hour))
	seedEntry(t, store, "old-2", "s", "list", 404, now.Add(-30*time.Hour))
	seedEntry(t, store, "fresh", "s", "list", 404, now)

	deleted, err := store.DeleteOlderThan(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteOlderThan() error = %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %v, want 2", deleted)
	}

	remaining, err := store.RecentErrors(ctx, 10)
	if err != nil {
		t.Fatalf("RecentErrors() error = %v", err)
	}
	if len(remaining) != 1 || remaining[0].RequestID != "fresh" {
		t.Errorf("remaining = %+v, want just fresh", remaining)
	}
}

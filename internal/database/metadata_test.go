package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func setupTestDB(t testing.TB) *Database {
	t.Helper()

	db, err := New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestGetMetadataMissingKey(t *testing.T) {
	db := setupTestDB(t)

	value, err := db.GetMetadata(context.Background(), "nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetMetadata() error = %v, expected ErrNotFound", err)
	}
	if value != "" {
		t.Errorf("Expected empty string with error, got %s", value)
	}
}

func TestSetAndGetMetadata(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.SetMetadata(ctx, "key1", "value1"); err != nil {
		t.Fatalf("SetMetadata failed: %v", err)
	}
	if err := db.SetMetadata(ctx, "key1", "value2"); err != nil {
		t.Fatalf("SetMetadata update failed: %v", err)
	}

	value, err := db.GetMetadata(ctx, "key1")
	if err != nil {
		t.Fatalf("GetMetadata failed: %v", err)
	}
	if value != "value2" {
		t.Errorf("Expected updated value 'value2', got %s", value)
	}
}

func TestDeleteMetadata(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.SetMetadata(ctx, "key", "value"); err != nil {
		t.Fatalf("SetMetadata failed: %v", err)
	}
	if err := db.DeleteMetadata(ctx, "key"); err != nil {
		t.Fatalf("DeleteMetadata failed: %v", err)
	}
	if _, err := db.GetMetadata(ctx, "key"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetMetadata after delete error = %v, expected ErrNotFound", err)
	}
	if err := db.DeleteMetadata(ctx, "key"); err != nil {
		t.Errorf("deleting a missing key failed: %v", err)
	}
}

func TestMetadataSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	db, err := New(ctx, path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := db.SetMetadata(ctx, "blob", `{"version":1}`); err != nil {
		t.Fatalf("SetMetadata failed: %v", err)
	}
	db.Close()

	db, err = New(ctx, path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer db.Close()

	value, err := db.GetMetadata(ctx, "blob")
	if err != nil {
		t.Fatalf("GetMetadata failed: %v", err)
	}
	if value != `{"version":1}` {
		t.Errorf("got %s after reopen", value)
	}
	if db.Path() != path {
		t.Errorf("Path() = %s, expected %s", db.Path(), path)
	}
}

func TestNewMissingDirectory(t *testing.T) {
	if _, err := New(context.Background(), filepath.Join(t.TempDir(), "missing", "x.db")); err == nil {
		t.Error("expected error for missing parent directory")
	}
}

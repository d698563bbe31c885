package services

import (
	"context"
	"testing"

	"github.com/pxvault/px/internal/core/domain"
	"github.com/pxvault/px/internal/core/ports/mocks"
)

func TestFieldService_SetField(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPNG(t, dir, "a.png", 8, 8)

	store := mocks.NewMockMetadataStore()
	idx := mocks.NewMockIndex()
	seedAsset(t, idx, path, 0)

	svc := NewFieldService(store, idx)
	resp, err := svc.Execute(context.Background(), FieldRequest{
		Paths: []string{path},
		Key:   "collection",
		Value: "portraits",
	})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if resp.Changed != 1 {
		t.Errorf("expected 1 changed file, got %d", resp.Changed)
	}

	res, _ := store.Read(path)
	if res.Record.Fields["collection"] != "portraits" {
		t.Errorf("field not persisted: %v", res.Record.Fields)
	}
}

func TestFieldService_OverwriteKeepsSiblings(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPNG(t, dir, "a.png", 8, 8)

	store := mocks.NewMockMetadataStore()
	rec := domain.NewRecord()
	rec.SetField("collection", "old")
	rec.SetField("artist", "someone")
	store.Seed(path, rec)
	idx := mocks.NewMockIndex()
	seedAsset(t, idx, path, 0)

	svc := NewFieldService(store, idx)
	if _, err := svc.Execute(context.Background(), FieldRequest{
		Paths: []string{path},
		Key:   "collection",
		Value: "new",
	}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	res, _ := store.Read(path)
	if res.Record.Fields["collection"] != "new" || res.Record.Fields["artist"] != "someone" {
		t.Errorf("overwrite must keep sibling fields: %v", res.Record.Fields)
	}
}

func TestFieldService_SameValueIsNoop(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPNG(t, dir, "a.png", 8, 8)

	store := mocks.NewMockMetadataStore()
	rec := domain.NewRecord()
	rec.SetField("k", "v")
	store.Seed(path, rec)

	svc := NewFieldService(store, mocks.NewMockIndex())
	resp, err := svc.Execute(context.Background(), FieldRequest{Paths: []string{path}, Key: "k", Value: "v"})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if resp.Changed != 0 || len(store.Writes()) != 0 {
		t.Error("setting an identical value must not rewrite the file")
	}
}

func TestFieldService_DeleteField(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPNG(t, dir, "a.png", 8, 8)

	store := mocks.NewMockMetadataStore()
	rec := domain.NewRecord()
	rec.SetField("stale", "x")
	store.Seed(path, rec)
	idx := mocks.NewMockIndex()
	seedAsset(t, idx, path, 0)

	svc := NewFieldService(store, idx)
	resp, err := svc.Execute(context.Background(), FieldRequest{
		Paths:  []string{path},
		Key:    "stale",
		Delete: true,
	})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if resp.Changed != 1 {
		t.Errorf("expected 1 changed file, got %d", resp.Changed)
	}

	res, _ := store.Read(path)
	if _, ok := res.Record.Fields["stale"]; ok {
		t.Errorf("field not deleted: %v", res.Record.Fields)
	}
}

func TestFieldService_DeleteMissingIsNoop(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPNG(t, dir, "a.png", 8, 8)

	store := mocks.NewMockMetadataStore()
	svc := NewFieldService(store, mocks.NewMockIndex())
	resp, err := svc.Execute(context.Background(), FieldRequest{
		Paths:  []string{path},
		Key:    "ghost",
		Delete: true,
	})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if resp.Changed != 0 {
		t.Errorf("deleting a missing field must be a noop, got %d", resp.Changed)
	}
}

func TestFieldService_EmptyKey(t *testing.T) {
	svc := NewFieldService(mocks.NewMockMetadataStore(), mocks.NewMockIndex())
	if _, err := svc.Execute(context.Background(), FieldRequest{Paths: []string{"/a.png"}, Key: "  "}); err == nil {
		t.Error("expected error for empty key")
	}
}

package index

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pxvault/px/internal/core/domain"
)

func openTestIndex(t *testing.T) *SQLiteIndex {
	t.Helper()
	idx, err := Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("opening index: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func testAsset(path string, tags ...string) domain.Asset {
	record := domain.NewRecord()
	for _, tag := range tags {
		record.AddTag(tag)
	}
	record.SetRating(3)
	record.SetField("collection", "tests")

	return domain.Asset{
		Header: domain.AssetHeader{
			Path:      path,
			Name:      filepath.Base(path),
			Format:    "png",
			SizeBytes: 1024,
			ModTime:   time.Now().Truncate(time.Second),
			Width:     512,
			Height:    512,
			Checksum:  "checksum-" + filepath.Base(path),
			Rating:    record.Rating,
			Tags:      record.SortedTags(),
			PHash:     "a5a5a5a5a5a5a5a5",
		},
		Record: *record,
	}
}

func TestSQLiteIndex_UpsertAndGet(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()

	asset := testAsset("/images/a.png", "landscape", "night")
	if err := idx.Upsert(ctx, asset); err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}

	got, err := idx.Get(ctx, "/images/a.png")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.Header.Checksum != asset.Header.Checksum {
		t.Errorf("checksum mismatch: %q", got.Header.Checksum)
	}
	if !got.Record.HasTag("landscape") || !got.Record.HasTag("night") {
		t.Errorf("tags did not survive: %v", got.Record.Tags)
	}
	if got.Record.Fields["collection"] != "tests" {
		t.Errorf("fields did not survive: %v", got.Record.Fields)
	}
	if got.Record.Rating != 3 {
		t.Errorf("rating did not survive: %d", got.Record.Rating)
	}
}

func TestSQLiteIndex_UpsertIsIdempotent(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()

	asset := testAsset("/images/a.png", "first")
	if err := idx.Upsert(ctx, asset); err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}

	asset.Record = *domain.NewRecord()
	asset.Record.AddTag("second")
	asset.Header.Tags = []string{"second"}
	if err := idx.Upsert(ctx, asset); err != nil {
		t.Fatalf("second Upsert returned error: %v", err)
	}

	n, err := idx.Count(ctx)
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 row after re-upsert, got %d", n)
	}

	got, _ := idx.Get(ctx, "/images/a.png")
	if got.Record.HasTag("first") || !got.Record.HasTag("second") {
		t.Errorf("upsert must replace the row, got tags %v", got.Record.Tags)
	}
}

func TestSQLiteIndex_FindByTag(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()

	idx.Upsert(ctx, testAsset("/images/a.png", "landscape"))
	idx.Upsert(ctx, testAsset("/images/b.png", "portrait"))
	idx.Upsert(ctx, testAsset("/images/c.png", "landscape", "night"))

	headers, err := idx.FindByTag(ctx, "Landscape")
	if err != nil {
		t.Fatalf("FindByTag returned error: %v", err)
	}
	if len(headers) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(headers))
	}
	// Ordered by path
	if headers[0].Path != "/images/a.png" || headers[1].Path != "/images/c.png" {
		t.Errorf("unexpected matches: %v, %v", headers[0].Path, headers[1].Path)
	}
}

func TestSQLiteIndex_PruneAndRemove(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()

	idx.Upsert(ctx, testAsset("/images/a.png"))
	idx.Upsert(ctx, testAsset("/images/b.png"))
	idx.Upsert(ctx, testAsset("/images/c.png"))

	removed, err := idx.Prune(ctx, map[string]bool{"/images/a.png": true})
	if err != nil {
		t.Fatalf("Prune returned error: %v", err)
	}
	if removed != 2 {
		t.Errorf("expected 2 pruned rows, got %d", removed)
	}

	if err := idx.Remove(ctx, "/images/a.png"); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if n, _ := idx.Count(ctx); n != 0 {
		t.Errorf("expected empty index, got %d rows", n)
	}
}

func TestSQLiteIndex_Hashes(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()

	withHash := testAsset("/images/a.png")
	noHash := testAsset("/images/b.png")
	noHash.Header.PHash = ""

	idx.Upsert(ctx, withHash)
	idx.Upsert(ctx, noHash)

	hashes, err := idx.Hashes(ctx)
	if err != nil {
		t.Fatalf("Hashes returned error: %v", err)
	}
	if len(hashes) != 1 {
		t.Fatalf("expected 1 hash, got %d", len(hashes))
	}
	if hashes["/images/a.png"] != "a5a5a5a5a5a5a5a5" {
		t.Errorf("unexpected hash: %q", hashes["/images/a.png"])
	}
}

func TestSQLiteIndex_GetMissing(t *testing.T) {
	idx := openTestIndex(t)
	if _, err := idx.Get(context.Background(), "/nope.png"); err == nil {
		t.Error("expected error for missing path")
	}
}

package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pxvault/px/internal/core/domain"
	"github.com/pxvault/px/internal/core/ports/mocks"
)

func TestScanService_Execute(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, dir, "a.png", 32, 16)
	writeTestPNG(t, dir, "b.png", 16, 16)
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0644)

	store := mocks.NewMockMetadataStore()
	idx := mocks.NewMockIndex()
	svc := NewScanService(store, idx, 2, []string{".", "~"}, domain.HashAverage)

	resp, err := svc.Execute(context.Background(), ScanRequest{
		Roots:     []string{dir},
		Recursive: true,
	})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	if resp.Scanned != 2 {
		t.Errorf("expected 2 scanned files, got %d", resp.Scanned)
	}
	if resp.Indexed != 2 {
		t.Errorf("expected 2 indexed files, got %d", resp.Indexed)
	}

	asset, err := idx.Get(context.Background(), filepath.Join(dir, "a.png"))
	if err != nil {
		t.Fatalf("asset not indexed: %v", err)
	}
	if asset.Header.Width != 32 || asset.Header.Height != 16 {
		t.Errorf("dimensions not captured: %dx%d", asset.Header.Width, asset.Header.Height)
	}
}

func TestScanService_SkipsUnchangedFiles(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, dir, "a.png", 8, 8)

	store := mocks.NewMockMetadataStore()
	idx := mocks.NewMockIndex()
	svc := NewScanService(store, idx, 1, nil, domain.HashAverage)

	req := ScanRequest{Roots: []string{dir}, Recursive: true}
	if _, err := svc.Execute(context.Background(), req); err != nil {
		t.Fatalf("first scan returned error: %v", err)
	}

	resp, err := svc.Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("second scan returned error: %v", err)
	}
	if resp.Skipped != 1 || resp.Indexed != 0 {
		t.Errorf("unchanged file must be skipped, got indexed=%d skipped=%d", resp.Indexed, resp.Skipped)
	}
}

func TestScanService_ComputesHashes(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPNG(t, dir, "a.png", 16, 16)

	store := mocks.NewMockMetadataStore()
	idx := mocks.NewMockIndex()
	svc := NewScanService(store, idx, 1, nil, domain.HashPerceptual)

	if _, err := svc.Execute(context.Background(), ScanRequest{
		Roots:         []string{dir},
		Recursive:     true,
		ComputeHashes: true,
	}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	asset, err := idx.Get(context.Background(), path)
	if err != nil {
		t.Fatalf("asset not indexed: %v", err)
	}
	if len(asset.Header.PHash) != 16 {
		t.Errorf("expected 16-char hash, got %q", asset.Header.PHash)
	}
}

func TestScanService_OneBadFileDoesNotAbort(t *testing.T) {
	dir := t.TempDir()
	good := writeTestPNG(t, dir, "good.png", 8, 8)
	bad := filepath.Join(dir, "bad.png")
	os.WriteFile(bad, []byte("broken"), 0644)

	store := mocks.NewMockMetadataStore()
	store.FailReadWith(bad, errors.New("container unreadable"))
	idx := mocks.NewMockIndex()
	svc := NewScanService(store, idx, 2, nil, domain.HashAverage)

	resp, err := svc.Execute(context.Background(), ScanRequest{Roots: []string{dir}, Recursive: true})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	if len(resp.Errors) != 1 || resp.Errors[0].Path != bad {
		t.Errorf("expected one error for the bad file, got %v", resp.Errors)
	}
	if resp.Indexed != 1 {
		t.Errorf("good file must still be indexed, got %d", resp.Indexed)
	}
	if _, err := idx.Get(context.Background(), good); err != nil {
		t.Error("good file missing from index")
	}
}

func TestScanService_ExcludesHiddenFiles(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, dir, "visible.png", 8, 8)
	writeTestPNG(t, dir, ".hidden.png", 8, 8)

	hiddenDir := filepath.Join(dir, ".cache")
	os.MkdirAll(hiddenDir, 0755)
	writeTestPNG(t, hiddenDir, "nested.png", 8, 8)

	store := mocks.NewMockMetadataStore()
	idx := mocks.NewMockIndex()
	svc := NewScanService(store, idx, 1, []string{"."}, domain.HashAverage)

	resp, err := svc.Execute(context.Background(), ScanRequest{Roots: []string{dir}, Recursive: true})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if resp.Scanned != 1 {
		t.Errorf("hidden files and directories must be excluded, scanned %d", resp.Scanned)
	}
}

func TestScanService_NonRecursive(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, dir, "top.png", 8, 8)
	sub := filepath.Join(dir, "sub")
	os.MkdirAll(sub, 0755)
	writeTestPNG(t, sub, "nested.png", 8, 8)

	store := mocks.NewMockMetadataStore()
	idx := mocks.NewMockIndex()
	svc := NewScanService(store, idx, 1, nil, domain.HashAverage)

	resp, err := svc.Execute(context.Background(), ScanRequest{Roots: []string{dir}, Recursive: false})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if resp.Scanned != 1 {
		t.Errorf("non-recursive scan must stay at the top level, scanned %d", resp.Scanned)
	}
}

func TestScanService_Prune(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, dir, "kept.png", 8, 8)

	store := mocks.NewMockMetadataStore()
	idx := mocks.NewMockIndex()
	seedAsset(t, idx, filepath.Join(dir, "deleted.png"), 0)

	svc := NewScanService(store, idx, 1, nil, domain.HashAverage)
	resp, err := svc.Execute(context.Background(), ScanRequest{
		Roots:     []string{dir},
		Recursive: true,
		Prune:     true,
	})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if resp.Pruned != 1 {
		t.Errorf("expected 1 pruned row, got %d", resp.Pruned)
	}
	if n, _ := idx.Count(context.Background()); n != 1 {
		t.Errorf("expected only the kept file in the index, got %d rows", n)
	}
}

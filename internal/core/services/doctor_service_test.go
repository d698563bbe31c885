package services

import (
	"context"
	"testing"

	"github.com/pxvault/px/internal/core/ports/mocks"
	"github.com/pxvault/px/pkg/metadata"
)

func issuesOfKind(issues []Issue, kind IssueKind) []Issue {
	var out []Issue
	for _, i := range issues {
		if i.Kind == kind {
			out = append(out, i)
		}
	}
	return out
}

func TestDoctorService_HealthyLibrary(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPNG(t, dir, "a.png", 8, 8)

	store := mocks.NewMockMetadataStore()
	idx := mocks.NewMockIndex()
	asset := seedAsset(t, idx, path, 0)

	// Align the indexed checksum with what the mock store reports
	res, _ := store.Read(path)
	asset.Header.Checksum = res.Checksum
	idx.Upsert(context.Background(), asset)

	svc := NewDoctorService(store, idx)
	resp, err := svc.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if resp.Checked != 1 || resp.Healthy != 1 || len(resp.Issues) != 0 {
		t.Errorf("expected a clean bill of health, got %+v", resp)
	}
}

func TestDoctorService_MissingFile(t *testing.T) {
	store := mocks.NewMockMetadataStore()
	idx := mocks.NewMockIndex()
	seedAsset(t, idx, "/gone/away.png", 0)

	svc := NewDoctorService(store, idx)
	resp, err := svc.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(issuesOfKind(resp.Issues, IssueMissing)) != 1 {
		t.Errorf("expected a missing-file issue, got %v", resp.Issues)
	}
}

func TestDoctorService_CorruptContainer(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPNG(t, dir, "a.png", 8, 8)

	store := mocks.NewMockMetadataStore()
	store.FailReadWith(path, &metadata.CorruptMetadataError{Path: path, Field: "container"})
	idx := mocks.NewMockIndex()
	seedAsset(t, idx, path, 0)

	svc := NewDoctorService(store, idx)
	resp, err := svc.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(issuesOfKind(resp.Issues, IssueCorrupt)) != 1 {
		t.Errorf("expected a corrupt issue, got %v", resp.Issues)
	}
	if resp.Healthy != 0 {
		t.Errorf("corrupt file must not count as healthy")
	}
}

func TestDoctorService_StaleIndexRow(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPNG(t, dir, "a.png", 8, 8)

	store := mocks.NewMockMetadataStore()
	idx := mocks.NewMockIndex()
	// Indexed checksum deliberately differs from what the store reports
	seedAsset(t, idx, path, 0)

	svc := NewDoctorService(store, idx)
	resp, err := svc.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(issuesOfKind(resp.Issues, IssueStale)) != 1 {
		t.Errorf("expected a stale issue, got %v", resp.Issues)
	}
}

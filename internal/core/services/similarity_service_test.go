package services

import (
	"context"
	"testing"

	"github.com/pxvault/px/internal/core/domain"
	"github.com/pxvault/px/internal/core/ports/mocks"
)

func seedHashed(t *testing.T, idx *mocks.MockIndex, path, phash string) {
	t.Helper()
	asset := seedAsset(t, idx, path, 0)
	asset.Header.PHash = phash
	if err := idx.Upsert(context.Background(), asset); err != nil {
		t.Fatalf("seeding hash: %v", err)
	}
}

func TestSimilarityService_Groups(t *testing.T) {
	idx := mocks.NewMockIndex()
	// a and b differ in one bit (63/64 similar); c is the inverse of a
	seedHashed(t, idx, "/lib/a.png", "0000000000000000")
	seedHashed(t, idx, "/lib/b.png", "0000000000000001")
	seedHashed(t, idx, "/lib/c.png", "ffffffffffffffff")

	svc := NewSimilarityService(idx, domain.HashPerceptual)
	resp, err := svc.Execute(context.Background(), GroupsRequest{Threshold: 0.9})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	if resp.Hashed != 3 {
		t.Errorf("Hashed = %d", resp.Hashed)
	}
	if len(resp.Groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(resp.Groups))
	}
	group := resp.Groups[0]
	if len(group.Paths) != 2 || group.Paths[0] != "/lib/a.png" || group.Paths[1] != "/lib/b.png" {
		t.Errorf("unexpected group: %v", group.Paths)
	}
}

func TestSimilarityService_NoGroupsAboveThreshold(t *testing.T) {
	idx := mocks.NewMockIndex()
	seedHashed(t, idx, "/lib/a.png", "0000000000000000")
	seedHashed(t, idx, "/lib/b.png", "ffffffffffffffff")

	svc := NewSimilarityService(idx, domain.HashPerceptual)
	resp, err := svc.Execute(context.Background(), GroupsRequest{Threshold: 0.9})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(resp.Groups) != 0 {
		t.Errorf("expected no groups, got %v", resp.Groups)
	}
}

func TestSimilarityService_Similar(t *testing.T) {
	idx := mocks.NewMockIndex()
	seedHashed(t, idx, "/lib/ref.png", "00000000000000ff")
	seedHashed(t, idx, "/lib/close.png", "00000000000000fe")
	seedHashed(t, idx, "/lib/far.png", "ff00000000000000")

	svc := NewSimilarityService(idx, domain.HashPerceptual)
	resp, err := svc.Similar(context.Background(), SimilarRequest{
		Path:      "/lib/ref.png",
		Threshold: 0.9,
	})
	if err != nil {
		t.Fatalf("Similar returned error: %v", err)
	}

	if len(resp.Matches) != 1 {
		t.Fatalf("expected 1 match, got %v", resp.Matches)
	}
	m := resp.Matches[0]
	if m.Path != "/lib/close.png" {
		t.Errorf("unexpected match %q", m.Path)
	}
	if m.Similarity <= 0.9 || m.Similarity >= 1.0 {
		t.Errorf("unexpected similarity %f", m.Similarity)
	}
}

func TestSimilarityService_SimilarWithoutHash(t *testing.T) {
	idx := mocks.NewMockIndex()
	seedAsset(t, idx, "/lib/nohash.png", 0)

	svc := NewSimilarityService(idx, domain.HashPerceptual)
	if _, err := svc.Similar(context.Background(), SimilarRequest{Path: "/lib/nohash.png", Threshold: 0.9}); err == nil {
		t.Error("expected error for asset without a hash")
	}
}

func TestSimilarityService_SkipsMalformedHashes(t *testing.T) {
	idx := mocks.NewMockIndex()
	seedHashed(t, idx, "/lib/good.png", "0000000000000000")
	seedHashed(t, idx, "/lib/bad.png", "zz-not-hex")

	svc := NewSimilarityService(idx, domain.HashPerceptual)
	resp, err := svc.Execute(context.Background(), GroupsRequest{Threshold: 0.9})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if resp.Hashed != 1 {
		t.Errorf("malformed hash rows must be skipped, hashed=%d", resp.Hashed)
	}
}

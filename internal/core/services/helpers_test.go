package services

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pxvault/px/internal/core/domain"
	"github.com/pxvault/px/internal/core/ports/mocks"
)

// seedAsset puts an asset into the mock index with the given tags
func seedAsset(t *testing.T, idx *mocks.MockIndex, path string, rating int, tags ...string) domain.Asset {
	t.Helper()

	record := domain.NewRecord()
	for _, tag := range tags {
		record.AddTag(tag)
	}
	record.SetRating(rating)

	asset := domain.Asset{
		Header: domain.AssetHeader{
			Path:      path,
			Name:      filepath.Base(path),
			Format:    domain.FormatForPath(path),
			SizeBytes: 2048,
			ModTime:   time.Now(),
			Checksum:  "sum-" + filepath.Base(path),
			Rating:    rating,
			Tags:      record.SortedTags(),
		},
		Record: *record,
	}
	if err := idx.Upsert(context.Background(), asset); err != nil {
		t.Fatalf("seeding index: %v", err)
	}
	return asset
}

// writeTestPNG writes a real PNG file so scans can stat and decode it
func writeTestPNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 7), G: uint8(y * 7), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test PNG: %v", err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("writing test PNG: %v", err)
	}
	return path
}

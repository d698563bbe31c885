package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pxvault/px/internal/core/domain"
	"github.com/pxvault/px/internal/core/ports"
)

// refreshIndexRow re-reads a file's record after a metadata write and
// updates its index row. Dimensions and perceptual hash are carried over
// from the previous row: a metadata write changes the file's bytes but
// never its pixels.
func refreshIndexRow(ctx context.Context, store ports.MetadataStore, index ports.Index, path string) error {
	store.Invalidate(path)
	res, err := store.Read(path)
	if err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	header := domain.AssetHeader{
		Path:      path,
		Name:      filepath.Base(path),
		Format:    domain.FormatForPath(path),
		SizeBytes: info.Size(),
		ModTime:   info.ModTime(),
		Checksum:  res.Checksum,
		Rating:    res.Record.Rating,
		Tags:      res.Record.SortedTags(),
	}
	if res.Record.Generation != nil {
		header.Model = res.Record.Generation.Model
	}

	if prev, err := index.Get(ctx, path); err == nil {
		header.Width = prev.Header.Width
		header.Height = prev.Header.Height
		header.PHash = prev.Header.PHash
	}

	return index.Upsert(ctx, domain.Asset{Header: header, Record: *res.Record})
}

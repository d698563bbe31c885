package ports

import (
	"context"

	"github.com/pxvault/px/internal/core/domain"
	"github.com/pxvault/px/pkg/metadata"
)

// MetadataStore defines the port for embedded metadata persistence
type MetadataStore interface {
	// Read extracts the record embedded in the image at path
	Read(path string) (*metadata.ReadResult, error)

	// Write embeds record into the image at path atomically
	Write(path string, record *domain.Record) error

	// Merge folds incoming into the record on disk and writes the result
	Merge(path string, incoming *domain.Record, reparse bool) (*domain.Record, error)

	// Invalidate drops any cached state for path
	Invalidate(path string)
}

// Index defines the port for the rebuildable asset index. The embedded
// records are the source of truth; the index only accelerates queries
// and can be dropped and rebuilt from a scan at any time.
type Index interface {
	// Upsert adds or refreshes an asset row
	Upsert(ctx context.Context, asset domain.Asset) error

	// Get retrieves an indexed asset by path
	Get(ctx context.Context, path string) (*domain.Asset, error)

	// ListHeaders returns all indexed asset headers (lightweight operation)
	ListHeaders(ctx context.Context) ([]domain.AssetHeader, error)

	// FindByTag returns headers of assets carrying the tag
	FindByTag(ctx context.Context, tag string) ([]domain.AssetHeader, error)

	// Remove deletes the row for path
	Remove(ctx context.Context, path string) error

	// Prune deletes rows whose path is not in keep, returning the count
	Prune(ctx context.Context, keep map[string]bool) (int, error)

	// Hashes returns path -> perceptual hash for every row that has one
	Hashes(ctx context.Context) (map[string]string, error)

	// Count returns the number of indexed assets
	Count(ctx context.Context) (int64, error)
}

// Thumbnailer defines the port for thumbnail generation
type Thumbnailer interface {
	// Generate renders a thumbnail for the image at path, keyed by its
	// checksum, and returns the thumbnail's path. Existing thumbnails
	// are reused.
	Generate(ctx context.Context, path, checksum string) (string, error)

	// Path returns where the thumbnail for a checksum lives
	Path(checksum string) string
}

// FileOpener defines the port for opening files with default applications
type FileOpener interface {
	// Open opens a file with the system's default application
	Open(ctx context.Context, filepath string) error
}

package services

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/pxvault/px/internal/core/domain"
	"github.com/pxvault/px/internal/core/ports"
)

// ScanService walks library roots, reads every image's embedded record
// and refreshes the index from it
type ScanService struct {
	store ports.MetadataStore
	index ports.Index

	workers       int
	excludePrefix []string
	hashKind      domain.HashKind
}

// NewScanService creates a new scan service
func NewScanService(store ports.MetadataStore, index ports.Index, workers int, excludePrefix []string, hashKind domain.HashKind) *ScanService {
	if workers < 1 {
		workers = 1
	}
	return &ScanService{
		store:         store,
		index:         index,
		workers:       workers,
		excludePrefix: excludePrefix,
		hashKind:      hashKind,
	}
}

// ScanRequest represents a request to scan library roots
type ScanRequest struct {
	Roots         []string
	Recursive     bool
	ComputeHashes bool
	// Prune removes index rows for files that no longer exist on disk
	Prune bool
}

// ScanError is one file that could not be processed. A scan never aborts
// on a single bad file.
type ScanError struct {
	Path string
	Err  error
}

// ScanResponse represents the outcome of a scan
type ScanResponse struct {
	Scanned  int
	Indexed  int
	Skipped  int
	Pruned   int
	Errors   []ScanError
	Warnings []string
	Duration time.Duration
}

// Execute scans the given roots and refreshes the index
func (s *ScanService) Execute(ctx context.Context, req ScanRequest) (*ScanResponse, error) {
	start := time.Now()

	paths, err := s.collectPaths(req.Roots, req.Recursive)
	if err != nil {
		return nil, err
	}

	resp := &ScanResponse{Scanned: len(paths)}

	type result struct {
		path     string
		indexed  bool
		skipped  bool
		warnings []string
		err      error
	}

	jobs := make(chan string)
	results := make(chan result)

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				indexed, skipped, warnings, err := s.scanOne(ctx, path, req.ComputeHashes)
				results <- result{path: path, indexed: indexed, skipped: skipped, warnings: warnings, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, p := range paths {
			select {
			case jobs <- p:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	seen := make(map[string]bool, len(paths))
	for r := range results {
		seen[r.path] = true
		switch {
		case r.err != nil:
			resp.Errors = append(resp.Errors, ScanError{Path: r.path, Err: r.err})
		case r.skipped:
			resp.Skipped++
		case r.indexed:
			resp.Indexed++
		}
		resp.Warnings = append(resp.Warnings, r.warnings...)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if req.Prune {
		pruned, err := s.index.Prune(ctx, seen)
		if err != nil {
			return nil, fmt.Errorf("pruning index: %w", err)
		}
		resp.Pruned = pruned
	}

	resp.Duration = time.Since(start)
	return resp, nil
}

// scanOne processes a single file. Unchanged files (same checksum as the
// indexed row) are skipped without re-decoding pixels.
func (s *ScanService) scanOne(ctx context.Context, path string, computeHashes bool) (indexed, skipped bool, warnings []string, err error) {
	res, err := s.store.Read(path)
	if err != nil {
		return false, false, nil, err
	}
	warnings = res.Warnings

	prev, prevErr := s.index.Get(ctx, path)
	if prevErr == nil && prev.Header.Checksum == res.Checksum {
		return false, true, warnings, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return false, false, warnings, fmt.Errorf("stat %s: %w", path, err)
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

	// Dimensions and perceptual hash only need recomputing when the
	// pixels may have changed; a metadata-only rewrite keeps them
	if prevErr == nil && prev.Header.Width > 0 {
		header.Width = prev.Header.Width
		header.Height = prev.Header.Height
		header.PHash = prev.Header.PHash
	}

	if header.Width == 0 || (computeHashes && header.PHash == "") {
		w, h, phash, decodeErr := s.inspectPixels(path, computeHashes)
		if decodeErr != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", path, decodeErr))
		} else {
			header.Width, header.Height = w, h
			if phash != "" {
				header.PHash = phash
			}
		}
	}

	asset := domain.Asset{Header: header, Record: *res.Record}
	if err := s.index.Upsert(ctx, asset); err != nil {
		return false, false, warnings, fmt.Errorf("indexing %s: %w", path, err)
	}
	return true, false, warnings, nil
}

func (s *ScanService) inspectPixels(path string, computeHash bool) (int, int, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, "", err
	}
	defer f.Close()

	if !computeHash {
		cfg, _, err := image.DecodeConfig(f)
		if err != nil {
			return 0, 0, "", fmt.Errorf("decoding dimensions: %w", err)
		}
		return cfg.Width, cfg.Height, "", nil
	}

	img, _, err := image.Decode(f)
	if err != nil {
		return 0, 0, "", fmt.Errorf("decoding image: %w", err)
	}
	b := img.Bounds()

	hash, err := domain.ComputeHash(img, s.hashKind)
	if err != nil {
		return b.Dx(), b.Dy(), "", err
	}
	return b.Dx(), b.Dy(), hash.Hex(), nil
}

// collectPaths gathers every supported image under the roots, applying
// the exclude prefixes to file and directory names
func (s *ScanService) collectPaths(roots []string, recursive bool) ([]string, error) {
	var paths []string

	for _, root := range roots {
		root, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("resolving root %s: %w", root, err)
		}

		err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if s.excluded(d.Name()) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				if !recursive && path != root {
					return filepath.SkipDir
				}
				return nil
			}
			if domain.IsSupportedPath(path) {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", root, err)
		}
	}

	return paths, nil
}

func (s *ScanService) excluded(name string) bool {
	for _, prefix := range s.excludePrefix {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

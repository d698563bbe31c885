package services

import (
	"context"
	"fmt"

	"github.com/pxvault/px/internal/core/domain"
	"github.com/pxvault/px/internal/core/ports"
)

// TagService adds and removes tags on assets, persisting to the embedded
// record first and the index second
type TagService struct {
	store ports.MetadataStore
	index ports.Index
}

// NewTagService creates a new tag service
func NewTagService(store ports.MetadataStore, index ports.Index) *TagService {
	return &TagService{store: store, index: index}
}

// TagRequest represents a request to tag or untag assets
type TagRequest struct {
	Paths  []string
	Tags   []string
	Remove bool
}

// TagResult is the outcome for one path
type TagResult struct {
	Path    string
	Changed bool
	Err     error
}

// TagResponse represents the response from tagging
type TagResponse struct {
	Results []TagResult
	Changed int
}

// Execute applies the tag changes to every path. One failing file does
// not stop the rest.
func (s *TagService) Execute(ctx context.Context, req TagRequest) (*TagResponse, error) {
	if len(req.Tags) == 0 {
		return nil, fmt.Errorf("no tags given")
	}

	resp := &TagResponse{}
	for _, path := range req.Paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		changed, err := s.applyOne(ctx, path, req.Tags, req.Remove)
		resp.Results = append(resp.Results, TagResult{Path: path, Changed: changed, Err: err})
		if err == nil && changed {
			resp.Changed++
		}
	}
	return resp, nil
}

func (s *TagService) applyOne(ctx context.Context, path string, tags []string, remove bool) (bool, error) {
	if remove {
		res, err := s.store.Read(path)
		if err != nil {
			return false, err
		}
		record := res.Record
		changed := false
		for _, tag := range tags {
			if record.RemoveTag(tag) {
				changed = true
			}
		}
		if !changed {
			return false, nil
		}
		if err := s.store.Write(path, record); err != nil {
			return false, err
		}
	} else {
		incoming := domain.NewRecord()
		for _, tag := range tags {
			incoming.AddTag(tag)
		}
		before, err := s.store.Read(path)
		if err != nil {
			return false, err
		}
		merged, err := s.store.Merge(path, incoming, false)
		if err != nil {
			return false, err
		}
		if merged.Equal(before.Record) {
			return false, nil
		}
	}

	if err := refreshIndexRow(ctx, s.store, s.index, path); err != nil {
		return true, fmt.Errorf("updating index for %s: %w", path, err)
	}
	return true, nil
}

// ListTags aggregates tag usage across the whole index
func (s *TagService) ListTags(ctx context.Context) (map[string]int, error) {
	headers, err := s.index.ListHeaders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}

	counts := make(map[string]int)
	for _, h := range headers {
		for _, tag := range h.Tags {
			counts[tag]++
		}
	}
	return counts, nil
}

package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/pxvault/px/internal/core/domain"
	"github.com/pxvault/px/internal/core/ports"
)

// FieldService sets and deletes free-form key/value fields on assets
type FieldService struct {
	store ports.MetadataStore
	index ports.Index
}

// NewFieldService creates a new field service
func NewFieldService(store ports.MetadataStore, index ports.Index) *FieldService {
	return &FieldService{store: store, index: index}
}

// FieldRequest represents a request to set or delete a field
type FieldRequest struct {
	Paths  []string
	Key    string
	Value  string
	Delete bool
}

// FieldResult is the outcome for one path
type FieldResult struct {
	Path    string
	Changed bool
	Err     error
}

// FieldResponse represents the response from a field operation
type FieldResponse struct {
	Results []FieldResult
	Changed int
}

// Execute applies the field change to every path
func (s *FieldService) Execute(ctx context.Context, req FieldRequest) (*FieldResponse, error) {
	key := strings.TrimSpace(req.Key)
	if key == "" {
		return nil, fmt.Errorf("field key must not be empty")
	}

	resp := &FieldResponse{}
	for _, path := range req.Paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		changed, err := s.applyOne(ctx, path, key, req.Value, req.Delete)
		resp.Results = append(resp.Results, FieldResult{Path: path, Changed: changed, Err: err})
		if err == nil && changed {
			resp.Changed++
		}
	}
	return resp, nil
}

func (s *FieldService) applyOne(ctx context.Context, path, key, value string, del bool) (bool, error) {
	var changed bool

	if del {
		res, err := s.store.Read(path)
		if err != nil {
			return false, err
		}
		record := res.Record
		if !record.DeleteField(key) {
			return false, nil
		}
		if err := s.store.Write(path, record); err != nil {
			return false, err
		}
		changed = true
	} else {
		res, err := s.store.Read(path)
		if err != nil {
			return false, err
		}
		if res.Record.Fields[key] == value {
			return false, nil
		}
		incoming := domain.NewRecord()
		incoming.SetField(key, value)
		if _, err := s.store.Merge(path, incoming, false); err != nil {
			return false, err
		}
		changed = true
	}

	if err := refreshIndexRow(ctx, s.store, s.index, path); err != nil {
		return changed, fmt.Errorf("updating index for %s: %w", path, err)
	}
	return changed, nil
}

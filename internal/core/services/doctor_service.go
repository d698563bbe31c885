package services

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/pxvault/px/internal/core/ports"
	"github.com/pxvault/px/pkg/metadata"
)

// DoctorService verifies the health of every indexed asset: the file
// still exists, its container parses, and its metadata carries no
// corruption warnings
type DoctorService struct {
	store ports.MetadataStore
	index ports.Index
}

// NewDoctorService creates a new doctor service
func NewDoctorService(store ports.MetadataStore, index ports.Index) *DoctorService {
	return &DoctorService{store: store, index: index}
}

// IssueKind classifies a doctor finding
type IssueKind string

const (
	IssueMissing     IssueKind = "missing"
	IssueCorrupt     IssueKind = "corrupt"
	IssueWarning     IssueKind = "warning"
	IssueStale       IssueKind = "stale"
	IssueUnsupported IssueKind = "unsupported"
)

// Issue is one problem found with one asset
type Issue struct {
	Path   string
	Kind   IssueKind
	Detail string
}

// DoctorResponse represents the findings of a health check
type DoctorResponse struct {
	Checked int
	Healthy int
	Issues  []Issue
}

// Execute checks every indexed asset
func (s *DoctorService) Execute(ctx context.Context) (*DoctorResponse, error) {
	headers, err := s.index.ListHeaders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}

	resp := &DoctorResponse{Checked: len(headers)}

	for _, h := range headers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		issues := s.checkOne(h.Path, h.Checksum)
		if len(issues) == 0 {
			resp.Healthy++
		}
		resp.Issues = append(resp.Issues, issues...)
	}

	return resp, nil
}

func (s *DoctorService) checkOne(path, indexedChecksum string) []Issue {
	if _, err := os.Stat(path); err != nil {
		return []Issue{{Path: path, Kind: IssueMissing, Detail: "file no longer exists"}}
	}

	res, err := s.store.Read(path)
	if err != nil {
		switch {
		case metadata.IsCorrupt(err):
			return []Issue{{Path: path, Kind: IssueCorrupt, Detail: err.Error()}}
		case errors.Is(err, metadata.ErrUnsupportedFormat):
			return []Issue{{Path: path, Kind: IssueUnsupported, Detail: err.Error()}}
		default:
			return []Issue{{Path: path, Kind: IssueMissing, Detail: err.Error()}}
		}
	}

	var issues []Issue
	for _, w := range res.Warnings {
		issues = append(issues, Issue{Path: path, Kind: IssueWarning, Detail: w})
	}
	if res.Checksum != indexedChecksum {
		issues = append(issues, Issue{Path: path, Kind: IssueStale, Detail: "file changed since last scan"})
	}
	return issues
}

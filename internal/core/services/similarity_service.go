package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/pxvault/px/internal/core/domain"
	"github.com/pxvault/px/internal/core/ports"
)

// SimilarityService finds visually similar assets using the perceptual
// hashes cached in the index
type SimilarityService struct {
	index    ports.Index
	hashKind domain.HashKind
}

// NewSimilarityService creates a new similarity service
func NewSimilarityService(index ports.Index, hashKind domain.HashKind) *SimilarityService {
	return &SimilarityService{index: index, hashKind: hashKind}
}

// GroupsRequest represents a request for duplicate groups
type GroupsRequest struct {
	// Threshold is the minimum similarity, 0..1
	Threshold float64
}

// Group is one cluster of mutually similar assets
type Group struct {
	Paths []string
}

// GroupsResponse represents the duplicate groups found
type GroupsResponse struct {
	Groups []Group
	// Hashed is how many assets had a hash to compare
	Hashed int
}

// Execute clusters all hashed assets into similarity groups. Grouping is
// greedy: each unclaimed asset seeds a group and pulls in every other
// unclaimed asset within the threshold.
func (s *SimilarityService) Execute(ctx context.Context, req GroupsRequest) (*GroupsResponse, error) {
	hashes, err := s.loadHashes(ctx)
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(hashes))
	for p := range hashes {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	claimed := make(map[string]bool, len(paths))
	resp := &GroupsResponse{Hashed: len(paths)}

	for i, seed := range paths {
		if claimed[seed] {
			continue
		}
		group := Group{Paths: []string{seed}}
		for _, other := range paths[i+1:] {
			if claimed[other] {
				continue
			}
			if hashes[seed].Similarity(hashes[other]) >= req.Threshold {
				group.Paths = append(group.Paths, other)
				claimed[other] = true
			}
		}
		if len(group.Paths) > 1 {
			claimed[seed] = true
			resp.Groups = append(resp.Groups, group)
		}
	}

	return resp, nil
}

// SimilarRequest represents a request for assets similar to one path
type SimilarRequest struct {
	Path      string
	Threshold float64
	Limit     int // 0 = unlimited
}

// SimilarMatch is one similar asset with its score
type SimilarMatch struct {
	Path       string
	Similarity float64
}

// SimilarResponse represents assets similar to the requested one
type SimilarResponse struct {
	Matches []SimilarMatch
}

// Similar ranks every other hashed asset by similarity to path
func (s *SimilarityService) Similar(ctx context.Context, req SimilarRequest) (*SimilarResponse, error) {
	hashes, err := s.loadHashes(ctx)
	if err != nil {
		return nil, err
	}

	ref, ok := hashes[req.Path]
	if !ok {
		return nil, fmt.Errorf("no perceptual hash for %s; run a scan with hashing enabled", req.Path)
	}

	var matches []SimilarMatch
	for path, h := range hashes {
		if path == req.Path {
			continue
		}
		if sim := ref.Similarity(h); sim >= req.Threshold {
			matches = append(matches, SimilarMatch{Path: path, Similarity: sim})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].Path < matches[j].Path
	})
	if req.Limit > 0 && len(matches) > req.Limit {
		matches = matches[:req.Limit]
	}

	return &SimilarResponse{Matches: matches}, nil
}

func (s *SimilarityService) loadHashes(ctx context.Context) (map[string]domain.Hash, error) {
	raw, err := s.index.Hashes(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading hashes: %w", err)
	}

	hashes := make(map[string]domain.Hash, len(raw))
	for path, hexHash := range raw {
		h, err := domain.ParseHash(hexHash, s.hashKind)
		if err != nil {
			// A malformed hash row is stale index data, not a fatal error
			continue
		}
		hashes[path] = h
	}
	return hashes, nil
}

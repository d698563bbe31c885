package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/pxvault/px/internal/core/ports"
)

// StatsService aggregates library-wide statistics from the index
type StatsService struct {
	index ports.Index
}

// NewStatsService creates a new stats service
func NewStatsService(index ports.Index) *StatsService {
	return &StatsService{index: index}
}

// NameCount is one label with its usage count
type NameCount struct {
	Name  string
	Count int
}

// StatsResponse represents aggregated library statistics
type StatsResponse struct {
	TotalAssets    int
	TotalSizeBytes int64
	Tagged         int
	Rated          int
	WithGeneration int

	// RatingHistogram[r] is the number of assets rated r, 0 through 5
	RatingHistogram [6]int

	Tags    []NameCount // sorted by count descending
	Models  []NameCount
	Formats []NameCount
}

// Execute computes statistics over the whole index
func (s *StatsService) Execute(ctx context.Context) (*StatsResponse, error) {
	headers, err := s.index.ListHeaders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}

	resp := &StatsResponse{TotalAssets: len(headers)}
	tags := make(map[string]int)
	models := make(map[string]int)
	formats := make(map[string]int)

	for _, h := range headers {
		resp.TotalSizeBytes += h.SizeBytes
		resp.RatingHistogram[clampRating(h.Rating)]++

		if len(h.Tags) > 0 {
			resp.Tagged++
		}
		if h.Rating > 0 {
			resp.Rated++
		}
		if h.Model != "" {
			resp.WithGeneration++
			models[h.Model]++
		}
		for _, tag := range h.Tags {
			tags[tag]++
		}
		formats[h.Format]++
	}

	resp.Tags = sortedCounts(tags)
	resp.Models = sortedCounts(models)
	resp.Formats = sortedCounts(formats)
	return resp, nil
}

func clampRating(r int) int {
	if r < 0 {
		return 0
	}
	if r > 5 {
		return 5
	}
	return r
}

func sortedCounts(m map[string]int) []NameCount {
	out := make([]NameCount, 0, len(m))
	for name, count := range m {
		out = append(out, NameCount{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

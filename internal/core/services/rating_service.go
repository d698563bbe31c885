package services

import (
	"context"
	"fmt"

	"github.com/pxvault/px/internal/core/ports"
)

// RatingService sets star ratings on assets
type RatingService struct {
	store ports.MetadataStore
	index ports.Index
}

// NewRatingService creates a new rating service
func NewRatingService(store ports.MetadataStore, index ports.Index) *RatingService {
	return &RatingService{store: store, index: index}
}

// RateRequest represents a request to rate assets
type RateRequest struct {
	Paths  []string
	Rating int // 0 clears the rating
}

// RateResult is the outcome for one path
type RateResult struct {
	Path    string
	Changed bool
	Err     error
}

// RateResponse represents the response from rating
type RateResponse struct {
	Results []RateResult
	Changed int
}

// Execute applies the rating to every path
func (s *RatingService) Execute(ctx context.Context, req RateRequest) (*RateResponse, error) {
	if req.Rating < 0 || req.Rating > 5 {
		return nil, fmt.Errorf("rating must be between 0 and 5, got %d", req.Rating)
	}

	resp := &RateResponse{}
	for _, path := range req.Paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		changed, err := s.rateOne(ctx, path, req.Rating)
		resp.Results = append(resp.Results, RateResult{Path: path, Changed: changed, Err: err})
		if err == nil && changed {
			resp.Changed++
		}
	}
	return resp, nil
}

func (s *RatingService) rateOne(ctx context.Context, path string, rating int) (bool, error) {
	res, err := s.store.Read(path)
	if err != nil {
		return false, err
	}

	record := res.Record
	if record.Rating == rating {
		return false, nil
	}
	record.SetRating(rating)

	if err := s.store.Write(path, record); err != nil {
		return false, err
	}
	if err := refreshIndexRow(ctx, s.store, s.index, path); err != nil {
		return true, fmt.Errorf("updating index for %s: %w", path, err)
	}
	return true, nil
}

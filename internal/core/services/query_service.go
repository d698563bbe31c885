package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/pxvault/px/internal/core/domain"
	"github.com/pxvault/px/internal/core/ports"
)

// QueryService handles listing, filtering and searching indexed assets
type QueryService struct {
	index ports.Index
}

// NewQueryService creates a new query service
func NewQueryService(index ports.Index) *QueryService {
	return &QueryService{index: index}
}

// ListRequest represents a request to list assets
type ListRequest struct {
	Tag       string // filter by tag (optional)
	Model     string // filter by generation model substring (optional)
	Format    string // filter by format (optional)
	MinRating int    // keep assets rated at least this (0 = all)
	SortBy    string // "name", "modified", "size", "rating"
	Reverse   bool
	Limit     int // 0 = unlimited
}

// ListResponse represents the response from listing assets
type ListResponse struct {
	Assets []domain.AssetHeader
	Total  int
}

// Execute lists assets with optional filtering and sorting
func (s *QueryService) Execute(ctx context.Context, req ListRequest) (*ListResponse, error) {
	var headers []domain.AssetHeader
	var err error

	if req.Tag != "" {
		headers, err = s.index.FindByTag(ctx, req.Tag)
	} else {
		headers, err = s.index.ListHeaders(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}

	headers = s.filter(headers, req)
	headers = s.sortHeaders(headers, req.SortBy, req.Reverse)

	total := len(headers)
	if req.Limit > 0 && len(headers) > req.Limit {
		headers = headers[:req.Limit]
	}

	return &ListResponse{Assets: headers, Total: total}, nil
}

func (s *QueryService) filter(headers []domain.AssetHeader, req ListRequest) []domain.AssetHeader {
	var filtered []domain.AssetHeader
	for _, h := range headers {
		if req.MinRating > 0 && h.Rating < req.MinRating {
			continue
		}
		if req.Format != "" && h.Format != req.Format {
			continue
		}
		if req.Model != "" && !strings.Contains(strings.ToLower(h.Model), strings.ToLower(req.Model)) {
			continue
		}
		filtered = append(filtered, h)
	}
	return filtered
}

func (s *QueryService) sortHeaders(headers []domain.AssetHeader, sortBy string, reverse bool) []domain.AssetHeader {
	sort.Slice(headers, func(i, j int) bool {
		var less bool
		switch sortBy {
		case "name":
			less = strings.ToLower(headers[i].Name) < strings.ToLower(headers[j].Name)
		case "size":
			less = headers[i].SizeBytes < headers[j].SizeBytes
		case "rating":
			less = headers[i].Rating < headers[j].Rating
		default: // "modified"
			less = headers[i].ModTime.Before(headers[j].ModTime)
		}
		if reverse {
			return !less
		}
		return less
	})
	return headers
}

// SearchRequest represents a search query
type SearchRequest struct {
	Query string
}

// SearchResponse represents search results
type SearchResponse struct {
	Assets []domain.AssetHeader
	Total  int
}

// Search performs fuzzy search over names, tags and models
func (s *QueryService) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	headers, err := s.index.ListHeaders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}

	if strings.TrimSpace(req.Query) == "" {
		return &SearchResponse{Assets: headers, Total: len(headers)}, nil
	}

	matches := s.fuzzySearch(headers, req.Query)
	return &SearchResponse{Assets: matches, Total: len(matches)}, nil
}

// fuzzyMatch represents a scored match
type fuzzyMatch struct {
	header domain.AssetHeader
	score  int
}

// fuzzySearch scores every asset against the query. Filename matches rank
// above tag matches, which rank above model matches.
func (s *QueryService) fuzzySearch(headers []domain.AssetHeader, query string) []domain.AssetHeader {
	query = strings.TrimSpace(query)
	if query == "" {
		return headers
	}

	var matches []fuzzyMatch

	for _, header := range headers {
		if score := fuzzyMatchScore(header.Name, query); score > 0 {
			matches = append(matches, fuzzyMatch{header: header, score: score + 1000})
			continue
		}

		matched := false
		for _, tag := range header.Tags {
			if score := fuzzyMatchScore(tag, query); score > 0 {
				matches = append(matches, fuzzyMatch{header: header, score: score + 500})
				matched = true
				break
			}
		}
		if matched {
			continue
		}

		if score := fuzzyMatchScore(header.Model, query); score > 0 {
			matches = append(matches, fuzzyMatch{header: header, score: score + 200})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	result := make([]domain.AssetHeader, len(matches))
	for i, m := range matches {
		result[i] = m.header
	}
	return result
}

// fuzzyMatchScore calculates a score for fuzzy matching query against text
// Returns 0 if no match, higher scores for better matches
func fuzzyMatchScore(text, query string) int {
	if text == "" || query == "" {
		return 0
	}

	textLower := strings.ToLower(text)
	queryLower := strings.ToLower(query)

	if text == query {
		return 10000
	}
	if textLower == queryLower {
		return 9000
	}

	if strings.Contains(textLower, queryLower) {
		score := 5000
		if strings.HasPrefix(textLower, queryLower) {
			score += 2000
		}
		return score
	}

	// Fuzzy character-by-character matching
	score := 0
	textRunes := []rune(textLower)
	queryRunes := []rune(queryLower)

	queryIdx := 0
	consecutiveMatches := 0
	lastMatchIdx := -1

	for textIdx := 0; textIdx < len(textRunes) && queryIdx < len(queryRunes); textIdx++ {
		if textRunes[textIdx] == queryRunes[queryIdx] {
			score += 100

			if textIdx == lastMatchIdx+1 {
				consecutiveMatches++
				score += consecutiveMatches * 50
			} else {
				consecutiveMatches = 0
			}

			if textIdx == 0 || unicode.IsSpace(textRunes[textIdx-1]) || textRunes[textIdx-1] == '-' || textRunes[textIdx-1] == '_' {
				score += 200
			}
			if textIdx == 0 {
				score += 300
			}

			lastMatchIdx = textIdx
			queryIdx++
		}
	}

	// All query characters must be matched
	if queryIdx != len(queryRunes) {
		return 0
	}

	// Penalty for gaps between matches
	if lastMatchIdx >= 0 {
		matchSpan := lastMatchIdx + 1
		score -= (matchSpan - len(queryRunes)) * 10
	}

	return score
}

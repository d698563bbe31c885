package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/pxvault/px/internal/core/domain"
)

// MockIndex is a mock implementation of the Index interface for testing
type MockIndex struct {
	mu     sync.RWMutex
	assets map[string]domain.Asset
}

// NewMockIndex creates a new mock index
func NewMockIndex() *MockIndex {
	return &MockIndex{
		assets: make(map[string]domain.Asset),
	}
}

// Upsert adds or refreshes an asset row
func (m *MockIndex) Upsert(ctx context.Context, asset domain.Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assets[asset.Header.Path] = asset
	return nil
}

// Get retrieves an indexed asset by path
func (m *MockIndex) Get(ctx context.Context, path string) (*domain.Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	asset, ok := m.assets[path]
	if !ok {
		return nil, fmt.Errorf("asset not indexed: %s", path)
	}
	return &asset, nil
}

// ListHeaders returns all indexed asset headers
func (m *MockIndex) ListHeaders(ctx context.Context) ([]domain.AssetHeader, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	headers := make([]domain.AssetHeader, 0, len(m.assets))
	for _, a := range m.assets {
		headers = append(headers, a.Header)
	}
	return headers, nil
}

// FindByTag returns headers of assets carrying the tag
func (m *MockIndex) FindByTag(ctx context.Context, tag string) ([]domain.AssetHeader, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var headers []domain.AssetHeader
	for _, a := range m.assets {
		if a.Header.HasTag(tag) {
			headers = append(headers, a.Header)
		}
	}
	return headers, nil
}

// Remove deletes the row for path
func (m *MockIndex) Remove(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.assets, path)
	return nil
}

// Prune deletes rows whose path is not in keep
func (m *MockIndex) Prune(ctx context.Context, keep map[string]bool) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for path := range m.assets {
		if !keep[path] {
			delete(m.assets, path)
			removed++
		}
	}
	return removed, nil
}

// Hashes returns path -> perceptual hash for rows that have one
func (m *MockIndex) Hashes(ctx context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string)
	for path, a := range m.assets {
		if a.Header.PHash != "" {
			out[path] = a.Header.PHash
		}
	}
	return out, nil
}

// Count returns the number of indexed assets
func (m *MockIndex) Count(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.assets)), nil
}

package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/pxvault/px/internal/core/domain"
	"github.com/pxvault/px/pkg/metadata"
)

// MockMetadataStore is a mock implementation of the MetadataStore
// interface backed by an in-memory map
type MockMetadataStore struct {
	mu        sync.Mutex
	records   map[string]*domain.Record
	failRead  map[string]error
	failWrite map[string]error
	writes    []string
}

// NewMockMetadataStore creates a new mock metadata store
func NewMockMetadataStore() *MockMetadataStore {
	return &MockMetadataStore{
		records:   make(map[string]*domain.Record),
		failRead:  make(map[string]error),
		failWrite: make(map[string]error),
	}
}

// Seed preloads a record for a path
func (m *MockMetadataStore) Seed(path string, record *domain.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[path] = record.Clone()
}

// FailReadWith makes Read return err for path
func (m *MockMetadataStore) FailReadWith(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failRead[path] = err
}

// FailWriteWith makes Write return err for path
func (m *MockMetadataStore) FailWriteWith(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWrite[path] = err
}

// Read extracts the record for path
func (m *MockMetadataStore) Read(path string) (*metadata.ReadResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.failRead[path]; ok {
		return nil, err
	}
	rec, ok := m.records[path]
	if !ok {
		return &metadata.ReadResult{
			Record:   domain.NewRecord(),
			Absent:   true,
			Checksum: mockChecksum(path),
		}, nil
	}
	return &metadata.ReadResult{
		Record:   rec.Clone(),
		Checksum: mockChecksum(path),
	}, nil
}

// Write stores the record for path
func (m *MockMetadataStore) Write(path string, record *domain.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.failWrite[path]; ok {
		return err
	}
	if !domain.IsWritableFormat(domain.FormatForPath(path)) {
		return metadata.ErrUnsupportedFormat
	}
	m.records[path] = record.Clone()
	m.writes = append(m.writes, path)
	return nil
}

// Merge folds incoming into the stored record
func (m *MockMetadataStore) Merge(path string, incoming *domain.Record, reparse bool) (*domain.Record, error) {
	res, err := m.Read(path)
	if err != nil {
		return nil, err
	}
	merged := domain.Merge(res.Record, incoming, reparse)
	if err := m.Write(path, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// Invalidate is a no-op for the mock
func (m *MockMetadataStore) Invalidate(path string) {}

// Writes returns the paths written, in order
func (m *MockMetadataStore) Writes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.writes))
	copy(out, m.writes)
	return out
}

func mockChecksum(path string) string {
	return fmt.Sprintf("%064x", len(path))
}

// --- MockThumbnailer ---

// MockThumbnailer is a mock implementation of the Thumbnailer interface
type MockThumbnailer struct {
	mu    sync.Mutex
	calls []string
}

// NewMockThumbnailer creates a new mock thumbnailer
func NewMockThumbnailer() *MockThumbnailer {
	return &MockThumbnailer{}
}

// Generate records the call and returns a fake thumbnail path
func (m *MockThumbnailer) Generate(ctx context.Context, path, checksum string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, path)
	return m.Path(checksum), nil
}

// Path returns where the thumbnail for a checksum would live
func (m *MockThumbnailer) Path(checksum string) string {
	return "/fake/thumbs/" + checksum + ".png"
}

// GetCalls returns the source paths passed to Generate
func (m *MockThumbnailer) GetCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]string, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// --- MockFileOpener ---

// MockFileOpener is a mock implementation of the FileOpener interface
type MockFileOpener struct {
	mu     sync.Mutex
	opened []string
}

// NewMockFileOpener creates a new mock file opener
func NewMockFileOpener() *MockFileOpener {
	return &MockFileOpener{}
}

// Open records the path instead of launching anything
func (m *MockFileOpener) Open(ctx context.Context, filepath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opened = append(m.opened, filepath)
	return nil
}

// GetOpened returns the paths passed to Open
func (m *MockFileOpener) GetOpened() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	opened := make([]string, len(m.opened))
	copy(opened, m.opened)
	return opened
}

package metadata

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pxvault/px/internal/core/domain"
)

// Record container keys. Tags, fields and rating live in separate entries
// so corruption of one never takes the others down with it.
const (
	keyTags   = "px:tags"
	keyFields = "px:fields"
	keyRating = "px:rating"
)

// Options configures a Store
type Options struct {
	// GenerationKeys overrides the keys scanned for generation blobs
	GenerationKeys []string
	// RetryDelay is the wait before the single I/O retry
	RetryDelay time.Duration
	// DisableCache turns off the checksum-keyed read cache
	DisableCache bool
}

// Store reads and writes metadata records embedded in image files. All
// operations on the same path are serialized; operations on different
// paths run concurrently.
type Store struct {
	genKeys    []string
	retryDelay time.Duration
	cacheOn    bool

	mu    sync.Mutex
	locks map[string]*sync.Mutex
	cache map[string]*cacheEntry
}

type cacheEntry struct {
	size     int64
	modTime  time.Time
	checksum string
	record   *domain.Record
	absent   bool
	warnings []string
}

// ReadResult is the outcome of reading a file's embedded metadata
type ReadResult struct {
	// Record holds everything that parsed. Never nil on success.
	Record *domain.Record
	// Absent means the file carries no metadata at all, which is not an
	// error: a fresh image is absent, a damaged one is corrupt.
	Absent bool
	// Warnings lists fields that were present but failed to parse
	Warnings []string
	// Checksum is the SHA-256 of the file's bytes, reusable by callers
	Checksum string
}

// NewStore builds a Store with the given options
func NewStore(opts Options) *Store {
	keys := opts.GenerationKeys
	if len(keys) == 0 {
		keys = DefaultGenerationKeys
	}
	delay := opts.RetryDelay
	if delay == 0 {
		delay = 100 * time.Millisecond
	}
	return &Store{
		genKeys:    keys,
		retryDelay: delay,
		cacheOn:    !opts.DisableCache,
		locks:      make(map[string]*sync.Mutex),
		cache:      make(map[string]*cacheEntry),
	}
}

// pathLock returns the mutex serializing operations on path
func (s *Store) pathLock(path string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[path]
	if !ok {
		l = &sync.Mutex{}
		s.locks[path] = l
	}
	return l
}

// Read extracts the metadata record embedded in the image at path.
// Unchanged files are served from the cache without re-parsing.
func (s *Store) Read(path string) (*ReadResult, error) {
	lock := s.pathLock(path)
	lock.Lock()
	defer lock.Unlock()
	return s.readLocked(path)
}

func (s *Store) readLocked(path string) (*ReadResult, error) {
	format := domain.FormatForPath(path)
	if format == "" {
		return nil, ErrUnsupportedFormat
	}

	info, err := s.statWithRetry(path)
	if err != nil {
		return nil, err
	}

	if s.cacheOn {
		if e, ok := s.lookupCache(path); ok && e.size == info.Size() && e.modTime.Equal(info.ModTime()) {
			return &ReadResult{
				Record:   e.record.Clone(),
				Absent:   e.absent,
				Warnings: e.warnings,
				Checksum: e.checksum,
			}, nil
		}
	}

	data, err := s.readWithRetry(path)
	if err != nil {
		return nil, err
	}
	checksum := sha256Hex(data)

	entries, err := s.containerEntries(path, format, data)
	if err != nil {
		return nil, err
	}

	record, warnings := s.recordFromEntries(path, entries)
	absent := record.IsEmpty() && len(warnings) == 0

	if s.cacheOn {
		s.storeCache(path, &cacheEntry{
			size:     info.Size(),
			modTime:  info.ModTime(),
			checksum: checksum,
			record:   record.Clone(),
			absent:   absent,
			warnings: warnings,
		})
	}

	return &ReadResult{
		Record:   record,
		Absent:   absent,
		Warnings: warnings,
		Checksum: checksum,
	}, nil
}

// containerEntries decodes the format's metadata container into key/value
// entries. GIF, BMP and WebP have no container we write, so they always
// read as empty rather than erroring.
func (s *Store) containerEntries(path, format string, data []byte) ([]textEntry, error) {
	switch format {
	case "png":
		chunks, err := decodePNG(data)
		if err != nil {
			return nil, &CorruptMetadataError{Path: path, Field: "container", Err: err}
		}
		return pngTextEntries(chunks), nil
	case "jpeg":
		f, err := decodeJPEG(data)
		if err != nil {
			return nil, &CorruptMetadataError{Path: path, Field: "container", Err: err}
		}
		return f.jpegTextEntries(), nil
	default:
		return nil, nil
	}
}

// recordFromEntries builds a record from raw entries. Each container
// parses independently: a malformed fields blob yields a warning, not a
// failed read.
func (s *Store) recordFromEntries(path string, entries []textEntry) (*domain.Record, []string) {
	record := domain.NewRecord()
	var warnings []string

	byKey := make(map[string]string, len(entries))
	for _, e := range entries {
		byKey[e.key] = e.value
	}

	if raw, ok := byKey[keyTags]; ok {
		for _, tag := range strings.Split(raw, ",") {
			record.AddTag(tag)
		}
	}

	if raw, ok := byKey[keyFields]; ok {
		var fields map[string]string
		if err := json.Unmarshal([]byte(raw), &fields); err != nil {
			warnings = append(warnings, (&CorruptMetadataError{Path: path, Field: keyFields, Err: err}).Error())
		} else {
			record.Fields = fields
		}
	}

	if raw, ok := byKey[keyRating]; ok {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || n < 0 || n > 5 {
			warnings = append(warnings, (&CorruptMetadataError{Path: path, Field: keyRating, Err: fmt.Errorf("invalid rating %q", raw)}).Error())
		} else {
			record.Rating = n
		}
	}

	// First generation key that parses wins; a present-but-broken blob is
	// a warning and the scan continues to the next key
	for _, key := range s.genKeys {
		raw, ok := byKey[key]
		if !ok {
			continue
		}
		gen, err := parseGeneration(key, []byte(raw))
		if err != nil {
			warnings = append(warnings, (&CorruptMetadataError{Path: path, Field: key, Err: err}).Error())
			continue
		}
		record.Generation = gen
		break
	}

	return record, warnings
}

// Write embeds record into the image at path. The write is atomic: a
// temp file in the same directory is written, fsynced, re-read and
// verified, then renamed over the original. On any failure the original
// file is untouched.
func (s *Store) Write(path string, record *domain.Record) error {
	lock := s.pathLock(path)
	lock.Lock()
	defer lock.Unlock()
	return s.writeLocked(path, record)
}

func (s *Store) writeLocked(path string, record *domain.Record) error {
	format := domain.FormatForPath(path)
	if format == "" || !domain.IsWritableFormat(format) {
		return ErrUnsupportedFormat
	}
	if record == nil {
		record = domain.NewRecord()
	}

	original, err := s.readWithRetry(path)
	if err != nil {
		return err
	}

	updated, wantStructural, err := s.rewriteContainer(path, format, original, record)
	if err != nil {
		return err
	}

	tmp, err := s.writeTempWithRetry(path, updated)
	if err != nil {
		return err
	}

	if err := s.verifyTemp(tmp, format, record, wantStructural); err != nil {
		os.Remove(tmp)
		return err
	}

	if err := s.renameWithRetry(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}

	s.invalidate(path)
	return nil
}

// rewriteContainer produces the updated file bytes plus the structural
// bytes the temp file must match during verification
func (s *Store) rewriteContainer(path, format string, original []byte, record *domain.Record) ([]byte, []byte, error) {
	remove, add := s.recordEntries(record)

	switch format {
	case "png":
		chunks, err := decodePNG(original)
		if err != nil {
			return nil, nil, &CorruptMetadataError{Path: path, Field: "container", Err: err}
		}
		updated := pngSetText(chunks, remove, add)
		return encodePNG(updated), pngStructuralBytes(chunks), nil
	case "jpeg":
		f, err := decodeJPEG(original)
		if err != nil {
			return nil, nil, &CorruptMetadataError{Path: path, Field: "container", Err: err}
		}
		structural := f.jpegStructuralBytes()
		f.jpegSetText(remove, add)
		return f.encodeJPEG(), structural, nil
	default:
		return nil, nil, ErrUnsupportedFormat
	}
}

// recordEntries maps a record onto container entries. Only our own keys
// plus the record's generation source key are replaced; a corrupt or
// foreign generation blob the record doesn't carry stays in the file.
func (s *Store) recordEntries(record *domain.Record) (map[string]bool, []textEntry) {
	remove := map[string]bool{keyTags: true, keyFields: true, keyRating: true}

	var add []textEntry
	if len(record.Tags) > 0 {
		add = append(add, textEntry{key: keyTags, value: strings.Join(record.SortedTags(), ",")})
	}
	if len(record.Fields) > 0 {
		blob, _ := json.Marshal(record.Fields)
		add = append(add, textEntry{key: keyFields, value: string(blob)})
	}
	if record.Rating > 0 {
		add = append(add, textEntry{key: keyRating, value: strconv.Itoa(record.Rating)})
	}
	if record.Generation != nil && record.Generation.SourceKey != "" {
		remove[record.Generation.SourceKey] = true
		add = append(add, textEntry{key: record.Generation.SourceKey, value: string(record.Generation.Raw)})
	}

	return remove, add
}

// verifyTemp re-reads the temp file and checks both that the record
// round-trips and that the image's structural bytes are unchanged
func (s *Store) verifyTemp(tmp, format string, want *domain.Record, wantStructural []byte) error {
	data, err := os.ReadFile(tmp)
	if err != nil {
		return &IOError{Path: tmp, Op: "verify", Err: err}
	}

	var entries []textEntry
	var structural []byte
	switch format {
	case "png":
		chunks, err := decodePNG(data)
		if err != nil {
			return &WriteVerificationError{Path: tmp, Reason: fmt.Sprintf("temp file unreadable: %v", err)}
		}
		entries = pngTextEntries(chunks)
		structural = pngStructuralBytes(chunks)
	case "jpeg":
		f, err := decodeJPEG(data)
		if err != nil {
			return &WriteVerificationError{Path: tmp, Reason: fmt.Sprintf("temp file unreadable: %v", err)}
		}
		entries = f.jpegTextEntries()
		structural = f.jpegStructuralBytes()
	}

	if !bytes.Equal(structural, wantStructural) {
		return &WriteVerificationError{Path: tmp, Reason: "image data changed"}
	}

	got, _ := s.recordFromEntries(tmp, entries)
	if !got.Equal(want) {
		return &WriteVerificationError{Path: tmp, Reason: "record did not round-trip"}
	}

	return nil
}

// Merge reads the record at path, merges incoming into it and writes the
// result back, all under the path's lock. Tags union, fields last-write-
// wins, generation untouched unless reparse.
func (s *Store) Merge(path string, incoming *domain.Record, reparse bool) (*domain.Record, error) {
	lock := s.pathLock(path)
	lock.Lock()
	defer lock.Unlock()

	existing, err := s.readLocked(path)
	if err != nil {
		return nil, err
	}

	merged := domain.Merge(existing.Record, incoming, reparse)
	if err := s.writeLocked(path, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// Invalidate drops the cached record for path
func (s *Store) Invalidate(path string) {
	lock := s.pathLock(path)
	lock.Lock()
	defer lock.Unlock()
	s.invalidate(path)
}

func (s *Store) invalidate(path string) {
	s.mu.Lock()
	delete(s.cache, path)
	s.mu.Unlock()
}

// CacheSize reports how many paths are cached
func (s *Store) CacheSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cache)
}

func (s *Store) lookupCache(path string) (*cacheEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.cache[path]
	return e, ok
}

func (s *Store) storeCache(path string, e *cacheEntry) {
	s.mu.Lock()
	s.cache[path] = e
	s.mu.Unlock()
}

// retry wraps an operation in the single-retry policy: transient
// filesystem hiccups get one more chance after a short delay
func (s *Store) retry(op, path string, fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}
	time.Sleep(s.retryDelay)
	if err = fn(); err != nil {
		return &IOError{Path: path, Op: op, Err: err}
	}
	return nil
}

func (s *Store) statWithRetry(path string) (os.FileInfo, error) {
	var info os.FileInfo
	err := s.retry("stat", path, func() error {
		var err error
		info, err = os.Stat(path)
		return err
	})
	return info, err
}

func (s *Store) readWithRetry(path string) ([]byte, error) {
	var data []byte
	err := s.retry("read", path, func() error {
		var err error
		data, err = os.ReadFile(path)
		return err
	})
	return data, err
}

func (s *Store) writeTempWithRetry(path string, data []byte) (string, error) {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	var tmp string

	err := s.retry("write", path, func() error {
		f, err := os.CreateTemp(dir, "."+base+".px-*")
		if err != nil {
			return err
		}
		tmp = f.Name()
		if _, err := f.Write(data); err != nil {
			f.Close()
			os.Remove(tmp)
			return err
		}
		if err := f.Sync(); err != nil {
			f.Close()
			os.Remove(tmp)
			return err
		}
		return f.Close()
	})
	if err != nil {
		return "", err
	}
	return tmp, nil
}

func (s *Store) renameWithRetry(tmp, path string) error {
	return s.retry("rename", path, func() error {
		return os.Rename(tmp, path)
	})
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ChecksumFile computes the SHA-256 of a file on disk
func ChecksumFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &IOError{Path: path, Op: "checksum", Err: err}
	}
	return sha256Hex(data), nil
}

// GenerationKeys returns the store's generation key lookup order
func (s *Store) GenerationKeys() []string {
	return append([]string(nil), s.genKeys...)
}

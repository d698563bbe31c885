package metadata

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat is returned when a file's format has no metadata
// container we can work with. Callers should skip the file and log.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// IOError wraps a filesystem failure that persisted after the retry
type IOError struct {
	Path string
	Op   string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// CorruptMetadataError reports a field that failed to parse. When scoped to
// a single field it is surfaced as a warning alongside the fields that did
// parse; when the whole container is unreadable it is returned as the error.
type CorruptMetadataError struct {
	Path  string
	Field string
	Err   error
}

func (e *CorruptMetadataError) Error() string {
	return fmt.Sprintf("corrupt metadata in %s (field %s): %v", e.Path, e.Field, e.Err)
}

func (e *CorruptMetadataError) Unwrap() error {
	return e.Err
}

// WriteVerificationError means the temp file failed its verifying re-read.
// The temp file has been discarded and the original is untouched.
type WriteVerificationError struct {
	Path   string
	Reason string
}

func (e *WriteVerificationError) Error() string {
	return fmt.Sprintf("write verification failed for %s: %s", e.Path, e.Reason)
}

// IsCorrupt reports whether err is a metadata corruption error
func IsCorrupt(err error) bool {
	var ce *CorruptMetadataError
	return errors.As(err, &ce)
}

// IsIOFailure reports whether err is a retried-and-failed filesystem error
func IsIOFailure(err error) bool {
	var ioe *IOError
	return errors.As(err, &ioe)
}

package wad

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrUnsupported is returned by Listing for every mutator and data accessor.
	ErrUnsupported = errors.New("wad: unsupported operation")

	// ErrIndexOutOfRange is matched by every IndexError.
	ErrIndexOutOfRange = errors.New("wad: index out of range")

	// ErrNotFound is returned when no entry carries the requested name.
	ErrNotFound = errors.New("wad: entry not found")

	// ErrClosed is returned when a File is used after Close.
	ErrClosed = errors.New("wad: archive closed")
)

// FormatError reports an archive whose header or directory cannot be read.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "wad: bad archive: " + e.Reason
}

func formatErrorf(format string, args ...any) error {
	return &FormatError{Reason: fmt.Sprintf(format, args...)}
}

// IndexError reports an index outside the directory.
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("wad: index %d out of range [0,%d)", e.Index, e.Len)
}

func (e *IndexError) Is(target error) bool {
	return target == ErrIndexOutOfRange
}

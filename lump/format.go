// Package lump encodes and decodes the binary structures stored inside WAD
// lumps: pictures, blockmaps, reject tables, linedefs and things.
//
// Several structures exist in more than one byte layout. The original Doom
// layout is the baseline; Hexen and Strife each changed some of them. Every
// structure declares the formats it supports and checks, before writing a
// single byte, that its in-memory value survives the chosen layout. Values that
// do not survive make Encode fail with a *LossyExportError.
package lump

import (
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// Format is a binary map format.
type Format int

const (
	Doom   Format = iota // baseline layout
	Hexen                // adds thing IDs, heights, action specials with arguments
	Strife               // Doom layout with Strife flag bits
)

func (f Format) String() string {
	switch f {
	case Doom:
		return "Doom"
	case Hexen:
		return "Hexen"
	case Strife:
		return "Strife"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// FormatSet is the set of formats a structure can be written in.
type FormatSet uint8

// NewFormatSet returns the set holding formats.
func NewFormatSet(formats ...Format) FormatSet {
	var s FormatSet
	for _, f := range formats {
		s |= 1 << uint(f)
	}
	return s
}

// AllFormats holds every format.
var AllFormats = NewFormatSet(Doom, Hexen, Strife)

// Has reports whether f is in the set.
func (s FormatSet) Has(f Format) bool {
	return f >= 0 && f < 8 && s&(1<<uint(f)) != 0
}

var (
	// ErrLossyExport is matched by every LossyExportError.
	ErrLossyExport = errors.New("lump: lossy export")

	// ErrTruncated is returned when input is shorter than it claims to be.
	ErrTruncated = errors.New("lump: truncated data")

	// ErrTooLarge is returned when a header asks for more memory than any
	// real lump of its kind needs.
	ErrTooLarge = errors.New("lump: dimensions too large")
)

// LossyExportError reports a field whose value cannot be written in Format.
type LossyExportError struct {
	Format Format
	Field  string
	Reason string
}

func (e *LossyExportError) Error() string {
	return fmt.Sprintf("lump: cannot export %s in %v format: %s", e.Field, e.Format, e.Reason)
}

func (e *LossyExportError) Is(target error) bool {
	return target == ErrLossyExport
}

// Codec is implemented by every structure with a binary layout.
type Codec interface {
	// Formats returns the formats the structure can be written in.
	Formats() FormatSet
	// Check returns a *LossyExportError if the value cannot be written in f.
	Check(f Format) error
	// Encode checks the value and returns its bytes in layout f.
	Encode(f Format) ([]byte, error)
	// Decode replaces the value with the one stored in data.
	Decode(f Format, data []byte) error
}

// Record is a Codec with a fixed size per format. Lumps such as LINEDEFS and
// THINGS are plain arrays of records.
type Record interface {
	Codec
	Size(f Format) int
}

// Compatible reports whether c can be written in f without loss.
func Compatible(c Codec, f Format) bool {
	return c.Formats().Has(f) && c.Check(f) == nil
}

// EncodeList encodes items back to back. Nothing is returned if any item
// fails its check; the error names the offending index.
func EncodeList[T any, PT interface {
	*T
	Record
}](f Format, items []T) ([]byte, error) {
	var zero T
	data := make([]byte, 0, len(items)*PT(&zero).Size(f))
	for i := range items {
		b, err := PT(&items[i]).Encode(f)
		if err != nil {
			return nil, errors.Wrapf(err, "record %d", i)
		}
		data = append(data, b...)
	}
	return data, nil
}

// DecodeList decodes a lump holding an array of records.
func DecodeList[T any, PT interface {
	*T
	Record
}](f Format, data []byte) ([]T, error) {
	var zero T
	size := PT(&zero).Size(f)
	if size == 0 {
		return nil, errors.Errorf("lump: %T has no %v layout", zero, f)
	}
	if len(data)%size != 0 {
		return nil, errors.Wrapf(ErrTruncated, "%d bytes is not a multiple of %d", len(data), size)
	}
	items := make([]T, len(data)/size)
	for i := range items {
		if err := PT(&items[i]).Decode(f, data[i*size:(i+1)*size]); err != nil {
			return nil, errors.Wrapf(err, "record %d", i)
		}
	}
	return items, nil
}

// checker collects the first lossy field of a value.
type checker struct {
	format Format
	err    error
}

func newChecker(f Format, supported FormatSet) *checker {
	c := &checker{format: f}
	if !supported.Has(f) {
		c.fail("format", "not supported by this structure")
	}
	return c
}

func (c *checker) fail(field, format string, args ...any) {
	if c.err == nil {
		c.err = &LossyExportError{Format: c.format, Field: field, Reason: fmt.Sprintf(format, args...)}
	}
}

// zero fails unless v equals its zero value.
func zero[T comparable](c *checker, field string, v T) {
	var z T
	if v != z {
		c.fail(field, "value %v has no field in this layout and must be zero", v)
	}
}

// inRange fails unless lo <= v <= hi.
func inRange[T constraints.Integer](c *checker, field string, v, lo, hi T) {
	if v < lo || v > hi {
		c.fail(field, "value %d outside [%d, %d]", v, lo, hi)
	}
}

// clampTo limits v to [lo, hi].
func clampTo[T constraints.Integer](v, lo, hi T) T {
	return min(max(v, lo), hi)
}

func requireLen(data []byte, n int, what string) error {
	if len(data) != n {
		return errors.Wrapf(ErrTruncated, "%s is %d bytes, want %d", what, len(data), n)
	}
	return nil
}

package wad

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// directory holds the ordered entry list and answers every lookup. The
// backends embed it and add data access on top.
type directory struct {
	kind    Kind
	entries []Entry
}

// Kind returns the header tag kind.
func (d *directory) Kind() Kind {
	return d.kind
}

// Len returns the number of entries.
func (d *directory) Len() int {
	return len(d.entries)
}

// Entries returns a copy of the directory.
func (d *directory) Entries() []Entry {
	return append([]Entry(nil), d.entries...)
}

// EntryAt returns the entry at index i.
func (d *directory) EntryAt(i int) (Entry, error) {
	if err := d.checkIndex(i); err != nil {
		return Entry{}, err
	}
	return d.entries[i], nil
}

func (d *directory) checkIndex(i int) error {
	if i < 0 || i >= len(d.entries) {
		return &IndexError{Index: i, Len: len(d.entries)}
	}
	return nil
}

// EntryNamed returns the first entry called name at or after index from.
func (d *directory) EntryNamed(name string, from int) (Entry, bool) {
	i := d.IndexOf(name, from)
	if i < 0 {
		return Entry{}, false
	}
	return d.entries[i], true
}

// LastEntryNamed returns the last entry called name.
func (d *directory) LastEntryNamed(name string) (Entry, bool) {
	i := d.LastIndexOf(name)
	if i < 0 {
		return Entry{}, false
	}
	return d.entries[i], true
}

// NthEntryNamed returns the n-th (zero based) entry called name.
func (d *directory) NthEntryNamed(name string, n int) (Entry, bool) {
	if n < 0 {
		return Entry{}, false
	}
	name = CoerceName(name)
	for _, e := range d.entries {
		if !sameName(e.Name, name) {
			continue
		}
		if n == 0 {
			return e, true
		}
		n--
	}
	return Entry{}, false
}

// EntriesNamed returns every entry called name in directory order.
func (d *directory) EntriesNamed(name string) []Entry {
	name = CoerceName(name)
	var result []Entry
	for _, e := range d.entries {
		if sameName(e.Name, name) {
			result = append(result, e)
		}
	}
	return result
}

// IndexOf returns the index of the first entry called name at or after from, or -1.
func (d *directory) IndexOf(name string, from int) int {
	name = CoerceName(name)
	for i := max(from, 0); i < len(d.entries); i++ {
		if sameName(d.entries[i].Name, name) {
			return i
		}
	}
	return -1
}

// LastIndexOf returns the index of the last entry called name, or -1.
func (d *directory) LastIndexOf(name string) int {
	name = CoerceName(name)
	for i := len(d.entries) - 1; i >= 0; i-- {
		if sameName(d.entries[i].Name, name) {
			return i
		}
	}
	return -1
}

// MapRange returns up to count entries starting at start. It never fails: the
// range is clamped to what the directory holds.
func (d *directory) MapRange(start, count int) []Entry {
	start = clamp(start, 0, len(d.entries))
	end := start + clamp(count, 0, len(d.entries)-start)
	return append([]Entry(nil), d.entries[start:end]...)
}

// layout recomputes every offset from the sizes, packing the data region in
// directory order right after the header. Markers get the position they would
// be appended at. It returns the end of the data region.
func layout(entries []Entry) int {
	pos := headerSize
	for i := range entries {
		entries[i].Offset = pos
		pos += entries[i].Size
	}
	return pos
}

// contiguous reports whether entries already match layout. Marker offsets are
// never dereferenced and are ignored.
func contiguous(entries []Entry) bool {
	pos := headerSize
	for _, e := range entries {
		if e.Size > 0 && e.Offset != pos {
			return false
		}
		pos += e.Size
	}
	return true
}

// isPacked reports whether entries are contiguous and fill the data region up
// to end without dead space.
func isPacked(entries []Entry, end int) bool {
	return contiguous(entries) && position(entries, len(entries)) == end
}

// dataEnd returns the end of the data region described by entries.
func dataEnd(entries []Entry) int {
	end := headerSize
	for _, e := range entries {
		if e.Size > 0 {
			end = max(end, e.end())
		}
	}
	return end
}

// readDirectory reads and validates the header and directory of an archive of
// the given size.
func readDirectory(r io.ReaderAt, size int64) (Kind, []Entry, error) {
	logger.Println("Reading directory ...")
	if size < headerSize {
		return 0, nil, formatErrorf("truncated header: %d bytes", size)
	}

	var header binHeader
	if err := binary.Read(io.NewSectionReader(r, 0, headerSize), binary.LittleEndian, &header); err != nil {
		return 0, nil, errors.Wrap(err, "read header")
	}
	tag := string(header.Magic[:])
	if tag != IWAD.String() && tag != PWAD.String() {
		return 0, nil, formatErrorf("bad magic: %q", tag)
	}
	kind, _ := ParseKind(tag)

	count := int64(header.NumLumps)
	dirOffset := int64(header.InfoTableOfs)
	if count > 0 && dirOffset < headerSize {
		return 0, nil, formatErrorf("directory at %d overlaps header", dirOffset)
	}
	if dirOffset+count*recordSize > size {
		return 0, nil, formatErrorf("truncated directory: %d records at %d, file is %d bytes", count, dirOffset, size)
	}

	records := make([]binLumpInfo, count)
	reader := io.NewSectionReader(r, dirOffset, count*recordSize)
	if err := binary.Read(reader, binary.LittleEndian, records); err != nil {
		return 0, nil, errors.Wrap(err, "read directory")
	}

	entries := make([]Entry, count)
	for i, rec := range records {
		e := Entry{Name: rec.Name.String(), Offset: int(rec.Filepos), Size: int(rec.Size)}
		if e.Size > 0 && (e.Offset < headerSize || int64(e.end()) > size) {
			return 0, nil, formatErrorf("entry %d (%s) spans [%d,%d) outside data region", i, e.Name, e.Offset, e.end())
		}
		entries[i] = e
	}
	logger.Printf("Read %v entries", len(entries))
	return kind, entries, nil
}

// marshalDirectory encodes the directory records.
func marshalDirectory(entries []Entry) ([]byte, error) {
	records := make([]binLumpInfo, len(entries))
	for i, e := range entries {
		if !fitsUint32(e.Offset) || !fitsUint32(e.Size) {
			return nil, errors.Errorf("wad: entry %d (%s) exceeds 4 GiB addressing", i, e.Name)
		}
		records[i] = binLumpInfo{Filepos: uint32(e.Offset), Size: uint32(e.Size), Name: newString8(e.Name)}
	}
	var buf bytes.Buffer
	buf.Grow(len(records) * recordSize)
	if err := binary.Write(&buf, binary.LittleEndian, records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// marshalHeader encodes the 12 byte header.
func marshalHeader(kind Kind, count, dirOffset int) ([]byte, error) {
	if !fitsUint32(count) || !fitsUint32(dirOffset) {
		return nil, errors.New("wad: directory exceeds 4 GiB addressing")
	}
	header := binHeader{NumLumps: uint32(count), InfoTableOfs: uint32(dirOffset)}
	copy(header.Magic[:], kind.String())
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, &header); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// prepareEntries coerces names and validates a caller supplied directory
// against a data region ending at end.
func prepareEntries(entries []Entry, end int) ([]Entry, error) {
	result := make([]Entry, len(entries))
	for i, e := range entries {
		if e.Size < 0 || (e.Size > 0 && (e.Offset < headerSize || e.end() > end)) {
			return nil, formatErrorf("entry %d (%s) spans [%d,%d) outside data region", i, e.Name, e.Offset, e.end())
		}
		e.Name = CoerceName(e.Name)
		result[i] = e
	}
	return result, nil
}

func fitsUint32[T constraints.Integer](n T) bool {
	return n >= 0 && uint64(n) <= math.MaxUint32
}

func clamp[T constraints.Ordered](v, lo, hi T) T {
	return min(max(v, lo), hi)
}

package wad

import (
	"bytes"
	"io"
	"os"
	"slices"

	"github.com/pkg/errors"
)

// Buffer is an archive held entirely in memory. Nothing is written anywhere
// until WriteTo, Bytes or Save is called. The data region is always kept in
// directory order, so entry offsets are exactly what Save will write.
type Buffer struct {
	directory
	data []byte // data region, data[0] is file offset headerSize
}

// NewBuffer returns an empty in-memory archive.
func NewBuffer(kind Kind) *Buffer {
	return &Buffer{directory: directory{kind: kind}}
}

// ReadBuffer reads a complete archive from r. Every payload is copied into one
// buffer, packed in directory order.
func ReadBuffer(r io.Reader) (*Buffer, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read archive")
	}
	kind, entries, err := readDirectory(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, err
	}

	b := NewBuffer(kind)
	b.data = make([]byte, 0, position(entries, len(entries))-headerSize)
	for _, e := range entries {
		if e.Size > 0 {
			b.data = append(b.data, raw[e.Offset:e.end()]...)
		}
	}
	b.entries = entries
	layout(b.entries)
	logger.Printf("Buffered %v entries, %v bytes", len(b.entries), len(b.data))
	return b, nil
}

// OpenBuffer reads the archive at path into memory.
func OpenBuffer(path string) (*Buffer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadBuffer(file)
}

// SetKind changes the header tag written on the next save.
func (b *Buffer) SetKind(kind Kind) {
	b.kind = kind
}

// Data returns a copy of the payload of entry i.
func (b *Buffer) Data(i int) ([]byte, error) {
	if err := b.checkIndex(i); err != nil {
		return nil, err
	}
	return b.DataOf(b.entries[i])
}

// DataNamed returns a copy of the payload of the first entry called name.
func (b *Buffer) DataNamed(name string) ([]byte, error) {
	i := b.IndexOf(name, 0)
	if i < 0 {
		return nil, errors.Wrap(ErrNotFound, CoerceName(name))
	}
	return b.Data(i)
}

// DataOf returns a copy of the byte range described by e.
func (b *Buffer) DataOf(e Entry) ([]byte, error) {
	if e.Size == 0 {
		return []byte{}, nil
	}
	start := e.Offset - headerSize
	if start < 0 || e.Size < 0 || start+e.Size > len(b.data) {
		return nil, errors.Errorf("wad: lump %s [%d,%d) outside buffer", e.Name, e.Offset, e.end())
	}
	return bytes.Clone(b.data[start : start+e.Size]), nil
}

// Append adds an entry at the end of the directory.
func (b *Buffer) Append(name string, data []byte) error {
	return b.InsertAt(len(b.entries), name, data)
}

// AppendMarker adds a zero length entry at the end of the directory.
func (b *Buffer) AppendMarker(name string) error {
	return b.InsertAt(len(b.entries), name, nil)
}

// InsertAt inserts an entry before index i. i may equal Len to append.
func (b *Buffer) InsertAt(i int, name string, data []byte) error {
	if i < 0 || i > len(b.entries) {
		return &IndexError{Index: i, Len: len(b.entries)}
	}
	at := position(b.entries, i) - headerSize
	b.data = slices.Insert(b.data, at, data...)
	b.entries = slices.Insert(b.entries, i, Entry{Name: CoerceName(name), Size: len(data)})
	layout(b.entries)
	return nil
}

// ReplaceAt replaces the payload of entry i in place, keeping its name. Every
// later entry moves by the size difference.
func (b *Buffer) ReplaceAt(i int, data []byte) error {
	if err := b.checkIndex(i); err != nil {
		return err
	}
	at := position(b.entries, i) - headerSize
	b.data = slices.Replace(b.data, at, at+b.entries[i].Size, data...)
	b.entries[i].Size = len(data)
	layout(b.entries)
	return nil
}

// RenameAt changes the name of entry i.
func (b *Buffer) RenameAt(i int, name string) error {
	if err := b.checkIndex(i); err != nil {
		return err
	}
	b.entries[i].Name = CoerceName(name)
	return nil
}

// DeleteAt removes entry i and its payload.
func (b *Buffer) DeleteAt(i int) error {
	if err := b.checkIndex(i); err != nil {
		return err
	}
	at := position(b.entries, i) - headerSize
	b.data = slices.Delete(b.data, at, at+b.entries[i].Size)
	b.entries = slices.Delete(b.entries, i, i+1)
	layout(b.entries)
	return nil
}

// ReplaceDirectory swaps the whole directory. The entries must describe byte
// ranges of the current data region. The region is then rebuilt in the new
// directory order, so returned offsets differ from the ones passed in.
func (b *Buffer) ReplaceDirectory(entries []Entry) error {
	prepared, err := prepareEntries(entries, headerSize+len(b.data))
	if err != nil {
		return err
	}
	data := make([]byte, 0, position(prepared, len(prepared))-headerSize)
	for _, e := range prepared {
		if e.Size > 0 {
			data = append(data, b.data[e.Offset-headerSize:e.end()-headerSize]...)
		}
	}
	layout(prepared)
	b.entries = prepared
	b.data = data
	return nil
}

// WriteTo serializes the archive: header, data region, directory.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	n, _, err := writeArchive(w, b.kind, pendingFrom(b.entries), func(p pending, w io.Writer) error {
		start := p.Offset - headerSize
		_, err := w.Write(b.data[start : start+p.Size])
		return err
	})
	return n, err
}

// Bytes returns the serialized archive.
func (b *Buffer) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(headerSize + len(b.data) + len(b.entries)*recordSize)
	if _, err := b.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the archive to path through a temporary file.
func (b *Buffer) Save(path string) error {
	logger.Printf("Saving %v entries to %v", len(b.entries), path)
	return writeAtomically(path, 0o644, func(w io.Writer) error {
		_, err := b.WriteTo(w)
		return err
	})
}

// Close is a no-op; a Buffer holds no external resources.
func (b *Buffer) Close() error {
	return nil
}

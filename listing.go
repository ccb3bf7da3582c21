package wad

import (
	"io"
	"os"
)

// Listing is a read-only view of an archive's directory. It keeps no handle on
// the byte source, which makes it cheap for indexing large archives. Every data
// accessor and mutator returns ErrUnsupported. A Listing is safe to share
// between goroutines.
type Listing struct {
	directory
}

// ReadListing reads the header and directory of an archive of the given size.
func ReadListing(r io.ReaderAt, size int64) (*Listing, error) {
	kind, entries, err := readDirectory(r, size)
	if err != nil {
		return nil, err
	}
	return &Listing{directory{kind: kind, entries: entries}}, nil
}

// OpenListing reads the directory of the archive at path and closes the file.
func OpenListing(path string) (*Listing, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	return ReadListing(file, info.Size())
}

func (l *Listing) Data(int) ([]byte, error) { return nil, ErrUnsupported }
func (l *Listing) DataNamed(string) ([]byte, error) { return nil, ErrUnsupported }
func (l *Listing) DataOf(Entry) ([]byte, error) { return nil, ErrUnsupported }
func (l *Listing) Append(string, []byte) error { return ErrUnsupported }
func (l *Listing) InsertAt(int, string, []byte) error { return ErrUnsupported }
func (l *Listing) AppendMarker(string) error { return ErrUnsupported }
func (l *Listing) ReplaceAt(int, []byte) error { return ErrUnsupported }
func (l *Listing) RenameAt(int, string) error { return ErrUnsupported }
func (l *Listing) DeleteAt(int) error { return ErrUnsupported }
func (l *Listing) ReplaceDirectory([]Entry) error { return ErrUnsupported }
func (l *Listing) Close() error { return nil }

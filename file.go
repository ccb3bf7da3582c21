package wad

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// File is an archive backed by a file on disk. Payloads are read lazily and
// every structural mutation is written through immediately.
//
// File is not safe for concurrent use. A mutation is several writes (data,
// directory, header) and a reader running alongside can observe them half done.
type File struct {
	directory
	path   string
	file   *os.File
	end    int  // end of the data region, where the directory is written
	packed bool // data region is laid out in directory order
	atomic bool
}

// Open opens an existing archive for reading and writing.
func Open(path string, opts ...Option) (*File, error) {
	logger.Printf("Opening %v ...", path)
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	kind, entries, err := readDirectory(file, info.Size())
	if err != nil {
		file.Close()
		return nil, err
	}
	o := newOptions(opts)
	return &File{
		directory: directory{kind: kind, entries: entries},
		path:      path,
		file:      file,
		end:       dataEnd(entries),
		packed:    isPacked(entries, dataEnd(entries)),
		atomic:    o.atomic,
	}, nil
}

// Create creates an empty archive at path, truncating any existing file.
func Create(path string, kind Kind, opts ...Option) (*File, error) {
	logger.Printf("Creating %v %v ...", kind, path)
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	f := &File{
		directory: directory{kind: kind},
		path:      path,
		file:      file,
		end:       headerSize,
		packed:    true,
		atomic:    newOptions(opts).atomic,
	}
	if err := f.writeDirectory(nil); err != nil {
		file.Close()
		return nil, err
	}
	return f, nil
}

// Path returns the file name the archive was opened with.
func (f *File) Path() string {
	return f.path
}

// Data returns a copy of the payload of entry i.
func (f *File) Data(i int) ([]byte, error) {
	if err := f.checkIndex(i); err != nil {
		return nil, err
	}
	return f.DataOf(f.entries[i])
}

// DataNamed returns a copy of the payload of the first entry called name.
func (f *File) DataNamed(name string) ([]byte, error) {
	i := f.IndexOf(name, 0)
	if i < 0 {
		return nil, errors.Wrap(ErrNotFound, CoerceName(name))
	}
	return f.Data(i)
}

// DataOf reads the byte range described by e.
func (f *File) DataOf(e Entry) ([]byte, error) {
	if f.file == nil {
		return nil, ErrClosed
	}
	if e.Size == 0 {
		return []byte{}, nil
	}
	lump := make([]byte, e.Size)
	if _, err := f.file.ReadAt(lump, int64(e.Offset)); err != nil {
		if err == io.EOF {
			return nil, errors.Errorf("wad: truncated lump %s", e.Name)
		}
		return nil, errors.Wrapf(err, "read %s", e.Name)
	}
	return lump, nil
}

// Append adds an entry at the end of the directory.
func (f *File) Append(name string, data []byte) error {
	return f.InsertAt(len(f.entries), name, data)
}

// AppendMarker adds a zero length entry at the end of the directory.
func (f *File) AppendMarker(name string) error {
	return f.InsertAt(len(f.entries), name, nil)
}

// InsertAt inserts an entry before index i. i may equal Len to append.
func (f *File) InsertAt(i int, name string, data []byte) error {
	if i < 0 || i > len(f.entries) {
		return &IndexError{Index: i, Len: len(f.entries)}
	}
	name = CoerceName(name)
	logger.Printf("Inserting %v (%v bytes) at %v", name, len(data), i)

	next := make([]pending, 0, len(f.entries)+1)
	next = append(next, pendingFrom(f.entries[:i])...)
	next = append(next, pending{Entry: Entry{Name: name, Size: len(data)}, data: data})
	next = append(next, pendingFrom(f.entries[i:])...)
	return f.apply(next, &splice{at: position(f.entries, i), data: data})
}

// ReplaceAt replaces the payload of entry i, keeping its name. Every later
// entry moves by the size difference.
func (f *File) ReplaceAt(i int, data []byte) error {
	if err := f.checkIndex(i); err != nil {
		return err
	}
	old := f.entries[i]
	logger.Printf("Replacing %v (%v -> %v bytes)", old.Name, old.Size, len(data))

	next := pendingFrom(f.entries)
	next[i] = pending{Entry: Entry{Name: old.Name, Size: len(data)}, data: data}
	return f.apply(next, &splice{at: position(f.entries, i), oldSize: old.Size, data: data})
}

// RenameAt changes the name of entry i.
func (f *File) RenameAt(i int, name string) error {
	if err := f.checkIndex(i); err != nil {
		return err
	}
	next := pendingFrom(f.entries)
	next[i].Name = CoerceName(name)
	return f.apply(next, nil)
}

// DeleteAt removes entry i and its payload. Every later entry moves down by
// the removed size.
func (f *File) DeleteAt(i int) error {
	if err := f.checkIndex(i); err != nil {
		return err
	}
	old := f.entries[i]
	logger.Printf("Deleting %v (%v bytes)", old.Name, old.Size)

	next := make([]pending, 0, len(f.entries)-1)
	next = append(next, pendingFrom(f.entries[:i])...)
	next = append(next, pendingFrom(f.entries[i+1:])...)
	return f.apply(next, &splice{at: position(f.entries, i), oldSize: old.Size})
}

// ReplaceDirectory swaps the whole directory. The entries must describe byte
// ranges already present in the data region; nothing is moved.
func (f *File) ReplaceDirectory(entries []Entry) error {
	prepared, err := prepareEntries(entries, f.end)
	if err != nil {
		return err
	}
	return f.apply(pendingFrom(prepared), nil)
}

// SetKind rewrites the header tag.
func (f *File) SetKind(kind Kind) error {
	prev := f.kind
	f.kind = kind
	if err := f.apply(pendingFrom(f.entries), nil); err != nil {
		f.kind = prev
		return err
	}
	return nil
}

// Close releases the underlying file.
func (f *File) Close() error {
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}

// apply commits next as the new directory. edit describes how the data region
// changes; nil means only the directory changes.
func (f *File) apply(next []pending, edit *splice) error {
	if f.file == nil {
		return ErrClosed
	}
	if f.atomic || (edit != nil && !f.packed) {
		return f.stage(next)
	}

	entries := make([]Entry, len(next))
	for i, p := range next {
		entries[i] = p.Entry
	}
	if edit != nil {
		if err := f.shift(edit); err != nil {
			return err
		}
		layout(entries)
	}
	return f.writeDirectory(entries)
}

// shift applies edit to the packed data region in place.
func (f *File) shift(edit *splice) error {
	tail := edit.at + edit.oldSize
	dst := edit.at + len(edit.data)
	if dst != tail {
		if err := moveRange(f.file, tail, dst, f.end-tail); err != nil {
			return errors.Wrap(err, "shift data")
		}
	}
	if len(edit.data) > 0 {
		if _, err := f.file.WriteAt(edit.data, int64(edit.at)); err != nil {
			return errors.Wrap(err, "write data")
		}
	}
	f.end += dst - tail
	return nil
}

// writeDirectory writes the directory at the end of the data region, trims the
// file after it and finally rewrites the header.
func (f *File) writeDirectory(entries []Entry) error {
	end := max(f.end, dataEnd(entries))
	dir, err := marshalDirectory(entries)
	if err != nil {
		return err
	}
	header, err := marshalHeader(f.kind, len(entries), end)
	if err != nil {
		return err
	}
	if _, err := f.file.WriteAt(dir, int64(end)); err != nil {
		return errors.Wrap(err, "write directory")
	}
	if err := f.file.Truncate(int64(end + len(dir))); err != nil {
		return errors.Wrap(err, "truncate")
	}
	if _, err := f.file.WriteAt(header, 0); err != nil {
		return errors.Wrap(err, "write header")
	}
	f.entries = entries
	f.end = end
	f.packed = isPacked(entries, end)
	return nil
}

// stage writes next as a complete new archive beside the original and renames
// it into place. It also compacts archives whose data region is not laid out
// in directory order.
func (f *File) stage(next []pending) error {
	logger.Printf("Staging %v entries to %v", len(next), f.path)
	info, err := f.file.Stat()
	if err != nil {
		return err
	}
	var entries []Entry
	err = writeAtomically(f.path, info.Mode().Perm(), func(w io.Writer) error {
		var err error
		_, entries, err = writeArchive(w, f.kind, next, func(p pending, w io.Writer) error {
			if p.data != nil {
				_, err := w.Write(p.data)
				return err
			}
			_, err := io.Copy(w, io.NewSectionReader(f.file, int64(p.Offset), int64(p.Size)))
			return err
		})
		return err
	})
	if err != nil {
		return err
	}

	f.file.Close()
	file, err := os.OpenFile(f.path, os.O_RDWR, 0)
	if err != nil {
		f.file = nil
		return errors.Wrap(err, "reopen")
	}
	f.file = file
	f.entries = entries
	f.end = layout(entries)
	f.packed = true
	return nil
}

const moveChunk = 64 << 10

// moveRange copies n bytes from src to dst within f. The ranges may overlap.
func moveRange(f *os.File, src, dst, n int) error {
	buf := make([]byte, min(n, moveChunk))
	if dst > src {
		for done := 0; done < n; {
			size := min(len(buf), n-done)
			from := src + n - done - size
			if _, err := f.ReadAt(buf[:size], int64(from)); err != nil {
				return err
			}
			if _, err := f.WriteAt(buf[:size], int64(dst+n-done-size)); err != nil {
				return err
			}
			done += size
		}
		return nil
	}
	for done := 0; done < n; {
		size := min(len(buf), n-done)
		if _, err := f.ReadAt(buf[:size], int64(src+done)); err != nil {
			return err
		}
		if _, err := f.WriteAt(buf[:size], int64(dst+done)); err != nil {
			return err
		}
		done += size
	}
	return nil
}

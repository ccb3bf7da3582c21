package wad

import (
	"bufio"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// pending is one entry of a directory that is about to be written. When data
// is nil the payload is read from Offset in the current backing store.
type pending struct {
	Entry
	data []byte
}

// splice describes an in-place edit of the data region: oldSize bytes at
// position at are replaced by data.
type splice struct {
	at      int
	oldSize int
	data    []byte
}

func pendingFrom(entries []Entry) []pending {
	result := make([]pending, len(entries))
	for i, e := range entries {
		result[i] = pending{Entry: e}
	}
	return result
}

// position returns where entry i starts in a packed data region.
func position(entries []Entry, i int) int {
	pos := headerSize
	for _, e := range entries[:i] {
		pos += e.Size
	}
	return pos
}

// writeArchive streams a complete packed archive: header, every payload in
// directory order, directory. payload writes the bytes of entry i.
func writeArchive(w io.Writer, kind Kind, plan []pending, payload func(p pending, w io.Writer) error) (int64, []Entry, error) {
	entries := make([]Entry, len(plan))
	for i, p := range plan {
		entries[i] = p.Entry
	}
	end := layout(entries)

	header, err := marshalHeader(kind, len(entries), end)
	if err != nil {
		return 0, nil, err
	}
	dir, err := marshalDirectory(entries)
	if err != nil {
		return 0, nil, err
	}

	cw := &countingWriter{w: w}
	if _, err := cw.Write(header); err != nil {
		return cw.n, nil, errors.Wrap(err, "write header")
	}
	for _, p := range plan {
		if p.Size == 0 {
			continue
		}
		if err := payload(p, cw); err != nil {
			return cw.n, nil, errors.Wrapf(err, "write %s", p.Name)
		}
	}
	if _, err := cw.Write(dir); err != nil {
		return cw.n, nil, errors.Wrap(err, "write directory")
	}
	return cw.n, entries, nil
}

// writeAtomically writes a file through a temporary sibling that is synced and
// renamed over path.
func writeAtomically(path string, mode os.FileMode, write func(w io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrap(err, "create staging file")
	}
	bw := bufio.NewWriterSize(tmp, 1<<16)
	err = write(bw)
	if err == nil {
		err = bw.Flush()
	}
	if err == nil {
		err = tmp.Chmod(mode)
	}
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "rename staging file")
	}
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
